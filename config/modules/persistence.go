package modules

import (
	"errors"
	"fmt"
	"slices"
)

type Serializer string

const (
	SerializerMsgPack Serializer = "msgpack"
	SerializerJSON    Serializer = "json"
	SerializerGob     Serializer = "gob"
)

type PersistenceConfig struct {
	BaseConfig
	Enabled bool `yaml:"enabled" json:"enabled" default:"false"`
	// PushFrequency is in seconds
	PushFrequency uint32     `yaml:"push_frequency" json:"push_frequency" default:"60" split_words:"true"`
	Serializer    Serializer `yaml:"serializer" json:"serializer" default:"msgpack"`
	LockTimeout   uint32     `yaml:"lock_timeout" json:"lock_timeout" default:"10" split_words:"true"`
}

func (cfg *PersistenceConfig) Validate() error {
	if cfg.PushFrequency == 0 {
		return errors.New("push_frequency must be positive")
	}
	if !slices.Contains([]Serializer{SerializerMsgPack, SerializerJSON, SerializerGob}, cfg.Serializer) {
		return fmt.Errorf("invalid serializer: %s", cfg.Serializer)
	}
	return nil
}
