// Package serializer encodes component state snapshots and cached
// predictions.
package serializer

import (
	"fmt"
	"slices"
)

type Serializer interface {
	Name() string
	Serialize(val interface{}) ([]byte, error)
	Deserialize(b []byte, val interface{}) error
}

var serializers = []Serializer{MsgPack, JSON, Gob}

// Names lists the registered serializers, default first.
func Names() []string {
	names := make([]string, len(serializers))
	for i, s := range serializers {
		names[i] = s.Name()
	}
	return names
}

// Lookup returns the serializer registered under name.
func Lookup(name string) (Serializer, error) {
	i := slices.IndexFunc(serializers, func(s Serializer) bool { return s.Name() == name })
	if i < 0 {
		return nil, fmt.Errorf("unknown serializer: %s, expected one of %v", name, Names())
	}
	return serializers[i], nil
}
