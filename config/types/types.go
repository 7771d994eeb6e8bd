package types

import "encoding/json"

type Config interface {
	Validate() error
	PostProcess() error
}

// Map is a string map that can be decoded from a JSON environment value.
type Map map[string]string

func (m *Map) Decode(value string) error {
	return json.Unmarshal([]byte(value), m)
}

type Password string

func (p Password) MarshalJSON() ([]byte, error) {
	return json.Marshal("******")
}

func (p Password) String() string {
	return string(p)
}
