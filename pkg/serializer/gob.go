package serializer

import (
	"bytes"
	"encoding/gob"
)

// Gob only restores concrete types. Components keeping interface values in
// their state must register them with gob.Register.
var Gob GobSerializer

type GobSerializer struct{}

func (GobSerializer) Name() string { return "gob" }

func (GobSerializer) Serialize(val interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GobSerializer) Deserialize(b []byte, val interface{}) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(val)
}
