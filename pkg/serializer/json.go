package serializer

import (
	"bytes"
	"encoding/json"
)

var JSON JSONSerializer

type JSONSerializer struct{}

func (JSONSerializer) Name() string { return "json" }

func (JSONSerializer) Serialize(val interface{}) ([]byte, error) {
	return json.Marshal(val)
}

// Deserialize keeps numbers of untyped values as json.Number so large
// integers in a snapshot survive a restore.
func (JSONSerializer) Deserialize(b []byte, val interface{}) error {
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	return d.Decode(val)
}
