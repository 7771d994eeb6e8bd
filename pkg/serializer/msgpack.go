package serializer

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgPack is the default serializer. Struct fields are named by their json
// tags so msgpack and JSON payloads of a message carry the same keys.
var MsgPack MsgPackSerializer

type MsgPackSerializer struct{}

func (MsgPackSerializer) Name() string { return "msgpack" }

func (MsgPackSerializer) Serialize(val interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)

	enc.Reset(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgPackSerializer) Deserialize(b []byte, val interface{}) error {
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)

	dec.Reset(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	return dec.Decode(val)
}
