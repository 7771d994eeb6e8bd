package tester

import (
	"github.com/AminuIsrael/seldon-core/message"
)

// NewRequest builds the request message of a batch. Numeric batches are
// sent as a tensor when asTensor is set.
func NewRequest(b *Batch, asTensor bool) *message.SeldonMessage {
	data := &message.DefaultData{Names: b.Names}
	if asTensor && b.Numeric {
		data.Tensor = &message.Tensor{
			Shape:  b.Shape(),
			Values: b.Values(),
		}
	} else {
		data.Ndarray = make([]any, len(b.Rows))
		for i, row := range b.Rows {
			data.Ndarray[i] = row
		}
	}
	return &message.SeldonMessage{Data: data}
}
