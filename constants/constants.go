package constants

import (
	"time"

	seldon "github.com/AminuIsrael/seldon-core"
)

const DefaultShutdownPeriod = time.Second * 10

const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgPack = "application/msgpack"
)

type Header struct {
	Name  string
	Value string
}

var (
	DefaultResponseHeaders = []Header{
		{Name: "Server", Value: "Seldon/" + seldon.VERSION},
	}
	DefaultClientRequestHeaders = []Header{
		{Name: "User-Agent", Value: "seldon-core-tester/" + seldon.VERSION},
	}
)
