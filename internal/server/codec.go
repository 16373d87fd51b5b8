package server

import (
	"connectrpc.com/connect"
	json "github.com/goccy/go-json"
)

// JSONCodec replaces connect's protojson codec so plain Go structs can travel
// as messages.
var JSONCodec connect.Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}
