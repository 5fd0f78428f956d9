package vrpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is registered as the content-subtype grpc negotiates instead of
// "proto". Every client and server in this module must dial/serve with
// grpc.CallContentSubtype(codecName) or the matching ServiceConfig default.
const codecName = "json"

// jsonCodec marshals the plain Go structs in messages.go as JSON. It
// satisfies encoding.Codec so it plugs into grpc's own framing,
// compression and interceptor machinery exactly as a generated protobuf
// codec would.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("vrpc: marshal %T: %w", v, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("vrpc: unmarshal into %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
