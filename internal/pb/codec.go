package pb

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// plainCodec lets grpc.ClientConn transmit the hand-written structs in this
// package as ordinary JSON frames instead of requiring them to implement
// proto.Message, which a real protoc-gen-go run would have given them for
// free. Registering under the name "proto" (grpc-go's default content
// subtype) replaces the standard protobuf codec process-wide, which is
// safe here because nothing in this module ever constructs an actual
// generated proto.Message to send over the same channels.
type plainCodec struct{}

func (plainCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (plainCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (plainCodec) Name() string { return "proto" }

func init() {
	encoding.RegisterCodec(plainCodec{})
}
