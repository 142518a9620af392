package modal

import "github.com/fxamacker/cbor/v2"

// cborBlobThreshold is the inline-payload ceiling past which a function
// input or result is offloaded to blob storage instead of riding on the
// gRPC message itself.
const cborBlobThreshold = 2 * 1024 * 1024

// cborCodec is built once per Client and shared across every invocation,
// mirroring the teacher's pattern of constructing expensive codecs/clients
// once in agent/internal/transport and threading them through instead of
// re-deriving per call.
type cborCodec struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

func newCBORCodec() (*cborCodec, error) {
	// Generic maps are encoded untagged (plain CBOR map major type, no extra
	// tag number) and byte slices are left untagged as well, matching what
	// the server's own CBOR payloads expect on the wire.
	encOpts := cbor.CanonicalEncOptions()
	encOpts.Time = cbor.TimeUnix
	encMode, err := encOpts.EncMode()
	if err != nil {
		return nil, err
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}
	decMode, err := decOpts.DecMode()
	if err != nil {
		return nil, err
	}

	return &cborCodec{encMode: encMode, decMode: decMode}, nil
}

func (c *cborCodec) Marshal(v any) ([]byte, error) {
	return c.encMode.Marshal(v)
}

func (c *cborCodec) Unmarshal(data []byte, v any) error {
	return c.decMode.Unmarshal(data, v)
}

// needsBlobOffload reports whether an encoded payload must be offloaded to
// blob storage rather than ride inline on the gRPC message.
func needsBlobOffload(encoded []byte) bool {
	return len(encoded) > cborBlobThreshold
}
