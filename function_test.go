package modal

import (
	"testing"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

func TestInputPayload_EncodesAsArgsKwargsTuple(t *testing.T) {
	codec, err := newCBORCodec()
	if err != nil {
		t.Fatalf("newCBORCodec: %v", err)
	}

	encoded, err := codec.Marshal(inputPayload{
		Args:   []any{"a", int64(1)},
		Kwargs: map[string]any{"k": "v"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded []any
	if err := codec.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("expected the tuple to decode as a 2-element array, got %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected exactly (args, kwargs), got %d elements", len(decoded))
	}
}

func TestFunction_Spawn_RejectsInputPlaneFunctions(t *testing.T) {
	f := &Function{
		client: &Client{},
		handle: &pb.HandleMetadata{InputPlaneUrl: "https://input-plane.example.com"},
	}

	if _, err := f.Spawn(nil, nil, nil); err == nil {
		t.Fatalf("expected Spawn to reject a Function whose handle routes through the input plane")
	}
}

func TestFunction_Invoke_RejectsWebEndpoints(t *testing.T) {
	f := &Function{
		client: &Client{},
		handle: &pb.HandleMetadata{WebUrl: "https://example.modal.run"},
	}

	if _, err := f.Invoke(nil, nil, nil); err == nil {
		t.Fatalf("expected Invoke to reject a web endpoint Function")
	}
}
