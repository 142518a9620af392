package modal

import (
	"bytes"
	"testing"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

func TestEncodeClassParameters_DeterministicUnderMapReordering(t *testing.T) {
	info := &pb.ClassParameterInfo{
		Schema: []*pb.ClassParameterSpec{
			{Name: "zeta", Type: pb.ClassParameterTypeString},
			{Name: "alpha", Type: pb.ClassParameterTypeInt},
			{Name: "mid", Type: pb.ClassParameterTypeBool},
		},
	}

	a, err := encodeClassParameters(info, map[string]any{
		"zeta": "z", "alpha": int64(1), "mid": true,
	})
	if err != nil {
		t.Fatalf("encode a: %v", err)
	}

	// Build the same logical params via a map literal with different
	// insertion order; Go map iteration order is randomized per-run, so
	// this alone exercises the schema-order guarantee rather than relying
	// on map insertion order ever mattering.
	b, err := encodeClassParameters(info, map[string]any{
		"mid": true, "zeta": "z", "alpha": int64(1),
	})
	if err != nil {
		t.Fatalf("encode b: %v", err)
	}

	if !bytes.Equal(a, b) {
		t.Fatalf("expected byte-identical encodings regardless of map order, got %x vs %x", a, b)
	}
}

func TestEncodeClassParameters_MissingRequiredParam(t *testing.T) {
	info := &pb.ClassParameterInfo{
		Schema: []*pb.ClassParameterSpec{
			{Name: "required_field", Type: pb.ClassParameterTypeString},
		},
	}

	_, err := encodeClassParameters(info, map[string]any{})
	if err == nil {
		t.Fatalf("expected error for missing required parameter")
	}
}

func TestEncodeClassParameters_FillsDefaultForMissingOptional(t *testing.T) {
	info := &pb.ClassParameterInfo{
		Schema: []*pb.ClassParameterSpec{
			{Name: "optional_field", Type: pb.ClassParameterTypeString, HasDefault: true, DefaultValue: "fallback"},
		},
	}

	withDefault, err := encodeClassParameters(info, map[string]any{})
	if err != nil {
		t.Fatalf("expected no error when optional param is omitted, got %v", err)
	}

	explicit, err := encodeClassParameters(info, map[string]any{"optional_field": "fallback"})
	if err != nil {
		t.Fatalf("encode explicit: %v", err)
	}

	if !bytes.Equal(withDefault, explicit) {
		t.Fatalf("expected omitting the param to encode identically to supplying its default value")
	}
}

func TestEncodeClassParameters_RejectsWrongType(t *testing.T) {
	info := &pb.ClassParameterInfo{
		Schema: []*pb.ClassParameterSpec{
			{Name: "count", Type: pb.ClassParameterTypeInt},
		},
	}

	_, err := encodeClassParameters(info, map[string]any{"count": "not an int"})
	if err == nil {
		t.Fatalf("expected a type error for a string value against an int schema field")
	}
}
