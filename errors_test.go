package modal

import (
	"errors"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestClassifyGRPCError_MapsKnownCodes(t *testing.T) {
	cases := []struct {
		code codes.Code
		want ErrorKind
	}{
		{codes.NotFound, KindNotFound},
		{codes.AlreadyExists, KindAlreadyExists},
		{codes.InvalidArgument, KindInvalidArgument},
		{codes.DeadlineExceeded, KindDeadlineExceeded},
		{codes.Canceled, KindCancelled},
	}
	for _, c := range cases {
		err := classifyGRPCError(status.Error(c.code, "boom"))
		var typed Error
		if !errors.As(err, &typed) {
			t.Fatalf("code %v: expected a typed Error, got %v", c.code, err)
		}
		if typed.Kind != c.want {
			t.Fatalf("code %v: expected kind %v, got %v", c.code, c.want, typed.Kind)
		}
	}
}

func TestClassifyGRPCError_FailedPreconditionSpecialCases(t *testing.T) {
	err := classifyGRPCError(status.Error(codes.FailedPrecondition, "Secret is missing key FOO"))
	if !errors.Is(err, Error{Kind: KindNotFound}) {
		t.Fatalf("expected the missing-secret-key message to classify as NotFound, got %v", err)
	}

	err = classifyGRPCError(status.Error(codes.FailedPrecondition, "Could not find image abc123"))
	if !errors.Is(err, Error{Kind: KindNotFound}) {
		t.Fatalf("expected the missing-image message to classify as NotFound, got %v", err)
	}

	err = classifyGRPCError(status.Error(codes.FailedPrecondition, "some other precondition failure"))
	if errors.Is(err, Error{Kind: KindNotFound}) {
		t.Fatalf("expected an unrelated FAILED_PRECONDITION message to propagate verbatim, got %v", err)
	}
}

func TestClassifyGRPCError_NilIsNil(t *testing.T) {
	if classifyGRPCError(nil) != nil {
		t.Fatalf("expected nil in, nil out")
	}
}

func TestError_IsMatchesOnKindOnly(t *testing.T) {
	a := NotFoundError("sandbox xyz")
	b := NotFoundError("a completely different message")
	if !errors.Is(a, b) {
		t.Fatalf("expected two NotFoundErrors with different messages to match via errors.Is")
	}
	if errors.Is(a, AlreadyExistsError("x")) {
		t.Fatalf("expected different kinds not to match")
	}
}
