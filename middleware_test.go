package modal

import (
	"context"
	"testing"

	"google.golang.org/grpc/metadata"
)

type fakeTokenSource struct {
	tok                     string
	tokenID, tokenSecret string
}

func (f *fakeTokenSource) token(ctx context.Context) (string, error) { return f.tok, nil }
func (f *fakeTokenSource) credentials() (string, string)             { return f.tokenID, f.tokenSecret }

func TestAttachAuth_InjectsAllRequiredHeaders(t *testing.T) {
	tokens := &fakeTokenSource{tok: "bearer-tok", tokenID: "tid-123", tokenSecret: "tsecret-456"}

	ctx, err := attachAuth(context.Background(), tokens)
	if err != nil {
		t.Fatalf("attachAuth: %v", err)
	}

	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatalf("expected outgoing metadata to be set")
	}

	cases := map[string]string{
		"authorization":            "Bearer bearer-tok",
		"x-modal-token-id":         "tid-123",
		"x-modal-token-secret":     "tsecret-456",
		"x-modal-client-type":      "4",
		"x-modal-client-version":   clientVersion,
		"x-modal-libmodal-version": libmodalVersion,
	}
	for key, want := range cases {
		got := md.Get(key)
		if len(got) != 1 || got[0] != want {
			t.Fatalf("header %q: expected %q, got %v", key, want, got)
		}
	}
}

func TestAttachAuth_NilTokenSourceIsNoop(t *testing.T) {
	ctx, err := attachAuth(context.Background(), nil)
	if err != nil {
		t.Fatalf("attachAuth: %v", err)
	}
	if _, ok := metadata.FromOutgoingContext(ctx); ok {
		t.Fatalf("expected no metadata to be attached for a nil token source")
	}
}
