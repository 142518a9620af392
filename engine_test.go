package modal

import (
	"context"
	"testing"
	"time"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

func TestClassifyResult(t *testing.T) {
	cases := []struct {
		name   string
		item   *pb.FunctionGetOutputsItem
		expect resultClass
	}{
		{"nil result", &pb.FunctionGetOutputsItem{}, resultOther},
		{"success", &pb.FunctionGetOutputsItem{Result: &pb.GenericResult{Status: pb.GenericStatusSuccess}}, resultSuccess},
		{"timeout", &pb.FunctionGetOutputsItem{Result: &pb.GenericResult{Status: pb.GenericStatusTimeout}}, resultTimeout},
		{"internal failure", &pb.FunctionGetOutputsItem{Result: &pb.GenericResult{Status: pb.GenericStatusInternalFailure}}, resultInternalFailure},
		{"generic failure", &pb.FunctionGetOutputsItem{Result: &pb.GenericResult{Status: pb.GenericStatusFailure}}, resultOther},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := classifyResult(c.item); got != c.expect {
				t.Fatalf("classifyResult(%s) = %v, want %v", c.name, got, c.expect)
			}
		})
	}
}

// fakeInvocation drives pollToCompletion through a scripted sequence of
// awaitOutput results without any network.
type fakeInvocation struct {
	outputs []*pb.FunctionGetOutputsItem
	idx     int
	retries int
}

func (f *fakeInvocation) awaitOutput(ctx context.Context, timeoutSecs float32) (*pb.FunctionGetOutputsItem, error) {
	if f.idx >= len(f.outputs) {
		return nil, nil
	}
	out := f.outputs[f.idx]
	f.idx++
	return out, nil
}

func (f *fakeInvocation) retry(ctx context.Context, input *pb.FunctionInput, retryCount uint32) error {
	f.retries++
	return nil
}

func (f *fakeInvocation) cancel(ctx context.Context, terminateContainers bool) error { return nil }

func TestPollToCompletion_RetriesInternalFailureThenSucceeds(t *testing.T) {
	codec, err := newCBORCodec()
	if err != nil {
		t.Fatalf("newCBORCodec: %v", err)
	}
	payload, err := codec.Marshal("ok")
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	inv := &fakeInvocation{outputs: []*pb.FunctionGetOutputsItem{
		{Result: &pb.GenericResult{Status: pb.GenericStatusInternalFailure}},
		{Result: &pb.GenericResult{Status: pb.GenericStatusSuccess}, Data: payload, DataFormat: pb.DataFormatCBOR},
	}}

	client := &Client{cbor: codec}
	result, err := pollToCompletion(context.Background(), inv, client)
	if err != nil {
		t.Fatalf("pollToCompletion: %v", err)
	}
	if result != "ok" {
		t.Fatalf("expected decoded result %q, got %v", "ok", result)
	}
	if inv.retries != 1 {
		t.Fatalf("expected exactly one retry, got %d", inv.retries)
	}
}

func TestPollToCompletion_GivesUpAfterMaxSystemRetries(t *testing.T) {
	var outputs []*pb.FunctionGetOutputsItem
	for i := 0; i < maxSystemRetries+1; i++ {
		outputs = append(outputs, &pb.FunctionGetOutputsItem{Result: &pb.GenericResult{Status: pb.GenericStatusInternalFailure}})
	}
	inv := &fakeInvocation{outputs: outputs}

	codec, _ := newCBORCodec()
	client := &Client{cbor: codec}

	_, err := pollToCompletion(context.Background(), inv, client)
	if err == nil {
		t.Fatalf("expected an error once system retries are exhausted")
	}
}

func TestPollToCompletion_RespectsCallerDeadline(t *testing.T) {
	inv := &fakeInvocation{} // never produces an output.
	codec, _ := newCBORCodec()
	client := &Client{cbor: codec}

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := pollToCompletion(ctx, inv, client)
	if err == nil {
		t.Fatalf("expected a timeout error for an already-elapsed deadline")
	}
}
