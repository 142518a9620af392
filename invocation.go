package modal

import (
	"context"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// initialEntryID is the opaque cursor a fresh log/output stream starts
// from, before the server has ever returned a real one.
const initialEntryID = "0-0"

// invocation is the common surface the Invocation Engine drives regardless
// of which plane started the call: poll for an output within a bounded
// window, or retry the same logical input after an INTERNAL_FAILURE.
type invocation interface {
	awaitOutput(ctx context.Context, timeoutSecs float32) (*pb.FunctionGetOutputsItem, error)
	retry(ctx context.Context, input *pb.FunctionInput, retryCount uint32) error
	cancel(ctx context.Context, terminateContainers bool) error
}

// controlPlaneInvocation drives a FunctionMap-started call: the
// FunctionGetOutputs long-poll and FunctionRetryInputs retry path.
type controlPlaneInvocation struct {
	client          pb.ModalClient
	functionCallID  string
	functionCallJwt string
	inputJwt        string
	lastEntryID     string
}

func (inv *controlPlaneInvocation) awaitOutput(ctx context.Context, timeoutSecs float32) (*pb.FunctionGetOutputsItem, error) {
	resp, err := inv.client.FunctionGetOutputs(ctx, &pb.FunctionGetOutputsRequest{
		FunctionCallId: inv.functionCallID,
		MaxValues:      1,
		Timeout:        timeoutSecs,
		LastEntryId:    inv.lastEntryID,
		ClearOnSuccess: true,
		RequestedAt:    pb.NowUnix(),
	})
	if err != nil {
		return nil, classifyGRPCError(err)
	}
	inv.lastEntryID = resp.LastEntryId
	if len(resp.Outputs) == 0 {
		return nil, nil
	}
	return resp.Outputs[0], nil
}

func (inv *controlPlaneInvocation) retry(ctx context.Context, input *pb.FunctionInput, retryCount uint32) error {
	resp, err := inv.client.FunctionRetryInputs(ctx, &pb.FunctionRetryInputsRequest{
		FunctionCallJwt: inv.functionCallJwt,
		InputJwts:       []string{inv.inputJwt},
		Inputs: []*pb.FunctionPutInputsItem{
			{Idx: 0, Input: input},
		},
	})
	if err != nil {
		return classifyGRPCError(err)
	}
	if len(resp.InputJwts) > 0 {
		inv.inputJwt = resp.InputJwts[0]
	}
	return nil
}

func (inv *controlPlaneInvocation) cancel(ctx context.Context, terminateContainers bool) error {
	_, err := inv.client.FunctionCallCancel(ctx, &pb.FunctionCallCancelRequest{
		FunctionCallId:      inv.functionCallID,
		TerminateContainers: terminateContainers,
	})
	return classifyGRPCError(err)
}

// inputPlaneInvocation drives an AttemptStart-started call against a
// per-function input plane channel.
type inputPlaneInvocation struct {
	ip           pb.InputPlaneClient
	functionID   string
	attemptToken string
}

func (inv *inputPlaneInvocation) awaitOutput(ctx context.Context, timeoutSecs float32) (*pb.FunctionGetOutputsItem, error) {
	resp, err := inv.ip.AttemptAwait(ctx, &pb.AttemptAwaitRequest{
		AttemptToken: inv.attemptToken,
		RequestedAt:  pb.NowUnix(),
		TimeoutSecs:  timeoutSecs,
	})
	if err != nil {
		return nil, classifyGRPCError(err)
	}
	return resp.Output, nil
}

func (inv *inputPlaneInvocation) retry(ctx context.Context, input *pb.FunctionInput, retryCount uint32) error {
	resp, err := inv.ip.AttemptRetry(ctx, &pb.AttemptRetryRequest{
		AttemptToken: inv.attemptToken,
		Input:        input,
		RetryCount:   retryCount,
	})
	if err != nil {
		return classifyGRPCError(err)
	}
	inv.attemptToken = resp.AttemptToken
	return nil
}

// cancel has no input-plane equivalent in this protocol; callers cancel
// input-plane calls by simply abandoning the poll, so this is a no-op.
func (inv *inputPlaneInvocation) cancel(ctx context.Context, terminateContainers bool) error {
	return nil
}
