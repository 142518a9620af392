package modal

import (
	"context"
	"time"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// serverPollCap is the longest timeout the server will honor on a single
// FunctionGetOutputs/AttemptAwait long-poll; the engine never asks for more
// than this in one round trip regardless of the caller's own deadline.
const serverPollCap = 55 * time.Second

// maxSystemRetries bounds how many times the engine will resubmit an input
// after GenericStatus_INTERNAL_FAILURE before giving up and surfacing it to
// the caller.
const maxSystemRetries = 8

// invokeEngine runs one Function call end-to-end: encode, offload to blob
// storage if large, start the call on whichever plane the Function's
// HandleMetadata selects, poll until a result lands (retrying internal
// failures up to maxSystemRetries times), and decode the result.
func invokeEngine(ctx context.Context, f *Function, args []any, kwargs map[string]any) (any, error) {
	call, err := startEngine(ctx, f, args, kwargs)
	if err != nil {
		return nil, err
	}
	return pollToCompletion(ctx, call.inv, f.client)
}

func spawnEngine(ctx context.Context, f *Function, args []any, kwargs map[string]any) (*FunctionCall, error) {
	return startEngine(ctx, f, args, kwargs)
}

// inputPayload is the wire tuple CBOR-encodes an invocation's arguments as:
// a positional args array paired with a keyword args map, matching the
// calling convention every Modal function signature expects.
type inputPayload struct {
	_      struct{} `cbor:",toarray"`
	Args   []any
	Kwargs map[string]any
}

func startEngine(ctx context.Context, f *Function, args []any, kwargs map[string]any) (*FunctionCall, error) {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	encoded, err := f.client.cbor.Marshal(inputPayload{Args: args, Kwargs: kwargs})
	if err != nil {
		return nil, InvalidArgumentError("encoding arguments: " + err.Error())
	}

	input := &pb.FunctionInput{DataFormat: pb.DataFormatCBOR, FinalInput: true}
	if needsBlobOffload(encoded) {
		blobID, err := uploadBlob(ctx, f.client.control, encoded)
		if err != nil {
			return nil, err
		}
		input.ArgsBlobId = blobID
	} else {
		input.Args = encoded
	}

	if url := f.inputPlaneURL(); url != "" {
		ip, err := f.client.inputPlaneClient(url)
		if err != nil {
			return nil, err
		}
		resp, err := ip.AttemptStart(ctx, &pb.AttemptStartRequest{FunctionId: f.functionID, Input: input})
		if err != nil {
			return nil, classifyGRPCError(err)
		}
		inv := &inputPlaneInvocation{ip: ip, functionID: f.functionID, attemptToken: resp.AttemptToken}
		return &FunctionCall{client: f.client, inv: inv}, nil
	}

	resp, err := f.client.control.FunctionMap(ctx, &pb.FunctionMapRequest{
		FunctionId:       f.functionID,
		FunctionCallType: "UNARY",
		InvocationType:   pb.FunctionCallInvocationTypeSync,
		PipelinedInputs:  []*pb.FunctionPutInputsItem{{Idx: 0, Input: input}},
	})
	if err != nil {
		return nil, classifyGRPCError(err)
	}

	var inputJwt string
	if len(resp.PipelinedInputs) > 0 {
		inputJwt = resp.PipelinedInputs[0].InputJwt
	}
	inv := &controlPlaneInvocation{
		client:          f.client.control,
		functionCallID:  resp.FunctionCallId,
		functionCallJwt: resp.FunctionCallJwt,
		inputJwt:        inputJwt,
		lastEntryID:     initialEntryID,
	}
	return &FunctionCall{client: f.client, inv: inv, functionCallID: resp.FunctionCallId}, nil
}

// pollToCompletion drives the await/retry loop until a terminal result
// lands or the caller's own context deadline elapses, decoding the final
// payload on success.
func pollToCompletion(ctx context.Context, inv invocation, client *Client) (any, error) {
	systemRetries := 0

	for {
		window := serverPollCap
		if deadline, ok := ctx.Deadline(); ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return nil, FunctionTimeoutError("function call exceeded caller deadline")
			}
			if remaining < window {
				window = remaining
			}
		}

		item, err := inv.awaitOutput(ctx, float32(window.Seconds()))
		if err != nil {
			return nil, err
		}
		if item == nil {
			continue // server-side timeout with no result yet; poll again.
		}

		switch classifyResult(item) {
		case resultSuccess:
			return decodeResult(ctx, client, item)
		case resultTimeout:
			return nil, FunctionTimeoutError("function call timed out")
		case resultInternalFailure:
			systemRetries++
			if systemRetries > maxSystemRetries {
				return nil, InternalFailureError("function call failed after system retries were exhausted")
			}
			if err := inv.retry(ctx, lastSubmittedInput(item), uint32(systemRetries)); err != nil {
				return nil, err
			}
		default:
			if item.Result != nil && item.Result.Exception != "" {
				return nil, RemoteError(item.Result.Exception)
			}
			return nil, RemoteError("function call failed")
		}
	}
}

type resultClass int

const (
	resultOther resultClass = iota
	resultSuccess
	resultTimeout
	resultInternalFailure
)

func classifyResult(item *pb.FunctionGetOutputsItem) resultClass {
	if item.Result == nil {
		return resultOther
	}
	switch item.Result.Status {
	case pb.GenericStatusSuccess:
		return resultSuccess
	case pb.GenericStatusTimeout:
		return resultTimeout
	case pb.GenericStatusInternalFailure:
		return resultInternalFailure
	default:
		return resultOther
	}
}

// lastSubmittedInput re-encodes an empty retry input; the server retains
// the original arguments keyed by input JWT, so a retry only needs to carry
// the data format and final-input flag again.
func lastSubmittedInput(item *pb.FunctionGetOutputsItem) *pb.FunctionInput {
	return &pb.FunctionInput{DataFormat: pb.DataFormatCBOR, FinalInput: true}
}

// decodeResult prefers the inline Data payload; when the output was
// offloaded it downloads the blob first. Only CBOR payloads are accepted —
// pickle/ASGI formats from legacy callers are explicitly rejected.
func decodeResult(ctx context.Context, client *Client, item *pb.FunctionGetOutputsItem) (any, error) {
	if item.DataFormat != pb.DataFormatCBOR {
		return nil, InvalidArgumentError("function result is not CBOR-encoded")
	}

	data := item.Data
	if item.DataBlobId != "" {
		blobData, err := downloadBlob(ctx, client.control, item.DataBlobId)
		if err != nil {
			return nil, err
		}
		data = blobData
	}

	var result any
	if err := client.cbor.Unmarshal(data, &result); err != nil {
		return nil, InvalidArgumentError("decoding function result: " + err.Error())
	}
	return result, nil
}
