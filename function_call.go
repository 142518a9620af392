package modal

import "context"

// FunctionCall is a handle to an in-flight or completed Function invocation
// started via Function.Spawn, independent of the caller that started it.
type FunctionCall struct {
	client         *Client
	inv            invocation
	functionCallID string
}

// Get blocks until the call's result is available or ctx's deadline elapses.
func (fc *FunctionCall) Get(ctx context.Context) (any, error) {
	return pollToCompletion(ctx, fc.inv, fc.client)
}

// Cancel requests that the server stop this call. When terminateContainers
// is true, containers already processing the input are killed outright
// rather than allowed to finish.
func (fc *FunctionCall) Cancel(ctx context.Context, terminateContainers bool) error {
	return fc.inv.cancel(ctx, terminateContainers)
}
