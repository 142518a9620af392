package modal

import (
	"context"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// Function is a handle to one deployed, callable unit of remote compute: a
// plain `@app.function`, or a bound method of a parameterized Cls instance
// (methodName set in that case).
type Function struct {
	client     *Client
	functionID string
	methodName string // "" for a plain function.
	handle     *pb.HandleMetadata
	options    *Options
}

// FunctionLookup resolves a deployed Function by app and name within the
// client's active (or overridden) environment.
func FunctionLookup(ctx context.Context, client *Client, appName, tag string, environment string) (*Function, error) {
	resp, err := client.control.FunctionGet(ctx, &pb.FunctionGetRequest{
		AppName:     appName,
		ObjectTag:   tag,
		Environment: client.withEnvironment(environment),
	})
	if err != nil {
		return nil, classifyGRPCError(err)
	}
	return &Function{client: client, functionID: resp.FunctionId, handle: resp.Handle}, nil
}

// boundMethod returns a Function handle scoped to one method of a bound
// Cls instance, looking up its per-method HandleMetadata when present.
func (f *Function) boundMethod(methodName string) *Function {
	handle := f.handle
	if f.handle != nil && f.handle.MethodHandleMetadata != nil {
		if m, ok := f.handle.MethodHandleMetadata[methodName]; ok {
			handle = m
		}
	}
	return &Function{
		client:     f.client,
		functionID: f.functionID,
		methodName: methodName,
		handle:     handle,
	}
}

// isWebEndpoint reports whether this Function is a web endpoint, which this
// core refuses to invoke directly (spec.md: web endpoints are called over
// HTTP, not through FunctionMap/AttemptStart).
func (f *Function) isWebEndpoint() bool {
	return f.handle != nil && f.handle.WebUrl != ""
}

func (f *Function) inputPlaneURL() string {
	if f.handle == nil {
		return ""
	}
	return f.handle.InputPlaneUrl
}

// Invoke calls the Function synchronously, returning the decoded result.
// args and kwargs are encoded together as the wire tuple (args-array,
// kwargs-map); either may be nil.
func (f *Function) Invoke(ctx context.Context, args []any, kwargs map[string]any) (any, error) {
	if f.isWebEndpoint() {
		return nil, InvalidArgumentError("cannot invoke a web endpoint Function directly")
	}
	return invokeEngine(ctx, f, args, kwargs)
}

// Spawn starts the Function call without waiting for its result, returning
// a FunctionCall handle the caller can poll or cancel independently. The
// input plane does not support async invocation, so Spawn rejects any
// Function whose handle routes through one.
func (f *Function) Spawn(ctx context.Context, args []any, kwargs map[string]any) (*FunctionCall, error) {
	if f.isWebEndpoint() {
		return nil, InvalidArgumentError("cannot invoke a web endpoint Function directly")
	}
	if f.inputPlaneURL() != "" {
		return nil, InvalidArgumentError("async invocation (Spawn) is not supported on the input plane")
	}
	return spawnEngine(ctx, f, args, kwargs)
}
