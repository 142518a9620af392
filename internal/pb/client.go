package pb

import (
	"context"

	"google.golang.org/grpc"
)

// ModalClient is the control-plane (and, for sandboxes, always-on) service.
// Every RPC the Invocation Engine, Cls binder, Sandbox lifecycle, Sandbox
// filesystem, and blob helpers issue lives here.
type ModalClient interface {
	AuthTokenGet(ctx context.Context, in *AuthTokenGetRequest, opts ...grpc.CallOption) (*AuthTokenGetResponse, error)

	FunctionGet(ctx context.Context, in *FunctionGetRequest, opts ...grpc.CallOption) (*FunctionGetResponse, error)
	FunctionMap(ctx context.Context, in *FunctionMapRequest, opts ...grpc.CallOption) (*FunctionMapResponse, error)
	FunctionGetOutputs(ctx context.Context, in *FunctionGetOutputsRequest, opts ...grpc.CallOption) (*FunctionGetOutputsResponse, error)
	FunctionRetryInputs(ctx context.Context, in *FunctionRetryInputsRequest, opts ...grpc.CallOption) (*FunctionRetryInputsResponse, error)
	FunctionCallCancel(ctx context.Context, in *FunctionCallCancelRequest, opts ...grpc.CallOption) (*FunctionCallCancelResponse, error)
	FunctionBindParams(ctx context.Context, in *FunctionBindParamsRequest, opts ...grpc.CallOption) (*FunctionBindParamsResponse, error)

	BlobCreate(ctx context.Context, in *BlobCreateRequest, opts ...grpc.CallOption) (*BlobCreateResponse, error)
	BlobGet(ctx context.Context, in *BlobGetRequest, opts ...grpc.CallOption) (*BlobGetResponse, error)

	SandboxCreate(ctx context.Context, in *SandboxCreateRequest, opts ...grpc.CallOption) (*SandboxCreateResponse, error)
	SandboxWait(ctx context.Context, in *SandboxWaitRequest, opts ...grpc.CallOption) (*SandboxWaitResponse, error)
	SandboxGetFromName(ctx context.Context, in *SandboxGetFromNameRequest, opts ...grpc.CallOption) (*SandboxGetFromNameResponse, error)
	SandboxList(ctx context.Context, in *SandboxListRequest, opts ...grpc.CallOption) (*SandboxListResponse, error)
	SandboxTagsSet(ctx context.Context, in *SandboxTagsSetRequest, opts ...grpc.CallOption) (*SandboxTagsSetResponse, error)
	SandboxTagsGet(ctx context.Context, in *SandboxTagsGetRequest, opts ...grpc.CallOption) (*SandboxTagsGetResponse, error)
	SandboxTerminate(ctx context.Context, in *SandboxTerminateRequest, opts ...grpc.CallOption) (*SandboxTerminateResponse, error)
	SandboxGetTaskId(ctx context.Context, in *SandboxGetTaskIdRequest, opts ...grpc.CallOption) (*SandboxGetTaskIdResponse, error)
	SandboxGetTunnels(ctx context.Context, in *SandboxGetTunnelsRequest, opts ...grpc.CallOption) (*SandboxGetTunnelsResponse, error)
	SandboxSnapshotFs(ctx context.Context, in *SandboxSnapshotFsRequest, opts ...grpc.CallOption) (*SandboxSnapshotFsResponse, error)
	SandboxCreateConnectToken(ctx context.Context, in *SandboxCreateConnectTokenRequest, opts ...grpc.CallOption) (*SandboxCreateConnectTokenResponse, error)
	SandboxStdinWrite(ctx context.Context, in *SandboxStdinWriteRequest, opts ...grpc.CallOption) (*SandboxStdinWriteResponse, error)
	SandboxGetLogs(ctx context.Context, in *SandboxGetLogsRequest, opts ...grpc.CallOption) (SandboxGetLogsClient, error)

	ContainerFilesystemExec(ctx context.Context, in *ContainerFilesystemExecRequest, opts ...grpc.CallOption) (*ContainerFilesystemExecResponse, error)
	ContainerFilesystemExecGetOutput(ctx context.Context, in *ContainerFilesystemExecGetOutputRequest, opts ...grpc.CallOption) (ContainerFilesystemExecGetOutputClient, error)

	TaskGetCommandRouterAccess(ctx context.Context, in *TaskGetCommandRouterAccessRequest, opts ...grpc.CallOption) (*TaskGetCommandRouterAccessResponse, error)
}

// SandboxGetLogsClient is the server-streaming reply from SandboxGetLogs.
type SandboxGetLogsClient interface {
	Recv() (*LogBatch, error)
}

// ContainerFilesystemExecGetOutputClient is the server-streaming reply from
// ContainerFilesystemExecGetOutput.
type ContainerFilesystemExecGetOutputClient interface {
	Recv() (*ContainerFilesystemExecGetOutputResponse, error)
}

const (
	modalClientService = "/modal.client.ModalClient/"
)

type modalClient struct {
	cc *grpc.ClientConn
}

// NewModalClient builds a ModalClient stub over an already-dialed channel,
// exactly like protoc-gen-go-grpc's NewXxxClient constructors.
func NewModalClient(cc *grpc.ClientConn) ModalClient {
	return &modalClient{cc: cc}
}

func (c *modalClient) AuthTokenGet(ctx context.Context, in *AuthTokenGetRequest, opts ...grpc.CallOption) (*AuthTokenGetResponse, error) {
	out := new(AuthTokenGetResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"AuthTokenGet", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) FunctionGet(ctx context.Context, in *FunctionGetRequest, opts ...grpc.CallOption) (*FunctionGetResponse, error) {
	out := new(FunctionGetResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"FunctionGet", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) FunctionMap(ctx context.Context, in *FunctionMapRequest, opts ...grpc.CallOption) (*FunctionMapResponse, error) {
	out := new(FunctionMapResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"FunctionMap", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) FunctionGetOutputs(ctx context.Context, in *FunctionGetOutputsRequest, opts ...grpc.CallOption) (*FunctionGetOutputsResponse, error) {
	out := new(FunctionGetOutputsResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"FunctionGetOutputs", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) FunctionRetryInputs(ctx context.Context, in *FunctionRetryInputsRequest, opts ...grpc.CallOption) (*FunctionRetryInputsResponse, error) {
	out := new(FunctionRetryInputsResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"FunctionRetryInputs", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) FunctionCallCancel(ctx context.Context, in *FunctionCallCancelRequest, opts ...grpc.CallOption) (*FunctionCallCancelResponse, error) {
	out := new(FunctionCallCancelResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"FunctionCallCancel", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) FunctionBindParams(ctx context.Context, in *FunctionBindParamsRequest, opts ...grpc.CallOption) (*FunctionBindParamsResponse, error) {
	out := new(FunctionBindParamsResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"FunctionBindParams", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) BlobCreate(ctx context.Context, in *BlobCreateRequest, opts ...grpc.CallOption) (*BlobCreateResponse, error) {
	out := new(BlobCreateResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"BlobCreate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) BlobGet(ctx context.Context, in *BlobGetRequest, opts ...grpc.CallOption) (*BlobGetResponse, error) {
	out := new(BlobGetResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"BlobGet", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxCreate(ctx context.Context, in *SandboxCreateRequest, opts ...grpc.CallOption) (*SandboxCreateResponse, error) {
	out := new(SandboxCreateResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxCreate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxWait(ctx context.Context, in *SandboxWaitRequest, opts ...grpc.CallOption) (*SandboxWaitResponse, error) {
	out := new(SandboxWaitResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxWait", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxGetFromName(ctx context.Context, in *SandboxGetFromNameRequest, opts ...grpc.CallOption) (*SandboxGetFromNameResponse, error) {
	out := new(SandboxGetFromNameResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxGetFromName", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxList(ctx context.Context, in *SandboxListRequest, opts ...grpc.CallOption) (*SandboxListResponse, error) {
	out := new(SandboxListResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxList", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxTagsSet(ctx context.Context, in *SandboxTagsSetRequest, opts ...grpc.CallOption) (*SandboxTagsSetResponse, error) {
	out := new(SandboxTagsSetResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxTagsSet", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxTagsGet(ctx context.Context, in *SandboxTagsGetRequest, opts ...grpc.CallOption) (*SandboxTagsGetResponse, error) {
	out := new(SandboxTagsGetResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxTagsGet", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxTerminate(ctx context.Context, in *SandboxTerminateRequest, opts ...grpc.CallOption) (*SandboxTerminateResponse, error) {
	out := new(SandboxTerminateResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxTerminate", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxGetTaskId(ctx context.Context, in *SandboxGetTaskIdRequest, opts ...grpc.CallOption) (*SandboxGetTaskIdResponse, error) {
	out := new(SandboxGetTaskIdResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxGetTaskId", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxGetTunnels(ctx context.Context, in *SandboxGetTunnelsRequest, opts ...grpc.CallOption) (*SandboxGetTunnelsResponse, error) {
	out := new(SandboxGetTunnelsResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxGetTunnels", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxSnapshotFs(ctx context.Context, in *SandboxSnapshotFsRequest, opts ...grpc.CallOption) (*SandboxSnapshotFsResponse, error) {
	out := new(SandboxSnapshotFsResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxSnapshotFs", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxCreateConnectToken(ctx context.Context, in *SandboxCreateConnectTokenRequest, opts ...grpc.CallOption) (*SandboxCreateConnectTokenResponse, error) {
	out := new(SandboxCreateConnectTokenResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxCreateConnectToken", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *modalClient) SandboxStdinWrite(ctx context.Context, in *SandboxStdinWriteRequest, opts ...grpc.CallOption) (*SandboxStdinWriteResponse, error) {
	out := new(SandboxStdinWriteResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"SandboxStdinWrite", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

var sandboxGetLogsStreamDesc = &grpc.StreamDesc{
	StreamName:    "SandboxGetLogs",
	ServerStreams: true,
}

func (c *modalClient) SandboxGetLogs(ctx context.Context, in *SandboxGetLogsRequest, opts ...grpc.CallOption) (SandboxGetLogsClient, error) {
	stream, err := c.cc.NewStream(ctx, sandboxGetLogsStreamDesc, modalClientService+"SandboxGetLogs", opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &sandboxGetLogsClient{stream}, nil
}

type sandboxGetLogsClient struct{ grpc.ClientStream }

func (x *sandboxGetLogsClient) Recv() (*LogBatch, error) {
	m := new(LogBatch)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *modalClient) ContainerFilesystemExec(ctx context.Context, in *ContainerFilesystemExecRequest, opts ...grpc.CallOption) (*ContainerFilesystemExecResponse, error) {
	out := new(ContainerFilesystemExecResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"ContainerFilesystemExec", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

var containerFilesystemExecGetOutputStreamDesc = &grpc.StreamDesc{
	StreamName:    "ContainerFilesystemExecGetOutput",
	ServerStreams: true,
}

func (c *modalClient) ContainerFilesystemExecGetOutput(ctx context.Context, in *ContainerFilesystemExecGetOutputRequest, opts ...grpc.CallOption) (ContainerFilesystemExecGetOutputClient, error) {
	stream, err := c.cc.NewStream(ctx, containerFilesystemExecGetOutputStreamDesc, modalClientService+"ContainerFilesystemExecGetOutput", opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &containerFilesystemExecGetOutputClient{stream}, nil
}

type containerFilesystemExecGetOutputClient struct{ grpc.ClientStream }

func (x *containerFilesystemExecGetOutputClient) Recv() (*ContainerFilesystemExecGetOutputResponse, error) {
	m := new(ContainerFilesystemExecGetOutputResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *modalClient) TaskGetCommandRouterAccess(ctx context.Context, in *TaskGetCommandRouterAccessRequest, opts ...grpc.CallOption) (*TaskGetCommandRouterAccessResponse, error) {
	out := new(TaskGetCommandRouterAccessResponse)
	if err := c.cc.Invoke(ctx, modalClientService+"TaskGetCommandRouterAccess", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// --- Input plane client ---

// InputPlaneClient is the low-latency, per-function input submission
// service, discovered via Function.HandleMetadata.InputPlaneUrl.
type InputPlaneClient interface {
	AttemptStart(ctx context.Context, in *AttemptStartRequest, opts ...grpc.CallOption) (*AttemptStartResponse, error)
	AttemptAwait(ctx context.Context, in *AttemptAwaitRequest, opts ...grpc.CallOption) (*AttemptAwaitResponse, error)
	AttemptRetry(ctx context.Context, in *AttemptRetryRequest, opts ...grpc.CallOption) (*AttemptRetryResponse, error)
}

const inputPlaneService = "/modal.client.ModalClientInputPlane/"

type inputPlaneClient struct {
	cc *grpc.ClientConn
}

// NewInputPlaneClient builds an InputPlaneClient stub over a dialed channel
// to a function's dedicated input-plane URL.
func NewInputPlaneClient(cc *grpc.ClientConn) InputPlaneClient {
	return &inputPlaneClient{cc: cc}
}

func (c *inputPlaneClient) AttemptStart(ctx context.Context, in *AttemptStartRequest, opts ...grpc.CallOption) (*AttemptStartResponse, error) {
	out := new(AttemptStartResponse)
	if err := c.cc.Invoke(ctx, inputPlaneService+"AttemptStart", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inputPlaneClient) AttemptAwait(ctx context.Context, in *AttemptAwaitRequest, opts ...grpc.CallOption) (*AttemptAwaitResponse, error) {
	out := new(AttemptAwaitResponse)
	if err := c.cc.Invoke(ctx, inputPlaneService+"AttemptAwait", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inputPlaneClient) AttemptRetry(ctx context.Context, in *AttemptRetryRequest, opts ...grpc.CallOption) (*AttemptRetryResponse, error) {
	out := new(AttemptRetryResponse)
	if err := c.cc.Invoke(ctx, inputPlaneService+"AttemptRetry", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// StreamingMethods lists the full method names of every server-streaming RPC
// across both services. The retry middleware does not consult this set: it
// is installed only as a unary interceptor, so streaming calls never reach
// it. The set is exposed through isStreaming in the root package.
var StreamingMethods = map[string]struct{}{
	modalClientService + "SandboxGetLogs":                      {},
	modalClientService + "ContainerFilesystemExecGetOutput":    {},
	"/modal.client.TaskCommandRouter/TaskExecStdioRead":         {},
}
