package pb

import (
	"context"

	"google.golang.org/grpc"
)

// TaskCommandRouterClient is the per-task command router service: a second
// gRPC endpoint (separate host, separate JWT) that owns exec lifecycle,
// streamed stdio, and directory mount/snapshot for one running task.
type TaskCommandRouterClient interface {
	TaskExecStart(ctx context.Context, in *TaskExecStartRequest, opts ...grpc.CallOption) (*TaskExecStartResponse, error)
	TaskExecStdinWrite(ctx context.Context, in *TaskExecStdinWriteRequest, opts ...grpc.CallOption) (*TaskExecStdinWriteResponse, error)
	TaskExecPoll(ctx context.Context, in *TaskExecPollRequest, opts ...grpc.CallOption) (*TaskExecPollResponse, error)
	TaskExecWait(ctx context.Context, in *TaskExecWaitRequest, opts ...grpc.CallOption) (*TaskExecWaitResponse, error)
	TaskExecStdioRead(ctx context.Context, in *TaskExecStdioReadRequest, opts ...grpc.CallOption) (TaskExecStdioReadClient, error)
	TaskMountDirectory(ctx context.Context, in *TaskMountDirectoryRequest, opts ...grpc.CallOption) (*TaskMountDirectoryResponse, error)
	TaskSnapshotDirectory(ctx context.Context, in *TaskSnapshotDirectoryRequest, opts ...grpc.CallOption) (*TaskSnapshotDirectoryResponse, error)
}

// TaskExecStdioReadClient is the server-streaming reply from TaskExecStdioRead.
type TaskExecStdioReadClient interface {
	Recv() (*TaskExecStdioReadResponse, error)
}

const taskCommandRouterService = "/modal.client.TaskCommandRouter/"

type taskCommandRouterClient struct {
	cc *grpc.ClientConn
}

// NewTaskCommandRouterClient builds a TaskCommandRouterClient stub over a
// dialed channel to a task's command router URL.
func NewTaskCommandRouterClient(cc *grpc.ClientConn) TaskCommandRouterClient {
	return &taskCommandRouterClient{cc: cc}
}

func (c *taskCommandRouterClient) TaskExecStart(ctx context.Context, in *TaskExecStartRequest, opts ...grpc.CallOption) (*TaskExecStartResponse, error) {
	out := new(TaskExecStartResponse)
	if err := c.cc.Invoke(ctx, taskCommandRouterService+"TaskExecStart", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *taskCommandRouterClient) TaskExecStdinWrite(ctx context.Context, in *TaskExecStdinWriteRequest, opts ...grpc.CallOption) (*TaskExecStdinWriteResponse, error) {
	out := new(TaskExecStdinWriteResponse)
	if err := c.cc.Invoke(ctx, taskCommandRouterService+"TaskExecStdinWrite", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *taskCommandRouterClient) TaskExecPoll(ctx context.Context, in *TaskExecPollRequest, opts ...grpc.CallOption) (*TaskExecPollResponse, error) {
	out := new(TaskExecPollResponse)
	if err := c.cc.Invoke(ctx, taskCommandRouterService+"TaskExecPoll", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *taskCommandRouterClient) TaskExecWait(ctx context.Context, in *TaskExecWaitRequest, opts ...grpc.CallOption) (*TaskExecWaitResponse, error) {
	out := new(TaskExecWaitResponse)
	if err := c.cc.Invoke(ctx, taskCommandRouterService+"TaskExecWait", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

var taskExecStdioReadStreamDesc = &grpc.StreamDesc{
	StreamName:    "TaskExecStdioRead",
	ServerStreams: true,
}

func (c *taskCommandRouterClient) TaskExecStdioRead(ctx context.Context, in *TaskExecStdioReadRequest, opts ...grpc.CallOption) (TaskExecStdioReadClient, error) {
	stream, err := c.cc.NewStream(ctx, taskExecStdioReadStreamDesc, taskCommandRouterService+"TaskExecStdioRead", opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &taskExecStdioReadClient{stream}, nil
}

type taskExecStdioReadClient struct{ grpc.ClientStream }

func (x *taskExecStdioReadClient) Recv() (*TaskExecStdioReadResponse, error) {
	m := new(TaskExecStdioReadResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *taskCommandRouterClient) TaskMountDirectory(ctx context.Context, in *TaskMountDirectoryRequest, opts ...grpc.CallOption) (*TaskMountDirectoryResponse, error) {
	out := new(TaskMountDirectoryResponse)
	if err := c.cc.Invoke(ctx, taskCommandRouterService+"TaskMountDirectory", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *taskCommandRouterClient) TaskSnapshotDirectory(ctx context.Context, in *TaskSnapshotDirectoryRequest, opts ...grpc.CallOption) (*TaskSnapshotDirectoryResponse, error) {
	out := new(TaskSnapshotDirectoryResponse)
	if err := c.cc.Invoke(ctx, taskCommandRouterService+"TaskSnapshotDirectory", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
