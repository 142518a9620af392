package modal

import (
	"context"
	"io"
	"time"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

const fsExecMaxRetries = 10

// SandboxFile is a handle to one open file inside a Sandbox's filesystem,
// reached through the two-step request/reply-then-stream-output protocol:
// ContainerFilesystemExec issues the operation and returns an exec id,
// ContainerFilesystemExecGetOutput streams back whatever that operation
// produced.
type SandboxFile struct {
	sb   *Sandbox
	fd   string
}

// OpenFile opens path inside the Sandbox's filesystem in the given mode
// ("r", "w", "a", ...).
func (s *Sandbox) OpenFile(ctx context.Context, path, mode string) (*SandboxFile, error) {
	resp, err := s.fsExec(ctx, &pb.ContainerFilesystemExecRequest{
		FileOpenRequest: &pb.ContainerFileOpenRequest{Path: path, Mode: mode},
	})
	if err != nil {
		return nil, err
	}
	return &SandboxFile{sb: s, fd: resp.FileDescriptor}, nil
}

func (f *SandboxFile) Read(ctx context.Context, n int64) ([]byte, error) {
	resp, err := f.sb.fsExec(ctx, &pb.ContainerFilesystemExecRequest{
		ReadRequest: &pb.ContainerFileReadRequest{FileDescriptor: f.fd, N: n},
	})
	if err != nil {
		return nil, err
	}
	return f.sb.fsDrainOutput(ctx, resp.ExecId)
}

func (f *SandboxFile) Write(ctx context.Context, data []byte) error {
	resp, err := f.sb.fsExec(ctx, &pb.ContainerFilesystemExecRequest{
		WriteRequest: &pb.ContainerFileWriteRequest{FileDescriptor: f.fd, Data: data},
	})
	if err != nil {
		return err
	}
	_, err = f.sb.fsDrainOutput(ctx, resp.ExecId)
	return err
}

func (f *SandboxFile) Flush(ctx context.Context) error {
	resp, err := f.sb.fsExec(ctx, &pb.ContainerFilesystemExecRequest{
		FlushRequest: &pb.ContainerFileFlushRequest{FileDescriptor: f.fd},
	})
	if err != nil {
		return err
	}
	_, err = f.sb.fsDrainOutput(ctx, resp.ExecId)
	return err
}

func (f *SandboxFile) Close(ctx context.Context) error {
	resp, err := f.sb.fsExec(ctx, &pb.ContainerFilesystemExecRequest{
		CloseRequest: &pb.ContainerFileCloseRequest{FileDescriptor: f.fd},
	})
	if err != nil {
		return err
	}
	_, err = f.sb.fsDrainOutput(ctx, resp.ExecId)
	return err
}

// Seek repositions the file, whence following the standard io.Seeker
// convention (0 = absolute, 1 = relative to current, 2 = relative to end).
func (f *SandboxFile) Seek(ctx context.Context, offset int64, whence int) error {
	resp, err := f.sb.fsExec(ctx, &pb.ContainerFilesystemExecRequest{
		SeekRequest: &pb.ContainerFileSeekRequest{
			FileDescriptor: f.fd,
			Offset:         offset,
			Whence:         pb.ContainerFileSeekWhence(whence),
		},
	})
	if err != nil {
		return err
	}
	_, err = f.sb.fsDrainOutput(ctx, resp.ExecId)
	return err
}

// fsExec issues one ContainerFilesystemExec request, making at most
// fsExecMaxRetries attempts in total when it fails with a retryable code.
func (s *Sandbox) fsExec(ctx context.Context, req *pb.ContainerFilesystemExecRequest) (*pb.ContainerFilesystemExecResponse, error) {
	taskID, err := s.taskIDValue(ctx)
	if err != nil {
		return nil, err
	}
	req.TaskId = taskID

	var resp *pb.ContainerFilesystemExecResponse
	err = runWithRetry(ctx, fsExecMaxRetries, func(ctx context.Context, attempt int, elapsed time.Duration) error {
		r, err := s.client.control.ContainerFilesystemExec(ctx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, SandboxFilesystemError(err.Error())
	}
	return resp, nil
}

// fsDrainOutput streams every chunk ContainerFilesystemExecGetOutput
// produces for execID and concatenates it.
func (s *Sandbox) fsDrainOutput(ctx context.Context, execID string) ([]byte, error) {
	stream, err := s.client.control.ContainerFilesystemExecGetOutput(ctx, &pb.ContainerFilesystemExecGetOutputRequest{
		ExecId:  execID,
		Timeout: float32(serverPollCap.Seconds()),
	})
	if err != nil {
		return nil, SandboxFilesystemError(err.Error())
	}

	var out []byte
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, SandboxFilesystemError(err.Error())
		}
		if chunk.Error != "" {
			return nil, SandboxFilesystemError(chunk.Error)
		}
		out = append(out, chunk.Output...)
		if chunk.Eof {
			break
		}
	}
	return out, nil
}
