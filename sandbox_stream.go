package modal

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/djherbis/buffer"
	nio "github.com/djherbis/nio/v3"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// logStreamBufferSize decouples the network goroutine reading off the gRPC
// stream from the caller's own Read calls, the way the teacher's
// agent/internal/executor output relay buffers a running job's stdout so a
// slow consumer never blocks the executor loop itself.
const logStreamBufferSize = 64 * 1024

const (
	logReconnectBaseDelay = 10 * time.Millisecond
	logReconnectMaxRetries = 10
)

// WriteStdin writes to the Sandbox's stdin, tracking a monotonically
// increasing index the server uses to detect and drop duplicate writes
// after a client-side retry.
func (s *Sandbox) WriteStdin(ctx context.Context, data []byte, eof bool) error {
	idx := atomic.AddUint32(&s.stdinIndex, 1) - 1
	_, err := s.client.control.SandboxStdinWrite(ctx, &pb.SandboxStdinWriteRequest{
		SandboxId: s.id,
		Input:     data,
		Index:     idx,
		Eof:       eof,
	})
	return classifyGRPCError(err)
}

// lazyStreamReader defers opening its underlying network stream until the
// first Read, so constructing a Sandbox.Stdout()/Stderr() handle that the
// caller never actually reads from never leaks a goroutine or a server-side
// stream.
type lazyStreamReader struct {
	once sync.Once
	err  error
	r    io.Reader

	open func() (io.Reader, error)

	closeOnce sync.Once
	closeFn   func() error
}

func (l *lazyStreamReader) Read(p []byte) (int, error) {
	l.once.Do(func() {
		l.r, l.err = l.open()
	})
	if l.err != nil {
		return 0, l.err
	}
	return l.r.Read(p)
}

func (l *lazyStreamReader) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.closeFn != nil {
			err = l.closeFn()
		}
	})
	return err
}

// cancelOnCloseReader ties a context's cancellation to the reader's Close,
// so closing a stdout/stderr handle actually tears down the background
// goroutine streaming into it rather than leaving it running until the
// server times it out on its own.
type cancelOnCloseReader struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnCloseReader) Close() error {
	c.cancel()
	return c.ReadCloser.Close()
}

// Stdout returns a resumable reader over the Sandbox's stdout. Each
// reconnect (either the 55s server-side poll expiring, or a transient
// stream error) resumes from the last entry id seen, never replaying
// output the caller already consumed.
func (s *Sandbox) Stdout(ctx context.Context) io.ReadCloser {
	return s.logStream(ctx, pb.FileDescriptorStdout)
}

func (s *Sandbox) Stderr(ctx context.Context) io.ReadCloser {
	return s.logStream(ctx, pb.FileDescriptorStderr)
}

func (s *Sandbox) logStream(ctx context.Context, fd pb.FileDescriptor) io.ReadCloser {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := nio.Pipe(buffer.New(int64(logStreamBufferSize)))

	lazy := &lazyStreamReader{
		open: func() (io.Reader, error) {
			go s.pumpLogs(ctx, fd, pw)
			return pr, nil
		},
		closeFn: func() error {
			return pr.Close()
		},
	}
	return &cancelOnCloseReader{ReadCloser: lazy, cancel: cancel}
}

// pumpLogs drives the SandboxGetLogs reconnect loop: open a stream bounded
// by the server's 55s poll cap, forward every item to pw, and on EOF-less
// disconnect reconnect from lastEntryID with exponential backoff capped at
// logReconnectMaxRetries attempts before giving up.
func (s *Sandbox) pumpLogs(ctx context.Context, fd pb.FileDescriptor, pw *nio.PipeWriter) {
	defer pw.Close()

	lastEntryID := initialEntryID
	retries := 0

	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := s.client.control.SandboxGetLogs(ctx, &pb.SandboxGetLogsRequest{
			SandboxId:      s.id,
			FileDescriptor: fd,
			Timeout:        float32(serverPollCap.Seconds()),
			LastEntryId:    lastEntryID,
		})
		if err != nil {
			if !s.reconnectBackoff(ctx, &retries) {
				pw.CloseWithError(classifyGRPCError(err))
				return
			}
			continue
		}

		eof, err := drainLogStream(stream, pw, &lastEntryID)
		if eof {
			return
		}
		if err != nil {
			if !s.reconnectBackoff(ctx, &retries) {
				pw.CloseWithError(err)
				return
			}
			continue
		}
		retries = 0 // a clean server-side poll timeout resets the backoff.
	}
}

func drainLogStream(stream pb.SandboxGetLogsClient, pw *nio.PipeWriter, lastEntryID *string) (eof bool, err error) {
	for {
		batch, err := stream.Recv()
		if err == io.EOF {
			return false, nil // poll window elapsed; caller reconnects.
		}
		if err != nil {
			return false, err
		}
		*lastEntryID = batch.EntryId
		for _, item := range batch.Items {
			if _, werr := pw.Write(item.Data); werr != nil {
				return false, werr
			}
		}
		if batch.Eof {
			return true, nil
		}
	}
}

func (s *Sandbox) reconnectBackoff(ctx context.Context, retries *int) bool {
	if *retries >= logReconnectMaxRetries {
		return false
	}
	delay := logReconnectBaseDelay << *retries
	*retries++
	select {
	case <-time.After(delay):
		return true
	case <-ctx.Done():
		return false
	}
}
