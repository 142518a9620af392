package modal

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/djherbis/buffer"
	nio "github.com/djherbis/nio/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

const (
	routerExecPollInterval  = 10 * time.Millisecond
	routerExecPollRetries   = 10
	routerExecWaitDelay     = 1 * time.Second
	routerExecWaitTimeout   = 60 * time.Second
	routerJwtRefreshBuffer  = 30 * time.Second
)

// commandRouterSession is a dedicated gRPC connection to one task's command
// router: a second endpoint discovered via TaskGetCommandRouterAccess that
// owns exec lifecycle and streamed stdio for that task, authenticated by
// its own short-lived JWT rather than the client's main bearer token.
type commandRouterSession struct {
	taskID string
	url    string
	router pb.TaskCommandRouterClient
	conn   *grpc.ClientConn

	mu      sync.Mutex
	jwt     string
	jwtExp  time.Time
	group   singleflight.Group
	control pb.ModalClient
}

// dialCommandRouterSession discovers and connects to task's command router.
// FAILED_PRECONDITION from the discovery RPC means the task's container
// never enabled it (an older worker image, typically) and is surfaced as a
// distinct, checkable error rather than a generic failure.
func dialCommandRouterSession(ctx context.Context, control pb.ModalClient, taskID string) (*commandRouterSession, error) {
	resp, err := control.TaskGetCommandRouterAccess(ctx, &pb.TaskGetCommandRouterAccessRequest{TaskId: taskID})
	if err != nil {
		if st, ok := status.FromError(err); ok && st.Code() == codes.FailedPrecondition {
			return nil, InvalidArgumentError("command router is not enabled for this task")
		}
		return nil, classifyGRPCError(err)
	}

	sess := &commandRouterSession{taskID: taskID, url: resp.Url, control: control, jwt: resp.Jwt}
	sess.jwtExp = jwtExpiry(resp.Jwt)

	unary, stream := sess.middleware()

	target, _, err := dialTarget(resp.Url)
	if err != nil {
		return nil, err
	}
	// grpc-go 1.67+ enforces ALPN negotiation by default; the router's own
	// listener doesn't always advertise "h2" the way a standard TLS proxy
	// would, so NextProtos is pinned explicitly rather than left to the
	// client's default negotiation.
	// The later WithTransportCredentials overrides the default TLS
	// credentials that dialOptions installs.
	creds := credentials.NewTLS(&tls.Config{NextProtos: []string{"h2"}})
	conn, err := grpc.NewClient(target,
		append(dialOptions(false, unary, stream), grpc.WithTransportCredentials(creds))...,
	)
	if err != nil {
		return nil, err
	}

	sess.conn = conn
	sess.router = pb.NewTaskCommandRouterClient(conn)
	return sess, nil
}

func (s *commandRouterSession) close() error {
	return s.conn.Close()
}

// token returns the session's current JWT, refreshing it exactly once
// under concurrent callers via singleflight, mirroring authTokenManager's
// own refresh pattern but scoped to this one task.
func (s *commandRouterSession) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	tok, exp := s.jwt, s.jwtExp
	s.mu.Unlock()

	if tok != "" && time.Now().Before(exp.Add(-routerJwtRefreshBuffer)) {
		return tok, nil
	}

	v, err, _ := s.group.Do("jwt", func() (any, error) {
		resp, err := s.control.TaskGetCommandRouterAccess(ctx, &pb.TaskGetCommandRouterAccessRequest{TaskId: s.taskID})
		if err != nil {
			return "", classifyGRPCError(err)
		}
		// The router's URL is invariant for the lifetime of the session; a
		// refresh reporting a different URL means the task was rescheduled
		// out from under this session, and the session can no longer be
		// trusted to reach the same router.
		if resp.Url != s.url {
			return "", InternalFailureError("command router URL changed for task " + s.taskID)
		}
		s.mu.Lock()
		s.jwt = resp.Jwt
		s.jwtExp = jwtExpiry(resp.Jwt)
		s.mu.Unlock()
		return resp.Jwt, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// middleware attaches the session's JWT to every call. Unary calls are
// retried exactly once on UNAUTHENTICATED after forcing a refresh, since a
// concurrently expiring JWT is the only expected cause of that code on this
// channel; streaming calls only get the JWT attached and are not retried or
// refreshed on UNAUTHENTICATED.
func (s *commandRouterSession) middleware() (grpc.UnaryClientInterceptor, grpc.StreamClientInterceptor) {
	attach := func(ctx context.Context) (context.Context, error) {
		tok, err := s.token(ctx)
		if err != nil {
			return nil, err
		}
		return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok), nil
	}

	unary := func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		callCtx, err := attach(ctx)
		if err != nil {
			return err
		}
		err = invoker(callCtx, method, req, reply, cc, opts...)
		if isUnauthenticated(err) {
			s.forceExpire()
			callCtx, aerr := attach(ctx)
			if aerr != nil {
				return aerr
			}
			err = invoker(callCtx, method, req, reply, cc, opts...)
		}
		return classifyGRPCError(err)
	}

	stream := func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		callCtx, err := attach(ctx)
		if err != nil {
			return nil, err
		}
		cs, err := streamer(callCtx, desc, cc, method, opts...)
		if err != nil {
			return nil, classifyGRPCError(err)
		}
		return cs, nil
	}

	return unary, stream
}

func (s *commandRouterSession) forceExpire() {
	s.mu.Lock()
	s.jwtExp = time.Time{}
	s.mu.Unlock()
}

func isUnauthenticated(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated
}

// Exec is a handle to one process started through the command router.
type Exec struct {
	sess   *commandRouterSession
	taskID string
	execID string

	stdinOffset uint64
}

// StartExec launches a new process on the task this session is bound to.
func (s *commandRouterSession) StartExec(ctx context.Context, command []string, workdir string, secretIDs []string) (*Exec, error) {
	execID := uuid.NewString()
	req := &pb.TaskExecStartRequest{
		TaskId:      s.taskID,
		ExecId:      execID,
		CommandArgs: command,
		SecretIds:   secretIDs,
	}
	if workdir != "" {
		req.Workdir = &workdir
	}
	if _, err := s.router.TaskExecStart(ctx, req); err != nil {
		return nil, classifyGRPCError(err)
	}
	return &Exec{sess: s, taskID: s.taskID, execID: execID}, nil
}

func (e *Exec) WriteStdin(ctx context.Context, data []byte, eof bool) error {
	_, err := e.sess.router.TaskExecStdinWrite(ctx, &pb.TaskExecStdinWriteRequest{
		TaskId: e.taskID,
		ExecId: e.execID,
		Offset: e.stdinOffset,
		Data:   data,
		Eof:    eof,
	})
	if err == nil {
		e.stdinOffset += uint64(len(data))
	}
	return classifyGRPCError(err)
}

// Poll is a tight, bounded-retry non-blocking check used right after start
// to catch instant failures (e.g. exec not found) before settling into the
// slower Wait loop.
func (e *Exec) Poll(ctx context.Context) (completed bool, code *int32, err error) {
	delay := routerExecPollInterval
	for retries := 0; ; retries++ {
		resp, err := e.sess.router.TaskExecPoll(ctx, &pb.TaskExecPollRequest{TaskId: e.taskID, ExecId: e.execID})
		if err == nil {
			return resp.Completed, resp.Code, nil
		}
		if !isRetryable(err) || retries >= routerExecPollRetries {
			return false, nil, classifyGRPCError(err)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, nil, ctx.Err()
		}
		delay *= 2
	}
}

// Wait blocks until the process exits. Each individual TaskExecWait call is
// capped client-side at routerExecWaitTimeout; a call that hits that cap is
// reissued after a fixed 1s delay, indefinitely, until ctx is cancelled. Any
// other error is returned.
func (e *Exec) Wait(ctx context.Context) (int32, error) {
	for {
		callCtx, cancel := context.WithTimeout(ctx, routerExecWaitTimeout)
		resp, err := e.sess.router.TaskExecWait(callCtx, &pb.TaskExecWaitRequest{TaskId: e.taskID, ExecId: e.execID})
		cancel()
		if err == nil {
			return resp.Code, nil
		}
		if status.Code(err) != codes.DeadlineExceeded && !errors.Is(err, Error{Kind: KindDeadlineExceeded}) {
			return 0, classifyGRPCError(err)
		}
		select {
		case <-time.After(routerExecWaitDelay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Stdout/Stderr return offset-based resumable readers over this exec's
// stdio, the command-router analogue of Sandbox's entryId-based log
// readers.
func (e *Exec) Stdout(ctx context.Context) io.ReadCloser {
	return e.stdioStream(ctx, pb.TaskExecStdioStdout)
}

func (e *Exec) Stderr(ctx context.Context) io.ReadCloser {
	return e.stdioStream(ctx, pb.TaskExecStdioStderr)
}

func (e *Exec) stdioStream(ctx context.Context, fd pb.TaskExecStdioFileDescriptor) io.ReadCloser {
	ctx, cancel := context.WithCancel(ctx)
	pr, pw := nio.Pipe(buffer.New(int64(logStreamBufferSize)))

	lazy := &lazyStreamReader{
		open: func() (io.Reader, error) {
			go e.pumpStdio(ctx, fd, pw)
			return pr, nil
		},
		closeFn: pr.Close,
	}
	return &cancelOnCloseReader{ReadCloser: lazy, cancel: cancel}
}

func (e *Exec) pumpStdio(ctx context.Context, fd pb.TaskExecStdioFileDescriptor, pw *nio.PipeWriter) {
	defer pw.Close()

	var offset uint64
	retries := 0

	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := e.sess.router.TaskExecStdioRead(ctx, &pb.TaskExecStdioReadRequest{
			TaskId:         e.taskID,
			ExecId:         e.execID,
			Offset:         offset,
			FileDescriptor: fd,
		})
		if err != nil {
			if !e.reconnectBackoff(ctx, &retries) {
				pw.CloseWithError(classifyGRPCError(err))
				return
			}
			continue
		}

		for {
			resp, err := stream.Recv()
			if err == io.EOF {
				return
			}
			if err != nil {
				if !e.reconnectBackoff(ctx, &retries) {
					pw.CloseWithError(err)
					return
				}
				break
			}
			if len(resp.Data) == 0 {
				continue
			}
			if _, werr := pw.Write(resp.Data); werr != nil {
				return
			}
			offset += uint64(len(resp.Data))
			retries = 0
		}
	}
}

func (e *Exec) reconnectBackoff(ctx context.Context, retries *int) bool {
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
