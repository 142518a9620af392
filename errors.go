package modal

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorKind identifies one of the typed error kinds this SDK raises to
// callers, per the error taxonomy.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindAlreadyExists      ErrorKind = "already_exists"
	KindInvalidArgument    ErrorKind = "invalid_argument"
	KindFunctionTimeout    ErrorKind = "function_timeout"
	KindSandboxTimeout     ErrorKind = "sandbox_timeout"
	KindSandboxFilesystem  ErrorKind = "sandbox_filesystem"
	KindRemoteError        ErrorKind = "remote_error"
	KindInternalFailure    ErrorKind = "internal_failure"
	KindQueueEmpty         ErrorKind = "queue_empty"
	KindQueueFull          ErrorKind = "queue_full"
	KindRequestSize        ErrorKind = "request_size"
	KindDeadlineExceeded   ErrorKind = "deadline_exceeded"
	KindCancelled          ErrorKind = "cancelled"
)

// Error is the common shape of every typed error this SDK returns. Message
// carries the originating server detail verbatim when one was present.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("modal: %s: %s", e.Kind, e.Message)
}

// NotFoundError reports that a referenced id/name could not be located.
func NotFoundError(msg string) error { return Error{Kind: KindNotFound, Message: msg} }

// AlreadyExistsError reports a uniqueness violation (e.g. Sandbox name reuse
// within an App).
func AlreadyExistsError(msg string) error { return Error{Kind: KindAlreadyExists, Message: msg} }

// InvalidArgumentError reports a client-side validation failure or a
// rejected request.
func InvalidArgumentError(msg string) error { return Error{Kind: KindInvalidArgument, Message: msg} }

// FunctionTimeoutError reports that a function invocation exceeded the
// caller's deadline or the server reported GenericStatus_TIMEOUT.
func FunctionTimeoutError(msg string) error { return Error{Kind: KindFunctionTimeout, Message: msg} }

// SandboxTimeoutError reports that a Sandbox operation (tunnels, snapshot)
// did not complete within the requested timeout.
func SandboxTimeoutError(msg string) error { return Error{Kind: KindSandboxTimeout, Message: msg} }

// SandboxFilesystemError reports a failure from the Sandbox filesystem
// request-reply-with-streamed-output protocol.
func SandboxFilesystemError(msg string) error { return Error{Kind: KindSandboxFilesystem, Message: msg} }

// RemoteError reports a server-side exception surfaced from a function call.
func RemoteError(msg string) error { return Error{Kind: KindRemoteError, Message: msg} }

// InternalFailureError reports GenericStatus_INTERNAL_FAILURE after system
// retries are exhausted.
func InternalFailureError(msg string) error { return Error{Kind: KindInternalFailure, Message: msg} }

// QueueEmptyError / QueueFullError are raised by the thin Queue helper
// service the core exposes to (but does not implement).
func QueueEmptyError(msg string) error { return Error{Kind: KindQueueEmpty, Message: msg} }
func QueueFullError(msg string) error  { return Error{Kind: KindQueueFull, Message: msg} }

// RequestSizeError reports a payload rejected by the server as too large
// (HTTP 413 embedded in a gRPC error's details).
func RequestSizeError(msg string) error { return Error{Kind: KindRequestSize, Message: msg} }

// DeadlineExceededError reports that the deadline middleware's cancellation
// signal fired before the call completed.
func DeadlineExceededError(msg string) error { return Error{Kind: KindDeadlineExceeded, Message: msg} }

// CancelledError reports that the caller's cancellation signal fired.
func CancelledError(msg string) error { return Error{Kind: KindCancelled, Message: msg} }

// Is allows errors.Is(err, Error{Kind: KindNotFound}) style matching on Kind
// alone, ignoring Message.
func (e Error) Is(target error) bool {
	var te Error
	if errors.As(target, &te) {
		return te.Kind == e.Kind
	}
	return false
}

// classifyGRPCError maps a gRPC status error to the typed taxonomy above.
// Any status code without a specific mapping propagates verbatim: the
// original error is returned unchanged, neither wrapped nor replaced.
func classifyGRPCError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	msg := st.Message()

	switch st.Code() {
	case codes.NotFound:
		return NotFoundError(msg)
	case codes.AlreadyExists:
		return AlreadyExistsError(msg)
	case codes.InvalidArgument:
		return InvalidArgumentError(msg)
	case codes.DeadlineExceeded:
		return DeadlineExceededError(msg)
	case codes.Canceled:
		return CancelledError(msg)
	case codes.FailedPrecondition:
		// Documented special case: these two FAILED_PRECONDITION messages
		// are actually not-found conditions on the server side.
		if strings.Contains(msg, "Secret is missing key") || strings.Contains(msg, "Could not find image") {
			return NotFoundError(msg)
		}
		return err
	default:
		return err
	}
}
