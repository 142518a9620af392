package modal

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// defaultCallDeadline bounds any unary call that does not already carry a
// context deadline, so a hung channel can never wedge a caller forever.
const defaultCallDeadline = 2 * time.Minute

// clientVersion and libmodalVersion are sent on every call via
// x-modal-client-version / x-modal-libmodal-version, mirroring the reference
// SDK's own header set.
const (
	clientVersion   = "1.0.0"
	libmodalVersion = "libmodal-go/1.0.0"
)

// tokenSource is satisfied by *authTokenManager; split out so middleware.go
// does not need to know about singleflight or JWT parsing.
type tokenSource interface {
	token(ctx context.Context) (string, error)
	credentials() (tokenID, tokenSecret string)
}

// middlewareStack builds the chained unary/stream interceptors wired onto
// every channel this core dials: telemetry (logging + timing) wraps auth
// (bearer token attachment) wraps retry (unary only) wraps deadline
// (defaulting) wraps the wire call itself. The layers are nested inside a
// single unary interceptor (and a single stream interceptor carrying
// telemetry and auth only), so each returned interceptor already applies
// them in that order.
func middlewareStack(logger *zap.Logger, tokens tokenSource) (grpc.UnaryClientInterceptor, grpc.StreamClientInterceptor) {
	unary := func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		start := time.Now()
		idempotencyKey := uuid.NewString()

		authCtx, err := attachAuth(ctx, tokens)
		if err == nil {
			err = runWithRetry(authCtx, defaultRetryAttempts, func(ctx context.Context, attempt int, elapsed time.Duration) error {
				callCtx, cancel := withDefaultDeadline(ctx)
				defer cancel()

				callCtx = attachRetryHeaders(callCtx, idempotencyKey, attempt, elapsed)

				return invoker(callCtx, method, req, reply, cc, opts...)
			})
		}

		logger.Debug("unary call",
			zap.String("method", method),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
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
		start := time.Now()

		ctx, err := attachAuth(ctx, tokens)
		if err != nil {
			return nil, err
		}
		ctx = attachRetryHeaders(ctx, uuid.NewString(), 0, 0)

		s, err := streamer(ctx, desc, cc, method, opts...)
		logger.Debug("stream call opened",
			zap.String("method", method),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		if err != nil {
			return nil, classifyGRPCError(err)
		}
		return s, nil
	}

	return unary, stream
}

func withDefaultDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, defaultCallDeadline)
}

// attachAuth injects every header the platform requires for authenticated
// calls: the token-id/token-secret pair, the client type/version, and the
// current bearer token from the token manager (blocking if none is cached
// yet).
func attachAuth(ctx context.Context, tokens tokenSource) (context.Context, error) {
	if tokens == nil {
		return ctx, nil
	}
	tok, err := tokens.token(ctx)
	if err != nil {
		return nil, err
	}
	tokenID, tokenSecret := tokens.credentials()

	return metadata.AppendToOutgoingContext(ctx,
		"authorization", "Bearer "+tok,
		"x-modal-token-id", tokenID,
		"x-modal-token-secret", tokenSecret,
		"x-modal-client-type", strconv.Itoa(int(pb.ClientTypeLibmodalGo)),
		"x-modal-client-version", clientVersion,
		"x-modal-libmodal-version", libmodalVersion,
	), nil
}

func attachRetryHeaders(ctx context.Context, idempotencyKey string, attempt int, elapsed time.Duration) context.Context {
	ctx = metadata.AppendToOutgoingContext(ctx, "idempotency-key", idempotencyKey)
	for k, v := range retryHeaderHints(attempt, elapsed) {
		ctx = metadata.AppendToOutgoingContext(ctx, k, v)
	}
	return ctx
}

// isStreaming reports whether fullMethod is excluded from the retry
// middleware, consulting the pb package's method name table.
func isStreaming(fullMethod string) bool {
	return isStreamingMethod(fullMethod, pb.StreamingMethods)
}
