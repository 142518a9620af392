package modal

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// Client is the root handle for every operation this core exposes:
// Function invocation, Cls binding, Sandbox lifecycle. It owns the
// control-plane channel, a lazily-populated pool of input-plane channels,
// a per-process logger, and the token manager every request authenticates
// through.
type Client struct {
	profile Profile
	logger  *zap.Logger

	controlConn   *grpc.ClientConn
	control       pb.ModalClient
	bootstrapConn *grpc.ClientConn

	tokens *authTokenManager
	cbor   *cborCodec

	inputPlanes *channelPool

	environment string
}

// NewClient dials the control plane and prepares a Client ready to issue
// Function, Cls, and Sandbox calls. explicit may be nil to rely entirely on
// environment variables and hard defaults (see resolveProfile).
func NewClient(ctx context.Context, explicit *Profile) (*Client, error) {
	profile := resolveProfile(explicit)

	logger, err := buildLogger(profile.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("modal: building logger: %w", err)
	}
	logger = logger.Named("modal")

	// The token manager needs a ModalClient to call AuthTokenGet on, but the
	// control-plane channel's own interceptor needs the token manager to
	// attach bearer tokens — so the channel is dialed in two stages: first
	// bare (for the token manager's private use), then with the full
	// middleware stack for everything else.
	bootstrapConn, err := dial(profile.ServerURL, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("modal: dialing control plane: %w", err)
	}
	bootstrapClient := pb.NewModalClient(bootstrapConn)

	tokens := newAuthTokenManager(bootstrapClient, profile.TokenID, profile.TokenSecret)

	unary, stream := middlewareStack(logger, tokens)
	controlConn, err := dial(profile.ServerURL, unary, stream)
	if err != nil {
		_ = bootstrapConn.Close()
		return nil, fmt.Errorf("modal: dialing control plane: %w", err)
	}

	codec, err := newCBORCodec()
	if err != nil {
		_ = controlConn.Close()
		_ = bootstrapConn.Close()
		return nil, fmt.Errorf("modal: building CBOR codec: %w", err)
	}

	return &Client{
		profile:       profile,
		logger:        logger,
		controlConn:   controlConn,
		control:       pb.NewModalClient(controlConn),
		bootstrapConn: bootstrapConn,
		tokens:        tokens,
		cbor:        codec,
		inputPlanes: newChannelPool(unary, stream),
		environment: profile.Environment,
	}, nil
}

// Close tears down every channel the Client has opened: the control plane,
// the token manager's bootstrap channel, and every input plane dialed on
// demand.
func (c *Client) Close() error {
	var firstErr error
	if err := c.inputPlanes.closeAll(); err != nil {
		firstErr = err
	}
	if err := c.controlConn.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.bootstrapConn.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// withEnvironment resolves an optional per-call override against the
// Client's active profile environment.
func (c *Client) withEnvironment(override string) string {
	return environmentName(override, c.profile)
}

// inputPlaneClient returns (dialing lazily if needed) the InputPlaneClient
// for the given input-plane URL.
func (c *Client) inputPlaneClient(url string) (pb.InputPlaneClient, error) {
	cc, err := c.inputPlanes.get(normalizeURLHost(url))
	if err != nil {
		return nil, err
	}
	return pb.NewInputPlaneClient(cc), nil
}
