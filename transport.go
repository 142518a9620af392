package modal

import (
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// maxMessageSize is the send/receive floor every channel this core dials is
// configured with (spec.md 4.A: "max send/receive >= 100 MiB").
const maxMessageSize = 100 * 1024 * 1024

// dialTarget parses rawURL and returns the "host:port" gRPC target plus
// whether the host is a loopback address (and so gets insecure transport
// credentials instead of TLS).
func dialTarget(rawURL string) (target string, loopback bool, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false, err
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		if u.Scheme == "http" {
			port = "80"
		} else {
			port = "443"
		}
	}
	return net.JoinHostPort(host, port), isLoopbackHost(host), nil
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// dialOptions returns the channel configuration floor shared by every
// connection the core makes: control plane, input planes, and the command
// router (whose dial in command_router.go appends its own TLS credentials
// on top of these options).
func dialOptions(loopback bool, interceptor grpc.UnaryClientInterceptor, streamInterceptor grpc.StreamClientInterceptor) []grpc.DialOption {
	var creds credentials.TransportCredentials
	if loopback {
		creds = insecure.NewCredentials()
	} else {
		creds = credentials.NewTLS(nil)
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(maxMessageSize),
			grpc.MaxCallSendMsgSize(maxMessageSize),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithInitialWindowSize(1 << 22),     // 4 MiB per-stream window, above the 64 KiB default.
		grpc.WithInitialConnWindowSize(1 << 23), // 8 MiB connection-wide window.
	}
	if interceptor != nil {
		opts = append(opts, grpc.WithChainUnaryInterceptor(interceptor))
	}
	if streamInterceptor != nil {
		opts = append(opts, grpc.WithChainStreamInterceptor(streamInterceptor))
	}
	return opts
}

func dial(rawURL string, interceptor grpc.UnaryClientInterceptor, streamInterceptor grpc.StreamClientInterceptor) (*grpc.ClientConn, error) {
	target, loopback, err := dialTarget(rawURL)
	if err != nil {
		return nil, err
	}
	return grpc.NewClient(target, dialOptions(loopback, interceptor, streamInterceptor)...)
}

// channelPool keys input-plane channels by their full URL, lazily dialing
// on first use, following spec.md 4.A ("input-plane channels are keyed by
// full URL and created on demand").
type channelPool struct {
	mu       sync.Mutex
	channels map[string]*grpc.ClientConn

	unaryInterceptor  grpc.UnaryClientInterceptor
	streamInterceptor grpc.StreamClientInterceptor
}

func newChannelPool(unary grpc.UnaryClientInterceptor, stream grpc.StreamClientInterceptor) *channelPool {
	return &channelPool{
		channels:          make(map[string]*grpc.ClientConn),
		unaryInterceptor:  unary,
		streamInterceptor: stream,
	}
}

func (p *channelPool) get(rawURL string) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cc, ok := p.channels[rawURL]; ok {
		return cc, nil
	}
	cc, err := dial(rawURL, p.unaryInterceptor, p.streamInterceptor)
	if err != nil {
		return nil, err
	}
	p.channels[rawURL] = cc
	return cc, nil
}

func (p *channelPool) closeAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for u, cc := range p.channels {
		if err := cc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.channels, u)
	}
	return firstErr
}

// normalizeURLHost strips a trailing slash for stable map keys; the rest of
// the URL (scheme, host, port) is preserved verbatim so distinct input
// planes never collide.
func normalizeURLHost(rawURL string) string {
	return strings.TrimSuffix(rawURL, "/")
}
