package modal

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// authRefreshWindow is how far ahead of the token's exp claim this manager
// starts treating it as stale and fetches a replacement.
const authRefreshWindow = 5 * time.Minute

// authDefaultTTL is the lifetime assumed for a token whose exp claim could
// not be parsed, so a malformed token never causes an infinite refresh loop
// or gets cached forever.
const authDefaultTTL = 20 * time.Minute

// authTokenManager owns the client's bearer token: a lazily-fetched,
// singleflight-deduplicated refresh against AuthTokenGet, following the
// teacher's "current refresh promise cell" pattern used for the agent's own
// reconnect token in agent/internal/transport.
type authTokenManager struct {
	client pb.ModalClient

	tokenID     string
	tokenSecret string

	mu      sync.Mutex
	current string
	expires time.Time

	group singleflight.Group
}

func newAuthTokenManager(client pb.ModalClient, tokenID, tokenSecret string) *authTokenManager {
	return &authTokenManager{
		client:      client,
		tokenID:     tokenID,
		tokenSecret: tokenSecret,
	}
}

// credentials returns the raw token-id/token-secret pair this manager
// authenticates with, for middleware that must send them alongside the
// bearer token on every call.
func (m *authTokenManager) credentials() (string, string) {
	return m.tokenID, m.tokenSecret
}

// token returns a non-stale bearer token, fetching or refreshing it exactly
// once even under concurrent callers.
func (m *authTokenManager) token(ctx context.Context) (string, error) {
	m.mu.Lock()
	tok, expires := m.current, m.expires
	m.mu.Unlock()

	if tok != "" && time.Now().Before(expires.Add(-authRefreshWindow)) {
		return tok, nil
	}

	v, err, _ := m.group.Do("token", func() (any, error) {
		return m.refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *authTokenManager) refresh(ctx context.Context) (string, error) {
	resp, err := m.client.AuthTokenGet(ctx, &pb.AuthTokenGetRequest{
		TokenId:     m.tokenID,
		TokenSecret: m.tokenSecret,
	})
	if err != nil {
		return "", classifyGRPCError(err)
	}

	exp := jwtExpiry(resp.Token)

	m.mu.Lock()
	m.current = resp.Token
	m.expires = exp
	m.mu.Unlock()

	return resp.Token, nil
}

// jwtExpiry extracts the "exp" claim from a JWT without verifying its
// signature — the server is the only entity that ever needs to verify this
// token, the client only needs to know when to ask for a new one. Falls
// back to now+authDefaultTTL when the token cannot be parsed at all, which
// forces a refresh well before any real expiry would bite.
func jwtExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Now().Add(authDefaultTTL)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Now().Add(authDefaultTTL)
	}
	return exp.Time
}
