package modal

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"

	"github.com/modal-labs/libmodal-sub001/internal/pb"
)

// fakeAuthClient implements pb.ModalClient but only AuthTokenGet is ever
// exercised by these tests; embedding a nil interface lets the rest of the
// (large) interface surface panic loudly if a test accidentally calls it.
type fakeAuthClient struct {
	pb.ModalClient
	calls int32
	token string
}

func (f *fakeAuthClient) AuthTokenGet(ctx context.Context, in *pb.AuthTokenGetRequest, opts ...grpc.CallOption) (*pb.AuthTokenGetResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	return &pb.AuthTokenGetResponse{Token: f.token}, nil
}

// TaskGetCommandRouterAccess reuses the same call counter so
// commandRouterSession tests can assert on refresh counts the same way the
// Client-level auth tests do.
func (f *fakeAuthClient) TaskGetCommandRouterAccess(ctx context.Context, in *pb.TaskGetCommandRouterAccessRequest, opts ...grpc.CallOption) (*pb.TaskGetCommandRouterAccessResponse, error) {
	atomic.AddInt32(&f.calls, 1)
	return &pb.TaskGetCommandRouterAccessResponse{Jwt: f.token}, nil
}

func signedTestJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}
	return s
}

func TestAuthTokenManager_SingleFlightUnderConcurrency(t *testing.T) {
	fake := &fakeAuthClient{token: signedTestJWT(t, time.Now().Add(time.Hour))}
	mgr := newAuthTokenManager(fake, "id", "secret")

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := mgr.token(context.Background()); err != nil {
				t.Errorf("token: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&fake.calls); got != 1 {
		t.Fatalf("expected exactly 1 AuthTokenGet call under concurrency, got %d", got)
	}
}

func TestAuthTokenManager_RefreshesAfterExpiry(t *testing.T) {
	fake := &fakeAuthClient{token: signedTestJWT(t, time.Now().Add(-time.Minute))}
	mgr := newAuthTokenManager(fake, "id", "secret")

	if _, err := mgr.token(context.Background()); err != nil {
		t.Fatalf("first token: %v", err)
	}
	if _, err := mgr.token(context.Background()); err != nil {
		t.Fatalf("second token: %v", err)
	}

	if got := atomic.LoadInt32(&fake.calls); got != 2 {
		t.Fatalf("expected a refresh on the second call for an already-expired token, got %d calls", got)
	}
}

func TestJwtExpiry_FallsBackOnMalformedToken(t *testing.T) {
	before := time.Now()
	exp := jwtExpiry("not-a-jwt")
	if exp.Before(before.Add(authDefaultTTL - time.Minute)) {
		t.Fatalf("expected fallback TTL window, got %v", exp)
	}
}
