package modal

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestIsUnauthenticated(t *testing.T) {
	if !isUnauthenticated(status.Error(codes.Unauthenticated, "expired")) {
		t.Fatalf("expected Unauthenticated to be recognized")
	}
	if isUnauthenticated(status.Error(codes.NotFound, "missing")) {
		t.Fatalf("expected NotFound not to be recognized as Unauthenticated")
	}
	if isUnauthenticated(nil) {
		t.Fatalf("expected nil not to be recognized as Unauthenticated")
	}
}

func TestExec_ReconnectBackoff_StopsAfterMaxRetries(t *testing.T) {
	e := &Exec{}
	retries := 0
	ctx := context.Background()

	ok := true
	for ok {
		ok = e.reconnectBackoff(ctx, &retries)
	}

	if retries != logReconnectMaxRetries {
		t.Fatalf("expected backoff to stop exactly at %d retries, got %d", logReconnectMaxRetries, retries)
	}
}

func TestCommandRouterSession_ForceExpireTriggersRefreshOnNextToken(t *testing.T) {
	fake := &fakeAuthClient{token: signedTestJWT(t, time.Now().Add(time.Hour))}
	sess := &commandRouterSession{taskID: "t1", control: fake, jwt: fake.token}
	sess.jwtExp = time.Now().Add(time.Hour)

	if _, err := sess.token(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	if fake.calls != 0 {
		t.Fatalf("expected cached token to avoid a refresh call, got %d calls", fake.calls)
	}

	sess.forceExpire()
	if _, err := sess.token(context.Background()); err != nil {
		t.Fatalf("token after forceExpire: %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("expected exactly 1 refresh call after forceExpire, got %d", fake.calls)
	}
}
