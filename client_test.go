package modal

import (
	"os"
	"testing"
)

func TestResolveProfile_ExplicitBeatsEnvBeatsDefault(t *testing.T) {
	t.Setenv("MODAL_SERVER_URL", "https://env.example.com")

	p := resolveProfile(&Profile{ServerURL: "https://explicit.example.com"})
	if p.ServerURL != "https://explicit.example.com" {
		t.Fatalf("expected explicit value to win, got %q", p.ServerURL)
	}

	p2 := resolveProfile(nil)
	if p2.ServerURL != "https://env.example.com" {
		t.Fatalf("expected env value to win over default, got %q", p2.ServerURL)
	}

	os.Unsetenv("MODAL_SERVER_URL")
	p3 := resolveProfile(nil)
	if p3.ServerURL != defaultServerURL {
		t.Fatalf("expected default value, got %q", p3.ServerURL)
	}
}

func TestEnvironmentName_OverrideWins(t *testing.T) {
	profile := Profile{Environment: "main"}
	if got := environmentName("staging", profile); got != "staging" {
		t.Fatalf("expected override to win, got %q", got)
	}
	if got := environmentName("", profile); got != "main" {
		t.Fatalf("expected profile environment as fallback, got %q", got)
	}
}

func TestIsLoopbackHost(t *testing.T) {
	cases := map[string]bool{
		"localhost":   true,
		"127.0.0.1":   true,
		"::1":         true,
		"api.modal.com": false,
		"example.com": false,
	}
	for host, want := range cases {
		if got := isLoopbackHost(host); got != want {
			t.Errorf("isLoopbackHost(%q) = %v, want %v", host, got, want)
		}
	}
}

func TestDialTarget_DefaultsPortByScheme(t *testing.T) {
	target, loopback, err := dialTarget("https://api.modal.com")
	if err != nil {
		t.Fatalf("dialTarget: %v", err)
	}
	if target != "api.modal.com:443" {
		t.Fatalf("expected default TLS port 443, got %q", target)
	}
	if loopback {
		t.Fatalf("expected api.modal.com not to be loopback")
	}

	target, loopback, err = dialTarget("http://localhost:8080")
	if err != nil {
		t.Fatalf("dialTarget: %v", err)
	}
	if target != "localhost:8080" {
		t.Fatalf("expected explicit port to be preserved, got %q", target)
	}
	if !loopback {
		t.Fatalf("expected localhost to be loopback")
	}
}

func TestChannelPool_ReusesChannelForSameURL(t *testing.T) {
	pool := newChannelPool(nil, nil)
	defer pool.closeAll()

	cc1, err := pool.get("http://localhost:9000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	cc2, err := pool.get("http://localhost:9000")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cc1 != cc2 {
		t.Fatalf("expected the same channel to be returned for an identical URL")
	}
}
