package modal

import "os"

// defaultServerURL is the production control-plane endpoint.
const defaultServerURL = "https://api.modal.com"

// defaultImageBuilderVersion pins the image-builder protocol revision a
// freshly-initialized client negotiates with, absent an override.
const defaultImageBuilderVersion = "2024.10"

// Profile holds the recognized, opaque configuration values described in
// spec.md 6. Values are never interpreted beyond being forwarded on the
// wire or used to pick a transport; the core does not parse TOML profile
// files itself (out of scope — see spec.md 1 Non-goals), it only resolves
// the same set of values from explicit struct fields and environment
// variables, the way a profile-file loader elsewhere in the wider SDK
// would feed them in.
type Profile struct {
	TokenID             string
	TokenSecret         string
	Environment         string
	ServerURL           string
	ImageBuilderVersion string
	LogLevel            string
}

// envOrDefault mirrors the teacher's agent/cmd/agent/main.go helper of the
// same name: read an environment variable, fall back to a default.
func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// resolveProfile merges an explicit, possibly partial Profile with
// environment variables and hard defaults. Explicit fields win over env
// vars; env vars win over defaults.
func resolveProfile(explicit *Profile) Profile {
	var p Profile
	if explicit != nil {
		p = *explicit
	}

	if p.TokenID == "" {
		p.TokenID = os.Getenv("MODAL_TOKEN_ID")
	}
	if p.TokenSecret == "" {
		p.TokenSecret = os.Getenv("MODAL_TOKEN_SECRET")
	}
	if p.Environment == "" {
		p.Environment = os.Getenv("MODAL_ENVIRONMENT")
	}
	if p.ServerURL == "" {
		p.ServerURL = envOrDefault("MODAL_SERVER_URL", defaultServerURL)
	}
	if p.ImageBuilderVersion == "" {
		p.ImageBuilderVersion = envOrDefault("MODAL_IMAGE_BUILDER_VERSION", defaultImageBuilderVersion)
	}
	if p.LogLevel == "" {
		p.LogLevel = envOrDefault("MODAL_LOGLEVEL", "info")
	}
	return p
}

// environmentName resolves a per-call environment override against the
// client's active profile environment, matching the fallback used
// throughout the Sandbox/Cls/Function RPC builders.
func environmentName(override string, profile Profile) string {
	if override != "" {
		return override
	}
	return profile.Environment
}
