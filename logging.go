package modal

import "go.uber.org/zap"

// buildLogger constructs the process logger for the given level string, the
// same selection the teacher's agent binary makes for its own zap logger:
// a development config in "debug" (human-readable, caller info) and a
// production (JSON, sampled) config otherwise, with the level pinned
// explicitly rather than left at the config's own default.
func buildLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
