package engine

import "github.com/okian/arcadepoints/pkg/logger"

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-computation debug output.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics toggles Prometheus recording. Enabled by default.
func WithMetrics(enabled bool) Option {
	return func(e *Engine) {
		e.metrics = enabled
	}
}
