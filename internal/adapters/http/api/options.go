package api

import "github.com/okian/arcadepoints/pkg/logger"

// Default server limits.
const (
	defaultMaxLeaderboardLimit = 100
	defaultMaxBodyBytes        = 4 << 20
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLeaderboardLimit caps GET /leaderboard?limit.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLeaderboardLimit = n
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithRateLimit enables per-client rate limiting. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.rateRPS = rps
		s.rateBurst = burst
	}
}

// WithTrustedProxies lists proxy addresses or CIDRs whose X-Forwarded-For
// header the rate limiter honours.
func WithTrustedProxies(proxies []string) Option {
	return func(s *Server) {
		s.trustedProxies = ParseTrustedProxies(proxies)
	}
}

// WithLogger sets the logger used for rejected and failed requests.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
