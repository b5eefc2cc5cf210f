package policy

import "errors"

// ErrInvalidPolicy marks a configuration that would yield wrong scores or tiers.
var ErrInvalidPolicy = errors.New("invalid policy")
