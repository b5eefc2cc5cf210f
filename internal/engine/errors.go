package engine

import "errors"

// ErrInvalidConfig is returned by New when the policy or catalog is unusable.
// The underlying policy.ErrInvalidPolicy or catalog.ErrInvalidCatalog is
// wrapped as well.
var ErrInvalidConfig = errors.New("invalid engine configuration")
