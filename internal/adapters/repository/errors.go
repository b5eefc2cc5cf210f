package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrNotFound           = errors.New("participant not found")
	ErrInvalidLimit       = errors.New("invalid leaderboard limit")
	ErrInvalidParticipant = errors.New("invalid participant entry")
)
