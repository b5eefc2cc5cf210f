// Package repository defines the leaderboard store interface and errors.
package repository

import (
	"context"
	"time"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank          int       `json:"rank"`
	ParticipantID string    `json:"participant_id"`
	Total         float64   `json:"total"`
	Tier          int       `json:"tier"`
	EvaluationID  string    `json:"evaluation_id,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Store provides read/write access to the leaderboard.
type Store interface {
	// Upsert replaces the participant's row with e, ignoring e.Rank.
	// The latest evaluation always wins, even when its total is lower.
	// Returns the stored entry with its new rank.
	Upsert(ctx context.Context, e Entry) (Entry, error)

	// Rank returns the current rank and row for a participant.
	// Returns ErrNotFound if the participant is unknown.
	Rank(ctx context.Context, participantID string) (Entry, error)

	// TopN returns the top-N entries ordered by total desc, participant id asc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of participants on the leaderboard.
	Count(ctx context.Context) int
}
