// Package types contains request and response shapes shared by the service
// and the HTTP layer.
package types

import (
	"time"

	"github.com/okian/arcadepoints/internal/domain/model"
)

// Entry represents a leaderboard entry.
type Entry struct {
	Rank          int       `json:"rank"`
	ParticipantID string    `json:"participant_id"`
	Total         float64   `json:"total"`
	Tier          int       `json:"tier"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ScoreRequest is one participant's badge snapshot.
type ScoreRequest struct {
	// ParticipantID is optional; when set the result is recorded on the leaderboard.
	ParticipantID string        `json:"participant_id,omitempty"`
	Badges        []model.Badge `json:"badges"`
	Facilitator   bool          `json:"facilitator"`
	// Window overrides the configured facilitator window.
	Window *model.Window `json:"window,omitempty"`
}

// ScoreResponse is a computed result plus bookkeeping.
type ScoreResponse struct {
	EvaluationID  string `json:"evaluation_id"`
	ParticipantID string `json:"participant_id,omitempty"`
	Rank          int    `json:"rank,omitempty"` // leaderboard rank after recording
	model.Result
}

// ClassifiedName is the classification of a single raw badge name.
type ClassifiedName struct {
	Name       string         `json:"name"`
	Normalized string         `json:"normalized"`
	Category   model.Category `json:"category"`
}

// Stats is a service status snapshot.
type Stats struct {
	Started          bool   `json:"started"`
	Uptime           string `json:"uptime"`
	Participants     int    `json:"participants"`
	Evaluations      int64  `json:"evaluations"`
	BatchConcurrency int    `json:"batch_concurrency"`
	MaxBatchSize     int    `json:"max_batch_size"`
	CatalogEntries   int    `json:"catalog_entries"`
}
