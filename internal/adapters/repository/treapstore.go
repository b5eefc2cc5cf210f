package repository

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/okian/arcadepoints/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: total DESC, then participantID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the
// leaderboard from best to worst. Subtree sizes give O(log n) ranks.

// treap node
type node struct {
	id    string
	total float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aTotal, aID) should appear before (bTotal, bID)
// in the leaderboard (higher ranks first).
func less(aTotal float64, aID string, bTotal float64, bID string) bool {
	if aTotal != bTotal {
		return aTotal > bTotal // higher total ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, total float64, prio uint64) *node {
	if n == nil {
		return &node{id: id, total: total, prio: prio, size: 1}
	}
	if less(total, id, n.total, n.id) {
		n.left = insert(n.left, id, total, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, total, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, total float64) *node {
	if n == nil {
		return nil
	}
	if total == n.total && id == n.id {
		// Merge children by rotating highest priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, total)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, total)
		}
	} else if less(total, id, n.total, n.id) {
		n.left = deleteNode(n.left, id, total)
	} else {
		n.right = deleteNode(n.right, id, total)
	}
	fix(n)
	return n
}

// position returns the 1-based in-order position of (total, id).
// The key must be present.
func position(n *node, id string, total float64) int {
	pos := 0
	for n != nil {
		switch {
		case n.id == id && n.total == total:
			return pos + nsize(n.left) + 1
		case less(total, id, n.total, n.id):
			n = n.left
		default:
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectTopN appends up to limit entries in rank order (highest totals first).
func collectTopN(n *node, limit int, records map[string]Entry, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}

	// Traverse left subtree first (higher totals, or same total with lower ID)
	collectTopN(n.left, limit, records, out)

	if len(*out) < limit {
		if rec, exists := records[n.id]; exists {
			rec.Rank = len(*out) + 1
			*out = append(*out, rec)
		}
	}

	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// TreapStore is a concurrency-safe in-memory leaderboard.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]Entry
	rng  *rand.Rand
	seed uint64
	now  func() time.Time
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		byID: make(map[string]Entry),
		seed: rand.Uint64(),
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))

	metrics.UpdateLeaderboardParticipants(0)
	return s
}

// Upsert implements Store.Upsert with O(log n) expected time.
func (s *TreapStore) Upsert(_ context.Context, e Entry) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	e.ParticipantID = strings.TrimSpace(e.ParticipantID)
	if e.ParticipantID == "" {
		metrics.RecordErrorByComponent("repository", "invalid_participant")
		return Entry{}, fmt.Errorf("%w: participant id is required", ErrInvalidParticipant)
	}
	if math.IsNaN(e.Total) || math.IsInf(e.Total, 0) {
		metrics.RecordErrorByComponent("repository", "invalid_participant")
		return Entry{}, fmt.Errorf("%w: total must be finite", ErrInvalidParticipant)
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = s.now().UTC()
	}

	s.mu.Lock()
	if old, ok := s.byID[e.ParticipantID]; ok {
		s.root = deleteNode(s.root, old.ParticipantID, old.Total)
	}
	s.byID[e.ParticipantID] = e
	s.root = insert(s.root, e.ParticipantID, e.Total, s.rng.Uint64())
	e.Rank = position(s.root, e.ParticipantID, e.Total)
	count := len(s.byID)
	s.mu.Unlock()

	metrics.RecordLeaderboardUpdate()
	metrics.UpdateLeaderboardParticipants(count)
	return e, nil
}

// Rank returns the current rank and row for a participant in O(log n).
func (s *TreapStore) Rank(_ context.Context, participantID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[participantID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return Entry{}, ErrNotFound
	}
	e.Rank = position(s.root, e.ParticipantID, e.Total)
	return e, nil
}

// TopN returns the top N entries ordered by total desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	return out, nil
}

// Count returns the total number of participants.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
