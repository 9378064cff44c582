// Package mirror keeps a fallback copy of an attempt's in-progress selections
// outside the primary database. Every answer change is written through here
// before the durable upsert is even attempted, so a crash or an unreachable
// database between autosaves loses nothing. Mirror data is never authoritative
// when a durable record exists; it is consulted only when the durable read
// fails at resume time.
package mirror

import (
	"context"
	"time"
)

// Snapshot is the mirrored state of one attempt.
type Snapshot struct {
	AttemptID  uint            `json:"attempt_id"`
	SavedAt    time.Time       `json:"saved_at"`
	Selections map[uint][]uint `json:"selections"` // questionID -> selected option ids
}

// Store is the mirror contract. Load returns (nil, nil) when no snapshot
// exists; Clear is called exactly once, right after successful finalization.
type Store interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, attemptID uint) (*Snapshot, error)
	Clear(ctx context.Context, attemptID uint) error
}
