package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"
)

const (
	CompletionReasonManual = "manual"
	CompletionReasonExpiry = "expiry"
)

// AssessmentAttempt is one user's timed pass at one assessment. StartedAt is
// server-assigned and immutable; CompletedAt is set exactly once, by the
// compare-and-set finalization guard. Status must always agree with
// CompletedAt being set.
type AssessmentAttempt struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	AssessmentID     uint           `json:"assessment_id" gorm:"not null;index"`
	Assessment       Assessment     `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	UserID           uint           `json:"user_id" gorm:"not null;index"`
	StartedAt        time.Time      `json:"started_at" gorm:"not null"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	CompletionReason *string        `json:"completion_reason,omitempty"` // "manual", "expiry"
	Status           string         `json:"status" gorm:"not null;default:'in_progress';index"`
	Score            *int           `json:"score,omitempty"` // percentage, 0-100
	Passed           *bool          `json:"passed,omitempty"`
	PointsEarned     *float64       `json:"points_earned,omitempty"`
	PointsPossible   *float64       `json:"points_possible,omitempty"`
	Answers          []AnswerRecord `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// Completed reports whether the attempt has been finalized.
func (a *AssessmentAttempt) Completed() bool {
	return a.CompletedAt != nil
}

// Deadline is the instant the attempt's window closes.
func (a *AssessmentAttempt) Deadline(durationMinutes int) time.Time {
	return a.StartedAt.Add(time.Duration(durationMinutes) * time.Minute)
}
