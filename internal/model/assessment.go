package model

import (
	"time"

	"gorm.io/gorm"
)

// Assessment is the definition a timed attempt runs against: an ordered set of
// questions, a fixed duration and a passing threshold. It is treated as
// immutable for the lifetime of any attempt referencing it.
type Assessment struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	Title             string         `json:"title" gorm:"not null;uniqueIndex"`
	Description       string         `json:"description,omitempty"`
	CertificationType string         `json:"certification_type" gorm:"not null"`
	DurationMinutes   int            `json:"duration_minutes" gorm:"not null"`
	PassingThreshold  int            `json:"passing_threshold" gorm:"not null"` // percentage, 0-100
	Questions         []Question     `json:"questions,omitempty" gorm:"foreignKey:AssessmentID"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// TotalPoints sums every question's point value, answered or not.
func (a *Assessment) TotalPoints() float64 {
	total := 0.0
	for _, q := range a.Questions {
		total += q.Points
	}
	return total
}

// QuestionByID returns the question with the given id, or nil if it does not
// belong to this assessment.
func (a *Assessment) QuestionByID(questionID uint) *Question {
	for i := range a.Questions {
		if a.Questions[i].ID == questionID {
			return &a.Questions[i]
		}
	}
	return nil
}
