package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// OptionIDList is a set of selected option ids stored as a jsonb column.
// Order carries no meaning.
type OptionIDList []uint

func (l OptionIDList) Value() (driver.Value, error) {
	if l == nil {
		l = OptionIDList{}
	}
	return json.Marshal(l)
}

func (l *OptionIDList) Scan(value interface{}) error {
	if value == nil {
		*l = OptionIDList{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for OptionIDList", value)
	}
	return json.Unmarshal(raw, l)
}

// Contains reports whether the list holds the given option id.
func (l OptionIDList) Contains(id uint) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// EqualSet compares two lists as sets: order-insensitive, duplicate-insensitive.
func (l OptionIDList) EqualSet(other OptionIDList) bool {
	seen := make(map[uint]struct{}, len(l))
	for _, v := range l {
		seen[v] = struct{}{}
	}
	otherSeen := make(map[uint]struct{}, len(other))
	for _, v := range other {
		if _, ok := seen[v]; !ok {
			return false
		}
		otherSeen[v] = struct{}{}
	}
	return len(seen) == len(otherSeen)
}

// AnswerRecord is one user's current response to one question within an
// attempt. The (AttemptID, QuestionID) pair is unique; upserts before scoring
// never touch IsCorrect or PointsEarned, which are written exactly once at
// finalization.
type AnswerRecord struct {
	ID                uint         `gorm:"primarykey" json:"id"`
	AttemptID         uint         `json:"attempt_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	QuestionID        uint         `json:"question_id" gorm:"not null;uniqueIndex:idx_answer_attempt_question"`
	SelectedOptionIDs OptionIDList `json:"selected_option_ids" gorm:"type:jsonb;not null"`
	IsCorrect         *bool        `json:"is_correct,omitempty"`
	PointsEarned      *float64     `json:"points_earned,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}
