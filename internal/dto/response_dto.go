package dto

import "time"

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// --- Assessment views ---

// OptionAdminDTO includes the correct flag; admin/export only.
type OptionAdminDTO struct {
	ID        uint   `json:"id"`
	Label     string `json:"label"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position"`
}

// OptionUserDTO is the student-safe option view (no correct flag).
type OptionUserDTO struct {
	ID       uint   `json:"id"`
	Label    string `json:"label"`
	Position int    `json:"position"`
}

type QuestionAdminDTO struct {
	ID       uint             `json:"id"`
	Prompt   string           `json:"prompt"`
	Type     string           `json:"type"`
	Points   float64          `json:"points"`
	Position int              `json:"position"`
	Options  []OptionAdminDTO `json:"options"`
}

type QuestionUserDTO struct {
	ID       uint            `json:"id"`
	Prompt   string          `json:"prompt"`
	Type     string          `json:"type"`
	Points   float64         `json:"points"`
	Position int             `json:"position"`
	Options  []OptionUserDTO `json:"options"`
}

type AssessmentAdminDTO struct {
	ID                uint               `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description,omitempty"`
	CertificationType string             `json:"certification_type"`
	DurationMinutes   int                `json:"duration_minutes"`
	PassingThreshold  int                `json:"passing_threshold"`
	Questions         []QuestionAdminDTO `json:"questions"`
	CreatedAt         time.Time          `json:"created_at"`
}

type AssessmentUserDTO struct {
	ID               uint              `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	DurationMinutes  int               `json:"duration_minutes"`
	PassingThreshold int               `json:"passing_threshold"`
	Questions        []QuestionUserDTO `json:"questions"`
}

type AssessmentSummaryDTO struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	DurationMinutes  int       `json:"duration_minutes"`
	PassingThreshold int       `json:"passing_threshold"`
	QuestionCount    int       `json:"question_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// --- Attempt views ---

// AnswerSelectionDTO is a saved selection as seen on resume.
type AnswerSelectionDTO struct {
	QuestionID        uint   `json:"question_id"`
	SelectedOptionIDs []uint `json:"selected_option_ids"`
}

// AttemptStateDTO is what the presentation layer needs to render an
// in-progress attempt: status, remaining time and current selections.
type AttemptStateDTO struct {
	ID               uint                 `json:"id"`
	AssessmentID     uint                 `json:"assessment_id"`
	UserID           uint                 `json:"user_id"`
	Status           string               `json:"status"`
	StartedAt        time.Time            `json:"started_at"`
	RemainingSeconds int64                `json:"remaining_seconds"`
	Resumed          bool                 `json:"resumed"`
	Selections       []AnswerSelectionDTO `json:"selections"`
}

type QuestionResultDTO struct {
	QuestionID        uint     `json:"question_id"`
	SelectedOptionIDs []uint   `json:"selected_option_ids"`
	IsCorrect         *bool    `json:"is_correct,omitempty"`
	PointsEarned      *float64 `json:"points_earned,omitempty"`
	PointsPossible    float64  `json:"points_possible"`
}

type CertificateDTO struct {
	SerialNumber      string    `json:"serial_number"`
	CertificationType string    `json:"certification_type"`
	Score             int       `json:"score"`
	IssuedAt          time.Time `json:"issued_at"`
}

type AttemptResultDTO struct {
	ID               uint                `json:"id"`
	AssessmentID     uint                `json:"assessment_id"`
	AssessmentTitle  string              `json:"assessment_title,omitempty"`
	UserID           uint                `json:"user_id"`
	Status           string              `json:"status"`
	StartedAt        time.Time           `json:"started_at"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	CompletionReason *string             `json:"completion_reason,omitempty"`
	RemainingSeconds int64               `json:"remaining_seconds"`
	Score            *int                `json:"score,omitempty"`
	Passed           *bool               `json:"passed,omitempty"`
	PointsEarned     *float64            `json:"points_earned,omitempty"`
	PointsPossible   *float64            `json:"points_possible,omitempty"`
	Answers          []QuestionResultDTO `json:"answers,omitempty"`
	Certificate      *CertificateDTO     `json:"certificate,omitempty"`
	IssuanceError    string              `json:"issuance_error,omitempty"`
}

type AttemptSummaryDTO struct {
	ID               uint       `json:"id"`
	AssessmentID     uint       `json:"assessment_id"`
	UserID           uint       `json:"user_id"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CompletionReason *string    `json:"completion_reason,omitempty"`
	Score            *int       `json:"score,omitempty"`
	Passed           *bool      `json:"passed,omitempty"`
}

// AttemptClockDTO is one tick of the countdown stream.
type AttemptClockDTO struct {
	AttemptID        uint   `json:"attempt_id"`
	Status           string `json:"status"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}
