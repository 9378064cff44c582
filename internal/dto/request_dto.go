package dto

// OptionCreateDTO is one answer option within a question being authored.
type OptionCreateDTO struct {
	Label     string `json:"label" binding:"required"`
	IsCorrect bool   `json:"is_correct"`
	Position  int    `json:"position"`
}

// QuestionCreateDTO is one question within a new assessment.
type QuestionCreateDTO struct {
	Prompt   string            `json:"prompt" binding:"required"`
	Type     string            `json:"type" binding:"required,oneof=single_choice multi_choice"`
	Points   float64           `json:"points" binding:"required,gt=0"`
	Position int               `json:"position"`
	Options  []OptionCreateDTO `json:"options" binding:"required,min=2,dive"`
}

// AssessmentCreateDTO is the admin request for authoring a complete assessment.
type AssessmentCreateDTO struct {
	Title             string              `json:"title" binding:"required"`
	Description       string              `json:"description"`
	CertificationType string              `json:"certification_type"`
	DurationMinutes   int                 `json:"duration_minutes" binding:"required,gt=0"`
	PassingThreshold  int                 `json:"passing_threshold" binding:"required,min=0,max=100"`
	Questions         []QuestionCreateDTO `json:"questions" binding:"required,min=1,dive"`
}

// StartAttemptDTO begins (or resumes) an attempt. Eligibility is confirmed by
// the booking collaborator before this endpoint is called; the engine does not
// re-verify it. UserID comes from the caller until auth lands here.
type StartAttemptDTO struct {
	UserID uint `json:"user_id" binding:"required"`
}

// RecordAnswerDTO carries the user's current selection for one question.
// An empty list clears the selection (unanswered).
type RecordAnswerDTO struct {
	SelectedOptionIDs []uint `json:"selected_option_ids"`
}
