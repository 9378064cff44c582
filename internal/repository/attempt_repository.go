package repository

import (
	"time"

	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"gorm.io/gorm"
)

// ScoredAnswer carries one question's correctness verdict into finalization.
type ScoredAnswer struct {
	QuestionID   uint
	IsCorrect    bool
	PointsEarned float64
}

// FinalizeInput is everything the finalization transaction persists: the
// attempt summary plus the per-question correctness updates.
type FinalizeInput struct {
	AttemptID      uint
	CompletedAt    time.Time
	Reason         string
	Score          int
	Passed         bool
	PointsEarned   float64
	PointsPossible float64
	PerQuestion    []ScoredAnswer
}

type AttemptRepository interface {
	Create(attempt *model.AssessmentAttempt) error
	FindByID(id uint) (*model.AssessmentAttempt, error)
	FindByIDWithAnswers(id uint) (*model.AssessmentAttempt, error)
	FindOpenByUserAndAssessment(userID, assessmentID uint) (*model.AssessmentAttempt, error)
	FindAllByAssessmentAndUser(assessmentID, userID uint) ([]model.AssessmentAttempt, error)
	FindOverdue(now time.Time) ([]model.AssessmentAttempt, error)

	// Finalize performs the single-writer completion guard: a compare-and-set
	// of completed_at from NULL, with the summary fields and per-question
	// correctness written in the same transaction. Returns won=false when
	// another submission already finalized the attempt; that caller must treat
	// the attempt as completed, not as failed.
	Finalize(in FinalizeInput) (won bool, err error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(attempt *model.AssessmentAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *attemptRepository) FindByID(id uint) (*model.AssessmentAttempt, error) {
	var attempt model.AssessmentAttempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDWithAnswers(id uint) (*model.AssessmentAttempt, error) {
	var attempt model.AssessmentAttempt
	err := r.db.
		Preload("Assessment").
		Preload("Assessment.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Preload("Answers").
		First(&attempt, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &attempt, nil
}

func (r *attemptRepository) FindOpenByUserAndAssessment(userID, assessmentID uint) (*model.AssessmentAttempt, error) {
	var attempt model.AssessmentAttempt
	err := r.db.
		Where("user_id = ? AND assessment_id = ? AND completed_at IS NULL", userID, assessmentID).
		Order("started_at DESC").
		First(&attempt).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &attempt, nil
}

func (r *attemptRepository) FindAllByAssessmentAndUser(assessmentID, userID uint) ([]model.AssessmentAttempt, error) {
	var attempts []model.AssessmentAttempt
	err := r.db.
		Where("assessment_id = ? AND user_id = ?", assessmentID, userID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) FindOverdue(now time.Time) ([]model.AssessmentAttempt, error) {
	var attempts []model.AssessmentAttempt
	err := r.db.
		Joins("JOIN assessments ON assessments.id = assessment_attempts.assessment_id").
		Where("assessment_attempts.completed_at IS NULL").
		Where("assessment_attempts.started_at + (assessments.duration_minutes * interval '1 minute') <= ?", now).
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) Finalize(in FinalizeInput) (bool, error) {
	won := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.AssessmentAttempt{}).
			Where("id = ? AND completed_at IS NULL", in.AttemptID).
			Updates(map[string]interface{}{
				"completed_at":      in.CompletedAt,
				"completion_reason": in.Reason,
				"status":            model.AttemptStatusCompleted,
				"score":             in.Score,
				"passed":            in.Passed,
				"points_earned":     in.PointsEarned,
				"points_possible":   in.PointsPossible,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race: someone else set completed_at first.
			return nil
		}
		won = true
		for _, sa := range in.PerQuestion {
			if err := tx.Model(&model.AnswerRecord{}).
				Where("attempt_id = ? AND question_id = ?", in.AttemptID, sa.QuestionID).
				Updates(map[string]interface{}{
					"is_correct":    sa.IsCorrect,
					"points_earned": sa.PointsEarned,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return won, err
}
