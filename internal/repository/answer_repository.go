package repository

import (
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	// Upsert writes the current selection for one question of one attempt.
	// Last write wins per (attempt_id, question_id); correctness fields are
	// never touched here, scoring owns them.
	Upsert(record *model.AnswerRecord) error
	LoadAll(attemptID uint) ([]model.AnswerRecord, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Upsert(record *model.AnswerRecord) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option_ids", "updated_at"}),
	}).Create(record).Error
}

func (r *answerRepository) LoadAll(attemptID uint) ([]model.AnswerRecord, error) {
	var records []model.AnswerRecord
	err := r.db.
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&records).Error
	return records, err
}
