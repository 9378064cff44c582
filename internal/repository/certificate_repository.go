package repository

import (
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CertificateRepository interface {
	// InsertIdempotent creates the certificate unless one already exists for
	// the attempt. Returns created=false (and no error) in the already-issued
	// case; the caller treats that as success.
	InsertIdempotent(cert *model.Certificate) (created bool, err error)
	FindByAttemptID(attemptID uint) (*model.Certificate, error)
}

type certificateRepository struct {
	db *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) InsertIdempotent(cert *model.Certificate) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}},
		DoNothing: true,
	}).Create(cert)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *certificateRepository) FindByAttemptID(attemptID uint) (*model.Certificate, error) {
	var cert model.Certificate
	if err := r.db.Where("attempt_id = ?", attemptID).First(&cert).Error; err != nil {
		return nil, notFound(err)
	}
	return &cert, nil
}
