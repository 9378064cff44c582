package model

import (
	"time"

	"gorm.io/gorm"
)

// Certificate is the credential issued for a passing attempt. The unique
// AttemptID index is what makes issuance idempotent: a second insert for the
// same attempt is a no-op.
type Certificate struct {
	ID                uint           `gorm:"primarykey" json:"id"`
	AttemptID         uint           `json:"attempt_id" gorm:"not null;uniqueIndex"`
	UserID            uint           `json:"user_id" gorm:"not null;index"`
	AssessmentID      uint           `json:"assessment_id" gorm:"not null;index"`
	CertificationType string         `json:"certification_type" gorm:"not null"`
	SerialNumber      string         `json:"serial_number" gorm:"not null;uniqueIndex"`
	Score             int            `json:"score" gorm:"not null"`
	IssuedAt          time.Time      `json:"issued_at" gorm:"not null"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}
