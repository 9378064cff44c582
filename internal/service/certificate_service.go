package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rahmounirabii/bda-portal-sub005/internal/messaging"
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/rs/zerolog/log"
)

// CertificateService issues credentials for passing attempts. Issuance is
// idempotent per attempt: calling it twice can never mint two certificates,
// and the already-issued outcome is success, not an error.
type CertificateService interface {
	IssueForAttempt(attempt *model.AssessmentAttempt, assessment *model.Assessment) (cert *model.Certificate, alreadyIssued bool, err error)
	GetByAttempt(attemptID uint) (*model.Certificate, error)
}

type certificateService struct {
	certs     repository.CertificateRepository
	publisher messaging.Publisher
}

func NewCertificateService(certs repository.CertificateRepository, publisher messaging.Publisher) CertificateService {
	return &certificateService{certs: certs, publisher: publisher}
}

func (s *certificateService) IssueForAttempt(attempt *model.AssessmentAttempt, assessment *model.Assessment) (*model.Certificate, bool, error) {
	if attempt.Score == nil || attempt.Passed == nil || !*attempt.Passed {
		return nil, false, fmt.Errorf("%w: attempt %d is not a passing completed attempt", repository.ErrValidation, attempt.ID)
	}

	cert := &model.Certificate{
		AttemptID:         attempt.ID,
		UserID:            attempt.UserID,
		AssessmentID:      assessment.ID,
		CertificationType: assessment.CertificationType,
		SerialNumber:      uuid.NewString(),
		Score:             *attempt.Score,
		IssuedAt:          time.Now().UTC(),
	}

	created, err := s.certs.InsertIdempotent(cert)
	if err != nil {
		return nil, false, fmt.Errorf("failed to issue certificate for attempt %d: %w", attempt.ID, err)
	}
	if !created {
		existing, findErr := s.certs.FindByAttemptID(attempt.ID)
		if findErr != nil {
			return nil, true, findErr
		}
		log.Info().Uint("attemptID", attempt.ID).Str("serial", existing.SerialNumber).Msg("Certificate already issued for attempt")
		return existing, true, nil
	}

	// The issued event feeds the notification pipeline; losing it never
	// invalidates the certificate itself.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if pubErr := s.publisher.PublishCertificateIssued(ctx, messaging.CertificateIssuedEvent{
		CertificateID:     cert.ID,
		SerialNumber:      cert.SerialNumber,
		AttemptID:         cert.AttemptID,
		UserID:            cert.UserID,
		AssessmentID:      cert.AssessmentID,
		CertificationType: cert.CertificationType,
		Score:             cert.Score,
		IssuedAt:          cert.IssuedAt,
	}); pubErr != nil {
		log.Error().Err(pubErr).Uint("certificateID", cert.ID).Msg("Failed to publish certificate.issued event")
	}

	log.Info().Uint("attemptID", attempt.ID).Str("serial", cert.SerialNumber).Int("score", cert.Score).Msg("Certificate issued")
	return cert, false, nil
}

func (s *certificateService) GetByAttempt(attemptID uint) (*model.Certificate, error) {
	return s.certs.FindByAttemptID(attemptID)
}
