package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rahmounirabii/bda-portal-sub005/internal/messaging"
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCertRepo struct {
	stored map[uint]*model.Certificate
}

func newMockCertRepo() *mockCertRepo {
	return &mockCertRepo{stored: map[uint]*model.Certificate{}}
}

func (m *mockCertRepo) InsertIdempotent(cert *model.Certificate) (bool, error) {
	if _, exists := m.stored[cert.AttemptID]; exists {
		return false, nil
	}
	cp := *cert
	m.stored[cert.AttemptID] = &cp
	return true, nil
}

func (m *mockCertRepo) FindByAttemptID(attemptID uint) (*model.Certificate, error) {
	cert, ok := m.stored[attemptID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cert, nil
}

type mockPublisher struct {
	events []messaging.CertificateIssuedEvent
	Err    error
}

func (m *mockPublisher) PublishCertificateIssued(_ context.Context, event messaging.CertificateIssuedEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func passingAttempt() (*model.AssessmentAttempt, *model.Assessment) {
	score := 85
	passed := true
	completedAt := time.Now().UTC()
	attempt := &model.AssessmentAttempt{
		ID:          7,
		UserID:      42,
		Score:       &score,
		Passed:      &passed,
		CompletedAt: &completedAt,
		Status:      model.AttemptStatusCompleted,
	}
	assessment := &model.Assessment{ID: 3, CertificationType: "bda-associate"}
	return attempt, assessment
}

func TestCertificateService_IssueForAttempt(t *testing.T) {
	t.Run("issues a certificate and publishes the event", func(t *testing.T) {
		repo := newMockCertRepo()
		pub := &mockPublisher{}
		svc := NewCertificateService(repo, pub)
		attempt, assessment := passingAttempt()

		cert, alreadyIssued, err := svc.IssueForAttempt(attempt, assessment)
		require.NoError(t, err)

		assert.False(t, alreadyIssued)
		assert.NotEmpty(t, cert.SerialNumber)
		assert.Equal(t, "bda-associate", cert.CertificationType)
		assert.Equal(t, 85, cert.Score)

		require.Len(t, pub.events, 1)
		assert.Equal(t, cert.SerialNumber, pub.events[0].SerialNumber)
		assert.Equal(t, uint(7), pub.events[0].AttemptID)
	})

	t.Run("second issuance returns the existing certificate", func(t *testing.T) {
		repo := newMockCertRepo()
		pub := &mockPublisher{}
		svc := NewCertificateService(repo, pub)
		attempt, assessment := passingAttempt()

		first, _, err := svc.IssueForAttempt(attempt, assessment)
		require.NoError(t, err)
		second, alreadyIssued, err := svc.IssueForAttempt(attempt, assessment)
		require.NoError(t, err)

		assert.True(t, alreadyIssued)
		assert.Equal(t, first.SerialNumber, second.SerialNumber)
		assert.Len(t, pub.events, 1, "no duplicate event")
	})

	t.Run("refuses a non-passing attempt", func(t *testing.T) {
		svc := NewCertificateService(newMockCertRepo(), &mockPublisher{})
		attempt, assessment := passingAttempt()
		failed := false
		attempt.Passed = &failed

		_, _, err := svc.IssueForAttempt(attempt, assessment)
		assert.ErrorIs(t, err, repository.ErrValidation)
	})

	t.Run("publish failure does not invalidate the certificate", func(t *testing.T) {
		repo := newMockCertRepo()
		pub := &mockPublisher{Err: errors.New("broker unavailable")}
		svc := NewCertificateService(repo, pub)
		attempt, assessment := passingAttempt()

		cert, _, err := svc.IssueForAttempt(attempt, assessment)
		require.NoError(t, err)
		assert.NotEmpty(t, cert.SerialNumber)

		stored, err := repo.FindByAttemptID(attempt.ID)
		require.NoError(t, err)
		assert.Equal(t, cert.SerialNumber, stored.SerialNumber)
	})
}
