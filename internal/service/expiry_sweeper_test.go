package service

import (
	"errors"
	"testing"
	"time"

	"github.com/rahmounirabii/bda-portal-sub005/internal/dto"
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/stretchr/testify/assert"
)

type mockAttemptService struct {
	SubmitFn func(attemptID uint, reason string) (*dto.AttemptResultDTO, error)
}

func (m *mockAttemptService) Start(uint, uint) (*dto.AttemptStateDTO, error) { return nil, nil }
func (m *mockAttemptService) RecordAnswer(uint, uint, []uint) error          { return nil }
func (m *mockAttemptService) RequestSubmit(attemptID uint, reason string) (*dto.AttemptResultDTO, error) {
	return m.SubmitFn(attemptID, reason)
}
func (m *mockAttemptService) GetAttempt(uint) (*dto.AttemptResultDTO, error) { return nil, nil }
func (m *mockAttemptService) ListUserAttempts(uint, uint) ([]dto.AttemptSummaryDTO, error) {
	return nil, nil
}
func (m *mockAttemptService) Clock(uint) (*dto.AttemptClockDTO, error) { return nil, nil }
func (m *mockAttemptService) Shutdown()                                {}

func TestExpirySweeper_Sweep(t *testing.T) {
	t.Run("submits every overdue attempt with the expiry reason", func(t *testing.T) {
		repo := newMockAttemptRepo()
		repo.FindOverdueFn = func(time.Time) ([]model.AssessmentAttempt, error) {
			return []model.AssessmentAttempt{{ID: 1}, {ID: 2}}, nil
		}
		var submitted []uint
		svc := &mockAttemptService{SubmitFn: func(attemptID uint, reason string) (*dto.AttemptResultDTO, error) {
			assert.Equal(t, model.CompletionReasonExpiry, reason)
			submitted = append(submitted, attemptID)
			return &dto.AttemptResultDTO{}, nil
		}}

		NewExpirySweeper(repo, svc, time.Hour).sweep()
		assert.Equal(t, []uint{1, 2}, submitted)
	})

	t.Run("already-completed attempts are skipped, failures retried next sweep", func(t *testing.T) {
		repo := newMockAttemptRepo()
		repo.FindOverdueFn = func(time.Time) ([]model.AssessmentAttempt, error) {
			return []model.AssessmentAttempt{{ID: 1}, {ID: 2}, {ID: 3}}, nil
		}
		calls := 0
		svc := &mockAttemptService{SubmitFn: func(attemptID uint, reason string) (*dto.AttemptResultDTO, error) {
			calls++
			switch attemptID {
			case 1:
				return nil, repository.ErrAttemptCompleted
			case 2:
				return nil, repository.Transient(errors.New("db down"))
			default:
				return &dto.AttemptResultDTO{}, nil
			}
		}}
		sweeper := NewExpirySweeper(repo, svc, time.Hour)

		sweeper.sweep()
		assert.Equal(t, 3, calls, "one submission per overdue attempt, errors do not abort the sweep")
	})

	t.Run("listing failure aborts the sweep quietly", func(t *testing.T) {
		repo := newMockAttemptRepo()
		repo.FindOverdueFn = func(time.Time) ([]model.AssessmentAttempt, error) {
			return nil, errors.New("db down")
		}
		svc := &mockAttemptService{SubmitFn: func(uint, string) (*dto.AttemptResultDTO, error) {
			t.Fatal("no submission expected")
			return nil, nil
		}}

		NewExpirySweeper(repo, svc, time.Hour).sweep()
	})
}
