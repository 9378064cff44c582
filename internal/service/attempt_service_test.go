package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rahmounirabii/bda-portal-sub005/config"
	"github.com/rahmounirabii/bda-portal-sub005/internal/mirror"
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAssessmentRepo struct {
	FindWithQuestionsFn func(id uint) (*model.Assessment, error)
	CreateFn            func(assessment *model.Assessment) error
	FindAllFn           func() ([]struct {
		model.Assessment
		QuestionCount int
	}, error)
}

func (m *mockAssessmentRepo) Create(assessment *model.Assessment) error {
	if m.CreateFn != nil {
		return m.CreateFn(assessment)
	}
	return nil
}
func (m *mockAssessmentRepo) FindByID(id uint) (*model.Assessment, error) {
	return m.FindWithQuestionsFn(id)
}
func (m *mockAssessmentRepo) FindByIDWithQuestions(id uint) (*model.Assessment, error) {
	return m.FindWithQuestionsFn(id)
}
func (m *mockAssessmentRepo) FindAllWithQuestionCount() ([]struct {
	model.Assessment
	QuestionCount int
}, error) {
	if m.FindAllFn != nil {
		return m.FindAllFn()
	}
	return nil, nil
}

// mockAttemptRepo keeps just enough state to mimic the completion guard.
type mockAttemptRepo struct {
	mu        sync.Mutex
	nextID    uint
	attempts  map[uint]*model.AssessmentAttempt
	finalized int32

	FindOpenFn    func(userID, assessmentID uint) (*model.AssessmentAttempt, error)
	FinalizeFn    func(in repository.FinalizeInput) (bool, error)
	FindOverdueFn func(now time.Time) ([]model.AssessmentAttempt, error)
}

func newMockAttemptRepo() *mockAttemptRepo {
	return &mockAttemptRepo{nextID: 1, attempts: map[uint]*model.AssessmentAttempt{}}
}

func (m *mockAttemptRepo) Create(attempt *model.AssessmentAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt.ID = m.nextID
	m.nextID++
	cp := *attempt
	m.attempts[attempt.ID] = &cp
	return nil
}

func (m *mockAttemptRepo) FindByID(id uint) (*model.AssessmentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attempt, ok := m.attempts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *attempt
	return &cp, nil
}

func (m *mockAttemptRepo) FindByIDWithAnswers(id uint) (*model.AssessmentAttempt, error) {
	return m.FindByID(id)
}

func (m *mockAttemptRepo) FindOpenByUserAndAssessment(userID, assessmentID uint) (*model.AssessmentAttempt, error) {
	if m.FindOpenFn != nil {
		return m.FindOpenFn(userID, assessmentID)
	}
	return nil, repository.ErrNotFound
}

func (m *mockAttemptRepo) FindAllByAssessmentAndUser(uint, uint) ([]model.AssessmentAttempt, error) {
	return nil, nil
}

func (m *mockAttemptRepo) FindOverdue(now time.Time) ([]model.AssessmentAttempt, error) {
	if m.FindOverdueFn != nil {
		return m.FindOverdueFn(now)
	}
	return nil, nil
}

func (m *mockAttemptRepo) Finalize(in repository.FinalizeInput) (bool, error) {
	if m.FinalizeFn != nil {
		return m.FinalizeFn(in)
	}
	if !atomic.CompareAndSwapInt32(&m.finalized, 0, 1) {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if attempt, ok := m.attempts[in.AttemptID]; ok {
		completedAt := in.CompletedAt
		reason := in.Reason
		score := in.Score
		passed := in.Passed
		attempt.CompletedAt = &completedAt
		attempt.CompletionReason = &reason
		attempt.Status = model.AttemptStatusCompleted
		attempt.Score = &score
		attempt.Passed = &passed
	}
	return true, nil
}

func (m *mockAttemptRepo) finalizeCount() int32 {
	return atomic.LoadInt32(&m.finalized)
}

type mockCertService struct {
	issued int32
}

func (m *mockCertService) IssueForAttempt(attempt *model.AssessmentAttempt, assessment *model.Assessment) (*model.Certificate, bool, error) {
	atomic.AddInt32(&m.issued, 1)
	return &model.Certificate{
		AttemptID:         attempt.ID,
		SerialNumber:      "serial-1",
		CertificationType: assessment.CertificationType,
		Score:             *attempt.Score,
		IssuedAt:          time.Now().UTC(),
	}, false, nil
}

func (m *mockCertService) GetByAttempt(uint) (*model.Certificate, error) {
	return nil, repository.ErrNotFound
}

type attemptFixture struct {
	svc        AttemptService
	assessment *model.Assessment
	attempts   *mockAttemptRepo
	answers    *mockAnswerRepo
	certs      *mockCertService
	mirror     mirror.Store
}

func newAttemptFixture(t *testing.T) *attemptFixture {
	t.Helper()
	f := &attemptFixture{
		assessment: twoQuestionAssessment(),
		attempts:   newMockAttemptRepo(),
		answers:    &mockAnswerRepo{},
		certs:      &mockCertService{},
		mirror:     mirror.NewMemoryStore(),
	}
	cfg := &config.Config{Engine: config.Engine{
		// Long timers so only explicit submission flushes during tests.
		AutosaveDebounce: time.Hour,
		AutosaveInterval: time.Hour,
		AutosaveRetries:  1,
		AutosaveBackoff:  0,
		IssuanceEnabled:  true,
	}}
	assessments := &mockAssessmentRepo{FindWithQuestionsFn: func(id uint) (*model.Assessment, error) {
		if id != f.assessment.ID {
			return nil, repository.ErrNotFound
		}
		return f.assessment, nil
	}}
	f.svc = NewAttemptService(assessments, f.attempts, f.answers, NewScoringService(), f.certs, f.mirror, cfg)
	t.Cleanup(f.svc.Shutdown)
	return f
}

func TestAttemptService_Start(t *testing.T) {
	t.Run("creates a fresh attempt with a server-assigned start", func(t *testing.T) {
		f := newAttemptFixture(t)

		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)

		assert.Equal(t, model.AttemptStatusInProgress, state.Status)
		assert.False(t, state.Resumed)
		assert.Empty(t, state.Selections)
		assert.WithinDuration(t, time.Now().UTC(), state.StartedAt, 2*time.Second)
		assert.InDelta(t, 30*60, state.RemainingSeconds, 2)
	})

	t.Run("unknown assessment is not found", func(t *testing.T) {
		f := newAttemptFixture(t)

		_, err := f.svc.Start(999, 42)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("resumes the open attempt with durable selections", func(t *testing.T) {
		f := newAttemptFixture(t)
		open := &model.AssessmentAttempt{
			AssessmentID: f.assessment.ID,
			UserID:       42,
			StartedAt:    time.Now().UTC().Add(-5 * time.Minute),
			Status:       model.AttemptStatusInProgress,
		}
		require.NoError(t, f.attempts.Create(open))
		f.attempts.FindOpenFn = func(uint, uint) (*model.AssessmentAttempt, error) { return open, nil }
		f.answers.LoadFn = func(uint) ([]model.AnswerRecord, error) {
			return []model.AnswerRecord{{AttemptID: open.ID, QuestionID: 1, SelectedOptionIDs: model.OptionIDList{2}}}, nil
		}

		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)

		assert.True(t, state.Resumed)
		assert.Equal(t, open.ID, state.ID)
		require.Len(t, state.Selections, 1)
		assert.Equal(t, uint(1), state.Selections[0].QuestionID)
		assert.Equal(t, model.OptionIDList{2}, model.OptionIDList(state.Selections[0].SelectedOptionIDs))
	})

	t.Run("durable records override the mirror snapshot per question", func(t *testing.T) {
		f := newAttemptFixture(t)
		open := &model.AssessmentAttempt{
			AssessmentID: f.assessment.ID,
			UserID:       42,
			StartedAt:    time.Now().UTC().Add(-5 * time.Minute),
			Status:       model.AttemptStatusInProgress,
		}
		require.NoError(t, f.attempts.Create(open))
		f.attempts.FindOpenFn = func(uint, uint) (*model.AssessmentAttempt, error) { return open, nil }

		// The mirror has both questions, the durable store only question 1 and
		// with a different value. Question 1 must come from the durable store.
		require.NoError(t, f.mirror.Save(context.Background(), &mirror.Snapshot{
			AttemptID:  open.ID,
			Selections: map[uint][]uint{1: {3}, 2: {5, 6}},
		}))
		f.answers.LoadFn = func(uint) ([]model.AnswerRecord, error) {
			return []model.AnswerRecord{{AttemptID: open.ID, QuestionID: 1, SelectedOptionIDs: model.OptionIDList{2}}}, nil
		}

		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)

		byQuestion := map[uint][]uint{}
		for _, sel := range state.Selections {
			byQuestion[sel.QuestionID] = sel.SelectedOptionIDs
		}
		assert.Equal(t, []uint{2}, byQuestion[1], "durable value wins")
		assert.Equal(t, []uint{5, 6}, byQuestion[2], "mirror fills the gap")
	})

	t.Run("resumes from the mirror alone when the durable read fails", func(t *testing.T) {
		f := newAttemptFixture(t)
		open := &model.AssessmentAttempt{
			AssessmentID: f.assessment.ID,
			UserID:       42,
			StartedAt:    time.Now().UTC().Add(-5 * time.Minute),
			Status:       model.AttemptStatusInProgress,
		}
		require.NoError(t, f.attempts.Create(open))
		f.attempts.FindOpenFn = func(uint, uint) (*model.AssessmentAttempt, error) { return open, nil }
		require.NoError(t, f.mirror.Save(context.Background(), &mirror.Snapshot{
			AttemptID:  open.ID,
			Selections: map[uint][]uint{1: {1}},
		}))
		f.answers.LoadFn = func(uint) ([]model.AnswerRecord, error) {
			return nil, errors.New("connection refused")
		}

		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		require.Len(t, state.Selections, 1)
		assert.Equal(t, []uint{1}, state.Selections[0].SelectedOptionIDs)
	})

	t.Run("fails retryably when neither store is reachable", func(t *testing.T) {
		f := newAttemptFixture(t)
		open := &model.AssessmentAttempt{
			AssessmentID: f.assessment.ID,
			UserID:       42,
			StartedAt:    time.Now().UTC().Add(-5 * time.Minute),
			Status:       model.AttemptStatusInProgress,
		}
		require.NoError(t, f.attempts.Create(open))
		f.attempts.FindOpenFn = func(uint, uint) (*model.AssessmentAttempt, error) { return open, nil }
		f.answers.LoadFn = func(uint) ([]model.AnswerRecord, error) {
			return nil, errors.New("connection refused")
		}

		_, err := f.svc.Start(f.assessment.ID, 42)
		require.Error(t, err)
		assert.True(t, repository.IsTransient(err))
	})
}

func TestAttemptService_RecordAnswer(t *testing.T) {
	t.Run("accepts a valid selection and mirrors it immediately", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)

		require.NoError(t, f.svc.RecordAnswer(state.ID, 1, []uint{2}))

		snap, err := f.mirror.Load(context.Background(), state.ID)
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, []uint{2}, snap.Selections[1])
	})

	t.Run("rejects a question outside the assessment", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)

		err = f.svc.RecordAnswer(state.ID, 99, []uint{1})
		assert.ErrorIs(t, err, repository.ErrValidation)
	})

	t.Run("rejects an option outside the question without mutating state", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		require.NoError(t, f.svc.RecordAnswer(state.ID, 1, []uint{2}))

		// Option 5 belongs to question 2, not question 1.
		err = f.svc.RecordAnswer(state.ID, 1, []uint{5})
		require.ErrorIs(t, err, repository.ErrValidation)

		snap, _ := f.mirror.Load(context.Background(), state.ID)
		assert.Equal(t, []uint{2}, snap.Selections[1], "previous selection untouched")
	})

	t.Run("empty selection clears the answer", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		require.NoError(t, f.svc.RecordAnswer(state.ID, 1, []uint{2}))

		require.NoError(t, f.svc.RecordAnswer(state.ID, 1, nil))

		snap, _ := f.mirror.Load(context.Background(), state.ID)
		assert.Empty(t, snap.Selections[1])
	})

	t.Run("rejected after completion", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		_, err = f.svc.RequestSubmit(state.ID, model.CompletionReasonManual)
		require.NoError(t, err)

		err = f.svc.RecordAnswer(state.ID, 1, []uint{1})
		assert.ErrorIs(t, err, repository.ErrAttemptCompleted)
	})

	t.Run("rejected once the window has expired", func(t *testing.T) {
		f := newAttemptFixture(t)
		open := &model.AssessmentAttempt{
			AssessmentID: f.assessment.ID,
			UserID:       42,
			StartedAt:    time.Now().UTC().Add(-31 * time.Minute), // past the 30min window
			Status:       model.AttemptStatusInProgress,
		}
		require.NoError(t, f.attempts.Create(open))
		f.attempts.FindOpenFn = func(uint, uint) (*model.AssessmentAttempt, error) { return open, nil }

		// Resuming an already-expired attempt converges it and starts fresh; go
		// through runtimeFor directly instead.
		err := f.svc.RecordAnswer(open.ID, 1, []uint{1})
		require.Error(t, err)
		assert.ErrorIs(t, err, repository.ErrAttemptCompleted)
	})
}

func TestAttemptService_RequestSubmit(t *testing.T) {
	t.Run("manual submission scores, finalizes and issues once", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		require.NoError(t, f.svc.RecordAnswer(state.ID, 1, []uint{1}))    // correct
		require.NoError(t, f.svc.RecordAnswer(state.ID, 2, []uint{5, 6})) // correct

		result, err := f.svc.RequestSubmit(state.ID, model.CompletionReasonManual)
		require.NoError(t, err)

		assert.Equal(t, model.AttemptStatusCompleted, result.Status)
		require.NotNil(t, result.Score)
		assert.Equal(t, 100, *result.Score)
		require.NotNil(t, result.Passed)
		assert.True(t, *result.Passed)
		require.NotNil(t, result.CompletionReason)
		assert.Equal(t, model.CompletionReasonManual, *result.CompletionReason)
		require.NotNil(t, result.Certificate)
		assert.Equal(t, "serial-1", result.Certificate.SerialNumber)
		assert.Equal(t, int32(1), atomic.LoadInt32(&f.certs.issued))

		// Pending answers were flushed durably before scoring.
		assert.Equal(t, 2, f.answers.upsertCount())

		// Mirror cleared after finalization.
		snap, _ := f.mirror.Load(context.Background(), state.ID)
		assert.Nil(t, snap)
	})

	t.Run("failing score issues no certificate", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		require.NoError(t, f.svc.RecordAnswer(state.ID, 1, []uint{2})) // wrong

		result, err := f.svc.RequestSubmit(state.ID, model.CompletionReasonManual)
		require.NoError(t, err)

		require.NotNil(t, result.Passed)
		assert.False(t, *result.Passed)
		assert.Nil(t, result.Certificate)
		assert.Zero(t, atomic.LoadInt32(&f.certs.issued))
	})

	t.Run("unknown reason is a validation error", func(t *testing.T) {
		f := newAttemptFixture(t)
		_, err := f.svc.RequestSubmit(1, "because")
		assert.ErrorIs(t, err, repository.ErrValidation)
	})

	t.Run("second submission returns the stored result without rescoring", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		require.NoError(t, f.svc.RecordAnswer(state.ID, 1, []uint{1}))
		require.NoError(t, f.svc.RecordAnswer(state.ID, 2, []uint{5, 6}))

		_, err = f.svc.RequestSubmit(state.ID, model.CompletionReasonManual)
		require.NoError(t, err)
		second, err := f.svc.RequestSubmit(state.ID, model.CompletionReasonExpiry)
		require.NoError(t, err)

		assert.Equal(t, model.AttemptStatusCompleted, second.Status)
		require.NotNil(t, second.CompletionReason)
		assert.Equal(t, model.CompletionReasonManual, *second.CompletionReason, "first reason sticks")
		assert.Equal(t, int32(1), f.attempts.finalizeCount())
		assert.Equal(t, int32(1), atomic.LoadInt32(&f.certs.issued))
	})

	t.Run("concurrent manual and expiry submissions finalize exactly once", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		require.NoError(t, f.svc.RecordAnswer(state.ID, 1, []uint{1}))
		require.NoError(t, f.svc.RecordAnswer(state.ID, 2, []uint{5, 6}))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = f.svc.RequestSubmit(state.ID, model.CompletionReasonManual)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = f.svc.RequestSubmit(state.ID, model.CompletionReasonExpiry)
		}()
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		assert.Equal(t, int32(1), f.attempts.finalizeCount(), "single winner")
		assert.Equal(t, int32(1), atomic.LoadInt32(&f.certs.issued), "single issuance")
	})

	t.Run("manual submission with a failing flush stays open and retryable", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		require.NoError(t, f.svc.RecordAnswer(state.ID, 1, []uint{1}))

		f.answers.UpsertFn = func(*model.AnswerRecord) error {
			return repository.Transient(errors.New("connection refused"))
		}
		_, err = f.svc.RequestSubmit(state.ID, model.CompletionReasonManual)
		require.Error(t, err)
		assert.True(t, repository.IsTransient(err))
		assert.Zero(t, f.attempts.finalizeCount())

		// Store recovers; the retried submission succeeds with the same data.
		f.answers.UpsertFn = nil
		result, err := f.svc.RequestSubmit(state.ID, model.CompletionReasonManual)
		require.NoError(t, err)
		assert.Equal(t, model.AttemptStatusCompleted, result.Status)
	})

	t.Run("expiry submission proceeds from durable records when flush fails", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		require.NoError(t, f.svc.RecordAnswer(state.ID, 1, []uint{1}))

		f.answers.UpsertFn = func(*model.AnswerRecord) error {
			return repository.Transient(errors.New("connection refused"))
		}
		f.answers.LoadFn = func(uint) ([]model.AnswerRecord, error) {
			return []model.AnswerRecord{{AttemptID: state.ID, QuestionID: 1, SelectedOptionIDs: model.OptionIDList{1}}}, nil
		}

		result, err := f.svc.RequestSubmit(state.ID, model.CompletionReasonExpiry)
		require.NoError(t, err)
		assert.Equal(t, model.AttemptStatusCompleted, result.Status)
		require.NotNil(t, result.CompletionReason)
		assert.Equal(t, model.CompletionReasonExpiry, *result.CompletionReason)
	})
}

func TestAttemptService_Clock(t *testing.T) {
	t.Run("live attempt reports remaining seconds", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)

		tick, err := f.svc.Clock(state.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AttemptStatusInProgress, tick.Status)
		assert.InDelta(t, 30*60, tick.RemainingSeconds, 2)
	})

	t.Run("completed attempt reads zero", func(t *testing.T) {
		f := newAttemptFixture(t)
		state, err := f.svc.Start(f.assessment.ID, 42)
		require.NoError(t, err)
		_, err = f.svc.RequestSubmit(state.ID, model.CompletionReasonManual)
		require.NoError(t, err)

		tick, err := f.svc.Clock(state.ID)
		require.NoError(t, err)
		assert.Equal(t, model.AttemptStatusCompleted, tick.Status)
		assert.Zero(t, tick.RemainingSeconds)
	})

	t.Run("unknown attempt is not found", func(t *testing.T) {
		f := newAttemptFixture(t)
		_, err := f.svc.Clock(404)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
