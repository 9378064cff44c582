package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAnswerRepo struct {
	mu       sync.Mutex
	upserts  []model.AnswerRecord
	UpsertFn func(record *model.AnswerRecord) error
	LoadFn   func(attemptID uint) ([]model.AnswerRecord, error)
}

func (m *mockAnswerRepo) Upsert(record *model.AnswerRecord) error {
	m.mu.Lock()
	m.upserts = append(m.upserts, *record)
	m.mu.Unlock()
	if m.UpsertFn != nil {
		return m.UpsertFn(record)
	}
	return nil
}

func (m *mockAnswerRepo) LoadAll(attemptID uint) ([]model.AnswerRecord, error) {
	if m.LoadFn != nil {
		return m.LoadFn(attemptID)
	}
	return nil, nil
}

func (m *mockAnswerRepo) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.upserts)
}

func (m *mockAnswerRepo) lastUpsert() model.AnswerRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts[len(m.upserts)-1]
}

func testAutosaveOptions() AutosaveOptions {
	return AutosaveOptions{
		Debounce: 20 * time.Millisecond,
		Interval: time.Hour, // keep the periodic flush out of debounce tests
		Retries:  3,
		Backoff:  time.Millisecond,
	}
}

func TestAutosaveScheduler_DebounceCoalescesBurst(t *testing.T) {
	repo := &mockAnswerRepo{}
	s := NewAutosaveScheduler(1, repo, testAutosaveOptions(), nil)
	defer s.Stop()

	// A burst of edits to the same question within the quiet period.
	s.Enqueue(7, model.OptionIDList{1})
	s.Enqueue(7, model.OptionIDList{2})
	s.Enqueue(7, model.OptionIDList{3})

	require.Eventually(t, func() bool {
		return repo.upsertCount() == 1
	}, time.Second, 5*time.Millisecond, "burst should collapse into one upsert")

	last := repo.lastUpsert()
	assert.Equal(t, uint(1), last.AttemptID)
	assert.Equal(t, uint(7), last.QuestionID)
	assert.Equal(t, model.OptionIDList{3}, last.SelectedOptionIDs, "latest edit wins")
}

func TestAutosaveScheduler_FlushWritesEachPendingQuestionOnce(t *testing.T) {
	repo := &mockAnswerRepo{}
	s := NewAutosaveScheduler(1, repo, testAutosaveOptions(), nil)
	defer s.Stop()

	s.Enqueue(1, model.OptionIDList{10})
	s.Enqueue(2, model.OptionIDList{20, 21})

	require.NoError(t, s.Flush())
	assert.Equal(t, 2, repo.upsertCount())

	// Nothing left pending.
	require.NoError(t, s.Flush())
	assert.Equal(t, 2, repo.upsertCount())
}

func TestAutosaveScheduler_TransientFailureRequeues(t *testing.T) {
	calls := 0
	repo := &mockAnswerRepo{}
	repo.UpsertFn = func(*model.AnswerRecord) error {
		calls++
		if calls <= 3 {
			return repository.Transient(errors.New("connection refused"))
		}
		return nil
	}
	opts := testAutosaveOptions()
	s := NewAutosaveScheduler(1, repo, opts, nil)
	defer s.Stop()

	s.Enqueue(5, model.OptionIDList{1})

	// First flush exhausts its retries and reports the failure.
	err := s.Flush()
	require.Error(t, err)
	assert.True(t, repository.IsTransient(err))

	// The selection was requeued, so the next flush lands it.
	require.NoError(t, s.Flush())
	assert.Equal(t, model.OptionIDList{1}, repo.lastUpsert().SelectedOptionIDs)
}

func TestAutosaveScheduler_NewerEditWinsOverRequeuedFailure(t *testing.T) {
	repo := &mockAnswerRepo{}
	fail := true
	repo.UpsertFn = func(*model.AnswerRecord) error {
		if fail {
			return repository.Transient(errors.New("timeout"))
		}
		return nil
	}
	s := NewAutosaveScheduler(1, repo, testAutosaveOptions(), nil)
	defer s.Stop()

	s.Enqueue(5, model.OptionIDList{1})
	require.Error(t, s.Flush())

	// A newer edit arrives before the retry; the stale value must not resurface.
	s.Enqueue(5, model.OptionIDList{2})
	fail = false
	require.NoError(t, s.Flush())
	assert.Equal(t, model.OptionIDList{2}, repo.lastUpsert().SelectedOptionIDs)
}

func TestAutosaveScheduler_PermanentFailureStopsScheduler(t *testing.T) {
	repo := &mockAnswerRepo{}
	repo.UpsertFn = func(*model.AnswerRecord) error {
		return repository.ErrValidation
	}
	var reported error
	s := NewAutosaveScheduler(1, repo, testAutosaveOptions(), func(err error) {
		reported = err
	})

	s.Enqueue(5, model.OptionIDList{1})
	require.Error(t, s.Flush())
	require.ErrorIs(t, reported, repository.ErrValidation)

	// Stopped for good: further enqueues are ignored.
	before := repo.upsertCount()
	s.Enqueue(6, model.OptionIDList{2})
	require.NoError(t, s.Flush())
	assert.Equal(t, before, repo.upsertCount())
}

func TestAutosaveScheduler_StopAndDrain(t *testing.T) {
	repo := &mockAnswerRepo{}
	opts := testAutosaveOptions()
	opts.Debounce = time.Hour // never fires on its own
	s := NewAutosaveScheduler(1, repo, opts, nil)

	s.Enqueue(1, model.OptionIDList{10})
	s.Enqueue(2, model.OptionIDList{20})

	drained := s.StopAndDrain()
	assert.Len(t, drained, 2)
	assert.Equal(t, model.OptionIDList{10}, drained[1])
	assert.Equal(t, model.OptionIDList{20}, drained[2])

	// After drain nothing is scheduled or written anymore.
	s.Enqueue(3, model.OptionIDList{30})
	require.NoError(t, s.Flush())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, repo.upsertCount())

	// Idempotent teardown.
	s.Stop()
	assert.Empty(t, s.StopAndDrain())
}
