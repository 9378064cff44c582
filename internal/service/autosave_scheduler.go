package service

import (
	"sync"
	"time"

	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/rs/zerolog/log"
)

// AutosaveOptions are the scheduler's timing knobs, injected from config.
type AutosaveOptions struct {
	Debounce time.Duration // quiet period after the last edit before a write
	Interval time.Duration // periodic forced flush of anything still pending
	Retries  int           // upsert attempts per question before giving up
	Backoff  time.Duration // base delay between retries, grows linearly
}

// AutosaveScheduler coalesces answer edits for one attempt into durable
// writes: a burst of edits produces at most one upsert per question per
// debounce window, and a periodic flush covers anything the debounce missed.
// After StopAndDrain no further writes are scheduled or performed, which is
// what keeps autosave from racing finalization.
type AutosaveScheduler struct {
	attemptID   uint
	answers     repository.AnswerRepository
	opts        AutosaveOptions
	onPermanent func(error) // invoked once when the store rejects writes for good

	mu       sync.Mutex
	pending  map[uint]model.OptionIDList
	debounce *time.Timer
	ticker   *time.Ticker
	done     chan struct{}
	stopped  bool
}

func NewAutosaveScheduler(attemptID uint, answers repository.AnswerRepository, opts AutosaveOptions, onPermanent func(error)) *AutosaveScheduler {
	s := &AutosaveScheduler{
		attemptID:   attemptID,
		answers:     answers,
		opts:        opts,
		onPermanent: onPermanent,
		pending:     map[uint]model.OptionIDList{},
		ticker:      time.NewTicker(opts.Interval),
		done:        make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AutosaveScheduler) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			if err := s.Flush(); err != nil {
				log.Warn().Err(err).Uint("attemptID", s.attemptID).Msg("Autosave periodic flush failed, answers remain pending")
			}
		}
	}
}

// Enqueue records a changed selection and re-arms the debounce timer. A newer
// edit to the same question supersedes the pending one; that is the only
// cancellation the engine needs.
func (s *AutosaveScheduler) Enqueue(questionID uint, selected model.OptionIDList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pending[questionID] = selected
	if s.debounce == nil {
		s.debounce = time.AfterFunc(s.opts.Debounce, func() {
			if err := s.Flush(); err != nil {
				log.Warn().Err(err).Uint("attemptID", s.attemptID).Msg("Autosave debounce flush failed, answers remain pending")
			}
		})
		return
	}
	s.debounce.Reset(s.opts.Debounce)
}

// Flush writes all pending selections. Questions whose upsert keeps failing
// transiently are re-queued (unless a newer edit arrived meanwhile) and
// retried by the next flush; a permanent rejection stops the scheduler and
// reports through onPermanent.
func (s *AutosaveScheduler) Flush() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	batch := s.pending
	s.pending = map[uint]model.OptionIDList{}
	s.mu.Unlock()

	var firstErr error
	for questionID, selected := range batch {
		err := s.upsertWithRetry(questionID, selected)
		if err == nil {
			continue
		}
		if !repository.IsTransient(err) {
			s.Stop()
			if s.onPermanent != nil {
				s.onPermanent(err)
			}
			return err
		}
		if firstErr == nil {
			firstErr = err
		}
		s.requeue(questionID, selected)
	}
	return firstErr
}

func (s *AutosaveScheduler) requeue(questionID uint, selected model.OptionIDList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	// A newer edit wins over the failed one.
	if _, exists := s.pending[questionID]; !exists {
		s.pending[questionID] = selected
	}
}

func (s *AutosaveScheduler) upsertWithRetry(questionID uint, selected model.OptionIDList) error {
	var err error
	for attempt := 0; attempt < s.opts.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(s.opts.Backoff * time.Duration(attempt))
		}
		err = s.answers.Upsert(&model.AnswerRecord{
			AttemptID:         s.attemptID,
			QuestionID:        questionID,
			SelectedOptionIDs: selected,
		})
		if err == nil || !repository.IsTransient(err) {
			return err
		}
	}
	return err
}

// Stop tears down the timers. Safe to call more than once and from onPermanent
// paths; pending selections are kept for a later StopAndDrain.
func (s *AutosaveScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *AutosaveScheduler) stopLocked() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.ticker.Stop()
	if s.debounce != nil {
		s.debounce.Stop()
	}
	close(s.done)
}

// StopAndDrain stops the scheduler and hands back whatever never made it to
// the store, for the caller's final flush before finalization.
func (s *AutosaveScheduler) StopAndDrain() map[uint]model.OptionIDList {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	drained := s.pending
	s.pending = map[uint]model.OptionIDList{}
	return drained
}
