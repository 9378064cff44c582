package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rahmounirabii/bda-portal-sub005/config"
	"github.com/rahmounirabii/bda-portal-sub005/internal/dto"
	"github.com/rahmounirabii/bda-portal-sub005/internal/mirror"
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/rs/zerolog/log"
)

// AttemptService is the attempt state machine: it owns the transitions
// in_progress -> finalizing -> completed, enforces at-most-one submission per
// attempt, and triggers certification issuance on a passing completion.
// Eligibility (voucher/booking validity) is confirmed by an external
// collaborator before Start is called; it is not re-verified here.
type AttemptService interface {
	Start(assessmentID, userID uint) (*dto.AttemptStateDTO, error)
	RecordAnswer(attemptID, questionID uint, selected []uint) error
	RequestSubmit(attemptID uint, reason string) (*dto.AttemptResultDTO, error)
	GetAttempt(attemptID uint) (*dto.AttemptResultDTO, error)
	ListUserAttempts(assessmentID, userID uint) ([]dto.AttemptSummaryDTO, error)
	Clock(attemptID uint) (*dto.AttemptClockDTO, error)
	Shutdown()
}

// attemptRuntime is the live, per-attempt state held while an attempt is in
// progress: the immutable definition (loaded once, never re-fetched
// mid-attempt), the current in-memory selections, and the autosave scheduler.
type attemptRuntime struct {
	mu          sync.Mutex
	attempt     *model.AssessmentAttempt
	assessment  *model.Assessment
	selections  map[uint]model.OptionIDList
	scheduler   *AutosaveScheduler
	expiryFired atomic.Bool
}

type attemptService struct {
	assessments repository.AssessmentRepository
	attempts    repository.AttemptRepository
	answers     repository.AnswerRepository
	scoring     ScoringService
	certs       CertificateService
	mirror      mirror.Store
	engine      config.Engine

	mu       sync.Mutex
	runtimes map[uint]*attemptRuntime
}

func NewAttemptService(
	assessments repository.AssessmentRepository,
	attempts repository.AttemptRepository,
	answers repository.AnswerRepository,
	scoring ScoringService,
	certs CertificateService,
	mirrorStore mirror.Store,
	cfg *config.Config,
) AttemptService {
	return &attemptService{
		assessments: assessments,
		attempts:    attempts,
		answers:     answers,
		scoring:     scoring,
		certs:       certs,
		mirror:      mirrorStore,
		engine:      cfg.Engine,
		runtimes:    map[uint]*attemptRuntime{},
	}
}

func (s *attemptService) autosaveOptions() AutosaveOptions {
	return AutosaveOptions{
		Debounce: s.engine.AutosaveDebounce,
		Interval: s.engine.AutosaveInterval,
		Retries:  s.engine.AutosaveRetries,
		Backoff:  s.engine.AutosaveBackoff,
	}
}

// Start creates a new attempt, or resumes the user's open attempt on the same
// assessment. StartedAt is server-assigned so a client clock cannot stretch
// the window. On resume, previously saved answers are reconstructed from the
// durable store, falling back to the local mirror when the durable read is
// unavailable.
func (s *attemptService) Start(assessmentID, userID uint) (*dto.AttemptStateDTO, error) {
	assessment, err := s.assessments.FindByIDWithQuestions(assessmentID)
	if err != nil {
		log.Error().Err(err).Uint("assessmentID", assessmentID).Msg("Start: assessment not found")
		return nil, err
	}
	if len(assessment.Questions) == 0 {
		return nil, fmt.Errorf("%w: assessment %d has no questions", repository.ErrValidation, assessmentID)
	}

	resumed := false
	open, err := s.attempts.FindOpenByUserAndAssessment(userID, assessmentID)
	switch {
	case err == nil:
		if Expired(time.Now().UTC(), open.StartedAt, assessment.DurationMinutes) {
			// The previous window closed while nobody was looking; converge it
			// through the normal expiry path, then start fresh.
			if _, subErr := s.RequestSubmit(open.ID, model.CompletionReasonExpiry); subErr != nil {
				log.Warn().Err(subErr).Uint("attemptID", open.ID).Msg("Start: failed to expire stale open attempt")
			}
			open = nil
		} else {
			resumed = true
		}
	case errors.Is(err, repository.ErrNotFound):
		open = nil
	default:
		return nil, err
	}

	if open == nil {
		open = &model.AssessmentAttempt{
			AssessmentID: assessmentID,
			UserID:       userID,
			StartedAt:    time.Now().UTC(),
			Status:       model.AttemptStatusInProgress,
		}
		if err := s.attempts.Create(open); err != nil {
			return nil, fmt.Errorf("failed to create attempt: %w", err)
		}
		log.Info().Uint("attemptID", open.ID).Uint("assessmentID", assessmentID).Uint("userID", userID).Msg("Attempt started")
	}

	rt, err := s.buildRuntime(open, assessment)
	if err != nil {
		return nil, err
	}

	state := &dto.AttemptStateDTO{
		ID:               open.ID,
		AssessmentID:     assessmentID,
		UserID:           userID,
		Status:           open.Status,
		StartedAt:        open.StartedAt,
		RemainingSeconds: RemainingSeconds(time.Now().UTC(), open.StartedAt, assessment.DurationMinutes),
		Resumed:          resumed,
		Selections:       selectionsDTO(rt.selections),
	}
	return state, nil
}

// buildRuntime loads saved answers and registers the live state for an
// in-progress attempt. Durable records take precedence; the mirror snapshot
// fills in only when the durable read failed or is missing a question.
func (s *attemptService) buildRuntime(attempt *model.AssessmentAttempt, assessment *model.Assessment) (*attemptRuntime, error) {
	s.mu.Lock()
	if existing, ok := s.runtimes[attempt.ID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.mu.Unlock()

	selections := map[uint]model.OptionIDList{}

	mirrorCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	snap, mirrorErr := s.mirror.Load(mirrorCtx, attempt.ID)
	cancel()
	if mirrorErr != nil {
		log.Warn().Err(mirrorErr).Uint("attemptID", attempt.ID).Msg("Mirror read failed on resume")
	}
	if snap != nil {
		for questionID, sel := range snap.Selections {
			selections[questionID] = sel
		}
	}

	records, err := s.answers.LoadAll(attempt.ID)
	if err != nil {
		if snap == nil {
			return nil, fmt.Errorf("failed to load saved answers: %w", repository.Transient(err))
		}
		log.Warn().Err(err).Uint("attemptID", attempt.ID).Msg("Durable answer read unavailable, resuming from mirror snapshot")
	} else {
		for _, rec := range records {
			selections[rec.QuestionID] = rec.SelectedOptionIDs
		}
	}

	rt := &attemptRuntime{
		attempt:    attempt,
		assessment: assessment,
		selections: selections,
	}
	rt.scheduler = NewAutosaveScheduler(attempt.ID, s.answers, s.autosaveOptions(), func(permErr error) {
		log.Warn().Err(permErr).Uint("attemptID", attempt.ID).Msg("Autosave stopped by permanent store error")
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.runtimes[attempt.ID]; ok {
		rt.scheduler.Stop()
		return existing, nil
	}
	s.runtimes[attempt.ID] = rt
	return rt, nil
}

// runtimeFor returns the live state for an in-progress attempt, rebuilding it
// after a process restart. Completed attempts yield ErrAttemptCompleted.
func (s *attemptService) runtimeFor(attemptID uint) (*attemptRuntime, error) {
	s.mu.Lock()
	rt, ok := s.runtimes[attemptID]
	s.mu.Unlock()
	if ok {
		return rt, nil
	}

	attempt, err := s.attempts.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed() {
		return nil, fmt.Errorf("%w: attempt %d", repository.ErrAttemptCompleted, attemptID)
	}
	assessment, err := s.assessments.FindByIDWithQuestions(attempt.AssessmentID)
	if err != nil {
		return nil, err
	}
	return s.buildRuntime(attempt, assessment)
}

func (s *attemptService) dropRuntime(attemptID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.runtimes, attemptID)
}

// RecordAnswer updates the in-memory selection, mirrors it synchronously, and
// queues the durable write. Allowed only while the attempt is in progress;
// selections referencing options outside the question are rejected with no
// state mutation.
func (s *attemptService) RecordAnswer(attemptID, questionID uint, selected []uint) error {
	rt, err := s.runtimeFor(attemptID)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.attempt.Completed() {
		return fmt.Errorf("%w: attempt %d", repository.ErrAttemptCompleted, attemptID)
	}
	now := time.Now().UTC()
	if Expired(now, rt.attempt.StartedAt, rt.assessment.DurationMinutes) {
		s.fireExpiry(rt, attemptID)
		return fmt.Errorf("%w: attempt %d time expired", repository.ErrAttemptCompleted, attemptID)
	}

	question := rt.assessment.QuestionByID(questionID)
	if question == nil {
		return fmt.Errorf("%w: question %d does not belong to assessment %d", repository.ErrValidation, questionID, rt.assessment.ID)
	}
	for _, optionID := range selected {
		if !question.HasOption(optionID) {
			return fmt.Errorf("%w: option %d does not belong to question %d", repository.ErrValidation, optionID, questionID)
		}
	}

	rt.selections[questionID] = selected

	// Mirror first, synchronously: if nothing else survives, this does.
	mirrorCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if mErr := s.mirror.Save(mirrorCtx, s.snapshotLocked(rt)); mErr != nil {
		log.Warn().Err(mErr).Uint("attemptID", attemptID).Msg("Mirror write failed")
	}

	rt.scheduler.Enqueue(questionID, selected)
	return nil
}

func (s *attemptService) snapshotLocked(rt *attemptRuntime) *mirror.Snapshot {
	snap := &mirror.Snapshot{
		AttemptID:  rt.attempt.ID,
		SavedAt:    time.Now().UTC(),
		Selections: make(map[uint][]uint, len(rt.selections)),
	}
	for questionID, sel := range rt.selections {
		snap.Selections[questionID] = append([]uint(nil), sel...)
	}
	return snap
}

// fireExpiry triggers the expiry submission exactly once per runtime; repeated
// zero readings from the clock are absorbed here.
func (s *attemptService) fireExpiry(rt *attemptRuntime, attemptID uint) {
	if !rt.expiryFired.CompareAndSwap(false, true) {
		return
	}
	go func() {
		if _, err := s.RequestSubmit(attemptID, model.CompletionReasonExpiry); err != nil && !errors.Is(err, repository.ErrAttemptCompleted) {
			log.Error().Err(err).Uint("attemptID", attemptID).Msg("Expiry submission failed")
		}
	}()
}

// RequestSubmit finalizes the attempt: final flush of pending answers, one
// scoring pass, atomic persistence of summary and per-question correctness,
// mirror clear, and conditional certification issuance. Near-simultaneous
// manual and expiry submissions are resolved by the repository's
// compare-and-set guard: exactly one caller wins; the loser observes the
// completed attempt and returns its result without rescoring or reissuing.
func (s *attemptService) RequestSubmit(attemptID uint, reason string) (*dto.AttemptResultDTO, error) {
	if reason != model.CompletionReasonManual && reason != model.CompletionReasonExpiry {
		return nil, fmt.Errorf("%w: unknown submit reason %q", repository.ErrValidation, reason)
	}

	rt, err := s.runtimeFor(attemptID)
	if errors.Is(err, repository.ErrAttemptCompleted) {
		// Already finalized: idempotent short-circuit.
		return s.GetAttempt(attemptID)
	}
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.attempt.Completed() {
		return s.GetAttempt(attemptID)
	}

	// Final flush. Manual submissions must not complete with partial data: a
	// failed flush surfaces a retryable error and the attempt stays open. An
	// expiry submission proceeds from whatever is durable; auto-submit must
	// not hang on an unreachable store.
	pending := rt.scheduler.StopAndDrain()
	selections := rt.selections
	if flushErr := s.flushPending(attemptID, pending); flushErr != nil {
		if reason == model.CompletionReasonManual {
			s.rearmScheduler(rt, attemptID, pending)
			return nil, fmt.Errorf("could not submit attempt %d, please retry: %w", attemptID, repository.Transient(flushErr))
		}
		log.Warn().Err(flushErr).Uint("attemptID", attemptID).Msg("Expiry flush failed, scoring durable answers only")
		records, loadErr := s.answers.LoadAll(attemptID)
		if loadErr != nil {
			s.rearmScheduler(rt, attemptID, pending)
			return nil, fmt.Errorf("expiry finalization unavailable for attempt %d: %w", attemptID, repository.Transient(loadErr))
		}
		selections = map[uint]model.OptionIDList{}
		for _, rec := range records {
			selections[rec.QuestionID] = rec.SelectedOptionIDs
		}
	}

	result := s.scoring.Score(rt.assessment, selections)

	perQuestion := make([]repository.ScoredAnswer, 0, len(result.PerQuestion))
	for _, qs := range result.PerQuestion {
		if _, answered := selections[qs.QuestionID]; !answered {
			// No record to mark; an unanswered question still counts as wrong
			// in the summary.
			continue
		}
		perQuestion = append(perQuestion, repository.ScoredAnswer{
			QuestionID:   qs.QuestionID,
			IsCorrect:    qs.IsCorrect,
			PointsEarned: qs.PointsEarned,
		})
	}

	completedAt := time.Now().UTC()
	won, err := s.attempts.Finalize(repository.FinalizeInput{
		AttemptID:      attemptID,
		CompletedAt:    completedAt,
		Reason:         reason,
		Score:          result.ScorePercentage,
		Passed:         result.Passed,
		PointsEarned:   result.PointsEarned,
		PointsPossible: result.PointsPossible,
		PerQuestion:    perQuestion,
	})
	if err != nil {
		if reason == model.CompletionReasonManual {
			s.rearmScheduler(rt, attemptID, nil)
			return nil, fmt.Errorf("could not submit attempt %d, please retry: %w", attemptID, repository.Transient(err))
		}
		return nil, repository.Transient(err)
	}

	if !won {
		// Concurrent submission got there first; treat as completed, do not
		// rescore or reissue.
		log.Info().Uint("attemptID", attemptID).Str("reason", reason).Msg("Submission lost finalization race, attempt already completed")
		rt.attempt.CompletedAt = &completedAt
		s.dropRuntime(attemptID)
		return s.GetAttempt(attemptID)
	}

	rt.attempt.CompletedAt = &completedAt
	rt.attempt.CompletionReason = &reason
	rt.attempt.Status = model.AttemptStatusCompleted
	rt.attempt.Score = &result.ScorePercentage
	rt.attempt.Passed = &result.Passed
	rt.attempt.PointsEarned = &result.PointsEarned
	rt.attempt.PointsPossible = &result.PointsPossible

	// Exactly one clear, right after finalization succeeded.
	mirrorCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if mErr := s.mirror.Clear(mirrorCtx, attemptID); mErr != nil {
		log.Warn().Err(mErr).Uint("attemptID", attemptID).Msg("Mirror clear failed")
	}
	cancel()
	s.dropRuntime(attemptID)

	log.Info().Uint("attemptID", attemptID).Str("reason", reason).Int("score", result.ScorePercentage).Bool("passed", result.Passed).Msg("Attempt completed")

	resultDTO := s.resultFromRuntime(rt, selections, result)

	if result.Passed && s.engine.IssuanceEnabled {
		cert, alreadyIssued, issueErr := s.certs.IssueForAttempt(rt.attempt, rt.assessment)
		if issueErr != nil {
			// Reported, never fatal: the attempt stays completed and the user
			// still sees their score.
			log.Error().Err(issueErr).Uint("attemptID", attemptID).Msg("Certificate issuance failed")
			resultDTO.IssuanceError = issueErr.Error()
		} else {
			if alreadyIssued {
				log.Info().Uint("attemptID", attemptID).Msg("Certificate was already issued")
			}
			resultDTO.Certificate = certificateDTO(cert)
		}
	}

	return resultDTO, nil
}

func (s *attemptService) rearmScheduler(rt *attemptRuntime, attemptID uint, pending map[uint]model.OptionIDList) {
	rt.scheduler = NewAutosaveScheduler(attemptID, s.answers, s.autosaveOptions(), func(permErr error) {
		log.Warn().Err(permErr).Uint("attemptID", attemptID).Msg("Autosave stopped by permanent store error")
	})
	for questionID, sel := range pending {
		rt.scheduler.Enqueue(questionID, sel)
	}
}

func (s *attemptService) flushPending(attemptID uint, pending map[uint]model.OptionIDList) error {
	for questionID, selected := range pending {
		var err error
		for attempt := 0; attempt < s.engine.AutosaveRetries; attempt++ {
			if attempt > 0 {
				time.Sleep(s.engine.AutosaveBackoff * time.Duration(attempt))
			}
			err = s.answers.Upsert(&model.AnswerRecord{
				AttemptID:         attemptID,
				QuestionID:        questionID,
				SelectedOptionIDs: selected,
			})
			if err == nil || !repository.IsTransient(err) {
				break
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// GetAttempt returns the durable view of an attempt, including per-question
// results once finalized.
func (s *attemptService) GetAttempt(attemptID uint) (*dto.AttemptResultDTO, error) {
	attempt, err := s.attempts.FindByIDWithAnswers(attemptID)
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Msg("GetAttempt: not found")
		return nil, err
	}

	resp := &dto.AttemptResultDTO{}
	if err := copier.Copy(resp, attempt); err != nil {
		return nil, fmt.Errorf("error preparing attempt response: %w", err)
	}
	resp.AssessmentTitle = attempt.Assessment.Title
	if !attempt.Completed() {
		resp.RemainingSeconds = RemainingSeconds(time.Now().UTC(), attempt.StartedAt, attempt.Assessment.DurationMinutes)
	}

	resp.Answers = make([]dto.QuestionResultDTO, 0, len(attempt.Answers))
	for _, rec := range attempt.Answers {
		item := dto.QuestionResultDTO{
			QuestionID:        rec.QuestionID,
			SelectedOptionIDs: rec.SelectedOptionIDs,
			IsCorrect:         rec.IsCorrect,
			PointsEarned:      rec.PointsEarned,
		}
		if q := attempt.Assessment.QuestionByID(rec.QuestionID); q != nil {
			item.PointsPossible = q.Points
		}
		resp.Answers = append(resp.Answers, item)
	}

	if attempt.Completed() && attempt.Passed != nil && *attempt.Passed {
		if cert, certErr := s.certs.GetByAttempt(attemptID); certErr == nil {
			resp.Certificate = certificateDTO(cert)
		}
	}
	return resp, nil
}

func (s *attemptService) ListUserAttempts(assessmentID, userID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.attempts.FindAllByAssessmentAndUser(assessmentID, userID)
	if err != nil {
		log.Error().Err(err).Uint("assessmentID", assessmentID).Uint("userID", userID).Msg("ListUserAttempts: repository error")
		return nil, fmt.Errorf("error fetching attempts for assessment %d: %w", assessmentID, err)
	}

	dtos := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for i := range attempts {
		var summary dto.AttemptSummaryDTO
		if err := copier.Copy(&summary, &attempts[i]); err != nil {
			log.Error().Err(err).Uint("attemptID", attempts[i].ID).Msg("ListUserAttempts: error copying attempt to summary")
			continue
		}
		dtos = append(dtos, summary)
	}
	return dtos, nil
}

// Clock returns the current countdown reading, firing the one-shot expiry
// trigger when the window has closed.
func (s *attemptService) Clock(attemptID uint) (*dto.AttemptClockDTO, error) {
	s.mu.Lock()
	rt, live := s.runtimes[attemptID]
	s.mu.Unlock()

	if live {
		rt.mu.Lock()
		attempt := rt.attempt
		duration := rt.assessment.DurationMinutes
		completed := attempt.Completed()
		startedAt := attempt.StartedAt
		rt.mu.Unlock()

		if completed {
			return &dto.AttemptClockDTO{AttemptID: attemptID, Status: model.AttemptStatusCompleted}, nil
		}
		remaining := RemainingSeconds(time.Now().UTC(), startedAt, duration)
		if remaining == 0 {
			s.fireExpiry(rt, attemptID)
		}
		return &dto.AttemptClockDTO{AttemptID: attemptID, Status: model.AttemptStatusInProgress, RemainingSeconds: remaining}, nil
	}

	attempt, err := s.attempts.FindByIDWithAnswers(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Completed() {
		return &dto.AttemptClockDTO{AttemptID: attemptID, Status: model.AttemptStatusCompleted}, nil
	}
	remaining := RemainingSeconds(time.Now().UTC(), attempt.StartedAt, attempt.Assessment.DurationMinutes)
	return &dto.AttemptClockDTO{AttemptID: attemptID, Status: attempt.Status, RemainingSeconds: remaining}, nil
}

// Shutdown tears down every live scheduler; used on server stop so no timer
// fires against a disposed attempt.
func (s *attemptService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rt := range s.runtimes {
		rt.scheduler.Stop()
		delete(s.runtimes, id)
	}
}

func (s *attemptService) resultFromRuntime(rt *attemptRuntime, selections map[uint]model.OptionIDList, result ScoreResult) *dto.AttemptResultDTO {
	resp := &dto.AttemptResultDTO{
		ID:               rt.attempt.ID,
		AssessmentID:     rt.assessment.ID,
		AssessmentTitle:  rt.assessment.Title,
		UserID:           rt.attempt.UserID,
		Status:           rt.attempt.Status,
		StartedAt:        rt.attempt.StartedAt,
		CompletedAt:      rt.attempt.CompletedAt,
		CompletionReason: rt.attempt.CompletionReason,
		Score:            rt.attempt.Score,
		Passed:           rt.attempt.Passed,
		PointsEarned:     rt.attempt.PointsEarned,
		PointsPossible:   rt.attempt.PointsPossible,
	}
	for _, qs := range result.PerQuestion {
		sel, answered := selections[qs.QuestionID]
		if !answered {
			sel = model.OptionIDList{}
		}
		isCorrect := qs.IsCorrect
		earned := qs.PointsEarned
		resp.Answers = append(resp.Answers, dto.QuestionResultDTO{
			QuestionID:        qs.QuestionID,
			SelectedOptionIDs: sel,
			IsCorrect:         &isCorrect,
			PointsEarned:      &earned,
			PointsPossible:    qs.PointsPossible,
		})
	}
	return resp
}

func certificateDTO(cert *model.Certificate) *dto.CertificateDTO {
	if cert == nil {
		return nil
	}
	return &dto.CertificateDTO{
		SerialNumber:      cert.SerialNumber,
		CertificationType: cert.CertificationType,
		Score:             cert.Score,
		IssuedAt:          cert.IssuedAt,
	}
}

func selectionsDTO(selections map[uint]model.OptionIDList) []dto.AnswerSelectionDTO {
	out := make([]dto.AnswerSelectionDTO, 0, len(selections))
	for questionID, sel := range selections {
		out = append(out, dto.AnswerSelectionDTO{QuestionID: questionID, SelectedOptionIDs: sel})
	}
	return out
}
