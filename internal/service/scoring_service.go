package service

import (
	"math"

	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
)

// QuestionScore is one question's verdict within a scoring pass.
type QuestionScore struct {
	QuestionID     uint
	IsCorrect      bool
	PointsEarned   float64
	PointsPossible float64
}

// ScoreResult is the full outcome of scoring one attempt.
type ScoreResult struct {
	PerQuestion     []QuestionScore
	PointsEarned    float64
	PointsPossible  float64
	ScorePercentage int
	Passed          bool
}

// ScoringService evaluates submitted selections against an assessment's
// answer keys. Pure and deterministic: no clock, no storage, no side effects.
// Persisting the output is the caller's job.
type ScoringService interface {
	Score(assessment *model.Assessment, selections map[uint]model.OptionIDList) ScoreResult
}

type scoringService struct{}

func NewScoringService() ScoringService {
	return &scoringService{}
}

func (s *scoringService) Score(assessment *model.Assessment, selections map[uint]model.OptionIDList) ScoreResult {
	result := ScoreResult{
		PerQuestion: make([]QuestionScore, 0, len(assessment.Questions)),
	}

	for i := range assessment.Questions {
		q := &assessment.Questions[i]
		selected := selections[q.ID]

		qs := QuestionScore{
			QuestionID:     q.ID,
			IsCorrect:      questionCorrect(q, selected),
			PointsPossible: q.Points,
		}
		if qs.IsCorrect {
			qs.PointsEarned = q.Points
		}

		result.PointsEarned += qs.PointsEarned
		// Points possible sums every question, answered or not.
		result.PointsPossible += q.Points
		result.PerQuestion = append(result.PerQuestion, qs)
	}

	if result.PointsPossible > 0 {
		result.ScorePercentage = int(math.Round(100 * result.PointsEarned / result.PointsPossible))
	}
	result.Passed = result.ScorePercentage >= assessment.PassingThreshold
	return result
}

// questionCorrect applies the per-type rules. An empty selection is always
// incorrect, never undetermined. Multi-choice demands exact set equality with
// the correct options; there is no partial credit.
func questionCorrect(q *model.Question, selected model.OptionIDList) bool {
	if len(selected) == 0 {
		return false
	}
	correct := model.OptionIDList(q.CorrectOptionIDs())

	switch q.Type {
	case model.QuestionTypeSingleChoice:
		return len(selected) == 1 && correct.Contains(selected[0])
	case model.QuestionTypeMultiChoice:
		return selected.EqualSet(correct)
	default:
		return false
	}
}
