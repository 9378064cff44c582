package service

import (
	"fmt"

	"github.com/jinzhu/copier"
	"github.com/rahmounirabii/bda-portal-sub005/config"
	"github.com/rahmounirabii/bda-portal-sub005/internal/dto"
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/rs/zerolog/log"
)

// AssessmentService covers the minimal authoring surface the engine needs:
// admins create complete definitions, users read them without answer keys.
type AssessmentService interface {
	CreateAssessment(req dto.AssessmentCreateDTO) (*dto.AssessmentAdminDTO, error)
	GetAssessmentAdmin(id uint) (*dto.AssessmentAdminDTO, error)
	GetAssessmentStudentView(id uint) (*dto.AssessmentUserDTO, error)
	ListAssessments() ([]dto.AssessmentSummaryDTO, error)
}

type assessmentService struct {
	assessments repository.AssessmentRepository
	defaultType string
}

func NewAssessmentService(assessments repository.AssessmentRepository, cfg *config.Config) AssessmentService {
	return &assessmentService{assessments: assessments, defaultType: cfg.Engine.CertificationType}
}

func (s *assessmentService) CreateAssessment(req dto.AssessmentCreateDTO) (*dto.AssessmentAdminDTO, error) {
	if err := validateAssessment(req); err != nil {
		return nil, err
	}

	certType := req.CertificationType
	if certType == "" {
		certType = s.defaultType
	}

	assessment := model.Assessment{
		Title:             req.Title,
		Description:       req.Description,
		CertificationType: certType,
		DurationMinutes:   req.DurationMinutes,
		PassingThreshold:  req.PassingThreshold,
	}
	for qi, q := range req.Questions {
		question := model.Question{
			Prompt:   q.Prompt,
			Type:     q.Type,
			Points:   q.Points,
			Position: positionOr(q.Position, qi+1),
		}
		for oi, o := range q.Options {
			question.Options = append(question.Options, model.QuestionOption{
				Label:     o.Label,
				IsCorrect: o.IsCorrect,
				Position:  positionOr(o.Position, oi+1),
			})
		}
		assessment.Questions = append(assessment.Questions, question)
	}

	if err := s.assessments.Create(&assessment); err != nil {
		log.Error().Err(err).Str("title", req.Title).Msg("CreateAssessment: failed to persist")
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}
	log.Info().Uint("assessmentID", assessment.ID).Int("questions", len(assessment.Questions)).Msg("Assessment created")

	return s.GetAssessmentAdmin(assessment.ID)
}

func validateAssessment(req dto.AssessmentCreateDTO) error {
	for i, q := range req.Questions {
		correct := 0
		for _, o := range q.Options {
			if o.IsCorrect {
				correct++
			}
		}
		switch q.Type {
		case model.QuestionTypeSingleChoice:
			if correct != 1 {
				return fmt.Errorf("%w: question %d is single_choice and must have exactly one correct option, has %d", repository.ErrValidation, i+1, correct)
			}
		case model.QuestionTypeMultiChoice:
			if correct == 0 {
				return fmt.Errorf("%w: question %d is multi_choice and must have at least one correct option", repository.ErrValidation, i+1)
			}
		default:
			return fmt.Errorf("%w: question %d has unknown type %q", repository.ErrValidation, i+1, q.Type)
		}
	}
	return nil
}

func positionOr(position, fallback int) int {
	if position > 0 {
		return position
	}
	return fallback
}

func (s *assessmentService) GetAssessmentAdmin(id uint) (*dto.AssessmentAdminDTO, error) {
	assessment, err := s.assessments.FindByIDWithQuestions(id)
	if err != nil {
		log.Warn().Err(err).Uint("assessmentID", id).Msg("GetAssessmentAdmin: not found")
		return nil, err
	}
	var resp dto.AssessmentAdminDTO
	if err := copier.Copy(&resp, assessment); err != nil {
		return nil, fmt.Errorf("error preparing assessment response: %w", err)
	}
	return &resp, nil
}

// GetAssessmentStudentView strips the correct flags so answer keys never reach
// a client mid-attempt.
func (s *assessmentService) GetAssessmentStudentView(id uint) (*dto.AssessmentUserDTO, error) {
	assessment, err := s.assessments.FindByIDWithQuestions(id)
	if err != nil {
		log.Warn().Err(err).Uint("assessmentID", id).Msg("GetAssessmentStudentView: not found")
		return nil, err
	}

	resp := &dto.AssessmentUserDTO{
		ID:               assessment.ID,
		Title:            assessment.Title,
		Description:      assessment.Description,
		DurationMinutes:  assessment.DurationMinutes,
		PassingThreshold: assessment.PassingThreshold,
	}
	for _, q := range assessment.Questions {
		question := dto.QuestionUserDTO{
			ID:       q.ID,
			Prompt:   q.Prompt,
			Type:     q.Type,
			Points:   q.Points,
			Position: q.Position,
		}
		for _, o := range q.Options {
			question.Options = append(question.Options, dto.OptionUserDTO{
				ID:       o.ID,
				Label:    o.Label,
				Position: o.Position,
			})
		}
		resp.Questions = append(resp.Questions, question)
	}
	return resp, nil
}

func (s *assessmentService) ListAssessments() ([]dto.AssessmentSummaryDTO, error) {
	withCount, err := s.assessments.FindAllWithQuestionCount()
	if err != nil {
		log.Error().Err(err).Msg("ListAssessments: repository error")
		return nil, fmt.Errorf("error fetching assessments: %w", err)
	}

	dtos := make([]dto.AssessmentSummaryDTO, 0, len(withCount))
	for _, item := range withCount {
		dtos = append(dtos, dto.AssessmentSummaryDTO{
			ID:               item.Assessment.ID,
			Title:            item.Assessment.Title,
			Description:      item.Assessment.Description,
			DurationMinutes:  item.Assessment.DurationMinutes,
			PassingThreshold: item.Assessment.PassingThreshold,
			QuestionCount:    item.QuestionCount,
			CreatedAt:        item.Assessment.CreatedAt,
		})
	}
	return dtos, nil
}
