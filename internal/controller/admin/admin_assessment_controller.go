package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rahmounirabii/bda-portal-sub005/internal/dto"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/rahmounirabii/bda-portal-sub005/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminAssessmentController struct {
	assessmentService service.AssessmentService
}

func NewAdminAssessmentController(assessmentService service.AssessmentService) *AdminAssessmentController {
	return &AdminAssessmentController{assessmentService: assessmentService}
}

// CreateAssessment godoc
// @Summary (Admin) Create a new assessment
// @Description Admin creates a complete assessment definition with questions, options, duration and passing threshold.
// @Tags Admin - Assessments
// @Accept json
// @Produce json
// @Param assessment_data body dto.AssessmentCreateDTO true "Assessment definition including all questions and options"
// @Success 201 {object} dto.AssessmentAdminDTO "Assessment created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid input data"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/assessments [post]
func (c *AdminAssessmentController) CreateAssessment(ctx *gin.Context) {
	var req dto.AssessmentCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("Admin CreateAssessment: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	resp, err := c.assessmentService.CreateAssessment(req)
	if err != nil {
		if errors.Is(err, repository.ErrValidation) {
			ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Failed to create assessment", Details: []string{err.Error()}})
			return
		}
		log.Error().Err(err).Msg("Admin CreateAssessment: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to create assessment", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetAssessment godoc
// @Summary (Admin) Get full assessment details
// @Description Full definition for one assessment, including answer keys. Admin/export use only.
// @Tags Admin - Assessments
// @Produce json
// @Param assessment_id path int true "Assessment ID"
// @Success 200 {object} dto.AssessmentAdminDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Assessment ID format"
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /admin/assessments/{assessment_id} [get]
func (c *AdminAssessmentController) GetAssessment(ctx *gin.Context) {
	assessmentID, err := strconv.ParseUint(ctx.Param("assessment_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid Assessment ID format"})
		return
	}

	resp, err := c.assessmentService.GetAssessmentAdmin(uint(assessmentID))
	if err != nil {
		log.Warn().Err(err).Uint64("assessmentID", assessmentID).Msg("Admin GetAssessment: not found or service error")
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
