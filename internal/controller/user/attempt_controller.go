package user

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rahmounirabii/bda-portal-sub005/internal/dto"
	"github.com/rahmounirabii/bda-portal-sub005/internal/model"
	"github.com/rahmounirabii/bda-portal-sub005/internal/repository"
	"github.com/rahmounirabii/bda-portal-sub005/internal/service"
	"github.com/rs/zerolog/log"
)

type AttemptController struct {
	assessmentService service.AssessmentService
	attemptService    service.AttemptService
	upgrader          websocket.Upgrader
}

func NewAttemptController(assessmentService service.AssessmentService, attemptService service.AttemptService) *AttemptController {
	return &AttemptController{
		assessmentService: assessmentService,
		attemptService:    attemptService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin policy is enforced by the gateway in front of this service.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func parseID(ctx *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid " + name + " format"})
		return 0, false
	}
	return uint(value), true
}

// errStatus maps the storage error taxonomy onto HTTP codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrAttemptCompleted):
		return http.StatusConflict
	case errors.Is(err, repository.ErrValidation):
		return http.StatusBadRequest
	case repository.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ListAssessments godoc
// @Summary (User) List available assessments
// @Tags User - Assessments & Attempts
// @Produce json
// @Success 200 {array} dto.AssessmentSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /assessments [get]
func (c *AttemptController) ListAssessments(ctx *gin.Context) {
	assessments, err := c.assessmentService.ListAssessments()
	if err != nil {
		log.Error().Err(err).Msg("User ListAssessments: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve assessments", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, assessments)
}

// GetAssessment godoc
// @Summary (User) Get assessment details
// @Description Student-safe view of one assessment: questions and options without correct flags.
// @Tags User - Assessments & Attempts
// @Produce json
// @Param assessment_id path int true "Assessment ID"
// @Success 200 {object} dto.AssessmentUserDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Assessment ID format"
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Router /assessments/{assessment_id} [get]
func (c *AttemptController) GetAssessment(ctx *gin.Context) {
	assessmentID, ok := parseID(ctx, "assessment_id")
	if !ok {
		return
	}
	resp, err := c.assessmentService.GetAssessmentStudentView(assessmentID)
	if err != nil {
		log.Warn().Err(err).Uint("assessmentID", assessmentID).Msg("User GetAssessment: not found or service error")
		ctx.JSON(errStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// StartAttempt godoc
// @Summary (User) Start or resume a timed attempt
// @Description Begins an attempt with a server-assigned start time, or resumes the user's open attempt with previously saved selections. Eligibility is checked upstream.
// @Tags User - Assessments & Attempts
// @Accept json
// @Produce json
// @Param assessment_id path int true "Assessment ID"
// @Param start_data body dto.StartAttemptDTO true "User starting the attempt"
// @Success 200 {object} dto.AttemptStateDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid input"
// @Failure 404 {object} dto.ErrorResponse "Assessment not found"
// @Failure 503 {object} dto.ErrorResponse "Saved answers temporarily unavailable"
// @Router /assessments/{assessment_id}/attempts [post]
func (c *AttemptController) StartAttempt(ctx *gin.Context) {
	assessmentID, ok := parseID(ctx, "assessment_id")
	if !ok {
		return
	}
	var req dto.StartAttemptDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("User StartAttempt: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	state, err := c.attemptService.Start(assessmentID, req.UserID)
	if err != nil {
		log.Error().Err(err).Uint("assessmentID", assessmentID).Uint("userID", req.UserID).Msg("User StartAttempt: service error")
		ctx.JSON(errStatus(err), dto.ErrorResponse{Message: "Failed to start attempt", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// RecordAnswer godoc
// @Summary (User) Save the current selection for one question
// @Description Fire-and-forget persistence: the selection is mirrored immediately and written durably by the autosave scheduler. An empty list clears the selection.
// @Tags User - Assessments & Attempts
// @Accept json
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param question_id path int true "Question ID"
// @Param answer_data body dto.RecordAnswerDTO true "Selected option ids"
// @Success 204 "Selection recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid input or option not in question"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 409 {object} dto.ErrorResponse "Attempt already completed"
// @Router /attempts/{attempt_id}/answers/{question_id} [put]
func (c *AttemptController) RecordAnswer(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "attempt_id")
	if !ok {
		return
	}
	questionID, ok := parseID(ctx, "question_id")
	if !ok {
		return
	}
	var req dto.RecordAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("User RecordAnswer: failed to bind JSON")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid request body", Details: []string{err.Error()}})
		return
	}

	if err := c.attemptService.RecordAnswer(attemptID, questionID, req.SelectedOptionIDs); err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Uint("questionID", questionID).Msg("User RecordAnswer: rejected")
		ctx.JSON(errStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SubmitAttempt godoc
// @Summary (User) Submit the attempt for scoring
// @Description Flushes pending answers, scores the attempt once and finalizes it. Safe against a concurrent expiry submission; a completed attempt returns its existing result.
// @Tags User - Assessments & Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Attempt ID format"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Failure 503 {object} dto.ErrorResponse "Could not persist answers, retry submission"
// @Router /attempts/{attempt_id}/submit [post]
func (c *AttemptController) SubmitAttempt(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "attempt_id")
	if !ok {
		return
	}

	result, err := c.attemptService.RequestSubmit(attemptID, model.CompletionReasonManual)
	if err != nil {
		log.Error().Err(err).Uint("attemptID", attemptID).Msg("User SubmitAttempt: service error")
		ctx.JSON(errStatus(err), dto.ErrorResponse{Message: "Failed to submit attempt", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetAttempt godoc
// @Summary (User) Get attempt state or result
// @Tags User - Assessments & Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Success 200 {object} dto.AttemptResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid Attempt ID format"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id} [get]
func (c *AttemptController) GetAttempt(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "attempt_id")
	if !ok {
		return
	}
	result, err := c.attemptService.GetAttempt(attemptID)
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Msg("User GetAttempt: not found or service error")
		ctx.JSON(errStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// ListMyAttempts godoc
// @Summary (User) List the user's attempts for an assessment
// @Tags User - Assessments & Attempts
// @Produce json
// @Param assessment_id path int true "Assessment ID"
// @Param user_id query int true "User ID (temporary, until auth middleware lands)"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid ID format"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /assessments/{assessment_id}/my-attempts [get]
func (c *AttemptController) ListMyAttempts(ctx *gin.Context) {
	assessmentID, ok := parseID(ctx, "assessment_id")
	if !ok {
		return
	}
	userID, err := strconv.ParseUint(ctx.Query("user_id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Invalid user_id query parameter"})
		return
	}

	attempts, err := c.attemptService.ListUserAttempts(assessmentID, uint(userID))
	if err != nil {
		log.Error().Err(err).Uint("assessmentID", assessmentID).Msg("User ListMyAttempts: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Message: "Failed to retrieve attempts", Details: []string{err.Error()}})
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// AttemptClock godoc
// @Summary (User) Stream the attempt countdown
// @Description Websocket stream of the remaining time, recomputed server-side every second. Closes once the attempt completes.
// @Tags User - Assessments & Attempts
// @Param attempt_id path int true "Attempt ID"
// @Success 101 "Switching protocols"
// @Failure 400 {object} dto.ErrorResponse "Invalid Attempt ID format"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /attempts/{attempt_id}/clock [get]
func (c *AttemptController) AttemptClock(ctx *gin.Context) {
	attemptID, ok := parseID(ctx, "attempt_id")
	if !ok {
		return
	}
	if _, err := c.attemptService.Clock(attemptID); err != nil {
		ctx.JSON(errStatus(err), dto.ErrorResponse{Message: err.Error()})
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", attemptID).Msg("AttemptClock: websocket upgrade failed")
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		tick, err := c.attemptService.Clock(attemptID)
		if err != nil {
			log.Warn().Err(err).Uint("attemptID", attemptID).Msg("AttemptClock: stopping stream")
			return
		}
		if err := conn.WriteJSON(tick); err != nil {
			return
		}
		if tick.Status == model.AttemptStatusCompleted {
			return
		}
		<-ticker.C
	}
}
