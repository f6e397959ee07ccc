package student

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ptdat2/examcore/internal/controller"
	"github.com/ptdat2/examcore/internal/dto"
	"github.com/ptdat2/examcore/internal/service"
	"github.com/rs/zerolog/log"
)

type StudentExamController struct {
	attemptService    service.AttemptService
	submissionService service.SubmissionService
}

func NewStudentExamController(attemptService service.AttemptService, submissionService service.SubmissionService) *StudentExamController {
	return &StudentExamController{
		attemptService:    attemptService,
		submissionService: submissionService,
	}
}

// ListExams godoc
// @Summary (Student) List exams visible to students
// @Description Lists approved exams with their time-derived effective status.
// @Tags Student - Exams & Attempts
// @Produce json
// @Success 200 {array} dto.ExamSummaryDTO
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /exams [get]
func (c *StudentExamController) ListExams(ctx *gin.Context) {
	exams, err := c.attemptService.ListExams(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Student ListExams: service error")
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// StartAttempt godoc
// @Summary (Student) Start or resume an attempt
// @Description Creates a new attempt against an ACTIVE exam, or resumes the student's IN_PROGRESS one. Questions are returned without answer keys, shuffled per attempt when the exam requires it.
// @Tags Student - Exams & Attempts
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param X-User-ID header int true "Student user ID"
// @Success 200 {object} dto.StartAttemptResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid exam ID or missing actor"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Failure 409 {object} dto.ErrorResponse "Exam not active or attempts exhausted"
// @Router /exams/{exam_id}/start [post]
func (c *StudentExamController) StartAttempt(ctx *gin.Context) {
	studentID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		controller.BadRequest(ctx, "invalid exam ID")
		return
	}

	resp, err := c.attemptService.StartOrResumeAttempt(studentID, examID, time.Now())
	if err != nil {
		log.Warn().Err(err).Uint("examID", examID).Uint("studentID", studentID).Msg("StartAttempt: service error")
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// SaveAnswer godoc
// @Summary (Student) Save one answer
// @Description Upserts the response for a single question of an IN_PROGRESS attempt. Called by the client's autosave debounce and by explicit saves; duplicate calls overwrite, never duplicate.
// @Tags Student - Exams & Attempts
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param X-User-ID header int true "Student user ID"
// @Param answer body dto.SaveAnswerDTO true "Answer payload"
// @Success 200 {object} dto.SaveAnswerResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid payload"
// @Failure 409 {object} dto.ErrorResponse "Attempt not active"
// @Router /exams/{exam_id}/answer [post]
func (c *StudentExamController) SaveAnswer(ctx *gin.Context) {
	studentID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}

	var req dto.SaveAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(ctx, "invalid request body", err.Error())
		return
	}

	if err := c.attemptService.SaveAnswer(studentID, req, time.Now()); err != nil {
		log.Warn().Err(err).Uint("attemptID", req.AttemptID).Uint("questionID", req.QuestionID).Msg("SaveAnswer: rejected")
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SaveAnswerResponseDTO{Saved: true})
}

// SubmitAttempt godoc
// @Summary (Student) Submit an attempt
// @Description Finalizes the attempt and scores objective questions. A submit at or past the deadline is recorded as EXPIRED. Score fields appear only when the exam shows results immediately.
// @Tags Student - Exams & Attempts
// @Accept json
// @Produce json
// @Param exam_id path int true "Exam ID"
// @Param X-User-ID header int true "Student user ID"
// @Param submission body dto.SubmitAttemptDTO true "Submission payload"
// @Success 200 {object} dto.SubmitResultDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid payload"
// @Failure 409 {object} dto.ErrorResponse "Already submitted"
// @Router /exams/{exam_id}/submit [post]
func (c *StudentExamController) SubmitAttempt(ctx *gin.Context) {
	studentID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}

	var req dto.SubmitAttemptDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(ctx, "invalid request body", err.Error())
		return
	}

	result, err := c.submissionService.SubmitAttempt(studentID, req, time.Now())
	if err != nil {
		log.Warn().Err(err).Uint("attemptID", req.AttemptID).Msg("SubmitAttempt: service error")
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// GetAttemptDetail godoc
// @Summary (Student) Get one of my attempts
// @Description Returns the attempt with its answers. Score fields are withheld while the attempt is in progress or the exam defers results.
// @Tags Student - Exams & Attempts
// @Produce json
// @Param attempt_id path int true "Attempt ID"
// @Param X-User-ID header int true "Student user ID"
// @Success 200 {object} dto.AttemptDetailDTO
// @Failure 403 {object} dto.ErrorResponse "Not the attempt owner"
// @Failure 404 {object} dto.ErrorResponse "Attempt not found"
// @Router /my-attempts/{attempt_id} [get]
func (c *StudentExamController) GetAttemptDetail(ctx *gin.Context) {
	studentID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		controller.BadRequest(ctx, "invalid attempt ID")
		return
	}

	detail, err := c.attemptService.GetAttemptDetail(studentID, attemptID, time.Now())
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, detail)
}
