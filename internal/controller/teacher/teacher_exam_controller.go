package teacher

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ptdat2/examcore/internal/controller"
	"github.com/ptdat2/examcore/internal/dto"
	"github.com/ptdat2/examcore/internal/service"
	"github.com/rs/zerolog/log"
)

type TeacherExamController struct {
	examService    service.TeacherExamService
	attemptService service.AttemptService
	gradingService service.GradingService
}

func NewTeacherExamController(examService service.TeacherExamService, attemptService service.AttemptService, gradingService service.GradingService) *TeacherExamController {
	return &TeacherExamController{
		examService:    examService,
		attemptService: attemptService,
		gradingService: gradingService,
	}
}

// CreateExam godoc
// @Summary (Teacher) Create an exam draft
// @Description Creates a new exam owned by the calling teacher, optionally with its questions. The exam starts as DRAFT.
// @Tags Teacher - Exams
// @Accept json
// @Produce json
// @Param X-User-ID header int true "Teacher user ID"
// @Param exam body dto.ExamCreateDTO true "Exam definition"
// @Success 201 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Invalid definition"
// @Failure 403 {object} dto.ErrorResponse "Actor is not a teacher"
// @Router /teacher/exams [post]
func (c *TeacherExamController) CreateExam(ctx *gin.Context) {
	teacherID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}

	var req dto.ExamCreateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(ctx, "invalid request body", err.Error())
		return
	}

	resp, err := c.examService.CreateExam(teacherID, req)
	if err != nil {
		log.Warn().Err(err).Uint("teacherID", teacherID).Msg("CreateExam: service error")
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// UpdateExam godoc
// @Summary (Teacher) Update an exam
// @Description Updates a DRAFT or REJECTED exam. Any other state is an invalid transition.
// @Tags Teacher - Exams
// @Accept json
// @Produce json
// @Param X-User-ID header int true "Teacher user ID"
// @Param exam_id path int true "Exam ID"
// @Param exam body dto.ExamUpdateDTO true "Fields to change"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 409 {object} dto.ErrorResponse "Exam not editable in its current state"
// @Router /teacher/exams/{exam_id} [put]
func (c *TeacherExamController) UpdateExam(ctx *gin.Context) {
	teacherID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		controller.BadRequest(ctx, "invalid exam ID")
		return
	}

	var req dto.ExamUpdateDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(ctx, "invalid request body", err.Error())
		return
	}

	resp, err := c.examService.UpdateExam(teacherID, examID, req)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteExam godoc
// @Summary (Teacher) Delete an exam
// @Description Deletes a DRAFT or REJECTED exam that has no attempts.
// @Tags Teacher - Exams
// @Produce json
// @Param X-User-ID header int true "Teacher user ID"
// @Param exam_id path int true "Exam ID"
// @Success 204 "Deleted"
// @Failure 409 {object} dto.ErrorResponse "Exam not deletable"
// @Router /teacher/exams/{exam_id} [delete]
func (c *TeacherExamController) DeleteExam(ctx *gin.Context) {
	teacherID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		controller.BadRequest(ctx, "invalid exam ID")
		return
	}

	if err := c.examService.DeleteExam(teacherID, examID); err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// SubmitForApproval godoc
// @Summary (Teacher) Submit an exam for approval
// @Description Moves a DRAFT or REJECTED exam with at least one question to PENDING_APPROVAL.
// @Tags Teacher - Exams
// @Produce json
// @Param X-User-ID header int true "Teacher user ID"
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Definition incomplete"
// @Failure 409 {object} dto.ErrorResponse "Invalid transition"
// @Router /teacher/exams/{exam_id}/submit [post]
func (c *TeacherExamController) SubmitForApproval(ctx *gin.Context) {
	teacherID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		controller.BadRequest(ctx, "invalid exam ID")
		return
	}

	resp, err := c.examService.SubmitForApproval(teacherID, examID)
	if err != nil {
		log.Warn().Err(err).Uint("examID", examID).Msg("SubmitForApproval: service error")
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetOwnExams godoc
// @Summary (Teacher) List own exams
// @Tags Teacher - Exams
// @Produce json
// @Param X-User-ID header int true "Teacher user ID"
// @Success 200 {array} dto.ExamResponseDTO
// @Router /teacher/exams [get]
func (c *TeacherExamController) GetOwnExams(ctx *gin.Context) {
	teacherID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	exams, err := c.examService.GetOwnExams(teacherID, time.Now())
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, exams)
}

// GetExam godoc
// @Summary (Teacher) Get one owned exam
// @Description Returns the full definition including answer keys.
// @Tags Teacher - Exams
// @Produce json
// @Param X-User-ID header int true "Teacher user ID"
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Exam not found"
// @Router /teacher/exams/{exam_id} [get]
func (c *TeacherExamController) GetExam(ctx *gin.Context) {
	teacherID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		controller.BadRequest(ctx, "invalid exam ID")
		return
	}

	resp, err := c.examService.GetExam(teacherID, examID, time.Now())
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetExamAttempts godoc
// @Summary (Teacher) List attempts for an owned exam
// @Tags Teacher - Exams
// @Produce json
// @Param X-User-ID header int true "Teacher user ID"
// @Param exam_id path int true "Exam ID"
// @Success 200 {array} dto.AttemptSummaryDTO
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Router /teacher/exams/{exam_id}/attempts [get]
func (c *TeacherExamController) GetExamAttempts(ctx *gin.Context) {
	teacherID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		controller.BadRequest(ctx, "invalid exam ID")
		return
	}

	attempts, err := c.attemptService.GetAttemptsForExam(teacherID, examID)
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, attempts)
}

// GradeAnswer godoc
// @Summary (Teacher) Grade an essay-style answer
// @Description Assigns points and feedback to a manually graded answer on a finalized attempt, then recomputes the attempt totals.
// @Tags Teacher - Grading
// @Accept json
// @Produce json
// @Param X-User-ID header int true "Teacher user ID"
// @Param attempt_id path int true "Attempt ID"
// @Param question_id path int true "Question ID"
// @Param grade body dto.GradeAnswerDTO true "Points and feedback"
// @Success 200 {object} dto.AttemptSummaryDTO
// @Failure 400 {object} dto.ErrorResponse "Question is auto-scored"
// @Failure 409 {object} dto.ErrorResponse "Attempt still in progress"
// @Router /teacher/attempts/{attempt_id}/questions/{question_id}/grade [post]
func (c *TeacherExamController) GradeAnswer(ctx *gin.Context) {
	teacherID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	attemptID, ok := controller.ParseUintParam(ctx, "attempt_id")
	if !ok {
		controller.BadRequest(ctx, "invalid attempt ID")
		return
	}
	questionID, ok := controller.ParseUintParam(ctx, "question_id")
	if !ok {
		controller.BadRequest(ctx, "invalid question ID")
		return
	}

	var req dto.GradeAnswerDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(ctx, "invalid request body", err.Error())
		return
	}

	summary, err := c.gradingService.GradeAnswer(teacherID, attemptID, questionID, req, time.Now())
	if err != nil {
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, summary)
}
