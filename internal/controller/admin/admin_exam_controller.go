package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ptdat2/examcore/internal/controller"
	"github.com/ptdat2/examcore/internal/dto"
	"github.com/ptdat2/examcore/internal/service"
	"github.com/rs/zerolog/log"
)

type AdminExamController struct {
	adminExamService service.AdminExamService
}

func NewAdminExamController(adminExamService service.AdminExamService) *AdminExamController {
	return &AdminExamController{adminExamService: adminExamService}
}

// ApproveExam godoc
// @Summary (Admin) Approve a pending exam
// @Description Moves a PENDING_APPROVAL exam to APPROVED. The exam then becomes SCHEDULED/ACTIVE/COMPLETED purely by schedule.
// @Tags Admin - Exams
// @Produce json
// @Param X-User-ID header int true "Admin user ID"
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 403 {object} dto.ErrorResponse "Actor is not an admin"
// @Failure 409 {object} dto.ErrorResponse "Exam is not pending approval"
// @Router /admin/exams/{exam_id}/approve [post]
func (c *AdminExamController) ApproveExam(ctx *gin.Context) {
	adminID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		controller.BadRequest(ctx, "invalid exam ID")
		return
	}

	resp, err := c.adminExamService.Approve(adminID, examID)
	if err != nil {
		log.Warn().Err(err).Uint("examID", examID).Msg("ApproveExam: service error")
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// RejectExam godoc
// @Summary (Admin) Reject a pending exam
// @Description Moves a PENDING_APPROVAL exam to REJECTED with a required reason. The owning teacher may edit and re-submit.
// @Tags Admin - Exams
// @Accept json
// @Produce json
// @Param X-User-ID header int true "Admin user ID"
// @Param exam_id path int true "Exam ID"
// @Param rejection body dto.RejectExamDTO true "Rejection reason"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 400 {object} dto.ErrorResponse "Missing reason"
// @Failure 409 {object} dto.ErrorResponse "Exam is not pending approval"
// @Router /admin/exams/{exam_id}/reject [post]
func (c *AdminExamController) RejectExam(ctx *gin.Context) {
	adminID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		controller.BadRequest(ctx, "invalid exam ID")
		return
	}

	var req dto.RejectExamDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BadRequest(ctx, "invalid request body", err.Error())
		return
	}

	resp, err := c.adminExamService.Reject(adminID, examID, req.Reason)
	if err != nil {
		log.Warn().Err(err).Uint("examID", examID).Msg("RejectExam: service error")
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CancelExam godoc
// @Summary (Admin) Cancel an approved exam
// @Description Withdraws an approved or published exam. In-flight attempts fail closed on their next save or submit.
// @Tags Admin - Exams
// @Produce json
// @Param X-User-ID header int true "Admin user ID"
// @Param exam_id path int true "Exam ID"
// @Success 200 {object} dto.ExamResponseDTO
// @Failure 409 {object} dto.ErrorResponse "Exam cannot be cancelled from its current state"
// @Router /admin/exams/{exam_id}/cancel [post]
func (c *AdminExamController) CancelExam(ctx *gin.Context) {
	adminID, ok := controller.ActorID(ctx)
	if !ok {
		controller.Unidentified(ctx)
		return
	}
	examID, ok := controller.ParseUintParam(ctx, "exam_id")
	if !ok {
		controller.BadRequest(ctx, "invalid exam ID")
		return
	}

	resp, err := c.adminExamService.Cancel(adminID, examID)
	if err != nil {
		log.Warn().Err(err).Uint("examID", examID).Msg("CancelExam: service error")
		controller.WriteError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}
