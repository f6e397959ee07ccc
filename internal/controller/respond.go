package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ptdat2/examcore/internal/apperr"
	"github.com/ptdat2/examcore/internal/dto"
)

// ActorID reads the caller's user id from the X-User-ID header. Session and
// token handling live outside this service; the header is the agreed hand-off.
func ActorID(ctx *gin.Context) (uint, bool) {
	raw := ctx.GetHeader("X-User-ID")
	if raw == "" {
		return 0, false
	}
	val, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(val), true
}

func ParseUintParam(ctx *gin.Context, name string) (uint, bool) {
	val, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(val), true
}

// WriteError maps a service error onto the shared response shape using the
// apperr status table.
func WriteError(ctx *gin.Context, err error) {
	ctx.JSON(apperr.HTTPStatus(err), dto.ErrorResponse{
		Code:    string(apperr.KindOf(err)),
		Message: err.Error(),
	})
}

func BadRequest(ctx *gin.Context, message string, details ...string) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:    string(apperr.KindValidation),
		Message: message,
		Details: details,
	})
}

func Unidentified(ctx *gin.Context) {
	BadRequest(ctx, "missing or invalid X-User-ID header")
}
