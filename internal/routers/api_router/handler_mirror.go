package api_router

import (
	"context"

	"github.com/notesphere/note-sync-service/internal/app"
	"github.com/notesphere/note-sync-service/internal/middleware"
	pkgapp "github.com/notesphere/note-sync-service/pkg/app"
	"github.com/notesphere/note-sync-service/pkg/code"
	apperrors "github.com/notesphere/note-sync-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MirrorHandler git mirror API router handler
type MirrorHandler struct {
	*Handler
}

// NewMirrorHandler creates MirrorHandler instance
func NewMirrorHandler(a *app.App) *MirrorHandler {
	return &MirrorHandler{
		Handler: NewHandler(a),
	}
}

// Execute triggers a full mirror run
// @Summary Trigger a manual git mirror sync
// @Tags GitMirror
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Success 200 {object} pkgapp.Res "Success"
// @Failure 401 {object} pkgapp.Res "Token Required"
// @Failure 500 {object} pkgapp.Res "Internal Server Error"
// @Router /api/mirror/execute [post]
func (h *MirrorHandler) Execute(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	err := h.App.GitMirrorService.Execute(c.Request.Context())
	if err != nil {
		h.logError(c.Request.Context(), "MirrorHandler.Execute", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithDetails("Mirror sync completed"))
}

// Status gets git mirror status
// @Summary Get git mirror status
// @Tags GitMirror
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.GitMirrorStatusDTO} "Success"
// @Failure 401 {object} pkgapp.Res "Token Required"
// @Router /api/mirror/status [get]
func (h *MirrorHandler) Status(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	response.ToResponse(code.Success.WithData(h.App.GitMirrorService.Status()))
}

func (h *MirrorHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String("traceId", traceID),
	)
}
