package api_router

import (
	"context"

	"github.com/notesphere/note-sync-service/internal/app"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/internal/middleware"
	pkgapp "github.com/notesphere/note-sync-service/pkg/app"
	"github.com/notesphere/note-sync-service/pkg/code"
	apperrors "github.com/notesphere/note-sync-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BackupHandler backup API router handler
type BackupHandler struct {
	*Handler
}

// NewBackupHandler creates BackupHandler instance
func NewBackupHandler(a *app.App) *BackupHandler {
	return &BackupHandler{
		Handler: NewHandler(a),
	}
}

// Run triggers a backup of the current user's data
// @Summary Trigger a manual backup
// @Description Export notes, version chains and history to the configured storage backend
// @Tags Backup
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.BackupHistoryDTO} "Success"
// @Failure 400 {object} pkgapp.Res "Storage Not Enabled / Backup Failed"
// @Failure 401 {object} pkgapp.Res "Token Required"
// @Router /api/backup/run [post]
func (h *BackupHandler) Run(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	record, err := h.App.BackupService.Run(c.Request.Context(), uid)
	if err != nil {
		h.logError(c.Request.Context(), "BackupHandler.Run", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(record))
}

// Histories gets backup history of the current user
// @Summary Get backup histories
// @Tags Backup
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Param params query dto.BackupHistoryListRequest true "Parameters"
// @Success 200 {object} pkgapp.Res{data=[]dto.BackupHistoryDTO} "Success"
// @Failure 401 {object} pkgapp.Res "Token Required"
// @Router /api/backup/histories [get]
func (h *BackupHandler) Histories(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.BackupHistoryListRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	records, err := h.App.BackupService.History(c.Request.Context(), uid, params.Limit)
	if err != nil {
		h.logError(c.Request.Context(), "BackupHandler.Histories", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(records))
}

func (h *BackupHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String("traceId", traceID),
	)
}
