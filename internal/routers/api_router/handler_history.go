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

// HistoryHandler history log API router handler
type HistoryHandler struct {
	*Handler
}

// NewHistoryHandler creates HistoryHandler instance
func NewHistoryHandler(a *app.App) *HistoryHandler {
	return &HistoryHandler{
		Handler: NewHandler(a),
	}
}

// ForNote gets history entries of a note
// @Summary Get note history
// @Tags History
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Param params query dto.HistoryListRequest true "Parameters"
// @Success 200 {object} pkgapp.Res{data=[]dto.HistoryDTO} "Success"
// @Failure 401 {object} pkgapp.Res "Token Required"
// @Router /api/note/histories [get]
func (h *HistoryHandler) ForNote(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.HistoryListRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	entries, err := h.App.HistoryService.ForNote(c.Request.Context(), params.NoteID, params.Limit)
	if err != nil {
		h.logError(c.Request.Context(), "HistoryHandler.ForNote", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(entries))
}

// ForUser gets history entries produced by the current user
// @Summary Get user history
// @Tags History
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Param params query dto.HistoryUserListRequest true "Parameters"
// @Success 200 {object} pkgapp.Res{data=[]dto.HistoryDTO} "Success"
// @Failure 401 {object} pkgapp.Res "Token Required"
// @Router /api/user/histories [get]
func (h *HistoryHandler) ForUser(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.HistoryUserListRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	entries, err := h.App.HistoryService.ForUser(c.Request.Context(), uid, params.Limit)
	if err != nil {
		h.logError(c.Request.Context(), "HistoryHandler.ForUser", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(entries))
}

// ActivityStats gets per-action activity statistics of a note
// @Summary Get note activity statistics
// @Tags History
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Param params query dto.ActivityStatsRequest true "Parameters"
// @Success 200 {object} pkgapp.Res{data=[]dto.ActivityStatDTO} "Success"
// @Failure 401 {object} pkgapp.Res "Token Required"
// @Router /api/note/activity [get]
func (h *HistoryHandler) ActivityStats(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ActivityStatsRequest{}
	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	stats, err := h.App.HistoryService.ActivityStats(c.Request.Context(), params.NoteID, params.WindowHours)
	if err != nil {
		h.logError(c.Request.Context(), "HistoryHandler.ActivityStats", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(stats))
}

func (h *HistoryHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String("traceId", traceID),
	)
}
