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

// ShareHandler 笔记分享 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type ShareHandler struct {
	*Handler
}

// NewShareHandler 创建 ShareHandler 实例
func NewShareHandler(a *app.App) *ShareHandler {
	return &ShareHandler{
		Handler: NewHandler(a),
	}
}

// Share 分享笔记给其他用户
// @Summary 分享笔记
// @Description 将笔记分享给目标用户，权限取 view 或 edit，仅笔记所有者可操作
// @Tags 分享
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.ShareCreateRequest true "分享参数"
// @Success 200 {object} pkgapp.Res{data=dto.ShareDTO} "成功"
// @Failure 400 {object} pkgapp.Res "目标用户不存在 / 已分享给该用户"
// @Router /api/share [post]
func (h *ShareHandler) Share(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ShareCreateRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ShareHandler.Share.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ShareHandler.Share err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	share, err := h.App.ShareService.Share(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "ShareHandler.Share", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessCreate.WithData(share))
}

// Unshare 取消分享
// @Summary 取消分享
// @Description 撤销笔记对目标用户的分享，仅笔记所有者可操作
// @Tags 分享
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.ShareDeleteRequest true "取消参数"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/share [delete]
func (h *ShareHandler) Unshare(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ShareDeleteRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ShareHandler.Unshare.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ShareHandler.Unshare err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	err := h.App.ShareService.Unshare(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "ShareHandler.Unshare", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessDelete)
}

// ListForNote 获取笔记的分享列表
// @Summary 获取笔记分享列表
// @Description 返回指定笔记的全部分享记录，需要对该笔记的查看权限
// @Tags 分享
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.NoteGetRequest true "查询参数"
// @Success 200 {object} pkgapp.Res{data=[]dto.ShareDTO} "成功"
// @Router /api/shares [get]
func (h *ShareHandler) ListForNote(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteGetRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ShareHandler.ListForNote.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ShareHandler.ListForNote err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	// 校验查看权限
	canView, err := h.App.ShareService.CanUserView(ctx, params.NoteID, uid)
	if err != nil {
		h.logError(ctx, "ShareHandler.ListForNote.CanUserView", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	if !canView {
		response.ToResponse(code.ErrorNoteAccessDenied)
		return
	}

	shares, err := h.App.ShareService.ListForNote(ctx, params.NoteID)
	if err != nil {
		h.logError(ctx, "ShareHandler.ListForNote", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(shares))
}

// ListReceived 获取分享给当前用户的记录
// @Summary 获取收到的分享
// @Description 返回其他用户分享给当前用户的全部分享记录
// @Tags 分享
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Success 200 {object} pkgapp.Res{data=[]dto.ShareDTO} "成功"
// @Router /api/shares/received [get]
func (h *ShareHandler) ListReceived(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ShareHandler.ListReceived err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	shares, err := h.App.ShareService.ListForTarget(ctx, uid)
	if err != nil {
		h.logError(ctx, "ShareHandler.ListReceived", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(shares))
}

// logError 记录错误日志，包含 Trace ID
func (h *ShareHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String("traceId", traceID),
	)
}
