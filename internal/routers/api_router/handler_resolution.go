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

// ResolutionHandler 冲突解决 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
// 解决器本身不做权限校验，编辑权限在这里把关
type ResolutionHandler struct {
	*Handler
}

// NewResolutionHandler 创建 ResolutionHandler 实例
func NewResolutionHandler(a *app.App) *ResolutionHandler {
	return &ResolutionHandler{
		Handler: NewHandler(a),
	}
}

// Resolve 解决冲突
// @Summary 解决冲突
// @Description 按指定策略解决冲突，策略取 manter_local、manter_remoto、merge_manual 或 criar_versoes_separadas
// @Tags 冲突解决
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.ConflictResolveRequest true "解决参数"
// @Success 200 {object} pkgapp.Res{data=dto.ResolutionResultDTO} "成功"
// @Failure 400 {object} pkgapp.Res "冲突已被解决 / 未知策略 / 缺少合并内容"
// @Router /api/conflict/resolve [post]
func (h *ResolutionHandler) Resolve(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ConflictResolveRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ResolutionHandler.Resolve.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ResolutionHandler.Resolve err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	// 校验编辑权限
	if !h.canResolve(ctx, c, response, params.ConflictID, uid, "ResolutionHandler.Resolve") {
		return
	}

	result, err := h.App.ResolutionService.Resolve(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "ResolutionHandler.Resolve", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// Ignore 忽略冲突
// @Summary 忽略冲突
// @Description 将 pending 冲突标记为 ignored，不改动任何版本或指针
// @Tags 冲突解决
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.ConflictIgnoreRequest true "忽略参数"
// @Success 200 {object} pkgapp.Res{data=dto.ResolutionResultDTO} "成功"
// @Router /api/conflict/ignore [post]
func (h *ResolutionHandler) Ignore(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ConflictIgnoreRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ResolutionHandler.Ignore.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ResolutionHandler.Ignore err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	// 校验编辑权限
	if !h.canResolve(ctx, c, response, params.ConflictID, uid, "ResolutionHandler.Ignore") {
		return
	}

	result, err := h.App.ResolutionService.Ignore(ctx, uid, params.ConflictID)
	if err != nil {
		h.logError(ctx, "ResolutionHandler.Ignore", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// AutoResolve 自动解决冲突
// @Summary 自动解决冲突
// @Description 按冲突年龄与内容相似度自动选择策略：保留较新一方或拆分为独立版本
// @Tags 冲突解决
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.ConflictIgnoreRequest true "冲突 ID"
// @Success 200 {object} pkgapp.Res{data=dto.ResolutionResultDTO} "成功"
// @Router /api/conflict/auto_resolve [post]
func (h *ResolutionHandler) AutoResolve(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ConflictIgnoreRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ResolutionHandler.AutoResolve.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ResolutionHandler.AutoResolve err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	// 校验编辑权限
	if !h.canResolve(ctx, c, response, params.ConflictID, uid, "ResolutionHandler.AutoResolve") {
		return
	}

	result, err := h.App.ResolutionService.ResolveAutomatically(ctx, uid, params.ConflictID)
	if err != nil {
		h.logError(ctx, "ResolutionHandler.AutoResolve", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// Suggestions 获取解决策略建议
// @Summary 获取策略建议
// @Description 按置信度降序返回针对该冲突的解决策略建议
// @Tags 冲突解决
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.ConflictGetRequest true "查询参数"
// @Success 200 {object} pkgapp.Res{data=[]dto.SuggestionDTO} "成功"
// @Router /api/conflict/suggestions [get]
func (h *ResolutionHandler) Suggestions(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ConflictGetRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ResolutionHandler.Suggestions.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ResolutionHandler.Suggestions err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	suggestions, err := h.App.ResolutionService.Suggestions(ctx, params.ConflictID)
	if err != nil {
		h.logError(ctx, "ResolutionHandler.Suggestions", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(suggestions))
}

// canResolve 校验当前用户对冲突所属笔记的编辑权限
// 无权限或冲突不存在时已写入响应，返回 false
func (h *ResolutionHandler) canResolve(ctx context.Context, c *gin.Context, response *pkgapp.Response, conflictID, uid int64, method string) bool {
	conflict, err := h.App.ConflictService.Get(ctx, conflictID)
	if err != nil {
		h.logError(ctx, method+".ConflictGet", err)
		apperrors.ErrorResponse(c, err)
		return false
	}

	canEdit, err := h.App.ShareService.CanUserEdit(ctx, conflict.NoteID, uid)
	if err != nil {
		h.logError(ctx, method+".CanUserEdit", err)
		apperrors.ErrorResponse(c, err)
		return false
	}
	if !canEdit {
		response.ToResponse(code.ErrorNoteAccessDenied)
		return false
	}

	return true
}

// logError 记录错误日志，包含 Trace ID
func (h *ResolutionHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String("traceId", traceID),
	)
}
