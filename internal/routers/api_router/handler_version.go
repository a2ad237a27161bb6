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

// VersionHandler 笔记版本 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type VersionHandler struct {
	*Handler
}

// NewVersionHandler 创建 VersionHandler 实例
func NewVersionHandler(a *app.App, wss *pkgapp.WebsocketServer) *VersionHandler {
	return &VersionHandler{
		Handler: NewHandlerWithWSS(a, wss),
	}
}

// Create 创建笔记版本
// @Summary 创建笔记版本
// @Description 为指定笔记追加一个新版本，内容与最近版本完全相同时去重并返回已有版本
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.VersionCreateRequest true "版本内容"
// @Success 200 {object} pkgapp.Res{data=dto.VersionDTO} "成功"
// @Router /api/note/version [post]
func (h *VersionHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionCreateRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.Create.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("VersionHandler.Create err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	// 编辑权限门禁：所有者或具备 edit 分享
	canEdit, err := h.App.ShareService.CanUserEdit(ctx, params.NoteID, uid)
	if err != nil {
		h.logError(ctx, "VersionHandler.Create.CanUserEdit", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	if !canEdit {
		response.ToResponse(code.ErrorNoteAccessDenied)
		return
	}

	created, version, err := h.App.VersionService.Create(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "VersionHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	// 去重命中时返回已有版本，不产生新记录
	if !created {
		response.ToResponse(code.SuccessNoUpdate.WithData(version))
		return
	}

	response.ToResponse(code.SuccessCreate.WithData(version))

	// 推送到同一用户的其他在线设备
	for _, client := range h.WSS.GetUserClients(uid) {
		client.ToResponse(code.Success.Clone().WithData(version), "note_updated")
	}
}

// Get 获取单个版本详情
// @Summary 获取版本详情
// @Description 根据版本 ID 获取版本内容和元数据
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.VersionGetRequest true "获取参数"
// @Success 200 {object} pkgapp.Res{data=dto.VersionDTO} "成功"
// @Router /api/note/version [get]
func (h *VersionHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionGetRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.Get.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("VersionHandler.Get err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	version, err := h.App.VersionService.Get(ctx, params.VersionID)
	if err != nil {
		h.logError(ctx, "VersionHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(version))
}

// GetCurrent 获取笔记当前版本
// @Summary 获取笔记当前版本
// @Description 返回当前版本指针指向的版本内容
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.NoteGetRequest true "查询参数"
// @Success 200 {object} pkgapp.Res{data=dto.VersionDTO} "成功"
// @Router /api/note/version/current [get]
func (h *VersionHandler) GetCurrent(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteGetRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.GetCurrent.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("VersionHandler.GetCurrent err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	version, err := h.App.VersionService.GetCurrent(ctx, params.NoteID)
	if err != nil {
		h.logError(ctx, "VersionHandler.GetCurrent", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(version))
}

// SetCurrent 设置笔记当前版本指针
// @Summary 设置当前版本
// @Description 将笔记的当前版本指针指向指定版本
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.VersionSetCurrentRequest true "设置参数"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/note/version/current [put]
func (h *VersionHandler) SetCurrent(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionSetCurrentRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.SetCurrent.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("VersionHandler.SetCurrent err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	err := h.App.VersionService.SetCurrent(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "VersionHandler.SetCurrent", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessUpdate)
}

// MarkSynced 标记版本已同步
// @Summary 标记版本已同步
// @Description 将 pending 状态的版本标记为 synchronized
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.VersionMarkSyncedRequest true "标记参数"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/note/version/synced [put]
func (h *VersionHandler) MarkSynced(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionMarkSyncedRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.MarkSynced.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("VersionHandler.MarkSynced err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	err := h.App.VersionService.MarkSynchronized(ctx, params.VersionID)
	if err != nil {
		h.logError(ctx, "VersionHandler.MarkSynced", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.SuccessUpdate)
}

// History 获取笔记版本历史
// @Summary 获取版本历史
// @Description 按创建时间倒序返回笔记的版本链
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.VersionHistoryRequest true "查询参数"
// @Success 200 {object} pkgapp.Res{data=[]dto.VersionDTO} "成功"
// @Router /api/note/versions [get]
func (h *VersionHandler) History(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionHistoryRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.History.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("VersionHandler.History err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	versions, err := h.App.VersionService.History(ctx, params.NoteID, params.Limit)
	if err != nil {
		h.logError(ctx, "VersionHandler.History", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(versions))
}

// Compare 比较两个版本
// @Summary 比较两个版本
// @Description 返回标题与正文是否变化及创建时间差
// @Tags 版本
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.VersionCompareRequest true "比较参数"
// @Success 200 {object} pkgapp.Res{data=dto.VersionCompareDTO} "成功"
// @Router /api/note/version/compare [get]
func (h *VersionHandler) Compare(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.VersionCompareRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("VersionHandler.Compare.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("VersionHandler.Compare err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	result, err := h.App.VersionService.Compare(ctx, params.VersionA, params.VersionB)
	if err != nil {
		h.logError(ctx, "VersionHandler.Compare", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// logError 记录错误日志，包含 Trace ID
func (h *VersionHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String("traceId", traceID),
	)
}
