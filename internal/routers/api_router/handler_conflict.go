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

// ConflictHandler 冲突检测 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type ConflictHandler struct {
	*Handler
}

// NewConflictHandler 创建 ConflictHandler 实例
func NewConflictHandler(a *app.App) *ConflictHandler {
	return &ConflictHandler{
		Handler: NewHandler(a),
	}
}

// Detect 对指定笔记执行冲突检测
// @Summary 执行冲突检测
// @Description 对笔记的未同步版本两两判定，落库新发现的冲突并返回全部结果
// @Tags 冲突
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.ConflictDetectRequest true "检测参数"
// @Success 200 {object} pkgapp.Res{data=[]dto.ConflictDTO} "成功"
// @Router /api/conflict/detect [post]
func (h *ConflictHandler) Detect(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ConflictDetectRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ConflictHandler.Detect.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ConflictHandler.Detect err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	conflicts, err := h.App.ConflictService.Detect(ctx, uid, params.NoteID)
	if err != nil {
		h.logError(ctx, "ConflictHandler.Detect", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(conflicts))
}

// Get 获取冲突详情
// @Summary 获取冲突详情
// @Description 返回冲突记录及双方版本的展示字段
// @Tags 冲突
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.ConflictGetRequest true "获取参数"
// @Success 200 {object} pkgapp.Res{data=dto.ConflictDetailDTO} "成功"
// @Router /api/conflict [get]
func (h *ConflictHandler) Get(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ConflictGetRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ConflictHandler.Get.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ConflictHandler.Get err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	conflict, err := h.App.ConflictService.Get(ctx, params.ConflictID)
	if err != nil {
		h.logError(ctx, "ConflictHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(conflict))
}

// Pending 获取当前用户的待处理冲突列表
// @Summary 获取待处理冲突列表
// @Description 按检测时间倒序返回当前用户相关的 pending 冲突，查询失败时降级为空列表
// @Tags 冲突
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.ConflictListRequest true "查询参数"
// @Success 200 {object} pkgapp.Res{data=[]dto.ConflictDetailDTO} "成功"
// @Router /api/conflicts [get]
func (h *ConflictHandler) Pending(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ConflictListRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ConflictHandler.Pending.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ConflictHandler.Pending err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	conflicts := h.App.ConflictService.PendingFor(ctx, uid, params.Limit)
	response.ToResponse(code.Success.WithData(conflicts))
}

// RealTimeCheck 实时冲突预警检查
// @Summary 实时冲突预警
// @Description 检查是否有其他用户正在编辑该笔记且内容已偏离调用方所见版本，命中时返回碰撞信号
// @Tags 冲突
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Accept json
// @Produce json
// @Param params body dto.RealTimeCheckRequest true "检查参数"
// @Success 200 {object} pkgapp.Res{data=dto.CollisionDTO} "成功，未命中时 data 为空"
// @Router /api/conflict/check [post]
func (h *ConflictHandler) RealTimeCheck(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.RealTimeCheckRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ConflictHandler.RealTimeCheck.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ConflictHandler.RealTimeCheck err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	collision, err := h.App.ConflictService.DetectRealTime(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "ConflictHandler.RealTimeCheck", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(collision))
}

// Complexity 分析冲突复杂度
// @Summary 分析冲突复杂度
// @Description 基于标题和正文差异与 Jaccard 相似度给出复杂度等级与处理建议
// @Tags 冲突
// @Security UserAuthToken
// @Param token header string true "认证 Token"
// @Produce json
// @Param params query dto.ConflictGetRequest true "分析参数"
// @Success 200 {object} pkgapp.Res{data=dto.ComplexityDTO} "成功"
// @Router /api/conflict/complexity [get]
func (h *ConflictHandler) Complexity(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.ConflictGetRequest{}

	// 参数绑定和验证
	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Error("ConflictHandler.Complexity.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	// 获取用户 ID
	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("ConflictHandler.Complexity err uid=0")
		response.ToResponse(code.ErrorNotUserAuthToken)
		return
	}

	// 获取请求上下文
	ctx := c.Request.Context()

	result, err := h.App.ConflictService.AnalyzeComplexity(ctx, params.ConflictID)
	if err != nil {
		h.logError(ctx, "ConflictHandler.Complexity", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(result))
}

// logError 记录错误日志，包含 Trace ID
func (h *ConflictHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String("traceId", traceID),
	)
}
