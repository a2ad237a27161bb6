package api_router

import (
	"context"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/notesphere/note-sync-service/internal/app"
	"github.com/notesphere/note-sync-service/internal/middleware"
	pkgapp "github.com/notesphere/note-sync-service/pkg/app"
	"github.com/notesphere/note-sync-service/pkg/code"
	apperrors "github.com/notesphere/note-sync-service/pkg/errors"
	"github.com/notesphere/note-sync-service/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// AdminHandler admin control API router handler
// AdminHandler 管理控制 API 路由处理器
// Uses App Container to inject dependencies
// 使用 App Container 注入依赖
type AdminHandler struct {
	*Handler
}

// NewAdminHandler creates AdminHandler instance
// NewAdminHandler 创建 AdminHandler 实例
func NewAdminHandler(a *app.App, wss *pkgapp.WebsocketServer) *AdminHandler {
	return &AdminHandler{
		Handler: NewHandlerWithWSS(a, wss),
	}
}

// adminConfig admin configuration structure (admin interface)
// adminConfig 管理员配置结构（管理员接口）
type adminConfig struct {
	RegisterIsEnable bool   `json:"registerIsEnable" form:"registerIsEnable"`         // Registration enablement // 是否开启注册
	AdminUID         int    `json:"adminUid" form:"adminUid"`                         // Admin UID // 管理员 UID
	AuthTokenKey     string `json:"authTokenKey" form:"authTokenKey"`                 // Auth token key // 认证 Token 密钥
	TokenExpiry      string `json:"tokenExpiry" form:"tokenExpiry"`                   // Token expiry // Token 有效期
	EditingWindow    string `json:"editingWindow,omitempty" form:"editingWindow"`     // Editing session window // 编辑会话活跃窗口
	AutoResolveAge   string `json:"autoResolveAge,omitempty" form:"autoResolveAge"`   // Auto resolve age threshold // 自动解决时间差阈值
	HistoryPageCap   int    `json:"historyPageCap,omitempty" form:"historyPageCap"`   // History page cap // 历史查询行数上限
}

// tunnelConfig ngrok tunnel configuration
// tunnelConfig ngrok 隧道配置
type tunnelConfig struct {
	Enable    bool   `json:"enable" form:"enable"`       // Whether to enable ngrok tunnel // 是否启用 ngrok 隧道
	AuthToken string `json:"authToken" form:"authToken"` // ngrok auth token // ngrok 认证令牌
	Domain    string `json:"domain" form:"domain"`       // Custom domain // 自定义域名
	PublicURL string `json:"publicUrl,omitempty" form:"-"` // Active tunnel URL, read only // 当前隧道地址，只读
}

// SystemInfo system information response structure
// SystemInfo 系统信息响应结构
type SystemInfo struct {
	StartTime time.Time   `json:"startTime"` // Start time // 启动时间
	Uptime    float64     `json:"uptime"`    // Uptime (seconds) // 运行时间（秒）
	Runtime   RuntimeInfo `json:"runtime"`   // Go runtime status // Go 运行时状态
	CPU       CPUInfo     `json:"cpu"`       // CPU information // CPU 信息
	Memory    MemoryInfo  `json:"memory"`    // Memory information // 内存信息
	Host      HostInfo    `json:"host"`      // Host information // 主机信息
	Process   ProcessInfo `json:"process"`   // Process information // 进程信息
}

// RuntimeInfo Go runtime information
// RuntimeInfo Go 运行时信息
type RuntimeInfo struct {
	NumGoroutine int    `json:"numGoroutine"` // Number of goroutines // Goroutine 数量
	MemAlloc     uint64 `json:"memAlloc"`     // Allocated heap memory (bytes) // 已分配堆内存（字节）
	MemTotal     uint64 `json:"memTotal"`     // Cumulative allocated memory (bytes) // 累计分配内存（字节）
	MemSys       uint64 `json:"memSys"`       // Memory obtained from system (bytes) // 从系统获取的内存（字节）
	HeapInuse    uint64 `json:"heapInuse"`    // Memory in in-use spans (bytes) // 正在使用的堆内存（字节）
	HeapReleased uint64 `json:"heapReleased"` // Memory released to OS (bytes) // 释放回操作系统的内存（字节）
	NextGC       uint64 `json:"nextGc"`       // Target heap size for next GC // 下次 GC 的目标堆大小
	NumGC        uint32 `json:"numGc"`        // Number of completed GC cycles // GC 次数
}

// CPUInfo CPU information
// CPUInfo CPU 信息
type CPUInfo struct {
	ModelName     string  `json:"modelName"`        // Model name // 型号
	PhysicalCores int     `json:"physicalCores"`    // Physical cores // 物理核心数
	LogicalCores  int     `json:"logicalCores"`     // Logical cores // 逻辑核心数
	UsedPercent   float64 `json:"usedPercent"`      // Overall usage percentage // 总使用率
	Load1         float64 `json:"load1,omitempty"`  // 1 minute load average // 1 分钟平均负载
	Load5         float64 `json:"load5,omitempty"`  // 5 minute load average // 5 分钟平均负载
	Load15        float64 `json:"load15,omitempty"` // 15 minute load average // 15 分钟平均负载
}

// MemoryInfo memory information
// MemoryInfo 内存信息
type MemoryInfo struct {
	Total       uint64  `json:"total"`       // Total physical memory // 系统总内存
	Available   uint64  `json:"available"`   // Available memory // 可用内存
	Used        uint64  `json:"used"`        // Used memory // 已用内存
	UsedPercent float64 `json:"usedPercent"` // Memory usage percentage // 内存使用率
	SwapTotal   uint64  `json:"swapTotal"`   // Total swap space // 交换区总量
	SwapUsed    uint64  `json:"swapUsed"`    // Used swap space // 交换区已用
}

// HostInfo host identification information
// HostInfo 主机信息
type HostInfo struct {
	Hostname      string `json:"hostname"`      // Hostname // 主机名
	OS            string `json:"os"`            // Operating system // 操作系统
	OSPretty      string `json:"osPretty"`      // Detailed OS name // 详细操作系统名称
	Platform      string `json:"platform"`      // Platform name // 平台
	KernelVersion string `json:"kernelVersion"` // Kernel version // 内核版本
	Uptime        uint64 `json:"uptime"`        // System uptime (seconds) // 系统运行时间（秒）
}

// ProcessInfo current process information
// ProcessInfo 当前进程信息
type ProcessInfo struct {
	PID           int32   `json:"pid"`           // Process ID // 进程 ID
	Name          string  `json:"name"`          // Process name // 进程名
	CPUPercent    float64 `json:"cpuPercent"`    // CPU usage percentage // CPU 使用率
	MemoryPercent float32 `json:"memoryPercent"` // Memory usage percentage // 内存使用率
}

// Stats retrieves engine statistics (requires admin privileges)
// @Summary Get engine statistics
// @Description Get note, version, conflict and session counters, requires admin privileges
// @Tags Admin
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.SystemStatsDTO} "Success"
// @Failure 403 {object} pkgapp.Res "Insufficient privileges"
// @Router /api/admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	cfg := h.App.Config()

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("AdminHandler.Stats err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	// Deny access if AdminUID is configured and current user is not an admin
	// 当配置了管理员 UID 且当前用户不是管理员时，拒绝访问
	if cfg.User.AdminUID != 0 && uid != int64(cfg.User.AdminUID) {
		response.ToResponse(code.ErrorUserIsNotAdmin)
		return
	}

	ctx := c.Request.Context()

	stats, err := h.App.StatsService.Overview(ctx)
	if err != nil {
		h.logError(ctx, "AdminHandler.Stats", err)
		apperrors.ErrorResponse(c, err)
		return
	}
	stats.Connections = int64(h.WSS.ClientCount())

	response.ToResponse(code.Success.WithData(stats))
}

// GetSystemInfo retrieves system and runtime information (requires admin privileges)
// @Summary Get system and runtime info
// @Description Get system information and Go runtime data, requires admin privileges
// @Tags Admin
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Success 200 {object} pkgapp.Res{data=SystemInfo} "Success"
// @Failure 403 {object} pkgapp.Res "Insufficient privileges"
// @Router /api/admin/systeminfo [get]
func (h *AdminHandler) GetSystemInfo(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	cfg := h.App.Config()

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("AdminHandler.GetSystemInfo err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	if cfg.User.AdminUID != 0 && uid != int64(cfg.User.AdminUID) {
		response.ToResponse(code.ErrorUserIsNotAdmin)
		return
	}

	// Go Runtime
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	data := SystemInfo{
		StartTime: h.App.StartTime,
		Uptime:    time.Since(h.App.StartTime).Seconds(),
		Runtime: RuntimeInfo{
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     m.Alloc,
			MemTotal:     m.TotalAlloc,
			MemSys:       m.Sys,
			HeapInuse:    m.HeapInuse,
			HeapReleased: m.HeapReleased,
			NextGC:       m.NextGC,
			NumGC:        m.NumGC,
		},
	}

	// CPU
	if cpuInfoList, err := cpu.Info(); err == nil && len(cpuInfoList) > 0 {
		data.CPU.ModelName = cpuInfoList[0].ModelName
	}
	data.CPU.PhysicalCores, _ = cpu.Counts(false)
	data.CPU.LogicalCores, _ = cpu.Counts(true)
	if percents, err := cpu.Percent(time.Second, false); err == nil && len(percents) > 0 {
		data.CPU.UsedPercent = percents[0]
	}
	if loadStat, err := load.Avg(); err == nil && loadStat != nil {
		data.CPU.Load1 = loadStat.Load1
		data.CPU.Load5 = loadStat.Load5
		data.CPU.Load15 = loadStat.Load15
	}

	// Memory
	if vMem, err := mem.VirtualMemory(); err == nil {
		data.Memory.Total = vMem.Total
		data.Memory.Available = vMem.Available
		data.Memory.Used = vMem.Used
		data.Memory.UsedPercent = vMem.UsedPercent
	}
	if swapMem, err := mem.SwapMemory(); err == nil {
		data.Memory.SwapTotal = swapMem.Total
		data.Memory.SwapUsed = swapMem.Used
	}

	// Host
	if hInfo, err := host.Info(); err == nil {
		data.Host.Hostname = hInfo.Hostname
		data.Host.OS = hInfo.OS
		data.Host.Platform = hInfo.Platform
		data.Host.KernelVersion = hInfo.KernelVersion
		data.Host.Uptime = hInfo.Uptime
	}
	data.Host.OSPretty = util.GetOSPrettyName()

	// Process
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		data.Process.PID = p.Pid
		data.Process.Name, _ = p.Name()
		data.Process.CPUPercent, _ = p.CPUPercent()
		data.Process.MemoryPercent, _ = p.MemoryPercent()
	}

	response.ToResponse(code.Success.WithData(data))
}

// GetConfig retrieves admin configuration (requires admin privileges)
// @Summary Get admin config
// @Description Get editable system configuration, requires admin privileges
// @Tags Admin
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Success 200 {object} pkgapp.Res{data=adminConfig} "Success"
// @Failure 403 {object} pkgapp.Res "Insufficient privileges"
// @Router /api/admin/config [get]
func (h *AdminHandler) GetConfig(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	cfg := h.App.Config()
	logger := h.App.Logger()

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		logger.Error("AdminHandler.GetConfig err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	// Deny access if AdminUID is configured and current user is not an admin
	// 当配置了管理员 UID 且当前用户不是管理员时，拒绝访问
	if cfg.User.AdminUID != 0 && uid != int64(cfg.User.AdminUID) {
		response.ToResponse(code.ErrorUserIsNotAdmin)
		return
	}

	data := &adminConfig{
		RegisterIsEnable: cfg.User.RegisterIsEnable,
		AdminUID:         cfg.User.AdminUID,
		AuthTokenKey:     cfg.Security.AuthTokenKey,
		TokenExpiry:      cfg.Security.TokenExpiry,
		EditingWindow:    cfg.Sync.EditingWindow,
		AutoResolveAge:   cfg.Sync.AutoResolveAge,
		HistoryPageCap:   cfg.Sync.HistoryPageCap,
	}

	response.ToResponse(code.Success.WithData(data))
}

// UpdateConfig updates admin configuration (requires admin privileges)
// @Summary Update admin config
// @Description Modify editable system configuration and persist to the config file, requires admin privileges
// @Tags Admin
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Accept json
// @Produce json
// @Param params body adminConfig true "Config Parameters"
// @Success 200 {object} pkgapp.Res{data=adminConfig} "Success"
// @Failure 403 {object} pkgapp.Res "Insufficient privileges"
// @Router /api/admin/config [post]
func (h *AdminHandler) UpdateConfig(c *gin.Context) {
	params := &adminConfig{}
	response := pkgapp.NewResponse(c)
	cfg := h.App.Config()
	logger := h.App.Logger()

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		logger.Error("AdminHandler.UpdateConfig.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		logger.Error("AdminHandler.UpdateConfig err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	if cfg.User.AdminUID != 0 && uid != int64(cfg.User.AdminUID) {
		response.ToResponse(code.ErrorUserIsNotAdmin)
		return
	}

	// Validate duration fields before touching the running config
	// 先校验时长字段，再改动运行中的配置
	if params.EditingWindow != "" {
		if _, err := util.ParseDuration(params.EditingWindow); err != nil {
			logger.Warn("AdminHandler.UpdateConfig invalid editingWindow",
				zap.String("value", params.EditingWindow))
			response.ToResponse(code.ErrorInvalidParams.WithDetails("editingWindow format invalid, e.g. 5m, 30s"))
			return
		}
	}
	if params.AutoResolveAge != "" {
		if _, err := util.ParseDuration(params.AutoResolveAge); err != nil {
			logger.Warn("AdminHandler.UpdateConfig invalid autoResolveAge",
				zap.String("value", params.AutoResolveAge))
			response.ToResponse(code.ErrorInvalidParams.WithDetails("autoResolveAge format invalid, e.g. 24h, 7d"))
			return
		}
	}

	// Update configuration
	// 更新配置
	cfg.User.RegisterIsEnable = params.RegisterIsEnable
	cfg.User.AdminUID = params.AdminUID
	cfg.Security.AuthTokenKey = params.AuthTokenKey
	cfg.Security.TokenExpiry = params.TokenExpiry
	if params.EditingWindow != "" {
		cfg.Sync.EditingWindow = params.EditingWindow
	}
	if params.AutoResolveAge != "" {
		cfg.Sync.AutoResolveAge = params.AutoResolveAge
	}
	if params.HistoryPageCap > 0 {
		cfg.Sync.HistoryPageCap = params.HistoryPageCap
	}

	// Save configuration to file
	// 保存配置到文件
	if err := cfg.Save(); err != nil {
		logger.Error("AdminHandler.UpdateConfig.Save err", zap.Error(err))
		response.ToResponse(code.ErrorServerInternal.WithDetails(err.Error()))
		return
	}

	response.ToResponse(code.Success.WithData(params))
}

// GetTunnelConfig retrieves ngrok tunnel configuration (requires admin privileges)
// @Summary Get tunnel config
// @Description Get ngrok tunnel configuration and active public URL, requires admin privileges
// @Tags Admin
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Success 200 {object} pkgapp.Res{data=tunnelConfig} "Success"
// @Failure 403 {object} pkgapp.Res "Insufficient privileges"
// @Router /api/admin/config/tunnel [get]
func (h *AdminHandler) GetTunnelConfig(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	cfg := h.App.Config()
	logger := h.App.Logger()

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		logger.Error("AdminHandler.GetTunnelConfig err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	if cfg.User.AdminUID != 0 && uid != int64(cfg.User.AdminUID) {
		response.ToResponse(code.ErrorUserIsNotAdmin)
		return
	}

	data := &tunnelConfig{
		Enable:    cfg.Tunnel.Enable,
		AuthToken: cfg.Tunnel.AuthToken,
		Domain:    cfg.Tunnel.Domain,
		PublicURL: h.App.TunnelService.PublicURL(),
	}

	response.ToResponse(code.Success.WithData(data))
}

// UpdateTunnelConfig updates ngrok tunnel configuration (requires admin privileges)
// @Summary Update tunnel config
// @Description Modify ngrok tunnel configuration, takes effect after restart, requires admin privileges
// @Tags Admin
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Accept json
// @Produce json
// @Param params body tunnelConfig true "Config Parameters"
// @Success 200 {object} pkgapp.Res{data=tunnelConfig} "Success"
// @Failure 403 {object} pkgapp.Res "Insufficient privileges"
// @Router /api/admin/config/tunnel [post]
func (h *AdminHandler) UpdateTunnelConfig(c *gin.Context) {
	params := &tunnelConfig{}
	response := pkgapp.NewResponse(c)
	cfg := h.App.Config()
	logger := h.App.Logger()

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		logger.Error("AdminHandler.UpdateTunnelConfig.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		logger.Error("AdminHandler.UpdateTunnelConfig err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	if cfg.User.AdminUID != 0 && uid != int64(cfg.User.AdminUID) {
		response.ToResponse(code.ErrorUserIsNotAdmin)
		return
	}

	cfg.Tunnel.Enable = params.Enable
	cfg.Tunnel.AuthToken = params.AuthToken
	cfg.Tunnel.Domain = params.Domain

	if err := cfg.Save(); err != nil {
		logger.Error("AdminHandler.UpdateTunnelConfig.Save err", zap.Error(err))
		response.ToResponse(code.ErrorServerInternal.WithDetails(err.Error()))
		return
	}

	response.ToResponse(code.Success.WithData(params))
}

// Restart triggers server automatic restart (requires admin privileges)
// @Summary Trigger server restart
// @Description Replace the current process with a fresh instance of the same binary, requires admin privileges
// @Tags Admin
// @Security UserAuthToken
// @Param token header string true "Auth Token"
// @Produce json
// @Success 200 {object} pkgapp.Res "Success"
// @Failure 403 {object} pkgapp.Res "Insufficient privileges"
// @Router /api/admin/restart [get]
func (h *AdminHandler) Restart(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	cfg := h.App.Config()
	uid := pkgapp.GetUID(c)

	if cfg.User.AdminUID != 0 && uid != int64(cfg.User.AdminUID) {
		response.ToResponse(code.ErrorUserIsNotAdmin)
		return
	}

	currentBinary, err := os.Executable()
	if err != nil {
		response.ToResponse(code.ErrorServerInternal.WithDetails("Failed to get current executable path: " + err.Error()))
		return
	}

	// 延迟执行，让响应先写回客户端
	go func() {
		time.Sleep(200 * time.Millisecond)
		h.App.Logger().Info("restarting process", zap.String("binary", currentBinary))
		if err := app.RestartProcess(currentBinary, os.Args, os.Environ()); err != nil {
			h.App.Logger().Error("AdminHandler.Restart exec err", zap.Error(err))
		}
	}()

	response.ToResponse(code.Success.WithDetails("Restart triggered, server is restarting..."))
}

// GC triggers manual garbage collection and releases memory to OS (requires admin privileges)
// GC 手动触发垃圾回收并释放内存给操作系统（需要管理员权限）
// @Summary Trigger manual GC
// @Description Manually run Go runtime GC and release memory to OS, requires admin privileges
// @Tags Admin
// @Produce json
// @Security UserAuthToken
// @Success 200 {object} pkgapp.Res "Success"
// @Failure 403 {object} pkgapp.Res "Insufficient privileges"
// @Router /api/admin/gc [get]
func (h *AdminHandler) GC(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	cfg := h.App.Config()
	logger := h.App.Logger()

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	if cfg.User.AdminUID != 0 && uid != int64(cfg.User.AdminUID) {
		response.ToResponse(code.ErrorUserIsNotAdmin)
		return
	}

	var mBefore, mAfter runtime.MemStats
	runtime.ReadMemStats(&mBefore)

	startTime := time.Now()
	// Trigger GC // 触发 GC
	runtime.GC()
	// Release memory to OS // 释放内存给操作系统
	debug.FreeOSMemory()
	duration := time.Since(startTime)

	runtime.ReadMemStats(&mAfter)

	memReleased := int64(mBefore.Alloc) - int64(mAfter.Alloc)
	logger.Info("Manual GC completed",
		zap.Duration("duration", duration),
		zap.Uint64("allocBefore", mBefore.Alloc),
		zap.Uint64("allocAfter", mAfter.Alloc),
		zap.Int64("released", memReleased),
	)

	data := gin.H{
		"duration":    duration.String(),
		"allocBefore": mBefore.Alloc,
		"allocAfter":  mAfter.Alloc,
		"released":    memReleased,
	}

	response.ToResponse(code.Success.WithData(data).WithDetails("Manual GC completed successfully"))
}

// logError records error log, including Trace ID
// logError 记录错误日志，包含 Trace ID
func (h *AdminHandler) logError(ctx context.Context, method string, err error) {
	traceID := middleware.GetTraceID(ctx)
	h.App.Logger().Error(method,
		zap.Error(err),
		zap.String("traceId", traceID),
	)
}
