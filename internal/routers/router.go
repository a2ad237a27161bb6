// Package routers 装配 HTTP 与 WebSocket 路由
package routers

import (
	"time"

	"github.com/notesphere/note-sync-service/internal/app"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/internal/middleware"
	"github.com/notesphere/note-sync-service/internal/routers/api_router"
	"github.com/notesphere/note-sync-service/internal/routers/websocket_router"
	pkgapp "github.com/notesphere/note-sync-service/pkg/app"
	"github.com/notesphere/note-sync-service/pkg/code"
	"github.com/notesphere/note-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

var methodLimiters = limiter.NewMethodLimiter().AddBuckets(
	limiter.BucketRule{
		Key:          "/api/user/register",
		FillInterval: time.Second,
		Capacity:     10,
		Quantity:     10,
	},
	limiter.BucketRule{
		Key:          "/api/user/login",
		FillInterval: time.Second,
		Capacity:     10,
		Quantity:     10,
	},
)

// wsEventPusher 将服务层事件适配为 WebSocket 推送
type wsEventPusher struct {
	wss *pkgapp.WebsocketServer
}

// PushToUser 向 uid 的所有在线连接发送 action 事件
func (p *wsEventPusher) PushToUser(uid int64, action string, data any) {
	for _, client := range p.wss.GetUserClients(uid) {
		client.ToResponse(code.Success.Clone().WithData(data), action)
	}
}

func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	var wss = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:    true,
			ParallelEnabled:     true,                                 // 开启并行消息处理
			Recovery:            gws.Recovery,                         // 开启异常恢复
			PermessageDeflate:   gws.PermessageDeflate{Enabled: true}, // 开启压缩
			ParallelGolimit:     8,
			ReadMaxPayloadSize:  1024 * 1024 * 64, // 设置最大读取缓冲区大小 64MB
			WriteMaxPayloadSize: 1024 * 1024 * 64, // 设置最大写入缓冲区大小 64MB
		},
	})

	// 创建 WebSocket Handlers（注入 App Container）
	syncWSHandler := websocket_router.NewSyncWSHandler(appContainer, wss)

	// 设备注册
	wss.Use(dto.ActionRegisterDevice, syncWSHandler.RegisterDevice)
	// 编辑会话
	wss.Use(dto.ActionStartEditing, syncWSHandler.StartEditing)
	wss.Use(dto.ActionStopEditing, syncWSHandler.StopEditing)
	// 编辑提交
	wss.Use(dto.ActionNoteUpdated, syncWSHandler.NoteUpdated)

	wss.AuthUse(appContainer.TokenManager.Parse)
	wss.UserDataSelectUse(syncWSHandler.UserInfo)
	wss.CloseUse(syncWSHandler.ConnectionClosed)

	// 服务层事件经 WebSocket 下发
	appContainer.SetEventPusher(&wsEventPusher{wss: wss})

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfo())
		api.Use(gin.Logger())
		api.Use(middleware.TraceMiddleware(middleware.TracerConfig{Enabled: cfg.Tracer.Enabled, Header: cfg.Tracer.Header})) // Trace ID 中间件
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLog())
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		userHandler := api_router.NewUserHandler(appContainer)
		noteHandler := api_router.NewNoteHandler(appContainer, wss)
		versionHandler := api_router.NewVersionHandler(appContainer, wss)
		conflictHandler := api_router.NewConflictHandler(appContainer)
		resolutionHandler := api_router.NewResolutionHandler(appContainer)
		historyHandler := api_router.NewHistoryHandler(appContainer)
		shareHandler := api_router.NewShareHandler(appContainer)
		backupHandler := api_router.NewBackupHandler(appContainer)
		mirrorHandler := api_router.NewMirrorHandler(appContainer)
		adminHandler := api_router.NewAdminHandler(appContainer, wss)
		systemHandler := api_router.NewSystemHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)

		api.POST("/user/register", userHandler.Register)
		api.POST("/user/login", userHandler.Login)
		api.GET("/sync", wss.Run())

		// 服务端版本号与健康检查接口（无需认证）
		api.GET("/version", systemHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)

		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/user/change_password", userHandler.UserChangePassword)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/user/info", userHandler.UserInfo)

		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/note", noteHandler.Get)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/note", noteHandler.Create)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/notes", noteHandler.List)

		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/note/version", versionHandler.Get)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/note/version", versionHandler.Create)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/note/version/current", versionHandler.GetCurrent)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).PUT("/note/version/current", versionHandler.SetCurrent)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).PUT("/note/version/synced", versionHandler.MarkSynced)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/note/versions", versionHandler.History)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/note/version/compare", versionHandler.Compare)

		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/conflict/detect", conflictHandler.Detect)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/conflict", conflictHandler.Get)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/conflicts", conflictHandler.Pending)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/conflict/check", conflictHandler.RealTimeCheck)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/conflict/complexity", conflictHandler.Complexity)

		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/conflict/resolve", resolutionHandler.Resolve)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/conflict/ignore", resolutionHandler.Ignore)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/conflict/auto_resolve", resolutionHandler.AutoResolve)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/conflict/suggestions", resolutionHandler.Suggestions)

		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/note/histories", historyHandler.ForNote)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/user/histories", historyHandler.ForUser)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/note/activity", historyHandler.ActivityStats)

		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/share", shareHandler.Share)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).DELETE("/share", shareHandler.Unshare)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/shares", shareHandler.ListForNote)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/shares/received", shareHandler.ListReceived)

		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/backup/run", backupHandler.Run)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/backup/histories", backupHandler.Histories)

		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/mirror/execute", mirrorHandler.Execute)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/mirror/status", mirrorHandler.Status)

		// 管理员接口，处理器内部校验 AdminUID
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/admin/stats", adminHandler.Stats)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/admin/systeminfo", adminHandler.GetSystemInfo)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/admin/gc", adminHandler.GC)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/admin/restart", adminHandler.Restart)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/admin/config", adminHandler.GetConfig)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/admin/config", adminHandler.UpdateConfig)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).GET("/admin/config/tunnel", adminHandler.GetTunnelConfig)
		api.Use(middleware.UserAuthTokenWithConfig(cfg.Security.AuthTokenKey)).POST("/admin/config/tunnel", adminHandler.UpdateTunnelConfig)
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	return r
}
