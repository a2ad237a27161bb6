package task

import (
	"context"
	"time"

	"github.com/notesphere/note-sync-service/global"
	"github.com/notesphere/note-sync-service/internal/app"
	"go.uber.org/zap"
)

// SessionCleanupTask 过期编辑会话清理任务
type SessionCleanupTask struct {
	app      *app.App
	interval time.Duration
}

// Name 返回任务名称
func (t *SessionCleanupTask) Name() string {
	return "SessionCleanup"
}

// LoopInterval 返回执行间隔
func (t *SessionCleanupTask) LoopInterval() time.Duration {
	return t.interval
}

// IsStartupRun 是否立即执行一次
func (t *SessionCleanupTask) IsStartupRun() bool {
	return false
}

// Run 清理活跃窗口外的编辑会话
func (t *SessionCleanupTask) Run(ctx context.Context) error {
	removed := t.app.EditingService.CleanupExpired()
	if removed > 0 {
		global.Logger.Info("task log",
			zap.String("task", t.Name()),
			zap.Int("removed", removed),
			zap.String("msg", "success"))
	}
	return nil
}

// NewSessionCleanupTask 创建编辑会话清理任务
func NewSessionCleanupTask(appContainer *app.App) (Task, error) {
	interval := appContainer.Config().GetSessionCleanupInterval()
	if interval <= 0 {
		return nil, nil
	}

	return &SessionCleanupTask{
		app:      appContainer,
		interval: interval,
	}, nil
}

// init 自动注册会话清理任务
func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		return NewSessionCleanupTask(appContainer)
	})
}
