package task

import (
	"context"
	"time"

	"github.com/notesphere/note-sync-service/global"
	"github.com/notesphere/note-sync-service/internal/app"
	"go.uber.org/zap"
)

// ConflictScanTask 后台冲突扫描任务
// 周期性扫描近期存在待同步版本的笔记,检出并登记分叉冲突
type ConflictScanTask struct {
	app      *app.App
	interval time.Duration
	window   time.Duration
}

// Name 返回任务名称
func (t *ConflictScanTask) Name() string {
	return "ConflictScan"
}

// LoopInterval 返回执行间隔
func (t *ConflictScanTask) LoopInterval() time.Duration {
	return t.interval
}

// IsStartupRun 是否立即执行一次
func (t *ConflictScanTask) IsStartupRun() bool {
	return false
}

// Run 执行一轮扫描
// 扫描登记的历史记录操作者记为系统（UID 0）
func (t *ConflictScanTask) Run(ctx context.Context) error {
	since := time.Now().Add(-t.window)

	noteIDs, err := t.app.NoteRepo.ListIDsWithPendingVersions(ctx, since)
	if err != nil {
		return err
	}

	var found int
	for _, noteID := range noteIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		detected, err := t.app.ConflictService.Detect(ctx, 0, noteID)
		if err != nil {
			// 单个笔记失败不中断整轮扫描
			global.Logger.Warn("task log",
				zap.String("task", t.Name()),
				zap.Int64("noteId", noteID),
				zap.String("msg", "detect failed"),
				zap.Error(err))
			continue
		}
		found += len(detected)
	}

	if found > 0 {
		global.Logger.Info("task log",
			zap.String("task", t.Name()),
			zap.Int("notes", len(noteIDs)),
			zap.Int("conflicts", found),
			zap.String("msg", "success"))
	}

	return nil
}

// NewConflictScanTask 创建冲突扫描任务
func NewConflictScanTask(appContainer *app.App) (Task, error) {
	interval := appContainer.Config().GetConflictScanInterval()
	if interval <= 0 {
		return nil, nil
	}

	return &ConflictScanTask{
		app:      appContainer,
		interval: interval,
		window:   appContainer.Config().GetConflictScanWindow(),
	}, nil
}

// init 自动注册冲突扫描任务
func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		return NewConflictScanTask(appContainer)
	})
}
