package domain

import (
	"context"
	"time"
)

const (
	BackupStatusIdle    = 0
	BackupStatusRunning = 1
	BackupStatusSuccess = 2
	BackupStatusFailed  = 3
	BackupStatusEmpty   = 4
)

// BackupHistory 备份历史领域模型，每次导出运行一条
type BackupHistory struct {
	ID          int64
	UID         int64
	StorageType string
	StartTime   time.Time
	EndTime     time.Time
	Status      int // 0: Idle, 1: Running, 2: Success, 3: Failed, 4: Empty
	FileSize    int64
	NoteCount   int64
	Message     string
	FilePath    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BackupRepository 备份历史持久化接口
type BackupRepository interface {
	Create(ctx context.Context, history *BackupHistory, uid int64) (*BackupHistory, error)
	Update(ctx context.Context, history *BackupHistory, uid int64) error
	ListByUID(ctx context.Context, uid int64, limit int) ([]*BackupHistory, error)
	GetLatest(ctx context.Context, uid int64) (*BackupHistory, error)
}
