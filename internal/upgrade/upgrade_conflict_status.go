package upgrade

import (
	"context"

	"github.com/notesphere/note-sync-service/global"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConflictStatusMigrate 归一历史遗留的自动解决状态
// 1.3.0 起自动解决与手动解决统一记 resolved_manual,
// 自动来源只通过历史记录的 metadata 标记区分
type ConflictStatusMigrate struct{}

// Version 返回版本号
func (m *ConflictStatusMigrate) Version() string {
	return "1.3.0"
}

// Description 返回描述
func (m *ConflictStatusMigrate) Description() string {
	return "Normalize legacy resolved_automatic conflict status to resolved_manual"
}

// Up 执行升级
func (m *ConflictStatusMigrate) Up(db *gorm.DB, ctx context.Context) error {
	result := db.WithContext(ctx).Table("note_conflict").
		Where("status = ?", "resolved_automatic").
		Update("status", "resolved_manual")
	if result.Error != nil {
		global.Logger.Error("ConflictStatusMigrate: failed to normalize status", zap.Error(result.Error))
		return result.Error
	}

	if result.RowsAffected > 0 {
		global.Logger.Info("ConflictStatusMigrate: normalized legacy conflict rows",
			zap.Int64("count", result.RowsAffected))
	}

	return nil
}
