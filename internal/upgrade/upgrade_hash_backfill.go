package upgrade

import (
	"context"

	"github.com/notesphere/note-sync-service/global"
	"github.com/notesphere/note-sync-service/pkg/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HashBackfillMigrate 为早期版本行补算内容哈希
// 内容去重依赖 content_hash,1.1.0 之前创建的版本行该字段为空
type HashBackfillMigrate struct{}

// Version 返回版本号
func (m *HashBackfillMigrate) Version() string {
	return "1.1.0"
}

// Description 返回描述
func (m *HashBackfillMigrate) Description() string {
	return "Backfill content_hash for note versions created before hash dedup"
}

// Up 执行升级
func (m *HashBackfillMigrate) Up(db *gorm.DB, ctx context.Context) error {
	type versionRow struct {
		ID    int64
		Title string
		Body  string
	}

	var rows []versionRow
	if err := db.WithContext(ctx).Table("note_version").
		Select("id", "title", "body").
		Where("content_hash = ?", "").
		Find(&rows).Error; err != nil {
		global.Logger.Error("HashBackfillMigrate: failed to list versions", zap.Error(err))
		return err
	}

	if len(rows) == 0 {
		return nil
	}

	global.Logger.Info("HashBackfillMigrate: backfilling content hashes", zap.Int("count", len(rows)))

	for _, row := range rows {
		hash := util.EncodeNoteHash(row.Title, row.Body)
		if err := db.WithContext(ctx).Table("note_version").
			Where("id = ?", row.ID).
			Update("content_hash", hash).Error; err != nil {
			global.Logger.Error("HashBackfillMigrate: failed to update version",
				zap.Int64("id", row.ID), zap.Error(err))
			return err
		}
	}

	return nil
}
