package dao

import (
	"context"
	"strconv"
	"time"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/model"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"gorm.io/gorm"
)

// historyRepository 实现 domain.HistoryRepository 接口
type historyRepository struct {
	dao             *Dao
	customPrefixKey string
}

// NewHistoryRepository 创建 HistoryRepository 实例
func NewHistoryRepository(dao *Dao) domain.HistoryRepository {
	return &historyRepository{dao: dao, customPrefixKey: "user_note_history_"}
}

func (r *historyRepository) GetKey(uid int64) string {
	return r.customPrefixKey + strconv.FormatInt(uid, 10)
}

// noteHistory 获取历史表连接
func (r *historyRepository) noteHistory() *gorm.DB {
	return r.dao.Use("NoteHistory")
}

// toDomain 将数据库模型转换为领域模型
func (r *historyRepository) toDomain(m *model.NoteHistory) *domain.NoteHistory {
	if m == nil {
		return nil
	}
	return &domain.NoteHistory{
		ID:         m.ID,
		NoteID:     m.NoteID,
		UID:        m.UID,
		VersionID:  m.VersionID,
		ConflictID: m.ConflictID,
		DeviceID:   m.DeviceID,
		Action:     domain.HistoryAction(m.Action),
		Detail:     m.Detail,
		Metadata:   m.Metadata,
		CreatedAt:  time.Time(m.CreatedAt),
	}
}

func (r *historyRepository) Create(ctx context.Context, history *domain.NoteHistory, uid int64) (*domain.NoteHistory, error) {
	var result *domain.NoteHistory
	err := r.dao.ExecuteWrite(ctx, uid, r, func(db *gorm.DB) error {
		m := &model.NoteHistory{
			NoteID:     history.NoteID,
			UID:        history.UID,
			VersionID:  history.VersionID,
			ConflictID: history.ConflictID,
			DeviceID:   history.DeviceID,
			Action:     string(history.Action),
			Detail:     history.Detail,
			Metadata:   history.Metadata,
			CreatedAt:  timex.Now(),
		}
		if err := r.noteHistory().WithContext(ctx).Create(m).Error; err != nil {
			return err
		}
		result = r.toDomain(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *historyRepository) ListByNote(ctx context.Context, noteID int64, limit int) ([]*domain.NoteHistory, error) {
	q := r.noteHistory().WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var modelList []*model.NoteHistory
	if err := q.Find(&modelList).Error; err != nil {
		return nil, err
	}

	var results []*domain.NoteHistory
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

func (r *historyRepository) ListByUser(ctx context.Context, uid int64, limit int) ([]*domain.NoteHistory, error) {
	q := r.noteHistory().WithContext(ctx).
		Where("uid = ?", uid).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var modelList []*model.NoteHistory
	if err := q.Find(&modelList).Error; err != nil {
		return nil, err
	}

	var results []*domain.NoteHistory
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

// Stats 统计时间窗口内按动作聚合的活动数量与参与用户数
func (r *historyRepository) Stats(ctx context.Context, noteID int64, since time.Time) ([]*domain.ActivityStat, error) {
	type statRow struct {
		Action    string
		Count     int64
		UserCount int64
	}

	var rows []statRow
	err := r.noteHistory().WithContext(ctx).
		Model(&model.NoteHistory{}).
		Select("action, COUNT(*) AS count, COUNT(DISTINCT uid) AS user_count").
		Where("note_id = ? AND created_at >= ?", noteID, timex.Time(since)).
		Group("action").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	results := make([]*domain.ActivityStat, 0, len(rows))
	for _, row := range rows {
		results = append(results, &domain.ActivityStat{
			Action:    domain.HistoryAction(row.Action),
			Count:     row.Count,
			UserCount: row.UserCount,
		})
	}
	return results, nil
}

// Ensure historyRepository implements domain.HistoryRepository interface
var _ domain.HistoryRepository = (*historyRepository)(nil)
