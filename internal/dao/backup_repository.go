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

// backupRepository 实现 domain.BackupRepository 接口
type backupRepository struct {
	dao             *Dao
	customPrefixKey string
}

// NewBackupRepository 创建 BackupRepository 实例
func NewBackupRepository(dao *Dao) domain.BackupRepository {
	return &backupRepository{dao: dao, customPrefixKey: "user_backup_"}
}

func (r *backupRepository) GetKey(uid int64) string {
	return r.customPrefixKey + strconv.FormatInt(uid, 10)
}

// backupHistory 获取备份历史表连接
func (r *backupRepository) backupHistory() *gorm.DB {
	return r.dao.Use("BackupHistory")
}

// toDomain 将数据库模型转换为领域模型
func (r *backupRepository) toDomain(m *model.BackupHistory) *domain.BackupHistory {
	if m == nil {
		return nil
	}
	h := &domain.BackupHistory{
		ID:          m.ID,
		UID:         m.UID,
		StorageType: m.StorageType,
		Status:      int(m.Status),
		FileSize:    m.FileSize,
		NoteCount:   m.NoteCount,
		Message:     m.Message,
		FilePath:    m.FilePath,
		CreatedAt:   time.Time(m.CreatedAt),
		UpdatedAt:   time.Time(m.UpdatedAt),
	}
	if m.StartTime > 0 {
		h.StartTime = time.UnixMilli(m.StartTime)
	}
	if m.EndTime > 0 {
		h.EndTime = time.UnixMilli(m.EndTime)
	}
	return h
}

// toModel 将领域模型转换为数据库模型
func (r *backupRepository) toModel(h *domain.BackupHistory) *model.BackupHistory {
	if h == nil {
		return nil
	}
	m := &model.BackupHistory{
		ID:          h.ID,
		UID:         h.UID,
		StorageType: h.StorageType,
		Status:      int64(h.Status),
		FileSize:    h.FileSize,
		NoteCount:   h.NoteCount,
		Message:     h.Message,
		FilePath:    h.FilePath,
		CreatedAt:   timex.Time(h.CreatedAt),
		UpdatedAt:   timex.Time(h.UpdatedAt),
	}
	if !h.StartTime.IsZero() {
		m.StartTime = h.StartTime.UnixMilli()
	}
	if !h.EndTime.IsZero() {
		m.EndTime = h.EndTime.UnixMilli()
	}
	return m
}

func (r *backupRepository) Create(ctx context.Context, history *domain.BackupHistory, uid int64) (*domain.BackupHistory, error) {
	var result *domain.BackupHistory
	err := r.dao.ExecuteWrite(ctx, uid, r, func(db *gorm.DB) error {
		m := r.toModel(history)
		m.UID = uid
		m.CreatedAt = timex.Now()
		m.UpdatedAt = timex.Now()
		if err := r.backupHistory().WithContext(ctx).Create(m).Error; err != nil {
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

func (r *backupRepository) Update(ctx context.Context, history *domain.BackupHistory, uid int64) error {
	return r.dao.ExecuteWrite(ctx, uid, r, func(db *gorm.DB) error {
		m := r.toModel(history)
		m.UpdatedAt = timex.Now()
		return r.backupHistory().WithContext(ctx).
			Where("id = ? AND uid = ?", m.ID, uid).
			Updates(m).Error
	})
}

func (r *backupRepository) ListByUID(ctx context.Context, uid int64, limit int) ([]*domain.BackupHistory, error) {
	q := r.backupHistory().WithContext(ctx).
		Where("uid = ?", uid).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var modelList []*model.BackupHistory
	if err := q.Find(&modelList).Error; err != nil {
		return nil, err
	}

	var results []*domain.BackupHistory
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

func (r *backupRepository) GetLatest(ctx context.Context, uid int64) (*domain.BackupHistory, error) {
	var m model.BackupHistory
	err := r.backupHistory().WithContext(ctx).
		Where("uid = ?", uid).
		Order("id DESC").
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Ensure backupRepository implements domain.BackupRepository interface
var _ domain.BackupRepository = (*backupRepository)(nil)
