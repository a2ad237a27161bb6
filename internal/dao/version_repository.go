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

// versionRepository 实现 domain.VersionRepository 接口
type versionRepository struct {
	dao             *Dao
	customPrefixKey string
}

// NewVersionRepository 创建 VersionRepository 实例
func NewVersionRepository(dao *Dao) domain.VersionRepository {
	return &versionRepository{dao: dao, customPrefixKey: "user_note_version_"}
}

func (r *versionRepository) GetKey(uid int64) string {
	return r.customPrefixKey + strconv.FormatInt(uid, 10)
}

// noteVersion 获取版本表连接
func (r *versionRepository) noteVersion() *gorm.DB {
	return r.dao.Use("NoteVersion")
}

// toDomain 将数据库模型转换为领域模型
func (r *versionRepository) toDomain(m *model.NoteVersion) *domain.NoteVersion {
	if m == nil {
		return nil
	}
	return &domain.NoteVersion{
		ID:              m.ID,
		NoteID:          m.NoteID,
		UID:             m.UID,
		DeviceID:        m.DeviceID,
		Title:           m.Title,
		Body:            m.Body,
		SequenceNumber:  m.SequenceNumber,
		ContentHash:     m.ContentHash,
		SyncStatus:      domain.SyncStatus(m.SyncStatus),
		ParentVersionID: m.ParentVersionID,
		CreatedAt:       time.Time(m.CreatedAt),
	}
}

// toModel 将领域模型转换为数据库模型
func (r *versionRepository) toModel(v *domain.NoteVersion) *model.NoteVersion {
	if v == nil {
		return nil
	}
	return &model.NoteVersion{
		ID:              v.ID,
		NoteID:          v.NoteID,
		UID:             v.UID,
		DeviceID:        v.DeviceID,
		Title:           v.Title,
		Body:            v.Body,
		SequenceNumber:  v.SequenceNumber,
		ContentHash:     v.ContentHash,
		SyncStatus:      string(v.SyncStatus),
		ParentVersionID: v.ParentVersionID,
		CreatedAt:       timex.Time(v.CreatedAt),
	}
}

func (r *versionRepository) GetByID(ctx context.Context, id int64) (*domain.NoteVersion, error) {
	var m model.NoteVersion
	err := r.noteVersion().WithContext(ctx).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *versionRepository) GetByNoteAndHash(ctx context.Context, noteID int64, contentHash string) (*domain.NoteVersion, error) {
	var m model.NoteVersion
	err := r.noteVersion().WithContext(ctx).
		Where("note_id = ? AND content_hash = ?", noteID, contentHash).
		Order("sequence_number DESC").
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建版本
// 序号在事务内按当前最大值加一分配，作为单一序列化点保证单调递增
func (r *versionRepository) Create(ctx context.Context, version *domain.NoteVersion, history *domain.NoteHistory, uid int64) (*domain.NoteVersion, error) {
	// 确保两张表均已迁移
	r.noteVersion()
	r.dao.Use("NoteHistory")

	var result *domain.NoteVersion
	err := r.dao.ExecuteWriteTx(ctx, uid, r, func(tx *gorm.DB) error {
		m := r.toModel(version)
		m.CreatedAt = timex.Now()
		if m.SyncStatus == "" {
			m.SyncStatus = string(domain.SyncStatusPending)
		}
		if m.SequenceNumber == 0 {
			var maxSeq int64
			err := tx.Model(&model.NoteVersion{}).
				Where("note_id = ?", m.NoteID).
				Select("COALESCE(MAX(sequence_number), 0)").
				Scan(&maxSeq).Error
			if err != nil {
				return err
			}
			m.SequenceNumber = maxSeq + 1
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		if history != nil {
			hm := &model.NoteHistory{
				NoteID:     history.NoteID,
				UID:        history.UID,
				VersionID:  m.ID,
				ConflictID: history.ConflictID,
				DeviceID:   history.DeviceID,
				Action:     string(history.Action),
				Detail:     history.Detail,
				Metadata:   history.Metadata,
				CreatedAt:  timex.Now(),
			}
			if err := tx.Create(hm).Error; err != nil {
				return err
			}
		}

		result = r.toDomain(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *versionRepository) UpdateSyncStatus(ctx context.Context, versionID int64, status domain.SyncStatus, uid int64) error {
	return r.dao.ExecuteWrite(ctx, uid, r, func(db *gorm.DB) error {
		return r.noteVersion().WithContext(ctx).
			Model(&model.NoteVersion{}).
			Where("id = ?", versionID).
			Update("sync_status", string(status)).Error
	})
}

func (r *versionRepository) ListByNote(ctx context.Context, noteID int64, limit int) ([]*domain.NoteVersion, error) {
	q := r.noteVersion().WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("sequence_number DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var modelList []*model.NoteVersion
	if err := q.Find(&modelList).Error; err != nil {
		return nil, err
	}

	var results []*domain.NoteVersion
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

func (r *versionRepository) ListByNoteAndStatuses(ctx context.Context, noteID int64, statuses []domain.SyncStatus) ([]*domain.NoteVersion, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}

	var modelList []*model.NoteVersion
	err := r.noteVersion().WithContext(ctx).
		Where("note_id = ? AND sync_status IN ?", noteID, values).
		Order("created_at ASC, id ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var results []*domain.NoteVersion
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

func (r *versionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.noteVersion().WithContext(ctx).
		Model(&model.NoteVersion{}).
		Count(&count).Error
	return count, err
}

// Ensure versionRepository implements domain.VersionRepository interface
var _ domain.VersionRepository = (*versionRepository)(nil)
