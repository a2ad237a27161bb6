package dao

import (
	"context"
	"strconv"
	"time"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/model"
	"github.com/notesphere/note-sync-service/pkg/app"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"gorm.io/gorm"
)

// noteRepository 实现 domain.NoteRepository 接口
type noteRepository struct {
	dao             *Dao
	customPrefixKey string
}

// NewNoteRepository 创建 NoteRepository 实例
func NewNoteRepository(dao *Dao) domain.NoteRepository {
	return &noteRepository{dao: dao, customPrefixKey: "user_note_"}
}

func (r *noteRepository) GetKey(uid int64) string {
	return r.customPrefixKey + strconv.FormatInt(uid, 10)
}

// note 获取笔记表连接
func (r *noteRepository) note() *gorm.DB {
	return r.dao.Use("Note")
}

// toDomain 将数据库模型转换为领域模型
func (r *noteRepository) toDomain(m *model.Note) *domain.Note {
	if m == nil {
		return nil
	}
	return &domain.Note{
		ID:               m.ID,
		UID:              m.UID,
		Title:            m.Title,
		CurrentVersionID: m.CurrentVersionID,
		CurrentSequence:  m.CurrentSequence,
		LastEditorUID:    m.LastEditorUID,
		IsPrivate:        m.IsPrivate == 1,
		IsDeleted:        m.IsDeleted == 1,
		CreatedAt:        time.Time(m.CreatedAt),
		UpdatedAt:        time.Time(m.UpdatedAt),
	}
}

// toModel 将领域模型转换为数据库模型
func (r *noteRepository) toModel(note *domain.Note) *model.Note {
	if note == nil {
		return nil
	}
	m := &model.Note{
		ID:               note.ID,
		UID:              note.UID,
		Title:            note.Title,
		CurrentVersionID: note.CurrentVersionID,
		CurrentSequence:  note.CurrentSequence,
		LastEditorUID:    note.LastEditorUID,
		CreatedAt:        timex.Time(note.CreatedAt),
		UpdatedAt:        timex.Time(note.UpdatedAt),
	}
	if note.IsPrivate {
		m.IsPrivate = 1
	}
	if note.IsDeleted {
		m.IsDeleted = 1
	}
	return m
}

func (r *noteRepository) GetByID(ctx context.Context, id int64) (*domain.Note, error) {
	var m model.Note
	err := r.note().WithContext(ctx).
		Where("id = ? AND is_deleted = 0", id).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note, uid int64) (*domain.Note, error) {
	var result *domain.Note
	err := r.dao.ExecuteWrite(ctx, uid, r, func(db *gorm.DB) error {
		m := r.toModel(note)
		m.CreatedAt = timex.Now()
		m.UpdatedAt = timex.Now()
		if err := r.note().WithContext(ctx).Create(m).Error; err != nil {
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

func (r *noteRepository) UpdateCurrentVersion(ctx context.Context, noteID, versionID, sequence int64, title string, editorUID int64) error {
	return r.dao.ExecuteWrite(ctx, editorUID, r, func(db *gorm.DB) error {
		return r.note().WithContext(ctx).
			Model(&model.Note{}).
			Where("id = ?", noteID).
			Updates(map[string]interface{}{
				"current_version_id": versionID,
				"current_sequence":   sequence,
				"title":              title,
				"last_editor_uid":    editorUID,
				"updated_at":         timex.Now(),
			}).Error
	})
}

func (r *noteRepository) UpdatePrivacy(ctx context.Context, noteID int64, isPrivate bool, uid int64) error {
	return r.dao.ExecuteWrite(ctx, uid, r, func(db *gorm.DB) error {
		v := int64(0)
		if isPrivate {
			v = 1
		}
		return r.note().WithContext(ctx).
			Model(&model.Note{}).
			Where("id = ?", noteID).
			Updates(map[string]interface{}{
				"is_private": v,
				"updated_at": timex.Now(),
			}).Error
	})
}

func (r *noteRepository) List(ctx context.Context, uid int64, page, pageSize int) ([]*domain.Note, error) {
	var modelList []*model.Note
	err := r.note().WithContext(ctx).
		Where("uid = ? AND is_deleted = 0", uid).
		Order("updated_at DESC").
		Limit(pageSize).
		Offset(app.GetPageOffset(page, pageSize)).
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var results []*domain.Note
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

func (r *noteRepository) ListCount(ctx context.Context, uid int64) (int64, error) {
	var count int64
	err := r.note().WithContext(ctx).
		Model(&model.Note{}).
		Where("uid = ? AND is_deleted = 0", uid).
		Count(&count).Error
	return count, err
}

func (r *noteRepository) ListAllByUID(ctx context.Context, uid int64) ([]*domain.Note, error) {
	var modelList []*model.Note
	err := r.note().WithContext(ctx).
		Where("uid = ? AND is_deleted = 0", uid).
		Order("id ASC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var results []*domain.Note
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

// ListIDsWithPendingVersions 扫描近期有待同步版本的笔记
func (r *noteRepository) ListIDsWithPendingVersions(ctx context.Context, since time.Time) ([]int64, error) {
	var noteIDs []int64
	err := r.dao.Use("NoteVersion").WithContext(ctx).
		Model(&model.NoteVersion{}).
		Where("sync_status = ? AND created_at >= ?", string(domain.SyncStatusPending), timex.Time(since)).
		Distinct().
		Pluck("note_id", &noteIDs).Error
	if err != nil {
		return nil, err
	}
	return noteIDs, nil
}

func (r *noteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.note().WithContext(ctx).
		Model(&model.Note{}).
		Where("is_deleted = 0").
		Count(&count).Error
	return count, err
}

// Ensure noteRepository implements domain.NoteRepository interface
var _ domain.NoteRepository = (*noteRepository)(nil)
