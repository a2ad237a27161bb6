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

// shareRepository 实现 domain.ShareRepository 接口
type shareRepository struct {
	dao             *Dao
	customPrefixKey string
}

// NewShareRepository 创建 ShareRepository 实例
func NewShareRepository(dao *Dao) domain.ShareRepository {
	return &shareRepository{dao: dao, customPrefixKey: "user_note_share_"}
}

func (r *shareRepository) GetKey(uid int64) string {
	return r.customPrefixKey + strconv.FormatInt(uid, 10)
}

// noteShare 获取分享表连接
func (r *shareRepository) noteShare() *gorm.DB {
	return r.dao.Use("NoteShare")
}

// toDomain 将数据库模型转换为领域模型
func (r *shareRepository) toDomain(m *model.NoteShare) *domain.NoteShare {
	if m == nil {
		return nil
	}
	return &domain.NoteShare{
		ID:         m.ID,
		NoteID:     m.NoteID,
		OwnerUID:   m.OwnerUID,
		TargetUID:  m.TargetUID,
		Permission: domain.SharePermission(m.Permission),
		CreatedAt:  time.Time(m.CreatedAt),
		UpdatedAt:  time.Time(m.UpdatedAt),
	}
}

func (r *shareRepository) Create(ctx context.Context, share *domain.NoteShare) (*domain.NoteShare, error) {
	var result *domain.NoteShare
	err := r.dao.ExecuteWrite(ctx, share.OwnerUID, r, func(db *gorm.DB) error {
		now := timex.Now()
		m := &model.NoteShare{
			NoteID:     share.NoteID,
			OwnerUID:   share.OwnerUID,
			TargetUID:  share.TargetUID,
			Permission: string(share.Permission),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := r.noteShare().WithContext(ctx).Create(m).Error; err != nil {
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

func (r *shareRepository) Get(ctx context.Context, noteID, targetUID int64) (*domain.NoteShare, error) {
	var m model.NoteShare
	err := r.noteShare().WithContext(ctx).
		Where("note_id = ? AND target_uid = ?", noteID, targetUID).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&m), nil
}

func (r *shareRepository) ListByNote(ctx context.Context, noteID int64) ([]*domain.NoteShare, error) {
	var modelList []*model.NoteShare
	err := r.noteShare().WithContext(ctx).
		Where("note_id = ?", noteID).
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var results []*domain.NoteShare
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

func (r *shareRepository) ListByTarget(ctx context.Context, targetUID int64) ([]*domain.NoteShare, error) {
	var modelList []*model.NoteShare
	err := r.noteShare().WithContext(ctx).
		Where("target_uid = ?", targetUID).
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var results []*domain.NoteShare
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

func (r *shareRepository) Delete(ctx context.Context, noteID, targetUID int64) error {
	return r.dao.ExecuteWrite(ctx, targetUID, r, func(db *gorm.DB) error {
		return r.noteShare().WithContext(ctx).
			Where("note_id = ? AND target_uid = ?", noteID, targetUID).
			Delete(&model.NoteShare{}).Error
	})
}

// Ensure shareRepository implements domain.ShareRepository interface
var _ domain.ShareRepository = (*shareRepository)(nil)
