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

// conflictRepository 实现 domain.ConflictRepository 接口
type conflictRepository struct {
	dao             *Dao
	customPrefixKey string
}

// NewConflictRepository 创建 ConflictRepository 实例
func NewConflictRepository(dao *Dao) domain.ConflictRepository {
	return &conflictRepository{dao: dao, customPrefixKey: "user_note_conflict_"}
}

func (r *conflictRepository) GetKey(uid int64) string {
	return r.customPrefixKey + strconv.FormatInt(uid, 10)
}

// noteConflict 获取冲突表连接
func (r *conflictRepository) noteConflict() *gorm.DB {
	return r.dao.Use("NoteConflict")
}

// toDomain 将数据库模型转换为领域模型
func (r *conflictRepository) toDomain(m *model.NoteConflict) *domain.NoteConflict {
	if m == nil {
		return nil
	}
	return &domain.NoteConflict{
		ID:                m.ID,
		NoteID:            m.NoteID,
		BaseVersionID:     m.BaseVersionID,
		LocalVersionID:    m.LocalVersionID,
		RemoteVersionID:   m.RemoteVersionID,
		LocalUID:          m.LocalUID,
		RemoteUID:         m.RemoteUID,
		Status:            domain.ConflictStatus(m.Status),
		ResolutionType:    domain.ResolutionType(m.ResolutionType),
		ResolvedVersionID: m.ResolvedVersionID,
		ResolvedBy:        m.ResolvedBy,
		DetectedAt:        time.Time(m.DetectedAt),
		ResolvedAt:        time.Time(m.ResolvedAt),
		CreatedAt:         time.Time(m.CreatedAt),
		UpdatedAt:         time.Time(m.UpdatedAt),
	}
}

func (r *conflictRepository) GetByID(ctx context.Context, id int64) (*domain.NoteConflict, error) {
	var m model.NoteConflict
	err := r.noteConflict().WithContext(ctx).
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

func (r *conflictRepository) GetDetail(ctx context.Context, id int64) (*domain.ConflictDetail, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}

	details, err := r.fillDetails(ctx, []*domain.NoteConflict{c})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

func (r *conflictRepository) ExistsPair(ctx context.Context, noteID, localVersionID, remoteVersionID int64) (bool, error) {
	var count int64
	err := r.noteConflict().WithContext(ctx).
		Model(&model.NoteConflict{}).
		Where("note_id = ? AND ((local_version_id = ? AND remote_version_id = ?) OR (local_version_id = ? AND remote_version_id = ?))",
			noteID, localVersionID, remoteVersionID, remoteVersionID, localVersionID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建冲突记录
// 事务内同时将两侧版本标记为 conflict 并追加历史记录
func (r *conflictRepository) Create(ctx context.Context, conflict *domain.NoteConflict, history *domain.NoteHistory, uid int64) (*domain.NoteConflict, error) {
	// 确保涉及的表均已迁移
	r.noteConflict()
	r.dao.Use("NoteVersion")
	r.dao.Use("NoteHistory")

	var result *domain.NoteConflict
	err := r.dao.ExecuteWriteTx(ctx, uid, r, func(tx *gorm.DB) error {
		now := timex.Now()
		m := &model.NoteConflict{
			NoteID:          conflict.NoteID,
			BaseVersionID:   conflict.BaseVersionID,
			LocalVersionID:  conflict.LocalVersionID,
			RemoteVersionID: conflict.RemoteVersionID,
			LocalUID:        conflict.LocalUID,
			RemoteUID:       conflict.RemoteUID,
			Status:          string(domain.ConflictStatusPending),
			DetectedAt:      now,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		err := tx.Model(&model.NoteVersion{}).
			Where("id IN ?", []int64{conflict.LocalVersionID, conflict.RemoteVersionID}).
			Update("sync_status", string(domain.SyncStatusConflict)).Error
		if err != nil {
			return err
		}

		if history != nil {
			hm := &model.NoteHistory{
				NoteID:     history.NoteID,
				UID:        history.UID,
				VersionID:  history.VersionID,
				ConflictID: m.ID,
				DeviceID:   history.DeviceID,
				Action:     string(history.Action),
				Detail:     history.Detail,
				Metadata:   history.Metadata,
				CreatedAt:  now,
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

func (r *conflictRepository) ListPendingByUser(ctx context.Context, uid int64, limit int) ([]*domain.ConflictDetail, error) {
	q := r.noteConflict().WithContext(ctx).
		Where("status = ? AND (local_uid = ? OR remote_uid = ?)", string(domain.ConflictStatusPending), uid, uid).
		Order("detected_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var modelList []*model.NoteConflict
	if err := q.Find(&modelList).Error; err != nil {
		return nil, err
	}

	conflicts := make([]*domain.NoteConflict, 0, len(modelList))
	for _, m := range modelList {
		conflicts = append(conflicts, r.toDomain(m))
	}
	return r.fillDetails(ctx, conflicts)
}

func (r *conflictRepository) ListByNote(ctx context.Context, noteID int64) ([]*domain.NoteConflict, error) {
	var modelList []*model.NoteConflict
	err := r.noteConflict().WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("detected_at DESC, id DESC").
		Find(&modelList).Error
	if err != nil {
		return nil, err
	}

	var results []*domain.NoteConflict
	for _, m := range modelList {
		results = append(results, r.toDomain(m))
	}
	return results, nil
}

// fillDetails 批量装配冲突的展示信息
func (r *conflictRepository) fillDetails(ctx context.Context, conflicts []*domain.NoteConflict) ([]*domain.ConflictDetail, error) {
	if len(conflicts) == 0 {
		return nil, nil
	}

	versionIDs := make([]int64, 0, len(conflicts)*2)
	noteIDs := make([]int64, 0, len(conflicts))
	uids := make([]int64, 0, len(conflicts)*2)
	for _, c := range conflicts {
		versionIDs = append(versionIDs, c.LocalVersionID, c.RemoteVersionID)
		noteIDs = append(noteIDs, c.NoteID)
		uids = append(uids, c.LocalUID, c.RemoteUID)
	}

	var versions []*model.NoteVersion
	err := r.dao.Use("NoteVersion").WithContext(ctx).
		Where("id IN ?", versionIDs).
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	versionByID := make(map[int64]*model.NoteVersion, len(versions))
	for _, v := range versions {
		versionByID[v.ID] = v
	}

	var notes []*model.Note
	err = r.dao.Use("Note").WithContext(ctx).
		Where("id IN ?", noteIDs).
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	noteByID := make(map[int64]*model.Note, len(notes))
	for _, n := range notes {
		noteByID[n.ID] = n
	}

	var users []*model.User
	err = r.dao.Use("User").WithContext(ctx).
		Where("uid IN ?", uids).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	nameByUID := make(map[int64]string, len(users))
	for _, u := range users {
		nameByUID[u.UID] = u.Username
	}

	details := make([]*domain.ConflictDetail, 0, len(conflicts))
	for _, c := range conflicts {
		d := &domain.ConflictDetail{
			Conflict:     c,
			LocalAuthor:  nameByUID[c.LocalUID],
			RemoteAuthor: nameByUID[c.RemoteUID],
		}
		if n, ok := noteByID[c.NoteID]; ok {
			d.NoteTitle = n.Title
		}
		if v, ok := versionByID[c.LocalVersionID]; ok {
			d.LocalTitle = v.Title
			d.LocalBody = v.Body
			d.LocalCreatedAt = time.Time(v.CreatedAt)
		}
		if v, ok := versionByID[c.RemoteVersionID]; ok {
			d.RemoteTitle = v.Title
			d.RemoteBody = v.Body
			d.RemoteCreatedAt = time.Time(v.CreatedAt)
		}
		details = append(details, d)
	}
	return details, nil
}

// ApplyResolution 原子执行冲突解决计划
// 状态推进使用 status = pending 条件更新，未命中即他人已解决，
// 返回 domain.ErrConflictNotPending 并回滚整个事务
func (r *conflictRepository) ApplyResolution(ctx context.Context, plan *domain.ResolutionPlan, uid int64) (*domain.ResolutionResult, error) {
	// 确保涉及的表均已迁移
	r.noteConflict()
	r.dao.Use("NoteVersion")
	r.dao.Use("Note")
	r.dao.Use("NoteHistory")

	var result *domain.ResolutionResult
	err := r.dao.ExecuteWriteTx(ctx, uid, r, func(tx *gorm.DB) error {
		now := timex.Time(plan.ResolvedAt)
		resolvedVersionID := plan.ResolvedVersionID

		res := tx.Model(&model.NoteConflict{}).
			Where("id = ? AND status = ?", plan.ConflictID, string(domain.ConflictStatusPending)).
			Updates(map[string]interface{}{
				"status":              string(plan.Status),
				"resolution_type":     string(plan.ResolutionType),
				"resolved_version_id": resolvedVersionID,
				"resolved_by":         plan.ResolvedBy,
				"resolved_at":         now,
				"updated_at":          now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrConflictNotPending
		}

		for _, change := range plan.StatusChanges {
			err := tx.Model(&model.NoteVersion{}).
				Where("id = ?", change.VersionID).
				Update("sync_status", string(change.Status)).Error
			if err != nil {
				return err
			}
		}

		pointerVersionID := plan.PointerVersionID
		pointerSequence := plan.PointerSequence
		pointerTitle := plan.PointerTitle

		if plan.MergeVersion != nil {
			mv := plan.MergeVersion
			m := &model.NoteVersion{
				NoteID:          mv.NoteID,
				UID:             mv.UID,
				DeviceID:        mv.DeviceID,
				Title:           mv.Title,
				Body:            mv.Body,
				ContentHash:     mv.ContentHash,
				SyncStatus:      string(mv.SyncStatus),
				ParentVersionID: mv.ParentVersionID,
				CreatedAt:       timex.Now(),
			}
			var maxSeq int64
			err := tx.Model(&model.NoteVersion{}).
				Where("note_id = ?", m.NoteID).
				Select("COALESCE(MAX(sequence_number), 0)").
				Scan(&maxSeq).Error
			if err != nil {
				return err
			}
			m.SequenceNumber = maxSeq + 1
			if err := tx.Create(m).Error; err != nil {
				return err
			}

			resolvedVersionID = m.ID
			pointerVersionID = m.ID
			pointerSequence = m.SequenceNumber
			pointerTitle = m.Title

			err = tx.Model(&model.NoteConflict{}).
				Where("id = ?", plan.ConflictID).
				Update("resolved_version_id", resolvedVersionID).Error
			if err != nil {
				return err
			}
		}

		var separatedNoteIDs []int64
		for _, sn := range plan.SeparatedNotes {
			nm := &model.Note{
				UID:           sn.Note.UID,
				Title:         sn.Note.Title,
				LastEditorUID: sn.Note.LastEditorUID,
				IsPrivate:     1,
				CreatedAt:     timex.Now(),
				UpdatedAt:     timex.Now(),
			}
			if err := tx.Create(nm).Error; err != nil {
				return err
			}

			vm := &model.NoteVersion{
				NoteID:         nm.ID,
				UID:            sn.Version.UID,
				DeviceID:       sn.Version.DeviceID,
				Title:          sn.Version.Title,
				Body:           sn.Version.Body,
				SequenceNumber: 1,
				ContentHash:    sn.Version.ContentHash,
				SyncStatus:     string(sn.Version.SyncStatus),
				CreatedAt:      timex.Now(),
			}
			if err := tx.Create(vm).Error; err != nil {
				return err
			}

			err := tx.Model(&model.Note{}).
				Where("id = ?", nm.ID).
				Updates(map[string]interface{}{
					"current_version_id": vm.ID,
					"current_sequence":   vm.SequenceNumber,
				}).Error
			if err != nil {
				return err
			}
			separatedNoteIDs = append(separatedNoteIDs, nm.ID)
		}

		if pointerVersionID != 0 {
			err := tx.Model(&model.Note{}).
				Where("id = ?", plan.NoteID).
				Updates(map[string]interface{}{
					"current_version_id": pointerVersionID,
					"current_sequence":   pointerSequence,
					"title":              pointerTitle,
					"last_editor_uid":    plan.ResolvedBy,
					"updated_at":         now,
				}).Error
			if err != nil {
				return err
			}
		}

		if plan.History != nil {
			h := plan.History
			versionID := h.VersionID
			if versionID == 0 {
				versionID = resolvedVersionID
			}
			hm := &model.NoteHistory{
				NoteID:     h.NoteID,
				UID:        h.UID,
				VersionID:  versionID,
				ConflictID: plan.ConflictID,
				DeviceID:   h.DeviceID,
				Action:     string(h.Action),
				Detail:     h.Detail,
				Metadata:   h.Metadata,
				CreatedAt:  timex.Now(),
			}
			if err := tx.Create(hm).Error; err != nil {
				return err
			}
		}

		result = &domain.ResolutionResult{
			ConflictID:        plan.ConflictID,
			NoteID:            plan.NoteID,
			ResolutionType:    plan.ResolutionType,
			Status:            plan.Status,
			ResolvedVersionID: resolvedVersionID,
			SeparatedNoteIDs:  separatedNoteIDs,
			ResolvedAt:        plan.ResolvedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *conflictRepository) CountByStatus(ctx context.Context, status domain.ConflictStatus) (int64, error) {
	var count int64
	err := r.noteConflict().WithContext(ctx).
		Model(&model.NoteConflict{}).
		Where("status = ?", string(status)).
		Count(&count).Error
	return count, err
}

// Ensure conflictRepository implements domain.ConflictRepository interface
var _ domain.ConflictRepository = (*conflictRepository)(nil)
