// Package service 实现业务逻辑层
package service

import (
	"context"
	"fmt"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	pkgdiff "github.com/notesphere/note-sync-service/pkg/diff"
	"github.com/notesphere/note-sync-service/pkg/metrics"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"github.com/notesphere/note-sync-service/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// VersionService 定义版本存储业务服务接口
type VersionService interface {
	// Create 创建版本，内容哈希与已有版本相同时幂等返回已有版本
	// 返回值第一个 bool 表示是否真正插入了新版本
	Create(ctx context.Context, uid int64, params *dto.VersionCreateRequest) (bool, *dto.VersionDTO, error)

	// Get 获取单个版本
	Get(ctx context.Context, versionID int64) (*dto.VersionDTO, error)

	// GetCurrent 解析笔记当前版本指针，未设置时返回 nil
	GetCurrent(ctx context.Context, noteID int64) (*dto.VersionDTO, error)

	// SetCurrent 更新笔记的当前版本指针与最后编辑人
	// 不校验 versionId 是否属于 noteId，由调用方保证
	SetCurrent(ctx context.Context, uid int64, params *dto.VersionSetCurrentRequest) error

	// MarkSynchronized 将版本同步状态置为 synchronized
	MarkSynchronized(ctx context.Context, versionID int64) error

	// History 获取笔记的版本历史，最新在前，数量受限
	History(ctx context.Context, noteID int64, limit int) ([]*dto.VersionDTO, error)

	// Compare 比较两个版本，任一版本不存在时返回 NotFound
	Compare(ctx context.Context, idA, idB int64) (*dto.VersionCompareDTO, error)
}

// versionService 实现 VersionService 接口
type versionService struct {
	versionRepo domain.VersionRepository
	noteRepo    domain.NoteRepository
	sf          *singleflight.Group
	logger      *zap.Logger
	config      *SyncServiceConfig
}

// NewVersionService 创建 VersionService 实例
func NewVersionService(versionRepo domain.VersionRepository, noteRepo domain.NoteRepository, logger *zap.Logger, config *SyncServiceConfig) VersionService {
	return &versionService{
		versionRepo: versionRepo,
		noteRepo:    noteRepo,
		sf:          &singleflight.Group{},
		logger:      logger,
		config:      config,
	}
}

// domainToDTO 将领域模型转换为 DTO
func (s *versionService) domainToDTO(v *domain.NoteVersion) *dto.VersionDTO {
	if v == nil {
		return nil
	}
	return &dto.VersionDTO{
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

// Create 创建版本，内容哈希与已有版本相同时幂等返回已有版本
func (s *versionService) Create(ctx context.Context, uid int64, params *dto.VersionCreateRequest) (bool, *dto.VersionDTO, error) {
	note, err := s.noteRepo.GetByID(ctx, params.NoteID)
	if err != nil {
		return false, nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if note == nil {
		return false, nil, code.ErrorNoteNotFound
	}

	contentHash := util.EncodeNoteHash(params.Title, params.Body)

	// 同一笔记下已有相同哈希的版本时直接复用，不产生新行也不推进序号
	existing, err := s.versionRepo.GetByNoteAndHash(ctx, params.NoteID, contentHash)
	if err != nil {
		return false, nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if existing != nil {
		metrics.VersionsDeduplicated.Inc()
		return false, s.domainToDTO(existing), nil
	}

	// 检查-插入之间的竞态允许产生近重复版本，后续检测为相似度 1.0 的冲突
	latest, err := s.versionRepo.ListByNote(ctx, params.NoteID, 1)
	if err != nil {
		return false, nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	history := &domain.NoteHistory{
		NoteID:   params.NoteID,
		UID:      uid,
		DeviceID: params.DeviceID,
		Action:   domain.HistoryActionEdited,
		Detail:   fmt.Sprintf("note edited: %s", params.Title),
	}
	if len(latest) == 0 {
		history.Action = domain.HistoryActionCreated
		history.Detail = fmt.Sprintf("note created: %s", params.Title)
	}

	version := &domain.NoteVersion{
		NoteID:          params.NoteID,
		UID:             uid,
		DeviceID:        params.DeviceID,
		Title:           params.Title,
		Body:            params.Body,
		ContentHash:     contentHash,
		SyncStatus:      domain.SyncStatusPending,
		ParentVersionID: params.ParentVersionID,
	}

	created, err := s.versionRepo.Create(ctx, version, history, uid)
	if err != nil {
		return false, nil, code.ErrorVersionCreateFailed.WithDetails(err.Error())
	}

	metrics.VersionsCreated.Inc()
	metrics.HistoryEntries.Inc()
	return true, s.domainToDTO(created), nil
}

// Get 获取单个版本
func (s *versionService) Get(ctx context.Context, versionID int64) (*dto.VersionDTO, error) {
	v, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if v == nil {
		return nil, code.ErrorVersionNotFound
	}
	return s.domainToDTO(v), nil
}

// GetCurrent 解析笔记当前版本指针，未设置时返回 nil
// 并发读同一笔记时经 singleflight 合并
func (s *versionService) GetCurrent(ctx context.Context, noteID int64) (*dto.VersionDTO, error) {
	key := fmt.Sprintf("version_current_%d", noteID)
	v, err, _ := s.sf.Do(key, func() (any, error) {
		note, err := s.noteRepo.GetByID(ctx, noteID)
		if err != nil {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}
		if note == nil {
			return nil, code.ErrorNoteNotFound
		}
		if !note.HasCurrentVersion() {
			return (*dto.VersionDTO)(nil), nil
		}
		current, err := s.versionRepo.GetByID(ctx, note.CurrentVersionID)
		if err != nil {
			return nil, code.ErrorDBQuery.WithDetails(err.Error())
		}
		return s.domainToDTO(current), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*dto.VersionDTO), nil
}

// SetCurrent 更新笔记的当前版本指针与最后编辑人
func (s *versionService) SetCurrent(ctx context.Context, uid int64, params *dto.VersionSetCurrentRequest) error {
	version, err := s.versionRepo.GetByID(ctx, params.VersionID)
	if err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	if version == nil {
		return code.ErrorVersionNotFound
	}

	if err := s.noteRepo.UpdateCurrentVersion(ctx, params.NoteID, version.ID, version.SequenceNumber, version.Title, uid); err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	return nil
}

// MarkSynchronized 将版本同步状态置为 synchronized
func (s *versionService) MarkSynchronized(ctx context.Context, versionID int64) error {
	v, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	if v == nil {
		return code.ErrorVersionNotFound
	}
	if err := s.versionRepo.UpdateSyncStatus(ctx, versionID, domain.SyncStatusSynchronized, v.UID); err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	return nil
}

// History 获取笔记的版本历史，最新在前，数量受限
func (s *versionService) History(ctx context.Context, noteID int64, limit int) ([]*dto.VersionDTO, error) {
	pageCap := s.config.historyPageCap()
	if limit <= 0 || limit > pageCap {
		limit = pageCap
	}

	versions, err := s.versionRepo.ListByNote(ctx, noteID, limit)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	var results []*dto.VersionDTO
	for _, v := range versions {
		results = append(results, s.domainToDTO(v))
	}
	return results, nil
}

// Compare 比较两个版本，任一版本不存在时返回 NotFound
func (s *versionService) Compare(ctx context.Context, idA, idB int64) (*dto.VersionCompareDTO, error) {
	a, err := s.versionRepo.GetByID(ctx, idA)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if a == nil {
		return nil, code.ErrorVersionNotFound.WithDetails(fmt.Sprintf("version %d not found", idA))
	}

	b, err := s.versionRepo.GetByID(ctx, idB)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if b == nil {
		return nil, code.ErrorVersionNotFound.WithDetails(fmt.Sprintf("version %d not found", idB))
	}

	delta := b.CreatedAt.Sub(a.CreatedAt)
	if delta < 0 {
		delta = -delta
	}

	result := &dto.VersionCompareDTO{
		TitleChanged:   a.Title != b.Title,
		ContentChanged: a.ContentHash != b.ContentHash,
		TimeDeltaMs:    delta.Milliseconds(),
	}
	if result.ContentChanged {
		result.Diff = pkgdiff.PrettyDiff(a.Body, b.Body)
	}
	return result, nil
}

// 确保 versionService 实现了 VersionService 接口
var _ VersionService = (*versionService)(nil)
