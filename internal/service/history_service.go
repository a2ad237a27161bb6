package service

import (
	"context"
	"time"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	"github.com/notesphere/note-sync-service/pkg/metrics"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"go.uber.org/zap"
)

// HistoryService 定义笔记历史业务服务接口
type HistoryService interface {
	// Add 追加历史记录
	// VersionID 为 0 时回填笔记当前版本指针；动作类型必须在枚举内
	Add(ctx context.Context, entry *domain.NoteHistory, uid int64) (*dto.HistoryDTO, error)

	// ForNote 获取笔记的历史记录，最新在前，数量受限
	ForNote(ctx context.Context, noteID int64, limit int) ([]*dto.HistoryDTO, error)

	// ForUser 获取用户的历史记录，最新在前，数量受限
	ForUser(ctx context.Context, uid int64, limit int) ([]*dto.HistoryDTO, error)

	// ActivityStats 统计窗口内按动作聚合的活动数量与参与用户数
	ActivityStats(ctx context.Context, noteID int64, windowHours int) ([]*dto.ActivityStatDTO, error)
}

type historyService struct {
	historyRepo domain.HistoryRepository
	noteRepo    domain.NoteRepository
	logger      *zap.Logger
	config      *SyncServiceConfig
}

// NewHistoryService 创建 HistoryService 实例
func NewHistoryService(historyRepo domain.HistoryRepository, noteRepo domain.NoteRepository, logger *zap.Logger, config *SyncServiceConfig) HistoryService {
	return &historyService{
		historyRepo: historyRepo,
		noteRepo:    noteRepo,
		logger:      logger,
		config:      config,
	}
}

func historyToDTO(h *domain.NoteHistory) *dto.HistoryDTO {
	if h == nil {
		return nil
	}
	return &dto.HistoryDTO{
		ID:         h.ID,
		NoteID:     h.NoteID,
		UID:        h.UID,
		VersionID:  h.VersionID,
		ConflictID: h.ConflictID,
		DeviceID:   h.DeviceID,
		Action:     string(h.Action),
		Detail:     h.Detail,
		Metadata:   h.Metadata,
		CreatedAt:  timex.Time(h.CreatedAt),
	}
}

// Add 追加历史记录
func (s *historyService) Add(ctx context.Context, entry *domain.NoteHistory, uid int64) (*dto.HistoryDTO, error) {
	if !entry.Action.Valid() {
		return nil, code.ErrorInvalidParams.WithDetails("unknown history action: " + string(entry.Action))
	}

	note, err := s.noteRepo.GetByID(ctx, entry.NoteID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if note == nil {
		return nil, code.ErrorNoteNotFound
	}

	// 未指定版本时挂到当前版本指针上
	if entry.VersionID == 0 {
		entry.VersionID = note.CurrentVersionID
	}

	created, err := s.historyRepo.Create(ctx, entry, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	metrics.HistoryEntries.Inc()
	return historyToDTO(created), nil
}

// ForNote 获取笔记的历史记录
func (s *historyService) ForNote(ctx context.Context, noteID int64, limit int) ([]*dto.HistoryDTO, error) {
	entries, err := s.historyRepo.ListByNote(ctx, noteID, s.clampLimit(limit))
	if err != nil {
		return nil, code.ErrorHistoryQueryFailed.WithDetails(err.Error())
	}
	return historyListToDTO(entries), nil
}

// ForUser 获取用户的历史记录
func (s *historyService) ForUser(ctx context.Context, uid int64, limit int) ([]*dto.HistoryDTO, error) {
	entries, err := s.historyRepo.ListByUser(ctx, uid, s.clampLimit(limit))
	if err != nil {
		return nil, code.ErrorHistoryQueryFailed.WithDetails(err.Error())
	}
	return historyListToDTO(entries), nil
}

// ActivityStats 统计窗口内按动作聚合的活动数量与参与用户数
func (s *historyService) ActivityStats(ctx context.Context, noteID int64, windowHours int) ([]*dto.ActivityStatDTO, error) {
	if windowHours <= 0 {
		windowHours = 24
	}
	since := time.Now().Add(-time.Duration(windowHours) * time.Hour)

	stats, err := s.historyRepo.Stats(ctx, noteID, since)
	if err != nil {
		return nil, code.ErrorHistoryQueryFailed.WithDetails(err.Error())
	}

	results := make([]*dto.ActivityStatDTO, 0, len(stats))
	for _, stat := range stats {
		results = append(results, &dto.ActivityStatDTO{
			Action:    string(stat.Action),
			Count:     stat.Count,
			UserCount: stat.UserCount,
		})
	}
	return results, nil
}

func (s *historyService) clampLimit(limit int) int {
	pageCap := s.config.historyPageCap()
	if limit <= 0 || limit > pageCap {
		return pageCap
	}
	return limit
}

func historyListToDTO(entries []*domain.NoteHistory) []*dto.HistoryDTO {
	var results []*dto.HistoryDTO
	for _, entry := range entries {
		results = append(results, historyToDTO(entry))
	}
	return results
}

var _ HistoryService = (*historyService)(nil)
