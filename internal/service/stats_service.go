package service

import (
	"context"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
)

// StatsService 汇总引擎运行统计，管理端点使用
type StatsService interface {
	// Overview 统计笔记、版本、冲突与活跃会话数量
	Overview(ctx context.Context) (*dto.SystemStatsDTO, error)
}

type statsService struct {
	noteRepo     domain.NoteRepository
	versionRepo  domain.VersionRepository
	conflictRepo domain.ConflictRepository
	editing      EditingService
}

// NewStatsService 创建 StatsService 实例
func NewStatsService(noteRepo domain.NoteRepository, versionRepo domain.VersionRepository, conflictRepo domain.ConflictRepository, editing EditingService) StatsService {
	return &statsService{
		noteRepo:     noteRepo,
		versionRepo:  versionRepo,
		conflictRepo: conflictRepo,
		editing:      editing,
	}
}

// Overview 统计笔记、版本、冲突与活跃会话数量
func (s *statsService) Overview(ctx context.Context) (*dto.SystemStatsDTO, error) {
	noteCount, err := s.noteRepo.Count(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	versionCount, err := s.versionRepo.Count(ctx)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	pending, err := s.conflictRepo.CountByStatus(ctx, domain.ConflictStatusPending)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	resolvedManual, err := s.conflictRepo.CountByStatus(ctx, domain.ConflictStatusResolvedManual)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	resolvedAutomatic, err := s.conflictRepo.CountByStatus(ctx, domain.ConflictStatusResolvedAutomatic)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	ignored, err := s.conflictRepo.CountByStatus(ctx, domain.ConflictStatusIgnored)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	return &dto.SystemStatsDTO{
		NoteCount:         noteCount,
		VersionCount:      versionCount,
		PendingConflicts:  pending,
		ResolvedConflicts: resolvedManual + resolvedAutomatic,
		IgnoredConflicts:  ignored,
		ActiveSessions:    int64(s.editing.ActiveSessionTotal()),
	}, nil
}

var _ StatsService = (*statsService)(nil)
