package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	pkgdiff "github.com/notesphere/note-sync-service/pkg/diff"
	"github.com/notesphere/note-sync-service/pkg/metrics"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"github.com/notesphere/note-sync-service/pkg/util"
	"go.uber.org/zap"
)

// ResolutionService 定义冲突解决业务服务接口
type ResolutionService interface {
	// Resolve 按指定策略解决冲突
	// 解决动作在单个事务内生效，终态冲突直接拒绝；
	// 事务内状态条件更新未命中时按已解决处理
	Resolve(ctx context.Context, uid int64, params *dto.ConflictResolveRequest) (*dto.ResolutionResultDTO, error)

	// Ignore 将冲突置为 ignored 终态，不移动指针也不改版本状态
	Ignore(ctx context.Context, uid, conflictID int64) (*dto.ResolutionResultDTO, error)

	// ResolveAutomatically 按规则自动挑选策略并解决冲突
	// 两侧版本创建时间相差超限或高相似度时保留较新版本，其余拆分为独立笔记
	ResolveAutomatically(ctx context.Context, uid, conflictID int64) (*dto.ResolutionResultDTO, error)

	// Suggestions 生成解决建议列表，按置信度降序
	Suggestions(ctx context.Context, conflictID int64) ([]*dto.SuggestionDTO, error)
}

type resolutionService struct {
	conflictRepo domain.ConflictRepository
	versionRepo  domain.VersionRepository
	noteRepo     domain.NoteRepository
	pusher       EventPusher
	mirror       MirrorScheduler
	logger       *zap.Logger
	config       *SyncServiceConfig
}

// NewResolutionService 创建 ResolutionService 实例，mirror 可为 nil
func NewResolutionService(
	conflictRepo domain.ConflictRepository,
	versionRepo domain.VersionRepository,
	noteRepo domain.NoteRepository,
	pusher EventPusher,
	mirror MirrorScheduler,
	logger *zap.Logger,
	config *SyncServiceConfig,
) ResolutionService {
	if pusher == nil {
		pusher = NewNopPusher()
	}
	return &resolutionService{
		conflictRepo: conflictRepo,
		versionRepo:  versionRepo,
		noteRepo:     noteRepo,
		pusher:       pusher,
		mirror:       mirror,
		logger:       logger,
		config:       config,
	}
}

func resolutionResultToDTO(r *domain.ResolutionResult) *dto.ResolutionResultDTO {
	if r == nil {
		return nil
	}
	return &dto.ResolutionResultDTO{
		ConflictID:        r.ConflictID,
		NoteID:            r.NoteID,
		Status:            string(r.Status),
		ResolutionType:    string(r.ResolutionType),
		ResolvedVersionID: r.ResolvedVersionID,
		SeparatedNoteIDs:  r.SeparatedNoteIDs,
		ResolvedAt:        timex.Time(r.ResolvedAt),
	}
}

// Resolve 按指定策略解决冲突
func (s *resolutionService) Resolve(ctx context.Context, uid int64, params *dto.ConflictResolveRequest) (*dto.ResolutionResultDTO, error) {
	strategy, ok := domain.ParseResolutionType(params.Strategy)
	if !ok {
		return nil, code.ErrorConflictStrategyUnknown.WithDetails(params.Strategy)
	}

	var merge *domain.MergeData
	if strategy == domain.ResolutionManualMerge {
		if params.MergeTitle == "" || params.MergeBody == "" {
			return nil, code.ErrorMergeContentRequired
		}
		merge = &domain.MergeData{
			Title:    params.MergeTitle,
			Body:     params.MergeBody,
			DeviceID: params.DeviceID,
		}
	}

	return s.resolve(ctx, uid, params.ConflictID, strategy, merge, "")
}

// Ignore 将冲突置为 ignored 终态
func (s *resolutionService) Ignore(ctx context.Context, uid, conflictID int64) (*dto.ResolutionResultDTO, error) {
	conflict, err := s.loadPending(ctx, conflictID)
	if err != nil {
		return nil, err
	}

	plan := &domain.ResolutionPlan{
		ConflictID: conflict.ID,
		NoteID:     conflict.NoteID,
		Status:     domain.ConflictStatusIgnored,
		ResolvedBy: uid,
		ResolvedAt: time.Now(),
		History: &domain.NoteHistory{
			NoteID: conflict.NoteID,
			UID:    uid,
			Action: domain.HistoryActionConflictResolved,
			Detail: fmt.Sprintf("conflict %d ignored", conflict.ID),
		},
	}

	result, err := s.apply(ctx, uid, conflict, plan)
	if err != nil {
		return nil, err
	}
	return resolutionResultToDTO(result), nil
}

// ResolveAutomatically 按规则自动挑选策略并解决冲突
func (s *resolutionService) ResolveAutomatically(ctx context.Context, uid, conflictID int64) (*dto.ResolutionResultDTO, error) {
	conflict, err := s.loadPending(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	local, remote, err := s.loadSides(ctx, conflict)
	if err != nil {
		return nil, err
	}

	// 时间差取的是两侧版本的创建时间，与冲突何时被发现无关
	gap := creationGap(local.CreatedAt, remote.CreatedAt)
	similarity := pkgdiff.Similarity(local.Body, remote.Body)

	strategy := domain.ResolutionSeparateVersions
	if gap > s.config.autoResolveAge() || similarity > 0.8 {
		strategy = domain.ResolutionKeepLocal
		if remote.CreatedAt.After(local.CreatedAt) {
			strategy = domain.ResolutionKeepRemote
		}
	}

	// 自动解决的来源通过历史元数据标记，冲突状态与人工路径一致
	meta, _ := sonic.MarshalString(map[string]bool{"automatic": true})
	return s.resolve(ctx, uid, conflictID, strategy, nil, meta)
}

// Suggestions 生成解决建议列表，按置信度降序
func (s *resolutionService) Suggestions(ctx context.Context, conflictID int64) ([]*dto.SuggestionDTO, error) {
	detail, err := s.conflictRepo.GetDetail(ctx, conflictID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if detail == nil {
		return nil, code.ErrorConflictNotFound
	}

	gap := creationGap(detail.LocalCreatedAt, detail.RemoteCreatedAt)
	similarity := pkgdiff.Similarity(detail.LocalBody, detail.RemoteBody)

	var suggestions []*dto.SuggestionDTO
	if gap > s.config.autoResolveAge() {
		suggestions = append(suggestions, &dto.SuggestionDTO{
			Type:       string(domain.SuggestionKeepMostRecent),
			Confidence: 0.8,
			Reason:     fmt.Sprintf("the versions were created more than %s apart, the most recent edit is likely the intended one", s.config.autoResolveAge()),
		})
	}
	if similarity > 0.8 {
		suggestions = append(suggestions, &dto.SuggestionDTO{
			Type:         string(domain.SuggestionAutoMerge),
			Confidence:   0.7,
			Reason:       fmt.Sprintf("both versions are %.0f%% similar, merging is unlikely to lose content", similarity*100),
			MergePreview: s.mergePreview(ctx, detail),
		})
	}
	if similarity < 0.3 {
		suggestions = append(suggestions, &dto.SuggestionDTO{
			Type:       string(domain.SuggestionSeparateVersions),
			Confidence: 0.9,
			Reason:     "the versions diverged substantially, keeping both as separate notes preserves all content",
		})
	}
	suggestions = append(suggestions, &dto.SuggestionDTO{
		Type:       string(domain.SuggestionManualMerge),
		Confidence: 0.6,
		Reason:     "review both versions and combine them by hand",
	})

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	return suggestions, nil
}

// mergePreview 基于基准版本做三方合并预览，失败时退回无损合并
// 预览只随建议返回，最终合并文本仍由调用方提交
func (s *resolutionService) mergePreview(ctx context.Context, detail *domain.ConflictDetail) string {
	var baseBody string
	if detail.Conflict.BaseVersionID > 0 {
		base, err := s.versionRepo.GetByID(ctx, detail.Conflict.BaseVersionID)
		if err != nil {
			s.logger.Debug("merge preview base version load failed",
				zap.Int64("conflict_id", detail.Conflict.ID), zap.Error(err))
			return ""
		}
		if base != nil {
			baseBody = base.Body
		}
	}

	merged, err := pkgdiff.MergeTexts(baseBody, detail.LocalBody, detail.RemoteBody, true)
	if err == nil && !merged.HasConflict {
		return merged.Content
	}

	keepAll, err := pkgdiff.MergeTextsKeepAll(baseBody, detail.LocalBody, detail.RemoteBody, true)
	if err != nil {
		return ""
	}
	return keepAll
}

// creationGap 两侧版本创建时间的绝对差
func creationGap(local, remote time.Time) time.Duration {
	gap := local.Sub(remote)
	if gap < 0 {
		gap = -gap
	}
	return gap
}

// loadPending 加载冲突并拒绝终态
func (s *resolutionService) loadPending(ctx context.Context, conflictID int64) (*domain.NoteConflict, error) {
	conflict, err := s.conflictRepo.GetByID(ctx, conflictID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if conflict == nil {
		return nil, code.ErrorConflictNotFound
	}
	if conflict.IsResolved() {
		return nil, code.ErrorConflictAlreadyResolved
	}
	return conflict, nil
}

// loadSides 加载冲突双方版本
func (s *resolutionService) loadSides(ctx context.Context, conflict *domain.NoteConflict) (*domain.NoteVersion, *domain.NoteVersion, error) {
	local, err := s.versionRepo.GetByID(ctx, conflict.LocalVersionID)
	if err != nil {
		return nil, nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	remote, err := s.versionRepo.GetByID(ctx, conflict.RemoteVersionID)
	if err != nil {
		return nil, nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if local == nil || remote == nil {
		return nil, nil, code.ErrorVersionNotFound
	}
	return local, remote, nil
}

// resolve 构建解决计划并执行
func (s *resolutionService) resolve(ctx context.Context, uid, conflictID int64, strategy domain.ResolutionType, merge *domain.MergeData, historyMeta string) (*dto.ResolutionResultDTO, error) {
	conflict, err := s.loadPending(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	local, remote, err := s.loadSides(ctx, conflict)
	if err != nil {
		return nil, err
	}

	plan := &domain.ResolutionPlan{
		ConflictID:     conflict.ID,
		NoteID:         conflict.NoteID,
		Status:         domain.ConflictStatusResolvedManual,
		ResolutionType: strategy,
		ResolvedBy:     uid,
		ResolvedAt:     time.Now(),
		History: &domain.NoteHistory{
			NoteID:   conflict.NoteID,
			UID:      uid,
			Action:   domain.HistoryActionConflictResolved,
			Detail:   fmt.Sprintf("conflict %d resolved via %s", conflict.ID, strategy),
			Metadata: historyMeta,
		},
	}

	switch strategy {
	case domain.ResolutionKeepLocal:
		plan.ResolvedVersionID = local.ID
		plan.PointerVersionID = local.ID
		plan.PointerSequence = local.SequenceNumber
		plan.PointerTitle = local.Title
		plan.StatusChanges = []domain.VersionStatusChange{
			{VersionID: local.ID, Status: domain.SyncStatusSynchronized},
			{VersionID: remote.ID, Status: domain.SyncStatusObsolete},
		}

	case domain.ResolutionKeepRemote:
		plan.ResolvedVersionID = remote.ID
		plan.PointerVersionID = remote.ID
		plan.PointerSequence = remote.SequenceNumber
		plan.PointerTitle = remote.Title
		plan.StatusChanges = []domain.VersionStatusChange{
			{VersionID: remote.ID, Status: domain.SyncStatusSynchronized},
			{VersionID: local.ID, Status: domain.SyncStatusObsolete},
		}

	case domain.ResolutionManualMerge:
		if merge == nil || merge.Title == "" || merge.Body == "" {
			return nil, code.ErrorMergeContentRequired
		}
		// 合并版本以冲突基准版本为父，双方版本标记为已合并
		plan.MergeVersion = &domain.NoteVersion{
			NoteID:          conflict.NoteID,
			UID:             uid,
			DeviceID:        merge.DeviceID,
			Title:           merge.Title,
			Body:            merge.Body,
			ContentHash:     util.EncodeNoteHash(merge.Title, merge.Body),
			SyncStatus:      domain.SyncStatusSynchronized,
			ParentVersionID: conflict.BaseVersionID,
		}
		plan.StatusChanges = []domain.VersionStatusChange{
			{VersionID: local.ID, Status: domain.SyncStatusMerged},
			{VersionID: remote.ID, Status: domain.SyncStatusMerged},
		}
		plan.History.Action = domain.HistoryActionMerged
		plan.History.Detail = fmt.Sprintf("conflict %d resolved by manual merge", conflict.ID)

	case domain.ResolutionSeparateVersions:
		// 双方各成为一条私有新笔记，原指针移到较新的一侧
		plan.SeparatedNotes = []*domain.SeparatedNote{
			separatedNote(local, " (Local Version)"),
			separatedNote(remote, " (Remote Version)"),
		}
		winner := local
		if remote.CreatedAt.After(local.CreatedAt) ||
			(remote.CreatedAt.Equal(local.CreatedAt) && remote.ID < local.ID) {
			winner = remote
		}
		plan.ResolvedVersionID = winner.ID
		plan.PointerVersionID = winner.ID
		plan.PointerSequence = winner.SequenceNumber
		plan.PointerTitle = winner.Title

	default:
		return nil, code.ErrorConflictStrategyUnknown.WithDetails(string(strategy))
	}

	result, err := s.apply(ctx, uid, conflict, plan)
	if err != nil {
		return nil, err
	}
	return resolutionResultToDTO(result), nil
}

// separatedNote 由一侧版本构造带后缀的私有新笔记及其根版本
func separatedNote(v *domain.NoteVersion, suffix string) *domain.SeparatedNote {
	title := v.Title + suffix
	return &domain.SeparatedNote{
		Note: &domain.Note{
			UID:           v.UID,
			Title:         title,
			LastEditorUID: v.UID,
			IsPrivate:     true,
		},
		Version: &domain.NoteVersion{
			UID:         v.UID,
			DeviceID:    v.DeviceID,
			Title:       title,
			Body:        v.Body,
			ContentHash: util.EncodeNoteHash(title, v.Body),
			SyncStatus:  domain.SyncStatusSynchronized,
		},
	}
}

// apply 执行计划并处理状态条件更新未命中
func (s *resolutionService) apply(ctx context.Context, uid int64, conflict *domain.NoteConflict, plan *domain.ResolutionPlan) (*domain.ResolutionResult, error) {
	result, err := s.conflictRepo.ApplyResolution(ctx, plan, uid)
	if err != nil {
		if errors.Is(err, domain.ErrConflictNotPending) {
			return nil, code.ErrorConflictAlreadyResolved
		}
		return nil, code.ErrorConflictResolveFailed.WithDetails(err.Error())
	}

	metrics.ConflictsResolved.WithLabelValues(string(plan.ResolutionType)).Inc()
	if plan.History != nil {
		metrics.HistoryEntries.Inc()
	}
	s.afterResolved(ctx, uid, conflict, result)
	return result, nil
}

// afterResolved 推送指针变更事件并调度仓库镜像，失败只记日志
func (s *resolutionService) afterResolved(ctx context.Context, uid int64, conflict *domain.NoteConflict, result *domain.ResolutionResult) {
	note, err := s.noteRepo.GetByID(ctx, result.NoteID)
	if err != nil || note == nil {
		s.logger.Warn("post-resolution note load failed",
			zap.Int64("note_id", result.NoteID), zap.Error(err))
		return
	}

	if result.ResolvedVersionID > 0 {
		version, err := s.versionRepo.GetByID(ctx, result.ResolvedVersionID)
		if err == nil && version != nil {
			event := &dto.NoteUpdatedEventMessage{
				NoteID:         result.NoteID,
				VersionID:      version.ID,
				SequenceNumber: version.SequenceNumber,
				Title:          version.Title,
				EditorUID:      uid,
				DeviceID:       version.DeviceID,
				ContentHash:    version.ContentHash,
				CreatedAt:      timex.Time(version.CreatedAt),
			}
			// 通知笔记所有者与冲突双方，目标去重
			targets := map[int64]struct{}{
				note.UID:           {},
				conflict.LocalUID:  {},
				conflict.RemoteUID: {},
			}
			for target := range targets {
				s.pusher.PushToUser(target, dto.EventNoteUpdated, event)
			}
		}
	}

	if s.mirror != nil {
		s.mirror.Schedule(note.UID)
	}
}

var _ ResolutionService = (*resolutionService)(nil)
