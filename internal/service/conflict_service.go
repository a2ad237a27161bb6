package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	pkgdiff "github.com/notesphere/note-sync-service/pkg/diff"
	"github.com/notesphere/note-sync-service/pkg/mailer"
	"github.com/notesphere/note-sync-service/pkg/metrics"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"go.uber.org/zap"
)

// ConflictService 定义冲突检测业务服务接口
type ConflictService interface {
	// Detect 扫描笔记的待同步版本，检出并登记分叉冲突
	// 已登记过的版本对不会重复登记，返回本次新登记的冲突
	Detect(ctx context.Context, uid, noteID int64) ([]*dto.ConflictDTO, error)

	// Get 获取冲突详情，含双方版本内容与差异
	Get(ctx context.Context, conflictID int64) (*dto.ConflictDetailDTO, error)

	// PendingFor 获取用户作为任一方的待解决冲突
	// 查询失败时返回空列表，不向调用方抛错
	PendingFor(ctx context.Context, uid int64, limit int) []*dto.ConflictDetailDTO

	// DetectRealTime 保存前的实时碰撞预警
	// 仅当窗口内有其他用户在编辑且当前版本哈希与提交哈希不一致时返回信号，
	// 不产生持久化冲突记录
	DetectRealTime(ctx context.Context, uid int64, params *dto.RealTimeCheckRequest) (*dto.CollisionDTO, error)

	// AnalyzeComplexity 评估冲突复杂度并给出处理建议
	AnalyzeComplexity(ctx context.Context, conflictID int64) (*dto.ComplexityDTO, error)
}

type conflictService struct {
	conflictRepo domain.ConflictRepository
	versionRepo  domain.VersionRepository
	noteRepo     domain.NoteRepository
	userRepo     domain.UserRepository
	editing      EditingService
	pusher       EventPusher
	mail         *mailer.Mailer
	logger       *zap.Logger
	config       *SyncServiceConfig
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(
	conflictRepo domain.ConflictRepository,
	versionRepo domain.VersionRepository,
	noteRepo domain.NoteRepository,
	userRepo domain.UserRepository,
	editing EditingService,
	pusher EventPusher,
	mail *mailer.Mailer,
	logger *zap.Logger,
	config *SyncServiceConfig,
) ConflictService {
	if pusher == nil {
		pusher = NewNopPusher()
	}
	return &conflictService{
		conflictRepo: conflictRepo,
		versionRepo:  versionRepo,
		noteRepo:     noteRepo,
		userRepo:     userRepo,
		editing:      editing,
		pusher:       pusher,
		mail:         mail,
		logger:       logger,
		config:       config,
	}
}

// conflictToDTO 将冲突领域模型转换为 DTO
func conflictToDTO(c *domain.NoteConflict) *dto.ConflictDTO {
	if c == nil {
		return nil
	}
	return &dto.ConflictDTO{
		ID:                c.ID,
		NoteID:            c.NoteID,
		BaseVersionID:     c.BaseVersionID,
		LocalVersionID:    c.LocalVersionID,
		RemoteVersionID:   c.RemoteVersionID,
		LocalUID:          c.LocalUID,
		RemoteUID:         c.RemoteUID,
		Status:            string(c.Status),
		ResolutionType:    string(c.ResolutionType),
		ResolvedVersionID: c.ResolvedVersionID,
		ResolvedBy:        c.ResolvedBy,
		DetectedAt:        timex.Time(c.DetectedAt),
		ResolvedAt:        timex.Time(c.ResolvedAt),
	}
}

// conflictDetailToDTO 将冲突详情转换为 DTO，withBody 控制是否携带正文与差异
func conflictDetailToDTO(d *domain.ConflictDetail, withBody bool) *dto.ConflictDetailDTO {
	if d == nil || d.Conflict == nil {
		return nil
	}
	out := &dto.ConflictDetailDTO{
		ConflictDTO:     *conflictToDTO(d.Conflict),
		NoteTitle:       d.NoteTitle,
		LocalTitle:      d.LocalTitle,
		RemoteTitle:     d.RemoteTitle,
		LocalAuthor:     d.LocalAuthor,
		RemoteAuthor:    d.RemoteAuthor,
		LocalCreatedAt:  timex.Time(d.LocalCreatedAt),
		RemoteCreatedAt: timex.Time(d.RemoteCreatedAt),
	}
	if withBody {
		out.LocalBody = d.LocalBody
		out.RemoteBody = d.RemoteBody
		out.ContentDiff = pkgdiff.PrettyDiff(d.LocalBody, d.RemoteBody)
	}
	return out
}

// Detect 扫描笔记的待同步版本，检出并登记分叉冲突
func (s *conflictService) Detect(ctx context.Context, uid, noteID int64) ([]*dto.ConflictDTO, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if note == nil {
		return nil, code.ErrorNoteNotFound
	}

	// 按创建时间升序取 pending 与 conflict 状态的版本，两两判定
	versions, err := s.versionRepo.ListByNoteAndStatuses(ctx, noteID,
		[]domain.SyncStatus{domain.SyncStatusPending, domain.SyncStatusConflict})
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	var detected []*dto.ConflictDTO
	for i := 0; i < len(versions); i++ {
		for j := i + 1; j < len(versions); j++ {
			local, remote := versions[i], versions[j]
			if !local.ConflictsWith(remote) {
				continue
			}

			exists, err := s.conflictRepo.ExistsPair(ctx, noteID, local.ID, remote.ID)
			if err != nil {
				return nil, code.ErrorDBQuery.WithDetails(err.Error())
			}
			if exists {
				continue
			}

			conflict := &domain.NoteConflict{
				NoteID:          noteID,
				BaseVersionID:   local.ParentVersionID,
				LocalVersionID:  local.ID,
				RemoteVersionID: remote.ID,
				LocalUID:        local.UID,
				RemoteUID:       remote.UID,
				Status:          domain.ConflictStatusPending,
				DetectedAt:      time.Now(),
			}
			history := &domain.NoteHistory{
				NoteID: noteID,
				UID:    uid,
				Action: domain.HistoryActionConflictDetected,
				Detail: fmt.Sprintf("conflict between version %d and version %d", local.ID, remote.ID),
			}

			created, err := s.conflictRepo.Create(ctx, conflict, history, uid)
			if err != nil {
				return nil, code.ErrorDBQuery.WithDetails(err.Error())
			}

			metrics.ConflictsDetected.Inc()
			metrics.HistoryEntries.Inc()
			detected = append(detected, conflictToDTO(created))

			s.notifyConflict(note, created)
		}
	}

	return detected, nil
}

// notifyConflict 向冲突双方推送事件并发送邮件通知，失败只记日志
func (s *conflictService) notifyConflict(note *domain.Note, conflict *domain.NoteConflict) {
	event := &dto.ConflictDetectedEventMessage{
		NoteID:     conflict.NoteID,
		ConflictID: conflict.ID,
		Message:    fmt.Sprintf("sync conflict detected on note \"%s\"", note.Title),
	}
	s.pusher.PushToUser(conflict.LocalUID, dto.EventConflictDetected, event)
	if conflict.RemoteUID != conflict.LocalUID {
		s.pusher.PushToUser(conflict.RemoteUID, dto.EventConflictDetected, event)
	}

	if s.mail == nil || !s.mail.Enabled() {
		return
	}
	uids := []int64{conflict.LocalUID}
	if conflict.RemoteUID != conflict.LocalUID {
		uids = append(uids, conflict.RemoteUID)
	}
	go func() {
		var to []string
		for _, uid := range uids {
			user, err := s.userRepo.GetByUID(context.Background(), uid)
			if err != nil || user == nil {
				continue
			}
			to = append(to, user.Email)
		}
		if len(to) == 0 {
			return
		}
		subject := fmt.Sprintf("Sync conflict on note \"%s\"", note.Title)
		body := fmt.Sprintf(
			"<p>Two divergent edits of note <b>%s</b> were detected (conflict #%d).</p>"+
				"<p>Please open the app to review and resolve the conflict.</p>",
			note.Title, conflict.ID)
		if err := s.mail.Send(to, subject, body); err != nil {
			s.logger.Warn("conflict mail notify failed",
				zap.Int64("conflict_id", conflict.ID), zap.Error(err))
		}
	}()
}

// Get 获取冲突详情，含双方版本内容与差异
func (s *conflictService) Get(ctx context.Context, conflictID int64) (*dto.ConflictDetailDTO, error) {
	detail, err := s.conflictRepo.GetDetail(ctx, conflictID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if detail == nil {
		return nil, code.ErrorConflictNotFound
	}
	return conflictDetailToDTO(detail, true), nil
}

// PendingFor 获取用户作为任一方的待解决冲突，查询失败时返回空列表
func (s *conflictService) PendingFor(ctx context.Context, uid int64, limit int) []*dto.ConflictDetailDTO {
	pageCap := s.config.historyPageCap()
	if limit <= 0 || limit > pageCap {
		limit = pageCap
	}

	details, err := s.conflictRepo.ListPendingByUser(ctx, uid, limit)
	if err != nil {
		s.logger.Warn("pending conflict query failed", zap.Int64("uid", uid), zap.Error(err))
		return []*dto.ConflictDetailDTO{}
	}

	results := make([]*dto.ConflictDetailDTO, 0, len(details))
	for _, d := range details {
		results = append(results, conflictDetailToDTO(d, false))
	}
	return results
}

// DetectRealTime 保存前的实时碰撞预警
func (s *conflictService) DetectRealTime(ctx context.Context, uid int64, params *dto.RealTimeCheckRequest) (*dto.CollisionDTO, error) {
	others := s.editing.OtherActiveEditors(params.NoteID, uid)
	if len(others) == 0 {
		return nil, nil
	}

	note, err := s.noteRepo.GetByID(ctx, params.NoteID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if note == nil {
		return nil, code.ErrorNoteNotFound
	}
	if !note.HasCurrentVersion() {
		return nil, nil
	}

	current, err := s.versionRepo.GetByID(ctx, note.CurrentVersionID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if current == nil || current.ContentHash == params.ContentHash {
		return nil, nil
	}

	seen := make(map[int64]struct{}, len(others))
	var editingUIDs []int64
	for _, session := range others {
		if _, ok := seen[session.UID]; ok {
			continue
		}
		seen[session.UID] = struct{}{}
		editingUIDs = append(editingUIDs, session.UID)
	}
	sort.Slice(editingUIDs, func(i, j int) bool { return editingUIDs[i] < editingUIDs[j] })

	metrics.RealtimeCollisionSignals.Inc()

	return &dto.CollisionDTO{
		NoteID:             params.NoteID,
		EditingUIDs:        editingUIDs,
		CurrentVersionID:   current.ID,
		CurrentContentHash: current.ContentHash,
		Message:            fmt.Sprintf("%d other user(s) are editing this note and the note changed since your last pull", len(editingUIDs)),
	}, nil
}

// AnalyzeComplexity 评估冲突复杂度并给出处理建议
func (s *conflictService) AnalyzeComplexity(ctx context.Context, conflictID int64) (*dto.ComplexityDTO, error) {
	detail, err := s.conflictRepo.GetDetail(ctx, conflictID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if detail == nil {
		return nil, code.ErrorConflictNotFound
	}

	analysis := analyzeConflict(detail)
	return &dto.ComplexityDTO{
		ConflictID:     analysis.ConflictID,
		Complexity:     string(analysis.Complexity),
		TitleDiffers:   analysis.TitleDiffers,
		BodyDiffers:    analysis.BodyDiffers,
		Similarity:     analysis.Similarity,
		Recommendation: string(analysis.Recommendation),
	}, nil
}

// analyzeConflict 复杂度分级与建议推导
// 标题正文同时分歧为 high；否则相似度不高于 0.5 为 medium，其余为 low
func analyzeConflict(detail *domain.ConflictDetail) *domain.ComplexityAnalysis {
	titleDiffers := detail.LocalTitle != detail.RemoteTitle
	bodyDiffers := detail.LocalBody != detail.RemoteBody
	similarity := pkgdiff.Similarity(detail.LocalBody, detail.RemoteBody)

	complexity := domain.ComplexityLow
	switch {
	case titleDiffers && bodyDiffers:
		complexity = domain.ComplexityHigh
	case similarity <= 0.5:
		complexity = domain.ComplexityMedium
	}

	recommendation := domain.RecommendationKeepMostRecent
	switch {
	case complexity == domain.ComplexityLow && similarity > 0.8:
		recommendation = domain.RecommendationAutoMerge
	case complexity == domain.ComplexityHigh || similarity < 0.3:
		recommendation = domain.RecommendationManualResolution
	}

	return &domain.ComplexityAnalysis{
		ConflictID:     detail.Conflict.ID,
		Complexity:     complexity,
		TitleDiffers:   titleDiffers,
		BodyDiffers:    bodyDiffers,
		Similarity:     similarity,
		Recommendation: recommendation,
	}
}

var _ ConflictService = (*conflictService)(nil)
