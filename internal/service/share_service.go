package service

import (
	"context"
	"fmt"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"go.uber.org/zap"
)

// ShareService 定义笔记分享业务服务接口
// 权限判定只在协作入口调用，冲突解决本身不做权限校验
type ShareService interface {
	// Share 将笔记分享给目标用户并通知对方
	// 仅笔记所有者可以分享，重复分享返回已存在
	Share(ctx context.Context, ownerUID int64, params *dto.ShareCreateRequest) (*dto.ShareDTO, error)

	// Unshare 取消分享，仅笔记所有者可以取消
	Unshare(ctx context.Context, ownerUID int64, params *dto.ShareDeleteRequest) error

	// ListForNote 获取笔记的全部分享记录
	ListForNote(ctx context.Context, noteID int64) ([]*dto.ShareDTO, error)

	// ListForTarget 获取分享给用户的全部记录
	ListForTarget(ctx context.Context, targetUID int64) ([]*dto.ShareDTO, error)

	// CanUserEdit 判断用户是否可编辑笔记（所有者或具备 edit 分享）
	CanUserEdit(ctx context.Context, noteID, uid int64) (bool, error)

	// CanUserView 判断用户是否可查看笔记（所有者或任意分享）
	CanUserView(ctx context.Context, noteID, uid int64) (bool, error)
}

type shareService struct {
	shareRepo domain.ShareRepository
	noteRepo  domain.NoteRepository
	userRepo  domain.UserRepository
	history   HistoryService
	pusher    EventPusher
	logger    *zap.Logger
}

// NewShareService 创建 ShareService 实例
func NewShareService(
	shareRepo domain.ShareRepository,
	noteRepo domain.NoteRepository,
	userRepo domain.UserRepository,
	history HistoryService,
	pusher EventPusher,
	logger *zap.Logger,
) ShareService {
	if pusher == nil {
		pusher = NewNopPusher()
	}
	return &shareService{
		shareRepo: shareRepo,
		noteRepo:  noteRepo,
		userRepo:  userRepo,
		history:   history,
		pusher:    pusher,
		logger:    logger,
	}
}

func shareToDTO(s *domain.NoteShare) *dto.ShareDTO {
	if s == nil {
		return nil
	}
	return &dto.ShareDTO{
		ID:         s.ID,
		NoteID:     s.NoteID,
		OwnerUID:   s.OwnerUID,
		TargetUID:  s.TargetUID,
		Permission: string(s.Permission),
		CreatedAt:  timex.Time(s.CreatedAt),
	}
}

// Share 将笔记分享给目标用户并通知对方
func (s *shareService) Share(ctx context.Context, ownerUID int64, params *dto.ShareCreateRequest) (*dto.ShareDTO, error) {
	note, err := s.noteRepo.GetByID(ctx, params.NoteID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if note == nil {
		return nil, code.ErrorNoteNotFound
	}
	if !note.IsOwnedBy(ownerUID) {
		return nil, code.ErrorNoteAccessDenied
	}
	if params.TargetUID == ownerUID {
		return nil, code.ErrorInvalidParams.WithDetails("cannot share a note with yourself")
	}

	target, err := s.userRepo.GetByUID(ctx, params.TargetUID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if target == nil {
		return nil, code.ErrorShareTargetNotFound
	}

	existing, err := s.shareRepo.Get(ctx, params.NoteID, params.TargetUID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if existing != nil {
		return nil, code.ErrorShareAlreadyExists
	}

	share, err := s.shareRepo.Create(ctx, &domain.NoteShare{
		NoteID:     params.NoteID,
		OwnerUID:   ownerUID,
		TargetUID:  params.TargetUID,
		Permission: domain.SharePermission(params.Permission),
	})
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	// 分享后笔记对目标可见，转为非私有
	if note.IsPrivate {
		if err := s.noteRepo.UpdatePrivacy(ctx, note.ID, false, ownerUID); err != nil {
			s.logger.Warn("share privacy update failed",
				zap.Int64("note_id", note.ID), zap.Error(err))
		}
	}

	if _, err := s.history.Add(ctx, &domain.NoteHistory{
		NoteID: note.ID,
		UID:    ownerUID,
		Action: domain.HistoryActionShared,
		Detail: fmt.Sprintf("note shared with user %d (%s)", params.TargetUID, params.Permission),
	}, ownerUID); err != nil {
		s.logger.Warn("share history append failed",
			zap.Int64("note_id", note.ID), zap.Error(err))
	}

	s.pusher.PushToUser(params.TargetUID, dto.EventNoteShared, &dto.NoteSharedEventMessage{
		NoteID:     note.ID,
		NoteTitle:  note.Title,
		OwnerUID:   ownerUID,
		Permission: params.Permission,
	})

	return shareToDTO(share), nil
}

// Unshare 取消分享
func (s *shareService) Unshare(ctx context.Context, ownerUID int64, params *dto.ShareDeleteRequest) error {
	note, err := s.noteRepo.GetByID(ctx, params.NoteID)
	if err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	if note == nil {
		return code.ErrorNoteNotFound
	}
	if !note.IsOwnedBy(ownerUID) {
		return code.ErrorNoteAccessDenied
	}

	existing, err := s.shareRepo.Get(ctx, params.NoteID, params.TargetUID)
	if err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}
	if existing == nil {
		return code.ErrorShareTargetNotFound
	}

	if err := s.shareRepo.Delete(ctx, params.NoteID, params.TargetUID); err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}

	// 最后一条分享撤销后笔记回到私有
	remaining, err := s.shareRepo.ListByNote(ctx, params.NoteID)
	if err == nil && len(remaining) == 0 {
		if err := s.noteRepo.UpdatePrivacy(ctx, params.NoteID, true, ownerUID); err != nil {
			s.logger.Warn("unshare privacy update failed",
				zap.Int64("note_id", params.NoteID), zap.Error(err))
		}
	}
	return nil
}

// ListForNote 获取笔记的全部分享记录
func (s *shareService) ListForNote(ctx context.Context, noteID int64) ([]*dto.ShareDTO, error) {
	shares, err := s.shareRepo.ListByNote(ctx, noteID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	results := make([]*dto.ShareDTO, 0, len(shares))
	for _, share := range shares {
		results = append(results, shareToDTO(share))
	}
	return results, nil
}

// ListForTarget 获取分享给用户的全部记录
func (s *shareService) ListForTarget(ctx context.Context, targetUID int64) ([]*dto.ShareDTO, error) {
	shares, err := s.shareRepo.ListByTarget(ctx, targetUID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	results := make([]*dto.ShareDTO, 0, len(shares))
	for _, share := range shares {
		results = append(results, shareToDTO(share))
	}
	return results, nil
}

// CanUserEdit 判断用户是否可编辑笔记
func (s *shareService) CanUserEdit(ctx context.Context, noteID, uid int64) (bool, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return false, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if note == nil {
		return false, code.ErrorNoteNotFound
	}
	if note.IsOwnedBy(uid) {
		return true, nil
	}

	share, err := s.shareRepo.Get(ctx, noteID, uid)
	if err != nil {
		return false, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return share != nil && share.AllowsEdit(), nil
}

// CanUserView 判断用户是否可查看笔记
func (s *shareService) CanUserView(ctx context.Context, noteID, uid int64) (bool, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return false, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if note == nil {
		return false, code.ErrorNoteNotFound
	}
	if note.IsOwnedBy(uid) {
		return true, nil
	}

	share, err := s.shareRepo.Get(ctx, noteID, uid)
	if err != nil {
		return false, code.ErrorDBQuery.WithDetails(err.Error())
	}
	return share != nil, nil
}

var _ ShareService = (*shareService)(nil)
