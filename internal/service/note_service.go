package service

import (
	"context"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"go.uber.org/zap"
)

// NoteService 定义笔记业务服务接口
type NoteService interface {
	// Create 创建笔记及其根版本，并将指针指向根版本
	Create(ctx context.Context, uid int64, params *dto.NoteCreateRequest) (*dto.NoteDTO, error)

	// Get 获取笔记，非所有者需要持有分享授权
	Get(ctx context.Context, uid, noteID int64) (*dto.NoteDTO, error)

	// List 分页获取用户自己的笔记
	List(ctx context.Context, uid int64, page, pageSize int) ([]*dto.NoteDTO, int64, error)
}

type noteService struct {
	noteRepo domain.NoteRepository
	versions VersionService
	shares   ShareService
	logger   *zap.Logger
}

// NewNoteService 创建 NoteService 实例
func NewNoteService(noteRepo domain.NoteRepository, versions VersionService, shares ShareService, logger *zap.Logger) NoteService {
	return &noteService{
		noteRepo: noteRepo,
		versions: versions,
		shares:   shares,
		logger:   logger,
	}
}

func noteToDTO(n *domain.Note) *dto.NoteDTO {
	if n == nil {
		return nil
	}
	return &dto.NoteDTO{
		ID:               n.ID,
		UID:              n.UID,
		Title:            n.Title,
		CurrentVersionID: n.CurrentVersionID,
		CurrentSequence:  n.CurrentSequence,
		LastEditorUID:    n.LastEditorUID,
		IsPrivate:        n.IsPrivate,
		UpdatedAt:        timex.Time(n.UpdatedAt),
		CreatedAt:        timex.Time(n.CreatedAt),
	}
}

// Create 创建笔记及其根版本
func (s *noteService) Create(ctx context.Context, uid int64, params *dto.NoteCreateRequest) (*dto.NoteDTO, error) {
	note, err := s.noteRepo.Create(ctx, &domain.Note{
		UID:           uid,
		Title:         params.Title,
		LastEditorUID: uid,
		IsPrivate:     true,
	}, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	// 根版本创建失败时笔记保持无当前版本，下一次保存会补上
	_, version, err := s.versions.Create(ctx, uid, &dto.VersionCreateRequest{
		NoteID:   note.ID,
		Title:    params.Title,
		Body:     params.Body,
		DeviceID: params.DeviceID,
	})
	if err != nil {
		s.logger.Warn("root version create failed", zap.Int64("note_id", note.ID), zap.Error(err))
		return noteToDTO(note), nil
	}

	if err := s.versions.SetCurrent(ctx, uid, &dto.VersionSetCurrentRequest{
		NoteID:    note.ID,
		VersionID: version.ID,
	}); err != nil {
		s.logger.Warn("root version pointer set failed", zap.Int64("note_id", note.ID), zap.Error(err))
		return noteToDTO(note), nil
	}

	created, err := s.noteRepo.GetByID(ctx, note.ID)
	if err != nil || created == nil {
		return noteToDTO(note), nil
	}
	return noteToDTO(created), nil
}

// Get 获取笔记，非所有者需要持有分享授权
func (s *noteService) Get(ctx context.Context, uid, noteID int64) (*dto.NoteDTO, error) {
	note, err := s.noteRepo.GetByID(ctx, noteID)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}
	if note == nil {
		return nil, code.ErrorNoteNotFound
	}

	allowed, err := s.shares.CanUserView(ctx, noteID, uid)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, code.ErrorNoteAccessDenied
	}
	return noteToDTO(note), nil
}

// List 分页获取用户自己的笔记
func (s *noteService) List(ctx context.Context, uid int64, page, pageSize int) ([]*dto.NoteDTO, int64, error) {
	notes, err := s.noteRepo.List(ctx, uid, page, pageSize)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}
	count, err := s.noteRepo.ListCount(ctx, uid)
	if err != nil {
		return nil, 0, code.ErrorDBQuery.WithDetails(err.Error())
	}

	results := make([]*dto.NoteDTO, 0, len(notes))
	for _, note := range notes {
		results = append(results, noteToDTO(note))
	}
	return results, count, nil
}

var _ NoteService = (*noteService)(nil)
