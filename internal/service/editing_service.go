package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notesphere/note-sync-service/internal/domain"
	"go.uber.org/zap"
)

// EditingService 维护内存中的活跃编辑会话
// Maintains in-memory active editing sessions, advisory only.
type EditingService interface {
	// Start 登记编辑会话，同一用户同一设备重复登记时刷新活跃时间
	Start(noteID, uid int64, deviceID string) *domain.EditingSession

	// Stop 注销编辑会话，会话存在时返回 true
	Stop(noteID, uid int64, deviceID string) bool

	// Touch 刷新会话活跃时间，会话不存在时静默忽略
	Touch(noteID, uid int64, deviceID string)

	// ActiveEditors 获取窗口内笔记的全部活跃会话
	ActiveEditors(noteID int64) []*domain.EditingSession

	// OtherActiveEditors 获取窗口内除指定用户外的活跃会话
	OtherActiveEditors(noteID, excludeUID int64) []*domain.EditingSession

	// StopAllForUser 注销用户的全部会话，连接断开时调用，返回涉及的笔记ID
	StopAllForUser(uid int64) []int64

	// CleanupExpired 清理窗口外的过期会话，返回清理数量
	CleanupExpired() int

	// ActiveSessionTotal 统计窗口内的活跃会话总数
	ActiveSessionTotal() int
}

type editingService struct {
	mu       sync.RWMutex
	sessions map[int64]map[string]*domain.EditingSession // noteID -> sessionKey -> session
	logger   *zap.Logger
	config   *SyncServiceConfig
}

// NewEditingService 创建 EditingService 实例
func NewEditingService(logger *zap.Logger, config *SyncServiceConfig) EditingService {
	return &editingService{
		sessions: make(map[int64]map[string]*domain.EditingSession),
		logger:   logger,
		config:   config,
	}
}

// editingKey 同一用户同一设备只保留一个会话
func editingKey(uid int64, deviceID string) string {
	return fmt.Sprintf("%d|%s", uid, deviceID)
}

func (s *editingService) Start(noteID, uid int64, deviceID string) *domain.EditingSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	key := editingKey(uid, deviceID)

	byNote, ok := s.sessions[noteID]
	if !ok {
		byNote = make(map[string]*domain.EditingSession)
		s.sessions[noteID] = byNote
	}

	if existing, ok := byNote[key]; ok {
		existing.LastActiveAt = now
		return existing
	}

	session := &domain.EditingSession{
		SessionID:    uuid.New().String(),
		NoteID:       noteID,
		UID:          uid,
		DeviceID:     deviceID,
		StartedAt:    now,
		LastActiveAt: now,
	}
	byNote[key] = session
	return session
}

func (s *editingService) Stop(noteID, uid int64, deviceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	byNote, ok := s.sessions[noteID]
	if !ok {
		return false
	}
	key := editingKey(uid, deviceID)
	if _, ok := byNote[key]; !ok {
		return false
	}
	delete(byNote, key)
	if len(byNote) == 0 {
		delete(s.sessions, noteID)
	}
	return true
}

func (s *editingService) Touch(noteID, uid int64, deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if byNote, ok := s.sessions[noteID]; ok {
		if session, ok := byNote[editingKey(uid, deviceID)]; ok {
			session.LastActiveAt = time.Now()
		}
	}
}

func (s *editingService) ActiveEditors(noteID int64) []*domain.EditingSession {
	return s.collect(noteID, -1)
}

func (s *editingService) OtherActiveEditors(noteID, excludeUID int64) []*domain.EditingSession {
	return s.collect(noteID, excludeUID)
}

// collect 按窗口过滤会话，excludeUID 为 -1 时不排除任何用户
func (s *editingService) collect(noteID, excludeUID int64) []*domain.EditingSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byNote, ok := s.sessions[noteID]
	if !ok {
		return nil
	}

	now := time.Now()
	window := s.config.editingWindow()

	var active []*domain.EditingSession
	for _, session := range byNote {
		if session.UID == excludeUID {
			continue
		}
		if session.IsActiveWithin(window, now) {
			active = append(active, session)
		}
	}
	return active
}

func (s *editingService) StopAllForUser(uid int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var noteIDs []int64
	for noteID, byNote := range s.sessions {
		removed := false
		for key, session := range byNote {
			if session.UID == uid {
				delete(byNote, key)
				removed = true
			}
		}
		if removed {
			noteIDs = append(noteIDs, noteID)
		}
		if len(byNote) == 0 {
			delete(s.sessions, noteID)
		}
	}
	return noteIDs
}

func (s *editingService) ActiveSessionTotal() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	window := s.config.editingWindow()

	total := 0
	for _, byNote := range s.sessions {
		for _, session := range byNote {
			if session.IsActiveWithin(window, now) {
				total++
			}
		}
	}
	return total
}

func (s *editingService) CleanupExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	window := s.config.editingWindow()

	cleaned := 0
	for noteID, byNote := range s.sessions {
		for key, session := range byNote {
			if !session.IsActiveWithin(window, now) {
				delete(byNote, key)
				cleaned++
			}
		}
		if len(byNote) == 0 {
			delete(s.sessions, noteID)
		}
	}

	if cleaned > 0 {
		s.logger.Debug("expired editing sessions cleaned", zap.Int("count", cleaned))
	}
	return cleaned
}

var _ EditingService = (*editingService)(nil)
