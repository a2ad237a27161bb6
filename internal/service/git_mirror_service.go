package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"go.uber.org/zap"
)

const (
	mirrorStatusRunning = 1
	mirrorStatusSuccess = 2
	mirrorStatusFailed  = 3
)

// GitMirrorService 将笔记的当前内容镜像到远端 Git 仓库
// 导出是尽力而为的旁路，失败从不影响同步与冲突解决
type GitMirrorService interface {
	MirrorScheduler

	// Execute 立即触发一次镜像导出，已有任务在运行时拒绝
	Execute(ctx context.Context) error

	// Status 获取镜像运行状态
	Status() *dto.GitMirrorStatusDTO

	// Shutdown 取消防抖定时器并等待进行中的任务结束
	Shutdown(ctx context.Context) error
}

type gitMirrorService struct {
	noteRepo    domain.NoteRepository
	versionRepo domain.VersionRepository
	userRepo    domain.UserRepository
	logger      *zap.Logger
	config      *GitMirrorServiceConfig

	mu           sync.Mutex
	running      bool
	timer        *time.Timer
	pendingUIDs  map[int64]struct{}
	lastStatus   int
	lastMessage  string
	lastSyncTime time.Time
	wg           sync.WaitGroup
}

// NewGitMirrorService 创建 GitMirrorService 实例
func NewGitMirrorService(
	noteRepo domain.NoteRepository,
	versionRepo domain.VersionRepository,
	userRepo domain.UserRepository,
	logger *zap.Logger,
	config *GitMirrorServiceConfig,
) GitMirrorService {
	return &gitMirrorService{
		noteRepo:    noteRepo,
		versionRepo: versionRepo,
		userRepo:    userRepo,
		logger:      logger,
		config:      config,
		pendingUIDs: make(map[int64]struct{}),
	}
}

// Schedule 登记用户待导出并重置防抖定时器
func (s *gitMirrorService) Schedule(uid int64) {
	if s.config == nil || !s.config.Enable {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingUIDs[uid] = struct{}{}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.config.debounce(), func() {
		if err := s.Execute(context.Background()); err != nil {
			s.logger.Warn("debounced git mirror run skipped", zap.Error(err))
		}
	})
}

// Execute 立即触发一次镜像导出
func (s *gitMirrorService) Execute(ctx context.Context) error {
	if s.config == nil || !s.config.Enable || s.config.RepoURL == "" {
		return code.ErrorStorageNotEnabled.WithDetails("git mirror is not enabled")
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return code.ErrorTooManyRequests.WithDetails("git mirror task already running")
	}
	s.running = true
	uids := make([]int64, 0, len(s.pendingUIDs))
	for uid := range s.pendingUIDs {
		uids = append(uids, uid)
	}
	s.pendingUIDs = make(map[int64]struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
		}()
		s.mirrorTask(context.Background(), uids)
	}()

	return nil
}

// Status 获取镜像运行状态
func (s *gitMirrorService) Status() *dto.GitMirrorStatusDTO {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := "Idle"
	switch s.lastStatus {
	case mirrorStatusRunning:
		text = "Running"
	case mirrorStatusSuccess:
		text = "Success"
	case mirrorStatusFailed:
		text = "Failed"
	}
	return &dto.GitMirrorStatusDTO{
		Enabled:        s.config != nil && s.config.Enable,
		Running:        s.running,
		LastStatus:     int64(s.lastStatus),
		LastStatusText: text,
		LastMessage:    s.lastMessage,
		LastSyncTime:   timex.Time(s.lastSyncTime),
	}
}

// Shutdown 取消防抖定时器并等待进行中的任务结束
func (s *gitMirrorService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mirrorTask 执行导出并记录结果状态
func (s *gitMirrorService) mirrorTask(ctx context.Context, uids []int64) {
	s.logger.Info("starting git mirror task", zap.Int("pending_users", len(uids)))

	s.mu.Lock()
	s.lastStatus = mirrorStatusRunning
	s.mu.Unlock()

	err := s.doMirror(ctx, uids)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Error("git mirror task failed", zap.Error(err))
		s.lastStatus = mirrorStatusFailed
		s.lastMessage = err.Error()
		return
	}
	s.lastStatus = mirrorStatusSuccess
	s.lastMessage = "mirror completed"
	s.lastSyncTime = time.Now()
	s.logger.Info("git mirror task success")
}

// doMirror 克隆或打开工作区，写入笔记文件后提交推送
func (s *gitMirrorService) doMirror(ctx context.Context, uids []int64) error {
	wsPath := s.config.workspace()
	auth := &http.BasicAuth{
		Username: s.config.Username,
		Password: s.config.Password,
	}
	branchRef := plumbing.NewBranchReferenceName(s.config.branch())

	var r *git.Repository
	var err error

	if _, statErr := os.Stat(filepath.Join(wsPath, ".git")); os.IsNotExist(statErr) {
		s.logger.Info("initializing mirror workspace", zap.String("path", wsPath))
		_ = os.RemoveAll(wsPath)
		r, err = git.PlainClone(wsPath, false, &git.CloneOptions{
			URL:           s.config.RepoURL,
			Auth:          auth,
			ReferenceName: branchRef,
			SingleBranch:  true,
		})
		if err != nil {
			return fmt.Errorf("git clone failed: %w", err)
		}
	} else {
		r, err = git.PlainOpen(wsPath)
		if err != nil {
			return fmt.Errorf("git open failed: %w", err)
		}
	}

	wt, err := r.Worktree()
	if err != nil {
		return err
	}

	err = wt.Pull(&git.PullOptions{
		Auth:          auth,
		ReferenceName: branchRef,
		SingleBranch:  true,
		Force:         true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("git pull failed: %w", err)
	}

	if len(uids) == 0 {
		uids, err = s.userRepo.GetAllUIDs(ctx)
		if err != nil {
			return err
		}
	}
	for _, uid := range uids {
		if err := s.writeUserNotes(ctx, uid, wsPath); err != nil {
			return fmt.Errorf("mirror notes of uid %d failed: %w", uid, err)
		}
	}

	status, err := wt.Status()
	if err != nil {
		return err
	}
	if status.IsClean() {
		s.logger.Info("no mirror changes to commit")
		return nil
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return err
	}

	name, email := s.config.author()
	_, err = wt.Commit("Update mirrored notes", &git.CommitOptions{
		Author: &object.Signature{
			Name:  name,
			Email: email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return err
	}

	if err := r.Push(&git.PushOptions{Auth: auth}); err != nil {
		return fmt.Errorf("git push failed: %w", err)
	}
	return nil
}

// writeUserNotes 将用户笔记的当前版本写为 users/{uid}/{noteID}.md
func (s *gitMirrorService) writeUserNotes(ctx context.Context, uid int64, wsPath string) error {
	notes, err := s.noteRepo.ListAllByUID(ctx, uid)
	if err != nil {
		return err
	}

	dir := filepath.Join(wsPath, "users", fmt.Sprintf("%d", uid))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for _, note := range notes {
		body := ""
		if note.HasCurrentVersion() {
			version, err := s.versionRepo.GetByID(ctx, note.CurrentVersionID)
			if err != nil {
				return err
			}
			if version != nil {
				body = version.Body
			}
		}

		content := fmt.Sprintf("# %s\n\n%s\n", note.Title, body)
		fullPath := filepath.Join(dir, fmt.Sprintf("%d.md", note.ID))
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			s.logger.Warn("failed to write mirrored note",
				zap.Int64("note_id", note.ID), zap.Error(err))
		}
	}
	return nil
}

var _ GitMirrorService = (*gitMirrorService)(nil)
