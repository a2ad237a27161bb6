package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	pkgstorage "github.com/notesphere/note-sync-service/pkg/storage"
	"github.com/notesphere/note-sync-service/pkg/timex"
	"github.com/notesphere/note-sync-service/pkg/util"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// BackupService 定义备份导出业务服务接口
// 将用户笔记的当前内容打包上传到配置的对象存储
type BackupService interface {
	// Run 对单个用户执行一次备份导出
	Run(ctx context.Context, uid int64) (*dto.BackupHistoryDTO, error)

	// RunAll 对全部用户执行备份导出，单个用户失败不阻断其他用户
	RunAll(ctx context.Context) error

	// History 获取用户的备份历史，最新在前
	History(ctx context.Context, uid int64, limit int) ([]*dto.BackupHistoryDTO, error)

	// StartScheduler 启动定时备份，未启用时为空操作
	StartScheduler()

	// Shutdown 停止定时备份并等待进行中的任务结束
	Shutdown(ctx context.Context) error
}

// noteExport 备份文件中单条笔记的序列化结构
type noteExport struct {
	NoteID      int64  `json:"noteId"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	VersionID   int64  `json:"versionId"`
	Sequence    int64  `json:"sequence"`
	ContentHash string `json:"contentHash"`
	IsPrivate   bool   `json:"isPrivate"`
	UpdatedAt   string `json:"updatedAt"`
}

type backupService struct {
	backupRepo    domain.BackupRepository
	noteRepo      domain.NoteRepository
	versionRepo   domain.VersionRepository
	userRepo      domain.UserRepository
	storageConfig *pkgstorage.Config
	logger        *zap.Logger
	config        *BackupServiceConfig

	cron *cron.Cron
	wg   sync.WaitGroup
}

// NewBackupService 创建 BackupService 实例
func NewBackupService(
	backupRepo domain.BackupRepository,
	noteRepo domain.NoteRepository,
	versionRepo domain.VersionRepository,
	userRepo domain.UserRepository,
	storageConfig *pkgstorage.Config,
	logger *zap.Logger,
	config *BackupServiceConfig,
) BackupService {
	return &backupService{
		backupRepo:    backupRepo,
		noteRepo:      noteRepo,
		versionRepo:   versionRepo,
		userRepo:      userRepo,
		storageConfig: storageConfig,
		logger:        logger,
		config:        config,
	}
}

func (s *backupService) historyToDTO(h *domain.BackupHistory) *dto.BackupHistoryDTO {
	if h == nil {
		return nil
	}
	return &dto.BackupHistoryDTO{
		ID:          h.ID,
		StorageType: h.StorageType,
		StartTime:   timex.Time(h.StartTime),
		EndTime:     timex.Time(h.EndTime),
		Status:      int64(h.Status),
		StatusText:  backupStatusText(h.Status),
		FileSize:    h.FileSize,
		FileSizeStr: formatBytes(h.FileSize),
		NoteCount:   h.NoteCount,
		Message:     h.Message,
		FilePath:    h.FilePath,
		CreatedAt:   timex.Time(h.CreatedAt),
	}
}

func backupStatusText(status int) string {
	switch status {
	case domain.BackupStatusRunning:
		return "Running"
	case domain.BackupStatusSuccess:
		return "Success"
	case domain.BackupStatusFailed:
		return "Failed"
	case domain.BackupStatusEmpty:
		return "Empty"
	default:
		return "Idle"
	}
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// Run 对单个用户执行一次备份导出
func (s *backupService) Run(ctx context.Context, uid int64) (*dto.BackupHistoryDTO, error) {
	if s.storageConfig == nil || !s.storageConfig.IsEnabled {
		return nil, code.ErrorStorageNotEnabled
	}

	h, err := s.backupRepo.Create(ctx, &domain.BackupHistory{
		UID:         uid,
		StorageType: s.storageConfig.Type,
		StartTime:   time.Now(),
		Status:      domain.BackupStatusRunning,
	}, uid)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	s.wg.Add(1)
	defer s.wg.Done()

	notes, err := s.noteRepo.ListAllByUID(ctx, uid)
	if err != nil {
		s.finishHistory(ctx, h, domain.BackupStatusFailed, err.Error())
		return nil, code.ErrorBackupExecuteFailed.WithDetails(err.Error())
	}
	if len(notes) == 0 {
		s.finishHistory(ctx, h, domain.BackupStatusEmpty, "no notes to export")
		return s.historyToDTO(h), nil
	}

	files, err := s.buildArchiveFiles(ctx, notes)
	if err != nil {
		s.finishHistory(ctx, h, domain.BackupStatusFailed, err.Error())
		return nil, code.ErrorBackupExecuteFailed.WithDetails(err.Error())
	}

	target := filepath.Join(os.TempDir(), fmt.Sprintf("notes-backup-%d-%d.zip", uid, time.Now().Unix()))
	if err := util.ZipBytes(files, target); err != nil {
		s.finishHistory(ctx, h, domain.BackupStatusFailed, err.Error())
		return nil, code.ErrorBackupExecuteFailed.WithDetails(err.Error())
	}
	defer os.Remove(target)

	info, err := os.Stat(target)
	if err != nil {
		s.finishHistory(ctx, h, domain.BackupStatusFailed, err.Error())
		return nil, code.ErrorBackupExecuteFailed.WithDetails(err.Error())
	}

	client, err := pkgstorage.NewClient(s.storageConfig)
	if err != nil {
		s.finishHistory(ctx, h, domain.BackupStatusFailed, err.Error())
		return nil, code.ErrorBackupExecuteFailed.WithDetails(err.Error())
	}

	f, err := os.Open(target)
	if err != nil {
		s.finishHistory(ctx, h, domain.BackupStatusFailed, fmt.Sprintf("failed to open backup file: %v", err))
		return nil, code.ErrorBackupExecuteFailed.WithDetails(err.Error())
	}
	defer f.Close()

	objName := fmt.Sprintf("backups/%d/%s", uid, filepath.Base(target))
	path, err := client.SendFile(objName, f, "application/zip", time.Now())
	if err != nil {
		s.finishHistory(ctx, h, domain.BackupStatusFailed, fmt.Sprintf("upload failed: %v", err))
		return nil, code.ErrorBackupExecuteFailed.WithDetails(err.Error())
	}

	h.FileSize = info.Size()
	h.NoteCount = int64(len(notes))
	h.FilePath = path
	s.finishHistory(ctx, h, domain.BackupStatusSuccess, "Success")

	s.logger.Info("backup export finished",
		zap.Int64("uid", uid),
		zap.Int64("note_count", h.NoteCount),
		zap.Int64("file_size", h.FileSize),
		zap.String("path", path))
	return s.historyToDTO(h), nil
}

// buildArchiveFiles 为每条笔记生成一个 JSON 导出文件
func (s *backupService) buildArchiveFiles(ctx context.Context, notes []*domain.Note) (map[string][]byte, error) {
	files := make(map[string][]byte, len(notes))
	for _, note := range notes {
		export := &noteExport{
			NoteID:    note.ID,
			Title:     note.Title,
			IsPrivate: note.IsPrivate,
			UpdatedAt: timex.Time(note.UpdatedAt).String(),
		}
		if note.HasCurrentVersion() {
			version, err := s.versionRepo.GetByID(ctx, note.CurrentVersionID)
			if err != nil {
				return nil, err
			}
			if version != nil {
				export.Body = version.Body
				export.VersionID = version.ID
				export.Sequence = version.SequenceNumber
				export.ContentHash = version.ContentHash
			}
		}

		content, err := sonic.Marshal(export)
		if err != nil {
			return nil, err
		}
		files[fmt.Sprintf("notes/%d.json", note.ID)] = content
	}
	return files, nil
}

// finishHistory 更新备份历史终态，失败只记日志
func (s *backupService) finishHistory(ctx context.Context, h *domain.BackupHistory, status int, message string) {
	h.Status = status
	h.Message = message
	h.EndTime = time.Now()
	if err := s.backupRepo.Update(ctx, h, h.UID); err != nil {
		s.logger.Warn("backup history update failed",
			zap.Int64("history_id", h.ID), zap.Error(err))
	}
}

// RunAll 对全部用户执行备份导出
func (s *backupService) RunAll(ctx context.Context) error {
	if s.storageConfig == nil || !s.storageConfig.IsEnabled {
		return code.ErrorStorageNotEnabled
	}

	uids, err := s.userRepo.GetAllUIDs(ctx)
	if err != nil {
		return code.ErrorDBQuery.WithDetails(err.Error())
	}

	for _, uid := range uids {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.Run(ctx, uid); err != nil {
			s.logger.Warn("user backup failed", zap.Int64("uid", uid), zap.Error(err))
		}
	}
	return nil
}

// History 获取用户的备份历史
func (s *backupService) History(ctx context.Context, uid int64, limit int) ([]*dto.BackupHistoryDTO, error) {
	historyLimit := s.config.historyLimit()
	if limit <= 0 || limit > historyLimit {
		limit = historyLimit
	}

	entries, err := s.backupRepo.ListByUID(ctx, uid, limit)
	if err != nil {
		return nil, code.ErrorDBQuery.WithDetails(err.Error())
	}

	var results []*dto.BackupHistoryDTO
	for _, h := range entries {
		results = append(results, s.historyToDTO(h))
	}
	return results, nil
}

// StartScheduler 启动定时备份
func (s *backupService) StartScheduler() {
	if s.config == nil || !s.config.Enable {
		return
	}
	if s.storageConfig == nil || !s.storageConfig.IsEnabled {
		s.logger.Warn("scheduled backup enabled but storage is not configured")
		return
	}

	s.cron = cron.New()
	spec := s.config.cronSpec()
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.RunAll(context.Background()); err != nil {
			s.logger.Error("scheduled backup run failed", zap.Error(err))
		}
	}); err != nil {
		s.logger.Error("scheduled backup cron spec invalid",
			zap.String("spec", spec), zap.Error(err))
		return
	}
	s.cron.Start()
	s.logger.Info("scheduled backup started", zap.String("cron", spec))
}

// Shutdown 停止定时备份并等待进行中的任务结束
func (s *backupService) Shutdown(ctx context.Context) error {
	if s.cron != nil {
		s.cron.Stop()
	}

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

var _ BackupService = (*backupService)(nil)
