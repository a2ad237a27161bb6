// Package domain 定义领域模型和接口
package domain

import (
	"context"
	"time"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// GetByUID 根据UID获取用户
	GetByUID(ctx context.Context, uid int64) (*User, error)

	// GetByEmail 根据邮箱获取用户
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByUsername 根据用户名获取用户
	GetByUsername(ctx context.Context, username string) (*User, error)

	// Create 创建用户
	Create(ctx context.Context, user *User) (*User, error)

	// UpdatePassword 更新用户密码
	UpdatePassword(ctx context.Context, password string, uid int64) error

	// GetAllUIDs 获取所有用户UID
	GetAllUIDs(ctx context.Context) ([]int64, error)
}

// NoteRepository 笔记仓储接口
type NoteRepository interface {
	// GetByID 根据ID获取笔记
	GetByID(ctx context.Context, id int64) (*Note, error)

	// Create 创建笔记
	Create(ctx context.Context, note *Note, uid int64) (*Note, error)

	// UpdateCurrentVersion 更新笔记当前版本指针、标题与最后编辑人
	UpdateCurrentVersion(ctx context.Context, noteID, versionID, sequence int64, title string, editorUID int64) error

	// UpdatePrivacy 更新笔记分享状态
	UpdatePrivacy(ctx context.Context, noteID int64, isPrivate bool, uid int64) error

	// List 分页获取用户的笔记列表
	List(ctx context.Context, uid int64, page, pageSize int) ([]*Note, error)

	// ListCount 获取用户的笔记数量
	ListCount(ctx context.Context, uid int64) (int64, error)

	// ListAllByUID 获取用户的全部笔记，备份导出使用
	ListAllByUID(ctx context.Context, uid int64) ([]*Note, error)

	// ListIDsWithPendingVersions 获取近期存在待同步版本的笔记ID列表
	ListIDsWithPendingVersions(ctx context.Context, since time.Time) ([]int64, error)

	// Count 获取笔记总数
	Count(ctx context.Context) (int64, error)
}

// VersionRepository 笔记版本仓储接口
type VersionRepository interface {
	// GetByID 根据ID获取版本
	GetByID(ctx context.Context, id int64) (*NoteVersion, error)

	// GetByNoteAndHash 根据笔记ID和内容哈希获取版本，内容去重使用
	GetByNoteAndHash(ctx context.Context, noteID int64, contentHash string) (*NoteVersion, error)

	// Create 创建版本
	// SequenceNumber 为 0 时在事务内按当前最大序号加一赋值；
	// history 非空时在同一事务内追加历史记录
	Create(ctx context.Context, version *NoteVersion, history *NoteHistory, uid int64) (*NoteVersion, error)

	// UpdateSyncStatus 更新版本同步状态
	UpdateSyncStatus(ctx context.Context, versionID int64, status SyncStatus, uid int64) error

	// ListByNote 获取笔记的版本列表，最新在前
	ListByNote(ctx context.Context, noteID int64, limit int) ([]*NoteVersion, error)

	// ListByNoteAndStatuses 按同步状态获取笔记的版本列表，按创建时间升序
	ListByNoteAndStatuses(ctx context.Context, noteID int64, statuses []SyncStatus) ([]*NoteVersion, error)

	// Count 获取版本总数
	Count(ctx context.Context) (int64, error)
}

// ConflictRepository 冲突仓储接口
type ConflictRepository interface {
	// GetByID 根据ID获取冲突
	GetByID(ctx context.Context, id int64) (*NoteConflict, error)

	// GetDetail 根据ID获取冲突及关联展示信息
	GetDetail(ctx context.Context, id int64) (*ConflictDetail, error)

	// ExistsPair 判断同一版本对的冲突记录是否已存在
	ExistsPair(ctx context.Context, noteID, localVersionID, remoteVersionID int64) (bool, error)

	// Create 创建冲突记录
	// 同一事务内将两侧版本标记为 conflict 并追加历史记录
	Create(ctx context.Context, conflict *NoteConflict, history *NoteHistory, uid int64) (*NoteConflict, error)

	// ListPendingByUser 获取用户作为任一方的待解决冲突，最新在前
	ListPendingByUser(ctx context.Context, uid int64, limit int) ([]*ConflictDetail, error)

	// ListByNote 获取笔记的冲突列表
	ListByNote(ctx context.Context, noteID int64) ([]*NoteConflict, error)

	// ApplyResolution 原子执行冲突解决计划
	// 冲突状态以 status = pending 条件更新，未命中时返回 ErrConflictNotPending
	ApplyResolution(ctx context.Context, plan *ResolutionPlan, uid int64) (*ResolutionResult, error)

	// CountByStatus 按状态统计冲突数量
	CountByStatus(ctx context.Context, status ConflictStatus) (int64, error)
}

// HistoryRepository 笔记历史仓储接口
type HistoryRepository interface {
	// Create 追加历史记录
	Create(ctx context.Context, history *NoteHistory, uid int64) (*NoteHistory, error)

	// ListByNote 获取笔记的历史记录，最新在前
	ListByNote(ctx context.Context, noteID int64, limit int) ([]*NoteHistory, error)

	// ListByUser 获取用户的历史记录，最新在前
	ListByUser(ctx context.Context, uid int64, limit int) ([]*NoteHistory, error)

	// Stats 统计时间窗口内按动作聚合的活动数量与参与用户数
	Stats(ctx context.Context, noteID int64, since time.Time) ([]*ActivityStat, error)
}
