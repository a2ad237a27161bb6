package domain

import (
	"context"
	"time"
)

// SharePermission 分享权限级别
type SharePermission string

const (
	SharePermissionView SharePermission = "view"
	SharePermissionEdit SharePermission = "edit"
)

// NoteShare 笔记分享领域模型
type NoteShare struct {
	ID         int64
	NoteID     int64
	OwnerUID   int64
	TargetUID  int64
	Permission SharePermission
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AllowsEdit 判断分享是否授予编辑权限
func (s *NoteShare) AllowsEdit() bool {
	return s.Permission == SharePermissionEdit
}

// ShareRepository 笔记分享持久化接口
type ShareRepository interface {
	Create(ctx context.Context, share *NoteShare) (*NoteShare, error)
	Get(ctx context.Context, noteID, targetUID int64) (*NoteShare, error)
	ListByNote(ctx context.Context, noteID int64) ([]*NoteShare, error)
	ListByTarget(ctx context.Context, targetUID int64) ([]*NoteShare, error)
	Delete(ctx context.Context, noteID, targetUID int64) error
}
