// Package domain 定义领域模型和接口
package domain

import "time"

// Note 笔记领域模型
// 引擎只移动 current 指针和分享状态，从不删除笔记
type Note struct {
	ID               int64
	UID              int64
	Title            string
	CurrentVersionID int64
	CurrentSequence  int64
	LastEditorUID    int64
	IsPrivate        bool
	IsDeleted        bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasCurrentVersion 判断笔记是否已有当前版本指针
func (n *Note) HasCurrentVersion() bool {
	return n.CurrentVersionID > 0
}

// IsShared 判断笔记是否处于分享状态
func (n *Note) IsShared() bool {
	return !n.IsPrivate
}

// IsOwnedBy 判断笔记是否归属指定用户
func (n *Note) IsOwnedBy(uid int64) bool {
	return n.UID == uid
}
