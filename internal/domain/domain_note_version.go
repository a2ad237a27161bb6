package domain

import "time"

// SyncStatus 定义版本同步状态
type SyncStatus string

const (
	SyncStatusPending      SyncStatus = "pending"
	SyncStatusSynchronized SyncStatus = "synchronized"
	SyncStatusConflict     SyncStatus = "conflict"
	SyncStatusObsolete     SyncStatus = "obsolete"
	SyncStatusMerged       SyncStatus = "merged"
)

// NoteVersion 笔记版本领域模型
// 版本一经创建不可变更，仅 SyncStatus 允许更新
type NoteVersion struct {
	ID              int64
	NoteID          int64
	UID             int64
	DeviceID        string
	Title           string
	Body            string
	SequenceNumber  int64
	ContentHash     string
	SyncStatus      SyncStatus
	ParentVersionID int64
	CreatedAt       time.Time
}

// IsRoot 判断版本是否为根版本（无父版本）
func (v *NoteVersion) IsRoot() bool {
	return v.ParentVersionID == 0
}

// IsPending 判断版本是否处于待同步状态
func (v *NoteVersion) IsPending() bool {
	return v.SyncStatus == SyncStatusPending
}

// SameContent 判断两个版本内容哈希是否一致
func (v *NoteVersion) SameContent(other *NoteVersion) bool {
	return v.ContentHash == other.ContentHash
}

// ConflictsWith 判断两个版本是否构成真正的编辑冲突
// 根版本无分叉来源不冲突；同一用户同一设备的顺序保存不冲突；
// 仅当共享同一父版本、内容不同且来自不同设备时才判定为冲突
func (v *NoteVersion) ConflictsWith(other *NoteVersion) bool {
	if v.IsRoot() || other.IsRoot() {
		return false
	}
	if v.UID == other.UID && v.DeviceID == other.DeviceID {
		return false
	}
	return v.ParentVersionID == other.ParentVersionID &&
		v.ContentHash != other.ContentHash &&
		v.DeviceID != other.DeviceID
}

// VersionDiff 两个版本的比较结果
type VersionDiff struct {
	TitleChanged   bool
	ContentChanged bool
	TimeDelta      time.Duration
}
