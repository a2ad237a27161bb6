// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "github.com/notesphere/note-sync-service/pkg/timex"

// VersionCreateRequest 创建笔记版本请求参数
// ParentVersionID 为 0 表示根版本
type VersionCreateRequest struct {
	NoteID          int64  `json:"noteId" form:"noteId" binding:"required,gte=1"`
	Title           string `json:"title" form:"title" binding:"required"`
	Body            string `json:"body" form:"body"`
	DeviceID        string `json:"deviceId" form:"deviceId"`
	ParentVersionID int64  `json:"parentVersionId" form:"parentVersionId"`
}

// VersionSetCurrentRequest 设置当前版本指针请求参数
type VersionSetCurrentRequest struct {
	NoteID    int64 `json:"noteId" form:"noteId" binding:"required,gte=1"`
	VersionID int64 `json:"versionId" form:"versionId" binding:"required,gte=1"`
}

// VersionHistoryRequest 版本历史请求参数
type VersionHistoryRequest struct {
	NoteID int64 `json:"noteId" form:"noteId" binding:"required,gte=1"`
	Limit  int   `json:"limit" form:"limit"`
}

// VersionCompareRequest 版本比较请求参数
type VersionCompareRequest struct {
	VersionA int64 `json:"versionA" form:"versionA" binding:"required,gte=1"`
	VersionB int64 `json:"versionB" form:"versionB" binding:"required,gte=1"`
}

// VersionGetRequest 获取单个版本请求参数
type VersionGetRequest struct {
	VersionID int64 `json:"versionId" form:"versionId" binding:"required,gte=1"`
}

// VersionMarkSyncedRequest 标记版本已同步请求参数
type VersionMarkSyncedRequest struct {
	VersionID int64 `json:"versionId" form:"versionId" binding:"required,gte=1"`
}

// VersionDTO 版本数据传输对象
type VersionDTO struct {
	ID              int64      `json:"id"`
	NoteID          int64      `json:"noteId"`
	UID             int64      `json:"uid"`
	DeviceID        string     `json:"deviceId"`
	Title           string     `json:"title"`
	Body            string     `json:"body"`
	SequenceNumber  int64      `json:"sequenceNumber"`
	ContentHash     string     `json:"contentHash"`
	SyncStatus      string     `json:"syncStatus"`
	ParentVersionID int64      `json:"parentVersionId"`
	CreatedAt       timex.Time `json:"createdAt"`
}

// VersionCompareDTO 版本比较结果
type VersionCompareDTO struct {
	TitleChanged   bool   `json:"titleChanged"`
	ContentChanged bool   `json:"contentChanged"`
	TimeDeltaMs    int64  `json:"timeDeltaMs"`
	Diff           string `json:"diff,omitempty"`
}
