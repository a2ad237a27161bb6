// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "github.com/notesphere/note-sync-service/pkg/timex"

// HistoryListRequest 笔记历史列表请求参数
type HistoryListRequest struct {
	NoteID int64 `json:"noteId" form:"noteId" binding:"required,gte=1"`
	Limit  int   `json:"limit" form:"limit"`
}

// HistoryUserListRequest 用户历史列表请求参数
type HistoryUserListRequest struct {
	Limit int `json:"limit" form:"limit"`
}

// ActivityStatsRequest 笔记活动统计请求参数，WindowHours 为统计窗口
type ActivityStatsRequest struct {
	NoteID      int64 `json:"noteId" form:"noteId" binding:"required,gte=1"`
	WindowHours int   `json:"windowHours" form:"windowHours"`
}

// HistoryDTO 历史记录数据传输对象
type HistoryDTO struct {
	ID         int64      `json:"id"`
	NoteID     int64      `json:"noteId"`
	UID        int64      `json:"uid"`
	VersionID  int64      `json:"versionId"`
	ConflictID int64      `json:"conflictId,omitempty"`
	DeviceID   string     `json:"deviceId,omitempty"`
	Action     string     `json:"action"`
	Detail     string     `json:"detail"`
	Metadata   string     `json:"metadata,omitempty"`
	CreatedAt  timex.Time `json:"createdAt"`
}

// ActivityStatDTO 按动作类型聚合的活动统计行
type ActivityStatDTO struct {
	Action    string `json:"action"`
	Count     int64  `json:"count"`
	UserCount int64  `json:"userCount"`
}
