// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "github.com/notesphere/note-sync-service/pkg/timex"

// NoteCreateRequest 创建笔记请求参数，Body 可为空表示空白笔记
type NoteCreateRequest struct {
	Title    string `json:"title" form:"title" binding:"required"`
	Body     string `json:"body" form:"body"`
	DeviceID string `json:"deviceId" form:"deviceId"`
}

// NoteGetRequest 获取单条笔记请求参数
type NoteGetRequest struct {
	NoteID int64 `json:"noteId" form:"noteId" uri:"id" binding:"required,gte=1"`
}

// NoteListRequest 笔记列表请求参数
type NoteListRequest struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"pageSize" form:"pageSize"`
}

// NoteDTO 笔记数据传输对象
type NoteDTO struct {
	ID               int64      `json:"id"`
	UID              int64      `json:"uid"`
	Title            string     `json:"title"`
	CurrentVersionID int64      `json:"currentVersionId"`
	CurrentSequence  int64      `json:"currentSequence"`
	LastEditorUID    int64      `json:"lastEditorUid"`
	IsPrivate        bool       `json:"isPrivate"`
	UpdatedAt        timex.Time `json:"updatedAt"`
	CreatedAt        timex.Time `json:"createdAt"`
}
