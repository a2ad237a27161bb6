// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "github.com/notesphere/note-sync-service/pkg/timex"

// ShareCreateRequest 分享笔记请求参数，Permission 取 view 或 edit
type ShareCreateRequest struct {
	NoteID     int64  `json:"noteId" form:"noteId" binding:"required,gte=1"`
	TargetUID  int64  `json:"targetUid" form:"targetUid" binding:"required,gte=1"`
	Permission string `json:"permission" form:"permission" binding:"required,oneof=view edit"`
}

// ShareDeleteRequest 取消分享请求参数
type ShareDeleteRequest struct {
	NoteID    int64 `json:"noteId" form:"noteId" binding:"required,gte=1"`
	TargetUID int64 `json:"targetUid" form:"targetUid" binding:"required,gte=1"`
}

// ShareDTO 分享记录数据传输对象
type ShareDTO struct {
	ID         int64      `json:"id"`
	NoteID     int64      `json:"noteId"`
	OwnerUID   int64      `json:"ownerUid"`
	TargetUID  int64      `json:"targetUid"`
	Permission string     `json:"permission"`
	CreatedAt  timex.Time `json:"createdAt"`
}
