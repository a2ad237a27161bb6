// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "github.com/notesphere/note-sync-service/pkg/timex"

// WebSocketAction WebSocket text message type
// WebSocket 文本消息类型
type WebSocketAction = string

// Client actions, sent by clients as "action|{json}" frames
// 客户端动作，以 "action|{json}" 帧发送
const (
	// ActionRegisterDevice registers the connection's device identity
	// ActionRegisterDevice 注册连接的设备标识
	ActionRegisterDevice WebSocketAction = "register_device"
	// ActionStartEditing marks the start of an editing session on a note
	// ActionStartEditing 标记对某笔记开始编辑
	ActionStartEditing WebSocketAction = "start_editing"
	// ActionStopEditing marks the end of an editing session on a note
	// ActionStopEditing 标记对某笔记结束编辑
	ActionStopEditing WebSocketAction = "stop_editing"
	// ActionNoteUpdated submits an edit as a new note version
	// ActionNoteUpdated 以新版本的形式提交一次编辑
	ActionNoteUpdated WebSocketAction = "note_updated"
)

// Server events, emitted to clients with the same frame format
// 服务端事件，使用同样的帧格式下发
const (
	// EventNoteUpdated notifies peers that a note gained a new version
	// EventNoteUpdated 通知对端笔记产生了新版本
	EventNoteUpdated WebSocketAction = "note_updated"
	// EventNoteShared notifies the target user of a new share
	// EventNoteShared 通知目标用户收到新的分享
	EventNoteShared WebSocketAction = "note_shared"
	// EventConflictDetected surfaces a persisted conflict or a real-time collision
	// EventConflictDetected 下发已落库的冲突或实时碰撞预警
	EventConflictDetected WebSocketAction = "conflict_detected"
	// EventUserEditing relays another user's editing session state
	// EventUserEditing 转发其他用户的编辑会话状态
	EventUserEditing WebSocketAction = "user_editing"
	// EventSyncStatus reports the submitted version's sync state back to the sender
	// EventSyncStatus 向提交方回报版本的同步状态
	EventSyncStatus WebSocketAction = "sync_status"
)

// RegisterDeviceMessage 设备注册消息
type RegisterDeviceMessage struct {
	DeviceID      string `json:"deviceId" binding:"required"`
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
}

// RegisterDeviceAckMessage 设备注册回执，附带客户端更新提示
type RegisterDeviceAckMessage struct {
	DeviceID             string `json:"deviceId"`
	ServerVersion        string `json:"serverVersion"`
	ClientVersionIsNew   bool   `json:"clientVersionIsNew"`
	ClientVersionNewName string `json:"clientVersionNewName,omitempty"`
	ClientVersionNewLink string `json:"clientVersionNewLink,omitempty"`
}

// StartEditingMessage 开始编辑消息
type StartEditingMessage struct {
	NoteID int64 `json:"noteId" binding:"required,gte=1"`
}

// StopEditingMessage 结束编辑消息
type StopEditingMessage struct {
	NoteID int64 `json:"noteId" binding:"required,gte=1"`
}

// WSNoteUpdatedMessage 客户端提交编辑的消息内容
// ParentVersionID 为该编辑所基于的版本，0 表示根版本
type WSNoteUpdatedMessage struct {
	NoteID          int64  `json:"noteId" binding:"required,gte=1"`
	Title           string `json:"title" binding:"required"`
	Body            string `json:"body"`
	ParentVersionID int64  `json:"parentVersionId"`
}

// NoteUpdatedEventMessage 服务器广播的笔记更新事件
type NoteUpdatedEventMessage struct {
	NoteID         int64      `json:"noteId"`
	VersionID      int64      `json:"versionId"`
	SequenceNumber int64      `json:"sequenceNumber"`
	Title          string     `json:"title"`
	EditorUID      int64      `json:"editorUid"`
	DeviceID       string     `json:"deviceId"`
	ContentHash    string     `json:"contentHash"`
	CreatedAt      timex.Time `json:"createdAt"`
}

// NoteSharedEventMessage 分享通知事件
type NoteSharedEventMessage struct {
	NoteID     int64  `json:"noteId"`
	NoteTitle  string `json:"noteTitle"`
	OwnerUID   int64  `json:"ownerUid"`
	Permission string `json:"permission"`
}

// ConflictDetectedEventMessage 冲突事件
// ConflictID 为 0 时表示实时预警信号，尚未落库
type ConflictDetectedEventMessage struct {
	NoteID      int64   `json:"noteId"`
	ConflictID  int64   `json:"conflictId,omitempty"`
	EditingUIDs []int64 `json:"editingUids,omitempty"`
	Message     string  `json:"message"`
}

// UserEditingEventMessage 编辑会话状态事件，State 取 start 或 stop
type UserEditingEventMessage struct {
	NoteID   int64  `json:"noteId"`
	UID      int64  `json:"uid"`
	DeviceID string `json:"deviceId"`
	State    string `json:"state"`
}

// SyncStatusEventMessage 提交回执事件
type SyncStatusEventMessage struct {
	NoteID       int64  `json:"noteId"`
	VersionID    int64  `json:"versionId"`
	SyncStatus   string `json:"syncStatus"`
	Deduplicated bool   `json:"deduplicated"`
}
