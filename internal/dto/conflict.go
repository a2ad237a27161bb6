// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "github.com/notesphere/note-sync-service/pkg/timex"

// ConflictDetectRequest 对指定笔记执行冲突检测的请求参数
type ConflictDetectRequest struct {
	NoteID int64 `json:"noteId" form:"noteId" binding:"required,gte=1"`
}

// ConflictGetRequest 获取冲突详情请求参数
type ConflictGetRequest struct {
	ConflictID int64 `json:"conflictId" form:"conflictId" uri:"id" binding:"required,gte=1"`
}

// ConflictListRequest 待处理冲突列表请求参数
type ConflictListRequest struct {
	Limit int `json:"limit" form:"limit"`
}

// RealTimeCheckRequest 实时冲突预警检查请求参数
// ContentHash 为调用方认为的当前版本内容哈希
type RealTimeCheckRequest struct {
	NoteID      int64  `json:"noteId" form:"noteId" binding:"required,gte=1"`
	ContentHash string `json:"contentHash" form:"contentHash" binding:"required"`
}

// ConflictDTO 冲突数据传输对象
type ConflictDTO struct {
	ID                int64      `json:"id"`
	NoteID            int64      `json:"noteId"`
	BaseVersionID     int64      `json:"baseVersionId"`
	LocalVersionID    int64      `json:"localVersionId"`
	RemoteVersionID   int64      `json:"remoteVersionId"`
	LocalUID          int64      `json:"localUid"`
	RemoteUID         int64      `json:"remoteUid"`
	Status            string     `json:"status"`
	ResolutionType    string     `json:"resolutionType,omitempty"`
	ResolvedVersionID int64      `json:"resolvedVersionId,omitempty"`
	ResolvedBy        int64      `json:"resolvedBy,omitempty"`
	DetectedAt        timex.Time `json:"detectedAt"`
	ResolvedAt        timex.Time `json:"resolvedAt,omitempty"`
}

// ConflictDetailDTO 冲突详情，包含双方版本的展示字段
type ConflictDetailDTO struct {
	ConflictDTO
	NoteTitle       string     `json:"noteTitle"`
	LocalTitle      string     `json:"localTitle"`
	RemoteTitle     string     `json:"remoteTitle"`
	LocalBody       string     `json:"localBody,omitempty"`
	RemoteBody      string     `json:"remoteBody,omitempty"`
	LocalAuthor     string     `json:"localAuthor"`
	RemoteAuthor    string     `json:"remoteAuthor"`
	LocalCreatedAt  timex.Time `json:"localCreatedAt"`
	RemoteCreatedAt timex.Time `json:"remoteCreatedAt"`
	ContentDiff     string     `json:"contentDiff,omitempty"`
}

// ComplexityDTO 冲突复杂度分析结果
type ComplexityDTO struct {
	ConflictID     int64   `json:"conflictId"`
	Complexity     string  `json:"complexity"`
	TitleDiffers   bool    `json:"titleDiffers"`
	BodyDiffers    bool    `json:"bodyDiffers"`
	Similarity     float64 `json:"similarity"`
	Recommendation string  `json:"recommendation"`
}

// CollisionDTO 实时碰撞预警信号
type CollisionDTO struct {
	NoteID             int64   `json:"noteId"`
	EditingUIDs        []int64 `json:"editingUids"`
	CurrentVersionID   int64   `json:"currentVersionId"`
	CurrentContentHash string  `json:"currentContentHash"`
	Message            string  `json:"message"`
}
