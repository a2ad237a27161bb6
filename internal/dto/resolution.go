// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "github.com/notesphere/note-sync-service/pkg/timex"

// ConflictResolveRequest 解决冲突请求参数
// Strategy 取持久化枚举字面量: manter_local, manter_remoto, merge_manual,
// criar_versoes_separadas。merge_manual 时必须提供 MergeTitle 与 MergeBody。
type ConflictResolveRequest struct {
	ConflictID int64  `json:"conflictId" form:"conflictId" uri:"id" binding:"required,gte=1"`
	Strategy   string `json:"strategy" form:"strategy" binding:"required"`
	MergeTitle string `json:"mergeTitle" form:"mergeTitle"`
	MergeBody  string `json:"mergeBody" form:"mergeBody"`
	DeviceID   string `json:"deviceId" form:"deviceId"`
}

// ConflictIgnoreRequest 忽略冲突请求参数
type ConflictIgnoreRequest struct {
	ConflictID int64 `json:"conflictId" form:"conflictId" uri:"id" binding:"required,gte=1"`
}

// ResolutionResultDTO 冲突解决结果
type ResolutionResultDTO struct {
	ConflictID        int64      `json:"conflictId"`
	NoteID            int64      `json:"noteId"`
	Status            string     `json:"status"`
	ResolutionType    string     `json:"resolutionType"`
	ResolvedVersionID int64      `json:"resolvedVersionId,omitempty"`
	SeparatedNoteIDs  []int64    `json:"separatedNoteIds,omitempty"`
	ResolvedAt        timex.Time `json:"resolvedAt"`
}

// SuggestionDTO 解决策略建议，按置信度降序返回
type SuggestionDTO struct {
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
	// MergePreview 自动合并建议附带的合并文本预览，仅供参考
	MergePreview string `json:"mergePreview,omitempty"`
}
