// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "github.com/notesphere/note-sync-service/pkg/timex"

// BackupHistoryListRequest 备份历史列表请求参数
type BackupHistoryListRequest struct {
	Limit int `json:"limit" form:"limit"`
}

// BackupHistoryDTO 备份历史数据传输对象
type BackupHistoryDTO struct {
	ID          int64      `json:"id"`
	StorageType string     `json:"storageType"`
	StartTime   timex.Time `json:"startTime"`
	EndTime     timex.Time `json:"endTime"`
	Status      int64      `json:"status"`
	StatusText  string     `json:"statusText"`
	FileSize    int64      `json:"fileSize"`
	FileSizeStr string     `json:"fileSizeStr"`
	NoteCount   int64      `json:"noteCount"`
	Message     string     `json:"message"`
	FilePath    string     `json:"filePath"`
	CreatedAt   timex.Time `json:"createdAt"`
}
