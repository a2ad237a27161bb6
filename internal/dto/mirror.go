// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "github.com/notesphere/note-sync-service/pkg/timex"

// GitMirrorStatusDTO Git 镜像运行状态
type GitMirrorStatusDTO struct {
	Enabled        bool       `json:"enabled"`
	Running        bool       `json:"running"`
	LastStatus     int64      `json:"lastStatus"`
	LastStatusText string     `json:"lastStatusText"`
	LastMessage    string     `json:"lastMessage"`
	LastSyncTime   timex.Time `json:"lastSyncTime,omitempty"`
}
