// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// SystemStatsDTO 引擎运行统计
type SystemStatsDTO struct {
	NoteCount         int64 `json:"noteCount"`
	VersionCount      int64 `json:"versionCount"`
	PendingConflicts  int64 `json:"pendingConflicts"`
	ResolvedConflicts int64 `json:"resolvedConflicts"`
	IgnoredConflicts  int64 `json:"ignoredConflicts"`
	ActiveSessions    int64 `json:"activeSessions"`
	Connections       int64 `json:"connections"`
}

// ServerVersionDTO 服务端版本信息
type ServerVersionDTO struct {
	Version        string `json:"version"`
	GitTag         string `json:"gitTag"`
	BuildTime      string `json:"buildTime"`
	VersionIsNew   bool   `json:"versionIsNew"`
	VersionNewName string `json:"versionNewName,omitempty"`
	VersionNewLink string `json:"versionNewLink,omitempty"`
}
