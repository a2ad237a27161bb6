// Package domain 定义领域模型和接口
package domain

import "time"

// HistoryAction 定义历史记录动作类型
type HistoryAction string

const (
	HistoryActionCreated          HistoryAction = "created"
	HistoryActionEdited           HistoryAction = "edited"
	HistoryActionShared           HistoryAction = "shared"
	HistoryActionMerged           HistoryAction = "merged"
	HistoryActionConflictDetected HistoryAction = "conflict_detected"
	HistoryActionConflictResolved HistoryAction = "conflict_resolved"
	HistoryActionRestored         HistoryAction = "restored"
)

var historyActions = map[HistoryAction]struct{}{
	HistoryActionCreated:          {},
	HistoryActionEdited:           {},
	HistoryActionShared:           {},
	HistoryActionMerged:           {},
	HistoryActionConflictDetected: {},
	HistoryActionConflictResolved: {},
	HistoryActionRestored:         {},
}

// Valid 判断动作类型是否在允许的枚举内
func (a HistoryAction) Valid() bool {
	_, ok := historyActions[a]
	return ok
}

// NoteHistory 笔记历史领域模型
// 仅追加，单条记录不允许更新或删除
type NoteHistory struct {
	ID         int64
	NoteID     int64
	UID        int64
	VersionID  int64
	ConflictID int64
	DeviceID   string
	Action     HistoryAction
	Detail     string
	Metadata   string
	CreatedAt  time.Time
}

// ActivityStat 指定时间窗口内按动作类型聚合的活动统计
type ActivityStat struct {
	Action    HistoryAction
	Count     int64
	UserCount int64
}
