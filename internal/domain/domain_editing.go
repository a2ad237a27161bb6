package domain

import "time"

// EditingSession 活跃编辑会话，仅存于内存，不做持久化
type EditingSession struct {
	SessionID    string
	NoteID       int64
	UID          int64
	DeviceID     string
	StartedAt    time.Time
	LastActiveAt time.Time
}

// IsActiveWithin 判断会话在指定窗口内是否仍然活跃
func (s *EditingSession) IsActiveWithin(window time.Duration, now time.Time) bool {
	return now.Sub(s.LastActiveAt) <= window
}

// RealTimeCollision 实时编辑碰撞信号
// 仅用于保存前预警，不产生持久化冲突记录
type RealTimeCollision struct {
	NoteID             int64
	EditingUIDs        []int64
	CurrentVersionID   int64
	CurrentContentHash string
	SubmittedHash      string
	DetectedAt         time.Time
}
