package model

import "github.com/notesphere/note-sync-service/pkg/timex"

const TableNameNoteHistory = "note_history"

// NoteHistory mapped from table <note_history>
// 仅追加，不允许更新或删除单条记录
type NoteHistory struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	NoteID     int64      `gorm:"column:note_id;not null;index:idx_history_note" json:"noteId" form:"noteId"`
	UID        int64      `gorm:"column:uid;not null;index:idx_history_uid" json:"uid" form:"uid"`
	VersionID  int64      `gorm:"column:version_id;default:0" json:"versionId" form:"versionId"`
	ConflictID int64      `gorm:"column:conflict_id;default:0" json:"conflictId" form:"conflictId"`
	DeviceID   string     `gorm:"column:device_id;default:''" json:"deviceId" form:"deviceId"`
	Action     string     `gorm:"column:action;not null;index:idx_history_action" json:"action" form:"action"`
	Detail     string     `gorm:"column:detail;type:text" json:"detail" form:"detail"`
	Metadata   string     `gorm:"column:metadata;type:text" json:"metadata" form:"metadata"`
	CreatedAt  timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName NoteHistory's table name
func (*NoteHistory) TableName() string {
	return TableNameNoteHistory
}
