package model

import "github.com/notesphere/note-sync-service/pkg/timex"

const TableNameNoteVersion = "note_version"

// NoteVersion mapped from table <note_version>
// 版本行一经创建不可变更，仅 sync_status 字段允许更新
type NoteVersion struct {
	ID              int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	NoteID          int64      `gorm:"column:note_id;not null;uniqueIndex:idx_version_note_seq,priority:1;index:idx_version_note_hash,priority:1" json:"noteId" form:"noteId"`
	UID             int64      `gorm:"column:uid;not null;index:idx_version_uid" json:"uid" form:"uid"`
	DeviceID        string     `gorm:"column:device_id;not null;default:''" json:"deviceId" form:"deviceId"`
	Title           string     `gorm:"column:title;not null" json:"title" form:"title"`
	Body            string     `gorm:"column:body;type:text" json:"body" form:"body"`
	SequenceNumber  int64      `gorm:"column:sequence_number;not null;uniqueIndex:idx_version_note_seq,priority:2" json:"sequenceNumber" form:"sequenceNumber"`
	ContentHash     string     `gorm:"column:content_hash;not null;index:idx_version_note_hash,priority:2" json:"contentHash" form:"contentHash"`
	SyncStatus      string     `gorm:"column:sync_status;not null;default:'pending';index:idx_version_status" json:"syncStatus" form:"syncStatus"`
	ParentVersionID int64      `gorm:"column:parent_version_id;default:0" json:"parentVersionId" form:"parentVersionId"`
	CreatedAt       timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
}

// TableName NoteVersion's table name
func (*NoteVersion) TableName() string {
	return TableNameNoteVersion
}
