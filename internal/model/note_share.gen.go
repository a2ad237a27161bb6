package model

import "github.com/notesphere/note-sync-service/pkg/timex"

const TableNameNoteShare = "note_share"

// NoteShare mapped from table <note_share>
type NoteShare struct {
	ID         int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	NoteID     int64      `gorm:"column:note_id;not null;uniqueIndex:idx_share_note_target,priority:1" json:"noteId" form:"noteId"`
	OwnerUID   int64      `gorm:"column:owner_uid;not null;index:idx_share_owner" json:"ownerUid" form:"ownerUid"`
	TargetUID  int64      `gorm:"column:target_uid;not null;uniqueIndex:idx_share_note_target,priority:2;index:idx_share_target" json:"targetUid" form:"targetUid"`
	Permission string     `gorm:"column:permission;not null;default:'view'" json:"permission" form:"permission"`
	CreatedAt  timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt  timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName NoteShare's table name
func (*NoteShare) TableName() string {
	return TableNameNoteShare
}
