package model

import "github.com/notesphere/note-sync-service/pkg/timex"

const TableNameNote = "note"

// Note mapped from table <note>
type Note struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	UID              int64      `gorm:"column:uid;not null;index:idx_note_uid" json:"uid" form:"uid"`
	Title            string     `gorm:"column:title;not null" json:"title" form:"title"`
	CurrentVersionID int64      `gorm:"column:current_version_id;default:0" json:"currentVersionId" form:"currentVersionId"`
	CurrentSequence  int64      `gorm:"column:current_sequence;default:0" json:"currentSequence" form:"currentSequence"`
	LastEditorUID    int64      `gorm:"column:last_editor_uid;default:0" json:"lastEditorUid" form:"lastEditorUid"`
	IsPrivate        int64      `gorm:"column:is_private;default:0" json:"isPrivate" form:"isPrivate"`
	IsDeleted        int64      `gorm:"column:is_deleted;default:0" json:"isDeleted" form:"isDeleted"`
	CreatedAt        timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt        timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName Note's table name
func (*Note) TableName() string {
	return TableNameNote
}
