package model

import "github.com/notesphere/note-sync-service/pkg/timex"

const TableNameNoteConflict = "note_conflict"

// NoteConflict mapped from table <note_conflict>
type NoteConflict struct {
	ID                int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	NoteID            int64      `gorm:"column:note_id;not null;index:idx_conflict_note;uniqueIndex:idx_conflict_pair,priority:1" json:"noteId" form:"noteId"`
	BaseVersionID     int64      `gorm:"column:base_version_id;not null;default:0" json:"baseVersionId" form:"baseVersionId"`
	LocalVersionID    int64      `gorm:"column:local_version_id;not null;uniqueIndex:idx_conflict_pair,priority:2" json:"localVersionId" form:"localVersionId"`
	RemoteVersionID   int64      `gorm:"column:remote_version_id;not null;uniqueIndex:idx_conflict_pair,priority:3" json:"remoteVersionId" form:"remoteVersionId"`
	LocalUID          int64      `gorm:"column:local_uid;not null;index:idx_conflict_local_uid" json:"localUid" form:"localUid"`
	RemoteUID         int64      `gorm:"column:remote_uid;not null;index:idx_conflict_remote_uid" json:"remoteUid" form:"remoteUid"`
	Status            string     `gorm:"column:status;not null;default:'pending';index:idx_conflict_status" json:"status" form:"status"`
	ResolutionType    string     `gorm:"column:resolution_type;default:''" json:"resolutionType" form:"resolutionType"`
	ResolvedVersionID int64      `gorm:"column:resolved_version_id;default:0" json:"resolvedVersionId" form:"resolvedVersionId"`
	ResolvedBy        int64      `gorm:"column:resolved_by;default:0" json:"resolvedBy" form:"resolvedBy"`
	DetectedAt        timex.Time `gorm:"column:detected_at;type:datetime;default:NULL" json:"detectedAt" form:"detectedAt"`
	ResolvedAt        timex.Time `gorm:"column:resolved_at;type:datetime;default:NULL" json:"resolvedAt" form:"resolvedAt"`
	CreatedAt         timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt         timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName NoteConflict's table name
func (*NoteConflict) TableName() string {
	return TableNameNoteConflict
}
