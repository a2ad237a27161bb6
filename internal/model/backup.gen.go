package model

import "github.com/notesphere/note-sync-service/pkg/timex"

const TableNameBackupHistory = "backup_history"

// BackupHistory mapped from table <backup_history>
type BackupHistory struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	UID         int64      `gorm:"column:uid;not null;index:idx_backup_history_uid" json:"uid" form:"uid"`
	StorageType string     `gorm:"column:storage_type;not null" json:"storageType" form:"storageType"`
	StartTime   int64      `gorm:"column:start_time;default:0" json:"startTime" form:"startTime"`
	EndTime     int64      `gorm:"column:end_time;default:0" json:"endTime" form:"endTime"`
	Status      int64      `gorm:"column:status;default:0" json:"status" form:"status"`
	FileSize    int64      `gorm:"column:file_size;default:0" json:"fileSize" form:"fileSize"`
	NoteCount   int64      `gorm:"column:note_count;default:0" json:"noteCount" form:"noteCount"`
	Message     string     `gorm:"column:message" json:"message" form:"message"`
	FilePath    string     `gorm:"column:file_path" json:"filePath" form:"filePath"`
	CreatedAt   timex.Time `gorm:"column:created_at;type:datetime;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt   timex.Time `gorm:"column:updated_at;type:datetime;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName BackupHistory's table name
func (*BackupHistory) TableName() string {
	return TableNameBackupHistory
}
