// Package model 定义数据模型
package model

import (
	"gorm.io/gorm"
)

// AutoMigrate 按模型名迁移对应的表结构
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "User":
		return db.AutoMigrate(User{})

	case "Note":
		return db.AutoMigrate(Note{})

	case "NoteVersion":
		return db.AutoMigrate(NoteVersion{})

	case "NoteConflict":
		return db.AutoMigrate(NoteConflict{})

	case "NoteHistory":
		return db.AutoMigrate(NoteHistory{})

	case "NoteShare":
		return db.AutoMigrate(NoteShare{})

	case "BackupHistory":
		return db.AutoMigrate(BackupHistory{})
	}
	return nil
}

// AutoMigrateAll 迁移全部表结构，启动引导与升级脚本使用
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		User{},
		Note{},
		NoteVersion{},
		NoteConflict{},
		NoteHistory{},
		NoteShare{},
		BackupHistory{},
	)
}
