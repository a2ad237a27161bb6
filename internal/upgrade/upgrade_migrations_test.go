package upgrade

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/notesphere/note-sync-service/global"
	"github.com/notesphere/note-sync-service/internal/model"
	"github.com/notesphere/note-sync-service/pkg/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestHashBackfillMigrate_Up(t *testing.T) {
	global.Logger, _ = zap.NewDevelopment()

	db := testDB(t)
	if err := db.AutoMigrate(&model.NoteVersion{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	prehashed := util.EncodeNoteHash("existing", "already hashed")
	seed := []*model.NoteVersion{
		{NoteID: 1, UID: 1, Title: "plan", Body: "first draft", SequenceNumber: 1, ContentHash: "", SyncStatus: "synchronized"},
		{NoteID: 1, UID: 1, Title: "plan", Body: "second draft", SequenceNumber: 2, ContentHash: "", SyncStatus: "pending"},
		{NoteID: 2, UID: 1, Title: "existing", Body: "already hashed", SequenceNumber: 1, ContentHash: prehashed, SyncStatus: "synchronized"},
	}
	for _, v := range seed {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("seed version: %v", err)
		}
	}

	migrate := &HashBackfillMigrate{}
	if err := migrate.Up(db, context.Background()); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	var got []*model.NoteVersion
	if err := db.Order("id").Find(&got).Error; err != nil {
		t.Fatalf("list versions: %v", err)
	}

	if got[0].ContentHash != util.EncodeNoteHash("plan", "first draft") {
		t.Errorf("row 1 hash = %q, want recomputed hash", got[0].ContentHash)
	}
	if got[1].ContentHash != util.EncodeNoteHash("plan", "second draft") {
		t.Errorf("row 2 hash = %q, want recomputed hash", got[1].ContentHash)
	}
	if got[2].ContentHash != prehashed {
		t.Errorf("row 3 hash = %q, want untouched %q", got[2].ContentHash, prehashed)
	}
}

func TestConflictStatusMigrate_Up(t *testing.T) {
	global.Logger, _ = zap.NewDevelopment()

	db := testDB(t)
	if err := db.AutoMigrate(&model.NoteConflict{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}

	seed := []*model.NoteConflict{
		{NoteID: 1, LocalVersionID: 1, RemoteVersionID: 2, LocalUID: 1, RemoteUID: 2, Status: "resolved_automatic"},
		{NoteID: 2, LocalVersionID: 3, RemoteVersionID: 4, LocalUID: 1, RemoteUID: 2, Status: "pending"},
		{NoteID: 3, LocalVersionID: 5, RemoteVersionID: 6, LocalUID: 1, RemoteUID: 2, Status: "resolved_manual"},
	}
	for _, c := range seed {
		if err := db.Create(c).Error; err != nil {
			t.Fatalf("seed conflict: %v", err)
		}
	}

	migrate := &ConflictStatusMigrate{}
	if err := migrate.Up(db, context.Background()); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	var count int64
	if err := db.Model(&model.NoteConflict{}).Where("status = ?", "resolved_automatic").Count(&count).Error; err != nil {
		t.Fatalf("count legacy: %v", err)
	}
	if count != 0 {
		t.Errorf("legacy resolved_automatic rows = %d, want 0", count)
	}

	if err := db.Model(&model.NoteConflict{}).Where("status = ?", "resolved_manual").Count(&count).Error; err != nil {
		t.Fatalf("count manual: %v", err)
	}
	if count != 2 {
		t.Errorf("resolved_manual rows = %d, want 2", count)
	}

	if err := db.Model(&model.NoteConflict{}).Where("status = ?", "pending").Count(&count).Error; err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if count != 1 {
		t.Errorf("pending rows = %d, want 1", count)
	}
}
