package dao

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func newTestDao(t *testing.T) *Dao {
	t.Helper()

	db, err := NewDBEngine(&DatabaseConfig{
		Type:         "sqlite",
		Path:         filepath.Join(t.TempDir(), "test.sqlite3"),
		MaxIdleConns: 1,
		MaxOpenConns: 1,
		RunMode:      "release",
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(db)
}

func TestVersionRepository_SequenceAssignment(t *testing.T) {
	d := newTestDao(t)
	versions := NewVersionRepository(d)
	notes := NewNoteRepository(d)
	ctx := context.Background()

	note, err := notes.Create(ctx, &domain.Note{UID: 1, Title: "Plan"}, 1)
	assert.Nil(t, err)

	for want := int64(1); want <= 3; want++ {
		v, err := versions.Create(ctx, &domain.NoteVersion{
			NoteID:      note.ID,
			UID:         1,
			DeviceID:    "dev-a",
			Title:       "Plan",
			Body:        "draft",
			ContentHash: fmt.Sprintf("hash-%d", want),
		}, nil, 1)
		assert.Nil(t, err)
		assert.Equal(t, want, v.SequenceNumber)
		assert.Equal(t, domain.SyncStatusPending, v.SyncStatus)
	}
}

func TestVersionRepository_CreateWithHistory(t *testing.T) {
	d := newTestDao(t)
	versions := NewVersionRepository(d)
	histories := NewHistoryRepository(d)
	ctx := context.Background()

	v, err := versions.Create(ctx, &domain.NoteVersion{
		NoteID:      7,
		UID:         1,
		DeviceID:    "dev-a",
		Title:       "T",
		Body:        "B",
		ContentHash: "h1",
	}, &domain.NoteHistory{
		NoteID: 7,
		UID:    1,
		Action: domain.HistoryActionCreated,
		Detail: "note created",
	}, 1)
	assert.Nil(t, err)

	entries, err := histories.ListByNote(ctx, 7, 0)
	assert.Nil(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, domain.HistoryActionCreated, entries[0].Action)
	assert.Equal(t, v.ID, entries[0].VersionID)
}

func seedConflict(t *testing.T, d *Dao) (*domain.Note, *domain.NoteVersion, *domain.NoteVersion, *domain.NoteConflict) {
	t.Helper()
	ctx := context.Background()
	versions := NewVersionRepository(d)
	notes := NewNoteRepository(d)
	conflicts := NewConflictRepository(d)

	note, err := notes.Create(ctx, &domain.Note{UID: 1, Title: "Shared"}, 1)
	assert.Nil(t, err)

	base, err := versions.Create(ctx, &domain.NoteVersion{
		NoteID: note.ID, UID: 1, DeviceID: "dev-a", Title: "Shared", Body: "base", ContentHash: "h-base",
	}, nil, 1)
	assert.Nil(t, err)

	local, err := versions.Create(ctx, &domain.NoteVersion{
		NoteID: note.ID, UID: 1, DeviceID: "dev-a", Title: "Shared", Body: "local",
		ContentHash: "h-local", ParentVersionID: base.ID,
	}, nil, 1)
	assert.Nil(t, err)

	remote, err := versions.Create(ctx, &domain.NoteVersion{
		NoteID: note.ID, UID: 2, DeviceID: "dev-b", Title: "Shared", Body: "remote",
		ContentHash: "h-remote", ParentVersionID: base.ID,
	}, nil, 2)
	assert.Nil(t, err)

	conflict, err := conflicts.Create(ctx, &domain.NoteConflict{
		NoteID:          note.ID,
		BaseVersionID:   base.ID,
		LocalVersionID:  local.ID,
		RemoteVersionID: remote.ID,
		LocalUID:        1,
		RemoteUID:       2,
	}, nil, 1)
	assert.Nil(t, err)
	assert.Equal(t, domain.ConflictStatusPending, conflict.Status)

	return note, local, remote, conflict
}

func TestConflictRepository_CreateStampsVersions(t *testing.T) {
	d := newTestDao(t)
	versions := NewVersionRepository(d)
	ctx := context.Background()

	_, local, remote, _ := seedConflict(t, d)

	for _, id := range []int64{local.ID, remote.ID} {
		v, err := versions.GetByID(ctx, id)
		assert.Nil(t, err)
		assert.Equal(t, domain.SyncStatusConflict, v.SyncStatus)
	}
}

func TestConflictRepository_ApplyResolutionOnlyOnce(t *testing.T) {
	d := newTestDao(t)
	conflicts := NewConflictRepository(d)
	notes := NewNoteRepository(d)
	ctx := context.Background()

	note, local, remote, conflict := seedConflict(t, d)

	plan := &domain.ResolutionPlan{
		ConflictID:        conflict.ID,
		NoteID:            note.ID,
		Status:            domain.ConflictStatusResolvedManual,
		ResolutionType:    domain.ResolutionKeepLocal,
		ResolvedBy:        1,
		ResolvedAt:        time.Now(),
		ResolvedVersionID: local.ID,
		StatusChanges: []domain.VersionStatusChange{
			{VersionID: local.ID, Status: domain.SyncStatusSynchronized},
			{VersionID: remote.ID, Status: domain.SyncStatusObsolete},
		},
		PointerVersionID: local.ID,
		PointerSequence:  local.SequenceNumber,
		PointerTitle:     local.Title,
		History: &domain.NoteHistory{
			NoteID: note.ID,
			UID:    1,
			Action: domain.HistoryActionConflictResolved,
			Detail: "kept local version",
		},
	}

	result, err := conflicts.ApplyResolution(ctx, plan, 1)
	assert.Nil(t, err)
	assert.Equal(t, local.ID, result.ResolvedVersionID)

	got, err := notes.GetByID(ctx, note.ID)
	assert.Nil(t, err)
	assert.Equal(t, local.ID, got.CurrentVersionID)

	// 第二次执行命中已解决状态
	_, err = conflicts.ApplyResolution(ctx, plan, 1)
	assert.True(t, errors.Is(err, domain.ErrConflictNotPending))
}

func TestConflictRepository_ExistsPairBothOrders(t *testing.T) {
	d := newTestDao(t)
	conflicts := NewConflictRepository(d)
	ctx := context.Background()

	note, local, remote, _ := seedConflict(t, d)

	ok, err := conflicts.ExistsPair(ctx, note.ID, local.ID, remote.ID)
	assert.Nil(t, err)
	assert.True(t, ok)

	ok, err = conflicts.ExistsPair(ctx, note.ID, remote.ID, local.ID)
	assert.Nil(t, err)
	assert.True(t, ok)

	ok, err = conflicts.ExistsPair(ctx, note.ID, local.ID, local.ID)
	assert.Nil(t, err)
	assert.False(t, ok)
}
