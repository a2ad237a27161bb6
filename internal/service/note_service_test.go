package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	"go.uber.org/zap"
)

type noteFixture struct {
	noteRepo    *mockNoteRepo
	versionRepo *mockVersionRepo
	shareRepo   *mockShareRepo
	svc         NoteService
	shares      ShareService
}

func newNoteFixture() *noteFixture {
	logger := zap.NewNop()
	noteRepo := newMockNoteRepo()
	versionRepo := newMockVersionRepo()
	shareRepo := newMockShareRepo()
	userRepo := newMockUserRepo(
		&domain.User{UID: 1, Username: "owner"},
		&domain.User{UID: 2, Username: "guest"},
	)
	history := NewHistoryService(&mockHistoryRepo{}, noteRepo, logger, &SyncServiceConfig{})
	versions := NewVersionService(versionRepo, noteRepo, logger, &SyncServiceConfig{})
	shares := NewShareService(shareRepo, noteRepo, userRepo, history, nil, logger)
	return &noteFixture{
		noteRepo:    noteRepo,
		versionRepo: versionRepo,
		shareRepo:   shareRepo,
		svc:         NewNoteService(noteRepo, versions, shares, logger),
		shares:      shares,
	}
}

func TestNoteServiceCreateSeedsRootVersion(t *testing.T) {
	f := newNoteFixture()
	ctx := context.Background()

	note, err := f.svc.Create(ctx, 1, &dto.NoteCreateRequest{
		Title:    "meeting notes",
		Body:     "agenda",
		DeviceID: "dev-a",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if note.ID == 0 {
		t.Fatal("note id must be assigned")
	}
	if !note.IsPrivate {
		t.Error("new notes must start private")
	}
	if note.CurrentVersionID == 0 {
		t.Fatal("pointer must reference the root version")
	}
	if note.CurrentSequence != 1 {
		t.Errorf("current sequence = %d, want 1", note.CurrentSequence)
	}

	root, _ := f.versionRepo.GetByID(ctx, note.CurrentVersionID)
	if root == nil {
		t.Fatal("root version must exist")
	}
	if root.ParentVersionID != 0 {
		t.Errorf("root parent = %d, want 0", root.ParentVersionID)
	}
	if root.Body != "agenda" {
		t.Errorf("root body = %q", root.Body)
	}
}

func TestNoteServiceCreateToleratesVersionFailure(t *testing.T) {
	f := newNoteFixture()
	f.versionRepo.createErr = fmt.Errorf("disk full")

	note, err := f.svc.Create(context.Background(), 1, &dto.NoteCreateRequest{
		Title: "meeting notes", Body: "agenda",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	// 根版本落库失败时笔记仍创建成功，指针留空
	if note.CurrentVersionID != 0 {
		t.Errorf("pointer = %d, want 0 on version failure", note.CurrentVersionID)
	}
}

func TestNoteServiceGetAccessControl(t *testing.T) {
	f := newNoteFixture()
	ctx := context.Background()

	note, err := f.svc.Create(ctx, 1, &dto.NoteCreateRequest{Title: "secret", Body: "body"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := f.svc.Get(ctx, 1, note.ID); err != nil {
		t.Errorf("owner access failed: %v", err)
	}

	_, err = f.svc.Get(ctx, 2, note.ID)
	if err == nil {
		t.Fatal("stranger access must be rejected")
	}
	if got := mustCode(t, err); got != code.ErrorNoteAccessDenied.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorNoteAccessDenied.Code())
	}

	// 获得分享后可见
	if _, err := f.shares.Share(ctx, 1, &dto.ShareCreateRequest{
		NoteID: note.ID, TargetUID: 2, Permission: "view",
	}); err != nil {
		t.Fatalf("Share() error = %v", err)
	}
	if _, err := f.svc.Get(ctx, 2, note.ID); err != nil {
		t.Errorf("shared access failed: %v", err)
	}

	_, err = f.svc.Get(ctx, 1, 4242)
	if err == nil {
		t.Fatal("missing note must be rejected")
	}
	if got := mustCode(t, err); got != code.ErrorNoteNotFound.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorNoteNotFound.Code())
	}
}

func TestNoteServiceList(t *testing.T) {
	f := newNoteFixture()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := f.svc.Create(ctx, 1, &dto.NoteCreateRequest{
			Title: fmt.Sprintf("note %d", i),
		}); err != nil {
			t.Fatalf("Create(%d) error = %v", i, err)
		}
	}
	if _, err := f.svc.Create(ctx, 2, &dto.NoteCreateRequest{Title: "other user"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	notes, count, err := f.svc.List(ctx, 1, 1, 3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if len(notes) != 3 {
		t.Errorf("page size = %d, want 3", len(notes))
	}

	second, _, err := f.svc.List(ctx, 1, 2, 3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(second) != 2 {
		t.Errorf("second page = %d, want 2", len(second))
	}
}
