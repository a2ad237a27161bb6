package service

import (
	"context"
	"testing"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	"go.uber.org/zap"
)

type shareFixture struct {
	noteRepo  *mockNoteRepo
	shareRepo *mockShareRepo
	histRepo  *mockHistoryRepo
	pusher    *capturePusher
	svc       ShareService
}

// newShareFixture: 笔记 1 属于用户 1，用户 2 和 3 为分享目标
func newShareFixture() *shareFixture {
	noteRepo := newMockNoteRepo(&domain.Note{ID: 1, UID: 1, Title: "roadmap", IsPrivate: true})
	shareRepo := newMockShareRepo()
	userRepo := newMockUserRepo(
		&domain.User{UID: 1, Username: "owner"},
		&domain.User{UID: 2, Username: "editor"},
		&domain.User{UID: 3, Username: "viewer"},
	)
	histRepo := &mockHistoryRepo{}
	history := NewHistoryService(histRepo, noteRepo, zap.NewNop(), &SyncServiceConfig{})
	pusher := &capturePusher{}
	svc := NewShareService(shareRepo, noteRepo, userRepo, history, pusher, zap.NewNop())
	return &shareFixture{
		noteRepo:  noteRepo,
		shareRepo: shareRepo,
		histRepo:  histRepo,
		pusher:    pusher,
		svc:       svc,
	}
}

func TestShareServiceShare(t *testing.T) {
	f := newShareFixture()
	ctx := context.Background()

	share, err := f.svc.Share(ctx, 1, &dto.ShareCreateRequest{NoteID: 1, TargetUID: 2, Permission: "edit"})
	if err != nil {
		t.Fatalf("Share() error = %v", err)
	}
	if share.OwnerUID != 1 || share.TargetUID != 2 || share.Permission != "edit" {
		t.Errorf("share = %+v", share)
	}

	// 分享后笔记对目标可见
	note, _ := f.noteRepo.GetByID(ctx, 1)
	if note.IsPrivate {
		t.Error("note must become non-private after sharing")
	}

	// 目标用户收到通知
	found := false
	for _, e := range f.pusher.events {
		if e.UID == 2 && e.Action == dto.EventNoteShared {
			found = true
		}
	}
	if !found {
		t.Error("target user must receive a share notification")
	}
	if len(f.histRepo.entries) != 1 || f.histRepo.entries[0].Action != domain.HistoryActionShared {
		t.Error("sharing must append a history entry")
	}

	tests := []struct {
		name     string
		ownerUID int64
		params   *dto.ShareCreateRequest
		wantErr  *code.Code
	}{
		{
			name:     "duplicate share",
			ownerUID: 1,
			params:   &dto.ShareCreateRequest{NoteID: 1, TargetUID: 2, Permission: "view"},
			wantErr:  code.ErrorShareAlreadyExists,
		},
		{
			name:     "not the owner",
			ownerUID: 2,
			params:   &dto.ShareCreateRequest{NoteID: 1, TargetUID: 3, Permission: "view"},
			wantErr:  code.ErrorNoteAccessDenied,
		},
		{
			name:     "share with yourself",
			ownerUID: 1,
			params:   &dto.ShareCreateRequest{NoteID: 1, TargetUID: 1, Permission: "view"},
			wantErr:  code.ErrorInvalidParams,
		},
		{
			name:     "target does not exist",
			ownerUID: 1,
			params:   &dto.ShareCreateRequest{NoteID: 1, TargetUID: 99, Permission: "view"},
			wantErr:  code.ErrorShareTargetNotFound,
		},
		{
			name:     "note does not exist",
			ownerUID: 1,
			params:   &dto.ShareCreateRequest{NoteID: 42, TargetUID: 2, Permission: "view"},
			wantErr:  code.ErrorNoteNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Share(ctx, tt.ownerUID, tt.params)
			if err == nil {
				t.Fatal("expected share rejection")
			}
			if got := mustCode(t, err); got != tt.wantErr.Code() {
				t.Errorf("error code = %d, want %d", got, tt.wantErr.Code())
			}
		})
	}
}

func TestShareServiceUnshareRestoresPrivacy(t *testing.T) {
	f := newShareFixture()
	ctx := context.Background()

	for _, target := range []int64{2, 3} {
		if _, err := f.svc.Share(ctx, 1, &dto.ShareCreateRequest{NoteID: 1, TargetUID: target, Permission: "view"}); err != nil {
			t.Fatalf("Share(%d) error = %v", target, err)
		}
	}

	if err := f.svc.Unshare(ctx, 1, &dto.ShareDeleteRequest{NoteID: 1, TargetUID: 2}); err != nil {
		t.Fatalf("Unshare() error = %v", err)
	}
	note, _ := f.noteRepo.GetByID(ctx, 1)
	if note.IsPrivate {
		t.Error("note must stay visible while shares remain")
	}

	if err := f.svc.Unshare(ctx, 1, &dto.ShareDeleteRequest{NoteID: 1, TargetUID: 3}); err != nil {
		t.Fatalf("Unshare() error = %v", err)
	}
	note, _ = f.noteRepo.GetByID(ctx, 1)
	if !note.IsPrivate {
		t.Error("note must return to private after the last share is revoked")
	}

	// 撤销不存在的分享
	err := f.svc.Unshare(ctx, 1, &dto.ShareDeleteRequest{NoteID: 1, TargetUID: 2})
	if err == nil {
		t.Fatal("expected error for a missing share")
	}
	if got := mustCode(t, err); got != code.ErrorShareTargetNotFound.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorShareTargetNotFound.Code())
	}
}

func TestShareServicePermissions(t *testing.T) {
	f := newShareFixture()
	ctx := context.Background()

	if _, err := f.svc.Share(ctx, 1, &dto.ShareCreateRequest{NoteID: 1, TargetUID: 2, Permission: "edit"}); err != nil {
		t.Fatalf("Share() error = %v", err)
	}
	if _, err := f.svc.Share(ctx, 1, &dto.ShareCreateRequest{NoteID: 1, TargetUID: 3, Permission: "view"}); err != nil {
		t.Fatalf("Share() error = %v", err)
	}

	tests := []struct {
		name     string
		uid      int64
		wantEdit bool
		wantView bool
	}{
		{name: "owner", uid: 1, wantEdit: true, wantView: true},
		{name: "edit share", uid: 2, wantEdit: true, wantView: true},
		{name: "view share", uid: 3, wantEdit: false, wantView: true},
		{name: "stranger", uid: 9, wantEdit: false, wantView: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edit, err := f.svc.CanUserEdit(ctx, 1, tt.uid)
			if err != nil {
				t.Fatalf("CanUserEdit() error = %v", err)
			}
			if edit != tt.wantEdit {
				t.Errorf("edit = %v, want %v", edit, tt.wantEdit)
			}
			view, err := f.svc.CanUserView(ctx, 1, tt.uid)
			if err != nil {
				t.Fatalf("CanUserView() error = %v", err)
			}
			if view != tt.wantView {
				t.Errorf("view = %v, want %v", view, tt.wantView)
			}
		})
	}
}

func TestShareServiceListForTarget(t *testing.T) {
	f := newShareFixture()
	ctx := context.Background()

	if _, err := f.svc.Share(ctx, 1, &dto.ShareCreateRequest{NoteID: 1, TargetUID: 2, Permission: "edit"}); err != nil {
		t.Fatalf("Share() error = %v", err)
	}

	got, err := f.svc.ListForTarget(ctx, 2)
	if err != nil {
		t.Fatalf("ListForTarget() error = %v", err)
	}
	if len(got) != 1 || got[0].NoteID != 1 {
		t.Errorf("shares = %+v, want one entry for note 1", got)
	}
	if empty, err := f.svc.ListForTarget(ctx, 9); err != nil || len(empty) != 0 {
		t.Errorf("shares for stranger = %v (err %v), want empty", empty, err)
	}
}
