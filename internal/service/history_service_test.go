package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/pkg/code"
	"go.uber.org/zap"
)

func newTestHistoryService(pageCap int) (HistoryService, *mockHistoryRepo, *mockNoteRepo) {
	histRepo := &mockHistoryRepo{}
	noteRepo := newMockNoteRepo(&domain.Note{ID: 1, UID: 1, Title: "plan", CurrentVersionID: 7})
	svc := NewHistoryService(histRepo, noteRepo, zap.NewNop(), &SyncServiceConfig{HistoryPageCap: pageCap})
	return svc, histRepo, noteRepo
}

func TestHistoryServiceAdd(t *testing.T) {
	svc, _, _ := newTestHistoryService(0)
	ctx := context.Background()

	// 未指定版本时挂到当前版本指针上
	got, err := svc.Add(ctx, &domain.NoteHistory{
		NoteID: 1, UID: 1, Action: domain.HistoryActionEdited, Detail: "note edited",
	}, 1)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if got.VersionID != 7 {
		t.Errorf("version id = %d, want current pointer 7", got.VersionID)
	}

	// 显式版本保持不变
	got, err = svc.Add(ctx, &domain.NoteHistory{
		NoteID: 1, UID: 1, VersionID: 5, Action: domain.HistoryActionRestored, Detail: "restored",
	}, 1)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if got.VersionID != 5 {
		t.Errorf("version id = %d, want 5", got.VersionID)
	}
}

func TestHistoryServiceAddRejections(t *testing.T) {
	svc, histRepo, _ := newTestHistoryService(0)
	ctx := context.Background()

	tests := []struct {
		name    string
		entry   *domain.NoteHistory
		wantErr *code.Code
	}{
		{
			name:    "unknown action",
			entry:   &domain.NoteHistory{NoteID: 1, UID: 1, Action: "exploded"},
			wantErr: code.ErrorInvalidParams,
		},
		{
			name:    "missing note",
			entry:   &domain.NoteHistory{NoteID: 42, UID: 1, Action: domain.HistoryActionEdited},
			wantErr: code.ErrorNoteNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(ctx, tt.entry, 1)
			if err == nil {
				t.Fatal("expected rejection")
			}
			if got := mustCode(t, err); got != tt.wantErr.Code() {
				t.Errorf("error code = %d, want %d", got, tt.wantErr.Code())
			}
		})
	}
	if len(histRepo.entries) != 0 {
		t.Error("rejected entries must not be stored")
	}
}

func TestHistoryServiceForNoteClampsLimit(t *testing.T) {
	svc, _, _ := newTestHistoryService(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Add(ctx, &domain.NoteHistory{
			NoteID: 1, UID: 1, Action: domain.HistoryActionEdited,
			Detail: fmt.Sprintf("edit %d", i),
		}, 1); err != nil {
			t.Fatalf("Add(%d) error = %v", i, err)
		}
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "zero falls back to cap", limit: 0, want: 3},
		{name: "below cap passes through", limit: 2, want: 2},
		{name: "above cap is clamped", limit: 99, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ForNote(ctx, 1, tt.limit)
			if err != nil {
				t.Fatalf("ForNote() error = %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("entries = %d, want %d", len(got), tt.want)
			}
		})
	}

	// 最新在前
	got, err := svc.ForNote(ctx, 1, 2)
	if err != nil {
		t.Fatalf("ForNote() error = %v", err)
	}
	if got[0].Detail != "edit 4" || got[1].Detail != "edit 3" {
		t.Errorf("order = [%s, %s], want newest first", got[0].Detail, got[1].Detail)
	}
}

func TestHistoryServiceActivityStats(t *testing.T) {
	svc, _, _ := newTestHistoryService(0)
	ctx := context.Background()

	entries := []*domain.NoteHistory{
		{NoteID: 1, UID: 1, Action: domain.HistoryActionCreated, Detail: "note created"},
		{NoteID: 1, UID: 1, Action: domain.HistoryActionEdited, Detail: "edit a"},
		{NoteID: 1, UID: 2, Action: domain.HistoryActionEdited, Detail: "edit b"},
	}
	for _, entry := range entries {
		if _, err := svc.Add(ctx, entry, entry.UID); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	// windowHours 为 0 时回退到 24 小时
	stats, err := svc.ActivityStats(ctx, 1, 0)
	if err != nil {
		t.Fatalf("ActivityStats() error = %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("stats rows = %d, want 2", len(stats))
	}
	for _, stat := range stats {
		switch stat.Action {
		case string(domain.HistoryActionCreated):
			if stat.Count != 1 || stat.UserCount != 1 {
				t.Errorf("created stat = %+v", stat)
			}
		case string(domain.HistoryActionEdited):
			if stat.Count != 2 || stat.UserCount != 2 {
				t.Errorf("edited stat = %+v", stat)
			}
		default:
			t.Errorf("unexpected action %s", stat.Action)
		}
	}
}
