package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	"go.uber.org/zap"
)

// mustCode 提取业务错误码，非业务错误直接失败
func mustCode(t *testing.T, err error) int {
	t.Helper()
	var c *code.Code
	if !errors.As(err, &c) {
		t.Fatalf("expected *code.Code error, got %v", err)
	}
	return c.Code()
}

func newTestVersionService(noteRepo *mockNoteRepo, versionRepo *mockVersionRepo) VersionService {
	return NewVersionService(versionRepo, noteRepo, zap.NewNop(), &SyncServiceConfig{})
}

// 验证相同内容重复保存不产生新版本

func TestVersionServiceCreateDeduplicates(t *testing.T) {
	ctx := context.Background()
	noteRepo := newMockNoteRepo(&domain.Note{ID: 1, UID: 7, Title: "draft"})
	versionRepo := newMockVersionRepo()
	svc := newTestVersionService(noteRepo, versionRepo)

	req := &dto.VersionCreateRequest{NoteID: 1, Title: "draft", Body: "the cat sat", DeviceID: "dev-a"}

	isNew, first, err := svc.Create(ctx, 7, req)
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if !isNew {
		t.Error("first create should report a new version")
	}
	if first.SequenceNumber != 1 {
		t.Errorf("first version sequence = %d, want 1", first.SequenceNumber)
	}
	if first.SyncStatus != string(domain.SyncStatusPending) {
		t.Errorf("first version status = %s, want pending", first.SyncStatus)
	}

	isNew, second, err := svc.Create(ctx, 7, req)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if isNew {
		t.Error("identical content should be deduplicated")
	}
	if second.ID != first.ID {
		t.Errorf("deduplicated version ID = %d, want %d", second.ID, first.ID)
	}
	if len(versionRepo.versions) != 1 {
		t.Errorf("stored versions = %d, want 1", len(versionRepo.versions))
	}
	if len(versionRepo.histories) != 1 {
		t.Errorf("history entries = %d, want 1", len(versionRepo.histories))
	}
}

// 验证首个版本记 created，后续版本记 edited

func TestVersionServiceCreateHistoryAction(t *testing.T) {
	ctx := context.Background()
	noteRepo := newMockNoteRepo(&domain.Note{ID: 1, UID: 7})
	versionRepo := newMockVersionRepo()
	svc := newTestVersionService(noteRepo, versionRepo)

	if _, _, err := svc.Create(ctx, 7, &dto.VersionCreateRequest{NoteID: 1, Title: "a", Body: "one"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, _, err := svc.Create(ctx, 7, &dto.VersionCreateRequest{NoteID: 1, Title: "a", Body: "two"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(versionRepo.histories) != 2 {
		t.Fatalf("history entries = %d, want 2", len(versionRepo.histories))
	}
	if versionRepo.histories[0].Action != domain.HistoryActionCreated {
		t.Errorf("first action = %s, want created", versionRepo.histories[0].Action)
	}
	if versionRepo.histories[1].Action != domain.HistoryActionEdited {
		t.Errorf("second action = %s, want edited", versionRepo.histories[1].Action)
	}
}

func TestVersionServiceCreateNoteNotFound(t *testing.T) {
	svc := newTestVersionService(newMockNoteRepo(), newMockVersionRepo())
	_, _, err := svc.Create(context.Background(), 7, &dto.VersionCreateRequest{NoteID: 99, Title: "a"})
	if err == nil {
		t.Fatal("expected error for missing note")
	}
	if got := mustCode(t, err); got != code.ErrorNoteNotFound.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorNoteNotFound.Code())
	}
}

// 验证比较结果与缺失版本的错误

func TestVersionServiceCompare(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	versionRepo := newMockVersionRepo(
		&domain.NoteVersion{ID: 1, NoteID: 1, Title: "a", Body: "same", ContentHash: "h1", CreatedAt: base},
		&domain.NoteVersion{ID: 2, NoteID: 1, Title: "b", Body: "same", ContentHash: "h2", CreatedAt: base.Add(90 * time.Second)},
		&domain.NoteVersion{ID: 3, NoteID: 1, Title: "a", Body: "same", ContentHash: "h1", CreatedAt: base.Add(10 * time.Second)},
	)
	svc := newTestVersionService(newMockNoteRepo(), versionRepo)
	ctx := context.Background()

	tests := []struct {
		name           string
		idA, idB       int64
		titleChanged   bool
		contentChanged bool
		deltaMs        int64
		wantErrCode    int
	}{
		{name: "title and hash differ", idA: 1, idB: 2, titleChanged: true, contentChanged: true, deltaMs: 90000},
		{name: "identical content", idA: 1, idB: 3, titleChanged: false, contentChanged: false, deltaMs: 10000},
		{name: "delta is symmetric", idA: 2, idB: 1, titleChanged: true, contentChanged: true, deltaMs: 90000},
		{name: "first missing", idA: 99, idB: 1, wantErrCode: code.ErrorVersionNotFound.Code()},
		{name: "second missing", idA: 1, idB: 99, wantErrCode: code.ErrorVersionNotFound.Code()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Compare(ctx, tt.idA, tt.idB)
			if tt.wantErrCode != 0 {
				if err == nil {
					t.Fatal("expected error")
				}
				if gotCode := mustCode(t, err); gotCode != tt.wantErrCode {
					t.Errorf("error code = %d, want %d", gotCode, tt.wantErrCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compare() error = %v", err)
			}
			if got.TitleChanged != tt.titleChanged {
				t.Errorf("TitleChanged = %v, want %v", got.TitleChanged, tt.titleChanged)
			}
			if got.ContentChanged != tt.contentChanged {
				t.Errorf("ContentChanged = %v, want %v", got.ContentChanged, tt.contentChanged)
			}
			if got.TimeDeltaMs != tt.deltaMs {
				t.Errorf("TimeDeltaMs = %d, want %d", got.TimeDeltaMs, tt.deltaMs)
			}
		})
	}
}

func TestVersionServiceSetCurrent(t *testing.T) {
	ctx := context.Background()
	note := &domain.Note{ID: 1, UID: 7, Title: "old"}
	noteRepo := newMockNoteRepo(note)
	versionRepo := newMockVersionRepo(
		&domain.NoteVersion{ID: 5, NoteID: 1, Title: "new title", SequenceNumber: 3},
	)
	svc := newTestVersionService(noteRepo, versionRepo)

	err := svc.SetCurrent(ctx, 9, &dto.VersionSetCurrentRequest{NoteID: 1, VersionID: 5})
	if err != nil {
		t.Fatalf("SetCurrent() error = %v", err)
	}
	if note.CurrentVersionID != 5 || note.CurrentSequence != 3 {
		t.Errorf("pointer = (%d, %d), want (5, 3)", note.CurrentVersionID, note.CurrentSequence)
	}
	if note.Title != "new title" {
		t.Errorf("note title = %q, want %q", note.Title, "new title")
	}
	if note.LastEditorUID != 9 {
		t.Errorf("last editor = %d, want 9", note.LastEditorUID)
	}

	err = svc.SetCurrent(ctx, 9, &dto.VersionSetCurrentRequest{NoteID: 1, VersionID: 99})
	if err == nil {
		t.Fatal("expected error for missing version")
	}
	if got := mustCode(t, err); got != code.ErrorVersionNotFound.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorVersionNotFound.Code())
	}
}

// 属性测试: 任意内容连续保存两次只产生一个版本

func TestPropertyVersionCreateIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("double save stores exactly one version", prop.ForAll(
		func(title, body string) bool {
			ctx := context.Background()
			noteRepo := newMockNoteRepo(&domain.Note{ID: 1, UID: 7})
			versionRepo := newMockVersionRepo()
			svc := newTestVersionService(noteRepo, versionRepo)

			req := &dto.VersionCreateRequest{NoteID: 1, Title: title, Body: body}
			isNewFirst, first, err := svc.Create(ctx, 7, req)
			if err != nil || !isNewFirst {
				t.Logf("first create: isNew=%v err=%v", isNewFirst, err)
				return false
			}
			isNewSecond, second, err := svc.Create(ctx, 7, req)
			if err != nil || isNewSecond {
				t.Logf("second create: isNew=%v err=%v", isNewSecond, err)
				return false
			}
			if first.ID != second.ID {
				t.Logf("version IDs differ: %d vs %d", first.ID, second.ID)
				return false
			}
			return len(versionRepo.versions) == 1
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
