package service

import (
	"context"
	"testing"
	"time"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"go.uber.org/zap"
)

func newTestConflictService(
	conflictRepo *mockConflictRepo,
	versionRepo *mockVersionRepo,
	noteRepo *mockNoteRepo,
	editing EditingService,
	pusher EventPusher,
) ConflictService {
	if editing == nil {
		editing = NewEditingService(zap.NewNop(), &SyncServiceConfig{})
	}
	return NewConflictService(conflictRepo, versionRepo, noteRepo,
		newMockUserRepo(), editing, pusher, nil, zap.NewNop(), &SyncServiceConfig{})
}

// 验证同父不同设备的分歧编辑被判定为冲突

func TestConflictServiceDetectDivergence(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	noteRepo := newMockNoteRepo(&domain.Note{ID: 1, UID: 1, Title: "plan"})
	versionRepo := newMockVersionRepo(
		&domain.NoteVersion{ID: 1, NoteID: 1, UID: 1, DeviceID: "dev-a", ContentHash: "h1",
			SyncStatus: domain.SyncStatusSynchronized, CreatedAt: base},
		&domain.NoteVersion{ID: 2, NoteID: 1, UID: 1, DeviceID: "dev-a", ContentHash: "h2",
			ParentVersionID: 1, SyncStatus: domain.SyncStatusPending, CreatedAt: base.Add(time.Minute)},
		&domain.NoteVersion{ID: 3, NoteID: 1, UID: 2, DeviceID: "dev-b", ContentHash: "h3",
			ParentVersionID: 1, SyncStatus: domain.SyncStatusPending, CreatedAt: base.Add(2 * time.Minute)},
	)
	conflictRepo := newMockConflictRepo()
	pusher := &capturePusher{}
	svc := newTestConflictService(conflictRepo, versionRepo, noteRepo, nil, pusher)

	detected, err := svc.Detect(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(detected) != 1 {
		t.Fatalf("detected = %d conflicts, want 1", len(detected))
	}

	c := conflictRepo.created[0]
	if c.BaseVersionID != 1 {
		t.Errorf("base version = %d, want 1", c.BaseVersionID)
	}
	if c.LocalVersionID != 2 || c.RemoteVersionID != 3 {
		t.Errorf("pair = (%d, %d), want (2, 3)", c.LocalVersionID, c.RemoteVersionID)
	}
	if c.LocalUID != 1 || c.RemoteUID != 2 {
		t.Errorf("uids = (%d, %d), want (1, 2)", c.LocalUID, c.RemoteUID)
	}
	if c.Status != domain.ConflictStatusPending {
		t.Errorf("status = %s, want pending", c.Status)
	}

	// 双方各收到一次 conflict_detected
	if len(pusher.events) != 2 {
		t.Fatalf("pushed events = %d, want 2", len(pusher.events))
	}
	for _, e := range pusher.events {
		if e.Action != dto.EventConflictDetected {
			t.Errorf("event action = %s, want %s", e.Action, dto.EventConflictDetected)
		}
	}

	// 重复检测不再登记同一版本对
	detected, err = svc.Detect(ctx, 1, 1)
	if err != nil {
		t.Fatalf("second Detect() error = %v", err)
	}
	if len(detected) != 0 {
		t.Errorf("second detect = %d conflicts, want 0", len(detected))
	}
}

// 验证同一用户同一设备的顺序保存不构成冲突

func TestConflictServiceDetectSequentialEdits(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	noteRepo := newMockNoteRepo(&domain.Note{ID: 1, UID: 1})
	versionRepo := newMockVersionRepo(
		&domain.NoteVersion{ID: 2, NoteID: 1, UID: 1, DeviceID: "dev-a", ContentHash: "h2",
			ParentVersionID: 1, SyncStatus: domain.SyncStatusPending, CreatedAt: base},
		&domain.NoteVersion{ID: 3, NoteID: 1, UID: 1, DeviceID: "dev-a", ContentHash: "h3",
			ParentVersionID: 1, SyncStatus: domain.SyncStatusPending, CreatedAt: base.Add(time.Minute)},
	)
	conflictRepo := newMockConflictRepo()
	svc := newTestConflictService(conflictRepo, versionRepo, noteRepo, nil, nil)

	detected, err := svc.Detect(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(detected) != 0 {
		t.Errorf("detected = %d conflicts, want 0 for sequential edits", len(detected))
	}
}

// 验证根版本从不参与冲突

func TestConflictServiceDetectIgnoresRoots(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	noteRepo := newMockNoteRepo(&domain.Note{ID: 1, UID: 1})
	versionRepo := newMockVersionRepo(
		&domain.NoteVersion{ID: 1, NoteID: 1, UID: 1, DeviceID: "dev-a", ContentHash: "h1",
			SyncStatus: domain.SyncStatusPending, CreatedAt: base},
		&domain.NoteVersion{ID: 2, NoteID: 1, UID: 2, DeviceID: "dev-b", ContentHash: "h2",
			SyncStatus: domain.SyncStatusPending, CreatedAt: base.Add(time.Minute)},
	)
	conflictRepo := newMockConflictRepo()
	svc := newTestConflictService(conflictRepo, versionRepo, noteRepo, nil, nil)

	detected, err := svc.Detect(ctx, 1, 1)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(detected) != 0 {
		t.Errorf("detected = %d conflicts, want 0 for root versions", len(detected))
	}
}

// 验证待办列表查询失败时静默返回空列表

func TestConflictServicePendingForSwallowsErrors(t *testing.T) {
	conflictRepo := newMockConflictRepo()
	conflictRepo.listErr = context.DeadlineExceeded
	svc := newTestConflictService(conflictRepo, newMockVersionRepo(), newMockNoteRepo(), nil, nil)

	got := svc.PendingFor(context.Background(), 1, 10)
	if got == nil {
		t.Fatal("PendingFor() should return empty slice, not nil")
	}
	if len(got) != 0 {
		t.Errorf("PendingFor() = %d rows, want 0", len(got))
	}
}

// 验证实时碰撞预警的触发条件

func TestConflictServiceDetectRealTime(t *testing.T) {
	ctx := context.Background()
	editing := NewEditingService(zap.NewNop(), &SyncServiceConfig{})
	noteRepo := newMockNoteRepo(&domain.Note{ID: 1, UID: 1, CurrentVersionID: 5})
	versionRepo := newMockVersionRepo(
		&domain.NoteVersion{ID: 5, NoteID: 1, ContentHash: "h-current"},
	)
	svc := newTestConflictService(newMockConflictRepo(), versionRepo, noteRepo, editing, nil)

	// 无其他编辑者时静默
	got, err := svc.DetectRealTime(ctx, 1, &dto.RealTimeCheckRequest{NoteID: 1, ContentHash: "h-stale"})
	if err != nil {
		t.Fatalf("DetectRealTime() error = %v", err)
	}
	if got != nil {
		t.Error("expected no signal without other editors")
	}

	editing.Start(1, 8, "dev-b")

	// 其他用户在编辑且哈希陈旧时发出信号
	got, err = svc.DetectRealTime(ctx, 1, &dto.RealTimeCheckRequest{NoteID: 1, ContentHash: "h-stale"})
	if err != nil {
		t.Fatalf("DetectRealTime() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected collision signal")
	}
	if len(got.EditingUIDs) != 1 || got.EditingUIDs[0] != 8 {
		t.Errorf("editing uids = %v, want [8]", got.EditingUIDs)
	}
	if got.CurrentVersionID != 5 || got.CurrentContentHash != "h-current" {
		t.Errorf("current = (%d, %s), want (5, h-current)", got.CurrentVersionID, got.CurrentContentHash)
	}

	// 哈希一致时不发信号
	got, err = svc.DetectRealTime(ctx, 1, &dto.RealTimeCheckRequest{NoteID: 1, ContentHash: "h-current"})
	if err != nil {
		t.Fatalf("DetectRealTime() error = %v", err)
	}
	if got != nil {
		t.Error("expected no signal when hash matches current version")
	}

	// 自己的会话不触发预警
	editing.Stop(1, 8, "dev-b")
	editing.Start(1, 1, "dev-a")
	got, err = svc.DetectRealTime(ctx, 1, &dto.RealTimeCheckRequest{NoteID: 1, ContentHash: "h-stale"})
	if err != nil {
		t.Fatalf("DetectRealTime() error = %v", err)
	}
	if got != nil {
		t.Error("own session must not trigger a signal")
	}
}

// 验证复杂度分级与建议推导

func TestAnalyzeConflictComplexity(t *testing.T) {
	tests := []struct {
		name               string
		localTitle         string
		remoteTitle        string
		localBody          string
		remoteBody         string
		wantComplexity     domain.ConflictComplexity
		wantRecommendation domain.ResolutionRecommendation
	}{
		{
			name:       "title only change keeps low and merges",
			localTitle: "plan", remoteTitle: "roadmap",
			localBody: "the cat sat", remoteBody: "the cat sat",
			wantComplexity:     domain.ComplexityLow,
			wantRecommendation: domain.RecommendationAutoMerge,
		},
		{
			// 共 2 词，并 4 词，相似度恰为 0.5，归入 medium
			name:       "half similar bodies are medium",
			localTitle: "plan", remoteTitle: "plan",
			localBody: "the cat sat", remoteBody: "the cat ran",
			wantComplexity:     domain.ComplexityMedium,
			wantRecommendation: domain.RecommendationKeepMostRecent,
		},
		{
			// 共 2 词，并 3 词，相似度 0.67，高于 0.5 保持 low
			name:       "mostly similar bodies stay low",
			localTitle: "plan", remoteTitle: "plan",
			localBody: "the cat sat", remoteBody: "the cat",
			wantComplexity:     domain.ComplexityLow,
			wantRecommendation: domain.RecommendationKeepMostRecent,
		},
		{
			name:       "third similar bodies are medium",
			localTitle: "plan", remoteTitle: "plan",
			localBody: "alpha beta", remoteBody: "alpha gamma",
			wantComplexity:     domain.ComplexityMedium,
			wantRecommendation: domain.RecommendationKeepMostRecent,
		},
		{
			name:       "disjoint bodies need manual work",
			localTitle: "plan", remoteTitle: "plan",
			localBody: "alpha beta", remoteBody: "gamma delta",
			wantComplexity:     domain.ComplexityMedium,
			wantRecommendation: domain.RecommendationManualResolution,
		},
		{
			name:       "title and body diverged is high",
			localTitle: "plan", remoteTitle: "roadmap",
			localBody: "the cat sat", remoteBody: "the cat ran",
			wantComplexity:     domain.ComplexityHigh,
			wantRecommendation: domain.RecommendationManualResolution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := &domain.ConflictDetail{
				Conflict:    &domain.NoteConflict{ID: 1},
				LocalTitle:  tt.localTitle,
				RemoteTitle: tt.remoteTitle,
				LocalBody:   tt.localBody,
				RemoteBody:  tt.remoteBody,
			}
			got := analyzeConflict(detail)
			if got.Complexity != tt.wantComplexity {
				t.Errorf("complexity = %s, want %s (similarity %.2f)", got.Complexity, tt.wantComplexity, got.Similarity)
			}
			if got.Recommendation != tt.wantRecommendation {
				t.Errorf("recommendation = %s, want %s", got.Recommendation, tt.wantRecommendation)
			}
		})
	}
}
