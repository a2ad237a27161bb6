package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/notesphere/note-sync-service/internal/domain"
	"github.com/notesphere/note-sync-service/internal/dto"
	"github.com/notesphere/note-sync-service/pkg/code"
	"go.uber.org/zap"
)

type resolutionFixture struct {
	conflictRepo *mockConflictRepo
	versionRepo  *mockVersionRepo
	noteRepo     *mockNoteRepo
	pusher       *capturePusher
	svc          ResolutionService
	conflictID   int64
}

// newResolutionFixture 构造一条待解决冲突:
// 基准版本 1，local 版本 2，remote 版本 3
func newResolutionFixture(t *testing.T, localCreated, remoteCreated time.Time, detectedAt time.Time, localBody, remoteBody string) *resolutionFixture {
	t.Helper()

	noteRepo := newMockNoteRepo(&domain.Note{ID: 1, UID: 1, Title: "plan", CurrentVersionID: 1})
	versionRepo := newMockVersionRepo(
		&domain.NoteVersion{ID: 1, NoteID: 1, UID: 1, DeviceID: "dev-a", Title: "plan", Body: "base body",
			SequenceNumber: 1, ContentHash: "h1", SyncStatus: domain.SyncStatusSynchronized,
			CreatedAt: localCreated.Add(-time.Hour)},
		&domain.NoteVersion{ID: 2, NoteID: 1, UID: 1, DeviceID: "dev-a", Title: "plan", Body: localBody,
			SequenceNumber: 2, ContentHash: "h2", SyncStatus: domain.SyncStatusConflict,
			ParentVersionID: 1, CreatedAt: localCreated},
		&domain.NoteVersion{ID: 3, NoteID: 1, UID: 2, DeviceID: "dev-b", Title: "plan", Body: remoteBody,
			SequenceNumber: 3, ContentHash: "h3", SyncStatus: domain.SyncStatusConflict,
			ParentVersionID: 1, CreatedAt: remoteCreated},
	)

	conflictRepo := newMockConflictRepo()
	conflict := &domain.NoteConflict{
		NoteID:          1,
		BaseVersionID:   1,
		LocalVersionID:  2,
		RemoteVersionID: 3,
		LocalUID:        1,
		RemoteUID:       2,
		Status:          domain.ConflictStatusPending,
		DetectedAt:      detectedAt,
	}
	if _, err := conflictRepo.Create(context.Background(), conflict, nil, 1); err != nil {
		t.Fatalf("seed conflict failed: %v", err)
	}
	conflictRepo.details[conflict.ID] = &domain.ConflictDetail{
		Conflict:        conflict,
		NoteTitle:       "plan",
		LocalTitle:      "plan",
		RemoteTitle:     "plan",
		LocalBody:       localBody,
		RemoteBody:      remoteBody,
		LocalCreatedAt:  localCreated,
		RemoteCreatedAt: remoteCreated,
	}

	pusher := &capturePusher{}
	svc := NewResolutionService(conflictRepo, versionRepo, noteRepo, pusher, nil, zap.NewNop(), &SyncServiceConfig{})
	return &resolutionFixture{
		conflictRepo: conflictRepo,
		versionRepo:  versionRepo,
		noteRepo:     noteRepo,
		pusher:       pusher,
		svc:          svc,
		conflictID:   conflict.ID,
	}
}

func defaultFixture(t *testing.T) *resolutionFixture {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return newResolutionFixture(t, base, base.Add(time.Minute), time.Now().Add(-time.Hour),
		"local body", "remote body")
}

// 验证保留本地策略的指针与状态变化

func TestResolutionServiceKeepLocal(t *testing.T) {
	f := defaultFixture(t)
	ctx := context.Background()

	result, err := f.svc.Resolve(ctx, 1, &dto.ConflictResolveRequest{
		ConflictID: f.conflictID,
		Strategy:   "manter_local",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if result.Status != string(domain.ConflictStatusResolvedManual) {
		t.Errorf("status = %s, want resolved_manual", result.Status)
	}
	if result.ResolvedVersionID != 2 {
		t.Errorf("resolved version = %d, want 2", result.ResolvedVersionID)
	}

	plan := f.conflictRepo.applied[0]
	if plan.PointerVersionID != 2 || plan.PointerSequence != 2 {
		t.Errorf("pointer = (%d, %d), want (2, 2)", plan.PointerVersionID, plan.PointerSequence)
	}
	wantChanges := map[int64]domain.SyncStatus{
		2: domain.SyncStatusSynchronized,
		3: domain.SyncStatusObsolete,
	}
	for _, change := range plan.StatusChanges {
		if wantChanges[change.VersionID] != change.Status {
			t.Errorf("version %d status = %s, want %s", change.VersionID, change.Status, wantChanges[change.VersionID])
		}
	}
	if plan.History == nil || plan.History.Action != domain.HistoryActionConflictResolved {
		t.Error("expected conflict_resolved history entry")
	}

	// 双方都收到指针变更事件
	seen := map[int64]bool{}
	for _, e := range f.pusher.events {
		if e.Action == dto.EventNoteUpdated {
			seen[e.UID] = true
		}
	}
	if !seen[1] || !seen[2] {
		t.Errorf("note_updated pushed to %v, want uids 1 and 2", seen)
	}

	// 终态冲突拒绝再次解决
	_, err = f.svc.Resolve(ctx, 1, &dto.ConflictResolveRequest{
		ConflictID: f.conflictID,
		Strategy:   "manter_remoto",
	})
	if err == nil {
		t.Fatal("expected error on resolved conflict")
	}
	if got := mustCode(t, err); got != code.ErrorConflictAlreadyResolved.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorConflictAlreadyResolved.Code())
	}
}

func TestResolutionServiceKeepRemote(t *testing.T) {
	f := defaultFixture(t)

	result, err := f.svc.Resolve(context.Background(), 2, &dto.ConflictResolveRequest{
		ConflictID: f.conflictID,
		Strategy:   "manter_remoto",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if result.ResolvedVersionID != 3 {
		t.Errorf("resolved version = %d, want 3", result.ResolvedVersionID)
	}

	plan := f.conflictRepo.applied[0]
	if plan.PointerVersionID != 3 {
		t.Errorf("pointer version = %d, want 3", plan.PointerVersionID)
	}
	wantChanges := map[int64]domain.SyncStatus{
		3: domain.SyncStatusSynchronized,
		2: domain.SyncStatusObsolete,
	}
	for _, change := range plan.StatusChanges {
		if wantChanges[change.VersionID] != change.Status {
			t.Errorf("version %d status = %s, want %s", change.VersionID, change.Status, wantChanges[change.VersionID])
		}
	}
}

// 验证手工合并缺少内容时在任何变更前被拒绝

func TestResolutionServiceManualMergeRequiresContent(t *testing.T) {
	f := defaultFixture(t)

	_, err := f.svc.Resolve(context.Background(), 1, &dto.ConflictResolveRequest{
		ConflictID: f.conflictID,
		Strategy:   "merge_manual",
		MergeTitle: "plan",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got := mustCode(t, err); got != code.ErrorMergeContentRequired.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorMergeContentRequired.Code())
	}
	if len(f.conflictRepo.applied) != 0 {
		t.Error("no resolution plan may be applied before validation passes")
	}
}

func TestResolutionServiceManualMerge(t *testing.T) {
	f := defaultFixture(t)

	result, err := f.svc.Resolve(context.Background(), 1, &dto.ConflictResolveRequest{
		ConflictID: f.conflictID,
		Strategy:   "merge_manual",
		MergeTitle: "plan",
		MergeBody:  "both sides combined",
		DeviceID:   "dev-a",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	plan := f.conflictRepo.applied[0]
	if plan.MergeVersion == nil {
		t.Fatal("expected a merge version in the plan")
	}
	if plan.MergeVersion.ParentVersionID != 1 {
		t.Errorf("merge parent = %d, want base version 1", plan.MergeVersion.ParentVersionID)
	}
	if plan.MergeVersion.Body != "both sides combined" {
		t.Errorf("merge body = %q", plan.MergeVersion.Body)
	}
	wantChanges := map[int64]domain.SyncStatus{
		2: domain.SyncStatusMerged,
		3: domain.SyncStatusMerged,
	}
	for _, change := range plan.StatusChanges {
		if wantChanges[change.VersionID] != change.Status {
			t.Errorf("version %d status = %s, want %s", change.VersionID, change.Status, wantChanges[change.VersionID])
		}
	}
	if result.ResolvedVersionID == 0 {
		t.Error("merge must yield a resolved version")
	}
}

func TestResolutionServiceUnknownStrategy(t *testing.T) {
	f := defaultFixture(t)

	_, err := f.svc.Resolve(context.Background(), 1, &dto.ConflictResolveRequest{
		ConflictID: f.conflictID,
		Strategy:   "flip_a_coin",
	})
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
	if got := mustCode(t, err); got != code.ErrorConflictStrategyUnknown.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorConflictStrategyUnknown.Code())
	}
	if len(f.conflictRepo.applied) != 0 {
		t.Error("unknown strategy must not reach the store")
	}
}

// 验证状态条件更新竞争失败映射为已解决

func TestResolutionServiceLosesRace(t *testing.T) {
	f := defaultFixture(t)
	f.conflictRepo.applyErr = domain.ErrConflictNotPending

	_, err := f.svc.Resolve(context.Background(), 1, &dto.ConflictResolveRequest{
		ConflictID: f.conflictID,
		Strategy:   "manter_local",
	})
	if err == nil {
		t.Fatal("expected error when the conditional update misses")
	}
	if got := mustCode(t, err); got != code.ErrorConflictAlreadyResolved.Code() {
		t.Errorf("error code = %d, want %d", got, code.ErrorConflictAlreadyResolved.Code())
	}
}

// 验证拆分策略的命名、归属与指针选择

func TestResolutionServiceSeparateVersions(t *testing.T) {
	f := defaultFixture(t) // remote 比 local 晚一分钟

	result, err := f.svc.Resolve(context.Background(), 1, &dto.ConflictResolveRequest{
		ConflictID: f.conflictID,
		Strategy:   "criar_versoes_separadas",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	plan := f.conflictRepo.applied[0]
	if len(plan.SeparatedNotes) != 2 {
		t.Fatalf("separated notes = %d, want 2", len(plan.SeparatedNotes))
	}

	localNote, remoteNote := plan.SeparatedNotes[0], plan.SeparatedNotes[1]
	if !strings.HasSuffix(localNote.Note.Title, " (Local Version)") {
		t.Errorf("local note title = %q", localNote.Note.Title)
	}
	if !strings.HasSuffix(remoteNote.Note.Title, " (Remote Version)") {
		t.Errorf("remote note title = %q", remoteNote.Note.Title)
	}
	if !localNote.Note.IsPrivate || !remoteNote.Note.IsPrivate {
		t.Error("separated notes must be private")
	}
	if localNote.Note.UID != 1 || remoteNote.Note.UID != 2 {
		t.Errorf("owners = (%d, %d), want (1, 2)", localNote.Note.UID, remoteNote.Note.UID)
	}
	if localNote.Version.Body != "local body" || remoteNote.Version.Body != "remote body" {
		t.Error("separated versions must carry each side's content")
	}

	// 指针移到较新的 remote 侧
	if plan.PointerVersionID != 3 {
		t.Errorf("pointer version = %d, want 3", plan.PointerVersionID)
	}
	// 双方版本状态不变
	if len(plan.StatusChanges) != 0 {
		t.Errorf("status changes = %d, want 0", len(plan.StatusChanges))
	}
	if len(result.SeparatedNoteIDs) != 2 {
		t.Errorf("separated note ids = %v, want 2 entries", result.SeparatedNoteIDs)
	}
}

func TestResolutionServiceSeparateVersionsTieBreak(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	// 创建时间相同，取较小的版本ID一侧
	f := newResolutionFixture(t, base, base, time.Now().Add(-time.Hour), "local body", "remote body")

	_, err := f.svc.Resolve(context.Background(), 1, &dto.ConflictResolveRequest{
		ConflictID: f.conflictID,
		Strategy:   "criar_versoes_separadas",
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	plan := f.conflictRepo.applied[0]
	if plan.PointerVersionID != 2 {
		t.Errorf("pointer version = %d, want lower id 2 on tie", plan.PointerVersionID)
	}
}

// 验证忽略策略只改冲突状态

func TestResolutionServiceIgnore(t *testing.T) {
	f := defaultFixture(t)

	result, err := f.svc.Ignore(context.Background(), 1, f.conflictID)
	if err != nil {
		t.Fatalf("Ignore() error = %v", err)
	}
	if result.Status != string(domain.ConflictStatusIgnored) {
		t.Errorf("status = %s, want ignored", result.Status)
	}

	plan := f.conflictRepo.applied[0]
	if plan.PointerVersionID != 0 {
		t.Error("ignore must not move the note pointer")
	}
	if len(plan.StatusChanges) != 0 {
		t.Error("ignore must not change version statuses")
	}
}

// 验证自动解决的策略选择与来源标记
// 时间规则只看两侧版本创建时间的差值，与冲突何时被发现无关

func TestResolutionServiceResolveAutomatically(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		localCreated  time.Time
		remoteCreated time.Time
		detectedAt    time.Time
		localBody     string
		remoteBody    string
		wantStrategy  domain.ResolutionType
	}{
		{
			// 刚刚才发现的冲突，但两侧版本相隔 30 小时
			name:         "versions far apart keep the newer remote side",
			localCreated: base, remoteCreated: base.Add(30 * time.Hour),
			detectedAt: time.Now(),
			localBody:  "alpha beta", remoteBody: "gamma delta",
			wantStrategy: domain.ResolutionKeepRemote,
		},
		{
			name:         "versions far apart keep the newer local side",
			localCreated: base.Add(30 * time.Hour), remoteCreated: base,
			detectedAt: time.Now(),
			localBody:  "alpha beta", remoteBody: "gamma delta",
			wantStrategy: domain.ResolutionKeepLocal,
		},
		{
			// 共 9 词，并 11 词，相似度 0.82
			name:         "high similarity keeps the newer side",
			localCreated: base, remoteCreated: base.Add(time.Minute),
			detectedAt:   time.Now().Add(-time.Hour),
			localBody:    "one two three four five six seven eight nine ten",
			remoteBody:   "one two three four five six seven eight nine eleven",
			wantStrategy: domain.ResolutionKeepRemote,
		},
		{
			// 发现已久但两侧版本几乎同时创建，仍拆分
			name:         "stale detection of near-simultaneous versions still splits",
			localCreated: base, remoteCreated: base.Add(time.Minute),
			detectedAt: time.Now().Add(-25 * time.Hour),
			localBody:  "alpha beta", remoteBody: "gamma delta",
			wantStrategy: domain.ResolutionSeparateVersions,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newResolutionFixture(t, tt.localCreated, tt.remoteCreated, tt.detectedAt, tt.localBody, tt.remoteBody)

			result, err := f.svc.ResolveAutomatically(context.Background(), 1, f.conflictID)
			if err != nil {
				t.Fatalf("ResolveAutomatically() error = %v", err)
			}
			if result.ResolutionType != string(tt.wantStrategy) {
				t.Errorf("strategy = %s, want %s", result.ResolutionType, tt.wantStrategy)
			}
			if result.Status != string(domain.ConflictStatusResolvedManual) {
				t.Errorf("status = %s, want resolved_manual", result.Status)
			}

			plan := f.conflictRepo.applied[0]
			if plan.History == nil || !strings.Contains(plan.History.Metadata, "automatic") {
				t.Error("automatic provenance must be stamped in history metadata")
			}
		})
	}
}

// 相似度恰为 0.8 时不触发保留较新版本，阈值是严格大于

func TestResolutionServiceAutoSimilarityBoundary(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	// 共 8 词，并 10 词，相似度 0.8
	body := "one two three four five six seven eight"
	f := newResolutionFixture(t, base, base.Add(time.Minute), time.Now().Add(-time.Hour),
		body+" nine", body+" ten")

	result, err := f.svc.ResolveAutomatically(context.Background(), 1, f.conflictID)
	if err != nil {
		t.Fatalf("ResolveAutomatically() error = %v", err)
	}
	if result.ResolutionType != string(domain.ResolutionSeparateVersions) {
		t.Errorf("strategy = %s, want criar_versoes_separadas at the 0.8 boundary", result.ResolutionType)
	}
}

// 验证建议列表按置信度降序

func TestResolutionServiceSuggestions(t *testing.T) {
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("far apart and divergent", func(t *testing.T) {
		f := newResolutionFixture(t, base, base.Add(25*time.Hour), time.Now().Add(-time.Minute),
			"alpha beta", "gamma delta")

		got, err := f.svc.Suggestions(context.Background(), f.conflictID)
		if err != nil {
			t.Fatalf("Suggestions() error = %v", err)
		}

		wantTypes := []string{
			string(domain.SuggestionSeparateVersions),
			string(domain.SuggestionKeepMostRecent),
			string(domain.SuggestionManualMerge),
		}
		if len(got) != len(wantTypes) {
			t.Fatalf("suggestions = %d, want %d", len(got), len(wantTypes))
		}
		for i, want := range wantTypes {
			if got[i].Type != want {
				t.Errorf("suggestion[%d] = %s, want %s", i, got[i].Type, want)
			}
		}
		for i := 1; i < len(got); i++ {
			if got[i].Confidence > got[i-1].Confidence {
				t.Error("suggestions must be sorted by descending confidence")
			}
		}
	})

	t.Run("fresh and nearly identical", func(t *testing.T) {
		body := "one two three four five six seven eight nine"
		f := newResolutionFixture(t, base, base.Add(time.Minute), time.Now().Add(-time.Hour),
			body+" ten", body+" eleven")

		got, err := f.svc.Suggestions(context.Background(), f.conflictID)
		if err != nil {
			t.Fatalf("Suggestions() error = %v", err)
		}
		wantTypes := []string{
			string(domain.SuggestionAutoMerge),
			string(domain.SuggestionManualMerge),
		}
		if len(got) != len(wantTypes) {
			t.Fatalf("suggestions = %d, want %d", len(got), len(wantTypes))
		}
		for i, want := range wantTypes {
			if got[i].Type != want {
				t.Errorf("suggestion[%d] = %s, want %s", i, got[i].Type, want)
			}
		}
		// 自动合并建议附带合并文本预览
		if got[0].MergePreview == "" {
			t.Error("auto merge suggestion must carry a merge preview")
		}
	})
}
