package service

import (
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestEditingService(window time.Duration) EditingService {
	return NewEditingService(zap.NewNop(), &SyncServiceConfig{EditingWindow: window})
}

func TestEditingServiceStartAndRefresh(t *testing.T) {
	svc := newTestEditingService(time.Minute)

	first := svc.Start(1, 7, "dev-a")
	if first.SessionID == "" {
		t.Fatal("session id must be assigned")
	}

	// 同一用户同一设备重复登记只刷新，不新建
	second := svc.Start(1, 7, "dev-a")
	if second.SessionID != first.SessionID {
		t.Errorf("session id = %s, want %s", second.SessionID, first.SessionID)
	}
	if got := len(svc.ActiveEditors(1)); got != 1 {
		t.Errorf("active editors = %d, want 1", got)
	}

	// 换设备则是独立会话
	svc.Start(1, 7, "dev-b")
	if got := len(svc.ActiveEditors(1)); got != 2 {
		t.Errorf("active editors = %d, want 2", got)
	}
}

func TestEditingServiceWindowExpiry(t *testing.T) {
	svc := newTestEditingService(30 * time.Millisecond)

	svc.Start(1, 7, "dev-a")
	time.Sleep(60 * time.Millisecond)

	if got := len(svc.ActiveEditors(1)); got != 0 {
		t.Errorf("active editors = %d, want 0 after window", got)
	}
	if got := svc.ActiveSessionTotal(); got != 0 {
		t.Errorf("active total = %d, want 0 after window", got)
	}
	if got := svc.CleanupExpired(); got != 1 {
		t.Errorf("cleaned = %d, want 1", got)
	}
	if got := svc.CleanupExpired(); got != 0 {
		t.Errorf("second cleanup = %d, want 0", got)
	}
}

func TestEditingServiceTouchKeepsAlive(t *testing.T) {
	svc := newTestEditingService(200 * time.Millisecond)

	svc.Start(1, 7, "dev-a")
	time.Sleep(150 * time.Millisecond)
	svc.Touch(1, 7, "dev-a")
	time.Sleep(150 * time.Millisecond)

	// 距 Touch 150ms，仍在 200ms 窗口内
	if got := len(svc.ActiveEditors(1)); got != 1 {
		t.Errorf("active editors = %d, want 1 after touch", got)
	}
}

func TestEditingServiceOtherActiveEditors(t *testing.T) {
	svc := newTestEditingService(time.Minute)

	svc.Start(1, 1, "dev-a")
	svc.Start(1, 2, "dev-b")
	svc.Start(1, 2, "dev-c")

	if got := len(svc.ActiveEditors(1)); got != 3 {
		t.Errorf("active editors = %d, want 3", got)
	}
	if got := len(svc.OtherActiveEditors(1, 2)); got != 1 {
		t.Errorf("others excluding uid 2 = %d, want 1", got)
	}
	if got := len(svc.OtherActiveEditors(1, 1)); got != 2 {
		t.Errorf("others excluding uid 1 = %d, want 2", got)
	}
}

func TestEditingServiceStop(t *testing.T) {
	svc := newTestEditingService(time.Minute)

	svc.Start(1, 7, "dev-a")
	if !svc.Stop(1, 7, "dev-a") {
		t.Error("stop of an existing session must return true")
	}
	if svc.Stop(1, 7, "dev-a") {
		t.Error("second stop must return false")
	}
	if svc.Stop(99, 7, "dev-a") {
		t.Error("stop on an unknown note must return false")
	}
}

func TestEditingServiceStopAllForUser(t *testing.T) {
	svc := newTestEditingService(time.Minute)

	svc.Start(1, 1, "dev-a")
	svc.Start(2, 1, "dev-a")
	svc.Start(1, 2, "dev-b")

	noteIDs := svc.StopAllForUser(1)
	sort.Slice(noteIDs, func(i, j int) bool { return noteIDs[i] < noteIDs[j] })
	if len(noteIDs) != 2 || noteIDs[0] != 1 || noteIDs[1] != 2 {
		t.Errorf("note ids = %v, want [1 2]", noteIDs)
	}

	// 其他用户的会话不受影响
	if got := len(svc.ActiveEditors(1)); got != 1 {
		t.Errorf("active editors = %d, want 1", got)
	}
	if got := svc.ActiveSessionTotal(); got != 1 {
		t.Errorf("active total = %d, want 1", got)
	}
}
