package app

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// 验证编辑标记的检查-删除操作是原子的

func TestProperty_EditingNotesAtomicOperation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	// 并发访问时，每个笔记标记只能被处理一次
	properties.Property("each note processed exactly once under concurrent access", prop.ForAll(
		func(noteCount int) bool {
			if noteCount <= 0 {
				return true
			}

			noteIDs := make([]int64, noteCount)
			for i := 0; i < noteCount; i++ {
				noteIDs[i] = int64(i + 1)
			}

			client := &WebsocketClient{
				EditingNotes: make(map[int64]EditingEntry),
			}

			// 预填充所有笔记标记
			for _, id := range noteIDs {
				client.EditingNotes[id] = EditingEntry{StartedAt: time.Now()}
			}

			// 记录每个笔记被处理的次数
			processCount := make(map[int64]*int32)
			for _, id := range noteIDs {
				var count int32 = 0
				processCount[id] = &count
			}

			// 并发尝试去除每个标记
			var wg sync.WaitGroup
			goroutines := 10

			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for _, id := range noteIDs {
						if client.UnmarkEditing(id) {
							atomic.AddInt32(processCount[id], 1)
						}
					}
				}()
			}

			wg.Wait()

			// 验证每个笔记只被处理一次
			for _, id := range noteIDs {
				if *processCount[id] != 1 {
					t.Logf("Note %d processed %d times, expected 1", id, *processCount[id])
					return false
				}
			}

			return true
		},
		gen.IntRange(1, 20),
	))

	properties.TestingRun(t)
}

// 验证编辑窗口超时清理机制

func TestProperty_EditingNotesCleanup(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	// 超时条目被清理，未超时条目保留
	properties.Property("expired entries are cleaned, non-expired are kept", prop.ForAll(
		func(expiredCount, activeCount int) bool {
			client := &WebsocketClient{
				EditingNotes: make(map[int64]EditingEntry),
			}

			window := 100 * time.Millisecond
			now := time.Now()

			// 添加过期条目
			for i := 0; i < expiredCount; i++ {
				client.EditingNotes[int64(i+1)] = EditingEntry{
					StartedAt: now.Add(-window - time.Second),
				}
			}

			// 添加未过期条目
			for i := 0; i < activeCount; i++ {
				client.EditingNotes[int64(1000+i)] = EditingEntry{
					StartedAt: now,
				}
			}

			// 执行清理
			cleaned := client.CleanupExpiredEditingNotes(window)

			// 验证清理数量
			if cleaned != expiredCount {
				t.Logf("Cleaned %d, expected %d", cleaned, expiredCount)
				return false
			}

			// 验证剩余数量
			if len(client.EditingNotes) != activeCount {
				t.Logf("Remaining %d, expected %d", len(client.EditingNotes), activeCount)
				return false
			}

			return true
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}

// 单元测试: 编辑标记基本操作
func TestEditingNotes_BasicOperations(t *testing.T) {
	client := &WebsocketClient{
		EditingNotes: make(map[int64]EditingEntry),
	}

	noteID := int64(42)
	client.MarkEditing(noteID, "device-a")

	client.EditingNotesMu.RLock()
	entry, exists := client.EditingNotes[noteID]
	client.EditingNotesMu.RUnlock()

	if !exists {
		t.Fatal("Note should be marked after MarkEditing")
	}
	if entry.DeviceID != "device-a" {
		t.Errorf("Expected DeviceID device-a, got %s", entry.DeviceID)
	}

	// 原子检查-删除
	if !client.UnmarkEditing(noteID) {
		t.Error("UnmarkEditing should report the mark existed")
	}

	// 二次去除应返回 false
	if client.UnmarkEditing(noteID) {
		t.Error("UnmarkEditing on an absent mark should return false")
	}
}

// 单元测试: ClearAllEditingNotes
func TestClearAllEditingNotes(t *testing.T) {
	client := &WebsocketClient{
		EditingNotes: make(map[int64]EditingEntry),
	}

	noteIDs := []int64{1, 2, 3}
	for _, id := range noteIDs {
		client.MarkEditing(id, "device-a")
	}

	count := client.ClearAllEditingNotes()

	if count != len(noteIDs) {
		t.Errorf("ClearAllEditingNotes() = %d, want %d", count, len(noteIDs))
	}

	if len(client.EditingNotes) != 0 {
		t.Errorf("EditingNotes should be empty after clear, got %d", len(client.EditingNotes))
	}
}

// 单元测试: 重连等待时间按翻倍递增
func TestReconnectDelay_DoublingSchedule(t *testing.T) {
	base := 1 * time.Second
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}

	for i, expected := range want {
		attempt := i + 1
		if got := ReconnectDelay(base, attempt); got != expected {
			t.Errorf("ReconnectDelay(base, %d) = %v, want %v", attempt, got, expected)
		}
	}
}

// 重连等待时间的性质: 每次尝试严格翻倍
func TestProperty_ReconnectDelayDoubles(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("delay doubles between consecutive attempts", prop.ForAll(
		func(baseMs, attempt int) bool {
			base := time.Duration(baseMs) * time.Millisecond
			current := ReconnectDelay(base, attempt)
			next := ReconnectDelay(base, attempt+1)
			return next == current*2
		},
		gen.IntRange(1, 1000),
		gen.IntRange(1, 10),
	))

	properties.TestingRun(t)
}

func TestClientState_String(t *testing.T) {
	cases := map[ClientState]string{
		ClientDisconnected: "disconnected",
		ClientConnecting:   "connecting",
		ClientConnected:    "connected",
		ClientClosed:       "closed",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("ClientState(%d).String() = %q, want %q", state, got, want)
		}
	}
}
