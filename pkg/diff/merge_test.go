package diff

import (
	"strings"
	"testing"
)

func TestMergeTexts_DisjointEdits(t *testing.T) {
	base := "intro paragraph one\n\nmiddle section stays the same here\n\nclosing paragraph two"
	local := "CHANGED intro paragraph one\n\nmiddle section stays the same here\n\nclosing paragraph two"
	remote := "intro paragraph one\n\nmiddle section stays the same here\n\nclosing paragraph two CHANGED"

	result, err := MergeTexts(base, local, remote, true)
	if err != nil {
		t.Fatalf("MergeTexts() error = %v", err)
	}
	if result.HasConflict {
		t.Fatalf("disjoint edits reported conflict: %s", result.ConflictInfo)
	}
	if !strings.HasPrefix(result.Content, "CHANGED intro") {
		t.Errorf("local edit lost: %q", result.Content)
	}
	if !strings.HasSuffix(result.Content, "two CHANGED") {
		t.Errorf("remote edit lost: %q", result.Content)
	}
}

func TestMergeTexts_OneSideUnchanged(t *testing.T) {
	base := "line a\nline b\nline c"
	local := "line a\nline b modified\nline c"

	result, err := MergeTexts(base, local, base, true)
	if err != nil {
		t.Fatalf("MergeTexts() error = %v", err)
	}
	if result.HasConflict {
		t.Fatalf("unchanged remote reported conflict: %s", result.ConflictInfo)
	}
	if result.Content != local {
		t.Errorf("merge = %q, want local content %q", result.Content, local)
	}
}

func TestMergeTextsKeepAll_PreservesBothInsertions(t *testing.T) {
	base := "shared base paragraph with enough context to anchor patches"
	local := "LOCAL_ADDITION " + base
	remote := base + " REMOTE_ADDITION"

	merged, err := MergeTextsKeepAll(base, local, remote, true)
	if err != nil {
		t.Fatalf("MergeTextsKeepAll() error = %v", err)
	}
	if !strings.Contains(merged, "LOCAL_ADDITION") {
		t.Errorf("local insertion lost: %q", merged)
	}
	if !strings.Contains(merged, "REMOTE_ADDITION") {
		t.Errorf("remote insertion lost: %q", merged)
	}
}

func TestPrettyDiff_NotEmptyOnChange(t *testing.T) {
	out := PrettyDiff("the quick fox", "the slow fox")
	if out == "" {
		t.Error("PrettyDiff returned empty output for differing texts")
	}
}
