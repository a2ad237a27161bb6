package domain

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func versionFor(parentID int64, uid int64, deviceID, hash string) *NoteVersion {
	return &NoteVersion{
		NoteID:          1,
		UID:             uid,
		DeviceID:        deviceID,
		ContentHash:     hash,
		ParentVersionID: parentID,
	}
}

// 冲突判定必须对称，交换两侧结果一致
func TestProperty_ConflictPredicateSymmetry(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("isConflicting(a,b) == isConflicting(b,a)", prop.ForAll(
		func(parentA, parentB int64, uidA, uidB int64, devA, devB, hashA, hashB string) bool {
			a := versionFor(parentA, uidA, devA, hashA)
			b := versionFor(parentB, uidB, devB, hashB)
			return a.ConflictsWith(b) == b.ConflictsWith(a)
		},
		gen.Int64Range(0, 3),
		gen.Int64Range(0, 3),
		gen.Int64Range(1, 3),
		gen.Int64Range(1, 3),
		gen.OneConstOf("dev-a", "dev-b", "dev-c"),
		gen.OneConstOf("dev-a", "dev-b", "dev-c"),
		gen.OneConstOf("h1", "h2", "h3"),
		gen.OneConstOf("h1", "h2", "h3"),
	))

	properties.TestingRun(t)
}

func TestNoteVersion_ConflictsWith(t *testing.T) {
	tests := []struct {
		name string
		a    *NoteVersion
		b    *NoteVersion
		want bool
	}{
		{
			name: "root version never conflicts",
			a:    versionFor(0, 1, "dev-a", "h1"),
			b:    versionFor(5, 2, "dev-b", "h2"),
			want: false,
		},
		{
			name: "both roots never conflict",
			a:    versionFor(0, 1, "dev-a", "h1"),
			b:    versionFor(0, 2, "dev-b", "h2"),
			want: false,
		},
		{
			name: "same author same device is a sequential save",
			a:    versionFor(5, 1, "dev-a", "h1"),
			b:    versionFor(5, 1, "dev-a", "h2"),
			want: false,
		},
		{
			name: "same device different author still no conflict",
			a:    versionFor(5, 1, "dev-a", "h1"),
			b:    versionFor(5, 2, "dev-a", "h2"),
			want: false,
		},
		{
			name: "same parent different hash different device",
			a:    versionFor(5, 1, "dev-a", "h1"),
			b:    versionFor(5, 2, "dev-b", "h2"),
			want: true,
		},
		{
			name: "same author on two devices conflicts",
			a:    versionFor(5, 1, "dev-a", "h1"),
			b:    versionFor(5, 1, "dev-b", "h2"),
			want: true,
		},
		{
			name: "different parents diverge from different bases",
			a:    versionFor(5, 1, "dev-a", "h1"),
			b:    versionFor(6, 2, "dev-b", "h2"),
			want: false,
		},
		{
			name: "identical content is not a conflict",
			a:    versionFor(5, 1, "dev-a", "h1"),
			b:    versionFor(5, 2, "dev-b", "h1"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.ConflictsWith(tt.b); got != tt.want {
				t.Errorf("ConflictsWith() = %v, want %v", got, tt.want)
			}
			if got := tt.b.ConflictsWith(tt.a); got != tt.want {
				t.Errorf("ConflictsWith() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseResolutionType(t *testing.T) {
	valid := []string{"manter_local", "manter_remoto", "merge_manual", "criar_versoes_separadas"}
	for _, s := range valid {
		if _, ok := ParseResolutionType(s); !ok {
			t.Errorf("ParseResolutionType(%q) not accepted", s)
		}
	}

	invalid := []string{"", "keep_local", "MANTER_LOCAL", "merge", "unknown"}
	for _, s := range invalid {
		if _, ok := ParseResolutionType(s); ok {
			t.Errorf("ParseResolutionType(%q) accepted, want rejected", s)
		}
	}
}
