package util

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEncodeNoteHash_Deterministic(t *testing.T) {
	a := EncodeNoteHash("Title", "Body")
	b := EncodeNoteHash("Title", "Body")
	if a != b {
		t.Errorf("same input produced different digests: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
}

func TestEncodeNoteHash_SensitiveToEachPart(t *testing.T) {
	base := EncodeNoteHash("Title", "Body")

	tests := []struct {
		name  string
		title string
		body  string
	}{
		{"title changed", "Title2", "Body"},
		{"body changed", "Title", "Body2"},
		{"content moved across boundary", "TitleB", "ody"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeNoteHash(tt.title, tt.body); got == base {
				t.Errorf("digest did not change for %q/%q", tt.title, tt.body)
			}
		})
	}
}

func TestEncodeNoteHash_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("repeated calls agree", prop.ForAll(
		func(title, body string) bool {
			return EncodeNoteHash(title, body) == EncodeNoteHash(title, body)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("body change changes digest", prop.ForAll(
		func(title, body, extra string) bool {
			if extra == "" {
				return true
			}
			return EncodeNoteHash(title, body) != EncodeNoteHash(title, body+extra)
		},
		gen.AnyString(),
		gen.AnyString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
