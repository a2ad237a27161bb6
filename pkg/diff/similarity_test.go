package diff

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSimilarity_Table(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "the cat sat", "the cat sat", 1.0},
		{"one word differs", "the cat sat", "the cat ran", 0.5},
		{"disjoint", "alpha beta", "gamma delta", 0.0},
		{"left empty", "", "anything at all", 0.0},
		{"right empty", "anything at all", "", 0.0},
		{"both empty", "", "", 0.0},
		{"case folded equal", "The Cat Sat", "the cat sat", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("result stays within [0,1]", prop.ForAll(
		func(a, b string) bool {
			s := Similarity(a, b)
			return s >= 0 && s <= 1
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("symmetric in its arguments", prop.ForAll(
		func(a, b string) bool {
			return Similarity(a, b) == Similarity(b, a)
		},
		gen.AnyString(),
		gen.AnyString(),
	))

	properties.Property("non-empty text matches itself fully", prop.ForAll(
		func(s string) bool {
			return Similarity(s+" word", s+" word") == 1.0
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
