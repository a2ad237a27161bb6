package util

import (
	"reflect"
	"testing"
)

func TestTokenizeWords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "the cat sat", []string{"the", "cat", "sat"}},
		{"case folded", "The CAT Sat", []string{"the", "cat", "sat"}},
		{"extra whitespace", "  the \t cat\nsat ", []string{"the", "cat", "sat"}},
		{"empty", "", []string{}},
		{"unicode fold", "STRASSE Straße", []string{"strasse", "strasse"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenizeWords(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TokenizeWords(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
