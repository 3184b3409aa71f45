package social

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple lowercase",
			input: "Tafsir Studies",
			want:  "tafsir studies",
		},
		{
			name:  "trim whitespace",
			input: "  fiqh  ",
			want:  "fiqh",
		},
		{
			name:  "collapse internal whitespace",
			input: "arabic    grammar",
			want:  "arabic grammar",
		},
		{
			name:  "tabs and newlines",
			input: "hadith\t\n  sciences",
			want:  "hadith sciences",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n   ",
			want:  "",
		},
		{
			name:  "unicode characters",
			input: "  ÉTUDE   Über  ",
			want:  "étude über",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeSet(t *testing.T) {
	got := NormalizeSet([]string{"Quran", " quran ", "", "Seerah", "SEERAH", "fiqh"})
	want := []string{"quran", "seerah", "fiqh"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeSet = %v, want %v", got, want)
	}

	if got := NormalizeSet(nil); len(got) != 0 {
		t.Errorf("NormalizeSet(nil) = %v, want empty", got)
	}
}

func TestCountChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"ascii only", "hello", 5},
		{"empty string", "", 0},
		{"arabic", "سلام", 4},
		{"emoji", "👋🌍", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountChars(tt.input); got != tt.want {
				t.Errorf("CountChars(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}
