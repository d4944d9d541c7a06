package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"trims surrounding whitespace", "  hello world  ", 100, "hello world"},
		{"collapses internal runs", "hello\t\n  world", 100, "hello world"},
		{"empty stays empty", "", 100, ""},
		{"whitespace only becomes empty", " \n\t ", 100, ""},
		{"truncates to max length", strings.Repeat("a", 50), 10, strings.Repeat("a", 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTextTruncatesOnRuneBoundary(t *testing.T) {
	// maxLen 9 lands inside the 3-byte rune starting at byte 8; the cut
	// must back off to the boundary instead of emitting a partial rune.
	got := NormalizeText("abcdefg 日本語", 9)
	if got != "abcdefg " {
		t.Errorf("NormalizeText = %q, want %q", got, "abcdefg ")
	}

	for maxLen := 1; maxLen <= 20; maxLen++ {
		got := NormalizeText("héllo wörld 日本語 résumé", maxLen)
		if !utf8.ValidString(got) {
			t.Errorf("maxLen %d produced invalid UTF-8: %q", maxLen, got)
		}
		if len(got) > maxLen {
			t.Errorf("maxLen %d exceeded: %d bytes", maxLen, len(got))
		}
	}

	// A boundary that already ends a rune is kept as is.
	if got := NormalizeText("abcdefg 日本語", 11); got != "abcdefg 日" {
		t.Errorf("NormalizeText = %q, want %q", got, "abcdefg 日")
	}
}

func TestNormalizeTextDeterministic(t *testing.T) {
	in := "  Senior   Go\tEngineer\n with Kubernetes  "
	first := NormalizeText(in, 8000)
	second := NormalizeText(in, 8000)
	if first != second {
		t.Error("normalization must be deterministic")
	}
}

func TestContentHashEquality(t *testing.T) {
	a := ContentHash(NormalizeText("hello   world", 8000))
	b := ContentHash(NormalizeText(" hello world ", 8000))
	if a != b {
		t.Error("identical normalized content must share a hash")
	}

	c := ContentHash(NormalizeText("hello there", 8000))
	if a == c {
		t.Error("different content must not collide")
	}
}
