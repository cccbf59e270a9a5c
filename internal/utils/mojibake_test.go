package utils

import (
	"strings"
	"testing"
)

// asLatin1 simulates the failure mode the heuristic targets: UTF-8 bytes
// that were decoded one byte per character.
func asLatin1(s string) string {
	var b strings.Builder
	for _, by := range []byte(s) {
		b.WriteRune(rune(by))
	}
	return b.String()
}

func TestRepairMojibake(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"japanese unchanged", "こんにちは", "こんにちは"},
		{"katakana unchanged", "チュートリアル", "チュートリアル"},
		{"kanji unchanged", "探検", "探検"},
		{"garbled hiragana recovered", asLatin1("こんにちは"), "こんにちは"},
		{"garbled mixed recovered", asLatin1("公園の花がきれい"), "公園の花がきれい"},
		{"plain ascii unchanged", "hello world", "hello world"},
		{"empty unchanged", "", ""},
		{"accented latin unchanged", "café au lait", "café au lait"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RepairMojibake(tt.input); got != tt.want {
				t.Errorf("RepairMojibake(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRepairMojibakeIdempotent(t *testing.T) {
	garbled := asLatin1("いい発見だ")
	once := RepairMojibake(garbled)
	twice := RepairMojibake(once)
	if once != twice {
		t.Errorf("repair not idempotent: first %q, second %q", once, twice)
	}
}

func TestRepairMojibakeNonRecoverable(t *testing.T) {
	// Code points above 0xFF that are not Japanese cannot round-trip to
	// Japanese script; the input must come back untouched.
	input := "Ω≈ç√∫"
	if got := RepairMojibake(input); got != input {
		t.Errorf("RepairMojibake(%q) = %q, want input unchanged", input, got)
	}
}
