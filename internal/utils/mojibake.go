package utils

import "strings"

// RepairMojibake tries to recover Japanese text that was decoded with a
// single-byte-per-character codec when the underlying bytes were UTF-8.
// The transform is deliberately conservative: text that already contains
// Japanese script is returned untouched, and a reinterpretation is only
// accepted when it produces Japanese script. Ambiguous input comes back
// unchanged, and the function never fails.
func RepairMojibake(s string) string {
	if containsJapanese(s) {
		return s
	}

	// Map each code point back to the byte it presumably was. Anything above
	// 0xFF cannot have come from a single-byte decode; substitute.
	raw := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			raw = append(raw, '?')
		} else {
			raw = append(raw, byte(r))
		}
	}

	repaired := strings.ToValidUTF8(string(raw), "�")
	if containsJapanese(repaired) {
		return repaired
	}
	return s
}

// containsJapanese reports whether s has at least one character in the
// hiragana, katakana, or CJK ideograph ranges.
func containsJapanese(s string) bool {
	for _, r := range s {
		switch {
		case r >= 0x3040 && r <= 0x309F: // hiragana
			return true
		case r >= 0x30A0 && r <= 0x30FF: // katakana
			return true
		case r >= 0x4E00 && r <= 0x9FFF: // CJK ideographs
			return true
		}
	}
	return false
}
