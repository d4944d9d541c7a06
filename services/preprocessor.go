package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode/utf8"
)

// NormalizeText prepares raw text for embedding: surrounding whitespace is
// trimmed, internal whitespace runs collapse to a single space, and the
// result is truncated to at most maxLen bytes to bound model cost. The cut
// backs off to a rune boundary so the output is always valid UTF-8, which
// the embedding provider requires. Deterministic and side-effect free;
// empty input yields empty output, which downstream treats as the
// zero-vector case.
func NormalizeText(text string, maxLen int) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if maxLen > 0 && len(normalized) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(normalized[cut]) {
			cut--
		}
		normalized = normalized[:cut]
	}
	return normalized
}

// ContentHash returns the content address for a normalized text. Two
// texts with identical normalized content share the same cache entry.
func ContentHash(normalizedText string) string {
	sum := sha256.Sum256([]byte(normalizedText))
	return hex.EncodeToString(sum[:])
}
