package compiler

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/fold/pkg/domain"
)

// DefaultMaxTextSize bounds request-supplied critical-line text.
const DefaultMaxTextSize = 4096

// Sanitize checks untrusted critical-line text before parsing: it rejects
// oversized or invalid UTF-8 input and strips control characters other
// than whitespace. limit <= 0 means DefaultMaxTextSize.
func Sanitize(text string, limit int) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxTextSize
	}
	if len(text) > limit {
		// Reject rather than truncate; a cut selector would match something else.
		return "", &domain.ConfigParseError{
			Input:  text[:limit],
			Pos:    limit,
			Reason: fmt.Sprintf("text exceeds %d bytes", limit),
		}
	}
	if !utf8.ValidString(text) {
		pos := 0
		for pos < len(text) {
			r, size := utf8.DecodeRuneInString(text[pos:])
			if r == utf8.RuneError && size == 1 {
				break
			}
			pos += size
		}
		return "", &domain.ConfigParseError{Input: text, Pos: pos, Reason: "invalid UTF-8"}
	}

	clean := true
	for _, r := range text {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
