package memo

import (
	"regexp"
	"strings"

	"github.com/smarttro/smarttro/internal/payment/domain"
)

// Ordered: more specific keyword forms before looser ones. The first capture
// of the first matching pattern wins.
var roomPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bROOM\s*#?([A-Z0-9]+)\b`),
	regexp.MustCompile(`\bPHONG\s*#?([A-Z0-9]+)\b`),
	regexp.MustCompile(`\b(P\d+)\b`),
}

// Keyword-anchored code forms first; the bare trailing run is a last resort
// for payers who type only the code.
var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:HOA ?DON|DON ?HANG|INVOICE|ORDER|INV|HD|DH|MA)\s*[:#]?\s*([A-Z0-9]{6,})\b`),
	regexp.MustCompile(`([A-Z0-9]{6,})$`),
}

var (
	hasDigit  = regexp.MustCompile(`[0-9]`)
	hasLetter = regexp.MustCompile(`[A-Z]`)
)

// Parse extracts a room token and/or record code from unstructured memo text.
// Pure and deterministic; an unparseable memo yields empty fields, never an
// error.
func Parse(raw string) domain.ParsedMemo {
	text := Normalize(raw)
	if text == "" {
		return domain.ParsedMemo{}
	}

	return domain.ParsedMemo{
		RoomToken:  extractRoomToken(text),
		RecordCode: extractRecordCode(text),
	}
}

func extractRoomToken(text string) string {
	for _, pattern := range roomPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

func extractRecordCode(text string) string {
	for i, pattern := range codePatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		token := strings.TrimSpace(m[1])
		// The unanchored trailing run would otherwise swallow bare amounts
		// ("... 500000"); real codes mix letters and digits.
		if i == len(codePatterns)-1 {
			if !hasDigit.MatchString(token) || !hasLetter.MatchString(token) {
				continue
			}
		}
		return token
	}
	return ""
}
