// Package contentfilter screens review comments for profanity across two
// lexicons (English and Roman Urdu). It is pure: no state, no storage, no
// clock. Evaluate gates persistence; Censor masks matched spans for display.
package contentfilter

import "strings"

type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

// Evaluate reports whether text contains profanity and the severity of the
// worst tier matched. Tiers are checked severe first, then moderate, then
// mild; the first tier with a hit decides. Text shorter than two visible
// characters is never flagged.
func Evaluate(text string) (bool, Severity) {
	trimmed := strings.TrimSpace(text)
	if len([]rune(trimmed)) < 2 {
		return false, SeverityNone
	}

	for _, t := range tiers {
		for _, e := range t.entries {
			if e.literal.MatchString(trimmed) || e.fuzzy.MatchString(trimmed) {
				return true, t.severity
			}
		}
	}
	return false, SeverityNone
}

// Censor replaces every matched span with '*' of equal length. The literal
// pass runs before the fuzzy pass so variant spellings are masked too.
// Already-censored text passes through unchanged.
func Censor(text string) string {
	if text == "" {
		return text
	}

	out := text
	for _, t := range tiers {
		for _, e := range t.entries {
			out = e.literal.ReplaceAllStringFunc(out, mask)
		}
	}
	for _, t := range tiers {
		for _, e := range t.entries {
			out = e.fuzzy.ReplaceAllStringFunc(out, mask)
		}
	}
	return out
}

func mask(match string) string {
	return strings.Repeat("*", len([]rune(match)))
}
