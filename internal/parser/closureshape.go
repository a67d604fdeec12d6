package parser

import (
	"context"
	"regexp"
	"strings"
)

// closurePatterns detect institution-wide closure announcements.
var closurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(opd\s*closed)\b`),
	regexp.MustCompile(`(?i)\b(clinic\s*closed)\b`),
	regexp.MustCompile(`(?i)\b(public\s*holiday)\b`),
	regexp.MustCompile(`(?i)\b(hospital\s*closed)\b`),
	regexp.MustCompile(`(?i)\b(opd\s*is\s*closed)\b`),
}

// parseClosure records a whole-institution closure for the mentioned (or
// current) date. The full message text becomes the closure reason;
// identical reasons are deduplicated downstream.
func (in *Interpreter) parseClosure(ctx context.Context, text, senderID string) (bool, error) {
	low := strings.ToLower(text)
	matched := false
	for _, pat := range closurePatterns {
		if pat.MatchString(low) {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}

	dateISO := in.dates.ParseOrToday(text)
	added, err := in.closures.Apply(ctx, dateISO, strings.TrimSpace(text))
	if err != nil {
		return false, err
	}
	if added {
		in.log.Info("closure recorded", "date", dateISO)
	}
	return true, nil
}
