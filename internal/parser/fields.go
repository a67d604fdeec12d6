package parser

import (
	"regexp"
	"strings"

	"github.com/jwalitptl/opd-scheduler/internal/model"
)

const maxRoomLen = 60

var (
	reOPDSlot      = regexp.MustCompile(`(\d{1,2}:\d{2}-\d{1,2}:\d{2})[-\s]*(\d{1,3})?`)
	reBreakRange   = regexp.MustCompile(`(?i)\[?\s*(\d{1,2}:\d{2})\s*(?:-|to)\s*(\d{1,2}:\d{2})\s*\]?`)
	reNoBreak      = regexp.MustCompile(`(?i)no\s*break`)
	reInt          = regexp.MustCompile(`\d+`)
	reCountLabeled = regexp.MustCompile(`(?i)no\s*of\s*patients\s*[:\-]?\s*(\d+)`)
	reCountBare    = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:pts|patients)?\b`)
	reStartRaw     = regexp.MustCompile(`(?i)starting time\s*:?\s*(\d{1,4})`)

	// Tolerates optional punctuation, an optional literal "OPD" token,
	// brackets, "-" or "to" between times, and a trailing patient count.
	reBeforeBreak = regexp.MustCompile(`(?i)before\s*break[^0-9\n]{0,40}(?:opd)?[^0-9\n]{0,12}\[?\s*(\d{1,2}\s*:?\s*\d{0,2})\s*(?:-|to)\s*(\d{1,2}\s*:?\s*\d{0,2})\s*\]?(?:[^0-9\n]{0,12}(\d{1,3}))?\s*(?:pts|patients)?`)
	reAfterBreak  = regexp.MustCompile(`(?i)after\s*break[^0-9\n]{0,40}(?:opd)?[^0-9\n]{0,12}\[?\s*(\d{1,2}\s*:?\s*\d{0,2})\s*(?:-|to)\s*(\d{1,2}\s*:?\s*\d{0,2})\s*\]?(?:[^0-9\n]{0,12}(\d{1,3}))?\s*(?:pts|patients)?`)

	reSickLeave    = regexp.MustCompile(`(?i)\b(sick|medical)\s+leave\b`)
	reFamilyLeave  = regexp.MustCompile(`(?i)\bfamily\s+leave\b`)
	reOnCallWord   = regexp.MustCompile(`(?i)\b(on call)\b`)
	reOnCallAny    = regexp.MustCompile(`(?i)\b(on\s*call|on-call|oncall)\b`)
	reOPDCancelled = regexp.MustCompile(`(?i)opd.*(cancelled|canceled)`)
	reBareLeave    = regexp.MustCompile(`(?i)\bleave\b`)
	reOffDuty      = regexp.MustCompile(`(?i)\boff(\s+duty)?\b`)
	rePostOncall   = regexp.MustCompile(`(?i)post[-\s]?on[-\s]?call`)
	reNoTokens     = regexp.MustCompile(`(?i)no\s*tokens?`)
	reNoAfterBreak = regexp.MustCompile(`(?i)no\s*after\s*break`)
	reLeaveKind    = regexp.MustCompile(`(?i)(sick\s+leave|medical\s+leave|annual\s+leave|family\s+leave)`)
)

// nonBlankLines trims and drops empty lines.
func nonBlankLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func lineWithPrefix(lines []string, prefix string) (string, bool) {
	for _, l := range lines {
		if strings.HasPrefix(strings.ToLower(l), prefix) {
			return l, true
		}
	}
	return "", false
}

func valueAfterColon(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return ""
}

// extractOPDSlots parses generic "OPD:" lines into range/count slots.
func extractOPDSlots(line string) []model.OPDSlot {
	var out []model.OPDSlot
	m := reOPDSlot.FindStringSubmatch(line)
	if m == nil {
		return out
	}
	slot := model.OPDSlot{Range: m[1]}
	if m[2] != "" {
		if n, ok := parseInt(m[2]); ok {
			slot.Count = n
		}
	}
	return append(out, slot)
}

// extractBreakSlots scans the whole message for "before break" / "after
// break" session lines, normalizing compressed time fragments.
func extractBreakSlots(fullText string, re *regexp.Regexp) []model.OPDSlot {
	var out []model.OPDSlot
	for _, m := range re.FindAllStringSubmatch(fullText, -1) {
		a := normalizeClockPiece(m[1])
		b := normalizeClockPiece(m[2])
		slot := model.OPDSlot{Range: a + "-" + b}
		if m[3] != "" {
			if n, ok := parseInt(m[3]); ok {
				slot.Count = n
			}
		}
		out = append(out, slot)
	}
	return out
}

// extractBreaks parses "Break:" lines into a list of ranges, or the
// explicit NO BREAK sentinel.
func extractBreaks(lines []string) (breaks []string, noBreak bool) {
	for _, l := range lines {
		if !strings.HasPrefix(strings.ToLower(l), "break") {
			continue
		}
		if reNoBreak.MatchString(l) {
			breaks = append(breaks, model.NoBreakSentinel)
			noBreak = true
			continue
		}
		if m := reBreakRange.FindStringSubmatch(l); m != nil {
			breaks = append(breaks, m[1]+"-"+m[2])
		}
	}
	return breaks, noBreak
}

// richStatus infers a status from keywords in a multi-line form. The
// returned reason may be empty.
func richStatus(textLower string) (string, string) {
	switch {
	case reSickLeave.MatchString(textLower):
		return model.StatusSick, "Medical leave"
	case reFamilyLeave.MatchString(textLower):
		return model.StatusLeave, "Family leave"
	case reOnCallWord.MatchString(textLower):
		return model.StatusOnCall, ""
	case reOPDCancelled.MatchString(textLower):
		return model.StatusOffDuty, "OPD cancelled"
	case reBareLeave.MatchString(textLower):
		return model.StatusLeave, ""
	}
	return "", ""
}

// lineStatus maps single-line status keywords, with the precedence the
// status sentences use.
func lineStatus(low string) (string, string) {
	switch {
	case strings.Contains(low, "sick"):
		return model.StatusSick, "Medical leave"
	case reOnCallAny.MatchString(low):
		return model.StatusOnCall, ""
	case strings.Contains(low, "cancel") && strings.Contains(low, "opd"):
		return model.StatusOffDuty, "OPD cancelled"
	case reOffDuty.MatchString(low):
		return model.StatusOffDuty, ""
	case strings.Contains(low, "leave"):
		return model.StatusLeave, ""
	}
	return "", ""
}

// refineLeaveReason fills in a default human-readable reason, upgrading a
// generic LEAVE when the text names the leave kind explicitly. Sickness
// always reads "Medical leave" regardless of phrasing.
func refineLeaveReason(low, status, reason string) string {
	switch status {
	case model.StatusSick:
		if reason == "" {
			return "Medical leave"
		}
	case model.StatusLeave:
		if m := reLeaveKind.FindString(low); m != "" && !strings.Contains(strings.ToLower(m), "sick") {
			return titleCase(m)
		}
		if reason == "" {
			return "Leave"
		}
	}
	return reason
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func firstInt(s string) (int, bool) {
	if m := reInt.FindString(s); m != "" {
		return parseInt(m)
	}
	return 0, false
}
