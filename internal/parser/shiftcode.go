package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/jwalitptl/opd-scheduler/internal/model"
)

// shiftStartTimes maps shift numbers to duty start times.
var shiftStartTimes = map[string]string{
	"1": "08:00",
	"2": "14:00",
	"3": "20:00",
}

var (
	reShiftNum     = regexp.MustCompile(`(?i)shift\s*(\d)`)
	reShiftKeyword = regexp.MustCompile(`(?i)\b(shift|off|leave|sick|on/call|on call)\b`)
	reLeadingDr    = regexp.MustCompile(`(?i)^dr[.,\s]+`)
	reOffWord      = regexp.MustCompile(`(?i)\boff\b`)
)

// parseShiftCodes handles terse roster blocks: one line per doctor naming
// a status keyword and optionally a shift number, with an optional leading
// date line for the whole block.
func (in *Interpreter) parseShiftCodes(ctx context.Context, text, senderID string) (bool, error) {
	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return false, nil
	}

	dateISO := ""
	first := lines[0]
	if strings.HasPrefix(strings.ToLower(first), "date") || reDayMonthHdr.MatchString(first) {
		dateISO = in.dates.Parse(first)
		if dateISO == "" {
			if m := reISODate.FindString(first); m != "" {
				dateISO = m
			}
		}
		if dateISO == "" {
			if m := reDMYDate.FindStringSubmatch(first); m != nil {
				dateISO = isoFromDMY(m[1], m[2], m[3])
			}
		}
		if dateISO != "" {
			lines = lines[1:]
		}
	}
	if dateISO == "" {
		dateISO = in.clock.TodayISO()
	}

	// A single bare line without any shift keyword isn't this shape.
	joined := strings.ToLower(strings.Join(lines, "\n"))
	if len(lines) <= 1 && !containsAny(joined, "shift", " off", "leave", "sick", "on/call", "on call") {
		return false, nil
	}

	doctors := in.snapshot(ctx)
	changed := false
	for _, line := range lines {
		low := strings.ToLower(line)
		status := ""
		switch {
		case strings.Contains(low, "on/call") || strings.Contains(low, "on call"):
			status = model.StatusOnCall
		case reOffWord.MatchString(low):
			status = model.StatusOffDuty
		case strings.Contains(low, "leave"):
			status = model.StatusLeave
		case strings.Contains(low, "sick"):
			status = model.StatusSick
		case strings.Contains(low, "shift"):
			status = model.StatusOnDuty
		}

		startTime := ""
		if m := reShiftNum.FindStringSubmatch(low); m != nil {
			startTime = shiftStartTimes[m[1]]
		}

		namePart := line
		if loc := reShiftKeyword.FindStringIndex(line); loc != nil {
			namePart = line[:loc[0]]
		}
		namePart = strings.TrimSpace(reLeadingDr.ReplaceAllString(namePart, ""))
		if namePart == "" {
			continue
		}
		toks := tokenSet(namePart)
		if len(toks) == 0 {
			continue
		}

		// Strict subset match: every token of the doctor's name must be
		// present; ties go to the most tokens matched.
		var match *model.Doctor
		best := 0
		for i := range doctors {
			dtoks := tokenSet(doctors[i].Name)
			if len(dtoks) > 0 && isSubset(dtoks, toks) && len(dtoks) > best {
				match = &doctors[i]
				best = len(dtoks)
			}
		}
		if match == nil {
			continue
		}

		patch := model.Patch{}
		if status != "" {
			patch[model.FieldStatus] = status
		}
		if startTime != "" {
			patch[model.FieldStartTime] = startTime
		}
		if len(patch) == 0 {
			continue
		}
		if in.apply(ctx, match, dateISO, patch) {
			changed = true
			in.log.Info("shift code applied", "doctor", match.Name, "date", dateISO, "fields", patchKeys(patch))
		}
	}
	return changed, nil
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
