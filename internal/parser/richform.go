package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/opd-scheduler/internal/model"
)

// parseRichForm handles the multi-line form messages staff paste from the
// /format template. Needs at least two non-blank lines and a resolvable
// "Name:" line; everything else is best-effort.
func (in *Interpreter) parseRichForm(ctx context.Context, text, senderID string) (bool, error) {
	lines := nonBlankLines(text)
	if len(lines) < 2 {
		return false, nil
	}

	startDate, endDate := in.extractFormDateRange(lines)
	dateISO := ""
	if startDate == "" {
		dateISO = in.extractFormDate(lines)
	}

	nameLine, ok := lineWithPrefix(lines, "name:")
	if !ok {
		return false, nil
	}
	docName := valueAfterColon(nameLine)
	if docName == "" {
		return false, nil
	}

	doctors := in.snapshot(ctx)
	doc := in.matcher.MatchNameField(docName, doctors)
	if doc == nil {
		in.noteMatchMiss(docName)
		return false, nil
	}

	patch := extractRichFields(lines)
	if len(patch) == 0 {
		return false, nil
	}

	var dates []string
	switch {
	case startDate != "" && endDate != "":
		dates = ExpandRange(startDate, endDate)
		annotateRangeReason(patch, startDate, endDate)
	case dateISO != "":
		dates = []string{dateISO}
	}
	if len(dates) == 0 {
		return false, nil
	}

	applied := false
	for _, d := range dates {
		if in.apply(ctx, doc, d, patch) {
			applied = true
		}
	}
	if applied {
		span := dates[0]
		if len(dates) > 1 {
			span = dates[0] + " to " + dates[len(dates)-1]
		}
		in.log.Info("rich form applied", "doctor", doc.Name, "dates", span, "fields", patchKeys(patch))
	}
	return applied, nil
}

// extractFormDateRange reads an explicit "Start date:" / "End date:" pair.
func (in *Interpreter) extractFormDateRange(lines []string) (string, string) {
	startLine, okS := lineWithPrefix(lines, "start date:")
	endLine, okE := lineWithPrefix(lines, "end date:")
	if !okS || !okE {
		return "", ""
	}
	start := ""
	end := ""
	if m := reDMYDate.FindStringSubmatch(startLine); m != nil {
		start = isoFromDMY(m[1], m[2], m[3])
	}
	if m := reDMYDate.FindStringSubmatch(endLine); m != nil {
		end = isoFromDMY(m[1], m[2], m[3])
	}
	if start == "" || end == "" {
		return "", ""
	}
	return start, end
}

// extractFormDate reads a single "Date:" line, falling back to any line
// carrying a date, then to today.
func (in *Interpreter) extractFormDate(lines []string) string {
	candidates := lines
	if dl, ok := lineWithPrefix(lines, "date:"); ok {
		candidates = []string{dl}
	}
	for _, l := range candidates {
		if m := reISODate.FindString(l); m != "" {
			return m
		}
		if m := reDMYDate.FindStringSubmatch(l); m != nil {
			if iso := isoFromDMY(m[1], m[2], m[3]); iso != "" {
				return iso
			}
		}
		if iso := in.dates.Parse(l); iso != "" {
			return iso
		}
	}
	return in.clock.TodayISO()
}

// extractRichFields pulls every schedule field the form may carry. Pure so
// it can be unit-tested without a directory or store.
func extractRichFields(lines []string) model.Patch {
	patch := model.Patch{}
	fullText := strings.Join(lines, "\n")
	textLower := strings.ToLower(fullText)

	if l, ok := lineWithPrefix(lines, "designation:"); ok {
		if v := valueAfterColon(l); v != "" {
			patch[model.FieldDesignation] = v
		}
	}

	if l, ok := lineContaining(lines, "starting time"); ok {
		if m := reClock.FindStringSubmatch(l); m != nil {
			patch[model.FieldStartTime] = clampClock(atoi(m[1]), atoi(m[2]))
		} else if m := reStartRaw.FindStringSubmatch(l); m != nil {
			if t, ok := ParseTimeToken(m[1]); ok {
				patch[model.FieldStartTime] = t
			}
		}
	}

	if l, ok := lineWithPrefix(lines, "room"); ok {
		if room := extractRoom(l); room != "" {
			patch[model.FieldRoom] = room
		}
	}

	if l, ok := lineContaining(lines, "no of patients"); ok && !strings.Contains(strings.ToLower(l), "break") {
		if n, found := firstInt(l); found {
			patch[model.FieldPatientCount] = n
		}
	}

	var opd []model.OPDSlot
	for _, l := range lines {
		if strings.HasPrefix(strings.ToLower(l), "opd") {
			opd = append(opd, extractOPDSlots(l)...)
		}
	}

	before := extractBreakSlots(fullText, reBeforeBreak)
	after := extractBreakSlots(fullText, reAfterBreak)
	if len(before) > 0 {
		patch[model.FieldBeforeBreakOPD] = before
		patch[model.FieldBeforeBreakPatients] = slotTotal(before)
	}
	if len(after) > 0 {
		patch[model.FieldAfterBreakOPD] = after
		patch[model.FieldAfterBreakPatients] = slotTotal(after)
	}
	// Explicit before/after sections double as the combined session list
	// when no generic OPD lines were given.
	if len(opd) == 0 && (len(before) > 0 || len(after) > 0) {
		combined := make([]model.OPDSlot, 0, len(before)+len(after))
		combined = append(combined, before...)
		combined = append(combined, after...)
		patch[model.FieldOPD] = combined
	}
	if len(opd) > 0 {
		patch[model.FieldOPD] = opd
	}

	if breaks, _ := extractBreaks(lines); len(breaks) > 0 {
		patch[model.FieldBreaks] = breaks
	}

	extractLabeledCounts(lines, patch)

	if status, reason := richStatus(textLower); status != "" {
		patch[model.FieldStatus] = status
		if reason != "" {
			patch[model.FieldStatusReason] = reason
		}
	}
	if rePostOncall.MatchString(textLower) {
		patch[model.FieldPostOncall] = true
	}

	for _, l := range lines {
		tl := strings.ToLower(l)
		if strings.Contains(tl, "after") && strings.Contains(tl, "break") {
			if reNoTokens.MatchString(tl) {
				patch[model.FieldAfterBreakNote] = model.NoteNoTokens
			} else if reNoAfterBreak.MatchString(tl) {
				patch[model.FieldAfterBreakNote] = model.NoteNoAfterBreak
			}
		}
	}

	// Schedule-shaped fields imply the doctor is working unless an
	// explicit inactive status fired.
	if _, ok := patch[model.FieldStatus]; !ok {
		if patch[model.FieldOPD] != nil || patch[model.FieldPatientCount] != nil ||
			patch[model.FieldRoom] != nil || patch[model.FieldStartTime] != nil {
			patch[model.FieldStatus] = model.StatusOnDuty
		}
	}

	if l, ok := lineWithPrefix(lines, "reason:"); ok {
		if v := valueAfterColon(l); v != "" {
			patch[model.FieldStatusReason] = v
		}
	}

	if l, ok := lineWithPrefix(lines, "leave type:"); ok {
		if v := valueAfterColon(l); v != "" {
			if strings.Contains(strings.ToLower(v), "sick") {
				patch[model.FieldStatus] = model.StatusSick
			}
			if _, has := patch[model.FieldStatusReason]; !has {
				patch[model.FieldStatusReason] = v
			}
		}
	}

	return patch
}

// extractLabeledCounts reads "Before break patients: 10" style lines plus
// the look-ahead form where the count sits on the line after the section.
func extractLabeledCounts(lines []string, patch model.Patch) {
	for idx, l := range lines {
		tl := strings.ToLower(strings.TrimSpace(l))
		if strings.Contains(tl, "before") && strings.Contains(tl, "break") && strings.Contains(tl, "patient") {
			if n, ok := firstInt(l); ok {
				patch[model.FieldBeforeBreakPatients] = n
			}
			continue
		}
		if strings.Contains(tl, "after") && strings.Contains(tl, "break") && strings.Contains(tl, "patient") {
			if n, ok := firstInt(l); ok {
				patch[model.FieldAfterBreakPatients] = n
			}
			continue
		}
		if strings.HasPrefix(tl, "before") && strings.Contains(tl, "opd") && idx+1 < len(lines) {
			if _, has := patch[model.FieldBeforeBreakPatients]; !has {
				if n, ok := lookaheadCount(lines[idx+1]); ok {
					patch[model.FieldBeforeBreakPatients] = n
				}
			}
		}
		if strings.HasPrefix(tl, "after") && strings.Contains(tl, "opd") && idx+1 < len(lines) {
			if _, has := patch[model.FieldAfterBreakPatients]; !has {
				if n, ok := lookaheadCount(lines[idx+1]); ok {
					patch[model.FieldAfterBreakPatients] = n
				}
			}
		}
	}
}

func lookaheadCount(next string) (int, bool) {
	if m := reCountLabeled.FindStringSubmatch(next); m != nil {
		return parseInt(m[1])
	}
	if m := reCountBare.FindStringSubmatch(next); m != nil {
		return parseInt(m[1])
	}
	return 0, false
}

// extractRoom keeps the full room description (multi-word allowed),
// trimmed to a sane max length.
func extractRoom(line string) string {
	raw := ""
	if strings.Contains(line, ":") {
		raw = valueAfterColon(line)
	} else if len(line) > 4 {
		raw = strings.TrimSpace(line[4:])
	}
	raw = reSpaces.ReplaceAllString(raw, " ")
	raw = strings.TrimLeft(raw, "-: ")
	if len(raw) > maxRoomLen {
		raw = raw[:maxRoomLen]
	}
	return strings.TrimSpace(raw)
}

func annotateRangeReason(patch model.Patch, startISO, endISO string) {
	status, _ := patch[model.FieldStatus].(string)
	if status != model.StatusLeave && status != model.StatusSick {
		return
	}
	reason, _ := patch[model.FieldStatusReason].(string)
	if reason == "" {
		reason = status
	}
	patch[model.FieldStatusReason] = fmt.Sprintf("%s (%s to %s)", reason, FormatDMY(startISO), FormatDMY(endISO))
}

func slotTotal(slots []model.OPDSlot) int {
	total := 0
	for _, s := range slots {
		total += s.Count
	}
	return total
}

func lineContaining(lines []string, needle string) (string, bool) {
	for _, l := range lines {
		if strings.Contains(strings.ToLower(l), needle) {
			return l, true
		}
	}
	return "", false
}

func patchKeys(p model.Patch) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, string(k))
	}
	return keys
}
