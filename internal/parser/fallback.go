package parser

import (
	"context"
	"regexp"
	"strings"

	"github.com/jwalitptl/opd-scheduler/internal/model"
)

var (
	reRoomInline  = regexp.MustCompile(`(?i)\broom\s*:?\s*([^\n,;]+)`)
	reCountInline = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:pts|patients)\b`)
)

// parseFallback is the last-resort extractor: a generic status keyword
// scan, a generic rich-field scan, and a bare time-of-day scan over a
// message none of the structured shapes claimed.
func (in *Interpreter) parseFallback(ctx context.Context, text, senderID string) (bool, error) {
	low := strings.ToLower(text)

	patch := model.Patch{}
	if status, reason := lineStatus(low); status != "" {
		patch[model.FieldStatus] = status
		if reason != "" {
			patch[model.FieldStatusReason] = reason
		}
	}

	if m := reCountLabeled.FindStringSubmatch(text); m != nil {
		if n, ok := parseInt(m[1]); ok {
			patch[model.FieldPatientCount] = n
		}
	} else if m := reCountInline.FindStringSubmatch(text); m != nil {
		if n, ok := parseInt(m[1]); ok {
			patch[model.FieldPatientCount] = n
		}
	}

	if m := reRoomInline.FindStringSubmatch(text); m != nil {
		room := strings.TrimSpace(m[1])
		if len(room) > maxRoomLen {
			room = room[:maxRoomLen]
		}
		if room != "" {
			patch[model.FieldRoom] = room
		}
	}

	if ranges := ExtractTimeRanges(text); len(ranges) > 0 {
		slots := make([]model.OPDSlot, 0, len(ranges))
		for _, r := range ranges {
			slots = append(slots, model.OPDSlot{Range: r})
		}
		patch[model.FieldOPD] = slots
	} else if t := FirstTime(text); t != "" {
		// A bare time of day stands in for a session start.
		patch[model.FieldOPD] = []model.OPDSlot{{Range: t + "-" + t}}
	}

	if len(patch) == 0 {
		return false, nil
	}

	doctors := in.snapshot(ctx)
	doc := in.matcher.Match(text, doctors)
	if doc == nil {
		in.noteMatchMiss(strings.TrimSpace(text))
		return false, nil
	}

	dateISO := in.dates.ParseOrToday(text)
	if in.apply(ctx, doc, dateISO, patch) {
		in.log.Info("fallback parse applied", "doctor", doc.Name, "date", dateISO, "fields", patchKeys(patch))
		return true, nil
	}
	return false, nil
}
