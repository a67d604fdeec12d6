package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalitptl/opd-scheduler/internal/model"
)

var statusKeywords = []string{
	"leave", "sick", "cancel",
	"on call", "on-call", "oncall",
	"off duty", "off-duty", "offduty",
}

// parseStatusLine handles short sentences like "Dr Asish 07/09/2025 sick
// leave" or "Dr Sameh leave 9 Sep". A date in the text targets that date,
// otherwise today; an embedded date range fans the patch across every day
// in it.
func (in *Interpreter) parseStatusLine(ctx context.Context, text, senderID string) (bool, error) {
	if len(text) < 4 {
		return false, nil
	}
	low := strings.ToLower(text)
	if !containsAny(low, statusKeywords...) {
		return false, nil
	}

	dateISO := in.dates.ParseOrToday(text)

	doctors := in.snapshot(ctx)
	doc := in.matcher.Match(text, doctors)
	if doc == nil {
		in.noteMatchMiss(strings.TrimSpace(text))
		return false, nil
	}

	status, reason := lineStatus(low)
	if status == "" {
		return false, nil
	}
	reason = refineLeaveReason(low, status, reason)

	days := []string{dateISO}
	if start, end, ok := in.dates.ExtractRange(text); ok {
		days = ExpandRange(start, end)
	}

	changed := false
	for _, day := range days {
		patch := model.Patch{model.FieldStatus: status}
		if reason != "" {
			if len(days) == 1 {
				patch[model.FieldStatusReason] = reason
			} else {
				patch[model.FieldStatusReason] = fmt.Sprintf("%s (%s till %s)",
					reason, FormatDMY(days[0]), FormatDMY(days[len(days)-1]))
			}
		}
		if in.apply(ctx, doc, day, patch) {
			changed = true
		}
	}
	if changed {
		in.log.Info("status line applied", "doctor", doc.Name,
			"from", days[0], "to", days[len(days)-1], "status", status)
	}
	return changed, nil
}
