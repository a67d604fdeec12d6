package parser

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
)

type fakeDirectory struct {
	doctors []model.Doctor
}

func (f *fakeDirectory) Snapshot(ctx context.Context) ([]model.Doctor, error) {
	return f.doctors, nil
}

type appliedPatch struct {
	doctorID uuid.UUID
	dateISO  string
	patch    model.Patch
}

type fakeApplier struct {
	applied []appliedPatch
}

func (f *fakeApplier) Apply(ctx context.Context, doctorID uuid.UUID, dateISO string, patch model.Patch) (bool, error) {
	f.applied = append(f.applied, appliedPatch{doctorID, dateISO, patch})
	return true, nil
}

type fakeClosures struct {
	recorded map[string][]string
}

func (f *fakeClosures) Apply(ctx context.Context, dateISO, reason string) (bool, error) {
	if f.recorded == nil {
		f.recorded = map[string][]string{}
	}
	for _, r := range f.recorded[dateISO] {
		if r == reason {
			return false, nil
		}
	}
	f.recorded[dateISO] = append(f.recorded[dateISO], reason)
	return true, nil
}

type fakeReplier struct {
	replies []string
}

func (f *fakeReplier) Reply(ctx context.Context, recipientID, text string) error {
	f.replies = append(f.replies, text)
	return nil
}

type testHarness struct {
	in       *Interpreter
	applier  *fakeApplier
	closures *fakeClosures
	replier  *fakeReplier
	asish    uuid.UUID
	moosa    uuid.UUID
	sameh    uuid.UUID
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	asish := doctor("Dr. Asish Rajak")
	moosa := doctor("Dr. Moosa Manik")
	sameh := doctor("Dr. Sameh")

	dir := &fakeDirectory{doctors: []model.Doctor{asish, moosa, sameh}}
	applier := &fakeApplier{}
	closures := &fakeClosures{}
	replier := &fakeReplier{}

	base := time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC)
	clock := NewClockAt(func() time.Time { return base }, 300)
	log := logger.NewLogger(&logger.Config{Output: io.Discard})

	in := NewInterpreter(dir, applier, closures, replier, clock, log, nil)
	return &testHarness{
		in:       in,
		applier:  applier,
		closures: closures,
		replier:  replier,
		asish:    asish.ID,
		moosa:    moosa.ID,
		sameh:    sameh.ID,
	}
}

func TestInterpretRichMultiline(t *testing.T) {
	h := newHarness(t)
	msg := `Date: 31/10/2025
Name: Dr. Moosa Manik
Starting time: 8:00
Room: 4
Total no of patients: 20
Before break OPD: 8:00 TO 11:00
Before break patients: 10
Break: 11:00-12:00
After break OPD: 12:00 TO 14:00
After break patients: 10`

	require.True(t, h.in.Interpret(context.Background(), msg, "chat-1"))
	require.Len(t, h.applier.applied, 1)

	got := h.applier.applied[0]
	assert.Equal(t, h.moosa, got.doctorID)
	assert.Equal(t, "2025-10-31", got.dateISO)

	p := got.patch
	assert.Equal(t, "08:00", p[model.FieldStartTime])
	assert.Equal(t, "4", p[model.FieldRoom])
	assert.Equal(t, 20, p[model.FieldPatientCount])
	assert.Equal(t, model.StatusOnDuty, p[model.FieldStatus])
	assert.Equal(t, []string{"11:00-12:00"}, p[model.FieldBreaks])
	assert.Equal(t, 10, p[model.FieldBeforeBreakPatients])
	assert.Equal(t, 10, p[model.FieldAfterBreakPatients])
	assert.Equal(t, []model.OPDSlot{{Range: "08:00-11:00"}}, p[model.FieldBeforeBreakOPD])
	assert.Equal(t, []model.OPDSlot{{Range: "12:00-14:00"}}, p[model.FieldAfterBreakOPD])
	// No generic OPD lines, so the sections double as the combined list.
	assert.Equal(t, []model.OPDSlot{{Range: "08:00-11:00"}, {Range: "12:00-14:00"}}, p[model.FieldOPD])
}

func TestInterpretSingleLineSickLeave(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.in.Interpret(context.Background(), "Dr Asish 07/09/2025 sick leave", "chat-1"))
	require.Len(t, h.applier.applied, 1)

	got := h.applier.applied[0]
	assert.Equal(t, h.asish, got.doctorID)
	assert.Equal(t, "2025-09-07", got.dateISO)
	assert.Equal(t, model.StatusSick, got.patch[model.FieldStatus])
	assert.Equal(t, "Medical leave", got.patch[model.FieldStatusReason])
}

func TestInterpretLeaveDateRange(t *testing.T) {
	h := newHarness(t)

	handled := h.in.Interpret(context.Background(),
		"Dr Sameh on leave from 01/11/2025 till 05/11/2025", "chat-1")
	require.True(t, handled)
	require.Len(t, h.applier.applied, 5)

	for i, day := range []string{"2025-11-01", "2025-11-02", "2025-11-03", "2025-11-04", "2025-11-05"} {
		got := h.applier.applied[i]
		assert.Equal(t, h.sameh, got.doctorID)
		assert.Equal(t, day, got.dateISO)
		assert.Equal(t, model.StatusLeave, got.patch[model.FieldStatus])
		assert.Equal(t, "Leave (01/11/2025 till 05/11/2025)", got.patch[model.FieldStatusReason])
	}
}

func TestInterpretRichFormLeaveRange(t *testing.T) {
	h := newHarness(t)
	msg := `Start date: 01/11/2025
End date: 03/11/2025
Name: Dr. Sameh
Leave type: Sick leave
Reason: Fever`

	require.True(t, h.in.Interpret(context.Background(), msg, "chat-1"))
	require.Len(t, h.applier.applied, 3)

	got := h.applier.applied[0]
	assert.Equal(t, model.StatusSick, got.patch[model.FieldStatus])
	assert.Equal(t, "Fever (01/11/2025 to 03/11/2025)", got.patch[model.FieldStatusReason])
}

func TestInterpretShiftCodes(t *testing.T) {
	h := newHarness(t)
	msg := `Date: 09/09/2025
Dr Asish Rajak shift 2
Dr Sameh off
Moosa Manik on call`

	require.True(t, h.in.Interpret(context.Background(), msg, "chat-1"))
	require.Len(t, h.applier.applied, 3)

	byDoctor := map[uuid.UUID]model.Patch{}
	for _, a := range h.applier.applied {
		assert.Equal(t, "2025-09-09", a.dateISO)
		byDoctor[a.doctorID] = a.patch
	}
	assert.Equal(t, model.StatusOnDuty, byDoctor[h.asish][model.FieldStatus])
	assert.Equal(t, "14:00", byDoctor[h.asish][model.FieldStartTime])
	assert.Equal(t, model.StatusOffDuty, byDoctor[h.sameh][model.FieldStatus])
	assert.Equal(t, model.StatusOnCall, byDoctor[h.moosa][model.FieldStatus])
}

func TestInterpretClosure(t *testing.T) {
	h := newHarness(t)
	msg := "OPD closed on 09/09/2025 due to maintenance"

	require.True(t, h.in.Interpret(context.Background(), msg, "chat-1"))
	require.Len(t, h.closures.recorded["2025-09-09"], 1)
	assert.Equal(t, msg, h.closures.recorded["2025-09-09"][0])
	assert.Empty(t, h.applier.applied)

	// An exact repeat still counts as handled but records nothing new.
	require.True(t, h.in.Interpret(context.Background(), msg, "chat-1"))
	assert.Len(t, h.closures.recorded["2025-09-09"], 1)
}

func TestInterpretCommandDedup(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.True(t, h.in.Interpret(ctx, "/help", "chat-1"))
	require.True(t, h.in.Interpret(ctx, "/help", "chat-1"))
	// The duplicate inside the window is swallowed without a second reply.
	assert.Len(t, h.replier.replies, 1)

	// A different sender gets their own reply.
	require.True(t, h.in.Interpret(ctx, "/help", "chat-2"))
	assert.Len(t, h.replier.replies, 2)
}

func TestInterpretStatusCommand(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.in.Interpret(context.Background(), "/status", "chat-1"))
	require.Len(t, h.replier.replies, 1)
	assert.Contains(t, h.replier.replies[0], "2025-09-07")
	assert.Contains(t, h.replier.replies[0], "07/09/2025")
}

func TestInterpretUnparsableDropsSilently(t *testing.T) {
	h := newHarness(t)

	// No status keyword, no times, no counts: nothing for any shape.
	handled := h.in.Interpret(context.Background(), "please restock the printer paper", "chat-1")
	assert.False(t, handled)
	assert.Empty(t, h.applier.applied)
	assert.Empty(t, h.replier.replies)
}

func TestInterpretEmptyMessage(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.in.Interpret(context.Background(), "", "chat-1"))
}

func TestExtractRichFieldsNoBreak(t *testing.T) {
	patch := extractRichFields([]string{
		"Name: Dr. Moosa Manik",
		"Starting time: 8:00",
		"Break: NO BREAK",
	})
	assert.Equal(t, []string{model.NoBreakSentinel}, patch[model.FieldBreaks])
	assert.Equal(t, "08:00", patch[model.FieldStartTime])
}

func TestInterpretFallbackBareTime(t *testing.T) {
	h := newHarness(t)

	handled := h.in.Interpret(context.Background(), "Moosa Manik 9:30", "chat-1")
	require.True(t, handled)
	require.Len(t, h.applier.applied, 1)

	got := h.applier.applied[0]
	assert.Equal(t, h.moosa, got.doctorID)
	assert.Equal(t, "2025-09-07", got.dateISO)
	assert.Equal(t, []model.OPDSlot{{Range: "09:30-09:30"}}, got.patch[model.FieldOPD])
}
