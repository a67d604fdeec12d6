package schedule

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/internal/parser"
	"github.com/jwalitptl/opd-scheduler/pkg/event"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
)

// memScheduleRepo stores entries as JSON so every read goes through the
// same decode path as the JSONB column, canonicalization included.
type memScheduleRepo struct {
	rows map[string][]byte
}

func newMemScheduleRepo() *memScheduleRepo {
	return &memScheduleRepo{rows: map[string][]byte{}}
}

func key(doctorID uuid.UUID, dateISO string) string {
	return doctorID.String() + "|" + dateISO
}

func (r *memScheduleRepo) GetEntry(ctx context.Context, doctorID uuid.UUID, dateISO string) (model.DayEntry, error) {
	raw, ok := r.rows[key(doctorID, dateISO)]
	if !ok {
		return nil, nil
	}
	var e model.DayEntry
	if err := e.Scan(raw); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *memScheduleRepo) UpsertEntry(ctx context.Context, doctorID uuid.UUID, dateISO string, entry model.DayEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	r.rows[key(doctorID, dateISO)] = raw
	return nil
}

func (r *memScheduleRepo) DeleteEntry(ctx context.Context, doctorID uuid.UUID, dateISO string) error {
	delete(r.rows, key(doctorID, dateISO))
	return nil
}

func (r *memScheduleRepo) ListForDate(ctx context.Context, dateISO string) ([]model.ScheduleEntry, error) {
	var out []model.ScheduleEntry
	for k, raw := range r.rows {
		if len(k) < len(dateISO) || k[len(k)-len(dateISO):] != dateISO {
			continue
		}
		id, err := uuid.Parse(k[:36])
		if err != nil {
			return nil, err
		}
		var e model.DayEntry
		if err := e.Scan(raw); err != nil {
			return nil, err
		}
		out = append(out, model.ScheduleEntry{DoctorID: id, ForDate: dateISO, Entry: e})
	}
	return out, nil
}

func (r *memScheduleRepo) ListRange(ctx context.Context, fromISO, toISO string) ([]model.ScheduleEntry, error) {
	var out []model.ScheduleEntry
	for k := range r.rows {
		date := k[37:]
		if date >= fromISO && date <= toISO {
			entries, err := r.ListForDate(ctx, date)
			if err != nil {
				return nil, err
			}
			out = append(out, entries...)
		}
	}
	return out, nil
}

func (r *memScheduleRepo) DeleteAll(ctx context.Context) (int64, error) {
	n := int64(len(r.rows))
	r.rows = map[string][]byte{}
	return n, nil
}

type memDoctorRepo struct {
	doctors []model.Doctor
}

func (r *memDoctorRepo) Create(ctx context.Context, d *model.Doctor) error { return nil }
func (r *memDoctorRepo) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return nil, nil
}
func (r *memDoctorRepo) Update(ctx context.Context, d *model.Doctor) error { return nil }
func (r *memDoctorRepo) Delete(ctx context.Context, id uuid.UUID) error    { return nil }
func (r *memDoctorRepo) List(ctx context.Context) ([]model.Doctor, error) {
	return r.doctors, nil
}

type memClosureRepo struct {
	closures map[string]*model.Closure
}

func (r *memClosureRepo) Get(ctx context.Context, dateISO string) (*model.Closure, error) {
	return r.closures[dateISO], nil
}
func (r *memClosureRepo) Upsert(ctx context.Context, c *model.Closure) error {
	if r.closures == nil {
		r.closures = map[string]*model.Closure{}
	}
	r.closures[c.Date] = c
	return nil
}
func (r *memClosureRepo) List(ctx context.Context) ([]model.Closure, error) { return nil, nil }

func testClock() parser.Clock {
	base := time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC)
	return parser.NewClockAt(func() time.Time { return base }, 300)
}

func newTestService(repo *memScheduleRepo, doctors *memDoctorRepo, closures *memClosureRepo) *Service {
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	return NewService(repo, doctors, closures, event.NewBroker(8), nil, nil, log, testClock(), time.Friday)
}

func TestApplyRejectsClosureWeekday(t *testing.T) {
	repo := newMemScheduleRepo()
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()

	// 2025-09-05 is a Friday.
	changed, err := svc.Apply(ctx, uuid.New(), "2025-09-05", model.Patch{model.FieldStatus: "ON_DUTY"})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, repo.rows)
}

func TestApplyInvalidDate(t *testing.T) {
	svc := newTestService(newMemScheduleRepo(), nil, nil)

	_, err := svc.Apply(context.Background(), uuid.New(), "05/09/2025", model.Patch{model.FieldStatus: "ON_DUTY"})
	assert.Error(t, err)
}

func TestApplyIdempotentAfterRoundTrip(t *testing.T) {
	repo := newMemScheduleRepo()
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()
	id := uuid.New()

	patch := model.Patch{
		model.FieldStatus:       " on_duty ",
		model.FieldRoom:         "4",
		model.FieldPatientCount: 20,
		model.FieldOPD:          []model.OPDSlot{{Range: "08:00-11:00"}, {Range: "12:00-14:00"}},
		model.FieldBreaks:       []string{"11:00-12:00"},
	}

	changed, err := svc.Apply(ctx, id, "2025-09-08", patch)
	require.NoError(t, err)
	assert.True(t, changed)

	entry, err := svc.Entry(ctx, id, "2025-09-08")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnDuty, entry[model.FieldStatus])
	assert.Equal(t, 20, entry[model.FieldPatientCount])
	assert.Equal(t, []model.OPDSlot{{Range: "08:00-11:00"}, {Range: "12:00-14:00"}}, entry[model.FieldOPD])
	assert.Equal(t, []string{"11:00-12:00"}, entry[model.FieldBreaks])

	stamp, ok := entry[model.FieldLastUpdate].(string)
	require.True(t, ok)
	_, err = time.Parse(time.RFC3339, stamp)
	assert.NoError(t, err)

	// The identical patch against the stored (JSON round-tripped) entry
	// must be a no-op, lowercase status included.
	changed, err = svc.Apply(ctx, id, "2025-09-08", patch)
	require.NoError(t, err)
	assert.False(t, changed)

	after, err := svc.Entry(ctx, id, "2025-09-08")
	require.NoError(t, err)
	assert.Equal(t, stamp, after[model.FieldLastUpdate])
}

func TestApplyEmptyValueDeletes(t *testing.T) {
	repo := newMemScheduleRepo()
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()
	id := uuid.New()

	changed, err := svc.Apply(ctx, id, "2025-09-08", model.Patch{model.FieldRoom: "4"})
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = svc.Apply(ctx, id, "2025-09-08", model.Patch{model.FieldRoom: ""})
	require.NoError(t, err)
	assert.True(t, changed)

	entry, err := svc.Entry(ctx, id, "2025-09-08")
	require.NoError(t, err)
	_, has := entry[model.FieldRoom]
	assert.False(t, has)

	// Deleting a key that is already gone is a no-op.
	changed, err = svc.Apply(ctx, id, "2025-09-08", model.Patch{model.FieldRoom: "  "})
	require.NoError(t, err)
	assert.False(t, changed)

	// A nil value deletes the same way an empty string does.
	_, err = svc.Apply(ctx, id, "2025-09-08", model.Patch{model.FieldStatus: "SICK"})
	require.NoError(t, err)
	changed, err = svc.Apply(ctx, id, "2025-09-08", model.Patch{model.FieldStatus: nil})
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = svc.Apply(ctx, id, "2025-09-08", model.Patch{model.FieldStatus: nil})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestApplyDropsUnknownFields(t *testing.T) {
	repo := newMemScheduleRepo()
	svc := newTestService(repo, nil, nil)

	changed, err := svc.Apply(context.Background(), uuid.New(), "2025-09-08", model.Patch{
		"bogus":               "x",
		model.FieldLastUpdate: "2020-01-01T00:00:00Z",
	})
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, repo.rows)
}

func TestApplyPublishesDoctorUpdate(t *testing.T) {
	repo := newMemScheduleRepo()
	broker := event.NewBroker(8)
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	svc := NewService(repo, nil, nil, broker, nil, nil, log, testClock(), time.Friday)

	ch, cancel := broker.Subscribe()
	defer cancel()

	id := uuid.New()
	changed, err := svc.Apply(context.Background(), id, "2025-09-08", model.Patch{model.FieldStatus: "SICK"})
	require.NoError(t, err)
	require.True(t, changed)

	select {
	case ev := <-ch:
		assert.Equal(t, model.EventDoctorUpdate, ev.Name)
		var payload model.DoctorUpdateEvent
		require.NoError(t, json.Unmarshal(ev.Payload, &payload))
		assert.Equal(t, id, payload.DoctorID)
		assert.Equal(t, "2025-09-08", payload.Date)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestRemoveField(t *testing.T) {
	repo := newMemScheduleRepo()
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()
	id := uuid.New()

	_, err := svc.Apply(ctx, id, "2025-09-08", model.Patch{model.FieldRoom: "4", model.FieldStatus: "ON_DUTY"})
	require.NoError(t, err)

	removed, err := svc.RemoveField(ctx, id, "2025-09-08", model.FieldRoom)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.RemoveField(ctx, id, "2025-09-08", model.FieldRoom)
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = svc.RemoveField(ctx, id, "2025-09-08", model.FieldLastUpdate)
	require.NoError(t, err)
	assert.False(t, removed)

	entry, err := svc.Entry(ctx, id, "2025-09-08")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnDuty, entry[model.FieldStatus])
}

func TestBulkClear(t *testing.T) {
	repo := newMemScheduleRepo()
	broker := event.NewBroker(8)
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	svc := NewService(repo, nil, nil, broker, nil, nil, log, testClock(), time.Friday)
	ctx := context.Background()

	_, err := svc.Apply(ctx, uuid.New(), "2025-09-08", model.Patch{model.FieldStatus: "ON_DUTY"})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, uuid.New(), "2025-09-09", model.Patch{model.FieldStatus: "LEAVE"})
	require.NoError(t, err)

	ch, cancel := broker.Subscribe()
	defer cancel()

	n, err := svc.BulkClear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Empty(t, repo.rows)

	select {
	case ev := <-ch:
		assert.Equal(t, model.EventBulkUpdate, ev.Name)
	case <-time.After(time.Second):
		t.Fatal("no bulk event received")
	}
}

func TestHydrateForDate(t *testing.T) {
	repo := newMemScheduleRepo()
	doc := model.Doctor{
		Base:        model.Base{ID: uuid.New()},
		Name:        "Dr. Asish Rajak",
		Designation: "Consultant",
		StartTime:   "09:00",
	}
	doctors := &memDoctorRepo{doctors: []model.Doctor{doc}}
	svc := newTestService(repo, doctors, nil)
	ctx := context.Background()

	// No stored entry: baselines plus the pending default.
	days, err := svc.HydrateForDate(ctx, "2025-09-08")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, model.StatusPending, days[0].Schedule[model.FieldStatus])
	assert.Equal(t, "Consultant", days[0].Schedule[model.FieldDesignation])
	assert.Equal(t, "09:00", days[0].Schedule[model.FieldStartTime])

	// A stored status overrides the default; untouched baselines remain.
	_, err = svc.Apply(ctx, doc.ID, "2025-09-08", model.Patch{model.FieldStatus: "SICK"})
	require.NoError(t, err)

	days, err = svc.HydrateForDate(ctx, "2025-09-08")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, model.StatusSick, days[0].Schedule[model.FieldStatus])
	assert.Equal(t, "09:00", days[0].Schedule[model.FieldStartTime])
}

func TestFlatten(t *testing.T) {
	repo := newMemScheduleRepo()
	doctors := &memDoctorRepo{}
	closures := &memClosureRepo{closures: map[string]*model.Closure{
		"2025-09-08": {Date: "2025-09-08", Reasons: []string{"public holiday"}},
	}}
	svc := newTestService(repo, doctors, closures)

	// Today is Sunday 2025-09-07; six days reach Friday 2025-09-12.
	views, err := svc.Flatten(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, views, 6)

	assert.Equal(t, "2025-09-07", views[0].Date)
	assert.False(t, views[0].Closed)

	assert.True(t, views[1].Closed)
	assert.Equal(t, []string{"public holiday"}, views[1].Reasons)

	assert.Equal(t, "2025-09-12", views[5].Date)
	assert.True(t, views[5].Closed)
	assert.Empty(t, views[5].Reasons)
}

func TestParseWeekday(t *testing.T) {
	assert.Equal(t, time.Monday, ParseWeekday("monday"))
	assert.Equal(t, time.Saturday, ParseWeekday(" Saturday "))
	assert.Equal(t, time.Friday, ParseWeekday(""))
	assert.Equal(t, time.Friday, ParseWeekday("someday"))
}
