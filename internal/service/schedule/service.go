package schedule

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/internal/parser"
	"github.com/jwalitptl/opd-scheduler/internal/repository"
	"github.com/jwalitptl/opd-scheduler/pkg/event"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
	"github.com/jwalitptl/opd-scheduler/pkg/messaging"
	"github.com/jwalitptl/opd-scheduler/pkg/metrics"
)

const rejectWeekday = "closure_weekday"

// Service owns the per-date schedule entries. One mutex serializes every
// read-merge-write cycle so concurrent patches never interleave.
type Service struct {
	mu sync.Mutex

	repo     repository.ScheduleRepository
	doctors  repository.DoctorRepository
	closures repository.ClosureRepository

	events  *event.Broker
	relay   messaging.Broker
	metrics *metrics.Metrics
	log     *logger.Logger

	clock          parser.Clock
	closureWeekday time.Weekday
}

func NewService(
	repo repository.ScheduleRepository,
	doctors repository.DoctorRepository,
	closures repository.ClosureRepository,
	events *event.Broker,
	relay messaging.Broker,
	m *metrics.Metrics,
	log *logger.Logger,
	clock parser.Clock,
	closureWeekday time.Weekday,
) *Service {
	return &Service{
		repo:           repo,
		doctors:        doctors,
		closures:       closures,
		events:         events,
		relay:          relay,
		metrics:        m,
		log:            log,
		clock:          clock,
		closureWeekday: closureWeekday,
	}
}

// Apply merges a patch into one doctor's entry for one date. Returns
// whether stored state changed. Patches for the weekly closure day are
// rejected outright; unknown fields are dropped; a nil or empty-string
// value deletes the key; last_update is stamped only on real change.
func (s *Service) Apply(ctx context.Context, doctorID uuid.UUID, dateISO string, patch model.Patch) (bool, error) {
	day, err := time.Parse("2006-01-02", dateISO)
	if err != nil {
		return false, fmt.Errorf("invalid date %q: %w", dateISO, err)
	}
	if day.Weekday() == s.closureWeekday {
		if s.metrics != nil {
			s.metrics.PatchesRejected.WithLabelValues(rejectWeekday).Inc()
		}
		s.log.Debug("patch rejected, weekly closure day", "date", dateISO)
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.repo.GetEntry(ctx, doctorID, dateISO)
	if err != nil {
		return false, fmt.Errorf("failed to read entry: %w", err)
	}
	entry := stored.Clone()
	if entry == nil {
		entry = model.DayEntry{}
	}

	changed := false
	for field, value := range patch {
		if !model.PerDateFields[field] {
			continue
		}
		if isEmptyValue(value) {
			if _, ok := entry[field]; ok {
				delete(entry, field)
				changed = true
			}
			continue
		}
		canon := model.CanonicalizeField(field, normalizeValue(field, value))
		if old, ok := entry[field]; ok && reflect.DeepEqual(old, canon) {
			continue
		}
		entry[field] = canon
		changed = true
	}

	if !changed {
		if s.metrics != nil {
			s.metrics.PatchesNoChange.Inc()
		}
		return false, nil
	}

	entry[model.FieldLastUpdate] = time.Now().UTC().Format(time.RFC3339)
	if err := s.repo.UpsertEntry(ctx, doctorID, dateISO, entry); err != nil {
		return false, fmt.Errorf("failed to store entry: %w", err)
	}
	if s.metrics != nil {
		s.metrics.PatchesApplied.Inc()
	}
	s.notifyDoctor(ctx, doctorID, dateISO)
	return true, nil
}

// ClearDate removes a doctor's entry for one date entirely.
func (s *Service) ClearDate(ctx context.Context, doctorID uuid.UUID, dateISO string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteEntry(ctx, doctorID, dateISO); err != nil {
		return fmt.Errorf("failed to clear date: %w", err)
	}
	s.notifyDoctor(ctx, doctorID, dateISO)
	return nil
}

// RemoveField drops a single per-date field, reverting that aspect to the
// doctor's baseline.
func (s *Service) RemoveField(ctx context.Context, doctorID uuid.UUID, dateISO string, field model.Field) (bool, error) {
	if !model.PerDateFields[field] {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, err := s.repo.GetEntry(ctx, doctorID, dateISO)
	if err != nil {
		return false, fmt.Errorf("failed to read entry: %w", err)
	}
	if _, ok := entry[field]; !ok {
		return false, nil
	}
	delete(entry, field)
	entry[model.FieldLastUpdate] = time.Now().UTC().Format(time.RFC3339)
	if err := s.repo.UpsertEntry(ctx, doctorID, dateISO, entry); err != nil {
		return false, fmt.Errorf("failed to store entry: %w", err)
	}
	s.notifyDoctor(ctx, doctorID, dateISO)
	return true, nil
}

// BulkClear wipes every stored entry and announces a bulk change.
func (s *Service) BulkClear(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk clear: %w", err)
	}
	s.publish(ctx, model.EventBulkUpdate, model.BulkUpdateEvent{Bulk: true})
	s.log.Info("schedule bulk cleared", "entries", n)
	return n, nil
}

// HydrateForDate merges each doctor with their stored entry for a date,
// falling back to directory baselines and a PENDING status.
func (s *Service) HydrateForDate(ctx context.Context, dateISO string) ([]model.DoctorDay, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	entries, err := s.repo.ListForDate(ctx, dateISO)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	byDoctor := make(map[uuid.UUID]model.DayEntry, len(entries))
	for _, e := range entries {
		byDoctor[e.DoctorID] = e.Entry
	}

	out := make([]model.DoctorDay, 0, len(doctors))
	for _, doc := range doctors {
		out = append(out, model.DoctorDay{
			Doctor:   doc,
			ForDate:  dateISO,
			Schedule: hydrate(doc, byDoctor[doc.ID]),
		})
	}
	return out, nil
}

// DayView is one day of the flattened upcoming-schedule window.
type DayView struct {
	Date    string            `json:"date"`
	Closed  bool              `json:"closed"`
	Reasons []string          `json:"reasons,omitempty"`
	Doctors []model.DoctorDay `json:"doctors"`
}

// Flatten builds the upcoming window starting today: one DayView per day,
// closure days flagged with their recorded reasons.
func (s *Service) Flatten(ctx context.Context, days int) ([]DayView, error) {
	if days <= 0 {
		days = 1
	}
	start, err := time.Parse("2006-01-02", s.clock.TodayISO())
	if err != nil {
		return nil, err
	}

	out := make([]DayView, 0, days)
	for i := 0; i < days; i++ {
		dateISO := start.AddDate(0, 0, i).Format("2006-01-02")
		view := DayView{Date: dateISO}

		closure, err := s.closures.Get(ctx, dateISO)
		if err != nil {
			return nil, err
		}
		if closure != nil {
			view.Closed = true
			view.Reasons = closure.Reasons
		}
		if start.AddDate(0, 0, i).Weekday() == s.closureWeekday {
			view.Closed = true
		}

		view.Doctors, err = s.HydrateForDate(ctx, dateISO)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// Entry returns the raw stored entry for one (doctor, date), nil when
// absent.
func (s *Service) Entry(ctx context.Context, doctorID uuid.UUID, dateISO string) (model.DayEntry, error) {
	return s.repo.GetEntry(ctx, doctorID, dateISO)
}

func (s *Service) notifyDoctor(ctx context.Context, doctorID uuid.UUID, dateISO string) {
	s.publish(ctx, model.EventDoctorUpdate, model.DoctorUpdateEvent{
		DoctorID: doctorID,
		Date:     dateISO,
	})
}

func (s *Service) publish(ctx context.Context, name string, payload interface{}) {
	if s.events != nil {
		s.events.Publish(name, payload)
	}
	if s.relay != nil {
		if err := s.relay.Publish(ctx, name, messaging.Message{Type: name, Payload: payload}); err != nil {
			s.log.Error(err, "relay publish failed", "event", name)
		}
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(name).Inc()
	}
}

// hydrate overlays the stored entry on the doctor's baseline fields.
func hydrate(doc model.Doctor, entry model.DayEntry) model.DayEntry {
	merged := entry.Clone()
	if merged == nil {
		merged = model.DayEntry{}
	}
	if _, ok := merged[model.FieldDesignation]; !ok && doc.Designation != "" {
		merged[model.FieldDesignation] = doc.Designation
	}
	if _, ok := merged[model.FieldStartTime]; !ok && doc.StartTime != "" {
		merged[model.FieldStartTime] = doc.StartTime
	}
	if _, ok := merged[model.FieldStatus]; !ok {
		merged[model.FieldStatus] = model.StatusPending
	}
	return merged
}

// isEmptyValue implements the delete-on-empty patch rule.
func isEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// normalizeValue applies field-specific cleanup before comparison.
func normalizeValue(field model.Field, v interface{}) interface{} {
	switch field {
	case model.FieldStatus:
		if s, ok := v.(string); ok {
			return strings.ToUpper(strings.TrimSpace(s))
		}
	case model.FieldStatusReason, model.FieldStartTime, model.FieldRoom,
		model.FieldDesignation, model.FieldAfterBreakNote:
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return v
}

// ParseWeekday maps a config weekday name to time.Weekday, defaulting to
// Friday on anything unrecognized.
func ParseWeekday(name string) time.Weekday {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sunday":
		return time.Sunday
	case "monday":
		return time.Monday
	case "tuesday":
		return time.Tuesday
	case "wednesday":
		return time.Wednesday
	case "thursday":
		return time.Thursday
	case "saturday":
		return time.Saturday
	default:
		return time.Friday
	}
}
