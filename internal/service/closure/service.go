package closure

import (
	"context"
	"fmt"
	"sync"

	"github.com/jwalitptl/opd-scheduler/internal/email"
	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/internal/repository"
	"github.com/jwalitptl/opd-scheduler/pkg/event"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
	"github.com/jwalitptl/opd-scheduler/pkg/metrics"
)

// Service records institution-wide closure days. Reasons are append-only
// and deduplicated by exact string.
type Service struct {
	mu sync.Mutex

	repo    repository.ClosureRepository
	events  *event.Broker
	mailer  email.Service
	metrics *metrics.Metrics
	log     *logger.Logger
}

func NewService(
	repo repository.ClosureRepository,
	events *event.Broker,
	mailer email.Service,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:    repo,
		events:  events,
		mailer:  mailer,
		metrics: m,
		log:     log,
	}
}

// Apply records one closure reason for a date. Returns whether the reason
// was new; an exact duplicate is a no-op.
func (s *Service) Apply(ctx context.Context, dateISO, reason string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	closure, err := s.repo.Get(ctx, dateISO)
	if err != nil {
		return false, fmt.Errorf("failed to read closure: %w", err)
	}
	if closure == nil {
		closure = &model.Closure{Date: dateISO}
	}
	for _, existing := range closure.Reasons {
		if existing == reason {
			return false, nil
		}
	}
	closure.Reasons = append(closure.Reasons, reason)
	if err := s.repo.Upsert(ctx, closure); err != nil {
		return false, fmt.Errorf("failed to store closure: %w", err)
	}

	if s.events != nil {
		s.events.Publish(model.EventClosureUpdate, model.ClosureUpdateEvent{
			Date:   dateISO,
			Reason: reason,
		})
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(model.EventClosureUpdate).Inc()
	}
	if s.mailer != nil {
		if err := s.mailer.SendClosureAlert(ctx, dateISO, reason); err != nil {
			s.log.Error(err, "closure alert mail failed", "date", dateISO)
		}
	}
	s.log.Info("closure recorded", "date", dateISO, "reasons", len(closure.Reasons))
	return true, nil
}

// Get returns the closure for one date, nil when the date is open.
func (s *Service) Get(ctx context.Context, dateISO string) (*model.Closure, error) {
	return s.repo.Get(ctx, dateISO)
}

// List returns every recorded closure, ordered by date.
func (s *Service) List(ctx context.Context) ([]model.Closure, error) {
	return s.repo.List(ctx)
}
