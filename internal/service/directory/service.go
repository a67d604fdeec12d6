package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/internal/repository"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
)

const (
	snapshotKey     = "doctors"
	snapshotTTL     = 30 * time.Second
	snapshotCleanup = time.Minute
)

// Service manages the doctor directory. Snapshot reads go through a short
// cache since the matcher pulls the full roster on every inbound message.
type Service struct {
	repo  repository.DoctorRepository
	cache *gocache.Cache
	log   *logger.Logger
}

func NewService(repo repository.DoctorRepository, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: gocache.New(snapshotTTL, snapshotCleanup),
		log:   log,
	}
}

// Snapshot returns the roster, served from cache when fresh.
func (s *Service) Snapshot(ctx context.Context) ([]model.Doctor, error) {
	if cached, ok := s.cache.Get(snapshotKey); ok {
		return cached.([]model.Doctor), nil
	}
	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	s.cache.SetDefault(snapshotKey, doctors)
	return doctors, nil
}

func (s *Service) Create(ctx context.Context, doctor *model.Doctor) error {
	if doctor.Name == "" {
		return fmt.Errorf("doctor name is required")
	}
	if err := s.repo.Create(ctx, doctor); err != nil {
		return err
	}
	s.cache.Delete(snapshotKey)
	s.log.Info("doctor created", "id", doctor.ID, "name", doctor.Name)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, doctor *model.Doctor) error {
	if err := s.repo.Update(ctx, doctor); err != nil {
		return err
	}
	s.cache.Delete(snapshotKey)
	return nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(snapshotKey)
	s.log.Info("doctor deleted", "id", id)
	return nil
}

func (s *Service) List(ctx context.Context) ([]model.Doctor, error) {
	return s.repo.List(ctx)
}
