package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/opd-scheduler/internal/model"
)

// All repository interfaces in one file
type (
	// DoctorRepository handles directory records.
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]model.Doctor, error)
	}

	// ScheduleRepository stores one JSONB entry per (doctor, date).
	ScheduleRepository interface {
		GetEntry(ctx context.Context, doctorID uuid.UUID, dateISO string) (model.DayEntry, error)
		UpsertEntry(ctx context.Context, doctorID uuid.UUID, dateISO string, entry model.DayEntry) error
		DeleteEntry(ctx context.Context, doctorID uuid.UUID, dateISO string) error
		ListForDate(ctx context.Context, dateISO string) ([]model.ScheduleEntry, error)
		ListRange(ctx context.Context, fromISO, toISO string) ([]model.ScheduleEntry, error)
		DeleteAll(ctx context.Context) (int64, error)
	}

	// ClosureRepository stores institution-wide closure days.
	ClosureRepository interface {
		Get(ctx context.Context, dateISO string) (*model.Closure, error)
		Upsert(ctx context.Context, closure *model.Closure) error
		List(ctx context.Context) ([]model.Closure, error)
	}

	// UserRepository handles portal accounts.
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByUsername(ctx context.Context, username string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		List(ctx context.Context) ([]model.User, error)
	}
)
