package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/internal/repository"
)

type scheduleRepository struct {
	*BaseRepository
}

func NewScheduleRepository(base BaseRepository) repository.ScheduleRepository {
	return &scheduleRepository{
		BaseRepository: &base,
	}
}

func (r *scheduleRepository) GetEntry(ctx context.Context, doctorID uuid.UUID, dateISO string) (model.DayEntry, error) {
	query := `SELECT entry FROM schedule_entries WHERE doctor_id = $1 AND for_date = $2`
	var entry model.DayEntry
	if err := r.GetDB().GetContext(ctx, &entry, query, doctorID, dateISO); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get schedule entry: %w", err)
	}
	return entry, nil
}

func (r *scheduleRepository) UpsertEntry(ctx context.Context, doctorID uuid.UUID, dateISO string, entry model.DayEntry) error {
	query := `
		INSERT INTO schedule_entries (doctor_id, for_date, entry, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (doctor_id, for_date)
		DO UPDATE SET entry = EXCLUDED.entry, updated_at = EXCLUDED.updated_at
	`
	_, err := r.GetDB().ExecContext(ctx, query, doctorID, dateISO, entry, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert schedule entry: %w", err)
	}
	return nil
}

func (r *scheduleRepository) DeleteEntry(ctx context.Context, doctorID uuid.UUID, dateISO string) error {
	query := `DELETE FROM schedule_entries WHERE doctor_id = $1 AND for_date = $2`
	if _, err := r.GetDB().ExecContext(ctx, query, doctorID, dateISO); err != nil {
		return fmt.Errorf("failed to delete schedule entry: %w", err)
	}
	return nil
}

func (r *scheduleRepository) ListForDate(ctx context.Context, dateISO string) ([]model.ScheduleEntry, error) {
	query := `SELECT doctor_id, for_date, entry FROM schedule_entries WHERE for_date = $1`
	var entries []model.ScheduleEntry
	if err := r.GetDB().SelectContext(ctx, &entries, query, dateISO); err != nil {
		return nil, fmt.Errorf("failed to list schedule entries: %w", err)
	}
	return entries, nil
}

func (r *scheduleRepository) ListRange(ctx context.Context, fromISO, toISO string) ([]model.ScheduleEntry, error) {
	query := `
		SELECT doctor_id, for_date, entry FROM schedule_entries
		WHERE for_date >= $1 AND for_date <= $2
		ORDER BY for_date
	`
	var entries []model.ScheduleEntry
	if err := r.GetDB().SelectContext(ctx, &entries, query, fromISO, toISO); err != nil {
		return nil, fmt.Errorf("failed to list schedule range: %w", err)
	}
	return entries, nil
}

func (r *scheduleRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.GetDB().ExecContext(ctx, `DELETE FROM schedule_entries`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear schedule entries: %w", err)
	}
	return result.RowsAffected()
}
