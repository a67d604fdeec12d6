package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/internal/repository"
)

type closureRepository struct {
	*BaseRepository
}

func NewClosureRepository(base BaseRepository) repository.ClosureRepository {
	return &closureRepository{
		BaseRepository: &base,
	}
}

type closureRow struct {
	Date    string         `db:"date"`
	Reasons pq.StringArray `db:"reasons"`
}

func (r *closureRepository) Get(ctx context.Context, dateISO string) (*model.Closure, error) {
	query := `SELECT date, reasons FROM closures WHERE date = $1`
	var row closureRow
	if err := r.GetDB().GetContext(ctx, &row, query, dateISO); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get closure: %w", err)
	}
	return &model.Closure{Date: row.Date, Reasons: row.Reasons}, nil
}

func (r *closureRepository) Upsert(ctx context.Context, closure *model.Closure) error {
	query := `
		INSERT INTO closures (date, reasons, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (date)
		DO UPDATE SET reasons = EXCLUDED.reasons, updated_at = EXCLUDED.updated_at
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		closure.Date, pq.StringArray(closure.Reasons), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert closure: %w", err)
	}
	return nil
}

func (r *closureRepository) List(ctx context.Context) ([]model.Closure, error) {
	query := `SELECT date, reasons FROM closures ORDER BY date`
	var rows []closureRow
	if err := r.GetDB().SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list closures: %w", err)
	}
	out := make([]model.Closure, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Closure{Date: row.Date, Reasons: row.Reasons})
	}
	return out, nil
}
