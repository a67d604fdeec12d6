package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/opd-scheduler/internal/model"
	"github.com/jwalitptl/opd-scheduler/internal/repository"
)

type doctorRepository struct {
	*BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{
		BaseRepository: &base,
	}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	if doctor.ID == uuid.Nil {
		doctor.ID = uuid.New()
	}
	now := time.Now().UTC()
	doctor.CreatedAt = now
	doctor.UpdatedAt = now

	query := `
		INSERT INTO doctors (id, name, specialty, designation, start_time, keywords, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.GetDB().ExecContext(ctx, query,
		doctor.ID, doctor.Name, doctor.Specialty, doctor.Designation,
		doctor.StartTime, doctor.Keywords, doctor.CreatedAt, doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE id = $1`
	var doctor model.Doctor
	if err := r.GetDB().GetContext(ctx, &doctor, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	doctor.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE doctors
		SET name = $2, specialty = $3, designation = $4, start_time = $5,
		    keywords = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.GetDB().ExecContext(ctx, query,
		doctor.ID, doctor.Name, doctor.Specialty, doctor.Designation,
		doctor.StartTime, doctor.Keywords, doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE doctor_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete schedule entries: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete doctor: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

func (r *doctorRepository) List(ctx context.Context) ([]model.Doctor, error) {
	query := `SELECT * FROM doctors ORDER BY name`
	var doctors []model.Doctor
	if err := r.GetDB().SelectContext(ctx, &doctors, query); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
