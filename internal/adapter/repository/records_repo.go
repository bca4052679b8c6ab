package repository

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"cvgenius/internal/domain"
)

// RecordsRepo persists completed generation records for later listing. A nil
// pool disables persistence; every method degrades to a no-op so the service
// keeps working without a database.
type RecordsRepo struct {
	pool *pgxpool.Pool
}

func NewRecordsRepo(pool *pgxpool.Pool) *RecordsRepo {
	return &RecordsRepo{pool: pool}
}

func (r *RecordsRepo) Save(ctx context.Context, rec *domain.GenerationRecord) error {
	if r.pool == nil {
		return nil
	}

	_, err := r.pool.Exec(ctx, `INSERT INTO generation_records (task_id, kind, status, company_name, job_title, filename_cv, filename_cover_letter, completed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (task_id) DO UPDATE SET status = EXCLUDED.status, company_name = EXCLUDED.company_name, job_title = EXCLUDED.job_title, filename_cv = EXCLUDED.filename_cv, filename_cover_letter = EXCLUDED.filename_cover_letter, completed_at = EXCLUDED.completed_at`,
		rec.TaskID, rec.Kind, rec.Status, rec.CompanyName, rec.JobTitle, rec.FilenameCV, rec.FilenameCoverLetter, rec.CompletedAt)
	return err
}

// Recent returns the latest completed records, newest first.
func (r *RecordsRepo) Recent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	if r.pool == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.pool.Query(ctx, `SELECT task_id, kind, status, company_name, job_title, filename_cv, filename_cover_letter, completed_at
		FROM generation_records ORDER BY completed_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GenerationRecord
	for rows.Next() {
		var rec domain.GenerationRecord
		if err := rows.Scan(&rec.TaskID, &rec.Kind, &rec.Status, &rec.CompanyName, &rec.JobTitle, &rec.FilenameCV, &rec.FilenameCoverLetter, &rec.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
