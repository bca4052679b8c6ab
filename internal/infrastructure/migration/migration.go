package migration

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"cvgenius/internal/log"
)

var logger = log.GetLogger()

// Migration represents one startup schema migration.
type Migration struct {
	Name string
	Up   func(ctx context.Context, pool *pgxpool.Pool) error
}

// RunMigrations brings the schema up to date. A nil pool means persistence
// is disabled and there is nothing to migrate.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return nil
	}

	migrations := []Migration{
		{Name: "create_generation_records", Up: createGenerationRecords},
		{Name: "index_generation_records_completed_at", Up: indexGenerationRecordsCompletedAt},
	}

	for _, m := range migrations {
		if err := m.Up(ctx, pool); err != nil {
			logger.WithField("name", m.Name).WithError(err).Error("migration failed")
			return err
		}
		logger.WithField("name", m.Name).Info("migration completed")
	}
	return nil
}

func createGenerationRecords(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS generation_records (
			task_id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			company_name TEXT NOT NULL DEFAULT '',
			job_title TEXT NOT NULL DEFAULT '',
			filename_cv TEXT NOT NULL DEFAULT '',
			filename_cover_letter TEXT NOT NULL DEFAULT '',
			completed_at TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

func indexGenerationRecordsCompletedAt(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS generation_records_completed_at_idx
		ON generation_records (completed_at DESC);
	`)
	return err
}
