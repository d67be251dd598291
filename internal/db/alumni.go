package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ErrStoreUnavailable marks lookups that failed even after the bounded retry.
var ErrStoreUnavailable = errors.New("alumni store unavailable")

type AlumnusRecord struct {
	ID             int64      `db:"id"`
	FullName       string     `db:"full_name"`
	GraduationYear int        `db:"graduation_year"`
	ClassNumber    int        `db:"class_number"`
	TgUsername     *string    `db:"tg_username"`
	JoinedAt       *time.Time `db:"joined_at"`
	CreatedAt      time.Time  `db:"created_at"`
}

type AlumniRepository struct {
	db     *sqlx.DB
	table  string
	logger *zap.Logger
}

func NewAlumniRepository(db *sqlx.DB, table string, logger *zap.Logger) *AlumniRepository {
	return &AlumniRepository{
		db:     db,
		table:  table,
		logger: logger,
	}
}

// FindByYearClass returns every record for the given graduation year and
// class number. Name filtering is the matcher's job. The query is retried
// once on failure; after that the error surfaces as ErrStoreUnavailable.
func (r *AlumniRepository) FindByYearClass(ctx context.Context, year, class int) ([]AlumnusRecord, error) {
	query := fmt.Sprintf(`
	    SELECT id, full_name, graduation_year, class_number, tg_username, joined_at, created_at
		FROM %s
		WHERE graduation_year = $1 AND class_number = $2
	`, r.table)

	var records []AlumnusRecord

	op := func() error {
		records = records[:0]

		return r.db.SelectContext(ctx, &records, query, year, class)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(500*time.Millisecond), 1),
		ctx,
	)

	if err := backoff.Retry(op, policy); err != nil {
		r.logger.Error("alumni lookup failed",
			zap.Int("year", year),
			zap.Int("class", class),
			zap.Error(err))

		return nil, fmt.Errorf("AlumniRepository.FindByYearClass: %w: %v", ErrStoreUnavailable, err)
	}

	return records, nil
}

// MarkJoined stamps the matched record with the applicant's username and the
// join date once the join request has been approved.
func (r *AlumniRepository) MarkJoined(ctx context.Context, recordID int64, tgUsername string) error {
	query := fmt.Sprintf(`
	    UPDATE %s
		SET tg_username = $1, joined_at = $2
		WHERE id = $3
	`, r.table)

	res, err := r.db.ExecContext(ctx, query, pointer.To(tgUsername), pointer.To(time.Now().UTC()), recordID)
	if err != nil {
		return fmt.Errorf("AlumniRepository.MarkJoined: %w", err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		r.logger.Warn("no record updated on join", zap.Int64("record_id", recordID))
	}

	return nil
}
