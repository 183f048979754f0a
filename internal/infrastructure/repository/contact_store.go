package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
)

// ContactStore is the bulk path against the contacts table. Inserts go
// through COPY, updates through a single batched round-trip, both scoped to
// the owning account's natural keys.
type ContactStore struct {
	pool *pgxpool.Pool
}

func NewContactStore(pool *pgxpool.Pool) *ContactStore {
	return &ContactStore{pool: pool}
}

// ExistingKeys reports which of the given natural keys already exist for the
// account.
func (s *ContactStore) ExistingKeys(ctx context.Context, accountID string, keys []string) (map[string]struct{}, error) {
	if len(keys) == 0 {
		return map[string]struct{}{}, nil
	}

	rows, err := s.pool.Query(ctx,
		"SELECT email FROM contacts WHERE account_id = $1 AND email = ANY($2)",
		accountID, keys)
	if err != nil {
		return nil, fmt.Errorf("query existing keys: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{}, len(keys))
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan existing key: %w", err)
		}
		existing[email] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read existing keys: %w", err)
	}

	return existing, nil
}

func (s *ContactStore) BulkInsert(ctx context.Context, jobID string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	contactRows := make([][]any, 0, len(records))
	for _, rec := range records {
		contactRows = append(contactRows, []any{
			rec.AccountID, jobID, rec.Name, rec.Key(), rec.Phone, rec.Address,
		})
	}

	if _, err := s.pool.CopyFrom(
		ctx,
		pgx.Identifier{"contacts"},
		[]string{"account_id", "job_id", "name", "email", "phone", "address"},
		pgx.CopyFromRows(contactRows),
	); err != nil {
		return fmt.Errorf("copy contacts: %w", err)
	}
	return nil
}

// BulkUpdate applies one update per record keyed by (account, email) in a
// single batched round-trip.
func (s *ContactStore) BulkUpdate(ctx context.Context, jobID string, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
UPDATE contacts
SET name = $1, phone = $2, address = $3, job_id = $4, updated_at = NOW()
WHERE account_id = $5 AND email = $6
`, rec.Name, rec.Phone, rec.Address, jobID, rec.AccountID, rec.Key())
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("bulk update contacts: %w", err)
		}
	}
	return nil
}

// Stats counts a job's outcome rows. The job's declared record total lives
// on the job row itself; summing outcome rows would drift from it mid-run.
func (s *ContactStore) Stats(ctx context.Context, jobID string) (domain.JobStats, error) {
	var stats domain.JobStats
	err := s.pool.QueryRow(ctx, `
SELECT
  (SELECT COUNT(*) FROM contacts WHERE job_id = $1),
  (SELECT COUNT(*) FROM contact_error_logs WHERE job_id = $1 AND error_type = $2),
  (SELECT COUNT(*) FROM contact_error_logs WHERE job_id = $1 AND error_type = $3)
`, jobID, string(domain.ErrorTypeValidation), string(domain.ErrorTypeDuplicate)).
		Scan(&stats.SuccessContacts, &stats.FailedContacts, &stats.SkippedContacts)
	if err != nil {
		return domain.JobStats{}, fmt.Errorf("aggregate job stats: %w", err)
	}

	stats.JobID = jobID
	return stats, nil
}

// DetailRows merges a job's applied contacts with its error-log rows into a
// single paginated outcome view, oldest first.
func (s *ContactStore) DetailRows(ctx context.Context, accountID, jobID string, page, limit int) ([]domain.RecordOutcome, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	const baseQuery = `
SELECT name, email, phone, address, 'success' AS status, '' AS error_type, '' AS detail, created_at
FROM contacts
WHERE account_id = $1 AND job_id = $2
UNION ALL
SELECT name, email, phone, address, 'fail', error_type, error_detail, created_at
FROM contact_error_logs
WHERE account_id = $1 AND job_id = $2
`

	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM ("+baseQuery+") merged", accountID, jobID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count detail rows: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		baseQuery+"ORDER BY created_at ASC LIMIT $3 OFFSET $4",
		accountID, jobID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query detail rows: %w", err)
	}
	defer rows.Close()

	outcomes := make([]domain.RecordOutcome, 0, limit)
	for rows.Next() {
		var out domain.RecordOutcome
		var errType string
		if err := rows.Scan(&out.Name, &out.Email, &out.Phone, &out.Address,
			&out.Status, &errType, &out.Detail, &out.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan detail row: %w", err)
		}
		out.ErrorType = domain.ErrorType(errType)
		outcomes = append(outcomes, out)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("read detail rows: %w", err)
	}

	return outcomes, total, nil
}
