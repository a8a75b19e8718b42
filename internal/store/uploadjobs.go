package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
)

const uploadJobColumns = `id, data_source_name, local_path, target_container, target_object_name, size_bytes, state, attempts, last_error, correlation_id, next_attempt_at, created_at, updated_at`

const sqliteLayout = "2006-01-02 15:04:05"

func scanUploadJob(scanner interface {
	Scan(dest ...any) error
}) (model.UploadJob, error) {
	var j model.UploadJob
	var state, nextAttemptAt, createdAt, updatedAt string
	err := scanner.Scan(
		&j.ID, &j.DataSourceName, &j.LocalPath, &j.TargetContainer, &j.TargetObjectName,
		&j.SizeBytes, &state, &j.Attempts, &j.LastError, &j.CorrelationID,
		&nextAttemptAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.UploadJob{}, err
	}
	j.State = model.JobState(state)
	j.NextAttemptAt, _ = time.Parse(sqliteLayout, nextAttemptAt)
	j.CreatedAt, _ = time.Parse(sqliteLayout, createdAt)
	j.UpdatedAt, _ = time.Parse(sqliteLayout, updatedAt)
	return j, nil
}

// EnqueueJob inserts a new Pending row with attempts=0 and
// nextAttemptAt=now. Enqueuing the same (dataSourceName, localPath) while a
// Pending/InFlight row already exists for it is rejected by the unique
// partial index — callers should treat a conflict as "already enqueued",
// not an error worth surfacing.
func EnqueueJob(db *sql.DB, j model.UploadJob) (int64, error) {
	res, err := db.Exec(`
INSERT INTO upload_jobs (data_source_name, local_path, target_container, target_object_name, size_bytes, state, attempts, last_error, correlation_id, next_attempt_at)
VALUES (?, ?, ?, ?, ?, ?, 0, '', ?, CURRENT_TIMESTAMP)
`, j.DataSourceName, j.LocalPath, j.TargetContainer, j.TargetObjectName, j.SizeBytes, string(model.JobPending), j.CorrelationID)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// HasActiveJobForPath reports whether a Pending, InFlight, or Succeeded row
// already references localPath for the given data source — used by the
// watcher's cold-start scan to avoid re-enqueuing files already handled.
func HasActiveJobForPath(db *sql.DB, dataSourceName, localPath string) (bool, error) {
	var n int
	err := db.QueryRow(`
SELECT COUNT(*) FROM upload_jobs
WHERE data_source_name = ? AND local_path = ? AND state IN (?, ?, ?)
`, dataSourceName, localPath, string(model.JobPending), string(model.JobInFlight), string(model.JobSucceeded)).Scan(&n)
	return n > 0, err
}

// FetchClaimableBatch selects up to limit Pending rows eligible now, ordered
// by nextAttemptAt ascending then id ascending — best-effort FIFO.
func FetchClaimableBatch(db *sql.DB, limit int) ([]model.UploadJob, error) {
	rows, err := db.Query(`
SELECT `+uploadJobColumns+`
FROM upload_jobs
WHERE state = ? AND next_attempt_at <= strftime('%Y-%m-%d %H:%M:%f', 'now')
ORDER BY next_attempt_at ASC, id ASC
LIMIT ?
`, string(model.JobPending), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UploadJob
	for rows.Next() {
		j, err := scanUploadJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// ClaimPending performs the compare-and-swap Pending -> InFlight for one
// row. Returns false if another processor run already claimed it.
func ClaimPending(db *sql.DB, id int64) (bool, error) {
	res, err := db.Exec(`
UPDATE upload_jobs
SET state = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND state = ?
`, string(model.JobInFlight), id, string(model.JobPending))
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

// ReclaimStaleInFlight resets any InFlight row whose updated_at is older
// than olderThan back to Pending with lastError="reclaimed" — crash
// recovery. Returns the count of rows reclaimed.
func ReclaimStaleInFlight(db *sql.DB, olderThan time.Time) (int64, error) {
	res, err := db.Exec(`
UPDATE upload_jobs
SET state = ?, last_error = 'reclaimed', updated_at = CURRENT_TIMESTAMP
WHERE state = ? AND updated_at < ?
`, string(model.JobPending), string(model.JobInFlight), olderThan.UTC().Format(sqliteLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkSucceeded transitions id from InFlight to the terminal Succeeded
// state and clears lastError.
func MarkSucceeded(db *sql.DB, id int64) error {
	res, err := db.Exec(`
UPDATE upload_jobs
SET state = ?, last_error = '', updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND state = ?
`, string(model.JobSucceeded), id, string(model.JobInFlight))
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n != 1 {
		return fmt.Errorf("mark succeeded: job=%d not in InFlight", id)
	}
	return nil
}

// MarkFailedPermanent transitions id directly to Failed.
func MarkFailedPermanent(db *sql.DB, id int64, cause string) error {
	_, err := db.Exec(`
UPDATE upload_jobs
SET state = ?, last_error = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, string(model.JobFailed), truncate(cause, 2000), id)
	return err
}

// MarkTransientRetry increments attempts and either transitions to Failed
// (attempts >= maxRetries) or back to Pending with the given nextAttemptAt.
func MarkTransientRetry(db *sql.DB, id int64, attempts int, maxRetries int, nextAttemptAt time.Time, cause string) error {
	state := model.JobPending
	if attempts >= maxRetries {
		state = model.JobFailed
	}
	_, err := db.Exec(`
UPDATE upload_jobs
SET state = ?, attempts = ?, last_error = ?, next_attempt_at = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, string(state), attempts, truncate(cause, 2000), nextAttemptAt.UTC().Format("2006-01-02 15:04:05.000000000"), id)
	return err
}

// ResetJob resets a Failed (or any) row to Pending/attempts=0/now, the
// operator "retry" action.
func ResetJob(db *sql.DB, id int64) error {
	_, err := db.Exec(`
UPDATE upload_jobs
SET state = ?, attempts = 0, last_error = '', next_attempt_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`, string(model.JobPending), id)
	return err
}

// ListJobs returns jobs filtered by state; an empty state lists all.
func ListJobs(db *sql.DB, state model.JobState) ([]model.UploadJob, error) {
	q := `SELECT ` + uploadJobColumns + ` FROM upload_jobs`
	args := []any{}
	if state != "" {
		q += ` WHERE state = ?`
		args = append(args, string(state))
	}
	q += ` ORDER BY id ASC`

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.UploadJob
	for rows.Next() {
		j, err := scanUploadJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
