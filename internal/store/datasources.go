package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
)

func scanDataSource(scanner interface {
	Scan(dest ...any) error
}) (model.FileDataSource, error) {
	var d model.FileDataSource
	var isEnabled, needsRefresh int
	var createdAt string
	err := scanner.Scan(&d.ID, &d.Name, &d.FolderPath, &d.ArchiveFolderPath, &d.FilePattern, &isEnabled, &needsRefresh, &createdAt)
	if err != nil {
		return model.FileDataSource{}, err
	}
	d.IsEnabled = isEnabled != 0
	d.NeedsRefresh = needsRefresh != 0
	d.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return d, nil
}

const dataSourceColumns = `id, name, folder_path, archive_folder_path, file_pattern, is_enabled, needs_refresh, created_at`

// ListDataSources returns every row ordered by name ascending, so
// reconciliation diffs are stable.
func ListDataSources(db *sql.DB) ([]model.FileDataSource, error) {
	rows, err := db.Query(`SELECT ` + dataSourceColumns + ` FROM file_data_sources ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FileDataSource
	for rows.Next() {
		d, err := scanDataSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDataSourceByName returns the row named name, or (zero, false).
func GetDataSourceByName(db *sql.DB, name string) (model.FileDataSource, bool, error) {
	row := db.QueryRow(`SELECT `+dataSourceColumns+` FROM file_data_sources WHERE name = ?`, name)
	d, err := scanDataSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.FileDataSource{}, false, nil
	}
	if err != nil {
		return model.FileDataSource{}, false, err
	}
	return d, true, nil
}

// CreateDataSource inserts a new row; name must be unique.
func CreateDataSource(db *sql.DB, d model.FileDataSource) (int64, error) {
	res, err := db.Exec(`
INSERT INTO file_data_sources (name, folder_path, archive_folder_path, file_pattern, is_enabled, needs_refresh)
VALUES (?, ?, ?, ?, ?, 0)
`, d.Name, d.FolderPath, d.ArchiveFolderPath, d.FilePattern, boolToInt(d.IsEnabled))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateDataSource overwrites the mutable fields of the row named d.Name.
func UpdateDataSource(db *sql.DB, d model.FileDataSource) error {
	_, err := db.Exec(`
UPDATE file_data_sources
SET folder_path = ?, archive_folder_path = ?, file_pattern = ?, is_enabled = ?, needs_refresh = ?
WHERE name = ?
`, d.FolderPath, d.ArchiveFolderPath, d.FilePattern, boolToInt(d.IsEnabled), boolToInt(d.NeedsRefresh), d.Name)
	return err
}

// SetNeedsRefresh flips the needsRefresh flag for name.
func SetNeedsRefresh(db *sql.DB, name string, needsRefresh bool) error {
	_, err := db.Exec(`UPDATE file_data_sources SET needs_refresh = ? WHERE name = ?`, boolToInt(needsRefresh), name)
	return err
}

// SetEnabled flips the isEnabled flag for name.
func SetEnabled(db *sql.DB, name string, enabled bool) error {
	_, err := db.Exec(`UPDATE file_data_sources SET is_enabled = ? WHERE name = ?`, boolToInt(enabled), name)
	return err
}

// ClearNeedsRefresh is the specialized operation the supervisor calls after
// acting on a refresh request.
func ClearNeedsRefresh(db *sql.DB, name string) error {
	return SetNeedsRefresh(db, name, false)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
