package store

import (
	"database/sql"
	"errors"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
)

// GetConfiguration returns the row for key, or (zero, false) if absent.
func GetConfiguration(db *sql.DB, key string) (model.Configuration, bool, error) {
	var c model.Configuration
	row := db.QueryRow(`SELECT key, value, category, description FROM configurations WHERE key = ?`, key)
	err := row.Scan(&c.Key, &c.Value, &c.Category, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Configuration{}, false, nil
	}
	if err != nil {
		return model.Configuration{}, false, err
	}
	return c, true, nil
}

// UpsertConfiguration is a full upsert on key.
func UpsertConfiguration(db *sql.DB, c model.Configuration) error {
	_, err := db.Exec(`
INSERT INTO configurations (key, value, category, description)
VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, category = excluded.category, description = excluded.description
`, c.Key, c.Value, c.Category, c.Description)
	return err
}

// SeedConfigurationIfAbsent inserts c only if its key is not already
// present, and never overwrites an existing value — the bootstrap contract.
func SeedConfigurationIfAbsent(db *sql.DB, c model.Configuration) error {
	_, err := db.Exec(`
INSERT INTO configurations (key, value, category, description)
VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO NOTHING
`, c.Key, c.Value, c.Category, c.Description)
	return err
}

// ListConfigurations returns every row, ordered by key for stable display.
func ListConfigurations(db *sql.DB) ([]model.Configuration, error) {
	rows, err := db.Query(`SELECT key, value, category, description FROM configurations ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Configuration
	for rows.Next() {
		var c model.Configuration
		if err := rows.Scan(&c.Key, &c.Value, &c.Category, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
