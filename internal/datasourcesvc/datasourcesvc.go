// Package datasourcesvc is CRUD over FileDataSource plus the
// clearNeedsRefresh operation the supervisor uses after acting on a
// refresh request.
package datasourcesvc

import (
	"database/sql"
	"fmt"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

// Service is the DataSource service (component C).
type Service struct {
	db *sql.DB
}

func New(db *sql.DB) *Service {
	return &Service{db: db}
}

// ListAll returns every row ordered by name ascending; the supervisor
// relies on this ordering for stable reconciliation diffs.
func (s *Service) ListAll() ([]model.FileDataSource, error) {
	return store.ListDataSources(s.db)
}

// Get returns the row named name.
func (s *Service) Get(name string) (model.FileDataSource, bool, error) {
	return store.GetDataSourceByName(s.db, name)
}

// Create inserts a new data source; name must be unique.
func (s *Service) Create(d model.FileDataSource) (model.FileDataSource, error) {
	if d.Name == "" {
		return model.FileDataSource{}, fmt.Errorf("name is required")
	}
	id, err := store.CreateDataSource(s.db, d)
	if err != nil {
		return model.FileDataSource{}, err
	}
	d.ID = id
	return d, nil
}

// Update overwrites the mutable fields of the row named d.Name.
func (s *Service) Update(d model.FileDataSource) error {
	return store.UpdateDataSource(s.db, d)
}

// RequestRefresh sets needsRefresh=true, the operator action that causes
// the supervisor to restart the watcher by the next tick.
func (s *Service) RequestRefresh(name string) error {
	return store.SetNeedsRefresh(s.db, name, true)
}

// Disable sets isEnabled=false and needsRefresh=true in one step, per the
// operator contract in §6.
func (s *Service) Disable(name string) error {
	if err := store.SetEnabled(s.db, name, false); err != nil {
		return err
	}
	return store.SetNeedsRefresh(s.db, name, true)
}

// Enable sets isEnabled=true and needsRefresh=true so the supervisor starts
// a watcher for it on the next tick.
func (s *Service) Enable(name string) error {
	if err := store.SetEnabled(s.db, name, true); err != nil {
		return err
	}
	return store.SetNeedsRefresh(s.db, name, true)
}

// ClearNeedsRefresh is the specialized operation the supervisor calls after
// acting on the flag.
func (s *Service) ClearNeedsRefresh(name string) error {
	return store.ClearNeedsRefresh(s.db, name)
}
