// Package supervisor owns the set of running watchers, reconciling it
// against the FileDataSources table on every tick and driving the upload
// processor. It is the sole owner of watcher lifecycles.
package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/core"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/logging"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/processor"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/watcher"
)

// runningWatcher is the ephemeral (dataSourceName -> handle + owning scope)
// pair the design document calls RunningWatcher. It is owned exclusively by
// the Supervisor and touched by no other goroutine.
type runningWatcher struct {
	scope  uuid.UUID
	handle *watcher.Watcher
	cancel context.CancelFunc
}

// Supervisor is component G: the periodic reconciliation loop.
type Supervisor struct {
	core *core.Services

	mu       sync.Mutex
	watching map[string]*runningWatcher
}

// New constructs a Supervisor with no watchers running yet.
func New(c *core.Services) *Supervisor {
	return &Supervisor{core: c, watching: map[string]*runningWatcher{}}
}

// Run blocks, ticking until ctx is cancelled, then stops every running
// watcher and returns.
func (s *Supervisor) Run(ctx context.Context) {
	s.tick(ctx)

	tickPeriod := s.core.Config.GetDurationSecondsDefault("App.ProcessingIntervalSeconds", 10*time.Second)

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case <-s.core.Clock.After(tickPeriod):
			tickPeriod = s.core.Config.GetDurationSecondsDefault("App.ProcessingIntervalSeconds", 10*time.Second)
			s.tick(ctx)
		}
	}
}

// tick is one pass of the reconciliation-then-process procedure.
func (s *Supervisor) tick(ctx context.Context) {
	logging.ApplyLevel(s.core.Log, s.core.Config.GetStringDefault("Log.Level", "info"))

	sources, err := s.core.DataSources.ListAll()
	if err != nil {
		logging.WithCode(s.core.Log, "store_error").WithError(err).Error("tick: list data sources failed")
		return
	}

	s.reconcile(sources)

	if err := processor.Run(ctx, s.core); err != nil {
		logging.WithCode(s.core.Log, "store_error").WithError(err).Warn("tick: processor run failed")
	}
}

// reconcile starts a watcher for every enabled source with none running,
// and restarts any source whose needsRefresh flag is set. isEnabled is
// honored: the supervisor never runs a watcher for a disabled source.
func (s *Supervisor) reconcile(sources []model.FileDataSource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	present := map[string]bool{}
	for _, ds := range sources {
		present[ds.Name] = true

		rw, running := s.watching[ds.Name]

		switch {
		case !ds.IsEnabled && running:
			s.stopLocked(ds.Name, rw)
		case !ds.IsEnabled:
			// not running, stays that way
		case ds.NeedsRefresh:
			if running {
				s.stopLocked(ds.Name, rw)
			}
			s.startLocked(ds)
			if err := s.core.DataSources.ClearNeedsRefresh(ds.Name); err != nil {
				logging.WithCode(s.core.Log, "store_error").WithError(err).WithField("dataSource", ds.Name).Warn("clear needsRefresh failed")
			}
		case !running:
			s.startLocked(ds)
		}
	}

	// A source row that disappeared entirely still needs its watcher torn
	// down — no running watcher may outlive its FileDataSource row.
	for name, rw := range s.watching {
		if !present[name] {
			s.stopLocked(name, rw)
		}
	}
}

func (s *Supervisor) startLocked(ds model.FileDataSource) {
	scope := uuid.New()
	watcherCtx, cancel := context.WithCancel(context.Background())

	w := watcher.New(s.core)
	err := w.Start(watcherCtx, ds, func(werr error) {
		logging.WithCode(s.core.Log, "watcher_error").WithError(werr).WithField("dataSource", ds.Name).Error("watcher error")
	})
	if err != nil {
		logging.WithCode(s.core.Log, "watcher_error").WithError(err).WithField("dataSource", ds.Name).Error("watcher start failed")
		cancel()
		return
	}

	s.watching[ds.Name] = &runningWatcher{scope: scope, handle: w, cancel: cancel}
	s.core.Log.WithField("dataSource", ds.Name).WithField("scope", scope.String()).Info("watcher started")
}

func (s *Supervisor) stopLocked(name string, rw *runningWatcher) {
	if err := rw.handle.Stop(); err != nil {
		logging.WithCode(s.core.Log, "watcher_error").WithError(err).WithField("dataSource", name).Warn("watcher stop failed")
	}
	rw.cancel()
	delete(s.watching, name)
	s.core.Log.WithField("dataSource", name).WithField("scope", rw.scope.String()).Info("watcher stopped")
}

// shutdown stops every running watcher, collecting errors but never
// aborting partway through.
func (s *Supervisor) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for name, rw := range s.watching {
		wg.Add(1)
		go func(name string, rw *runningWatcher) {
			defer wg.Done()
			if err := rw.handle.Stop(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			rw.cancel()
		}(name, rw)
	}
	wg.Wait()

	for name := range s.watching {
		delete(s.watching, name)
	}

	if len(errs) > 0 {
		logging.WithCode(s.core.Log, "watcher_error").WithField("count", len(errs)).Warn("shutdown completed with watcher stop errors")
	}
}

// RunningNames returns the data source names with an active watcher,
// primarily for tests asserting reconciliation behavior.
func (s *Supervisor) RunningNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.watching))
	for name := range s.watching {
		names = append(names, name)
	}
	return names
}

// ScopeFor returns the owning scope id of the running watcher for name, for
// tests asserting the watcher's in-memory identity has changed after a
// refresh.
func (s *Supervisor) ScopeFor(name string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rw, ok := s.watching[name]
	if !ok {
		return uuid.UUID{}, false
	}
	return rw.scope, true
}
