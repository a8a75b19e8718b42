// Package watcher observes one FileDataSource's folder for new files and
// enqueues durable upload jobs once each file is stable, per the
// quiescence-window contract in the design document. One Watcher instance
// exists per running data source, owned exclusively by the supervisor.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/core"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/logging"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

// OnError delivers a WatcherError: folder missing, permission denied, an
// oversized file, or an event-source failure.
type OnError func(err error)

// pollInterval is how often a candidate file's size is re-checked while
// waiting for quiescence.
const pollInterval = 200 * time.Millisecond

// Watcher observes a single folder. It is not safe to Start twice.
type Watcher struct {
	core *core.Services
	ds   model.FileDataSource

	mu      sync.Mutex
	started bool
	seen    map[string]bool // per-session dedup: one enqueue attempt per localPath
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	ctx     context.Context
	onError OnError

	wg sync.WaitGroup
}

// New constructs an unstarted Watcher.
func New(c *core.Services) *Watcher {
	return &Watcher{core: c, seen: map[string]bool{}}
}

// Start begins observation of ds.FolderPath. Calling Start twice on the
// same instance is an error. On a nonexistent or unreadable folder, it
// invokes onError and returns nil without observing, per contract.
// parent is the owning scope's context: cancelling it stops the watcher's
// goroutines exactly as Stop does, so the caller's cancel func is never a
// no-op.
func (w *Watcher) Start(parent context.Context, ds model.FileDataSource, onError OnError) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return fmt.Errorf("watcher already started for %s", w.ds.Name)
	}
	w.started = true
	w.ds = ds
	w.onError = onError
	w.mu.Unlock()

	info, err := os.Stat(ds.FolderPath)
	if err != nil || !info.IsDir() {
		onError(fmt.Errorf("folder unreadable: %s: %w", ds.FolderPath, err))
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		onError(fmt.Errorf("create fsnotify watcher: %w", err))
		return nil
	}
	if err := fsw.Add(ds.FolderPath); err != nil {
		fsw.Close()
		onError(fmt.Errorf("watch folder: %s: %w", ds.FolderPath, err))
		return nil
	}

	ctx, cancel := context.WithCancel(parent)
	w.mu.Lock()
	w.fsw = fsw
	w.ctx = ctx
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.eventLoop()

	w.wg.Add(1)
	go w.coldStartScan()

	return nil
}

// Stop ceases observation and releases OS handles on every exit path.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = false
	cancel := w.cancel
	fsw := w.fsw
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var err error
	if fsw != nil {
		err = fsw.Close()
	}
	w.wg.Wait()
	return err
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.considerCandidate(ev.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.onError(fmt.Errorf("event source failure for %s: %w", w.ds.Name, err))
		}
	}
}

// coldStartScan performs the one-shot scan of pre-existing matching files
// with no Pending, InFlight or Succeeded row already referencing them.
func (w *Watcher) coldStartScan() {
	defer w.wg.Done()
	entries, err := os.ReadDir(w.ds.FolderPath)
	if err != nil {
		w.onError(fmt.Errorf("cold-start scan of %s: %w", w.ds.FolderPath, err))
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(w.ds.FolderPath, e.Name())
		active, err := store.HasActiveJobForPath(w.core.DB, w.ds.Name, path)
		if err != nil {
			w.onError(fmt.Errorf("cold-start lookup for %s: %w", path, err))
			continue
		}
		if active {
			continue
		}
		w.considerCandidate(path)
	}
}

// considerCandidate applies the pattern filter and per-session dedup, then
// spawns a stabilization goroutine tracked by wg so Stop can wait for it.
func (w *Watcher) considerCandidate(path string) {
	matched, err := filepath.Match(w.ds.EffectivePattern(), filepath.Base(path))
	if err != nil || !matched {
		return
	}

	w.mu.Lock()
	if w.seen[path] {
		w.mu.Unlock()
		return
	}
	w.seen[path] = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.stabilizeAndEnqueue(path)
}

// stabilizeAndEnqueue polls path's size until it has been unchanged for the
// configured quiescence window, then enqueues an UploadJob. A file that
// vanishes before stabilizing (moved, deleted) is dropped silently — not a
// WatcherError.
func (w *Watcher) stabilizeAndEnqueue(path string) {
	defer w.wg.Done()

	quiescence := w.core.Config.GetDurationSecondsDefault("Watch.QuiescenceSeconds", time.Second)

	var lastSize int64 = -1
	lastChange := w.core.Clock.Now()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-time.After(pollInterval):
		}

		info, err := os.Stat(path)
		if err != nil {
			return
		}
		size := info.Size()
		now := w.core.Clock.Now()
		if size != lastSize {
			lastSize = size
			lastChange = now
			continue
		}
		if now.Sub(lastChange) >= quiescence {
			break
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}

	maxMB := w.core.Config.GetIntDefault("Upload.MaxFileSizeMB", 500)
	maxBytes := int64(maxMB) * 1024 * 1024
	if info.Size() > maxBytes {
		w.onError(fmt.Errorf("oversized file skipped: %s (%s > %s)", path, humanize.Bytes(uint64(info.Size())), humanize.Bytes(uint64(maxBytes))))
		return
	}

	container := w.core.Config.GetStringDefault("Azure.DefaultContainer", "uploads")
	job := model.UploadJob{
		DataSourceName:   w.ds.Name,
		LocalPath:        path,
		TargetContainer:  container,
		TargetObjectName: filepath.Base(path),
		SizeBytes:        info.Size(),
		CorrelationID:    uuid.NewString(),
	}
	if _, err := store.EnqueueJob(w.core.DB, job); err != nil {
		// A unique-index conflict here means another session already has an
		// active row for this path; anything else is worth surfacing.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			w.core.Log.WithField("path", path).WithField("dataSource", w.ds.Name).Debug("enqueue skipped: ", err)
			return
		}
		logging.WithCode(w.core.Log, "store_error").WithError(err).WithField("path", path).WithField("dataSource", w.ds.Name).Error("enqueue failed")
	}
}
