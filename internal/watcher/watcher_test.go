package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/clock"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/configsvc"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/core"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/datasourcesvc"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/logging"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

func newTestCore(t *testing.T) *core.Services {
	t.Helper()
	tdb := store.NewTestDB(t)
	cfg := configsvc.New(tdb.DB, clock.Real{}, time.Minute)
	require.NoError(t, cfg.Set("Watch.QuiescenceSeconds", "0", "Watch", ""))
	require.NoError(t, cfg.Set("Upload.MaxFileSizeMB", "500", "Upload", ""))
	require.NoError(t, cfg.Set("Azure.DefaultContainer", "uploads", "Azure", ""))
	return &core.Services{
		DB:          tdb.DB,
		Config:      cfg,
		DataSources: datasourcesvc.New(tdb.DB),
		Clock:       clock.Real{},
		Log:         logging.New("debug"),
	}
}

func waitForJobs(t *testing.T, c *core.Services, dataSource string, n int) []model.UploadJob {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		jobs, err := store.ListJobs(c.DB, "")
		require.NoError(t, err)
		var matched []model.UploadJob
		for _, j := range jobs {
			if j.DataSourceName == dataSource {
				matched = append(matched, j)
			}
		}
		if len(matched) >= n {
			return matched
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d job(s) for %s", n, dataSource)
	return nil
}

func TestWatcher_ColdStartScanEnqueuesExistingFile(t *testing.T) {
	c := newTestCore(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("hello"), 0o644))

	ds := model.FileDataSource{Name: "incoming", FolderPath: dir, FilePattern: "*.csv"}
	w := New(c)
	require.NoError(t, w.Start(context.Background(), ds, func(err error) { t.Logf("watcher error: %v", err) }))
	defer w.Stop()

	jobs := waitForJobs(t, c, "incoming", 1)
	require.Equal(t, filepath.Join(dir, "a.csv"), jobs[0].LocalPath)
}

func TestWatcher_IgnoresNonMatchingPattern(t *testing.T) {
	c := newTestCore(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))

	ds := model.FileDataSource{Name: "incoming", FolderPath: dir, FilePattern: "*.csv"}
	w := New(c)
	require.NoError(t, w.Start(context.Background(), ds, func(err error) { t.Logf("watcher error: %v", err) }))
	defer w.Stop()

	time.Sleep(300 * time.Millisecond)
	jobs, err := store.ListJobs(c.DB, "")
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestWatcher_NewFileIsEnqueuedOnce(t *testing.T) {
	c := newTestCore(t)
	dir := t.TempDir()

	ds := model.FileDataSource{Name: "incoming", FolderPath: dir, FilePattern: "*.csv"}
	w := New(c)
	require.NoError(t, w.Start(context.Background(), ds, func(err error) { t.Logf("watcher error: %v", err) }))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("hello"), 0o644))

	jobs := waitForJobs(t, c, "incoming", 1)
	require.Equal(t, filepath.Join(dir, "b.csv"), jobs[0].LocalPath)

	time.Sleep(300 * time.Millisecond)
	jobs, err := store.ListJobs(c.DB, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1, "a second fsnotify event for the same path must not enqueue a second job")
}

func TestWatcher_CancellingParentContextStopsEventLoop(t *testing.T) {
	c := newTestCore(t)
	dir := t.TempDir()

	ds := model.FileDataSource{Name: "incoming", FolderPath: dir, FilePattern: "*.csv"}
	w := New(c)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, ds, func(err error) { t.Logf("watcher error: %v", err) }))
	t.Cleanup(func() { w.Stop() })

	cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher goroutines did not exit after the parent context was cancelled")
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("hello"), 0o644))
	time.Sleep(300 * time.Millisecond)
	jobs, err := store.ListJobs(c.DB, "")
	require.NoError(t, err)
	require.Empty(t, jobs, "a watcher whose owning scope was cancelled must not keep enqueueing")
}

func TestWatcher_StartOnMissingFolderReportsError(t *testing.T) {
	c := newTestCore(t)
	ds := model.FileDataSource{Name: "incoming", FolderPath: filepath.Join(t.TempDir(), "nope")}

	var gotErr error
	w := New(c)
	require.NoError(t, w.Start(context.Background(), ds, func(err error) { gotErr = err }))
	require.Error(t, gotErr)
}

func TestWatcher_OversizedFileIsSkipped(t *testing.T) {
	c := newTestCore(t)
	require.NoError(t, c.Config.Set("Upload.MaxFileSizeMB", "0", "Upload", ""))
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("hello"), 0o644))

	var gotErr error
	ds := model.FileDataSource{Name: "incoming", FolderPath: dir, FilePattern: "*.csv"}
	w := New(c)
	require.NoError(t, w.Start(context.Background(), ds, func(err error) { gotErr = err }))
	defer w.Stop()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && gotErr == nil {
		time.Sleep(20 * time.Millisecond)
	}
	require.Error(t, gotErr)

	jobs, err := store.ListJobs(c.DB, "")
	require.NoError(t, err)
	require.Empty(t, jobs)
}
