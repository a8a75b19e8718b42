package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/blob"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/clock"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/configsvc"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/core"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/datasourcesvc"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/logging"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

func newTestCore(t *testing.T, fake *clock.Fake) (*core.Services, *blob.FSStub) {
	t.Helper()
	tdb := store.NewTestDB(t)

	stub, err := blob.NewFSStub(t.TempDir())
	require.NoError(t, err)

	cfg := configsvc.New(tdb.DB, fake, time.Minute)
	require.NoError(t, cfg.Set("Upload.MaxRetries", "3", "Upload", ""))
	require.NoError(t, cfg.Set("Upload.RetryDelaySeconds", "0", "Upload", ""))
	require.NoError(t, cfg.Set("Upload.MaxRetryDelayMinutes", "1", "Upload", ""))
	require.NoError(t, cfg.Set("Upload.TimeoutSecondsPerMB", "5", "Upload", ""))
	require.NoError(t, cfg.Set("Upload.MaxConcurrentUploads", "4", "Upload", ""))
	require.NoError(t, cfg.Set("App.ProcessingIntervalSeconds", "10", "App", ""))

	return &core.Services{
		DB:          tdb.DB,
		Config:      cfg,
		DataSources: datasourcesvc.New(tdb.DB),
		Blob:        stub,
		Clock:       fake,
		Log:         logging.New("debug"),
	}, stub
}

func enqueueTestJob(t *testing.T, c *core.Services, path string) int64 {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)
	id, err := store.EnqueueJob(c.DB, model.UploadJob{
		DataSourceName:   "incoming",
		LocalPath:        path,
		TargetContainer:  "uploads",
		TargetObjectName: filepath.Base(path),
		SizeBytes:        info.Size(),
		CorrelationID:    "corr-1",
	})
	require.NoError(t, err)
	return id
}

func TestRun_HappyPath(t *testing.T) {
	fake := clock.NewFake(time.Now())
	c, stub := newTestCore(t, fake)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	enqueueTestJob(t, c, path)

	require.NoError(t, Run(context.Background(), c))

	jobs, err := store.ListJobs(c.DB, model.JobSucceeded)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	_, ok := stub.Contents("uploads", "a.csv")
	require.True(t, ok)
}

func TestRun_TransientFailureSchedulesRetry(t *testing.T) {
	fake := clock.NewFake(time.Now())
	c, stub := newTestCore(t, fake)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	enqueueTestJob(t, c, path)

	stub.FailNextUpload(blob.Transient(errors.New("connection reset")))
	require.NoError(t, Run(context.Background(), c))

	jobs, err := store.ListJobs(c.DB, model.JobPending)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, 1, jobs[0].Attempts)
	require.True(t, jobs[0].NextAttemptAt.After(fake.Now()) || jobs[0].NextAttemptAt.Equal(fake.Now()))
}

func TestRun_PermanentFailureFailsImmediately(t *testing.T) {
	fake := clock.NewFake(time.Now())
	c, stub := newTestCore(t, fake)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	enqueueTestJob(t, c, path)

	stub.FailNextUpload(blob.Permanent(errors.New("auth rejected")))
	require.NoError(t, Run(context.Background(), c))

	jobs, err := store.ListJobs(c.DB, model.JobFailed)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, 0, jobs[0].Attempts, "a permanent failure must not consume a retry attempt")
}

func TestRun_RetriesExhaustToFailed(t *testing.T) {
	fake := clock.NewFake(time.Now())
	c, stub := newTestCore(t, fake)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	enqueueTestJob(t, c, path)

	// MaxRetries=3, RetryDelaySeconds=0: three transient failures in a row
	// exhausts the job without needing to wait out real backoff time.
	for i := 0; i < 3; i++ {
		stub.FailNextUpload(blob.Transient(errors.New("still down")))
		require.NoError(t, Run(context.Background(), c))
	}

	jobs, err := store.ListJobs(c.DB, model.JobFailed)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, 3, jobs[0].Attempts)
}

func TestRun_ReclaimsStaleInFlight(t *testing.T) {
	fake := clock.NewFake(time.Now())
	c, _ := newTestCore(t, fake)
	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	id := enqueueTestJob(t, c, path)

	claimed, err := store.ClaimPending(c.DB, id)
	require.NoError(t, err)
	require.True(t, claimed)

	// Advance well past the 10x-tick reclaim threshold (10 * 10s = 100s).
	fake.Advance(200 * time.Second)
	require.NoError(t, Run(context.Background(), c))

	jobs, err := store.ListJobs(c.DB, model.JobSucceeded)
	require.NoError(t, err)
	require.Len(t, jobs, 1, "the reclaimed job must be picked back up and uploaded in the same tick")
}

// crc32CMismatchUploader always succeeds the upload but reports a CRC32C
// mismatch on verification, exercising backends (like GCS) that support a
// checksum check beyond a bare size comparison.
type crc32CMismatchUploader struct{}

func (crc32CMismatchUploader) Upload(ctx context.Context, localPath string, ref blob.ObjectRef, sha256Hex string) error {
	return nil
}
func (crc32CMismatchUploader) ListContainers(ctx context.Context) ([]string, error) { return nil, nil }
func (crc32CMismatchUploader) Probe(ctx context.Context) blob.ProbeResult            { return blob.ProbeResult{Connected: true} }
func (crc32CMismatchUploader) VerifyUpload(ctx context.Context, ref blob.ObjectRef, expectedSize int64, expectedCRC32C uint32) (blob.VerifyResult, error) {
	return blob.VerifyResult{SizeMatches: true, CRC32CSupported: true, CRC32CMatches: false}, nil
}

func TestRun_CRC32CMismatchDemotesToTransient(t *testing.T) {
	fake := clock.NewFake(time.Now())
	c, _ := newTestCore(t, fake)
	c.Blob = crc32CMismatchUploader{}

	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	enqueueTestJob(t, c, path)

	require.NoError(t, Run(context.Background(), c))

	jobs, err := store.ListJobs(c.DB, model.JobPending)
	require.NoError(t, err)
	require.Len(t, jobs, 1, "a CRC32C mismatch must be treated as a transient failure, not a success")
	require.Equal(t, 1, jobs[0].Attempts)
}

func TestApplyDisposition_DeleteWinsOverArchive(t *testing.T) {
	fake := clock.NewFake(time.Now())
	c, _ := newTestCore(t, fake)
	require.NoError(t, c.Config.Set("Upload.DeleteOnSuccess", "true", "Upload", ""))
	require.NoError(t, c.Config.Set("Upload.ArchiveOnSuccess", "true", "Upload", ""))

	dir := t.TempDir()
	path := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	job := model.UploadJob{LocalPath: path, DataSourceName: "incoming"}
	applyDisposition(c, job, c.Log.WithField("job", "test"))

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "delete-on-success must win over archive-on-success")
}

func TestApplyDisposition_ArchivesToConfiguredFolder(t *testing.T) {
	fake := clock.NewFake(time.Now())
	c, _ := newTestCore(t, fake)
	require.NoError(t, c.Config.Set("Upload.ArchiveOnSuccess", "true", "Upload", ""))

	dir := t.TempDir()
	archiveDir := filepath.Join(dir, "archive")
	_, err := c.DataSources.Create(model.FileDataSource{
		Name: "incoming", FolderPath: dir, ArchiveFolderPath: archiveDir, IsEnabled: true,
	})
	require.NoError(t, err)

	path := filepath.Join(dir, "a.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	job := model.UploadJob{LocalPath: path, DataSourceName: "incoming"}
	applyDisposition(c, job, c.Log.WithField("job", "test"))

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err), "source file must be removed after archiving")
	_, err = os.Stat(filepath.Join(archiveDir, "a.csv"))
	require.NoError(t, err, "file must land in the archive folder")
}
