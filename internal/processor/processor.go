// Package processor drains the upload queue: reclaiming stale InFlight
// rows, claiming a bounded batch of Pending rows, uploading each with
// bounded concurrency, and applying retry/backoff or disposition on the
// outcome. It is invoked once per supervisor tick.
package processor

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/blob"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/copyutil"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/core"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/hash"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/logging"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

// defaultReclaimMultiplier is the "10x tick period" reclaim threshold from
// the design document.
const defaultReclaimMultiplier = 10

// Run executes one processor tick.
func Run(ctx context.Context, c *core.Services) error {
	tick := c.Config.GetDurationSecondsDefault("App.ProcessingIntervalSeconds", 10*time.Second)
	reclaimAfter := tick * defaultReclaimMultiplier

	if err := reclaim(c, reclaimAfter); err != nil {
		logging.WithCode(c.Log, "store_error").WithError(err).Warn("reclaim pass failed")
	}

	maxConcurrent := c.Config.GetIntDefault("Upload.MaxConcurrentUploads", 4)
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	batch, err := store.FetchClaimableBatch(c.DB, maxConcurrent)
	if err != nil {
		logging.WithCode(c.Log, "store_error").WithError(err).Error("fetch claimable batch failed")
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, job := range batch {
		job := job
		g.Go(func() error {
			claimed, err := store.ClaimPending(c.DB, job.ID)
			if err != nil {
				logging.WithCode(c.Log, "store_error").WithError(err).WithField("job", job.ID).Warn("claim failed")
				return nil
			}
			if !claimed {
				return nil
			}
			handleJob(gctx, c, job)
			return nil
		})
	}
	// errgroup's context cancellation on first error would abort siblings;
	// no goroutine here returns an error, so Wait always returns nil and
	// never aborts the batch early.
	return g.Wait()
}

func reclaim(c *core.Services, reclaimAfter time.Duration) error {
	cutoff := c.Clock.Now().Add(-reclaimAfter)
	n, err := store.ReclaimStaleInFlight(c.DB, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		c.Log.WithField("count", n).Info("reclaimed stale in-flight jobs")
	}
	return nil
}

func handleJob(ctx context.Context, c *core.Services, job model.UploadJob) {
	log := c.Log.WithField("job", job.ID).WithField("dataSource", job.DataSourceName).WithField("correlationId", job.CorrelationID)

	h, err := hash.Compute(job.LocalPath)
	if err != nil {
		failTransient(c, job, job.Attempts+1, err)
		return
	}

	deadline := uploadDeadline(c, job.SizeBytes)
	uploadCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ref := blob.ObjectRef{Container: job.TargetContainer, Object: job.TargetObjectName}
	err = c.Blob.Upload(uploadCtx, job.LocalPath, ref, h.SHA256)

	if err == nil {
		if verifier, ok := c.Blob.(blob.Verifier); ok {
			result, verr := verifier.VerifyUpload(ctx, ref, job.SizeBytes, h.CRC32C)
			if verr != nil || !result.OK() {
				err = blob.Transient(fmt.Errorf("post-upload verification failed for job=%d (sizeMatches=%v crc32cSupported=%v crc32cMatches=%v): %v",
					job.ID, result.SizeMatches, result.CRC32CSupported, result.CRC32CMatches, verr))
			}
		}
	}

	if err != nil {
		if blob.IsPermanent(err) {
			logging.WithCode(log, "upload_permanent").WithError(err).Warn("upload failed permanently")
			if merr := store.MarkFailedPermanent(c.DB, job.ID, err.Error()); merr != nil {
				logging.WithCode(log, "store_error").WithError(merr).Error("mark failed permanent write failed")
			}
			return
		}
		failTransient(c, job, job.Attempts+1, err)
		return
	}

	if merr := store.MarkSucceeded(c.DB, job.ID); merr != nil {
		logging.WithCode(log, "store_error").WithError(merr).Error("mark succeeded write failed")
		return
	}
	log.Info("upload succeeded")
	applyDisposition(c, job, log)
}

func failTransient(c *core.Services, job model.UploadJob, attempts int, cause error) {
	log := c.Log.WithField("job", job.ID)
	maxRetries := c.Config.GetIntDefault("Upload.MaxRetries", 5)
	next := nextAttemptAt(c, attempts)
	if err := store.MarkTransientRetry(c.DB, job.ID, attempts, maxRetries, next, cause.Error()); err != nil {
		logging.WithCode(log, "store_error").WithError(err).Error("mark transient retry write failed")
		return
	}
	if attempts >= maxRetries {
		logging.WithCode(log, "upload_transient").WithError(cause).WithField("attempts", attempts).Warn("retries exhausted, job Failed")
		return
	}
	logging.WithCode(log, "upload_transient").WithError(cause).WithField("attempts", attempts).WithField("nextAttemptAt", next).Info("upload failed, will retry")
}

// nextAttemptAt computes now + min(base*2^(attempts-1), maxDelay).
func nextAttemptAt(c *core.Services, attempts int) time.Time {
	base := c.Config.GetIntDefault("Upload.RetryDelaySeconds", 5)
	maxMinutes := c.Config.GetIntDefault("Upload.MaxRetryDelayMinutes", 30)
	maxDelay := time.Duration(maxMinutes) * time.Minute

	exp := attempts - 1
	if exp < 0 {
		exp = 0
	}
	delay := time.Duration(base) * time.Second * time.Duration(math.Pow(2, float64(exp)))
	if delay > maxDelay {
		delay = maxDelay
	}
	return c.Clock.Now().Add(delay)
}

// uploadDeadline derives a per-upload timeout from file size, per the
// concurrency design's "deadline derived from file size" requirement.
func uploadDeadline(c *core.Services, sizeBytes int64) time.Duration {
	secPerMB := c.Config.GetIntDefault("Upload.TimeoutSecondsPerMB", 5)
	mb := float64(sizeBytes) / (1024 * 1024)
	seconds := mb * float64(secPerMB)
	if seconds < 30 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}

// applyDisposition implements the delete-wins precedence: delete, else
// archive-move, else nothing. Disposition failures are logged and do not
// revert the job's Succeeded state.
func applyDisposition(c *core.Services, job model.UploadJob, log *logrus.Entry) {
	deleteOnSuccess := c.Config.GetBoolDefault("Upload.DeleteOnSuccess", false)
	archiveOnSuccess := c.Config.GetBoolDefault("Upload.ArchiveOnSuccess", false)

	if deleteOnSuccess {
		if err := os.Remove(job.LocalPath); err != nil && !os.IsNotExist(err) {
			logging.WithCode(log, "disposition_error").WithError(err).Warn("delete after success failed")
		}
		return
	}

	if !archiveOnSuccess {
		return
	}

	ds, found, err := store.GetDataSourceByName(c.DB, job.DataSourceName)
	if err != nil || !found || ds.ArchiveFolderPath == "" {
		return
	}

	dst := filepath.Join(ds.ArchiveFolderPath, filepath.Base(job.LocalPath))
	if err := archiveMove(job.LocalPath, dst); err != nil {
		logging.WithCode(log, "disposition_error").WithError(err).Warn("archive move after success failed")
	}
}

// archiveMove copies src to dst atomically (tmp-file + fsync + rename) then
// removes src, so an archive move survives a crash mid-copy without ever
// leaving a half-written file at dst.
func archiveMove(src, dst string) error {
	if err := copyutil.CopyAtomic(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
