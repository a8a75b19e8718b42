// Package model defines the persistent and in-memory entities shared across
// the store, services, watcher, processor, and supervisor packages.
package model

import "time"

// JobState is the upload job state machine from enqueue to terminal outcome.
type JobState string

const (
	JobPending   JobState = "Pending"
	JobInFlight  JobState = "InFlight"
	JobSucceeded JobState = "Succeeded"
	JobFailed    JobState = "Failed"
)

// Configuration is a single typed tunable row.
type Configuration struct {
	Key         string
	Value       string
	Category    string
	Description string
}

// FileDataSource declares one folder to watch.
type FileDataSource struct {
	ID                int64
	Name              string
	FolderPath        string
	ArchiveFolderPath string
	FilePattern       string
	IsEnabled         bool
	NeedsRefresh      bool
	CreatedAt         time.Time
}

// EffectivePattern returns the configured glob, defaulting to match-all.
func (d FileDataSource) EffectivePattern() string {
	if d.FilePattern == "" {
		return "*"
	}
	return d.FilePattern
}

// UploadJob is a durable unit of upload work.
type UploadJob struct {
	ID               int64
	DataSourceName   string
	LocalPath        string
	TargetContainer  string
	TargetObjectName string
	SizeBytes        int64
	State            JobState
	Attempts         int
	LastError        string
	CorrelationID    string
	NextAttemptAt    time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
