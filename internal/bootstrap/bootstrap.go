// Package bootstrap seeds the configurations table with defaults on first
// run. The contract it implements — upsert only if absent, never
// overwrite — is what every other component relies on for its first read.
package bootstrap

import (
	"database/sql"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

// Defaults is the compiled-in seed table, mirroring the recognized
// configuration options in the design document.
var Defaults = []model.Configuration{
	{Key: "App.ProcessingIntervalSeconds", Value: "10", Category: "App", Description: "Supervisor tick period"},
	{Key: "Upload.MaxFileSizeMB", Value: "500", Category: "Upload", Description: "Reject enqueue above this size"},
	{Key: "Upload.MaxConcurrentUploads", Value: "4", Category: "Upload", Description: "Processor worker count per tick"},
	{Key: "Upload.MaxRetries", Value: "5", Category: "Upload", Description: "Attempt cap before Failed"},
	{Key: "Upload.RetryDelaySeconds", Value: "5", Category: "Upload", Description: "Base of exponential backoff"},
	{Key: "Upload.MaxRetryDelayMinutes", Value: "30", Category: "Upload", Description: "Upper clamp on backoff"},
	{Key: "Upload.ArchiveOnSuccess", Value: "false", Category: "Upload", Description: "Move file to archiveFolderPath on success"},
	{Key: "Upload.DeleteOnSuccess", Value: "false", Category: "Upload", Description: "Delete file on success (takes precedence over archive)"},
	{Key: "Upload.TimeoutSecondsPerMB", Value: "5", Category: "Upload", Description: "Per-MB deadline budget for a single upload"},
	{Key: "Azure.StorageConnectionString", Value: "", Category: "Azure", Description: "Connection-string credentials for blob uploader"},
	{Key: "Azure.AccountURL", Value: "", Category: "Azure", Description: "Account URL for DefaultAzureCredential auth, used when StorageConnectionString is empty"},
	{Key: "Azure.DefaultContainer", Value: "uploads", Category: "Azure", Description: "Target container when job does not specify"},
	{Key: "Storage.Provider", Value: "azure", Category: "Storage", Description: "azure | gcs | fs"},
	{Key: "GCS.CredentialsJSONPath", Value: "", Category: "Storage", Description: "Service-account JSON path for the gcs provider; empty uses Application Default Credentials"},
	{Key: "FS.StubDir", Value: "./fsstub", Category: "Storage", Description: "Root directory for the fs provider"},
	{Key: "Watch.QuiescenceSeconds", Value: "1", Category: "Watch", Description: "Stability window before a file is enqueueable"},
	{Key: "Log.Level", Value: "info", Category: "Log", Description: "logrus level"},
}

// Seed upserts every default whose key is absent. Existing rows are never
// overwritten.
func Seed(db *sql.DB) error {
	for _, c := range Defaults {
		if err := store.SeedConfigurationIfAbsent(db, c); err != nil {
			return err
		}
	}
	return nil
}
