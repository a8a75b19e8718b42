package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/blob"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/bootstrap"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/clock"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/configsvc"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/core"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/corecfg"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/datasourcesvc"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/logging"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "filemonitor",
	Short: "filemonitor watches folders and uploads new files to blob storage",
	Long: `filemonitor is a background daemon that watches one or more folders for
new, stable files and uploads each one at least once to Azure Blob Storage
(or an equivalent backend), with durable retry and configurable disposition
on success.

Common workflows:

  Start the daemon:
    filemonitor run

  Register a folder to watch:
    filemonitor sources create incoming --folder /data/incoming

  Request a hot-reload of a watcher after editing its folder:
    filemonitor sources refresh incoming

  Inspect queued work:
    filemonitor jobs list --state Failed

Configuration:
  Set the database path and log level via flags, environment variables
  prefixed FILEMONITOR_, or a filemonitor.yaml config file in "." or
  "/etc/filemonitor".`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "not read: the config file is always filemonitor.yaml, looked up in . and /etc/filemonitor")
	rootCmd.PersistentFlags().String("db", "./filemonitor.db", "path to the SQLite database file")
	rootCmd.PersistentFlags().String("log-level", "info", "logrus level (debug|info|warn|error)")
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// openCore opens the store, runs migrations, seeds configuration defaults,
// and assembles a core.Services bundle shared by every subcommand.
func openCore(ctx context.Context) (*core.Services, func(), error) {
	boot := corecfg.Load(viper.GetViper())

	log := logging.New(boot.LogLevel)

	db, err := store.Open(boot.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	closeFn := func() { _ = db.Close() }

	if err := store.Migrate(db); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("migrate store: %w", err)
	}

	if err := bootstrap.Seed(db); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("seed configuration: %w", err)
	}

	clk := clock.Real{}
	// The cache TTL is one supervisor tick, read once at startup.
	ttl := configsvc.New(db, clk, 0).GetDurationSecondsDefault("App.ProcessingIntervalSeconds", 10*time.Second)
	cfg := configsvc.New(db, clk, ttl)

	// The --log-level/env/config-file value wins at startup on every
	// restart; afterwards "config set Log.Level" against the running
	// daemon is what takes effect, picked up by the supervisor's next tick.
	if err := cfg.Set("Log.Level", boot.LogLevel, "Log", "logrus level"); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("seed log level: %w", err)
	}

	c := &core.Services{
		DB:          db,
		Config:      cfg,
		DataSources: datasourcesvc.New(db),
		Clock:       clk,
		Log:         log,
	}

	provider := cfg.GetStringDefault("Storage.Provider", "azure")
	connStr := cfg.GetStringDefault("Azure.StorageConnectionString", "")
	uploader, err := blob.New(ctx, blob.Config{
		Provider:              provider,
		AzureConnectionString:  connStr,
		AzureAccountURL:        cfg.GetStringDefault("Azure.AccountURL", ""),
		GCSCredentialsJSONPath: cfg.GetStringDefault("GCS.CredentialsJSONPath", ""),
		FSStubDir:              cfg.GetStringDefault("FS.StubDir", "./fsstub"),
	})
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("construct %s blob uploader: %w", provider, err)
	}
	c.Blob = uploader

	return c, closeFn, nil
}

func dbOnly() (*sql.DB, func(), error) {
	boot := corecfg.Load(viper.GetViper())
	db, err := store.Open(boot.DBPath)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := bootstrap.Seed(db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}
