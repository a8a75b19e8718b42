package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/blob"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/configsvc"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/clock"
)

var containersCmd = &cobra.Command{
	Use:   "containers",
	Short: "Inspect the configured blob storage backend",
}

var containersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List containers (or buckets) visible to the configured credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()

		cfg := configsvc.New(db, clock.Real{}, 0)
		ctx := context.Background()

		uploader, err := blob.New(ctx, blob.Config{
			Provider:               cfg.GetStringDefault("Storage.Provider", "azure"),
			AzureConnectionString:  cfg.GetStringDefault("Azure.StorageConnectionString", ""),
			AzureAccountURL:        cfg.GetStringDefault("Azure.AccountURL", ""),
			GCSCredentialsJSONPath: cfg.GetStringDefault("GCS.CredentialsJSONPath", ""),
			FSStubDir:              cfg.GetStringDefault("FS.StubDir", "./fsstub"),
		})
		if err != nil {
			return err
		}

		names, err := uploader.ListContainers(ctx)
		if err != nil {
			return err
		}
		for _, n := range names {
			cmd.Println(n)
		}
		return nil
	},
}

var containersProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check connectivity to the configured blob storage backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()

		cfg := configsvc.New(db, clock.Real{}, 0)
		ctx := context.Background()

		uploader, err := blob.New(ctx, blob.Config{
			Provider:               cfg.GetStringDefault("Storage.Provider", "azure"),
			AzureConnectionString:  cfg.GetStringDefault("Azure.StorageConnectionString", ""),
			AzureAccountURL:        cfg.GetStringDefault("Azure.AccountURL", ""),
			GCSCredentialsJSONPath: cfg.GetStringDefault("GCS.CredentialsJSONPath", ""),
			FSStubDir:              cfg.GetStringDefault("FS.StubDir", "./fsstub"),
		})
		if err != nil {
			return err
		}

		result := uploader.Probe(ctx)
		if result.Connected {
			cmd.Println("connected")
			return nil
		}
		return fmt.Errorf("not connected: %s", result.Reason)
	},
}

func init() {
	containersCmd.AddCommand(containersListCmd, containersProbeCmd)
	rootCmd.AddCommand(containersCmd)
}
