package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/logging"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the daemon: watch every enabled data source and process the upload queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		c, closeFn, err := openCore(ctx)
		if err != nil {
			return err
		}
		defer closeFn()

		probe := c.Blob.Probe(ctx)
		if !probe.Connected {
			logging.WithCode(c.Log, "config_error").WithField("reason", probe.Reason).Warn("blob backend probe failed at startup, continuing anyway")
		}

		c.Log.Info("filemonitor starting")
		supervisor.New(c).Run(ctx)
		c.Log.Info("filemonitor stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
