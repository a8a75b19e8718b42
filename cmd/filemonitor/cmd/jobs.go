package cmd

import (
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and manage queued upload jobs",
}

var jobsListState string

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List upload jobs, optionally filtered by state (Pending|InFlight|Succeeded|Failed)",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()

		rows, err := store.ListJobs(db, model.JobState(jobsListState))
		if err != nil {
			return err
		}
		for _, j := range rows {
			cmd.Printf("%-6d %-10s %-15s attempts=%-3d %-8s %s\n", j.ID, j.State, j.DataSourceName, j.Attempts, humanize.Bytes(uint64(j.SizeBytes)), j.LocalPath)
		}
		return nil
	},
}

var jobsResetCmd = &cobra.Command{
	Use:   "reset [id]",
	Short: "Reset a job to Pending with attempts=0, the operator retry action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()
		return store.ResetJob(db, id)
	},
}

func init() {
	jobsListCmd.Flags().StringVar(&jobsListState, "state", "", "filter by state; empty lists every job")

	jobsCmd.AddCommand(jobsListCmd, jobsResetCmd)
	rootCmd.AddCommand(jobsCmd)
}
