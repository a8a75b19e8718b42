package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read or edit live-reloadable configuration tunables",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every configuration key",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()

		rows, err := store.ListConfigurations(db)
		if err != nil {
			return err
		}
		for _, c := range rows {
			cmd.Printf("%-32s %-10s %s\n", c.Key, c.Value, c.Description)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()

		c, found, err := store.GetConfiguration(db, args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no configuration key %q", args[0])
		}
		cmd.Println(c.Value)
		return nil
	},
}

var (
	configSetCategory    string
	configSetDescription string
)

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Upsert a configuration value, picked up by the daemon within one TTL window",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()

		existing, _, _ := store.GetConfiguration(db, args[0])
		category := configSetCategory
		if category == "" {
			category = existing.Category
		}
		description := configSetDescription
		if description == "" {
			description = existing.Description
		}

		if err := store.UpsertConfiguration(db, model.Configuration{
			Key:         args[0],
			Value:       args[1],
			Category:    category,
			Description: description,
		}); err != nil {
			return err
		}

		warnIfArchiveAndDeleteBothEnabled(cmd, db)
		return nil
	},
}

// warnIfArchiveAndDeleteBothEnabled prints a warning when the effective
// configuration would both delete and archive on success, since delete
// silently wins and the archive folder never receives anything.
func warnIfArchiveAndDeleteBothEnabled(cmd *cobra.Command, db *sql.DB) {
	archive, _, _ := store.GetConfiguration(db, "Upload.ArchiveOnSuccess")
	del, _, _ := store.GetConfiguration(db, "Upload.DeleteOnSuccess")
	if archive.Value == "true" && del.Value == "true" {
		cmd.PrintErrln("warning: Upload.ArchiveOnSuccess and Upload.DeleteOnSuccess are both true; delete takes precedence and files will never be archived")
	}
}

func init() {
	configSetCmd.Flags().StringVar(&configSetCategory, "category", "", "configuration category (preserved if omitted on an existing key)")
	configSetCmd.Flags().StringVar(&configSetDescription, "description", "", "human-readable description (preserved if omitted on an existing key)")

	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}
