package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/datasourcesvc"
	"github.com/pinesagetechnology/FileMonitorWorkerService/internal/model"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage watched folders",
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered data source",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()

		rows, err := datasourcesvc.New(db).ListAll()
		if err != nil {
			return err
		}
		for _, d := range rows {
			cmd.Printf("%-20s enabled=%-5v needsRefresh=%-5v folder=%s pattern=%s\n",
				d.Name, d.IsEnabled, d.NeedsRefresh, d.FolderPath, d.EffectivePattern())
		}
		return nil
	},
}

var (
	sourceFolder  string
	sourceArchive string
	sourcePattern string
)

var sourcesCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Register a new folder to watch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if sourceFolder == "" {
			return fmt.Errorf("--folder is required")
		}
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()

		_, err = datasourcesvc.New(db).Create(model.FileDataSource{
			Name:              args[0],
			FolderPath:        sourceFolder,
			ArchiveFolderPath: sourceArchive,
			FilePattern:       sourcePattern,
			IsEnabled:         true,
		})
		if err != nil {
			return err
		}

		warnIfArchiveAndDeleteBothEnabled(cmd, db)
		return nil
	},
}

var sourcesRefreshCmd = &cobra.Command{
	Use:   "refresh [name]",
	Short: "Request the daemon restart this source's watcher on its next tick",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()
		return datasourcesvc.New(db).RequestRefresh(args[0])
	},
}

var sourcesDisableCmd = &cobra.Command{
	Use:   "disable [name]",
	Short: "Stop watching a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()
		return datasourcesvc.New(db).Disable(args[0])
	},
}

var sourcesEnableCmd = &cobra.Command{
	Use:   "enable [name]",
	Short: "Resume watching a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, closeFn, err := dbOnly()
		if err != nil {
			return err
		}
		defer closeFn()
		return datasourcesvc.New(db).Enable(args[0])
	},
}

func init() {
	sourcesCreateCmd.Flags().StringVar(&sourceFolder, "folder", "", "folder to watch (required)")
	sourcesCreateCmd.Flags().StringVar(&sourceArchive, "archive-folder", "", "optional folder to move files to on upload success")
	sourcesCreateCmd.Flags().StringVar(&sourcePattern, "pattern", "*", "glob pattern matched against the file's base name")

	sourcesCmd.AddCommand(sourcesListCmd, sourcesCreateCmd, sourcesRefreshCmd, sourcesDisableCmd, sourcesEnableCmd)
	rootCmd.AddCommand(sourcesCmd)
}
