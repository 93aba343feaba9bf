package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var backupBase string

var backupCmd = &cobra.Command{
	Use:   "backup <media-file>",
	Short: "Snapshot the timestamp and GPS position a media file carries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := backupBase
		if base == "" {
			base = filepath.Dir(args[0])
		}
		path, err := NewMetadataTools(base, cfg, logger).BackupMetadata(args[0])
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <backup.json>",
	Short: "Re-apply a metadata snapshot to its file",
	Long: `Re-apply a snapshot created by "backup" or "batch" to the file it was
taken from. Timestamp or GPS tags the file did not carry when the snapshot
was taken are removed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// The snapshot path is read as given; the base dir only matters for Create
		if err := NewMetadataTools(filepath.Dir(args[0]), cfg, logger).RestoreFromBackup(args[0]); err != nil {
			return err
		}
		fmt.Printf("Restored %s\n", args[0])
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVar(&backupBase, "base", "", "directory holding metadata_backups (default: the file's directory)")

	rootCmd.AddCommand(backupCmd, restoreCmd)
}
