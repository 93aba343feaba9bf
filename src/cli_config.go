package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to the config path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}
		if err := SaveConfig(configPath, DefaultConfig()); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Printf("Wrote %s\n", configPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Config file:     %s\n", configPath)
		fmt.Printf("Edited suffix:   %s\n", cfg.EditedSuffix)
		fmt.Printf("EXIF extensions: %v\n", cfg.ExifExtensions)
		fmt.Printf("Output dirs:     %s, %s, %s\n", cfg.MatchedMediaDir, cfg.EditedRawDir, cfg.LogsDir)
		fmt.Printf("Backups:         %s\n", cfg.BackupDir)
		fmt.Printf("Templates:       %s\n", cfg.TemplatesDir)
		fmt.Printf("Max stem length: %d\n", cfg.MaxStemLength)
		fmt.Printf("Move retries:    %d every %s\n", cfg.MoveRetries, cfg.MoveRetryDelay)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
