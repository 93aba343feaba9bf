package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tplRecord MetadataRecord

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage reusable metadata templates",
}

var templateSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a named metadata template",
	Long: `Save a named metadata template. Saving an existing name replaces it.

Examples:
  photometa-restore template save paris --lat 48.8584 --lon 2.2945 --alt 35
  photometa-restore template save newyear --timestamp 1420070400`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewTemplateStore(cfg.TemplatesDir).Save(args[0], tplRecord); err != nil {
			return err
		}
		fmt.Printf("Saved template %s\n", args[0])
		return nil
	},
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := NewTemplateStore(cfg.TemplatesDir).List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No templates saved")
			return nil
		}
		for _, name := range names {
			info, err := os.Stat(filepath.Join(cfg.TemplatesDir, name+".json"))
			if err != nil {
				fmt.Println(name)
				continue
			}
			fmt.Printf("%-24s saved %s\n", name, humanize.Time(info.ModTime()))
		}
		return nil
	},
}

var templateApplyCmd = &cobra.Command{
	Use:   "apply <name> <media-file>",
	Short: "Write a template's timestamp and position into a media file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, file := args[0], args[1]
		err := NewMetadataTools(filepath.Dir(file), cfg, logger).ApplyTemplate(file, name)
		var ae *ApplyError
		if errors.As(err, &ae) {
			// Best effort: report what was skipped, the rest was applied
			logger.Warn("template partly applied", zap.String("file", file), zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Applied %s to %s\n", name, file)
		return nil
	},
}

func init() {
	f := templateSaveCmd.Flags()
	f.StringVar(&tplRecord.Title, "title", "", "title stored with the template")
	f.Int64Var(&tplRecord.Timestamp, "timestamp", 0, "unix seconds (0 keeps the file's time)")
	f.Float64Var(&tplRecord.Geo.Latitude, "lat", 0, "latitude in decimal degrees")
	f.Float64Var(&tplRecord.Geo.Longitude, "lon", 0, "longitude in decimal degrees")
	f.Float64Var(&tplRecord.Geo.Altitude, "alt", 0, "altitude in metres")

	templateCmd.AddCommand(templateSaveCmd, templateListCmd, templateApplyCmd)
	rootCmd.AddCommand(templateCmd)
}
