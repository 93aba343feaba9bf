package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// MetadataTools applies templates and takes or restores backups for single
// files. Unlike a Processor it creates no output folders or run logs; only
// BackupMetadata writes, into <baseDir>/<backup dir>.
type MetadataTools struct {
	applier   *Applier
	backups   *BackupStore
	templates *TemplateStore
	log       *zap.Logger
}

func NewMetadataTools(baseDir string, cfg *Config, log *zap.Logger) *MetadataTools {
	return &MetadataTools{
		applier:   NewApplier(cfg, log),
		backups:   NewBackupStore(filepath.Join(baseDir, cfg.BackupDir)),
		templates: NewTemplateStore(cfg.TemplatesDir),
		log:       log,
	}
}

// ApplyTemplate applies the named template to filePath. A template without
// a timestamp keeps the file's current modification time.
func (t *MetadataTools) ApplyTemplate(filePath, name string) error {
	rec, err := t.templates.Load(name)
	if err != nil {
		return err
	}
	if rec.Timestamp == 0 {
		info, err := os.Stat(filePath)
		if err != nil {
			return err
		}
		rec.Timestamp = info.ModTime().Unix()
	}

	_, err = t.applier.Apply(filePath, rec)
	return err
}

// BackupMetadata snapshots the metadata filePath currently carries and
// returns the snapshot's path
func (t *MetadataTools) BackupMetadata(filePath string) (string, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return "", err
	}
	rec, tags, err := readEmbedded(abs)
	if err != nil {
		return "", err
	}
	path, err := t.backups.Create(abs, rec, tags)
	if err != nil {
		return "", err
	}
	t.log.Info("backup created", zap.String("file", abs), zap.String("backup", path))
	return path, nil
}

// RestoreFromBackup puts a snapshot back on the file it was taken from.
// Embedded groups the file did not carry at backup time are removed.
func (t *MetadataTools) RestoreFromBackup(backupPath string) error {
	snap, err := t.backups.Restore(backupPath)
	if err != nil {
		return err
	}
	if err := t.applier.Restore(snap.OriginalFile, snap.Metadata, snap.Tags); err != nil {
		return fmt.Errorf("restore %s: %w", snap.OriginalFile, err)
	}
	t.log.Info("backup restored", zap.String("file", snap.OriginalFile), zap.String("backup", backupPath))
	return nil
}
