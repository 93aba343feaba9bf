package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const backupTimeLayout = "20060102_150405"

// backupRecord is the on-disk form of one snapshot. The has_* flags are
// absent in snapshots written before they existed.
type backupRecord struct {
	OriginalFile string         `json:"original_file"`
	BackupDate   string         `json:"backup_date"`
	Metadata     MetadataRecord `json:"metadata"`
	HasExifTime  *bool          `json:"has_exif_time,omitempty"`
	HasGPS       *bool          `json:"has_gps,omitempty"`
}

// Snapshot is a restored backup
type Snapshot struct {
	OriginalFile string
	Metadata     MetadataRecord
	Tags         EmbeddedTags
}

// BackupStore keeps immutable metadata snapshots, one JSON file each
type BackupStore struct {
	dir string
	now func() time.Time
}

func NewBackupStore(dir string) *BackupStore {
	return &BackupStore{dir: dir, now: time.Now}
}

// Create snapshots rec for filePath, along with which embedded groups the
// file carried, and returns the snapshot's path. Existing snapshots are
// never overwritten.
func (s *BackupStore) Create(filePath string, rec MetadataRecord, tags EmbeddedTags) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	stamp := s.now().Format(backupTimeLayout)
	data, err := json.MarshalIndent(backupRecord{
		OriginalFile: filePath,
		BackupDate:   stamp,
		Metadata:     rec,
		HasExifTime:  &tags.Time,
		HasGPS:       &tags.GPS,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	base := filepath.Base(filePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := fmt.Sprintf("%s_%s", stem, stamp)

	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		path := filepath.Join(s.dir, candidate+".json")

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create backup: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("write backup: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("write backup: %w", err)
		}
		return path, nil
	}
}

// Restore reads a snapshot back
func (s *BackupStore) Restore(backupPath string) (Snapshot, error) {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read backup: %w", err)
	}

	var rec backupRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return Snapshot{}, fmt.Errorf("parse backup %s: %w", filepath.Base(backupPath), err)
	}
	if rec.OriginalFile == "" {
		return Snapshot{}, fmt.Errorf("parse backup %s: missing original_file", filepath.Base(backupPath))
	}

	snap := Snapshot{
		OriginalFile: rec.OriginalFile,
		Metadata:     rec.Metadata,
		Tags:         EmbeddedTags{Time: true, GPS: !rec.Metadata.Geo.IsZero()},
	}
	if rec.HasExifTime != nil {
		snap.Tags.Time = *rec.HasExifTime
	}
	if rec.HasGPS != nil {
		snap.Tags.GPS = *rec.HasGPS
	}
	return snap, nil
}
