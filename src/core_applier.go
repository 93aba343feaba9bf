package main

import (
	"errors"
	"path/filepath"

	"go.uber.org/zap"
)

// Applier transplants a record's timestamp and position into a media file.
// Every step is best effort: failures are collected, never fatal.
type Applier struct {
	cfg    *Config
	writer EmbeddedWriter
	log    *zap.Logger
}

func NewApplier(cfg *Config, log *zap.Logger) *Applier {
	return &Applier{cfg: cfg, writer: exifWriter{}, log: log}
}

// Apply writes rec into the file at path and returns the file's final path,
// which differs from path when the image had to be re-encoded. Embedded
// metadata is only written when rec has a position. A non-nil error is
// always an *ApplyError.
func (a *Applier) Apply(path string, rec MetadataRecord) (string, error) {
	var failures []error

	if a.cfg.exifSupported(filepath.Ext(path)) {
		newPath, err := normalizeColor(path)
		if err != nil {
			a.log.Warn("colour normalization failed", zap.String("file", path), zap.Error(err))
			failures = append(failures, err)
		} else if newPath != path {
			a.log.Debug("converted to RGB", zap.String("from", path), zap.String("to", newPath))
		}
		path = newPath

		if tags := recordTags(rec); tags.GPS {
			failures = a.writeEmbedded(path, rec, tags, failures)
		}
	}

	return path, a.finish(path, rec, failures)
}

// Restore puts a snapshot back: the embedded groups in tags are written from
// rec, the others are removed, and file times are set. Unlike Apply it never
// re-encodes the image.
func (a *Applier) Restore(path string, rec MetadataRecord, tags EmbeddedTags) error {
	var failures []error
	if a.cfg.exifSupported(filepath.Ext(path)) {
		failures = a.writeEmbedded(path, rec, tags, failures)
	}
	return a.finish(path, rec, failures)
}

func (a *Applier) writeEmbedded(path string, rec MetadataRecord, tags EmbeddedTags, failures []error) []error {
	err := a.writer.WriteEmbedded(path, rec, tags)
	if err == nil {
		return failures
	}
	if errors.Is(err, ErrEmbeddedUnsupported) {
		a.log.Debug("skipping embedded metadata", zap.String("file", path), zap.Error(err))
	} else {
		a.log.Warn("EXIF data error", zap.String("file", path), zap.Error(err))
	}
	return append(failures, err)
}

// finish sets file times and folds everything that failed into an ApplyError
func (a *Applier) finish(path string, rec MetadataRecord, failures []error) error {
	if err := setFileTimes(path, rec.Timestamp); err != nil {
		if errors.Is(err, ErrCreationTimeUnsupported) {
			a.log.Debug("creation time not set", zap.String("file", path), zap.Error(err))
		} else {
			a.log.Warn("error setting file time", zap.String("file", path), zap.Error(err))
			failures = append(failures, err)
		}
	}

	if len(failures) > 0 {
		return &ApplyError{Path: path, Failures: failures}
	}
	return nil
}
