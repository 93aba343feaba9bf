package main

import (
	"errors"
	"fmt"
	"path/filepath"
)

// GeoData holds the coordinates carried by a sidecar record
type GeoData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// IsZero reports whether no coordinate was recorded
func (g GeoData) IsZero() bool {
	return g.Latitude == 0 && g.Longitude == 0 && g.Altitude == 0
}

// MetadataRecord is the canonical form of one sidecar record
type MetadataRecord struct {
	Title     string  `json:"title"`
	Timestamp int64   `json:"timestamp"`
	Geo       GeoData `json:"geo"`
}

// Status is the outcome of driving one record through the pipeline
type Status int

const (
	StatusSuccess Status = iota
	StatusNotFound
	StatusValidationFailed
	StatusApplyFailed
	StatusMoveFailed
	StatusUnexpected
)

func (s Status) String() string {
	return [...]string{"Success", "NotFound", "ValidationFailed", "ApplyFailed", "MoveFailed", "UnexpectedFailure"}[s]
}

// ProcessingResult describes what happened to one record
type ProcessingResult struct {
	RecordPath string
	Title      string
	MediaPath  string
	Status     Status
	Message    string

	// ApplyErr is set when embedded metadata or file times could not be
	// written. The record can still succeed.
	ApplyErr error
}

// Partial reports a relocated record whose metadata was only partly applied
func (r ProcessingResult) Partial() bool {
	return r.Status == StatusSuccess && r.ApplyErr != nil
}

// Err returns the failure as a RecordError, or nil on success
func (r ProcessingResult) Err() error {
	if r.Status == StatusSuccess {
		return nil
	}
	return &RecordError{Status: r.Status, RecordPath: r.RecordPath, Message: r.Message}
}

// ProgressFunc receives (percentComplete, successCount, errorCount).
// It is called synchronously from the processing loop.
type ProgressFunc func(percent float64, success, errors int)

// MediaFileRef points at a resolved media file
type MediaFileRef struct {
	Name string // file name as found on disk
	Dir  string // search root the file was found in
}

// Path returns the full path of the referenced file
func (r MediaFileRef) Path() string {
	return filepath.Join(r.Dir, r.Name)
}

// Sentinel errors
var (
	ErrNotFound                = errors.New("media file not found")
	ErrCreationTimeUnsupported = errors.New("creation time cannot be set on this platform")
	ErrEmbeddedUnsupported     = errors.New("embedded metadata writes are not supported for this container")
	ErrTemplateNotFound        = errors.New("template not found")
	ErrInvalidTemplateName     = errors.New("invalid template name")
)

// RecordError is a per-record failure carrying its pipeline status
type RecordError struct {
	Status     Status
	RecordPath string
	Message    string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.RecordPath, e.Status, e.Message)
}

func (e *RecordError) Is(target error) bool {
	return target == ErrNotFound && e.Status == StatusNotFound
}

// ApplyError collects the best-effort steps that failed while applying metadata
type ApplyError struct {
	Path     string
	Failures []error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply metadata to %s: %v", e.Path, errors.Join(e.Failures...))
}

func (e *ApplyError) Unwrap() []error {
	return e.Failures
}

// MoveError reports a relocation that failed after retries
type MoveError struct {
	Source   string
	Dest     string
	Attempts int
	Err      error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s to %s failed after %d attempt(s): %v", e.Source, e.Dest, e.Attempts, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}
