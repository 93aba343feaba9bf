package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Processor drives sidecar records through validate, resolve, apply and
// relocate. One Processor serves one run over one directory; it is not safe
// for concurrent use.
type Processor struct {
	baseDir   string
	matched   string
	editedRaw string

	cfg   *Config
	log   *zap.Logger
	logs  *RunLogs
	runID string

	validator *Validator
	resolver  *Resolver
	applier   *Applier
	mover     *mover
	backups   *BackupStore
	tools     *MetadataTools

	removeRecord func(string) error

	ledger  *MovedLedger
	success int
	errors  int
}

// NewProcessor prepares a run over baseDir: it creates the output folders
// and opens the run's log files. Close releases them.
func NewProcessor(baseDir string, cfg *Config, log *zap.Logger) (*Processor, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("open base dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open base dir: %s is not a directory", baseDir)
	}

	matched, editedRaw, err := createRequiredFolders(baseDir, cfg)
	if err != nil {
		return nil, err
	}
	logs, err := OpenRunLogs(baseDir, cfg, time.Now())
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log = log.With(zap.String("run", runID[:8]))
	tools := NewMetadataTools(baseDir, cfg, log)

	return &Processor{
		baseDir:      baseDir,
		matched:      matched,
		editedRaw:    editedRaw,
		cfg:          cfg,
		log:          log,
		logs:         logs,
		runID:        runID,
		validator:    NewValidator(),
		resolver:     NewResolver(baseDir, matched, editedRaw, cfg, log),
		applier:      tools.applier,
		mover:        newMover(cfg, log),
		backups:      tools.backups,
		tools:        tools,
		removeRecord: os.Remove,
		ledger:       NewMovedLedger(),
	}, nil
}

// Close flushes and closes the run's log files
func (p *Processor) Close() error {
	return p.logs.Close()
}

// Counts returns the running success and error counters
func (p *Processor) Counts() (success, errors int) {
	return p.success, p.errors
}

// Logs returns the run's log files
func (p *Processor) Logs() *RunLogs {
	return p.logs
}

// ProcessAll processes every pending record in the base directory, shortest
// file name first. ctx is checked between records; a cancelled run leaves
// no record half committed. Only a failure to list the directory (or
// cancellation) is returned as an error.
func (p *Processor) ProcessAll(ctx context.Context, progress ProgressFunc) (int, int, error) {
	p.logs.Errors.Info("=== Starting new processing session ===")
	p.logs.Missing.Info("=== Missing Files List ===")
	defer func() {
		p.logs.Errors.Info("=== Processing session ended ===")
		p.logs.Missing.Info("\n=== Processing session ended ===")
	}()

	records, err := pendingRecords(p.baseDir)
	if err != nil {
		p.logs.Errors.Error("error during processing", zap.Error(err))
		return p.success, p.errors, err
	}

	total := len(records)
	p.log.Info("processing records", zap.Int("total", total), zap.String("dir", p.baseDir))

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			p.log.Warn("run interrupted", zap.Int("remaining", total-i))
			return p.success, p.errors, err
		}

		// Reported before the record runs: i records are done
		if progress != nil {
			progress(float64(i)/float64(total)*100, p.success, p.errors)
		}

		p.ProcessRecord(record)
	}

	return p.success, p.errors, nil
}

// ProcessRecord runs one sidecar record through the pipeline and updates
// the run counters. It never panics.
func (p *Processor) ProcessRecord(recordPath string) (res ProcessingResult) {
	res.RecordPath = recordPath

	defer func() {
		if r := recover(); r != nil {
			res.Status = StatusUnexpected
			res.Message = fmt.Sprintf("panic: %v", r)
		}
		p.finish(&res)
	}()

	// Start
	var raw *RawRecord
	var doc map[string]any
	data, readErr := os.ReadFile(recordPath)
	var decodeErr error
	if readErr == nil {
		raw, decodeErr = DecodeRawRecord(data)
		if raw != nil {
			doc = raw.Document()
		}
	}

	// Validated
	vr := p.validator.Validate(doc, recordPath)
	for _, w := range vr.Warnings {
		p.log.Warn("validation warning", zap.String("record", filepath.Base(recordPath)), zap.String("warning", w))
	}
	if !vr.Valid {
		msgs := vr.Errors
		if decodeErr != nil {
			msgs = append(msgs, decodeErr.Error())
		}
		res.Status = StatusValidationFailed
		res.Message = strings.Join(msgs, "; ")
		return res
	}

	rec := Normalize(raw)
	res.Title = rec.Title

	// Resolved
	ref, ok := p.resolver.Resolve(rec.Title, p.ledger)
	if !ok {
		res.Status = StatusNotFound
		res.Message = fmt.Sprintf("%s not found", rec.Title)
		return res
	}
	mediaPath := ref.Path()

	// Applied
	finalPath, applyErr := p.applier.Apply(mediaPath, rec)
	res.ApplyErr = applyErr
	res.MediaPath = finalPath

	// Relocated
	dest := filepath.Join(p.matched, filepath.Base(finalPath))
	if finalPath != dest {
		if err := p.mover.safeMove(finalPath, dest); err != nil {
			res.Status = StatusMoveFailed
			res.Message = err.Error()
			return res
		}
	}
	res.MediaPath = dest

	// Commit
	removeErr := p.removeRecord(recordPath)
	p.ledger.Add(ref.Name)
	if removeErr != nil {
		res.Status = StatusUnexpected
		res.Message = fmt.Sprintf("remove record: %v", removeErr)
		return res
	}

	res.Status = StatusSuccess
	return res
}

// finish logs res and updates the counters
func (p *Processor) finish(res *ProcessingResult) {
	name := filepath.Base(res.RecordPath)

	if res.ApplyErr != nil {
		p.logs.Errors.Error(fmt.Sprintf("EXIF data error for %s", res.MediaPath), zap.Error(res.ApplyErr))
	}

	switch res.Status {
	case StatusSuccess:
		p.success++
		p.log.Debug("matched", zap.String("record", name), zap.String("media", res.MediaPath))
		return
	case StatusNotFound:
		p.logs.Missing.Info(res.Title)
		p.log.Warn("media not found", zap.String("title", res.Title))
	case StatusValidationFailed:
		p.logs.Errors.Error(fmt.Sprintf("Validation failed for %s", res.RecordPath), zap.String("errors", res.Message))
		p.log.Error("validation failed", zap.String("record", name), zap.String("errors", res.Message))
	case StatusMoveFailed:
		p.logs.Errors.Error(fmt.Sprintf("Error moving file %s", res.MediaPath), zap.String("error", res.Message))
		p.log.Error("move failed", zap.String("record", name), zap.String("error", res.Message))
	default:
		p.logs.Errors.Error(fmt.Sprintf("Error processing JSON %s", res.RecordPath), zap.String("error", res.Message))
		p.log.Error("processing failed", zap.String("record", name), zap.String("error", res.Message))
	}
	p.errors++
}

// ApplyTemplate applies the named template to filePath and logs failures
// to the run's error log
func (p *Processor) ApplyTemplate(filePath, name string) error {
	err := p.tools.ApplyTemplate(filePath, name)
	if err != nil {
		p.logs.Errors.Error(fmt.Sprintf("Error applying template %s to %s", name, filePath), zap.Error(err))
	}
	return err
}

// BackupMetadata snapshots the metadata filePath currently carries and
// returns the snapshot's path
func (p *Processor) BackupMetadata(filePath string) (string, error) {
	path, err := p.tools.BackupMetadata(filePath)
	if err != nil {
		p.logs.Errors.Error(fmt.Sprintf("Error creating backup for %s", filePath), zap.Error(err))
	}
	return path, err
}

// RestoreFromBackup re-applies a snapshot to the file it was taken from
func (p *Processor) RestoreFromBackup(backupPath string) error {
	err := p.tools.RestoreFromBackup(backupPath)
	if err != nil {
		p.logs.Errors.Error(fmt.Sprintf("Error restoring %s", backupPath), zap.Error(err))
	}
	return err
}

// RunOptions configures the package-level entry points
type RunOptions struct {
	// EditedSuffix overrides Config.EditedSuffix when set
	EditedSuffix string
	Progress     ProgressFunc
	Config       *Config
	Logger       *zap.Logger
}

func (o RunOptions) settings() (*Config, *zap.Logger) {
	cfg := o.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return cfg.withEditedSuffix(o.EditedSuffix), log
}

// ProcessDirectory processes every record in dir and returns the success
// and error counts
func ProcessDirectory(ctx context.Context, dir string, opts RunOptions) (int, int, error) {
	cfg, log := opts.settings()
	p, err := NewProcessor(dir, cfg, log)
	if err != nil {
		return 0, 0, err
	}
	defer p.Close()

	return p.ProcessAll(ctx, opts.Progress)
}

// ProcessSingleRecord processes one record against the directory that holds
// it and reports whether it succeeded
func ProcessSingleRecord(recordPath string, opts RunOptions) bool {
	cfg, log := opts.settings()
	p, err := NewProcessor(filepath.Dir(recordPath), cfg, log)
	if err != nil {
		log.Error("cannot process record", zap.String("record", recordPath), zap.Error(err))
		return false
	}
	defer p.Close()

	return p.ProcessRecord(recordPath).Status == StatusSuccess
}
