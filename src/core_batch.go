package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// BatchFailure is one file a batch could not process
type BatchFailure struct {
	Path    string
	Message string
}

// BatchResult partitions a batch run
type BatchResult struct {
	Successful []string
	Failed     []BatchFailure
	Backups    []string
}

// BatchProcessor runs an explicit list of records through a Processor,
// snapshotting each record before it is consumed
type BatchProcessor struct {
	p *Processor
}

func NewBatchProcessor(p *Processor) *BatchProcessor {
	return &BatchProcessor{p: p}
}

// Process handles files in order. progress receives the percentage done
// after each file. A cancelled ctx stops the batch between files.
func (b *BatchProcessor) Process(ctx context.Context, files []string, progress func(percent float64)) BatchResult {
	var result BatchResult
	total := len(files)

	for i, file := range files {
		if ctx.Err() != nil {
			break
		}

		if err := b.processOne(file, &result); err != nil {
			b.p.log.Error("batch item failed", zap.String("file", file), zap.Error(err))
			result.Failed = append(result.Failed, BatchFailure{Path: file, Message: err.Error()})
		}

		if progress != nil {
			progress(float64(i+1) / float64(total) * 100)
		}
	}
	return result
}

func (b *BatchProcessor) processOne(file string, result *BatchResult) error {
	if strings.HasSuffix(file, recordExt) {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}
		raw, err := DecodeRawRecord(data)
		if err != nil {
			return err
		}
		rec := Normalize(raw)
		backup, err := b.p.backups.Create(file, rec, recordTags(rec))
		if err != nil {
			return err
		}
		result.Backups = append(result.Backups, backup)
	}

	res := b.p.ProcessRecord(file)
	if res.Status != StatusSuccess {
		result.Failed = append(result.Failed, BatchFailure{Path: file, Message: res.Message})
		return nil
	}
	result.Successful = append(result.Successful, file)
	return nil
}
