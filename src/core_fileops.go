package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// createRequiredFolders creates the matched-media and preserved-originals
// directories under baseDir
func createRequiredFolders(baseDir string, cfg *Config) (matched, editedRaw string, err error) {
	matched = filepath.Join(baseDir, cfg.MatchedMediaDir)
	editedRaw = filepath.Join(baseDir, cfg.EditedRawDir)

	for _, dir := range []string{matched, editedRaw} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", "", fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return matched, editedRaw, nil
}

// mover relocates files, retrying while another process holds them
type mover struct {
	retries int
	delay   time.Duration
	log     *zap.Logger
	sleep   func(time.Duration)
}

func newMover(cfg *Config, log *zap.Logger) *mover {
	return &mover{
		retries: cfg.MoveRetries,
		delay:   cfg.MoveRetryDelay,
		log:     log,
		sleep:   time.Sleep,
	}
}

// safeMove removes dst if present, then moves src there. Lock failures are
// retried up to m.retries attempts; other failures return immediately.
func (m *mover) safeMove(src, dst string) error {
	attempts := m.retries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		err := replaceFile(src, dst)
		if err == nil {
			return nil
		}
		if !isLockedErr(err) || attempt >= attempts {
			return &MoveError{Source: src, Dest: dst, Attempts: attempt, Err: err}
		}
		m.log.Warn("file is in use, retrying",
			zap.String("file", src),
			zap.Int("attempt", attempt),
			zap.Int("max", attempts),
			zap.Duration("delay", m.delay))
		m.sleep(m.delay)
	}
}

func replaceFile(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("remove existing destination: %w", err)
		}
	}
	return moveFile(src, dst)
}

// moveFile moves a file, with fallback to copy+delete if cross-device
func moveFile(src, dst string) error {
	// Try rename first (fast, atomic)
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if isLockedErr(err) || errors.Is(err, fs.ErrNotExist) {
		return err
	}

	// If rename fails (probably cross-device), copy then delete
	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}

	return nil
}

// copyFile copies a file preserving permissions and modification time
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Sync(); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	return os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}

// lookupExists reports whether a non-directory exists at path. Errors other
// than "not exist" are logged and count as absent for this lookup only.
func lookupExists(path string, log *zap.Logger) bool {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir()
	}
	if !errors.Is(err, fs.ErrNotExist) {
		log.Warn("existence check failed", zap.String("path", path), zap.Error(err))
	}
	return false
}
