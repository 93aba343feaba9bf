package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestCreateRequiredFolders(t *testing.T) {
	base := t.TempDir()
	cfg := testConfig(t)

	matched, editedRaw, err := createRequiredFolders(base, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if matched != filepath.Join(base, "MatchedMedia") || editedRaw != filepath.Join(base, "EditedRaw") {
		t.Errorf("got %s, %s", matched, editedRaw)
	}
	for _, dir := range []string{matched, editedRaw} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created", dir)
		}
	}

	// Idempotent
	if _, _, err := createRequiredFolders(base, cfg); err != nil {
		t.Errorf("second call: %v", err)
	}
}

func TestSafeMove(t *testing.T) {
	t.Run("moves into place", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "a.jpg")
		dst := filepath.Join(dir, "out", "a.jpg")
		writeFile(t, src, "data")
		os.MkdirAll(filepath.Dir(dst), 0755)

		m := newMover(testConfig(t), zaptest.NewLogger(t))
		if err := m.safeMove(src, dst); err != nil {
			t.Fatal(err)
		}
		if fileExists(src) || !fileExists(dst) {
			t.Error("file not moved")
		}
	})

	t.Run("replaces an existing destination", func(t *testing.T) {
		dir := t.TempDir()
		src := filepath.Join(dir, "new.jpg")
		dst := filepath.Join(dir, "old.jpg")
		writeFile(t, src, "new")
		writeFile(t, dst, "old")

		m := newMover(testConfig(t), zaptest.NewLogger(t))
		if err := m.safeMove(src, dst); err != nil {
			t.Fatal(err)
		}
		data, _ := os.ReadFile(dst)
		if string(data) != "new" {
			t.Errorf("destination holds %q, want new", data)
		}
	})

	t.Run("missing source fails once", func(t *testing.T) {
		dir := t.TempDir()
		m := newMover(testConfig(t), zaptest.NewLogger(t))
		slept := 0
		m.sleep = func(time.Duration) { slept++ }

		err := m.safeMove(filepath.Join(dir, "nope.jpg"), filepath.Join(dir, "dst.jpg"))
		var me *MoveError
		if !errors.As(err, &me) {
			t.Fatalf("err = %v, want *MoveError", err)
		}
		if me.Attempts != 1 || slept != 0 {
			t.Errorf("attempts = %d, slept = %d, want a single attempt", me.Attempts, slept)
		}
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("err = %v, want it to wrap fs.ErrNotExist", err)
		}
	})

	t.Run("retries a locked file", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("directory permissions are not enforced here")
		}
		dir := t.TempDir()
		locked := filepath.Join(dir, "locked")
		src := filepath.Join(locked, "a.jpg")
		writeFile(t, src, "data")
		if err := os.Chmod(locked, 0555); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Chmod(locked, 0755) })

		cfg := testConfig(t)
		cfg.MoveRetries = 3
		m := newMover(cfg, zaptest.NewLogger(t))
		var delays []time.Duration
		m.sleep = func(d time.Duration) { delays = append(delays, d) }

		err := m.safeMove(src, filepath.Join(dir, "a.jpg"))
		var me *MoveError
		if !errors.As(err, &me) {
			t.Fatalf("err = %v, want *MoveError", err)
		}
		if me.Attempts != 3 {
			t.Errorf("attempts = %d, want 3", me.Attempts)
		}
		if len(delays) != 2 || delays[0] != cfg.MoveRetryDelay {
			t.Errorf("delays = %v, want two waits of %v", delays, cfg.MoveRetryDelay)
		}
		if !fileExists(src) {
			t.Error("source lost after a failed move")
		}
	})
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	dst := filepath.Join(dir, "dst.jpg")
	writeFile(t, src, "payload")
	mtime := time.Unix(testTimestamp, 0)
	if err := os.Chtimes(src, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	if err := copyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(dst)
	if string(data) != "payload" {
		t.Errorf("copied %q", data)
	}
	assertModTime(t, dst, testTimestamp)
}

func TestProbeExists(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "file.jpg"), "x")
	os.Mkdir(filepath.Join(dir, "sub"), 0755)
	log := zaptest.NewLogger(t)

	tests := []struct {
		name string
		want bool
	}{
		{"file.jpg", true},
		{"sub", false},
		{"absent.jpg", false},
	}
	for _, tt := range tests {
		if got := lookupExists(filepath.Join(dir, tt.name), log); got != tt.want {
			t.Errorf("lookupExists(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
