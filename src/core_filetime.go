package main

import (
	"fmt"
	"os"
	"time"
)

// setFileTimes sets access and modification time to ts, then the creation
// time where the platform allows it. The returned error wraps
// ErrCreationTimeUnsupported when only the creation time was skipped.
func setFileTimes(path string, ts int64) error {
	t := time.Unix(ts, 0)
	if err := os.Chtimes(path, t, t); err != nil {
		return fmt.Errorf("set modification time: %w", err)
	}
	if err := setCreationTime(path, t); err != nil {
		return fmt.Errorf("set creation time: %w", err)
	}
	return nil
}
