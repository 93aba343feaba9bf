//go:build !windows

package main

import (
	"errors"
	"io/fs"
)

// isLockedErr reports failures that may clear up on retry
func isLockedErr(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
