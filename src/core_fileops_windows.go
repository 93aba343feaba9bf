//go:build windows

package main

import (
	"errors"
	"io/fs"

	"golang.org/x/sys/windows"
)

// isLockedErr reports failures caused by another process holding the file
// open, e.g. an antivirus scanner or image viewer.
func isLockedErr(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, windows.ERROR_SHARING_VIOLATION) ||
		errors.Is(err, windows.ERROR_LOCK_VIOLATION)
}
