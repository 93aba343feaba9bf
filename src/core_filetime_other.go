//go:build !windows

package main

import "time"

func setCreationTime(string, time.Time) error {
	return ErrCreationTimeUnsupported
}
