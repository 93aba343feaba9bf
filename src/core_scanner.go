package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/maruel/natural"
)

const recordExt = ".json"

// pendingRecords lists the sidecar records directly inside dir, shortest
// file name first. Shorter titles claim their exact matches before a longer
// title's truncated-name fallback can reach them.
func pendingRecords(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), recordExt) {
			continue
		}
		names = append(names, e.Name())
	}

	sort.SliceStable(names, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(names[i]), utf8.RuneCountInString(names[j])
		if li != lj {
			return li < lj
		}
		return natural.Less(names[i], names[j])
	})

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}
