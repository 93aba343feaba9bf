package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"
)

// isStandardRGB reports colour models that need no conversion
func isStandardRGB(m color.Model) bool {
	switch m {
	case color.YCbCrModel, color.RGBAModel, color.RGBA64Model:
		return true
	}
	return false
}

// normalizeColor re-encodes images that are not standard RGB (greyscale,
// CMYK, paletted, ...) as an RGB JPEG and removes the original. Files that
// already carry the .jpg extension are left alone. It returns the path the
// image now lives at.
func normalizeColor(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return path, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return path, err
	}
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		return path, fmt.Errorf("decode image config: %w", err)
	}
	if isStandardRGB(cfg.ColorModel) {
		return path, nil
	}

	newPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".jpg"
	if newPath == path {
		// Re-encoding a .jpg in place would drop its APP segments
		return path, nil
	}
	if _, err := os.Stat(newPath); err == nil {
		return path, fmt.Errorf("convert %s: %s already exists", filepath.Base(path), filepath.Base(newPath))
	}

	img, err := imaging.Open(path)
	if err != nil {
		return path, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}

	// Encode beside the original, then rename into place
	tmp, err := os.CreateTemp(filepath.Dir(path), ".rgb-*.jpg")
	if err != nil {
		return path, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	if err := imaging.Save(imaging.Clone(img), tmpPath, imaging.JPEGQuality(95)); err != nil {
		os.Remove(tmpPath)
		return path, fmt.Errorf("save %s: %w", filepath.Base(newPath), err)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		os.Remove(tmpPath)
		return path, err
	}
	if err := os.Rename(tmpPath, newPath); err != nil {
		os.Remove(tmpPath)
		return path, fmt.Errorf("save %s: %w", filepath.Base(newPath), err)
	}

	if err := os.Remove(path); err != nil {
		return newPath, fmt.Errorf("remove %s: %w", filepath.Base(path), err)
	}
	return newPath, nil
}
