package main

import (
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.MoveRetryDelay = time.Millisecond
	cfg.TemplatesDir = filepath.Join(t.TempDir(), "templates")
	return cfg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// writeJPEG writes a small colour JPEG without EXIF
func writeJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for x := 0; x < 16; x++ {
		for y := 0; y < 16; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 16), G: uint8(y * 16), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
}

// writeGrayTIFF writes a greyscale TIFF, which needs colour conversion
func writeGrayTIFF(t *testing.T, path string) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 4)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := tiff.Encode(f, img, nil); err != nil {
		t.Fatalf("encode tiff: %v", err)
	}
}

type testRecord struct {
	Title          string         `json:"title"`
	PhotoTakenTime map[string]any `json:"photoTakenTime"`
	GeoData        map[string]any `json:"geoData"`
}

// writeRecord writes a sidecar record in the export tool's format
func writeRecord(t *testing.T, path, title string, ts int64, lat, lon, alt float64) {
	t.Helper()
	data, err := json.Marshal(testRecord{
		Title: title,
		PhotoTakenTime: map[string]any{
			"timestamp": strconv.FormatInt(ts, 10),
			"formatted": time.Unix(ts, 0).UTC().Format(time.RFC1123),
		},
		GeoData: map[string]any{"latitude": lat, "longitude": lon, "altitude": alt},
	})
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}
	writeFile(t, path, string(data))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readExif(t *testing.T, path string) *exif.Exif {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	x, err := exif.Decode(f)
	if err != nil {
		t.Fatalf("decode exif of %s: %v", path, err)
	}
	return x
}

// writeCameraTag gives a JPEG an EXIF block holding only Make
func writeCameraTag(t *testing.T, path, maker string) {
	t.Helper()
	parsed, err := jpegstructure.NewJpegMediaParser().ParseFile(path)
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	sl := parsed.(*jpegstructure.SegmentList)
	rootIb, err := newRootBuilder()
	if err != nil {
		t.Fatal(err)
	}
	if err := rootIb.SetStandardWithName("Make", maker); err != nil {
		t.Fatalf("set Make: %v", err)
	}
	if err := sl.SetExif(rootIb); err != nil {
		t.Fatalf("set exif: %v", err)
	}
	if err := writeSegments(path, sl); err != nil {
		t.Fatal(err)
	}
}

// hasExif reports whether goexif finds an EXIF block in path
func hasExif(t *testing.T, path string) bool {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	_, err = exif.Decode(f)
	return err == nil
}
