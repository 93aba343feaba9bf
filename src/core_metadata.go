package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rwcarlsen/goexif/exif"
)

// EmbeddedTags records which embedded metadata groups a file carries
type EmbeddedTags struct {
	Time bool // DateTime / DateTimeOriginal
	GPS  bool // GPS IFD with a position
}

// recordTags is what applying rec writes: both groups, or nothing when rec
// has no position
func recordTags(rec MetadataRecord) EmbeddedTags {
	has := !rec.Geo.IsZero()
	return EmbeddedTags{Time: has, GPS: has}
}

// ReadEmbeddedMetadata captures the timestamp and GPS position a media file
// currently carries. Files without EXIF fall back to their modification time.
func ReadEmbeddedMetadata(path string) (MetadataRecord, error) {
	rec, _, err := readEmbedded(path)
	return rec, err
}

func readEmbedded(path string) (MetadataRecord, EmbeddedTags, error) {
	info, err := os.Stat(path)
	if err != nil {
		return MetadataRecord{}, EmbeddedTags{}, fmt.Errorf("stat %s: %w", path, err)
	}

	rec := MetadataRecord{Title: filepath.Base(path)}
	tags := extractPhotoMetadata(path, &rec)

	// Fallback to file modification time if no date found
	if rec.Timestamp == 0 {
		rec.Timestamp = info.ModTime().Unix()
	}
	return rec, tags, nil
}

// extractPhotoMetadata reads EXIF date and GPS fields into rec and reports
// which of them were present
func extractPhotoMetadata(path string, rec *MetadataRecord) (tags EmbeddedTags) {
	f, err := os.Open(path)
	if err != nil {
		return tags
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		// No EXIF data or decode failed - will use file time fallback
		return tags
	}

	if tm, err := x.DateTime(); err == nil {
		rec.Timestamp = tm.Unix()
		tags.Time = true
	}

	if lat, lon, err := x.LatLong(); err == nil {
		rec.Geo.Latitude = lat
		rec.Geo.Longitude = lon
		tags.GPS = true
	}

	if alt, err := x.Get(exif.GPSAltitude); err == nil {
		if r, err := alt.Rat(0); err == nil {
			v, _ := r.Float64()
			if ref, err := x.Get(exif.GPSAltitudeRef); err == nil {
				if n, err := ref.Int(0); err == nil && n == 1 {
					v = -v
				}
			}
			rec.Geo.Altitude = v
		}
	}
	return tags
}
