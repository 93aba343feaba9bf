package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// Tag IDs touched when a group is removed
const (
	tagDateTime          = 0x0132
	tagDateTimeOriginal  = 0x9003
	tagDateTimeDigitized = 0x9004
	tagExifIfdPointer    = 0x8769
	tagGPSIfdPointer     = 0x8825
)

// EmbeddedWriter brings a file's embedded timestamp and GPS groups in line
// with tags: groups set in tags are written from rec, the others removed
type EmbeddedWriter interface {
	WriteEmbedded(path string, rec MetadataRecord, tags EmbeddedTags) error
}

// exifWriter rewrites the APP1 segment of JPEG files in place
type exifWriter struct{}

func (exifWriter) WriteEmbedded(path string, rec MetadataRecord, tags EmbeddedTags) (err error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
	default:
		return fmt.Errorf("%s: %w", filepath.Base(path), ErrEmbeddedUnsupported)
	}

	// go-exif reports most failures by panicking
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("write exif: %v", r)
		}
	}()

	parsed, err := jpegstructure.NewJpegMediaParser().ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse jpeg: %w", err)
	}
	sl, ok := parsed.(*jpegstructure.SegmentList)
	if !ok {
		return fmt.Errorf("parse jpeg: unexpected media context %T", parsed)
	}

	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		if !tags.Time && !tags.GPS {
			// no EXIF and none wanted
			return nil
		}
		if rootIb, err = newRootBuilder(); err != nil {
			return err
		}
	}

	if tags.Time {
		err = setExifTimes(rootIb, rec.Timestamp)
	} else {
		err = clearExifTimes(rootIb)
	}
	if err != nil {
		return err
	}

	if tags.GPS {
		err = setExifGPS(rootIb, rec.Geo)
	} else if _, derr := rootIb.DeleteAll(tagGPSIfdPointer); derr != nil {
		err = fmt.Errorf("delete gps ifd: %w", derr)
	}
	if err != nil {
		return err
	}

	if len(rootIb.Tags()) == 0 {
		if _, err := sl.DropExif(); err != nil {
			return fmt.Errorf("drop exif: %w", err)
		}
	} else if err := sl.SetExif(rootIb); err != nil {
		return fmt.Errorf("set exif: %w", err)
	}
	return writeSegments(path, sl)
}

func newRootBuilder() (*exif.IfdBuilder, error) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("ifd mapping: %w", err)
	}
	ti := exif.NewTagIndex()
	return exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder), nil
}

func setExifTimes(rootIb *exif.IfdBuilder, ts int64) error {
	stamp := time.Unix(ts, 0).Local().Format(exifTimeLayout)

	if err := rootIb.SetStandardWithName("DateTime", stamp); err != nil {
		return fmt.Errorf("set DateTime: %w", err)
	}

	exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/Exif")
	if err != nil {
		return fmt.Errorf("exif ifd: %w", err)
	}
	for _, name := range []string{"DateTimeOriginal", "DateTimeDigitized"} {
		if err := exifIb.SetStandardWithName(name, stamp); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

// clearExifTimes removes the timestamp tags, and the Exif IFD when nothing
// else is left in it
func clearExifTimes(rootIb *exif.IfdBuilder) error {
	if _, err := rootIb.DeleteAll(tagDateTime); err != nil {
		return fmt.Errorf("delete DateTime: %w", err)
	}

	exifIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/Exif")
	if err != nil {
		return fmt.Errorf("exif ifd: %w", err)
	}
	for _, id := range []uint16{tagDateTimeOriginal, tagDateTimeDigitized} {
		if _, err := exifIb.DeleteAll(id); err != nil {
			return fmt.Errorf("delete tag 0x%04x: %w", id, err)
		}
	}
	if len(exifIb.Tags()) == 0 {
		if _, err := rootIb.DeleteAll(tagExifIfdPointer); err != nil {
			return fmt.Errorf("delete exif ifd: %w", err)
		}
	}
	return nil
}

func setExifGPS(rootIb *exif.IfdBuilder, geo GeoData) error {
	gpsIb, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD/GPSInfo")
	if err != nil {
		return fmt.Errorf("gps ifd: %w", err)
	}

	latRef, lonRef := "N", "E"
	if geo.Latitude < 0 {
		latRef = "S"
	}
	if geo.Longitude < 0 {
		lonRef = "W"
	}
	altRef := byte(0)
	if geo.Altitude < 0 {
		altRef = 1
	}

	tags := []struct {
		name  string
		value any
	}{
		{"GPSVersionID", []byte{2, 0, 0, 0}},
		{"GPSLatitudeRef", latRef},
		{"GPSLatitude", toDMS(geo.Latitude)},
		{"GPSLongitudeRef", lonRef},
		{"GPSLongitude", toDMS(geo.Longitude)},
		{"GPSAltitudeRef", []byte{altRef}},
		{"GPSAltitude", []exifcommon.Rational{toRational(math.Abs(geo.Altitude), 100)}},
	}
	for _, tag := range tags {
		if err := gpsIb.SetStandardWithName(tag.name, tag.value); err != nil {
			return fmt.Errorf("set %s: %w", tag.name, err)
		}
	}
	return nil
}

// toDMS splits decimal degrees into degree, minute and second rationals.
// Seconds keep five decimals.
func toDMS(value float64) []exifcommon.Rational {
	abs := math.Abs(value)
	deg := math.Floor(abs)
	minutesF := (abs - deg) * 60
	mins := math.Floor(minutesF)
	sec := (minutesF - mins) * 60

	return []exifcommon.Rational{
		{Numerator: uint32(deg), Denominator: 1},
		{Numerator: uint32(mins), Denominator: 1},
		toRational(sec, 100000),
	}
}

// toRational rounds v to 1/scale and reduces the fraction
func toRational(v float64, scale uint32) exifcommon.Rational {
	num := uint32(math.Round(v * float64(scale)))
	den := scale
	if num == 0 {
		return exifcommon.Rational{Numerator: 0, Denominator: 1}
	}
	g := gcd(num, den)
	return exifcommon.Rational{Numerator: num / g, Denominator: den / g}
}

func gcd(a, b uint32) uint32 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// writeSegments writes sl next to path and renames it over the original
func writeSegments(path string, sl *jpegstructure.SegmentList) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".exif-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	werr := sl.Write(tmp)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write jpeg: %w", err)
	}

	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
