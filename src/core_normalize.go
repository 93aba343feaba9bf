package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawRecord is a tolerant decode of a sidecar record. Every field is
// optional; a field with the wrong shape is simply absent here and left
// for the Validator to report.
type RawRecord struct {
	Title     *string
	Timestamp *string
	Latitude  *float64
	Longitude *float64
	Altitude  *float64

	doc map[string]any
}

// DecodeRawRecord decodes sidecar JSON. It only fails when data is not a
// JSON object.
func DecodeRawRecord(data []byte) (*RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode record: not a JSON object")
	}

	raw := &RawRecord{doc: doc}
	if title, ok := doc["title"].(string); ok {
		raw.Title = &title
	}
	if taken, ok := doc["photoTakenTime"].(map[string]any); ok {
		if s, ok := scalarString(taken["timestamp"]); ok {
			raw.Timestamp = &s
		}
	}
	if geo, ok := doc["geoData"].(map[string]any); ok {
		raw.Latitude = floatField(geo, "latitude")
		raw.Longitude = floatField(geo, "longitude")
		raw.Altitude = floatField(geo, "altitude")
	}
	return raw, nil
}

// Document returns the generic JSON object the record was decoded from
func (r *RawRecord) Document() map[string]any {
	return r.doc
}

// Normalize turns a RawRecord into the canonical record, zeroing anything
// missing or unparseable. It never fails.
func Normalize(raw *RawRecord) MetadataRecord {
	var rec MetadataRecord
	if raw == nil {
		return rec
	}
	if raw.Title != nil {
		rec.Title = *raw.Title
	}
	if raw.Timestamp != nil {
		if ts, err := parseTimestamp(*raw.Timestamp); err == nil {
			rec.Timestamp = ts
		}
	}
	rec.Geo = GeoData{
		Latitude:  deref(raw.Latitude),
		Longitude: deref(raw.Longitude),
		Altitude:  deref(raw.Altitude),
	}
	return rec
}

// parseTimestamp accepts integral unix seconds, either "1420070400" or a
// JSON number that decoded to "1420070400" / "1.4200704e+09"
func parseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ts, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	// 2^63 itself does not fit
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("timestamp %q out of range", s)
	}
	return int64(f), nil
}

// parseNumber accepts JSON numbers and numeric strings
func parseNumber(v any) (float64, bool) {
	s, ok := scalarString(v)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

func floatField(m map[string]any, key string) *float64 {
	f, ok := parseNumber(m[key])
	if !ok {
		return nil
	}
	return &f
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
