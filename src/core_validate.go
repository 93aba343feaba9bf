package main

import (
	"fmt"
	"os"
)

// Sane timestamp range: 1970-01-01 to 2100-01-01
const (
	minSaneTimestamp int64 = 0
	maxSaneTimestamp int64 = 4102444800
)

// ValidationResult holds every problem found with one record
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

func (r *ValidationResult) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

type geoRange struct {
	field    string
	min, max float64
	bounded  bool
}

var geoRanges = []geoRange{
	{field: "latitude", min: -90, max: 90, bounded: true},
	{field: "longitude", min: -180, max: 180, bounded: true},
	{field: "altitude"},
}

// Validator gates records before any file is touched. It accumulates all
// violations instead of stopping at the first.
type Validator struct{}

// NewValidator creates a Validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks the decoded record doc and the record file at recordPath.
// A nil doc means the record could not be decoded.
func (v *Validator) Validate(doc map[string]any, recordPath string) ValidationResult {
	var res ValidationResult

	v.checkFile(recordPath, &res)
	if doc == nil {
		res.errorf("record is not a JSON object")
	} else {
		v.checkRequired(doc, &res)
		if taken, ok := doc["photoTakenTime"].(map[string]any); ok {
			v.checkTimestamp(taken, &res)
		}
		if geo, ok := doc["geoData"].(map[string]any); ok {
			v.checkGeo(geo, &res)
		}
	}

	res.Valid = len(res.Errors) == 0
	return res
}

func (v *Validator) checkRequired(doc map[string]any, res *ValidationResult) {
	required := []struct {
		field string
		kind  string
		ok    func(any) bool
	}{
		{"title", "string", func(x any) bool { _, ok := x.(string); return ok }},
		{"photoTakenTime", "object", func(x any) bool { _, ok := x.(map[string]any); return ok }},
		{"geoData", "object", func(x any) bool { _, ok := x.(map[string]any); return ok }},
	}
	for _, r := range required {
		val, present := doc[r.field]
		switch {
		case !present:
			res.errorf("Missing required field: %s", r.field)
		case !r.ok(val):
			res.errorf("Invalid type for %s: expected %s, got %s", r.field, r.kind, jsonKind(val))
		}
	}
}

func (v *Validator) checkTimestamp(taken map[string]any, res *ValidationResult) {
	if _, ok := taken["formatted"]; !ok {
		res.warnf("Missing timestamp field: formatted")
	}

	raw, ok := taken["timestamp"]
	if !ok {
		res.errorf("Missing timestamp field: timestamp")
		return
	}
	s, ok := scalarString(raw)
	if !ok {
		res.errorf("Invalid timestamp format")
		return
	}
	ts, err := parseTimestamp(s)
	if err != nil {
		res.errorf("Invalid timestamp format")
		return
	}
	if ts < minSaneTimestamp || ts > maxSaneTimestamp {
		res.warnf("Timestamp outside reasonable range: %d", ts)
	}
}

func (v *Validator) checkGeo(geo map[string]any, res *ValidationResult) {
	for _, r := range geoRanges {
		raw, ok := geo[r.field]
		if !ok {
			continue
		}
		val, ok := parseNumber(raw)
		if !ok {
			res.errorf("Invalid %s format", r.field)
			continue
		}
		if !r.bounded {
			continue
		}
		if val < r.min {
			res.errorf("%s below minimum value: %v < %v", r.field, val, r.min)
		}
		if val > r.max {
			res.errorf("%s above maximum value: %v > %v", r.field, val, r.max)
		}
	}
}

// checkFile verifies the record file exists, is regular, and can be both
// read and written (it is deleted once the record commits)
func (v *Validator) checkFile(path string, res *ValidationResult) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			res.errorf("File not found: %s", path)
		} else {
			res.errorf("Error validating file %s: %v", path, err)
		}
		return
	}
	if !info.Mode().IsRegular() {
		res.errorf("Not a file: %s", path)
		return
	}

	if f, err := os.Open(path); err != nil {
		res.errorf("No read permission: %s", path)
	} else {
		f.Close()
	}
	if f, err := os.OpenFile(path, os.O_WRONLY, 0); err != nil {
		res.errorf("No write permission: %s", path)
	} else {
		f.Close()
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return "number"
	}
}
