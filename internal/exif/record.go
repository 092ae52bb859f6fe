// Package exif maps raw exiftool records into the response shapes the API
// serves: the normalized full record, the Fujifilm recipe subset, and
// filename proposals from metadata templates.
package exif

import (
	"strconv"
)

// Record is one image's metadata as emitted by exiftool: tag name to value.
// Values are the dynamic JSON types exiftool produces (string, float64, ...).
type Record map[string]any

// String returns the value for key rendered as a string, or "" when the key
// is absent or holds a non-scalar value.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

// first returns the first non-empty string value among keys.
func (r Record) first(keys ...string) string {
	for _, key := range keys {
		if s := r.String(key); s != "" {
			return s
		}
	}
	return ""
}

// stringOr is like first but falls back to def when every key is empty.
func (r Record) stringOr(def string, keys ...string) string {
	if s := r.first(keys...); s != "" {
		return s
	}
	return def
}

// Normalize prepares a raw exiftool record for a response. Path-bearing tags
// are stripped so server-side temp paths never leak, and FileName is replaced
// with the client-declared upload name.
func Normalize(r Record, uploadName string) Record {
	out := make(Record, len(r))
	for k, v := range r {
		switch k {
		case "SourceFile", "Directory", "FilePermissions":
			continue
		}
		out[k] = v
	}
	if uploadName != "" {
		out["FileName"] = uploadName
	}
	return out
}
