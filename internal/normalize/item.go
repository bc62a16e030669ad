package normalize

import (
	"cmp"
	"encoding/json"
	"slices"
	"strconv"
	"strings"
)

// Canonical keys written by NormalizeItem
const (
	KeyFaceID      = "face_id"
	KeyFaceIDAlias = "FaceId"
	KeyName        = "name"
	KeyMobile      = "mobile"
	KeyTimestamp   = "timestamp"
	KeyCreatedAt   = "created_at"
	KeyMatchCount  = "match_count"
)

const (
	keyFaceIDCollapsed = "faceid"
	keyFaceName        = "facename"
)

// Record is a list item with lowercase snake_case keys plus the legacy FaceId alias
type Record map[string]any

// NormalizeItem returns a canonical copy of src. Every source value survives
// under its lowercased key; FaceName outranks a generic name for the name key.
// src is never mutated.
func NormalizeItem(src map[string]any) Record {
	out := make(Record, len(src)+3)
	nameSet := false

	for _, key := range processingOrder(src) {
		value := src[key]
		lowerKey := strings.ToLower(key)

		if lowerKey == KeyName || lowerKey == keyFaceName {
			if !nameSet {
				out[KeyName] = value
				nameSet = true
			}
			if lowerKey != KeyName {
				out[lowerKey] = value
			}
			continue
		}

		// the exact lowercase spelling wins when several casings collapse together
		if _, exists := out[lowerKey]; !exists || key == lowerKey {
			out[lowerKey] = value
		}

		if lowerKey == keyFaceIDCollapsed || lowerKey == KeyFaceID {
			if _, exists := out[KeyFaceID]; !exists || key == KeyFaceID {
				out[KeyFaceID] = value
			}
		}
	}

	if faceID, ok := out[KeyFaceID]; ok {
		out[KeyFaceIDAlias] = faceID
	}

	if _, ok := out[KeyTimestamp]; !ok {
		if createdAt, ok := out[KeyCreatedAt]; ok {
			out[KeyTimestamp] = createdAt
		}
	}

	if count, ok := out[KeyMatchCount]; ok {
		out[KeyMatchCount] = toNumber(count)
	}

	if _, ok := out[KeyMobile]; !ok {
		if mobile, ok := src["Mobile"]; ok {
			out[KeyMobile] = mobile
		}
	}
	if _, ok := out[KeyName]; !ok {
		if name, ok := src["Name"]; ok {
			out[KeyName] = name
		}
	}

	return out
}

// processingOrder sorts keys so the name rule is deterministic: FaceName
// variants first, then the exact "name", then other casings of it.
func processingOrder(src map[string]any) []string {
	keys := make([]string, 0, len(src))
	for key := range src {
		keys = append(keys, key)
	}

	rank := func(key string) int {
		switch lower := strings.ToLower(key); {
		case lower == keyFaceName:
			return 0
		case key == KeyName:
			return 1
		case lower == KeyName:
			return 2
		default:
			return 3
		}
	}

	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return keys
}

func toNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// String returns the value under key rendered as a string, or "" when absent
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}

// FirstString returns the first non-empty string among keys
func (r Record) FirstString(keys ...string) string {
	for _, key := range keys {
		if s := r.String(key); s != "" {
			return s
		}
	}
	return ""
}

// Number returns the value under key coerced to a number
func (r Record) Number(key string) float64 {
	return toNumber(r[key])
}
