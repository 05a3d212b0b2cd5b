package extract

import (
	"strconv"
	"time"
)

// canonical display form for timestamps: RFC3339 in UTC, second precision.
const canonicalTime = "2006-01-02T15:04:05Z07:00"

// timestampLayouts are the encodings seen across provider responses, tried
// in order. The canonical form itself parses first, which makes Timestamp
// idempotent.
var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999Z0700", // lambda LastModified: +0000 without colon
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Timestamp normalizes heterogeneous timestamp encodings (epoch seconds,
// epoch millis, ISO-8601 variants) into the canonical display form.
// Unparsable input passes through unchanged.
func Timestamp(raw any) string {
	switch t := raw.(type) {
	case time.Time:
		return t.UTC().Format(canonicalTime)
	case float64:
		return epochToTime(t).UTC().Format(canonicalTime)
	case int64:
		return epochToTime(float64(t)).UTC().Format(canonicalTime)
	case int:
		return epochToTime(float64(t)).UTC().Format(canonicalTime)
	case string:
		if n, err := strconv.ParseFloat(t, 64); err == nil && n > 1e8 {
			return epochToTime(n).UTC().Format(canonicalTime)
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC().Format(canonicalTime)
			}
		}
		return t
	default:
		return Display(raw)
	}
}

// epochToTime treats values past the year ~33658 in seconds as milliseconds.
func epochToTime(n float64) time.Time {
	if n >= 1e12 {
		return time.UnixMilli(int64(n))
	}
	return time.Unix(int64(n), 0)
}

// Bytes renders a byte count in IEC units.
func Bytes(raw any) string {
	var n float64
	switch t := raw.(type) {
	case float64:
		n = t
	case int64:
		n = float64(t)
	case int:
		n = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return t
		}
		n = parsed
	default:
		return Display(raw)
	}

	const unit = 1024
	if n < unit {
		return strconv.FormatInt(int64(n), 10) + " B"
	}
	suffixes := []string{"KiB", "MiB", "GiB", "TiB", "PiB"}
	div, exp := float64(unit), 0
	for n/div >= unit && exp < len(suffixes)-1 {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(n/div, 'f', 1, 64) + " " + suffixes[exp]
}

// truncateLimit bounds cell width for long values like queue URLs.
const truncateLimit = 60

// Truncate shortens long display strings.
func Truncate(raw any) string {
	s := Display(raw)
	if len(s) <= truncateLimit {
		return s
	}
	return s[:truncateLimit-3] + "..."
}

// Format applies one named formatting hook. Hooks compose: a column lists
// them in order and each receives the previous output. Unknown hook names
// fall through to plain display.
func Format(name string, raw any) any {
	switch name {
	case "timestamp":
		return Timestamp(raw)
	case "bytes":
		return Bytes(raw)
	case "truncate":
		return Truncate(raw)
	default:
		return raw
	}
}

// FormatAll applies a chain of hooks and renders the result.
func FormatAll(names []string, raw any) string {
	v := raw
	for _, name := range names {
		v = Format(name, v)
	}
	return Display(v)
}
