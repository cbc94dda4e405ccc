package normalize

import (
	"bytes"
	"encoding/json"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// record is one raw chain object with its values left undecoded.
type record map[string]json.RawMessage

// present returns the raw value for key, treating JSON null as absent.
func (r record) present(key string) (json.RawMessage, bool) {
	raw, ok := r[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

// lookupString returns the first non-empty string value among keys.
func lookupString(r record, keys ...string) (string, bool) {
	for _, k := range keys {
		raw, ok := r.present(k)
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s, true
		}
	}
	return "", false
}

// lookupInt resolves a non-negative integer in three passes over keys:
// integer values, then decimals rounded half-up, then digits extracted from strings.
func lookupInt(r record, keys ...string) (int, bool) {
	for _, k := range keys {
		raw, ok := r.present(k)
		if !ok {
			continue
		}
		var n int64
		if err := json.Unmarshal(raw, &n); err == nil && n >= 0 && n <= math.MaxInt32 {
			return int(n), true
		}
	}
	for _, k := range keys {
		raw, ok := r.present(k)
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil && f >= 0 && f <= math.MaxInt32 {
			return int(math.Floor(f + 0.5)), true
		}
	}
	for _, k := range keys {
		raw, ok := r.present(k)
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if n, ok := extractDigits(s); ok {
			return n, true
		}
	}
	return 0, false
}

// extractDigits keeps only the ASCII digits of s, so "¥1,200" becomes 1200.
// Every other rune is dropped, including a minus sign: "-450" reads as 450.
func extractDigits(s string) (int, bool) {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil || n > math.MaxInt32 {
		return 0, false
	}
	return n, true
}

// lookupFloat returns the first numeric value among keys. Numeric strings are accepted.
func lookupFloat(r record, keys ...string) (float64, bool) {
	for _, k := range keys {
		raw, ok := r.present(k)
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return f, true
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// lookupStringList returns the first value among keys that decodes as a list of strings.
func lookupStringList(r record, keys ...string) ([]string, bool) {
	for _, k := range keys {
		raw, ok := r.present(k)
		if !ok {
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, true
		}
	}
	return nil, false
}

// lookupCSV splits a comma separated string value into trimmed, non-empty items.
func lookupCSV(r record, key string) ([]string, bool) {
	s, ok := lookupString(r, key)
	if !ok {
		return nil, false
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, true
}

// lookupUUID returns the first value among keys that parses as a UUID.
func lookupUUID(r record, keys ...string) (uuid.UUID, bool) {
	for _, k := range keys {
		raw, ok := r.present(k)
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

// lookupURL returns the first string value among keys that parses as an absolute URI.
func lookupURL(r record, keys ...string) (string, bool) {
	for _, k := range keys {
		s, ok := lookupString(r, k)
		if !ok {
			continue
		}
		u, err := url.Parse(strings.TrimSpace(s))
		if err != nil || u.Scheme == "" {
			continue
		}
		return u.String(), true
	}
	return "", false
}

// maxEpochSeconds is 9999-12-31T23:59:59Z.
const maxEpochSeconds = 253402300799

// lookupTime accepts an ISO-8601 string or a Unix epoch seconds number.
// Epoch values beyond year 9999 in either direction are ignored.
func lookupTime(r record, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		raw, ok := r.present(k)
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s)); err == nil {
				return t, true
			}
			continue
		}
		var secs float64
		if err := json.Unmarshal(raw, &secs); err == nil && math.Abs(secs) <= maxEpochSeconds {
			whole, frac := math.Modf(secs)
			return time.Unix(int64(whole), int64(frac*1e9)).UTC(), true
		}
	}
	return time.Time{}, false
}
