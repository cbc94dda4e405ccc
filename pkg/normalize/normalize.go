// Package normalize decodes loosely specified cafe chain payloads into model.Chain records.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"cafedoko/pkg/model"

	"github.com/google/uuid"
)

// ErrUnrecognizedEnvelope is returned when the payload matches none of the accepted envelope shapes.
var ErrUnrecognizedEnvelope = errors.New("unrecognized response envelope")

// MalformedRecordError reports a record without its mandatory name.
// A single malformed record fails the whole batch.
type MalformedRecordError struct {
	Index int
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("record %d: missing name", e.Index)
}

// Field synonyms, first present and parseable key wins.
var (
	idKeys        = []string{"id", "uuid"}
	priceKeys     = []string{"price", "price_yen", "price_jpy"}
	sizeKeys      = []string{"sizeLabel", "size_label", "size"}
	distanceKeys  = []string{"distance", "distance_meters"}
	tagKeys       = []string{"tags", "categories"}
	imageKeys     = []string{"image_url", "thumbnail_url"}
	updatedKeys   = []string{"updated_at", "updatedAt"}
	hoursKeys     = []string{"opening_hours", "business_hours"}
	phoneKeys     = []string{"phone_number", "phone"}
	latitudeKeys  = []string{"latitude", "lat"}
	longitudeKeys = []string{"longitude", "lon", "lng"}
)

// Normalize decodes raw into chains. Accepted envelopes, tried in order:
// a bare array, {"chains":[...]}, {"data":{"chains":[...]}}, {"items":[...]}, {"results":[...]}.
func Normalize(raw []byte) ([]model.Chain, error) {
	records, err := unwrap(raw)
	if err != nil {
		return nil, err
	}

	chains := make([]model.Chain, 0, len(records))
	for i, rec := range records {
		c, err := decodeRecord(rec)
		if err != nil {
			var mre *MalformedRecordError
			if errors.As(err, &mre) {
				mre.Index = i
			}
			return nil, err
		}
		chains = append(chains, c)
	}
	return chains, nil
}

func unwrap(raw []byte) ([]record, error) {
	trimmed := bytes.TrimSpace(raw)

	var list []record
	if err := json.Unmarshal(trimmed, &list); err == nil {
		return list, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, ErrUnrecognizedEnvelope
	}

	if list, ok := arrayAt(obj, "chains"); ok {
		return list, nil
	}
	if data, ok := obj["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err == nil {
			if list, ok := arrayAt(inner, "chains"); ok {
				return list, nil
			}
		}
	}
	for _, key := range []string{"items", "results"} {
		if list, ok := arrayAt(obj, key); ok {
			return list, nil
		}
	}
	return nil, ErrUnrecognizedEnvelope
}

func arrayAt(obj map[string]json.RawMessage, key string) ([]record, bool) {
	raw, ok := obj[key]
	if !ok {
		return nil, false
	}
	var list []record
	if err := json.Unmarshal(raw, &list); err != nil || list == nil {
		return nil, false
	}
	return list, true
}

func decodeRecord(r record) (model.Chain, error) {
	name, ok := lookupString(r, "name")
	if !ok {
		return model.Chain{}, &MalformedRecordError{}
	}

	c := model.Chain{Name: name, Tags: []string{}}

	if id, ok := lookupUUID(r, idKeys...); ok {
		c.ID = id
	} else {
		c.ID = uuid.New()
	}
	if n, ok := lookupInt(r, priceKeys...); ok {
		c.Price = n
	}
	if n, ok := lookupInt(r, distanceKeys...); ok {
		c.Distance = n
	}
	c.SizeLabel, _ = lookupString(r, sizeKeys...)

	if tags, ok := lookupStringList(r, tagKeys...); ok {
		c.Tags = append(c.Tags, tags...)
	} else if tags, ok := lookupCSV(r, "tags_csv"); ok {
		c.Tags = append(c.Tags, tags...)
	}

	c.ImageURL, _ = lookupURL(r, imageKeys...)
	if t, ok := lookupTime(r, updatedKeys...); ok {
		c.UpdatedAt = &t
	}
	c.Address, _ = lookupString(r, "address")
	c.OpeningHours, _ = lookupString(r, hoursKeys...)
	c.PhoneNumber, _ = lookupString(r, phoneKeys...)

	lat, latOK := lookupFloat(r, latitudeKeys...)
	lon, lonOK := lookupFloat(r, longitudeKeys...)
	if latOK && lonOK && validCoordinate(lat, lon) {
		c.SetCoordinate(lat, lon)
	}
	return c, nil
}

func validCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ErrorMessage extracts a human-readable cause from an error response body,
// reading "message" and then "error". It returns "" when neither is a string.
func ErrorMessage(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
