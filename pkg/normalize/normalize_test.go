package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecord = `{"id":"8f14e45f-ceea-467f-a8f3-1b9b3c1a2e01","name":"Blue Bottle","price":520,"size":"Tall","tags":["drip","quiet"]}`

func TestNormalize_Envelopes(t *testing.T) {
	payloads := map[string]string{
		"bare array":  `[` + sampleRecord + `]`,
		"chains":      `{"chains":[` + sampleRecord + `]}`,
		"data.chains": `{"data":{"chains":[` + sampleRecord + `]}}`,
		"items":       `{"items":[` + sampleRecord + `]}`,
		"results":     `{"results":[` + sampleRecord + `]}`,
	}

	want, err := Normalize([]byte(payloads["bare array"]))
	require.NoError(t, err)
	require.Len(t, want, 1)

	for name, body := range payloads {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize([]byte(body))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalize_EnvelopeOrder(t *testing.T) {
	// "chains" wins over "items" when both hold arrays.
	body := `{"items":[{"name":"Items"}],"chains":[{"name":"Chains"}]}`
	got, err := Normalize([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chains", got[0].Name)

	// A non-array "chains" does not parse, so the next shape is tried.
	body = `{"chains":"none","results":[{"name":"Results"}]}`
	got, err = Normalize([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Results", got[0].Name)
}

func TestNormalize_UnrecognizedEnvelope(t *testing.T) {
	for _, body := range []string{``, `{}`, `{"data":{"items":[]}}`, `"text"`, `{"chains":{"name":"x"}}`, `[1,2]`} {
		_, err := Normalize([]byte(body))
		assert.ErrorIs(t, err, ErrUnrecognizedEnvelope, "body %q", body)
	}
}

func TestNormalize_EmptyList(t *testing.T) {
	got, err := Normalize([]byte(`{"chains":[]}`))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestNormalize_FieldCoercion(t *testing.T) {
	tests := []struct {
		name   string
		record string
		check  func(t *testing.T, got []string, price, distance int)
	}{
		{
			name:   "price digits from string",
			record: `{"name":"a","price_yen":"¥450"}`,
			check: func(t *testing.T, _ []string, price, _ int) {
				assert.Equal(t, 450, price)
			},
		},
		{
			name:   "distance decimal rounds half up",
			record: `{"name":"a","distance_meters":123.7}`,
			check: func(t *testing.T, _ []string, _, distance int) {
				assert.Equal(t, 124, distance)
			},
		},
		{
			name:   "half rounds up",
			record: `{"name":"a","distance":10.5}`,
			check: func(t *testing.T, _ []string, _, distance int) {
				assert.Equal(t, 11, distance)
			},
		},
		{
			name:   "missing tags yields empty list",
			record: `{"name":"a"}`,
			check: func(t *testing.T, tags []string, _, _ int) {
				assert.NotNil(t, tags)
				assert.Empty(t, tags)
			},
		},
		{
			name:   "tags_csv split and trimmed",
			record: `{"name":"a","tags_csv":" drip , wifi,,power "}`,
			check: func(t *testing.T, tags []string, _, _ int) {
				assert.Equal(t, []string{"drip", "wifi", "power"}, tags)
			},
		},
		{
			name:   "categories synonym",
			record: `{"name":"a","categories":["cafe"]}`,
			check: func(t *testing.T, tags []string, _, _ int) {
				assert.Equal(t, []string{"cafe"}, tags)
			},
		},
		{
			name:   "unparsable price defaults to zero",
			record: `{"name":"a","price":"free","distance":-3}`,
			check: func(t *testing.T, _ []string, price, distance int) {
				assert.Equal(t, 0, price)
				assert.Equal(t, 0, distance)
			},
		},
		{
			name:   "later synonym used when earlier one is garbage",
			record: `{"name":"a","price":true,"price_jpy":380}`,
			check: func(t *testing.T, _ []string, price, _ int) {
				assert.Equal(t, 380, price)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize([]byte(`[` + tt.record + `]`))
			require.NoError(t, err)
			require.Len(t, got, 1)
			tt.check(t, got[0].Tags, got[0].Price, got[0].Distance)
		})
	}
}

func TestNormalize_OptionalFields(t *testing.T) {
	body := `[{
		"uuid": "0b6f2c1e-7f0a-4c1e-9a51-2d5b8f3a9c10",
		"name": "Doutor",
		"size_label": "S",
		"thumbnail_url": "https://img.example.com/doutor.png",
		"updated_at": "2024-05-01T09:30:00Z",
		"address": "Tokyo",
		"business_hours": "月-金: 7:00-21:00",
		"phone": "+81-3-0000-0000",
		"lat": 35.68,
		"lng": "139.76"
	}]`

	got, err := Normalize([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 1)
	c := got[0]

	assert.Equal(t, uuid.MustParse("0b6f2c1e-7f0a-4c1e-9a51-2d5b8f3a9c10"), c.ID)
	assert.Equal(t, "S", c.SizeLabel)
	assert.Equal(t, "https://img.example.com/doutor.png", c.ImageURL)
	require.NotNil(t, c.UpdatedAt)
	assert.True(t, c.UpdatedAt.Equal(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, "Tokyo", c.Address)
	assert.Equal(t, "月-金: 7:00-21:00", c.OpeningHours)
	assert.Equal(t, "+81-3-0000-0000", c.PhoneNumber)

	lat, lon, ok := c.Coordinate()
	require.True(t, ok)
	assert.InDelta(t, 35.68, lat, 1e-9)
	assert.InDelta(t, 139.76, lon, 1e-9)
}

func TestNormalize_CoordinatesJointlyPresent(t *testing.T) {
	got, err := Normalize([]byte(`[{"name":"a","latitude":35.6}]`))
	require.NoError(t, err)
	_, _, ok := got[0].Coordinate()
	assert.False(t, ok)
	assert.Nil(t, got[0].Latitude)
	assert.Nil(t, got[0].Longitude)
}

func TestNormalize_EpochUpdatedAt(t *testing.T) {
	got, err := Normalize([]byte(`[{"name":"a","updatedAt":1700000000}]`))
	require.NoError(t, err)
	require.NotNil(t, got[0].UpdatedAt)
	assert.Equal(t, int64(1700000000), got[0].UpdatedAt.Unix())
}

func TestNormalize_OutOfRangeEpochIgnored(t *testing.T) {
	got, err := Normalize([]byte(`[{"name":"a","updated_at":1e30}]`))
	require.NoError(t, err)
	assert.Nil(t, got[0].UpdatedAt)
}

func TestNormalize_InvalidOptionalsIgnored(t *testing.T) {
	got, err := Normalize([]byte(`[{"name":"a","id":"not-a-uuid","image_url":"not a url","updated_at":"yesterday"}]`))
	require.NoError(t, err)
	c := got[0]
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Empty(t, c.ImageURL)
	assert.Nil(t, c.UpdatedAt)
}

func TestNormalize_GeneratedIDsDiffer(t *testing.T) {
	got, err := Normalize([]byte(`[{"name":"a"},{"name":"b"}]`))
	require.NoError(t, err)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestNormalize_MissingNameFailsBatch(t *testing.T) {
	got, err := Normalize([]byte(`[{"name":"ok"},{"price":300},{"name":"also ok"}]`))
	assert.Nil(t, got)

	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 1, mre.Index)

	_, err = Normalize([]byte(`[{"name":""}]`))
	assert.True(t, errors.As(err, &mre))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"message":"quota exceeded"}`, "quota exceeded"},
		{`{"error":"unauthorized"}`, "unauthorized"},
		{`{"message":"first","error":"second"}`, "first"},
		{`{"message":"","error":"fallback"}`, "fallback"},
		{`{"error":{"code":403}}`, ""},
		{`{"status":"bad"}`, ""},
		{`<html>502</html>`, ""},
		{``, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorMessage([]byte(tt.body)), "body %q", tt.body)
	}
}
