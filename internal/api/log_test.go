package api

import (
	"testing"
)

func TestFormatLogLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "sorted params, long values dropped",
			input: `time=2026-01-18T06:50:46.074+01:00 level=WARN msg="Failed to fetch cafes" provider=places error="server error (code: 503) - backend is unavailable right now" count=0`,
			want:  "06:50:46 Failed to fetch cafes (count=0, provider=places)",
		},
		{
			name:  "no params",
			input: `time=2026-01-18T06:50:46Z level=ERROR msg=boom`,
			want:  "06:50:46 boom",
		},
		{
			name:  "not key value",
			input: "plain text",
			want:  "plain text",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatLogLine(tt.input); got != tt.want {
				t.Errorf("formatLogLine() = %q, want %q", got, tt.want)
			}
		})
	}
}
