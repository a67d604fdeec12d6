package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"8", "08:00", true},
		{"80", "08:00", true},
		{"12", "12:00", true},
		{"830", "08:30", true},
		{"1230", "12:30", true},
		{"1500", "15:00", true},
		{"8:00", "08:00", true},
		{"15:45", "15:45", true},
		{"2575", "23:59", true}, // clamped, not rejected
		{"99", "23:00", true},
		{"abc", "", false},
		{"", "", false},
		{"12345", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTimeToken(tt.in)
		assert.Equal(t, tt.ok, ok, "token %q", tt.in)
		assert.Equal(t, tt.want, got, "token %q", tt.in)
	}
}

func TestExtractTimeRanges(t *testing.T) {
	ranges := ExtractTimeRanges("OPD 8:00-11:00 then 12:00 to 14:00")
	assert.Equal(t, []string{"08:00-11:00", "12:00-14:00"}, ranges)

	// Seconds are tolerated and dropped.
	ranges = ExtractTimeRanges("9:00:00-13:00:00")
	assert.Equal(t, []string{"09:00-13:00"}, ranges)

	assert.Empty(t, ExtractTimeRanges("no times here"))
}

func TestFirstTime(t *testing.T) {
	assert.Equal(t, "09:30", FirstTime("clinic at 9:30 today"))
	assert.Equal(t, "", FirstTime("no clock"))
}

func TestNormalizeClockPiece(t *testing.T) {
	assert.Equal(t, "08:00", normalizeClockPiece("8"))
	assert.Equal(t, "08:30", normalizeClockPiece("830"))
	assert.Equal(t, "08:30", normalizeClockPiece("8 : 30"))
	assert.Equal(t, "11:00", normalizeClockPiece("1100"))
}
