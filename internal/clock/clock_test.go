package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOfDayUsesTheaterOffset(t *testing.T) {
	// 20:30 UTC is already the next calendar day at UTC+7.
	c := NewFixed(time.Date(2025, 3, 10, 20, 30, 0, 0, time.UTC), 7*time.Hour)

	start, end := Today(c)

	assert.Equal(t, time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, time.Date(2025, 3, 11, 17, 0, 0, 0, time.UTC), end.UTC())
	assert.Equal(t, 11, c.Now().Day())
}

func TestParseTime(t *testing.T) {
	c := NewFixed(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 7*time.Hour)

	withOffset, err := ParseTime(c, "2025-03-10T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), withOffset.UTC())

	local, err := ParseTime(c, "2025-03-10T17:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), local.UTC())

	_, err = ParseTime(c, "tomorrow")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	c := NewFixed(time.Now(), 7*time.Hour)

	d, err := ParseDate(c, "2025-12-24")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 12, 23, 17, 0, 0, 0, time.UTC), d.UTC())

	_, err = ParseDate(c, "24/12/2025")
	assert.Error(t, err)
}

func TestParseOffset(t *testing.T) {
	cases := map[string]time.Duration{
		"+07:00": 7 * time.Hour,
		"-0530":  -(5*time.Hour + 30*time.Minute),
		"7":      7 * time.Hour,
		"7h":     7 * time.Hour,
		"0":      0,
	}
	for in, want := range cases {
		got, err := ParseOffset(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "+7:0", "+07:99", "abc"} {
		_, err := ParseOffset(bad)
		assert.Error(t, err, bad)
	}
}

func TestFixedAdvance(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewFixed(start, 0)
	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())
}
