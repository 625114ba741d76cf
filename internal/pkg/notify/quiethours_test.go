package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 6, 10, hour, min, 0, 0, time.UTC)
}

func TestQuietWindow_WrapsMidnight(t *testing.T) {
	in, until := QuietWindow(at(23, 0), "22:00", "06:00")
	require.True(t, in)
	assert.Equal(t, 7*time.Hour, until.Sub(at(23, 0)))

	in, until = QuietWindow(at(3, 30), "22:00", "06:00")
	require.True(t, in)
	assert.Equal(t, at(6, 0), until)

	in, _ = QuietWindow(at(10, 0), "22:00", "06:00")
	assert.False(t, in)
}

func TestQuietWindow_Bounds(t *testing.T) {
	tests := []struct {
		now   time.Time
		start string
		end   string
		want  bool
	}{
		{at(22, 0), "22:00", "06:00", true},
		{at(6, 0), "22:00", "06:00", false},
		{at(21, 59), "22:00", "06:00", false},
		{at(12, 0), "12:00", "14:00", true},
		{at(13, 59), "12:00", "14:00", true},
		{at(14, 0), "12:00", "14:00", false},
		{at(11, 0), "12:00", "14:00", false},
		{at(0, 0), "00:00", "00:00", false},
		{at(3, 0), "", "06:00", false},
		{at(3, 0), "22:00", "6am", false},
	}
	for _, tt := range tests {
		got, _ := QuietWindow(tt.now, tt.start, tt.end)
		assert.Equal(t, tt.want, got, "%s in [%s,%s)", tt.now.Format("15:04"), tt.start, tt.end)
	}
}

func TestQuietWindow_UsesLocation(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	// 21:30 UTC is 23:30 in Berlin during summer time.
	now := time.Date(2026, 6, 10, 21, 30, 0, 0, time.UTC).In(berlin)
	in, until := QuietWindow(now, "22:00", "07:00")
	require.True(t, in)
	assert.Equal(t, time.Date(2026, 6, 11, 7, 0, 0, 0, berlin), until)
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("07:45")
	require.NoError(t, err)
	assert.Equal(t, 7*60+45, m)

	for _, bad := range []string{"7:45", "24:00", "12:60", "aa:bb", "1200", ""} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, bad)
	}
}
