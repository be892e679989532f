package day

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "middle of day",
			in:   time.Date(2024, 3, 10, 15, 4, 5, 6, time.UTC),
			want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "already midnight",
			in:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "other zone crosses into previous UTC day",
			in:   time.Date(2024, 3, 10, 0, 30, 0, 0, time.FixedZone("WAT", 3600)),
			want: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Start(tt.in))
		})
	}
}

func TestBounds(t *testing.T) {
	start, end := Bounds(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestTrailing(t *testing.T) {
	now := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)

	days := Trailing(now, 7)

	require.Len(t, days, 7)
	assert.Equal(t, time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), days[6])
	for i := 1; i < len(days); i++ {
		assert.Equal(t, 24*time.Hour, days[i].Sub(days[i-1]))
	}

	assert.Nil(t, Trailing(now, 0))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Mon", Label(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Sun", Label(time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)))
}

func TestUTC(t *testing.T) {
	naive := time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), UTC(naive))

	aware := time.Date(2024, 5, 1, 13, 0, 0, 0, time.FixedZone("WAT", 3600))
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), UTC(aware))
	assert.Equal(t, time.UTC, UTC(aware).Location())

	assert.True(t, UTC(time.Time{}).IsZero())
	assert.Nil(t, UTCPtr(nil))
	require.NotNil(t, UTCPtr(&naive))
	assert.Equal(t, time.UTC, UTCPtr(&naive).Location())
}
