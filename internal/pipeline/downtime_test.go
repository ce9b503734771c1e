package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDowntimeWindow(t *testing.T) {
	t.Run("Expect: times inside the window are contained", func(t *testing.T) {
		window, err := NewDowntimeWindow("22:30", "23:30", "UTC")
		require.NoError(t, err)

		assert.True(t, window.Contains(time.Date(2026, 8, 20, 22, 30, 0, 0, time.UTC)))
		assert.True(t, window.Contains(time.Date(2026, 8, 20, 23, 15, 0, 0, time.UTC)))
		assert.False(t, window.Contains(time.Date(2026, 8, 20, 23, 30, 0, 0, time.UTC)))
		assert.False(t, window.Contains(time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("Expect: a window wrapping past midnight is handled", func(t *testing.T) {
		window, err := NewDowntimeWindow("23:00", "01:00", "UTC")
		require.NoError(t, err)

		assert.True(t, window.Contains(time.Date(2026, 8, 20, 23, 30, 0, 0, time.UTC)))
		assert.True(t, window.Contains(time.Date(2026, 8, 21, 0, 30, 0, 0, time.UTC)))
		assert.False(t, window.Contains(time.Date(2026, 8, 21, 1, 0, 0, 0, time.UTC)))
		assert.False(t, window.Contains(time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("Expect: containment is evaluated in the business timezone", func(t *testing.T) {
		window, err := NewDowntimeWindow("22:30", "23:30", "Europe/Berlin")
		require.NoError(t, err)

		// 20:45 UTC is 22:45 in Berlin during DST.
		assert.True(t, window.Contains(time.Date(2026, 8, 20, 20, 45, 0, 0, time.UTC)))
	})

	t.Run("Expect: StartOn pins the downtime start to the reference day", func(t *testing.T) {
		window, err := NewDowntimeWindow("22:30", "23:30", "UTC")
		require.NoError(t, err)

		start := window.StartOn(time.Date(2026, 8, 20, 23, 10, 0, 0, time.UTC))
		assert.Equal(t, time.Date(2026, 8, 20, 22, 30, 0, 0, time.UTC), start)
	})

	t.Run("Expect: a malformed clock time is rejected", func(t *testing.T) {
		_, err := NewDowntimeWindow("25:99", "23:30", "UTC")
		assert.Error(t, err)
	})
}
