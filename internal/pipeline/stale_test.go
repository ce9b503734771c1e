package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postalhub/letter-dispatch/internal/models"
)

func buildStaleTask(t *testing.T, repo *MockLetterRepository, businessDays int, now time.Time) *StaleTask {
	t.Helper()
	window, err := NewDowntimeWindow("22:30", "23:30", "UTC")
	require.NoError(t, err)

	task := NewStaleTask(repo, window, businessDays)
	task.now = func() time.Time { return now }
	return task
}

func TestStaleTask_Cutoff(t *testing.T) {
	t.Run("Expect: before the downtime start the current time is the reference", func(t *testing.T) {
		// Thursday 2026-08-20 10:00 UTC, five business days back is the
		// previous Thursday.
		now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
		task := buildStaleTask(t, nil, 5, now)

		assert.Equal(t, time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC), task.Cutoff())
	})

	t.Run("Expect: during the blackout the reference snaps to today's downtime start", func(t *testing.T) {
		now := time.Date(2026, 8, 20, 23, 0, 0, 0, time.UTC)
		task := buildStaleTask(t, nil, 5, now)

		assert.Equal(t, time.Date(2026, 8, 13, 22, 30, 0, 0, time.UTC), task.Cutoff())
	})

	t.Run("Expect: weekends are skipped", func(t *testing.T) {
		// Monday 2026-08-24 minus one business day is Friday 2026-08-21.
		now := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
		task := buildStaleTask(t, nil, 1, now)

		assert.Equal(t, time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC), task.Cutoff())
	})

	t.Run("Expect: a letter sent exactly at the cutoff is not yet stale", func(t *testing.T) {
		now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
		task := buildStaleTask(t, nil, 5, now)
		cutoff := task.Cutoff()

		// Staleness is sent-to-print-at strictly before the cutoff.
		atCutoff := cutoff
		justBefore := cutoff.Add(-time.Second)
		assert.False(t, atCutoff.Before(cutoff))
		assert.True(t, justBefore.Before(cutoff))
	})
}

func TestStaleTask_Run(t *testing.T) {
	t.Run("Expect: the repository is queried with the computed cutoff", func(t *testing.T) {
		now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
		repo := new(MockLetterRepository)
		task := buildStaleTask(t, repo, 5, now)

		sentAt := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
		overdue := createdLetter("billing", "INVOICE")
		overdue.Status = models.StatusUploaded
		overdue.SentToPrintAt = &sentAt

		repo.On("FindStale", time.Date(2026, 8, 13, 10, 0, 0, 0, time.UTC)).
			Return([]*models.Letter{overdue}, nil)

		require.NoError(t, task.Run())
		repo.AssertExpectations(t)
	})
}
