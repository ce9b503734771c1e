package pipeline

import (
	"log"
	"time"

	"github.com/postalhub/letter-dispatch/internal/database"
	"github.com/postalhub/letter-dispatch/internal/models"
)

// StaleTask flags UPLOADED letters whose vendor confirmation has not arrived
// within the expected business-day window.
type StaleTask struct {
	repo         database.LetterRepository
	window       *DowntimeWindow
	businessDays int
	now          func() time.Time
}

func NewStaleTask(repo database.LetterRepository, window *DowntimeWindow, businessDays int) *StaleTask {
	return &StaleTask{repo: repo, window: window, businessDays: businessDays, now: time.Now}
}

// Cutoff computes the staleness cutoff in storage time (UTC). The reference
// is the current business-timezone time, except that at or past the vendor's
// daily downtime start the reference snaps back to today's downtime start: a
// letter generated during or after the blackout cannot be collected before
// the vendor's next working window, so it counts as generated then. From the
// reference, the configured number of business days is subtracted, skipping
// weekends.
func (t *StaleTask) Cutoff() time.Time {
	reference := t.now().In(t.window.Location())
	if downtimeStart := t.window.StartOn(reference); !reference.Before(downtimeStart) {
		reference = downtimeStart
	}

	return subtractBusinessDays(reference, t.businessDays).UTC()
}

func subtractBusinessDays(from time.Time, days int) time.Time {
	date := from
	for businessDays := 0; businessDays < days; {
		date = date.AddDate(0, 0, -1)
		if date.Weekday() != time.Saturday && date.Weekday() != time.Sunday {
			businessDays++
		}
	}
	return date
}

// StaleLetters returns the letters overdue as of now: status UPLOADED with
// sent-to-print-at strictly before the cutoff. Letters in any other status
// are excluded by the query.
func (t *StaleTask) StaleLetters() ([]*models.Letter, error) {
	return t.repo.FindStale(t.Cutoff())
}

func (t *StaleTask) Run() error {
	letters, err := t.StaleLetters()
	if err != nil {
		return err
	}

	for _, letter := range letters {
		log.Printf("STALE: letter %s (service %s, type %s) sent to print at %s, no confirmation yet",
			letter.ID, letter.Service, letter.Type, letter.SentToPrintAt.Format(time.RFC3339))
	}
	if len(letters) > 0 {
		log.Printf("Staleness run found %d overdue letters", len(letters))
	}

	return nil
}
