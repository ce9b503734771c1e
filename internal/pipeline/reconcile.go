package pipeline

import (
	"errors"
	"log"
	"time"

	"github.com/postalhub/letter-dispatch/internal/database"
	"github.com/postalhub/letter-dispatch/internal/models"
	"github.com/postalhub/letter-dispatch/internal/parser"
)

// ReconcileTask applies the vendor's CSV delivery confirmations back onto
// stored letter state. Lock-guarded and downtime-guarded like the upload
// task.
type ReconcileTask struct {
	repo   database.LetterRepository
	client VendorClient
	window *DowntimeWindow
	now    func() time.Time
}

func NewReconcileTask(repo database.LetterRepository, client VendorClient, window *DowntimeWindow) *ReconcileTask {
	return &ReconcileTask{repo: repo, client: client, window: window, now: time.Now}
}

// Run downloads every report, applies its rows idempotently and deletes a
// report from the vendor server only when every row parsed. A report with
// unparseable rows stays behind for manual handling; it must never be
// silently discarded.
func (t *ReconcileTask) Run() error {
	if t.window.Contains(t.now()) {
		log.Println("Reconciliation run skipped: inside vendor downtime window")
		return nil
	}

	reports, err := t.client.DownloadReports()
	if err != nil {
		return err
	}

	for _, report := range reports {
		confirmations, rowErrors, err := parser.ParseReport(report.Data, ExtractID)
		if err != nil {
			log.Printf("WARN: report %s is unreadable, leaving it in place: %v", report.Path, err)
			continue
		}
		for _, rowErr := range rowErrors {
			log.Printf("WARN: report %s: %v", report.Path, rowErr)
		}

		for _, confirmation := range confirmations {
			if err := t.apply(confirmation); err != nil {
				return err
			}
		}

		if len(rowErrors) > 0 {
			log.Printf("Report %s not fully parsed (%d bad rows), leaving it in place", report.Path, len(rowErrors))
			continue
		}
		if err := t.client.DeleteReport(report.Path); err != nil {
			return err
		}
		log.Printf("Report %s applied (%d confirmations) and deleted", report.Path, len(confirmations))
	}

	return nil
}

// apply advances one confirmed letter to POSTED. Replayed confirmations for
// letters that already left UPLOADED, and confirmations for unknown letters,
// are skipped with a warning; they never regress state or fail the run.
func (t *ReconcileTask) apply(confirmation models.Confirmation) error {
	posted, err := t.repo.MarkPosted(confirmation.LetterID, confirmation.PrintedAt)
	if err != nil {
		return err
	}
	if posted {
		return nil
	}

	letter, err := t.repo.FindLetterByID(confirmation.LetterID)
	if errors.Is(err, models.ErrLetterNotFound) {
		log.Printf("WARN: confirmation for unknown letter %s, skipping", confirmation.LetterID)
		return nil
	}
	if err != nil {
		return err
	}

	log.Printf("WARN: confirmation for letter %s in status %s, skipping", letter.ID, letter.Status)
	return nil
}
