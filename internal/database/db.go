package database

import (
	"time"

	"github.com/postalhub/letter-dispatch/internal/models"
)

// LetterRepository is the persistence boundary of the pipeline. The intake
// service is the sole writer of CREATED letters, the upload pipeline of the
// CREATED→UPLOADED transition, and report reconciliation of UPLOADED→POSTED.
type LetterRepository interface {
	CreateSchema() error
	InsertLetter(letter *models.Letter) error
	FindLetterByID(id string) (*models.Letter, error)
	FindCreatedByChecksum(checksum string) (*models.Letter, error)
	FindOldestCreated(limit, offset int) ([]*models.Letter, error)
	FindPending() ([]*models.Letter, error)
	FindStale(cutoff time.Time) ([]*models.Letter, error)
	MarkUploaded(id string, sentToPrintAt time.Time) error
	MarkPosted(id string, printedAt time.Time) (bool, error)
	Abort(id string) error
	InsertDuplicateLetter(dup *models.DuplicateLetter) error
	InsertExceptionLetter(exc *models.ExceptionLetter) error
}

// TaskLocker guards a named task so that at most one service instance runs
// it at any instant. Contention resolves to skip, never to wait.
type TaskLocker interface {
	Run(taskID int32, fn func() error) (bool, error)
}
