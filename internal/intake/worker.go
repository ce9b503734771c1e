package intake

import (
	"log"
	"sync"
	"time"

	"github.com/postalhub/letter-dispatch/internal/database"
	"github.com/postalhub/letter-dispatch/internal/models"
)

// Job is one deferred intake request. The letter id was already handed to
// the caller, so the job carries it rather than allocating its own.
type Job struct {
	LetterID string
	Checksum string
	Service  string
	Request  models.Request
}

// Worker is the bounded pool behind the deferred intake path. Each job ends
// in exactly one of three sinks: the letters table on success, a
// duplicate_letters audit row on a uniqueness conflict, or an
// exception_letters audit row on any other failure. Nothing propagates back
// to the original caller.
type Worker struct {
	repo     database.LetterRepository
	packager Packager
	jobs     chan Job
	wg       sync.WaitGroup
	now      func() time.Time
}

func NewWorker(repo database.LetterRepository, packager Packager, queueSize int) *Worker {
	return &Worker{
		repo:     repo,
		packager: packager,
		jobs:     make(chan Job, queueSize),
		now:      time.Now,
	}
}

func (w *Worker) Start(numWorkers int) {
	for i := 1; i <= numWorkers; i++ {
		w.wg.Add(1)
		go w.run(i)
	}
}

func (w *Worker) Enqueue(job Job) {
	w.jobs <- job
}

// Close stops accepting jobs and waits for the in-flight ones to finish.
func (w *Worker) Close() {
	close(w.jobs)
	w.wg.Wait()
}

func (w *Worker) run(workerID int) {
	defer w.wg.Done()
	for job := range w.jobs {
		w.Handle(job)
		log.Printf("Intake worker %d finished letter %s", workerID, job.LetterID)
	}
}

// Handle processes one deferred job and routes its outcome.
func (w *Worker) Handle(job Job) {
	err := buildAndPersist(w.repo, w.packager, w.now, job)
	if err == nil {
		return
	}

	if database.IsUniqueViolation(err) {
		// A concurrent submission with the same checksum won the insert.
		// Benign: record it for operator inspection and move on.
		dup := &models.DuplicateLetter{
			LetterID:  job.LetterID,
			Checksum:  job.Checksum,
			Service:   job.Service,
			CreatedAt: w.now().UTC(),
		}
		if auditErr := w.repo.InsertDuplicateLetter(dup); auditErr != nil {
			log.Printf("ERROR: failed to record duplicate letter %s: %v", job.LetterID, auditErr)
		}
		return
	}

	log.Printf("ERROR: deferred intake failed for letter %s: %v", job.LetterID, err)
	exc := &models.ExceptionLetter{
		LetterID:  job.LetterID,
		Service:   job.Service,
		Message:   err.Error(),
		CreatedAt: w.now().UTC(),
	}
	if auditErr := w.repo.InsertExceptionLetter(exc); auditErr != nil {
		log.Printf("ERROR: failed to record exception letter %s: %v", job.LetterID, auditErr)
	}
}
