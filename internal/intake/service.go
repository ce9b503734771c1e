package intake

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/postalhub/letter-dispatch/internal/database"
	"github.com/postalhub/letter-dispatch/internal/models"
	"github.com/postalhub/letter-dispatch/pkg/checksum"
)

// Packager turns an intake request into upload-ready letter content. The
// second return is the fingerprint of the encryption key used, empty when
// encryption is off.
type Packager interface {
	Package(req models.Request) ([]byte, string, error)
}

type Service struct {
	repo     database.LetterRepository
	packager Packager
	worker   *Worker
	now      func() time.Time
	newID    func() string
}

func NewService(repo database.LetterRepository, packager Packager, worker *Worker) *Service {
	return &Service{
		repo:     repo,
		packager: packager,
		worker:   worker,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Save deduplicates, renders, packages and persists one letter request and
// returns the letter id. Resubmitting identical content while the earlier
// letter is still CREATED returns that letter's id with no new work; once it
// has been uploaded the same content yields a fresh letter.
//
// With async set, the caller gets the id immediately and the render, package
// and persist work runs on the background worker pool in its own unit of
// work. No outcome of that work is ever reported back to the caller.
func (s *Service) Save(req models.Request, serviceName string, async bool) (string, error) {
	if strings.TrimSpace(serviceName) == "" {
		return "", fmt.Errorf("%w: service name is required", models.ErrValidation)
	}

	sum := checksum.Fingerprint(req)
	existing, err := s.repo.FindCreatedByChecksum(sum)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	id := s.newID()
	job := Job{LetterID: id, Checksum: sum, Service: serviceName, Request: req}

	if async {
		s.worker.Enqueue(job)
		return id, nil
	}

	if err := buildAndPersist(s.repo, s.packager, s.now, job); err != nil {
		return "", err
	}

	return id, nil
}

// buildAndPersist is the shared tail of both intake paths: package the
// request and persist the letter as CREATED.
func buildAndPersist(repo database.LetterRepository, packager Packager, now func() time.Time, job Job) error {
	content, fingerprint, err := packager.Package(job.Request)
	if err != nil {
		return err
	}

	copyCount := job.Request.CopyCount
	if copyCount < 1 {
		copyCount = 1
	}

	letter := &models.Letter{
		ID:             job.LetterID,
		Checksum:       job.Checksum,
		Service:        job.Service,
		Type:           job.Request.Type,
		AdditionalData: job.Request.AdditionalData,
		CreatedAt:      now().UTC(),
		Status:         models.StatusCreated,
		Content:        content,
		Encrypted:      fingerprint != "",
		KeyFingerprint: fingerprint,
		CopyCount:      copyCount,
	}

	return repo.InsertLetter(letter)
}
