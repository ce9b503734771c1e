package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/postalhub/letter-dispatch/internal/database"
	"github.com/postalhub/letter-dispatch/internal/ftp"
)

// VendorClient is the slice of the FTP client the pipeline tasks consume.
type VendorClient interface {
	Upload(data []byte, targetFolder, filename string) error
	DownloadReports() ([]ftp.Report, error)
	DeleteReport(remotePath string) error
}

// UploadTask ships batches of CREATED letters to the vendor. It runs under
// the distributed task lock and skips entirely inside the vendor downtime
// window.
type UploadTask struct {
	repo        database.LetterRepository
	client      VendorClient
	window      *DowntimeWindow
	folders     map[string]string
	smokeType   string
	smokeFolder string
	batchSize   int
	now         func() time.Time
}

func NewUploadTask(repo database.LetterRepository, client VendorClient, window *DowntimeWindow,
	folders map[string]string, smokeType, smokeFolder string, batchSize int) *UploadTask {
	return &UploadTask{
		repo:        repo,
		client:      client,
		window:      window,
		folders:     folders,
		smokeType:   smokeType,
		smokeFolder: smokeFolder,
		batchSize:   batchSize,
		now:         time.Now,
	}
}

// targetFolder resolves the vendor folder for a letter. Smoke-test letters
// route to their own folder so they never land in business reporting; an
// unmapped service is a configuration error that fails the whole run.
func (t *UploadTask) targetFolder(service, letterType string) (string, error) {
	if letterType == t.smokeType {
		return t.smokeFolder, nil
	}
	folder, ok := t.folders[service]
	if !ok {
		return "", fmt.Errorf("no target folder configured for service %q", service)
	}
	return folder, nil
}

// Run uploads CREATED letters oldest-first in pages of batchSize until a
// fetch comes back empty. Each letter commits on its own: upload, then mark
// UPLOADED, stamp sent-to-print-at and clear the stored content in one
// statement. A crash mid-run leaves finished letters advanced and the rest
// CREATED for the next tick. The first upload failure aborts the run so an
// FTP outage is never misread as scattered per-letter failures and letters
// are never shipped out of order around one.
func (t *UploadTask) Run() error {
	if t.window.Contains(t.now()) {
		log.Println("Upload run skipped: inside vendor downtime window")
		return nil
	}

	total := 0
	for page := 0; ; page++ {
		letters, err := t.repo.FindOldestCreated(t.batchSize, page*t.batchSize)
		if err != nil {
			return err
		}
		if len(letters) == 0 {
			break
		}

		for _, letter := range letters {
			folder, err := t.targetFolder(letter.Service, letter.Type)
			if err != nil {
				return err
			}

			filename := GenerateFilename(letter)
			if err := t.client.Upload(letter.Content, folder, filename); err != nil {
				return fmt.Errorf("upload run aborted at letter %s: %w", letter.ID, err)
			}

			if err := t.repo.MarkUploaded(letter.ID, t.now().UTC()); err != nil {
				return err
			}
			total++
		}
	}

	if total > 0 {
		log.Printf("Upload run finished: %d letters sent to print", total)
	}
	return nil
}
