package pipeline

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/postalhub/letter-dispatch/internal/ftp"
	"github.com/postalhub/letter-dispatch/internal/models"
)

// MockLetterRepository is a mock implementation of the LetterRepository interface.
type MockLetterRepository struct {
	mock.Mock
}

func (m *MockLetterRepository) CreateSchema() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockLetterRepository) InsertLetter(letter *models.Letter) error {
	args := m.Called(letter)
	return args.Error(0)
}

func (m *MockLetterRepository) FindLetterByID(id string) (*models.Letter, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Letter), args.Error(1)
}

func (m *MockLetterRepository) FindCreatedByChecksum(checksum string) (*models.Letter, error) {
	args := m.Called(checksum)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Letter), args.Error(1)
}

func (m *MockLetterRepository) FindOldestCreated(limit, offset int) ([]*models.Letter, error) {
	args := m.Called(limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Letter), args.Error(1)
}

func (m *MockLetterRepository) FindPending() ([]*models.Letter, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Letter), args.Error(1)
}

func (m *MockLetterRepository) FindStale(cutoff time.Time) ([]*models.Letter, error) {
	args := m.Called(cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Letter), args.Error(1)
}

func (m *MockLetterRepository) MarkUploaded(id string, sentToPrintAt time.Time) error {
	args := m.Called(id, sentToPrintAt)
	return args.Error(0)
}

func (m *MockLetterRepository) MarkPosted(id string, printedAt time.Time) (bool, error) {
	args := m.Called(id, printedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockLetterRepository) Abort(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockLetterRepository) InsertDuplicateLetter(dup *models.DuplicateLetter) error {
	args := m.Called(dup)
	return args.Error(0)
}

func (m *MockLetterRepository) InsertExceptionLetter(exc *models.ExceptionLetter) error {
	args := m.Called(exc)
	return args.Error(0)
}

// MockVendorClient is a mock implementation of the VendorClient interface.
type MockVendorClient struct {
	mock.Mock
}

func (m *MockVendorClient) Upload(data []byte, targetFolder, filename string) error {
	args := m.Called(data, targetFolder, filename)
	return args.Error(0)
}

func (m *MockVendorClient) DownloadReports() ([]ftp.Report, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ftp.Report), args.Error(1)
}

func (m *MockVendorClient) DeleteReport(remotePath string) error {
	args := m.Called(remotePath)
	return args.Error(0)
}

// neverDown is a window that contains no time at all, for tasks that should
// always run in tests.
func neverDown() *DowntimeWindow {
	window, err := NewDowntimeWindow("00:00", "00:00", "UTC")
	if err != nil {
		panic(err)
	}
	return window
}
