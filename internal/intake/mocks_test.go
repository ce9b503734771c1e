package intake

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/postalhub/letter-dispatch/internal/models"
)

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
	letter, _ := args.Get(0).(*models.Letter)
	return letter, args.Error(1)
}

func (m *MockLetterRepository) FindCreatedByChecksum(checksum string) (*models.Letter, error) {
	args := m.Called(checksum)
	letter, _ := args.Get(0).(*models.Letter)
	return letter, args.Error(1)
}

func (m *MockLetterRepository) FindOldestCreated(limit, offset int) ([]*models.Letter, error) {
	args := m.Called(limit, offset)
	letters, _ := args.Get(0).([]*models.Letter)
	return letters, args.Error(1)
}

func (m *MockLetterRepository) FindPending() ([]*models.Letter, error) {
	args := m.Called()
	letters, _ := args.Get(0).([]*models.Letter)
	return letters, args.Error(1)
}

func (m *MockLetterRepository) FindStale(cutoff time.Time) ([]*models.Letter, error) {
	args := m.Called(cutoff)
	letters, _ := args.Get(0).([]*models.Letter)
	return letters, args.Error(1)
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

type MockPackager struct {
	mock.Mock
}

func (m *MockPackager) Package(req models.Request) ([]byte, string, error) {
	args := m.Called(req)
	content, _ := args.Get(0).([]byte)
	return content, args.String(1), args.Error(2)
}
