package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postalhub/letter-dispatch/internal/models"
)

func ConnectDB(connStr string) (*pgxpool.Pool, error) {
	dbpool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	return dbpool, nil
}

type PostgresLetterRepository struct {
	dbpool *pgxpool.Pool
	ctx    context.Context
}

func NewPostgresLetterRepository(ctx context.Context, pool *pgxpool.Pool) *PostgresLetterRepository {
	return &PostgresLetterRepository{dbpool: pool, ctx: ctx}
}

func (m *PostgresLetterRepository) CreateSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS letters (
			id UUID PRIMARY KEY,
			checksum VARCHAR(64) NOT NULL,
			service VARCHAR(255) NOT NULL,
			letter_type VARCHAR(255) NOT NULL,
			additional_data JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			sent_to_print_at TIMESTAMPTZ,
			printed_at TIMESTAMPTZ,
			status VARCHAR(50) NOT NULL CHECK (status IN ('CREATED', 'UPLOADED', 'POSTED', 'ABORTED')),
			content BYTEA,
			encrypted BOOLEAN NOT NULL DEFAULT FALSE,
			key_fingerprint VARCHAR(255),
			copy_count INTEGER NOT NULL DEFAULT 1
		);`,
		// The partial unique index is what turns a concurrent duplicate
		// submission on the deferred path into a 23505 the worker can route
		// to the audit table. Once a letter leaves CREATED its checksum is
		// free for reuse.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_letters_checksum_created
			ON letters (checksum) WHERE status = 'CREATED';`,
		`CREATE INDEX IF NOT EXISTS idx_letters_status_created_at
			ON letters (status, created_at);`,
		`CREATE TABLE IF NOT EXISTS duplicate_letters (
			id SERIAL PRIMARY KEY,
			letter_id UUID NOT NULL,
			checksum VARCHAR(64) NOT NULL,
			service VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS exception_letters (
			id SERIAL PRIMARY KEY,
			letter_id UUID NOT NULL,
			service VARCHAR(255) NOT NULL,
			message TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
	}

	for _, query := range queries {
		if _, err := m.dbpool.Exec(m.ctx, query); err != nil {
			return fmt.Errorf("error creating schema: %v", err)
		}
	}

	return nil
}

func (m *PostgresLetterRepository) InsertLetter(letter *models.Letter) error {
	query := `
	INSERT INTO letters (id, checksum, service, letter_type, additional_data, created_at, status, content, encrypted, key_fingerprint, copy_count)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);`

	_, err := m.dbpool.Exec(m.ctx, query,
		letter.ID, letter.Checksum, letter.Service, letter.Type, letter.AdditionalData,
		letter.CreatedAt, letter.Status, letter.Content, letter.Encrypted,
		letter.KeyFingerprint, letter.CopyCount)
	if err != nil {
		return fmt.Errorf("error inserting letter: %w", err)
	}

	return nil
}

const letterColumns = `id, checksum, service, letter_type, additional_data, created_at, sent_to_print_at, printed_at, status, content, encrypted, key_fingerprint, copy_count`

func scanLetter(row pgx.Row) (*models.Letter, error) {
	var letter models.Letter
	err := row.Scan(&letter.ID, &letter.Checksum, &letter.Service, &letter.Type,
		&letter.AdditionalData, &letter.CreatedAt, &letter.SentToPrintAt,
		&letter.PrintedAt, &letter.Status, &letter.Content, &letter.Encrypted,
		&letter.KeyFingerprint, &letter.CopyCount)
	if err != nil {
		return nil, err
	}
	return &letter, nil
}

func (m *PostgresLetterRepository) FindLetterByID(id string) (*models.Letter, error) {
	query := fmt.Sprintf(`SELECT %s FROM letters WHERE id = $1;`, letterColumns)

	letter, err := scanLetter(m.dbpool.QueryRow(m.ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLetterNotFound
		}
		return nil, fmt.Errorf("error finding letter by id: %v", err)
	}

	return letter, nil
}

func (m *PostgresLetterRepository) FindCreatedByChecksum(checksum string) (*models.Letter, error) {
	query := fmt.Sprintf(`
	SELECT %s FROM letters
	WHERE checksum = $1 AND status = 'CREATED'
	ORDER BY created_at DESC
	LIMIT 1;`, letterColumns)

	letter, err := scanLetter(m.dbpool.QueryRow(m.ctx, query, checksum))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding letter by checksum: %v", err)
	}

	return letter, nil
}

func (m *PostgresLetterRepository) queryLetters(query string, args ...any) ([]*models.Letter, error) {
	rows, err := m.dbpool.Query(m.ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying letters: %v", err)
	}
	defer rows.Close()

	var letters []*models.Letter
	for rows.Next() {
		letter, err := scanLetter(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning letter: %v", err)
		}
		letters = append(letters, letter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over letters: %v", err)
	}

	return letters, nil
}

func (m *PostgresLetterRepository) FindOldestCreated(limit, offset int) ([]*models.Letter, error) {
	query := fmt.Sprintf(`
	SELECT %s FROM letters
	WHERE status = 'CREATED'
	ORDER BY created_at ASC
	LIMIT $1 OFFSET $2;`, letterColumns)

	return m.queryLetters(query, limit, offset)
}

func (m *PostgresLetterRepository) FindPending() ([]*models.Letter, error) {
	query := fmt.Sprintf(`
	SELECT %s FROM letters
	WHERE status = 'CREATED'
	ORDER BY created_at ASC;`, letterColumns)

	return m.queryLetters(query)
}

func (m *PostgresLetterRepository) FindStale(cutoff time.Time) ([]*models.Letter, error) {
	query := fmt.Sprintf(`
	SELECT %s FROM letters
	WHERE status = 'UPLOADED' AND sent_to_print_at < $1
	ORDER BY sent_to_print_at ASC;`, letterColumns)

	return m.queryLetters(query, cutoff)
}

// MarkUploaded advances a CREATED letter to UPLOADED, stamps the upload time
// and reclaims the stored binary content, all in one statement.
func (m *PostgresLetterRepository) MarkUploaded(id string, sentToPrintAt time.Time) error {
	query := `
	UPDATE letters
	SET status = 'UPLOADED',
		sent_to_print_at = $2,
		content = NULL
	WHERE id = $1 AND status = 'CREATED';`

	tag, err := m.dbpool.Exec(m.ctx, query, id, sentToPrintAt)
	if err != nil {
		return fmt.Errorf("error marking letter %s uploaded: %v", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("letter %s is not in CREATED status", id)
	}

	return nil
}

// MarkPosted advances an UPLOADED letter to POSTED. It reports false when the
// letter was not in UPLOADED status, which reconciliation treats as a benign
// replay.
func (m *PostgresLetterRepository) MarkPosted(id string, printedAt time.Time) (bool, error) {
	query := `
	UPDATE letters
	SET status = 'POSTED',
		printed_at = $2
	WHERE id = $1 AND status = 'UPLOADED';`

	tag, err := m.dbpool.Exec(m.ctx, query, id, printedAt)
	if err != nil {
		return false, fmt.Errorf("error marking letter %s posted: %v", id, err)
	}

	return tag.RowsAffected() > 0, nil
}

func (m *PostgresLetterRepository) Abort(id string) error {
	query := `
	UPDATE letters
	SET status = 'ABORTED',
		content = NULL
	WHERE id = $1 AND status IN ('CREATED', 'UPLOADED');`

	tag, err := m.dbpool.Exec(m.ctx, query, id)
	if err != nil {
		return fmt.Errorf("error aborting letter %s: %v", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("letter %s is not in an abortable status", id)
	}

	return nil
}

func (m *PostgresLetterRepository) InsertDuplicateLetter(dup *models.DuplicateLetter) error {
	query := `
	INSERT INTO duplicate_letters (letter_id, checksum, service, created_at)
	VALUES ($1, $2, $3, $4);`

	_, err := m.dbpool.Exec(m.ctx, query, dup.LetterID, dup.Checksum, dup.Service, dup.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting duplicate letter record: %v", err)
	}

	return nil
}

func (m *PostgresLetterRepository) InsertExceptionLetter(exc *models.ExceptionLetter) error {
	query := `
	INSERT INTO exception_letters (letter_id, service, message, created_at)
	VALUES ($1, $2, $3, $4);`

	_, err := m.dbpool.Exec(m.ctx, query, exc.LetterID, exc.Service, exc.Message, exc.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting exception letter record: %v", err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation, the benign outcome of a concurrent duplicate submission.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
