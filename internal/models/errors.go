package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a request rejected before any work happened,
	// typically a missing service identity.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidInput marks a malformed submitted document, such as a bad
	// base64 encoding.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEncryption marks a public key that could not be parsed or carries
	// no encryption-capable key material.
	ErrEncryption = errors.New("encryption failed")

	// ErrLetterNotFound is returned by lookups for unknown letter ids.
	ErrLetterNotFound = errors.New("letter not found")
)

// FtpError is the single error kind for any SFTP or network failure. The
// scheduler retries by re-running the task on the next tick, so the client
// never retries internally.
type FtpError struct {
	Op  string
	Err error
}

func (e *FtpError) Error() string {
	return fmt.Sprintf("ftp %s: %v", e.Op, e.Err)
}

func (e *FtpError) Unwrap() error {
	return e.Err
}

// RowError marks a single unparseable report row. It fails only that row,
// never the report or the run.
type RowError struct {
	Line    int
	Message string
	Err     error
}

func (e *RowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("report row %d: %s: %v", e.Line, e.Message, e.Err)
	}
	return fmt.Sprintf("report row %d: %s", e.Line, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
