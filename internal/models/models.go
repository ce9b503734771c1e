package models

import (
	"time"
)

type Status string

const (
	StatusCreated  Status = "CREATED"
	StatusUploaded Status = "UPLOADED"
	StatusPosted   Status = "POSTED"
	StatusAborted  Status = "ABORTED"
)

// Letter is one print job submitted by a client service. Content is held
// only while the letter is CREATED and is cleared on upload.
type Letter struct {
	ID             string
	Checksum       string
	Service        string
	Type           string
	AdditionalData map[string]string
	CreatedAt      time.Time
	SentToPrintAt  *time.Time
	PrintedAt      *time.Time
	Status         Status
	Content        []byte
	Encrypted      bool
	KeyFingerprint string
	CopyCount      int
}

// Document is one template plus the field values substituted into it by the
// external render function.
type Document struct {
	Template []byte
	Fields   map[string]string
}

// Request is the normalized intake payload. A request carries either
// Documents to render or EncodedPDFs already rendered by the caller.
type Request struct {
	Documents      []Document
	EncodedPDFs    []string
	Type           string
	AdditionalData map[string]string
	CopyCount      int
}

// DuplicateLetter records a benign uniqueness conflict hit by the deferred
// intake worker. Audit only, never read back by the pipeline.
type DuplicateLetter struct {
	ID        int
	LetterID  string
	Checksum  string
	Service   string
	CreatedAt time.Time
}

// ExceptionLetter records an uncaught deferred-intake failure for operator
// inspection.
type ExceptionLetter struct {
	ID        int
	LetterID  string
	Service   string
	Message   string
	CreatedAt time.Time
}

// Confirmation is one parsed row of a vendor delivery report.
type Confirmation struct {
	LetterID  string
	PrintedAt time.Time
}
