package render

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zip"

	"github.com/postalhub/letter-dispatch/internal/models"
)

// archiveEntryName is the deterministic entry name inside every letter
// archive; the vendor's ingestion keys on the archive filename, not the
// entry.
const archiveEntryName = "letter.pdf"

// Zip wraps content into a single-entry archive.
func Zip(content []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entry, err := zw.Create(archiveEntryName)
	if err != nil {
		return nil, fmt.Errorf("error creating archive entry: %w", err)
	}
	if _, err := entry.Write(content); err != nil {
		return nil, fmt.Errorf("error writing archive entry: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("error finalizing archive: %w", err)
	}

	return buf.Bytes(), nil
}

// Packager runs the full packaging chain for one intake request: render (or
// decode), pad, merge, zip and, when configured, encrypt.
type Packager struct {
	renderer   *Renderer
	encrypt    bool
	armoredKey string
}

func NewPackager(renderer *Renderer, encrypt bool, armoredKey string) *Packager {
	return &Packager{renderer: renderer, encrypt: encrypt, armoredKey: armoredKey}
}

// Package returns the letter content ready for upload plus the fingerprint
// of the encryption key used, empty when encryption is disabled.
func (p *Packager) Package(req models.Request) ([]byte, string, error) {
	var pdf []byte
	var err error
	if len(req.EncodedPDFs) > 0 {
		pdf, err = p.renderer.RenderEncodedPDFs(req.EncodedPDFs)
	} else {
		pdf, err = p.renderer.RenderTemplates(req.Documents)
	}
	if err != nil {
		return nil, "", err
	}

	zipped, err := Zip(pdf)
	if err != nil {
		return nil, "", err
	}

	if !p.encrypt {
		return zipped, "", nil
	}

	return Encrypt(zipped, p.armoredKey)
}
