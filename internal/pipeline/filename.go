package pipeline

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/postalhub/letter-dispatch/internal/models"
)

const filenameSeparator = "_"

const filenameTimeLayout = "20060102150405"

// normalizeToken strips the separator out of a name segment so that the
// letter id stays the last separator-delimited token no matter what the
// callers name their services and letter types.
func normalizeToken(s string) string {
	return strings.ReplaceAll(s, filenameSeparator, "")
}

// GenerateFilename builds the deterministic upload filename:
// type_service_timestamp_id.ext, extension zip or pgp depending on
// encryption. ExtractID is its exact inverse.
func GenerateFilename(letter *models.Letter) string {
	ext := "zip"
	if letter.Encrypted {
		ext = "pgp"
	}
	return fmt.Sprintf("%s%s%s%s%s%s%s.%s",
		normalizeToken(letter.Type), filenameSeparator,
		normalizeToken(letter.Service), filenameSeparator,
		letter.CreatedAt.UTC().Format(filenameTimeLayout), filenameSeparator,
		letter.ID, ext)
}

// ExtractID recovers the letter id from an upload filename as reported back
// by the vendor.
func ExtractID(filename string) (string, error) {
	base := path.Base(filename)
	stem := strings.TrimSuffix(base, path.Ext(base))

	tokens := strings.Split(stem, filenameSeparator)
	id := tokens[len(tokens)-1]
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("filename %q does not end in a letter id: %w", filename, err)
	}

	return id, nil
}
