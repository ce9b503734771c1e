package checksum

import (
	"encoding/binary"
	"encoding/hex"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/postalhub/letter-dispatch/internal/models"
)

// CalculateHash digests an ordered list of parts. Each part is length-prefixed
// so that shifting content between adjacent parts changes the digest.
func CalculateHash(parts []string) string {
	digest := xxhash.New()
	var lenBuf [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(part)))
		digest.Write(lenBuf[:])
		digest.WriteString(part)
	}
	return hex.EncodeToString(digest.Sum(nil))
}

// Fingerprint computes the dedup key for an intake request. The field and
// iteration order is fixed: documents in submission order with their fields
// sorted by key, then the encoded PDFs, then type, additional data sorted by
// key, and the copy count. Equal semantic content yields an equal digest.
func Fingerprint(req models.Request) string {
	parts := make([]string, 0, 8)
	for _, doc := range req.Documents {
		parts = append(parts, string(doc.Template))
		for _, key := range sortedKeys(doc.Fields) {
			parts = append(parts, key, doc.Fields[key])
		}
	}
	parts = append(parts, req.EncodedPDFs...)
	parts = append(parts, req.Type)
	for _, key := range sortedKeys(req.AdditionalData) {
		parts = append(parts, key, req.AdditionalData[key])
	}
	parts = append(parts, strconv.Itoa(req.CopyCount))
	return CalculateHash(parts)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
