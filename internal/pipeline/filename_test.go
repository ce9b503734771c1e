package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postalhub/letter-dispatch/internal/models"
)

func TestGenerateFilename(t *testing.T) {
	createdAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Expect: encrypted letters get the pgp extension", func(t *testing.T) {
		letter := &models.Letter{
			ID:        "0b7e3fb6-9a8f-4a37-a2a4-2f8f9f0a1b2c",
			Service:   "billing",
			Type:      "INVOICE",
			CreatedAt: createdAt,
			Encrypted: true,
		}

		assert.Equal(t, "INVOICE_billing_20260801120000_0b7e3fb6-9a8f-4a37-a2a4-2f8f9f0a1b2c.pgp", GenerateFilename(letter))
	})

	t.Run("Expect: plain letters get the zip extension", func(t *testing.T) {
		letter := &models.Letter{
			ID:        "0b7e3fb6-9a8f-4a37-a2a4-2f8f9f0a1b2c",
			Service:   "billing",
			Type:      "INVOICE",
			CreatedAt: createdAt,
		}

		assert.Equal(t, "INVOICE_billing_20260801120000_0b7e3fb6-9a8f-4a37-a2a4-2f8f9f0a1b2c.zip", GenerateFilename(letter))
	})
}

func TestFilenameRoundTrip(t *testing.T) {
	t.Run("Expect: ExtractID inverts GenerateFilename for names containing the separator", func(t *testing.T) {
		letter := &models.Letter{
			ID:        uuid.NewString(),
			Service:   "customer_care_portal",
			Type:      "DUNNING_NOTICE",
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}

		id, err := ExtractID(GenerateFilename(letter))
		require.NoError(t, err)
		assert.Equal(t, letter.ID, id)
	})

	t.Run("Expect: ExtractID handles full remote paths", func(t *testing.T) {
		letter := &models.Letter{
			ID:        uuid.NewString(),
			Service:   "billing",
			Type:      "INVOICE",
			CreatedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			Encrypted: true,
		}

		id, err := ExtractID("letters/billing/" + GenerateFilename(letter))
		require.NoError(t, err)
		assert.Equal(t, letter.ID, id)
	})

	t.Run("Expect: a filename without a letter id is rejected", func(t *testing.T) {
		_, err := ExtractID("INVOICE_billing_20260801120000_not-an-id.zip")
		assert.Error(t, err)
	})
}
