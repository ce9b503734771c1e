package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postalhub/letter-dispatch/internal/models"
)

// fakeRender stands in for the external template engine and produces a
// one-page document regardless of input.
func fakeRender(template []byte, fields map[string]string) ([]byte, error) {
	return blankPage(595.28, 841.89), nil
}

func pageCount(t *testing.T, pdf []byte) int {
	t.Helper()
	count, err := api.PageCount(bytes.NewReader(pdf), pdfConfiguration())
	require.NoError(t, err)
	return count
}

func TestBlankPage(t *testing.T) {
	t.Run("Expect: the padding page is a valid one-page document", func(t *testing.T) {
		pdf := blankPage(595.28, 841.89)

		assert.Equal(t, 1, pageCount(t, pdf))
	})

	t.Run("Expect: the media box matches the requested size", func(t *testing.T) {
		pdf := blankPage(612, 792)

		dims, err := api.PageDims(bytes.NewReader(pdf), pdfConfiguration())
		require.NoError(t, err)
		require.Len(t, dims, 1)
		assert.InDelta(t, 612, dims[0].Width, 0.01)
		assert.InDelta(t, 792, dims[0].Height, 0.01)
	})
}

func TestPadDuplex(t *testing.T) {
	t.Run("Expect: an odd page count gains one blank page", func(t *testing.T) {
		padded, err := padDuplex(blankPage(595.28, 841.89), pdfConfiguration())

		require.NoError(t, err)
		assert.Equal(t, 2, pageCount(t, padded))
	})

	t.Run("Expect: an even page count is left untouched", func(t *testing.T) {
		padded, err := padDuplex(blankPage(595.28, 841.89), pdfConfiguration())
		require.NoError(t, err)

		again, err := padDuplex(padded, pdfConfiguration())

		require.NoError(t, err)
		assert.Equal(t, padded, again)
	})
}

func TestRenderTemplates(t *testing.T) {
	t.Run("Expect: every document is padded before the merge", func(t *testing.T) {
		renderer := NewRenderer(fakeRender)
		docs := []models.Document{
			{Template: []byte("invoice"), Fields: map[string]string{"name": "Ada"}},
			{Template: []byte("reminder"), Fields: nil},
		}

		merged, err := renderer.RenderTemplates(docs)

		require.NoError(t, err)
		assert.Equal(t, 4, pageCount(t, merged))
	})

	t.Run("Expect: a render failure names the offending document", func(t *testing.T) {
		renderer := NewRenderer(func([]byte, map[string]string) ([]byte, error) {
			return nil, errors.New("missing placeholder")
		})

		_, err := renderer.RenderTemplates([]models.Document{{Template: []byte("invoice")}})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "document 0")
	})

	t.Run("Expect: an empty request is invalid input", func(t *testing.T) {
		renderer := NewRenderer(fakeRender)

		_, err := renderer.RenderTemplates(nil)

		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestRenderEncodedPDFs(t *testing.T) {
	t.Run("Expect: decoded documents go through the same pad and merge", func(t *testing.T) {
		renderer := NewRenderer(nil)
		encoded := base64.StdEncoding.EncodeToString(blankPage(595.28, 841.89))

		merged, err := renderer.RenderEncodedPDFs([]string{encoded})

		require.NoError(t, err)
		assert.Equal(t, 2, pageCount(t, merged))
	})

	t.Run("Expect: malformed base64 is invalid input", func(t *testing.T) {
		renderer := NewRenderer(nil)

		_, err := renderer.RenderEncodedPDFs([]string{"not/base64!!"})

		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}
