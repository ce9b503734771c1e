package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/postalhub/letter-dispatch/internal/models"
)

// RenderFunc converts a template and its field values into PDF bytes. The
// engine behind it is an external collaborator; it is pure and errors on a
// malformed template.
type RenderFunc func(template []byte, fields map[string]string) ([]byte, error)

type Renderer struct {
	render RenderFunc
}

func NewRenderer(render RenderFunc) *Renderer {
	return &Renderer{render: render}
}

func pdfConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// RenderTemplates renders every document, pads each to an even page count
// and merges the results, preserving submission order, into one PDF.
func (r *Renderer) RenderTemplates(docs []models.Document) ([]byte, error) {
	pdfs := make([][]byte, 0, len(docs))
	for i, doc := range docs {
		pdf, err := r.render(doc.Template, doc.Fields)
		if err != nil {
			return nil, fmt.Errorf("error rendering document %d: %w", i, err)
		}
		pdfs = append(pdfs, pdf)
	}

	return padAndMerge(pdfs)
}

// RenderEncodedPDFs decodes pre-rendered base64 documents and applies the
// same pad and merge step as RenderTemplates.
func (r *Renderer) RenderEncodedPDFs(encoded []string) ([]byte, error) {
	pdfs := make([][]byte, 0, len(encoded))
	for i, enc := range encoded {
		pdf, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("%w: document %d is not valid base64: %v", models.ErrInvalidInput, i, err)
		}
		pdfs = append(pdfs, pdf)
	}

	return padAndMerge(pdfs)
}

func padAndMerge(pdfs [][]byte) ([]byte, error) {
	if len(pdfs) == 0 {
		return nil, fmt.Errorf("%w: request contains no documents", models.ErrInvalidInput)
	}

	conf := pdfConfiguration()
	readers := make([]io.ReadSeeker, 0, len(pdfs))
	for i, pdf := range pdfs {
		padded, err := padDuplex(pdf, conf)
		if err != nil {
			return nil, fmt.Errorf("error padding document %d: %w", i, err)
		}
		readers = append(readers, bytes.NewReader(padded))
	}

	var merged bytes.Buffer
	if err := api.MergeRaw(readers, &merged, false, conf); err != nil {
		return nil, fmt.Errorf("error merging documents: %w", err)
	}

	return merged.Bytes(), nil
}

// padDuplex appends one blank page, sized to match the document's last page,
// when the page count is odd. A single-sided trailing page would mis-align a
// duplex print job.
func padDuplex(pdf []byte, conf *model.Configuration) ([]byte, error) {
	count, err := api.PageCount(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("error counting pages: %w", err)
	}
	if count%2 == 0 {
		return pdf, nil
	}

	dims, err := api.PageDims(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("error reading page dimensions: %w", err)
	}
	last := dims[len(dims)-1]

	var padded bytes.Buffer
	readers := []io.ReadSeeker{
		bytes.NewReader(pdf),
		bytes.NewReader(blankPage(last.Width, last.Height)),
	}
	if err := api.MergeRaw(readers, &padded, false, conf); err != nil {
		return nil, fmt.Errorf("error appending blank page: %w", err)
	}

	return padded.Bytes(), nil
}
