package pdfops

import (
	"context"
	"strings"

	"github.com/gomutex/godocx"

	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/observability"
	"github.com/smartpdf/smartpdf/internal/store"
)

// ConvertDoc rebuilds a PDF's text as an editable word-processing document.
// Best-effort and lossy by nature: text flows page by page, layout and
// graphics are not reconstructed, and no round-trip fidelity is promised.
type ConvertDoc struct {
	logger   *observability.Logger
	store    *store.Store
	renderer Renderer
}

// NewConvertDoc creates the convert-to-document operation. A nil renderer
// marks the capability as absent in this deployment.
func NewConvertDoc(logger *observability.Logger, st *store.Store, r Renderer) *ConvertDoc {
	return &ConvertDoc{logger: logger.WithOperation(OpConvertDoc), store: st, renderer: r}
}

// Apply converts the single input and writes {id}_{name}.docx.
func (c *ConvertDoc) Apply(ctx context.Context, id string, inputs []store.Artifact, _ Params) (store.Artifact, error) {
	if c.renderer == nil {
		return store.Artifact{}, domain.UnsupportedOperation(
			"PDF to Word conversion not available in this deployment", nil)
	}

	if err := requireSingleInput("Word conversion", inputs); err != nil {
		return store.Artifact{}, err
	}

	in := inputs[0]
	if err := SniffPDF(in.Path); err != nil {
		return store.Artifact{}, err
	}

	doc, err := c.renderer.Open(in.Path)
	if err != nil {
		return store.Artifact{}, domain.TransformationError("Failed to open PDF", err)
	}
	defer doc.Close()

	pages := doc.NumPages()
	if pages == 0 {
		return store.Artifact{}, domain.ValidationError("PDF has no pages", nil)
	}

	word, err := godocx.NewDocument()
	if err != nil {
		return store.Artifact{}, domain.TransformationError("Failed to create document", err)
	}

	for page := 0; page < pages; page++ {
		select {
		case <-ctx.Done():
			return store.Artifact{}, ctx.Err()
		default:
		}

		text, err := doc.PageText(page)
		if err != nil {
			return store.Artifact{}, domain.TransformationError("Failed to extract text", err)
		}

		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			word.AddParagraph(line)
		}

		if page < pages-1 {
			word.AddEmptyParagraph()
		}
	}

	out, err := produce(c.store, id, derivedName(in.Name, ".docx"), "smartpdf-word-*.docx", func(tmp string) error {
		if err := word.SaveTo(tmp); err != nil {
			return domain.TransformationError("Failed to write document", err)
		}
		return nil
	})
	if err != nil {
		return store.Artifact{}, err
	}

	c.logger.Info().
		Str("id", id).
		Int("pages", pages).
		Int64("output_bytes", out.Size).
		Msg("Converted document to Word")

	return out, nil
}
