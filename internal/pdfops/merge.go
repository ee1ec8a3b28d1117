package pdfops

import (
	"context"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/observability"
	"github.com/smartpdf/smartpdf/internal/store"
)

// MergedName is the fixed logical name of every merge output.
const MergedName = "merged.pdf"

// Merge concatenates the page sequences of two or more PDFs in request
// order. Pages are copied as-is: no re-pagination, no sorting, no resizing.
type Merge struct {
	logger *observability.Logger
	store  *store.Store
}

// NewMerge creates the merge operation.
func NewMerge(logger *observability.Logger, st *store.Store) *Merge {
	return &Merge{logger: logger.WithOperation(OpMerge), store: st}
}

// Apply validates every input and writes the concatenated document as
// {id}_merged.pdf in the outbound partition.
func (m *Merge) Apply(ctx context.Context, id string, inputs []store.Artifact, _ Params) (store.Artifact, error) {
	if len(inputs) < 2 {
		return store.Artifact{}, domain.ValidationError("At least 2 PDF files required for merging", nil)
	}

	paths := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if err := ValidateInput(in); err != nil {
			return store.Artifact{}, err
		}
		paths = append(paths, in.Path)
	}

	if err := ctx.Err(); err != nil {
		return store.Artifact{}, err
	}

	out, err := produce(m.store, id, MergedName, "smartpdf-merge-*.pdf", func(tmp string) error {
		if err := api.MergeCreateFile(paths, tmp, false, pdfConfig()); err != nil {
			return domain.TransformationError("Merge failed", err)
		}
		return nil
	})
	if err != nil {
		return store.Artifact{}, err
	}

	m.logger.Info().
		Str("id", id).
		Int("inputs", len(inputs)).
		Int64("output_bytes", out.Size).
		Msg("Merged documents")

	return out, nil
}

// PageCount returns the number of pages in a stored PDF.
func PageCount(a store.Artifact) (int, error) {
	n, err := api.PageCountFile(a.Path)
	if err != nil {
		return 0, domain.TransformationError("count pages", err)
	}
	return n, nil
}
