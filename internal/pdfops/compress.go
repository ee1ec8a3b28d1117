package pdfops

import (
	"context"
	"fmt"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/observability"
	"github.com/smartpdf/smartpdf/internal/store"
)

// Compress re-encodes a PDF's content streams and drops unused objects.
// Document metadata travels to the output untouched; the operation never
// fabricates metadata that was not there. Compression is not guaranteed to
// shrink — an output at or above the input size is still a success, reported
// with a neutral disposition.
type Compress struct {
	logger *observability.Logger
	store  *store.Store
}

// NewCompress creates the compress operation.
func NewCompress(logger *observability.Logger, st *store.Store) *Compress {
	return &Compress{logger: logger.WithOperation(OpCompress), store: st}
}

// Apply compresses the single input and writes {id}_{name}_compressed.pdf.
func (c *Compress) Apply(ctx context.Context, id string, inputs []store.Artifact, params Params) (store.Artifact, error) {
	if err := requireSingleInput("Compression", inputs); err != nil {
		return store.Artifact{}, err
	}

	in := inputs[0]
	if err := ValidateInput(in); err != nil {
		return store.Artifact{}, err
	}

	conf := pdfConfig()
	switch params.Quality {
	case QualityLow:
		// Maximum effort: also fold duplicate content streams.
		conf.OptimizeDuplicateContentStreams = true
	case QualityMedium, QualityHigh, "":
	default:
		return store.Artifact{}, domain.ValidationError(
			fmt.Sprintf("Invalid quality tier: %s", params.Quality), nil)
	}

	if err := ctx.Err(); err != nil {
		return store.Artifact{}, err
	}

	out, err := produce(c.store, id, derivedName(in.Name, "_compressed.pdf"), "smartpdf-compress-*.pdf", func(tmp string) error {
		if err := api.OptimizeFile(in.Path, tmp, conf); err != nil {
			return domain.TransformationError("Compression failed", err)
		}
		return nil
	})
	if err != nil {
		return store.Artifact{}, err
	}

	c.logger.Info().
		Str("id", id).
		Int64("original_bytes", in.Size).
		Int64("output_bytes", out.Size).
		Float64("reduction_pct", ReductionPercent(in.Size, out.Size)).
		Msg("Compressed document")

	return out, nil
}

// ReductionPercent computes round((1-new/original)*100, 1), clamped to zero
// when the output did not shrink. A zero-byte original reports zero.
func ReductionPercent(original, compressed int64) float64 {
	if original <= 0 {
		return 0
	}
	pct := (1 - float64(compressed)/float64(original)) * 100
	pct = math.Round(pct*10) / 10
	if pct < 0 {
		return 0
	}
	return pct
}

// CompressionMessage renders the user-facing disposition for a compression
// result. Non-shrinking outputs get the neutral message, never a negative
// percentage.
func CompressionMessage(original, compressed int64) string {
	if pct := ReductionPercent(original, compressed); pct > 0 {
		return fmt.Sprintf("PDF compressed successfully (%.1f%% reduction)", pct)
	}
	return "PDF optimized (minimal size reduction possible)"
}
