package pdfops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/observability"
	"github.com/smartpdf/smartpdf/internal/store"
)

func TestCompress_Succeeds(t *testing.T) {
	st := newTestStore(t)
	c := NewCompress(observability.Nop(), st)

	in := putPDF(t, st, "report.pdf", 3)

	out, err := c.Apply(context.Background(), store.NewID(), []store.Artifact{in}, Params{Quality: QualityMedium})
	require.NoError(t, err)
	assert.Equal(t, "report_compressed.pdf", out.Name)
	assert.Positive(t, out.Size)

	// The output is itself a readable PDF with the same page count.
	pages, err := PageCount(out)
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
}

func TestCompress_RequiresExactlyOneInput(t *testing.T) {
	st := newTestStore(t)
	c := NewCompress(observability.Nop(), st)

	a := putPDF(t, st, "a.pdf", 1)
	b := putPDF(t, st, "b.pdf", 1)

	_, err := c.Apply(context.Background(), store.NewID(), []store.Artifact{a, b}, Params{})
	assert.Equal(t, domain.ErrorTypeValidation, domain.TypeOf(err))

	_, err = c.Apply(context.Background(), store.NewID(), nil, Params{})
	assert.Equal(t, domain.ErrorTypeValidation, domain.TypeOf(err))
}

func TestCompress_RejectsUnknownQuality(t *testing.T) {
	st := newTestStore(t)
	c := NewCompress(observability.Nop(), st)

	in := putPDF(t, st, "a.pdf", 1)

	_, err := c.Apply(context.Background(), store.NewID(), []store.Artifact{in}, Params{Quality: "ultra"})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.TypeOf(err))
}

func TestCompress_RejectsNonPDF(t *testing.T) {
	st := newTestStore(t)
	c := NewCompress(observability.Nop(), st)

	junk := putJunk(t, st, "junk.pdf")

	_, err := c.Apply(context.Background(), store.NewID(), []store.Artifact{junk}, Params{})
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeValidation, domain.TypeOf(err))
}

func TestReductionPercent(t *testing.T) {
	assert.Equal(t, 50.0, ReductionPercent(1000, 500))
	assert.Equal(t, 33.3, ReductionPercent(3000, 2000))
	// Growth and break-even clamp to zero, never negative.
	assert.Equal(t, 0.0, ReductionPercent(1000, 1000))
	assert.Equal(t, 0.0, ReductionPercent(1000, 1500))
	// Degenerate originals report zero.
	assert.Equal(t, 0.0, ReductionPercent(0, 100))
}

func TestCompressionMessage(t *testing.T) {
	assert.Equal(t, "PDF compressed successfully (25.0% reduction)", CompressionMessage(1000, 750))
	assert.Equal(t, "PDF optimized (minimal size reduction possible)", CompressionMessage(1000, 1000))
	assert.Equal(t, "PDF optimized (minimal size reduction possible)", CompressionMessage(1000, 1400))
}
