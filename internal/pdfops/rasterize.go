package pdfops

import (
	"archive/zip"
	"context"
	"fmt"
	"image/png"
	"os"

	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/observability"
	"github.com/smartpdf/smartpdf/internal/store"
)

// DPI bounds accepted for rasterization.
const (
	MinDPI     = 36
	MaxDPI     = 600
	DefaultDPI = 200
)

// Rasterize renders every page of a PDF to a PNG and packages the ordered
// images into one zip archive. Entries are named page_N.png with N starting
// at 1.
type Rasterize struct {
	logger   *observability.Logger
	store    *store.Store
	renderer Renderer
}

// NewRasterize creates the rasterize operation. A nil renderer marks the
// capability as absent in this deployment.
func NewRasterize(logger *observability.Logger, st *store.Store, r Renderer) *Rasterize {
	return &Rasterize{logger: logger.WithOperation(OpRasterize), store: st, renderer: r}
}

// Apply rasterizes the single input and writes {id}_{name}_images.zip.
func (r *Rasterize) Apply(ctx context.Context, id string, inputs []store.Artifact, params Params) (store.Artifact, error) {
	if r.renderer == nil {
		return store.Artifact{}, domain.UnsupportedOperation(
			"PDF to Image conversion not available in this deployment", nil)
	}

	if err := requireSingleInput("Image conversion", inputs); err != nil {
		return store.Artifact{}, err
	}

	dpi := params.DPI
	if dpi == 0 {
		dpi = DefaultDPI
	}
	if dpi < MinDPI || dpi > MaxDPI {
		return store.Artifact{}, domain.ValidationError(
			fmt.Sprintf("DPI must be between %d and %d, got %d", MinDPI, MaxDPI, dpi), nil)
	}

	in := inputs[0]
	if err := SniffPDF(in.Path); err != nil {
		return store.Artifact{}, err
	}

	doc, err := r.renderer.Open(in.Path)
	if err != nil {
		return store.Artifact{}, domain.TransformationError("Failed to open PDF", err)
	}
	defer doc.Close()

	pages := doc.NumPages()
	if pages == 0 {
		return store.Artifact{}, domain.ValidationError("PDF has no pages", nil)
	}

	out, err := produce(r.store, id, derivedName(in.Name, "_images.zip"), "smartpdf-images-*.zip", func(tmp string) error {
		return r.writeArchive(ctx, doc, pages, float64(dpi), tmp)
	})
	if err != nil {
		return store.Artifact{}, err
	}

	r.logger.Info().
		Str("id", id).
		Int("pages", pages).
		Int("dpi", dpi).
		Int64("output_bytes", out.Size).
		Msg("Rasterized document")

	return out, nil
}

func (r *Rasterize) writeArchive(ctx context.Context, doc Document, pages int, dpi float64, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return domain.StorageWriteError("create archive", err)
	}

	zw := zip.NewWriter(f)

	for page := 0; page < pages; page++ {
		select {
		case <-ctx.Done():
			zw.Close()
			f.Close()
			return ctx.Err()
		default:
		}

		img, err := doc.RenderPage(page, dpi)
		if err != nil {
			zw.Close()
			f.Close()
			return domain.TransformationError(
				fmt.Sprintf("Failed to convert page %d", page+1), err)
		}

		entry, err := zw.Create(fmt.Sprintf("page_%d.png", page+1))
		if err != nil {
			zw.Close()
			f.Close()
			return domain.StorageWriteError("create archive entry", err)
		}

		if err := png.Encode(entry, img); err != nil {
			zw.Close()
			f.Close()
			return domain.TransformationError(
				fmt.Sprintf("Failed to encode page %d as PNG", page+1), err)
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return domain.StorageWriteError("finalize archive", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return domain.StorageWriteError("flush archive", err)
	}
	return f.Close()
}
