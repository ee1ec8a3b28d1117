// Package pdfops implements the transformation operations: merge, compress,
// rasterize-to-archive, and convert-to-document. Operations read stored
// input artifacts, write exactly one output artifact into the outbound
// partition, and never mutate their inputs. Output bytes go to a temporary
// file first and are only promoted into the store once the transformation
// has fully succeeded.
package pdfops

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/store"
)

// Operation names as used by the orchestrator and the HTTP layer.
const (
	OpMerge      = "merge"
	OpCompress   = "compress"
	OpRasterize  = "rasterize"
	OpConvertDoc = "convert-to-doc"
)

// Params carries operation-specific parameters.
type Params struct {
	Quality string // compress tier: low, medium, high
	DPI     int    // rasterization resolution
}

// Quality tiers for compression.
const (
	QualityLow    = "low"
	QualityMedium = "medium"
	QualityHigh   = "high"
)

// pdfConfig returns the pdfcpu configuration shared by all operations.
// Relaxed validation accepts the slightly off-spec documents real-world
// uploads tend to be.
func pdfConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// promote moves a fully-written temporary file into the outbound partition.
// The temp file is always removed.
func promote(st *store.Store, id, name, tmpPath string) (store.Artifact, error) {
	defer os.Remove(tmpPath)

	f, err := os.Open(tmpPath)
	if err != nil {
		return store.Artifact{}, domain.StorageWriteError("open transformation output", err)
	}
	defer f.Close()

	return st.Put(store.PartitionOutbound, id, name, f)
}

// produce runs write against a fresh temp file and promotes the result into
// the outbound partition. The temp file is removed on every path, including
// a failed write.
func produce(st *store.Store, id, name, pattern string, write func(tmp string) error) (store.Artifact, error) {
	tmp, err := tempFile(pattern)
	if err != nil {
		return store.Artifact{}, err
	}
	defer os.Remove(tmp)

	if err := write(tmp); err != nil {
		return store.Artifact{}, err
	}

	return promote(st, id, name, tmp)
}

// tempFile creates a closed temporary file for an operation to write into.
func tempFile(pattern string) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", domain.StorageWriteError("create temp file", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", domain.StorageWriteError("create temp file", err)
	}
	return path, nil
}

// derivedName builds an output filename from an input filename, replacing
// the .pdf extension with the given suffix.
func derivedName(input, suffix string) string {
	base := input
	if ext := strings.ToLower(base); strings.HasSuffix(ext, ".pdf") {
		base = base[:len(base)-len(".pdf")]
	}
	if base == "" {
		base = "document"
	}
	return base + suffix
}

// requireSingleInput validates the one-input contract shared by compress,
// rasterize, and convert-to-document.
func requireSingleInput(op string, inputs []store.Artifact) error {
	if len(inputs) != 1 {
		return domain.ValidationError(fmt.Sprintf("%s requires exactly one PDF file", op), nil)
	}
	return nil
}
