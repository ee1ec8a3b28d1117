// Package service sequences the upload/process/download lifecycle. The
// orchestrator owns rollback: any failure after the first byte is stored
// deletes every artifact the request created before the error propagates.
package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/smartpdf/smartpdf/internal/config"
	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/observability"
	"github.com/smartpdf/smartpdf/internal/pdfops"
	"github.com/smartpdf/smartpdf/internal/store"
)

// Upload is a client-supplied file entering the lifecycle.
type Upload struct {
	Name string
	Data io.Reader
}

// FileInfo describes a stored upload.
type FileInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Result summarizes a completed transformation.
type Result struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	OutputFile   string `json:"output_file,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
	OriginalSize int64  `json:"original_size,omitempty"`
	NewSize      int64  `json:"new_size,omitempty"`

	// Output locates the produced artifact for callers that stream the
	// bytes back instead of the summary.
	Output store.Artifact `json:"-"`
}

// CleanupReport summarizes a forced retention pass.
type CleanupReport struct {
	Message string `json:"message"`
	Removed int    `json:"removed"`
}

// Operation is a transformation the orchestrator can run.
type Operation interface {
	Apply(ctx context.Context, id string, inputs []store.Artifact, params pdfops.Params) (store.Artifact, error)
}

// Service is the lifecycle orchestrator.
type Service struct {
	logger   *observability.Logger
	store    *store.Store
	sweeper  *store.Sweeper
	caps     pdfops.Capabilities
	maxBytes int64
	ops      map[string]Operation
}

// New wires the orchestrator. A nil renderer disables the operations that
// need a render backend; they stay registered and fail as unsupported.
func New(logger *observability.Logger, st *store.Store, sweeper *store.Sweeper, cfg config.StorageConfig, renderer pdfops.Renderer, caps pdfops.Capabilities) *Service {
	return &Service{
		logger:   logger,
		store:    st,
		sweeper:  sweeper,
		caps:     caps,
		maxBytes: cfg.MaxUploadBytes,
		ops: map[string]Operation{
			pdfops.OpMerge:      pdfops.NewMerge(logger, st),
			pdfops.OpCompress:   pdfops.NewCompress(logger, st),
			pdfops.OpRasterize:  pdfops.NewRasterize(logger, st, renderer),
			pdfops.OpConvertDoc: pdfops.NewConvertDoc(logger, st, renderer),
		},
	}
}

// Capabilities reports which optional transformations this deployment can run.
func (s *Service) Capabilities() pdfops.Capabilities {
	return s.caps
}

// Upload stores a single PDF for later processing.
func (s *Service) Upload(ctx context.Context, up Upload) (FileInfo, error) {
	if !pdfops.HasPDFExtension(up.Name) {
		return FileInfo{}, domain.ValidationError("Only PDF files are allowed", nil)
	}

	id := store.NewID()
	a, err := s.store.Put(store.PartitionInbound, id, up.Name, up.Data)
	if err != nil {
		return FileInfo{}, err
	}

	if err := s.store.RejectIfOversized(a, s.maxBytes); err != nil {
		return FileInfo{}, err
	}

	s.logger.Info().Str("id", a.ID).Str("filename", a.Name).Int64("bytes", a.Size).Msg("Stored upload")

	return fileInfo(a), nil
}

// UploadMany stores a batch of PDFs, each under its own identifier. A
// failure on any file removes every file the call already stored.
func (s *Service) UploadMany(ctx context.Context, ups []Upload) ([]FileInfo, error) {
	if len(ups) == 0 {
		return nil, domain.ValidationError("No files provided", nil)
	}

	stored := make([]store.Artifact, 0, len(ups))
	rollback := func() {
		for _, a := range stored {
			if err := s.store.Delete(a); err != nil {
				s.logger.Warn().Err(err).Str("artifact", a.Reference()).Msg("Rollback delete failed")
			}
		}
	}

	infos := make([]FileInfo, 0, len(ups))
	for _, up := range ups {
		if !pdfops.HasPDFExtension(up.Name) {
			rollback()
			return nil, domain.ValidationError(fmt.Sprintf("Only PDF files allowed: %s", up.Name), nil)
		}

		a, err := s.store.Put(store.PartitionInbound, store.NewID(), up.Name, up.Data)
		if err != nil {
			rollback()
			return nil, err
		}
		stored = append(stored, a)

		if err := s.store.RejectIfOversized(a, s.maxBytes); err != nil {
			stored = stored[:len(stored)-1] // already deleted by the cap check
			rollback()
			return nil, err
		}

		infos = append(infos, fileInfo(a))
	}

	return infos, nil
}

// Transform runs one named operation over freshly-uploaded inputs. Every
// input is stored under its own identifier so same-named files never share a
// storage key; the output carries the request identifier. Inputs and any
// produced output are deleted if anything fails.
func (s *Service) Transform(ctx context.Context, opName string, uploads []Upload, params pdfops.Params) (Result, error) {
	op, ok := s.ops[opName]
	if !ok {
		return Result{}, domain.ValidationError(fmt.Sprintf("Unknown operation: %s", opName), nil)
	}

	if len(uploads) == 0 {
		return Result{}, domain.ValidationError("No files provided", nil)
	}

	id := store.NewID()

	var created []store.Artifact
	rollback := func() {
		for _, a := range created {
			if err := s.store.Delete(a); err != nil {
				s.logger.Warn().Err(err).Str("artifact", a.Reference()).Msg("Rollback delete failed")
			}
		}
	}

	inputs := make([]store.Artifact, 0, len(uploads))
	var originalSize int64

	for _, up := range uploads {
		if !pdfops.HasPDFExtension(up.Name) {
			rollback()
			return Result{}, domain.ValidationError(fmt.Sprintf("Only PDF files allowed: %s", up.Name), nil)
		}

		a, err := s.store.Put(store.PartitionInbound, store.NewID(), up.Name, up.Data)
		if err != nil {
			rollback()
			return Result{}, err
		}
		created = append(created, a)

		if err := s.store.RejectIfOversized(a, s.maxBytes); err != nil {
			created = created[:len(created)-1] // already deleted by the cap check
			rollback()
			return Result{}, err
		}

		inputs = append(inputs, a)
		originalSize += a.Size
	}

	out, err := op.Apply(ctx, id, inputs, params)
	if err != nil {
		rollback()
		return Result{}, err
	}
	created = append(created, out)

	msg := s.resultMessage(opName, inputs, out, originalSize)

	s.logger.Info().
		Str("operation", opName).
		Str("id", id).
		Int("inputs", len(inputs)).
		Int64("original_bytes", originalSize).
		Int64("output_bytes", out.Size).
		Msg("Transformation complete")

	return Result{
		Success:      true,
		Message:      msg,
		OutputFile:   out.Name,
		DownloadURL:  "/download/" + out.Reference(),
		OriginalSize: originalSize,
		NewSize:      out.Size,
		Output:       out,
	}, nil
}

// resultMessage builds the user-facing success message for an operation.
func (s *Service) resultMessage(opName string, inputs []store.Artifact, out store.Artifact, originalSize int64) string {
	switch opName {
	case pdfops.OpMerge:
		return fmt.Sprintf("Successfully merged %d PDF files", len(inputs))
	case pdfops.OpCompress:
		return pdfops.CompressionMessage(originalSize, out.Size)
	case pdfops.OpRasterize:
		if pages, err := pdfops.PageCount(inputs[0]); err == nil {
			return fmt.Sprintf("PDF converted to %d images", pages)
		}
		return "PDF converted to images"
	case pdfops.OpConvertDoc:
		return "PDF converted to Word successfully"
	default:
		return "Transformation complete"
	}
}

// Download resolves a reference against the outbound partition and opens the
// artifact for streaming.
func (s *Service) Download(ctx context.Context, reference string) (store.Artifact, io.ReadCloser, error) {
	a, err := s.store.Lookup(reference)
	if err != nil {
		return store.Artifact{}, nil, err
	}

	rc, err := s.store.OpenForRead(a)
	if err != nil {
		return store.Artifact{}, nil, err
	}

	return a, rc, nil
}

// Cleanup forces a retention pass with age zero over both partitions.
func (s *Service) Cleanup(ctx context.Context) CleanupReport {
	removed := s.sweeper.SweepOnce(0)
	return CleanupReport{
		Message: "All temporary files cleaned up",
		Removed: removed,
	}
}

func fileInfo(a store.Artifact) FileInfo {
	return FileInfo{
		ID:         a.ID,
		Filename:   a.Name,
		Size:       a.Size,
		UploadedAt: a.CreatedAt,
	}
}
