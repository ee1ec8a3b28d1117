// Package handlers provides HTTP handlers for the Smart PDF Converter API.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smartpdf/smartpdf/internal/config"
	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/observability"
	"github.com/smartpdf/smartpdf/internal/pdfops"
	"github.com/smartpdf/smartpdf/internal/service"
)

// Version is the API version reported by the health endpoint.
const Version = "1.0.0"

// multipartMemory caps the in-memory portion of multipart parsing; larger
// parts spill to disk.
const multipartMemory = 32 << 20

// Options holds handler-level settings derived from the server config.
type Options struct {
	ResponseMode   string
	DefaultDPI     int
	DefaultQuality string
}

// Handler serves the converter API endpoints.
type Handler struct {
	logger *observability.Logger
	svc    *service.Service
	opts   Options
}

// New creates the API handler set.
func New(logger *observability.Logger, svc *service.Service, opts Options) *Handler {
	return &Handler{logger: logger, svc: svc, opts: opts}
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status       string              `json:"status"`
	Service      string              `json:"service"`
	Version      string              `json:"version"`
	Capabilities pdfops.Capabilities `json:"capabilities"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:       "healthy",
		Service:      "smartpdf",
		Version:      Version,
		Capabilities: h.svc.Capabilities(),
	})
}

// Upload handles POST /upload. Stores a single PDF and returns its file info.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	uploads, cleanup, err := h.formUploads(r, "file")
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer cleanup()

	if len(uploads) != 1 {
		h.writeError(w, domain.ValidationError("Exactly one file is required", nil))
		return
	}

	info, err := h.svc.Upload(r.Context(), uploads[0])
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, info)
}

// UploadMultiple handles POST /upload/multiple.
func (h *Handler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	uploads, cleanup, err := h.formUploads(r, "files")
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer cleanup()

	infos, err := h.svc.UploadMany(r.Context(), uploads)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"files": infos})
}

// Merge handles POST /merge.
func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	uploads, cleanup, err := h.formUploads(r, "files")
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer cleanup()

	res, err := h.svc.Transform(r.Context(), pdfops.OpMerge, uploads, pdfops.Params{})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.respondResult(w, r, res)
}

// Compress handles POST /compress. Quality comes from the form field or
// query parameter, defaulting to the configured tier.
func (h *Handler) Compress(w http.ResponseWriter, r *http.Request) {
	uploads, cleanup, err := h.formUploads(r, "file")
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer cleanup()

	quality := r.FormValue("quality")
	if quality == "" {
		quality = h.opts.DefaultQuality
	}

	res, err := h.svc.Transform(r.Context(), pdfops.OpCompress, uploads, pdfops.Params{Quality: quality})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.respondResult(w, r, res)
}

// PDFToImage handles POST /convert/pdf-to-image (?dpi=).
func (h *Handler) PDFToImage(w http.ResponseWriter, r *http.Request) {
	uploads, cleanup, err := h.formUploads(r, "file")
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer cleanup()

	dpi := h.opts.DefaultDPI
	if v := r.URL.Query().Get("dpi"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, domain.ValidationError(fmt.Sprintf("Invalid dpi value: %s", v), err))
			return
		}
		dpi = n
	}

	res, err := h.svc.Transform(r.Context(), pdfops.OpRasterize, uploads, pdfops.Params{DPI: dpi})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.respondResult(w, r, res)
}

// PDFToWord handles POST /convert/pdf-to-word.
func (h *Handler) PDFToWord(w http.ResponseWriter, r *http.Request) {
	uploads, cleanup, err := h.formUploads(r, "file")
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer cleanup()

	res, err := h.svc.Transform(r.Context(), pdfops.OpConvertDoc, uploads, pdfops.Params{})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.respondResult(w, r, res)
}

// Download handles GET /download/{reference}. The reference is either the
// full stored filename or its id prefix.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	a, rc, err := h.svc.Download(r.Context(), reference)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", mediaTypeFor(a.Name))
	w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn().Err(err).Str("reference", reference).Msg("Download stream interrupted")
	}
}

// Cleanup handles DELETE /cleanup. Forces a retention pass with age zero.
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	report := h.svc.Cleanup(r.Context())
	h.writeJSON(w, http.StatusOK, report)
}

// formUploads parses the multipart form and opens every part under the given
// field, preserving request order. The returned cleanup closes the parts and
// removes any spilled temp files.
func (h *Handler) formUploads(r *http.Request, field string) ([]service.Upload, func(), error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, func() {}, domain.ValidationError("Invalid multipart request", err)
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[field]
	}
	if len(headers) == 0 {
		return nil, func() {}, domain.ValidationError("No files provided", nil)
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, func() {}, domain.ValidationError(fmt.Sprintf("Failed to read upload: %s", fh.Filename), err)
		}
		opened = append(opened, f)
		uploads = append(uploads, service.Upload{Name: fh.Filename, Data: f})
	}

	return uploads, cleanup, nil
}

// respondResult writes either the JSON summary or the raw output bytes,
// depending on the configured response mode.
func (h *Handler) respondResult(w http.ResponseWriter, r *http.Request, res service.Result) {
	if h.opts.ResponseMode != config.ResponseModeBinary {
		h.writeJSON(w, http.StatusOK, res)
		return
	}

	a, rc, err := h.svc.Download(r.Context(), res.Output.Reference())
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", mediaTypeFor(a.Name))
	w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Name))
	w.Header().Set("X-Original-Size", strconv.FormatInt(res.OriginalSize, 10))
	w.Header().Set("X-New-Size", strconv.FormatInt(res.NewSize, 10))
	w.Header().Set("X-Message", res.Message)

	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn().Err(err).Str("output", a.Name).Msg("Result stream interrupted")
	}
}

// ErrorResponse is the error payload shape.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := domain.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Int("status", status).Msg("Request failed")
	} else {
		h.logger.Debug().Err(err).Int("status", status).Msg("Request rejected")
	}
	h.writeJSON(w, status, ErrorResponse{Detail: domain.PublicMessage(err)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to encode response")
	}
}

// mediaTypeFor maps an output filename to its content type.
func mediaTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".zip":
		return "application/zip"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
