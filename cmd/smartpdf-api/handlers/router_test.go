package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartpdf/smartpdf/internal/config"
	"github.com/smartpdf/smartpdf/internal/observability"
	"github.com/smartpdf/smartpdf/internal/pdfops"
	"github.com/smartpdf/smartpdf/internal/pdftest"
	"github.com/smartpdf/smartpdf/internal/service"
	"github.com/smartpdf/smartpdf/internal/store"
)

func newTestRouter(t *testing.T, responseMode string) http.Handler {
	t.Helper()

	cfg := config.DefaultConfig()
	dir := t.TempDir()
	cfg.Storage.InboundDir = filepath.Join(dir, "uploads")
	cfg.Storage.OutboundDir = filepath.Join(dir, "outputs")
	cfg.Server.ResponseMode = responseMode

	logger := observability.Nop()
	st, err := store.New(logger, cfg.Storage)
	require.NoError(t, err)

	sweeper := store.NewSweeper(st, cfg.Storage.Retention, cfg.Storage.SweepInterval)
	svc := service.New(logger, st, sweeper, cfg.Storage, nil, pdfops.Capabilities{})

	return NewRouter(logger, cfg, svc)
}

// multipartBody builds a multipart form with one part per name, in order.
func multipartBody(t *testing.T, field string, files map[string][]byte, order []string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range order {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeJSON)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "smartpdf", body["service"])
	assert.Contains(t, body, "capabilities")
}

func TestUploadEndpoint(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeJSON)

	body, ctype := multipartBody(t, "file", map[string][]byte{
		"report.pdf": pdftest.PDF(1),
	}, []string{"report.pdf"})

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "report.pdf", info["filename"])
	assert.Len(t, info["id"], 8)
}

func TestUploadEndpoint_RejectsNonPDF(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeJSON)

	body, ctype := multipartBody(t, "file", map[string][]byte{
		"notes.txt": []byte("hello"),
	}, []string{"notes.txt"})

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Only PDF files are allowed", resp["detail"])
}

func TestMergeEndpoint_ThenDownload(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeJSON)

	body, ctype := multipartBody(t, "files", map[string][]byte{
		"a.pdf": pdftest.PDF(2),
		"b.pdf": pdftest.PDF(3),
	}, []string{"a.pdf", "b.pdf"})

	req := httptest.NewRequest(http.MethodPost, "/merge", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Success     bool   `json:"success"`
		Message     string `json:"message"`
		OutputFile  string `json:"output_file"`
		DownloadURL string `json:"download_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "merged.pdf", res.OutputFile)
	assert.Equal(t, "Successfully merged 2 PDF files", res.Message)

	dlReq := httptest.NewRequest(http.MethodGet, res.DownloadURL, nil)
	dlRec := httptest.NewRecorder()
	router.ServeHTTP(dlRec, dlReq)

	require.Equal(t, http.StatusOK, dlRec.Code)
	assert.Equal(t, "application/pdf", dlRec.Header().Get("Content-Type"))
	assert.Contains(t, dlRec.Header().Get("Content-Disposition"), "merged.pdf")
	assert.True(t, bytes.HasPrefix(dlRec.Body.Bytes(), []byte("%PDF-")))
}

func TestMergeEndpoint_SingleFileIsBadRequest(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeJSON)

	body, ctype := multipartBody(t, "files", map[string][]byte{
		"a.pdf": pdftest.PDF(1),
	}, []string{"a.pdf"})

	req := httptest.NewRequest(http.MethodPost, "/merge", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompressEndpoint_BinaryMode(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeBinary)

	body, ctype := multipartBody(t, "file", map[string][]byte{
		"doc.pdf": pdftest.PDF(2),
	}, []string{"doc.pdf"})

	req := httptest.NewRequest(http.MethodPost, "/compress", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Original-Size"))
	assert.NotEmpty(t, rec.Header().Get("X-New-Size"))
	assert.NotEmpty(t, rec.Header().Get("X-Message"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "doc_compressed.pdf")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")))
}

func TestPDFToImageEndpoint_UnavailableBackend(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeJSON)

	body, ctype := multipartBody(t, "file", map[string][]byte{
		"doc.pdf": pdftest.PDF(1),
	}, []string{"doc.pdf"})

	req := httptest.NewRequest(http.MethodPost, "/convert/pdf-to-image", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestPDFToImageEndpoint_BadDPI(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeJSON)

	body, ctype := multipartBody(t, "file", map[string][]byte{
		"doc.pdf": pdftest.PDF(1),
	}, []string{"doc.pdf"})

	req := httptest.NewRequest(http.MethodPost, "/convert/pdf-to-image?dpi=abc", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadEndpoint_NotFound(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeJSON)

	req := httptest.NewRequest(http.MethodGet, "/download/deadbeef", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "File not found or expired", resp["detail"])
}

func TestCleanupEndpoint(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeJSON)

	req := httptest.NewRequest(http.MethodDelete, "/cleanup", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "All temporary files cleaned up", resp["message"])
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, config.ResponseModeJSON)

	req := httptest.NewRequest(http.MethodOptions, "/merge", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
