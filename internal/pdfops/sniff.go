package pdfops

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/smartpdf/smartpdf/internal/domain"
	"github.com/smartpdf/smartpdf/internal/store"
)

var pdfMagic = []byte("%PDF-")

// HasPDFExtension reports whether a client filename ends in .pdf.
func HasPDFExtension(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// SniffPDF checks the PDF magic bytes at the start of a stored file.
func SniffPDF(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NotFound("File not found or expired", err)
		}
		return domain.StorageWriteError("open artifact for sniff", err)
	}
	defer f.Close()

	// ReadFull rather than a single Read: a short read without error would
	// misclassify a valid PDF.
	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return domain.ValidationError("Only PDF files are allowed", nil)
	}
	return nil
}

// ValidateInput runs the full format check on a stored input artifact: the
// magic-byte sniff followed by a structural validation pass. Failures are
// data errors, never capability errors.
func ValidateInput(a store.Artifact) error {
	if err := SniffPDF(a.Path); err != nil {
		return err
	}

	if err := api.ValidateFile(a.Path, pdfConfig()); err != nil {
		return domain.ValidationError(
			fmt.Sprintf("Invalid PDF file: %s", a.Name), err)
	}
	return nil
}
