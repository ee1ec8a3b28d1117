// Package pdftest builds small well-formed PDF files for tests. The
// documents carry real page trees and cross-reference tables so the
// processing libraries accept them, without shipping binary fixtures.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
)

// PDF returns the bytes of a well-formed PDF with the given number of pages.
// Each page draws a stroked rectangle so content streams are non-empty and
// differ in size across pages.
func PDF(pages int) []byte {
	return PDFWithWidth(pages, 612)
}

// PDFWithWidth is PDF with a caller-chosen page width. Page i additionally
// gets a distinct MediaBox height, so after a transformation every page's
// source document (width) and source position (height) stay observable.
func PDFWithWidth(pages, width int) []byte {
	if pages < 1 {
		pages = 1
	}

	var buf bytes.Buffer
	offsets := make([]int, 0, 2*pages+3)

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	// Object 1: catalog.
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	// Object 2: page tree.
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, pages))

	// Objects 3..: alternating page and content-stream objects.
	for i := 0; i < pages; i++ {
		pageNum := 3 + 2*i
		contentNum := pageNum + 1

		writeObj(fmt.Sprintf(
			"%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << >> /Contents %d 0 R >>\nendobj\n",
			pageNum, width, 700+10*i, contentNum))

		stream := fmt.Sprintf("q 72 %d 468 100 re S Q", 100+10*i)
		writeObj(fmt.Sprintf(
			"%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			contentNum, len(stream), stream))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset)

	return buf.Bytes()
}

// NotPDF returns bytes that fail the PDF magic-byte sniff.
func NotPDF() []byte {
	return []byte("this is definitely not a portable document")
}

// WriteFile writes an n-page PDF to path.
func WriteFile(path string, pages int) error {
	return os.WriteFile(path, PDF(pages), 0o644)
}
