package pdfops

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// Renderer abstracts the native page-rendering backend so rasterization and
// document conversion stay testable without MuPDF present.
type Renderer interface {
	// Open loads a PDF for rendering and text extraction.
	Open(path string) (Document, error)
}

// Document is an open PDF handle.
type Document interface {
	// NumPages returns the page count.
	NumPages() int
	// RenderPage rasterizes a zero-based page at the given resolution.
	RenderPage(page int, dpi float64) (image.Image, error)
	// PageText extracts the text of a zero-based page.
	PageText(page int) (string, error)
	// Close releases the document.
	Close() error
}

// fitzRenderer renders through go-fitz (MuPDF).
type fitzRenderer struct{}

// NewFitzRenderer returns the MuPDF-backed renderer.
func NewFitzRenderer() Renderer {
	return fitzRenderer{}
}

func (fitzRenderer) Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) NumPages() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) RenderPage(page int, dpi float64) (image.Image, error) {
	return d.doc.ImageDPI(page, dpi)
}

func (d *fitzDocument) PageText(page int) (string, error) {
	return d.doc.Text(page)
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
