package pdfops

import (
	"github.com/gen2brain/go-fitz"

	"github.com/smartpdf/smartpdf/internal/observability"
)

// Capabilities describes which optional transformation backends this
// deployment carries. Computed once at startup and passed down; handlers
// never probe per request.
type Capabilities struct {
	Rasterize  bool `json:"rasterize"`
	ConvertDoc bool `json:"convert_doc"`
}

// probePDF is a one-page document used to verify the render backend loads.
// MuPDF repairs the cross-reference table if it disagrees, so the probe only
// fails when the native library itself is unusable.
const probePDF = "%PDF-1.4\n" +
	"1 0 obj\n<</Type/Catalog/Pages 2 0 R>>\nendobj\n" +
	"2 0 obj\n<</Type/Pages/Kids[3 0 R]/Count 1>>\nendobj\n" +
	"3 0 obj\n<</Type/Page/Parent 2 0 R/MediaBox[0 0 612 792]>>\nendobj\n" +
	"xref\n0 4\n" +
	"0000000000 65535 f \n" +
	"0000000009 00000 n \n" +
	"0000000054 00000 n \n" +
	"0000000105 00000 n \n" +
	"trailer\n<</Size 4/Root 1 0 R>>\nstartxref\n170\n%%EOF\n"

// DetectCapabilities probes the MuPDF backend by opening an embedded
// document. On success it returns the renderer and full capabilities; on
// failure both optional operations are disabled and their endpoints report
// 501.
func DetectCapabilities(logger *observability.Logger) (Renderer, Capabilities) {
	doc, err := fitz.NewFromMemory([]byte(probePDF))
	if err != nil {
		logger.Warn().Err(err).Msg("Render backend unavailable, disabling rasterize and convert")
		return nil, Capabilities{}
	}
	doc.Close()

	return NewFitzRenderer(), Capabilities{Rasterize: true, ConvertDoc: true}
}
