package export

import (
	"io"

	"github.com/go-pdf/fpdf"
)

// PDFEncoder renders rows into a simple landscape A4 grid. PDF output is
// markedly slower and heavier than CSV/JSON; keep it for small exports.
type PDFEncoder struct {
	pdf *fpdf.Fpdf
	w   io.Writer
}

// NewPDFEncoder creates a PDF encoder writing to w.
func NewPDFEncoder(w io.Writer) *PDFEncoder {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 10)
	pdf.AddPage()
	return &PDFEncoder{pdf: pdf, w: w}
}

func (e *PDFEncoder) cellWidth(n int) float64 {
	pageWidth, _ := e.pdf.GetPageSize()
	left, _, right, _ := e.pdf.GetMargins()
	return (pageWidth - left - right) / float64(n)
}

func (e *PDFEncoder) WriteHeader(columns []string) error {
	e.pdf.SetFont("Arial", "B", 10)
	width := e.cellWidth(len(columns))
	for _, col := range columns {
		e.pdf.CellFormat(width, 7, col, "1", 0, "C", false, 0, "")
	}
	e.pdf.Ln(-1)
	e.pdf.SetFont("Arial", "", 10)
	return e.pdf.Error()
}

func (e *PDFEncoder) WriteRow(values []interface{}) error {
	width := e.cellWidth(len(values))
	for _, v := range values {
		e.pdf.CellFormat(width, 7, formatValue(v), "1", 0, "L", false, 0, "")
	}
	e.pdf.Ln(-1)
	return e.pdf.Error()
}

// Flush renders the document to the underlying writer.
func (e *PDFEncoder) Flush() error {
	return e.pdf.Output(e.w)
}

func (e *PDFEncoder) Close() error {
	return e.pdf.Error()
}
