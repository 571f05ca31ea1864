// Package pdf extracts per-page text and tables from PDF files.
// The underlying library is treated as a black box; everything built on top
// of its raw output (section detection, chunking) lives elsewhere.
package pdf

import (
	"fmt"
	"log/slog"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Page is one page of extracted text. Immutable once extracted.
type Page struct {
	Number int
	Text   string
}

// Table is a grid of cells found on a single page.
type Table struct {
	Page int
	Rows [][]string
}

// Document is the raw extraction result for one PDF.
type Document struct {
	Pages  []Page
	Tables []Table
}

// Extractor turns a PDF file on disk into a Document.
type Extractor interface {
	Extract(path string) (*Document, error)
}

// FileExtractor reads PDFs with github.com/ledongthuc/pdf.
type FileExtractor struct{}

func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

func (e *FileExtractor) Extract(path string) (*Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	doc := &Document{}
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			doc.Pages = append(doc.Pages, Page{Number: i})
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A page that fails text extraction still occupies its slot in the
			// page numbering; downstream mapping depends on contiguous numbers.
			slog.Warn("page text extraction failed", "page", i, "error", err)
			text = ""
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Text: text})

		rows, err := page.GetTextByRow()
		if err != nil {
			// Table extraction failures are swallowed; the page simply
			// contributes no tables.
			continue
		}
		for _, table := range tablesFromRows(rows) {
			doc.Tables = append(doc.Tables, Table{Page: i, Rows: table})
		}
	}

	return doc, nil
}

// cellGap is the minimum horizontal gap, in PDF points, between two text
// fragments for them to be treated as separate table cells.
const cellGap = 18.0

// minTableRows is how many consecutive multi-cell rows make a table.
const minTableRows = 2

// tablesFromRows groups positioned text rows into tables. A run of at least
// minTableRows consecutive rows that each split into two or more cells is
// treated as one table.
func tablesFromRows(rows pdflib.Rows) [][][]string {
	var tables [][][]string
	var current [][]string

	flush := func() {
		if len(current) >= minTableRows {
			tables = append(tables, current)
		}
		current = nil
	}

	for _, row := range rows {
		cells := splitCells(row.Content)
		if len(cells) >= 2 {
			current = append(current, cells)
			continue
		}
		flush()
	}
	flush()

	return tables
}

// splitCells merges a row's text fragments into cells, starting a new cell
// whenever the horizontal gap to the previous fragment exceeds cellGap.
func splitCells(content pdflib.TextHorizontal) []string {
	var cells []string
	var cell strings.Builder
	prevEnd := 0.0

	for i, t := range content {
		if i > 0 && t.X-prevEnd > cellGap {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		}
		cell.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	if s := strings.TrimSpace(cell.String()); s != "" {
		cells = append(cells, s)
	}

	return cells
}
