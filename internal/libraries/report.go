package libraries

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// ReportTable is a titled table rendered to PDF or XLSX.
type ReportTable struct {
	Title   string
	Lines   []string
	Headers []string
	Widths  []float64 // mm, PDF only
	Rows    [][]string
}

const (
	pdfMargin     = 15.0
	pdfLineHeight = 4.5
	pdfCellPad    = 1.5
)

// latin1 keeps text inside what the core PDF fonts can measure and draw.
func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 255 {
			return '?'
		}
		return r
	}, s)
}

// RenderPDF writes the table as a landscape A4 document.
func RenderPDF(w io.Writer, t ReportTable) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(pdfMargin, 15, tr(latin1(t.Title)))
	pdf.SetFont("Helvetica", "", 12)
	y := 25.0
	for _, line := range t.Lines {
		pdf.Text(pdfMargin, y, tr(latin1(line)))
		y += 7
	}

	widths := t.Widths
	if len(widths) != len(t.Headers) {
		pageW, _ := pdf.GetPageSize()
		each := (pageW - 2*pdfMargin) / float64(len(t.Headers))
		widths = make([]float64, len(t.Headers))
		for i := range widths {
			widths[i] = each
		}
	}

	y = 40
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(41, 128, 185)
		pdf.SetTextColor(255, 255, 255)
		x := pdfMargin
		for i, h := range t.Headers {
			pdf.SetXY(x, y)
			pdf.CellFormat(widths[i], 8, tr(latin1(h)), "1", 0, "L", true, 0, "")
			x += widths[i]
		}
		y += 8
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 9)
	}
	header()

	_, pageH := pdf.GetPageSize()
	for _, row := range t.Rows {
		cells := make([][]string, len(t.Headers))
		lines := 1
		for i := range t.Headers {
			text := ""
			if i < len(row) {
				text = latin1(row[i])
			}
			cells[i] = wrap(pdf, text, widths[i]-2*pdfCellPad)
			if len(cells[i]) > lines {
				lines = len(cells[i])
			}
		}
		h := float64(lines)*pdfLineHeight + 2*pdfCellPad
		if y+h > pageH-pdfMargin {
			pdf.AddPage()
			y = pdfMargin
			header()
		}

		x := pdfMargin
		for i, cell := range cells {
			pdf.Rect(x, y, widths[i], h, "D")
			for n, line := range cell {
				pdf.SetXY(x+pdfCellPad, y+pdfCellPad+float64(n)*pdfLineHeight)
				pdf.CellFormat(widths[i]-2*pdfCellPad, pdfLineHeight, tr(line), "", 0, "L", false, 0, "")
			}
			x += widths[i]
		}
		y += h
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func wrap(pdf *fpdf.Fpdf, text string, width float64) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		if para == "" {
			out = append(out, "")
			continue
		}
		out = append(out, pdf.SplitText(para, width)...)
	}
	return out
}

// RenderXLSX writes the table to a single sheet workbook.
func RenderXLSX(w io.Writer, t ReportTable) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Report"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2980B9"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	if err != nil {
		return err
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return err
	}

	row := 1
	if err := f.SetCellValue(sheet, "A1", t.Title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "A1", titleStyle); err != nil {
		return err
	}
	row++
	for _, line := range t.Lines {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellValue(sheet, cell, line); err != nil {
			return err
		}
		row++
	}
	row++

	headerRow := row
	if err := setRow(f, sheet, row, t.Headers); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(t.Headers), row)
	if err := f.SetCellStyle(sheet, first, last, headerStyle); err != nil {
		return err
	}
	row++

	for _, r := range t.Rows {
		if err := setRow(f, sheet, row, r); err != nil {
			return err
		}
		row++
	}
	if row > headerRow+1 {
		first, _ = excelize.CoordinatesToCellName(1, headerRow+1)
		last, _ = excelize.CoordinatesToCellName(len(t.Headers), row-1)
		if err := f.SetCellStyle(sheet, first, last, bodyStyle); err != nil {
			return err
		}
	}

	for i := range t.Headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := 18.0
		if i < len(t.Widths) {
			width = t.Widths[i] * 0.6
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]interface{}, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return f.SetSheetRow(sheet, cell, &vals)
}
