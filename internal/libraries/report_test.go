package libraries

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() ReportTable {
	return ReportTable{
		Title:   "Board Report: Launch",
		Lines:   []string{"Employee: Ada Lovelace", "Email: ada@example.com"},
		Headers: []string{"Board Name", "Created Date", "Deadline", "Description", "Tasks", "Status", "Completion"},
		Widths:  []float64{40, 28, 28, 50, 65, 30, 26},
		Rows: [][]string{
			{"Launch", "01 Mar 2024", "N/A", "Ship it", "TODO:\n- write docs\n\nDONE:\n- build", "In Progress", "50%"},
		},
	}
}

func TestRenderPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, sampleTable()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestRenderPDFManyRowsAndWideRunes(t *testing.T) {
	table := sampleTable()
	table.Title = "Rapport ✓ ünïcode"
	for i := 0; i < 60; i++ {
		table.Rows = append(table.Rows, table.Rows[0])
	}
	var buf bytes.Buffer
	require.NoError(t, RenderPDF(&buf, table))
	assert.NotZero(t, buf.Len())
}

func TestRenderXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderXLSX(&buf, sampleTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue("Report", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Board Report: Launch", title)

	header, err := f.GetCellValue("Report", "A5")
	require.NoError(t, err)
	assert.Equal(t, "Board Name", header)

	tasks, err := f.GetCellValue("Report", "E6")
	require.NoError(t, err)
	assert.Contains(t, tasks, "DONE:")
}
