package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
)

func sampleFrame() Frame {
	return Frame{
		Name:    "monthly means",
		Headers: []string{"month", "PM2.5", "rows"},
		Rows: [][]any{
			{"2013-03", dataset.Some(15.5), 2},
			{"2013-04", dataset.Missing, 0},
		},
	}
}

func TestWriteFileCSVMissingIsEmpty(t *testing.T) {
	p := filepath.Join(t.TempDir(), "trend.csv")
	require.NoError(t, WriteFile(p, sampleFrame()))
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "month,PM2.5,rows\n2013-03,15.5,2\n2013-04,,0\n", string(b))
}

func TestWriteFileCSVRejectsSeveralFrames(t *testing.T) {
	p := filepath.Join(t.TempDir(), "two.csv")
	err := WriteFile(p, sampleFrame(), sampleFrame())
	require.Error(t, err)
	_, statErr := os.Stat(p)
	assert.True(t, os.IsNotExist(statErr), "failed write must not leave a file")
}

func TestWriteFileXLSXOneSheetPerFrame(t *testing.T) {
	p := filepath.Join(t.TempDir(), "out.xlsx")
	second := sampleFrame()
	second.Name = "monthly/means?"
	require.NoError(t, WriteFile(p, sampleFrame(), second))

	f, err := excelize.OpenFile(p)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"monthly means", "monthly_means_"}, f.GetSheetList())

	rows, err := f.GetRows("monthly means")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"month", "PM2.5", "rows"}, rows[0])
	assert.Equal(t, "15.5", rows[1][1])
	assert.Equal(t, "", rows[2][1])
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jsonWriter{}.Write(&buf, []Frame{sampleFrame()}))
	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, 15.5, got[0]["PM2.5"])
	assert.Nil(t, got[1]["PM2.5"])
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleFrame()))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "| month | PM2.5 | rows |\n| --- | --- | --- |\n"))
	assert.Contains(t, out, "| 2013-03 | 15.50 | 2 |")
	assert.Contains(t, out, "| 2013-04 | n/a | 0 |")
}

func TestWriterForUnknownExtension(t *testing.T) {
	_, err := WriterFor("out.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ".parquet")
}

func TestSheetNameTruncatesAndDedupes(t *testing.T) {
	used := map[string]bool{}
	long := strings.Repeat("x", 40)
	a := sheetName(long, 0, used)
	b := sheetName(long, 1, used)
	assert.Len(t, a, 31)
	assert.Len(t, b, 31)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "Sheet3", sheetName("  ", 2, used))
}
