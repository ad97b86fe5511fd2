package dataset_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/airloom-cli/internal/dataset"
)

const header = "No,year,month,day,hour,PM2.5,PM10,SO2,NO2,CO,O3,TEMP,PRES,DEWP,RAIN,wd,WSPM,station"

var sampleRows = []string{
	header,
	"1,2013,3,1,0,4,4,4,7,300,77,-0.7,1023,-18.8,0,NNW,4.4,Aotizhongxin",
	"2,2013,3,1,1,8,8,4,7,300,77,-1.1,1023.2,-18.2,0,N,4.7,Aotizhongxin",
	"3,2013,3,1,2,NA,7,5,10,300,73,-1.1,1023.5,-18.2,0,NNW,5.6,Changping",
	"4,2013,3,1,3,6,,11,11,300,72,-1.4,1024.5,-19.4,0,NW,3.1,Changping",
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestParseCSV_SchemaAndMissing(t *testing.T) {
	tbl, err := dataset.ParseCSV(strings.NewReader(strings.Join(sampleRows, "\n")))
	require.NoError(t, err)

	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, []string{"PM2.5", "PM10", "TEMP", "PRES", "DEWP", "RAIN", "WSPM", "SO2", "NO2", "CO", "O3"}, tbl.Columns())
	assert.Equal(t, []string{"Aotizhongxin", "Changping"}, tbl.Stations())
	assert.Equal(t, []int{2013}, tbl.Years())

	pm25, err := tbl.Column(dataset.ColPM25)
	require.NoError(t, err)
	assert.Equal(t, dataset.Some(4), pm25[0])
	assert.False(t, pm25[2].Valid, "NA must be the absent marker")

	pm10, err := tbl.Column(dataset.ColPM10)
	require.NoError(t, err)
	assert.False(t, pm10[3].Valid, "empty field must be the absent marker")
	assert.Equal(t, 0.0, pm10[3].Float)

	row := tbl.Row(1)
	assert.Equal(t, time.Date(2013, 3, 1, 1, 0, 0, 0, time.UTC), row.Time)
	assert.Equal(t, 2013, row.Year)
}

func TestParseCSV_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		line int
		msg  string
	}{
		{"missing columns", "year,month,day,hour,station,PM2.5\n", 1, "PM10"},
		{"invalid date", header + "\n1,2013,2,30,0,1,1,1,1,1,1,1,1,1,0,N,1,Dongsi\n", 2, "invalid timestamp"},
		{"hour 24", header + "\n1,2013,2,1,24,1,1,1,1,1,1,1,1,1,0,N,1,Dongsi\n", 2, "invalid timestamp"},
		{"empty station", header + "\n1,2013,2,1,1,1,1,1,1,1,1,1,1,1,0,N,1,\n", 2, "station is empty"},
		{"bad number", header + "\n1,2013,2,1,1,abc,1,1,1,1,1,1,1,1,0,N,1,Dongsi\n", 2, "PM2.5"},
		{"infinite", header + "\n1,2013,2,1,1,10,1,1,1,1,1,1,1,1,0,N,1,Dongsi\n2,2013,2,1,2,Inf,1,1,1,1,1,1,1,1,0,N,1,Dongsi\n", 3, "PM2.5: not a finite number"},
		{"signed infinity", header + "\n1,2013,2,1,1,1,1,1,1,1,1,-Infinity,1,1,0,N,1,Dongsi\n", 2, "TEMP: not a finite number"},
		{"negative PM10", header + "\n1,2013,2,1,1,1,-3,1,1,1,1,1,1,1,0,N,1,Dongsi\n", 2, "PM10: negative concentration"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := dataset.ParseCSV(strings.NewReader(tc.body))
			require.Error(t, err)
			var le *dataset.LoadError
			require.True(t, errors.As(err, &le), "want LoadError, got %T", err)
			assert.Equal(t, tc.line, le.Line)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestParseCSV_EmptyInput(t *testing.T) {
	_, err := dataset.ParseCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestTableFilterDoesNotMutateSource(t *testing.T) {
	tbl, err := dataset.ParseCSV(strings.NewReader(strings.Join(sampleRows, "\n")))
	require.NoError(t, err)

	sub := tbl.Filter(dataset.Filter{Station: "Changping"})
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, 4, tbl.Len())
	assert.Same(t, tbl, tbl.Filter(dataset.Filter{}))
	assert.Equal(t, 0, tbl.Filter(dataset.Filter{Year: 2017}).Len())
	assert.Equal(t, "station=Changping | year=2013", dataset.Filter{Station: "Changping", Year: 2013}.String())
}

func TestTableFilterOptions(t *testing.T) {
	tbl, err := dataset.ParseCSV(strings.NewReader(strings.Join(sampleRows, "\n")))
	require.NoError(t, err)
	assert.Equal(t, []string{"Aotizhongxin", "Changping"}, tbl.Stations())
	assert.Equal(t, []int{2013}, tbl.Years())
}

func TestSchemaIndexUnknownColumn(t *testing.T) {
	s := dataset.NewSchema([]string{"PM2.5"})
	_, err := s.Index("PM1")
	var se *dataset.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "PM1", se.Column)
}

func TestLoaderMemoizesByContent(t *testing.T) {
	path := writeFile(t, "combined.csv", strings.Join(sampleRows, "\n"))
	l := dataset.NewLoader(nil)

	a, err := l.Load(path)
	require.NoError(t, err)
	b, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, a, b, "unchanged file must reuse the cached table")
	assert.NotEmpty(t, a.Source().Digest)

	// Touching the file without changing content keeps the cached table.
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	c, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, a, c)

	// New content forces a reload.
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(sampleRows[:3], "\n")), 0o644))
	d, err := l.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, a, d)
	assert.Equal(t, 2, d.Len())

	l.Invalidate(path)
	e, err := l.Load(path)
	require.NoError(t, err)
	assert.NotSame(t, d, e)

	l.Reset()
	assert.Equal(t, 0, l.Cached())
}

func TestLoaderReadsXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	for i, line := range sampleRows {
		cells := strings.Split(line, ",")
		row := make([]interface{}, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	path := writeFile(t, "combined.xlsx", buf.String())

	tbl, err := dataset.NewLoader(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, "Changping", tbl.Row(3).Station)
}

func TestLoaderReadsTSV(t *testing.T) {
	tsv := strings.ReplaceAll(strings.Join(sampleRows, "\n"), ",", "\t")
	path := writeFile(t, "combined.tsv", tsv)
	tbl, err := dataset.NewLoader(nil).Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, tbl.Len())
}

func TestLoaderRejectsUnknownFormat(t *testing.T) {
	path := writeFile(t, "combined.parquet", "x")
	_, err := dataset.NewLoader(nil).Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrUnsupported))

	_, err = dataset.FormatFor("DATA.CSV")
	assert.NoError(t, err)
}
