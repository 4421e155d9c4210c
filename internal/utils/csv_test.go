package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"btcspot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries() domain.Series {
	return domain.Series{
		{Date: domain.NewDate(2024, time.January, 1), Price: 40000},
		{Date: domain.NewDate(2024, time.January, 2), Price: 42500.25},
		{Date: domain.NewDate(2024, time.January, 3), Price: 43999.123456},
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	original := testSeries()

	var buf bytes.Buffer
	require.NoError(t, EncodeSeries(&buf, original))

	decoded, skipped, err := DecodeSeries(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, original, decoded)
}

func TestEncodeSeries_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeSeries(&buf, testSeries()[:1]))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,price", lines[0])
	assert.Equal(t, "2024-01-01,40000", lines[1])
}

func TestDecodeSeries_SkipsMalformedRows(t *testing.T) {
	input := strings.Join([]string{
		"date,price",
		"2024-01-01,40000",
		"not-a-date,41000",
		"2024-01-02,not-a-price",
		"2024-01-03",
		"2024-01-04,44000",
		"",
	}, "\n")

	decoded, skipped, err := DecodeSeries(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, skipped)
	require.Len(t, decoded, 2)
	assert.Equal(t, domain.NewDate(2024, time.January, 1), decoded[0].Date)
	assert.Equal(t, domain.NewDate(2024, time.January, 4), decoded[1].Date)
}

func TestDecodeSeries_SortsByDate(t *testing.T) {
	input := "date,price\n2024-01-03,3\n2024-01-01,1\n2024-01-02,2\n"

	decoded, _, err := DecodeSeries(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i, p := range decoded {
		assert.Equal(t, domain.NewDate(2024, time.January, i+1), p.Date)
	}
}

func TestDecodeSeries_Headerless(t *testing.T) {
	input := "2024-01-01,40000\n2024-01-02,42000\n"

	decoded, skipped, err := DecodeSeries(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Len(t, decoded, 2)
}

func TestDecodeSeries_Empty(t *testing.T) {
	decoded, skipped, err := DecodeSeries(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Empty(t, decoded)
}

func TestWriteAndReadFile_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "series.csv")

	original := testSeries()
	require.NoError(t, WriteSeriesToCSV(original, path))

	decoded, skipped, err := ReadSeriesFromCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, original, decoded)
}

func TestReadSeriesFromCSV_MissingFile(t *testing.T) {
	_, _, err := ReadSeriesFromCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
