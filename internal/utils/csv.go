package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"btcspot/internal/domain"
)

// csvHeader is the fixed header of every persisted series file.
var csvHeader = []string{"date", "price"}

// EncodeSeries writes a series as CSV with a date,price header. Dates are ISO
// calendar dates, prices plain decimals.
func EncodeSeries(w io.Writer, series domain.Series) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range series {
		if err := cw.Write([]string{
			p.Date.String(),
			strconv.FormatFloat(p.Price, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// DecodeSeries parses a date,price CSV stream. Malformed rows are skipped
// individually rather than failing the whole decode; the count of skipped rows
// is returned so callers can log it. The result is sorted ascending by date.
func DecodeSeries(r io.Reader) (domain.Series, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row validation is done here, not by the reader

	series := make(domain.Series, 0)
	skipped := 0
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, skipped, err // underlying reader failure, not a bad row
		}
		if first {
			first = false
			if len(record) > 0 && record[0] == csvHeader[0] {
				continue // header row
			}
		}
		if len(record) < 2 {
			skipped++
			continue
		}
		date, err := domain.ParseDate(record[0])
		if err != nil {
			skipped++
			continue
		}
		price, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			skipped++
			continue
		}
		series = append(series, domain.PricePoint{Date: date, Price: price})
	}

	series.SortByDate()
	return series, skipped, nil
}

// WriteSeriesToCSV writes a series to the named file, truncating any existing
// content.
func WriteSeriesToCSV(series domain.Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	return EncodeSeries(file, series)
}

// ReadSeriesFromCSV reads a series from the named file. Malformed rows are
// skipped; the skipped count is returned alongside the series.
func ReadSeriesFromCSV(filename string) (domain.Series, int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	return DecodeSeries(file)
}
