package utils

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"stocksim/internal/domain"
)

var csvHeader = []string{"symbol", "date", "open", "close", "high", "low", "volume", "amount", "pct_change"}

// WriteBarsToCSV writes daily bars to a CSV file with a header row.
func WriteBarsToCSV(bars []*domain.Bar, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write(csvHeader)
	for _, b := range bars {
		writer.Write([]string{
			b.Symbol,
			b.Date,
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
			strconv.FormatFloat(b.Amount, 'f', -1, 64),
			strconv.FormatFloat(b.PctChange, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// ReadBarsFromCSV reads daily bars from a CSV file written in the same
// layout (header row expected).
func ReadBarsFromCSV(filename string) ([]*domain.Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}

	var bars []*domain.Bar
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(record) < len(csvHeader) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(csvHeader), len(record))
		}

		bar := &domain.Bar{Symbol: record[0], Date: record[1]}
		floats := []*float64{&bar.Open, &bar.Close, &bar.High, &bar.Low, &bar.Volume, &bar.Amount, &bar.PctChange}
		for i, dst := range floats {
			v, err := strconv.ParseFloat(record[i+2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad number %q: %w", line, record[i+2], err)
			}
			*dst = v
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
