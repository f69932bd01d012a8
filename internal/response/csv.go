package response

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// csvColumns is the canonical column order for measurement CSV files.
var csvColumns = []string{
	"frequency",
	"raw",
	"error",
	"smoothed",
	"error_smoothed",
	"equalization",
	"parametric_eq",
	"equalized_raw",
	"equalized_smoothed",
	"target",
}

// ReadCSV reads a measurement file and constructs a FrequencyResponse named
// after the file.
func ReadCSV(path string) (*FrequencyResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open measurement file: %w", err)
	}
	defer f.Close()

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return ParseCSV(name, f)
}

// ParseCSV parses measurement CSV data. The first row is a header naming the
// columns; at minimum "frequency" and "raw" are expected. Empty and NaN cells
// are stored as NaN.
func ParseCSV(name string, r io.Reader) (*FrequencyResponse, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.ToLower(h))] = i
	}
	if _, ok := cols["frequency"]; !ok {
		return nil, fmt.Errorf("measurement %q has no frequency column", name)
	}

	series := make(map[string][]float64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		for col, ind := range cols {
			if ind >= len(record) {
				series[col] = append(series[col], math.NaN())
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(record[ind]), 64)
			if err != nil {
				v = math.NaN()
			}
			series[col] = append(series[col], v)
		}
	}
	if len(series["frequency"]) == 0 {
		return nil, fmt.Errorf("measurement %q has no data rows", name)
	}

	fr := &FrequencyResponse{
		Name:              strings.TrimSpace(name),
		Frequency:         series["frequency"],
		Raw:               series["raw"],
		Error:             series["error"],
		Smoothed:          series["smoothed"],
		ErrorSmoothed:     series["error_smoothed"],
		Equalization:      series["equalization"],
		ParametricEQ:      series["parametric_eq"],
		EqualizedRaw:      series["equalized_raw"],
		EqualizedSmoothed: series["equalized_smoothed"],
		Target:            series["target"],
	}
	fr.sort()
	return fr, nil
}

// WriteCSV writes all populated series to a CSV file with two decimals.
func (fr *FrequencyResponse) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	return fr.WriteCSVTo(f)
}

// WriteCSVTo writes all populated series as CSV with two decimals.
func (fr *FrequencyResponse) WriteCSVTo(out io.Writer) error {
	series := map[string][]float64{
		"frequency":          fr.Frequency,
		"raw":                fr.Raw,
		"error":              fr.Error,
		"smoothed":           fr.Smoothed,
		"error_smoothed":     fr.ErrorSmoothed,
		"equalization":       fr.Equalization,
		"parametric_eq":      fr.ParametricEQ,
		"equalized_raw":      fr.EqualizedRaw,
		"equalized_smoothed": fr.EqualizedSmoothed,
		"target":             fr.Target,
	}

	var header []string
	for _, col := range csvColumns {
		if len(series[col]) > 0 {
			header = append(header, col)
		}
	}

	w := csv.NewWriter(out)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := range fr.Frequency {
		record := make([]string, len(header))
		for j, col := range header {
			v := series[col][i]
			if math.IsNaN(v) {
				record[j] = "NaN"
			} else {
				record[j] = strconv.FormatFloat(v, 'f', 2, 64)
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV data: %w", err)
	}
	return nil
}
