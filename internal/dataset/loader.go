package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
)

// LoadCSV reads a CSV file with a header row. The labelColumn holds class labels; every
// other column must be numeric.
func LoadCSV(filePath, labelColumn string) (*Dataset, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	ds, err := ReadCSV(file, labelColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}
	ds.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))

	log.Info().
		Str("file", filePath).
		Int("rows", ds.Len()).
		Int("features", len(ds.Features)).
		Strs("classes", ds.Labels.Classes()).
		Msg("CSV dataset loaded successfully")

	return ds, nil
}

// ReadCSV parses a dataset from r. See LoadCSV.
func ReadCSV(r io.Reader, labelColumn string) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	labelIdx := -1
	var features []string
	for i, col := range header {
		if col == labelColumn {
			labelIdx = i
			continue
		}
		features = append(features, col)
	}
	if labelIdx < 0 {
		return nil, fmt.Errorf("label column %q not found in header %v", labelColumn, header)
	}
	if len(features) == 0 {
		return nil, fmt.Errorf("no feature columns besides %q", labelColumn)
	}

	var data []float64
	var labels []string
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		for i, field := range record {
			if i == labelIdx {
				labels = append(labels, field)
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %q: %w", line, header[i], err)
			}
			data = append(data, v)
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	encoder := NewLabelEncoder(labels)
	y, err := encoder.Encode(labels)
	if err != nil {
		return nil, err
	}

	return &Dataset{
		X:        mat.NewDense(len(labels), len(features), data),
		Y:        y,
		Features: features,
		Labels:   encoder,
	}, nil
}
