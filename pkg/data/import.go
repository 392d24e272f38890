package data

import (
	"database/sql"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// LabelColumn is the reserved CSV header naming the outcome column;
// every other column is treated as a numeric score variable.
const LabelColumn = "label"

// ReadCSV parses one scored sample file. The first CSV record is the header;
// an empty cell in the label column means a missing label.
func ReadCSV(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open sample file: %s", path)
	}
	defer file.Close()

	rows, err := parseCSV(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse sample file: %s", path)
	}
	return rows, nil
}

// ImportCSV loads one scored sample file into the store under the dataset
// name and returns the number of rows imported.
func ImportCSV(db *sql.DB, dataset, path string) (int, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	rows, err := ReadCSV(path)
	if err != nil {
		return 0, err
	}

	if err := SaveRows(db, dataset, rows); err != nil {
		return 0, errors.Wrapf(err, "failed to save dataset: %s", dataset)
	}

	log.Debug().Msgf("imported %d rows into dataset: %s", len(rows), dataset)
	return len(rows), nil
}

func parseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}

	labelIdx := -1
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
		if header[i] == LabelColumn {
			labelIdx = i
		}
	}
	if len(header) == 0 || (labelIdx == 0 && len(header) == 1) {
		return nil, errors.New("no score columns in header")
	}

	rows := make([]Row, 0)
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read line %d", line)
		}

		row := Row{Values: make(map[string]float64, len(header))}
		for i, cell := range rec {
			cell = strings.TrimSpace(cell)
			if i == labelIdx {
				if cell != "" {
					label := cell
					row.Label = &label
				}
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: column %s is not numeric", line, header[i])
			}
			row.Values[header[i]] = v
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errors.New("no rows in sample file")
	}
	return rows, nil
}
