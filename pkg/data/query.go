package data

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/miission/scorecard/pkg/metrics"
)

const (
	selectScoredPairsSQL = `SELECT o.value, l.label
		FROM observation o
		LEFT JOIN row_label l ON l.dataset = o.dataset AND l.row_id = o.row_id
		WHERE o.dataset = ? AND o.variable = ?
		ORDER BY o.row_id
	`

	selectColumnSQL = `SELECT o.value
		FROM observation o
		WHERE o.dataset = ? AND o.variable = ?
		ORDER BY o.row_id
	`

	selectLabelsSQL = `SELECT l.label
		FROM row_label l
		WHERE l.dataset = ?
		ORDER BY l.row_id
	`
)

// ScoredPairs returns one variable's values zipped with the dataset's raw
// labels, in row order. Labels come back as nil for unlabeled rows, matching
// what the metrics normalizer treats as missing.
func ScoredPairs(db *sql.DB, dataset, variable string) ([]any, []float64, error) {
	if db == nil {
		return nil, nil, errDBNotInitialized
	}

	rows, err := db.Query(selectScoredPairsSQL, dataset, variable)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to query pairs for: %s/%s", dataset, variable)
	}
	defer rows.Close()

	labels := make([]any, 0)
	values := make([]float64, 0)
	for rows.Next() {
		var v float64
		var label sql.NullString
		if err := rows.Scan(&v, &label); err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan pair")
		}
		values = append(values, v)
		if label.Valid {
			labels = append(labels, label.String)
		} else {
			labels = append(labels, nil)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to read pairs")
	}
	if len(values) == 0 {
		return nil, nil, errors.Errorf("no data for: %s/%s", dataset, variable)
	}
	return labels, values, nil
}

// LoadPopulation assembles a dataset into a metrics population. An empty
// variable list loads every score column.
func LoadPopulation(db *sql.DB, dataset string, variables []string) (*metrics.Population, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	if len(variables) == 0 {
		all, err := Variables(db, dataset)
		if err != nil {
			return nil, err
		}
		variables = all
	}
	if len(variables) == 0 {
		return nil, errors.Errorf("no variables in dataset: %s", dataset)
	}

	pop := &metrics.Population{
		Name:   dataset,
		Scores: make(map[string][]float64, len(variables)),
	}
	for _, v := range variables {
		col, err := loadColumn(db, dataset, v)
		if err != nil {
			return nil, err
		}
		pop.Scores[v] = col
	}

	labels, err := loadLabels(db, dataset)
	if err != nil {
		return nil, err
	}
	pop.Labels = labels
	return pop, nil
}

func loadColumn(db *sql.DB, dataset, variable string) ([]float64, error) {
	rows, err := db.Query(selectColumnSQL, dataset, variable)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query column: %s/%s", dataset, variable)
	}
	defer rows.Close()

	out := make([]float64, 0)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "failed to scan value")
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.Errorf("no data for: %s/%s", dataset, variable)
	}
	return out, nil
}

// loadLabels returns nil without error when the dataset has no labels at all.
func loadLabels(db *sql.DB, dataset string) ([]any, error) {
	rows, err := db.Query(selectLabelsSQL, dataset)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query labels for: %s", dataset)
	}
	defer rows.Close()

	out := make([]any, 0)
	labeled := false
	for rows.Next() {
		var label sql.NullString
		if err := rows.Scan(&label); err != nil {
			return nil, errors.Wrap(err, "failed to scan label")
		}
		if label.Valid {
			out = append(out, label.String)
			labeled = true
		} else {
			out = append(out, nil)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !labeled {
		return nil, nil
	}
	return out, nil
}
