package data

import (
	"database/sql"

	"github.com/pkg/errors"
)

const (
	insertObservationSQL = `INSERT INTO observation (dataset, row_id, variable, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (dataset, row_id, variable) DO UPDATE SET value = excluded.value
	`

	insertLabelSQL = `INSERT INTO row_label (dataset, row_id, label)
		VALUES (?, ?, ?)
		ON CONFLICT (dataset, row_id) DO UPDATE SET label = excluded.label
	`

	selectDatasetsSQL = `SELECT
			o.dataset,
			COUNT(DISTINCT o.row_id) AS row_count,
			COUNT(DISTINCT o.variable) AS variable_count,
			EXISTS (
				SELECT 1 FROM row_label l
				WHERE l.dataset = o.dataset AND l.label IS NOT NULL
			) AS labeled
		FROM observation o
		GROUP BY o.dataset
		ORDER BY o.dataset
	`

	selectVariablesSQL = `SELECT DISTINCT variable
		FROM observation
		WHERE dataset = ?
		ORDER BY variable
	`

	deleteObservationsSQL = `DELETE FROM observation WHERE dataset = ?`
	deleteLabelsSQL       = `DELETE FROM row_label WHERE dataset = ?`
)

// Row is one imported sample row: variable values plus an optional raw label.
type Row struct {
	Values map[string]float64
	Label  *string
}

// DatasetSummary describes one imported dataset.
type DatasetSummary struct {
	Name      string `json:"name" yaml:"name"`
	Rows      int    `json:"rows" yaml:"rows"`
	Variables int    `json:"variables" yaml:"variables"`
	Labeled   bool   `json:"labeled" yaml:"labeled"`
}

// SaveRows writes a dataset's rows in one transaction, replacing values on
// re-import of the same dataset name.
func SaveRows(db *sql.DB, dataset string, rows []Row) error {
	if db == nil {
		return errDBNotInitialized
	}
	if dataset == "" {
		return errors.New("dataset name required")
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	obsStmt, err := tx.Prepare(insertObservationSQL)
	if err != nil {
		return rollback(tx, errors.Wrap(err, "failed to prepare observation statement"))
	}
	labelStmt, err := tx.Prepare(insertLabelSQL)
	if err != nil {
		return rollback(tx, errors.Wrap(err, "failed to prepare label statement"))
	}

	for i, r := range rows {
		for variable, value := range r.Values {
			if _, err := obsStmt.Exec(dataset, i, variable, value); err != nil {
				return rollback(tx, errors.Wrapf(err, "failed to save observation %d/%s", i, variable))
			}
		}
		if _, err := labelStmt.Exec(dataset, i, r.Label); err != nil {
			return rollback(tx, errors.Wrapf(err, "failed to save label %d", i))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func rollback(tx *sql.Tx, cause error) error {
	if err := tx.Rollback(); err != nil {
		return errors.Wrapf(cause, "failed to rollback transaction: %v", err)
	}
	return cause
}

// ListDatasets returns summaries of all imported datasets.
func ListDatasets(db *sql.DB) ([]*DatasetSummary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectDatasetsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query datasets")
	}
	defer rows.Close()

	out := make([]*DatasetSummary, 0)
	for rows.Next() {
		s := &DatasetSummary{}
		if err := rows.Scan(&s.Name, &s.Rows, &s.Variables, &s.Labeled); err != nil {
			return nil, errors.Wrap(err, "failed to scan dataset summary")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Variables lists the distinct score columns of one dataset.
func Variables(db *sql.DB, dataset string) ([]string, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectVariablesSQL, dataset)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query variables for: %s", dataset)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "failed to scan variable")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteDataset removes one dataset's observations and labels.
func DeleteDataset(db *sql.DB, dataset string) error {
	if db == nil {
		return errDBNotInitialized
	}
	if dataset == "" {
		return errors.New("dataset name required")
	}

	if _, err := db.Exec(deleteObservationsSQL, dataset); err != nil {
		return errors.Wrapf(err, "failed to delete observations for: %s", dataset)
	}
	if _, err := db.Exec(deleteLabelsSQL, dataset); err != nil {
		return errors.Wrapf(err, "failed to delete labels for: %s", dataset)
	}
	return nil
}
