package data

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	stateQueries = map[string]string{
		"model":          "SELECT COUNT(*) FROM model",
		"strict_model":   "SELECT COUNT(*) FROM model WHERE strict = 1",
		"max_dim":        "SELECT COALESCE(MAX(dim), 0) FROM model",
		"schema_version": "SELECT COALESCE(MAX(version), 0) FROM schema_version",
	}
)

// GetDataState returns the current state of the database.
func GetDataState(db *sqlx.DB) (map[string]int64, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	state := make(map[string]int64, len(stateQueries))
	for k, q := range stateQueries {
		count, err := getCount(db, q)
		if err != nil {
			return nil, fmt.Errorf("error getting %s count: %w", k, err)
		}
		state[k] = count
	}

	return state, nil
}

func getCount(db *sqlx.DB, query string) (int64, error) {
	var count int64
	if err := db.Get(&count, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan row: %w", err)
	}
	return count, nil
}
