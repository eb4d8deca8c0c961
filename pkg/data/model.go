package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mchmarny/vinecop/pkg/vinecop"
)

const (
	ModelListLimitDefault = 100

	familySeparator = ","
)

var (
	insertModel = `INSERT INTO model (id, name, source, dim, num_params, strict, families, body, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectModel = `SELECT id, name, source, dim, num_params, strict, families, body, created_at
		FROM model
		WHERE id = ?
	`

	selectModels = `SELECT id, name, source, dim, num_params, strict, families, created_at
		FROM model
		ORDER BY created_at DESC, name
		LIMIT ?
	`

	deleteModel = `DELETE FROM model WHERE id = ?`
)

// ModelRecord is a stored vine copula model.
type ModelRecord struct {
	ID        string `db:"id" json:"id" yaml:"id"`
	Name      string `db:"name" json:"name" yaml:"name"`
	Source    string `db:"source" json:"source,omitempty" yaml:"source,omitempty"`
	Dim       int    `db:"dim" json:"dim" yaml:"dim"`
	NumParams int    `db:"num_params" json:"num_params" yaml:"num_params"`
	Strict    bool   `db:"strict" json:"strict" yaml:"strict"`
	Families  string `db:"families" json:"families" yaml:"families"`
	Body      string `db:"body" json:"-" yaml:"-"`
	CreatedAt string `db:"created_at" json:"created_at" yaml:"created_at"`
}

// FamilyList splits the stored family summary.
func (r *ModelRecord) FamilyList() []string {
	if r.Families == "" {
		return []string{}
	}
	return strings.Split(r.Families, familySeparator)
}

// SaveModel stores the model under a new id. Source records where the
// model was loaded from and may be empty.
func SaveModel(db *sqlx.DB, name, source string, v *vinecop.Vinecop) (*ModelRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if name == "" {
		return nil, errors.New("model name is required")
	}
	if v == nil || v.IsEmpty() {
		return nil, errors.New("model is empty")
	}

	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}

	fams := v.Families()
	names := make([]string, len(fams))
	for i, f := range fams {
		names[i] = f.String()
	}

	r := &ModelRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Source:    source,
		Dim:       v.Dim(),
		NumParams: v.NumParams(),
		Strict:    v.Strict(),
		Families:  strings.Join(names, familySeparator),
		Body:      string(body),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}

	if _, err := db.Exec(db.Rebind(insertModel),
		r.ID, r.Name, r.Source, r.Dim, r.NumParams, boolToInt(r.Strict), r.Families, r.Body, r.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert model %s: %w", name, err)
	}

	return r, nil
}

// GetModel loads the model and runs the construction checks again.
func GetModel(db *sqlx.DB, id string) (*ModelRecord, *vinecop.Vinecop, error) {
	if db == nil {
		return nil, nil, errDBNotInitialized
	}

	var r ModelRecord
	if err := db.Get(&r, db.Rebind(selectModel), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, nil, fmt.Errorf("failed to select model %s: %w", id, err)
	}

	v, err := vinecop.Parse([]byte(r.Body))
	if err != nil {
		return nil, nil, fmt.Errorf("stored model %s is invalid: %w", id, err)
	}
	return &r, v, nil
}

// ListModels returns the most recent models first, without their bodies.
func ListModels(db *sqlx.DB, limit int) ([]*ModelRecord, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = ModelListLimitDefault
	}

	list := make([]*ModelRecord, 0)
	if err := db.Select(&list, db.Rebind(selectModels), limit); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return list, nil
}

func DeleteModel(db *sqlx.DB, id string) error {
	if db == nil {
		return errDBNotInitialized
	}

	res, err := db.Exec(db.Rebind(deleteModel), id)
	if err != nil {
		return fmt.Errorf("failed to delete model %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// strict is an INTEGER column in both schemas
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
