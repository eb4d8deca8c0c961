package vinecop

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mchmarny/vinecop/pkg/bicop"
	"gopkg.in/yaml.v3"
)

type modelDoc struct {
	Structure   [][]int          `json:"structure" yaml:"structure,flow"`
	PairCopulas [][]*bicop.Bicop `json:"pair_copulas" yaml:"pair_copulas"`
	Strict      bool             `json:"strict,omitempty" yaml:"strict,omitempty"`
}

func (v *Vinecop) doc() modelDoc {
	return modelDoc{
		Structure:   v.Matrix(),
		PairCopulas: v.AllPairCopulas(),
		Strict:      v.Strict(),
	}
}

func (v *Vinecop) set(d modelDoc) error {
	if len(d.Structure) == 0 && len(d.PairCopulas) == 0 {
		*v = Vinecop{}
		return nil
	}

	var opts []Option
	if d.Strict {
		opts = append(opts, WithStrictMatrix())
	}
	nv, err := NewFromPairCopulas(d.PairCopulas, d.Structure, opts...)
	if err != nil {
		return err
	}
	*v = *nv
	return nil
}

func (v *Vinecop) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.doc())
}

// UnmarshalJSON decodes the model and runs the full construction checks.
func (v *Vinecop) UnmarshalJSON(data []byte) error {
	var d modelDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("decoding vinecop: %w", err)
	}
	return v.set(d)
}

func (v *Vinecop) MarshalYAML() (any, error) {
	return v.doc(), nil
}

// UnmarshalYAML decodes the model and runs the full construction checks.
func (v *Vinecop) UnmarshalYAML(node *yaml.Node) error {
	var d modelDoc
	if err := node.Decode(&d); err != nil {
		return fmt.Errorf("decoding vinecop: %w", err)
	}
	return v.set(d)
}

// Parse decodes a model from JSON or YAML content.
func Parse(b []byte) (*Vinecop, error) {
	v := New()
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("decoding vinecop: empty content")
	}

	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	if err := yaml.Unmarshal(trimmed, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadFile loads a model from a JSON or YAML file.
func ReadFile(path string) (*Vinecop, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading model file %s: %w", path, err)
	}
	v, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("error parsing model file %s: %w", path, err)
	}
	return v, nil
}

// WriteFile stores the model as YAML when the path ends in .yaml or .yml,
// and as indented JSON otherwise.
func WriteFile(path string, v *Vinecop) error {
	var (
		b   []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err = yaml.Marshal(v)
	default:
		b, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("error encoding model: %w", err)
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("error writing model file %s: %w", path, err)
	}
	return nil
}
