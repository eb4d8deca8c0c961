package bicop

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	associationPositive = "positive"
	associationNegative = "negative"
	associationBoth     = "both"
	associationNone     = "none"
)

// Bicop is a bivariate copula model. It is immutable once constructed and
// safe for concurrent use.
type Bicop struct {
	family     Family
	rotation   int
	parameters []float64
}

// New validates the family, rotation and parameters and returns the model.
// Any violation yields an error matching ErrValidation.
func New(family Family, rotation int, parameters []float64) (*Bicop, error) {
	if !family.Valid() {
		return nil, invalidf(ErrUnknownFamily, "code %d", int(family))
	}
	if err := checkRotation(family, rotation); err != nil {
		return nil, err
	}
	if err := checkParameters(family, parameters); err != nil {
		return nil, err
	}

	return &Bicop{
		family:     family,
		rotation:   rotation,
		parameters: slices.Clone(parameters),
	}, nil
}

// Independence returns the independence copula.
func Independence() *Bicop {
	return &Bicop{family: Indep}
}

func checkRotation(family Family, rotation int) error {
	if !slices.Contains(family.info().rotations, rotation) {
		return invalidf(ErrRotation, "got %d for the %s copula", rotation, family)
	}
	return nil
}

func checkParameters(family Family, parameters []float64) error {
	fi := family.info()
	n := len(parameters)
	if n < fi.minParams || (fi.maxParams != unboundedParams && n > fi.maxParams) {
		return invalidf(ErrParameterCount, "%s copula expects %s, got %d",
			family, arity(fi), n)
	}

	for i, p := range parameters {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return invalidf(ErrParameterDomain, "parameters[%d] must be finite for the %s copula", i, family)
		}
		b := fi.bounds[min(i, len(fi.bounds)-1)]
		if !b.Contains(p) {
			return invalidf(ErrParameterDomain, "parameters[%d] (%s) must be in [%g, %g] for the %s copula, got %g",
				i, b.Name, b.Lower, b.Upper, family, p)
		}
	}
	return nil
}

func arity(fi *familyInfo) string {
	switch {
	case fi.maxParams == unboundedParams:
		return fmt.Sprintf("at least %d", fi.minParams)
	case fi.minParams == fi.maxParams:
		return fmt.Sprintf("%d", fi.minParams)
	default:
		return fmt.Sprintf("%d to %d", fi.minParams, fi.maxParams)
	}
}

func (b *Bicop) Family() Family { return b.family }

func (b *Bicop) Rotation() int { return b.rotation }

// Parameters returns a copy of the parameter vector.
func (b *Bicop) Parameters() []float64 {
	if len(b.parameters) == 0 {
		return []float64{}
	}
	return slices.Clone(b.parameters)
}

func (b *Bicop) NumParams() int { return len(b.parameters) }

// Flip returns the copula of the swapped variable pair (v, u).
func (b *Bicop) Flip() *Bicop {
	flipped := &Bicop{
		family:     b.family,
		rotation:   b.rotation,
		parameters: slices.Clone(b.parameters),
	}

	switch {
	case b.family.FlipsByRotation():
		switch b.rotation {
		case 90:
			flipped.rotation = 270
		case 270:
			flipped.rotation = 90
		}
	case b.family == TLL:
		flipped.parameters = transposeGrid(b.parameters)
	}
	return flipped
}

// transposeGrid transposes a square density grid stored row-major. Vectors
// that are not a square grid are returned unchanged.
func transposeGrid(v []float64) []float64 {
	k := int(math.Sqrt(float64(len(v))))
	if k*k != len(v) {
		return slices.Clone(v)
	}
	out := make([]float64, len(v))
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			out[j*k+i] = v[i*k+j]
		}
	}
	return out
}

// AssociationDirection is "positive" or "negative" for families that only model
// one sign of dependence, "both" for families covering both signs and "none"
// for the independence and nonparametric families.
func (b *Bicop) AssociationDirection() string {
	switch {
	case b.family == Indep || b.family.IsNonparametric():
		return associationNone
	case b.family.IsRotationless():
		return associationBoth
	case b.rotation == 90 || b.rotation == 270:
		return associationNegative
	default:
		return associationPositive
	}
}

// Equal reports whether both copulas carry the same family, rotation and parameters.
func (b *Bicop) Equal(o *Bicop) bool {
	if b == nil || o == nil {
		return b == o
	}
	return b.family == o.family &&
		b.rotation == o.rotation &&
		slices.Equal(b.parameters, o.parameters)
}

func (b *Bicop) String() string {
	return fmt.Sprintf("%s (rotation: %d, parameters: %v)", b.family, b.rotation, b.Parameters())
}

type bicopDoc struct {
	Family     Family    `json:"family" yaml:"family"`
	Rotation   int       `json:"rotation" yaml:"rotation"`
	Parameters []float64 `json:"parameters" yaml:"parameters,flow"`
}

func (b *Bicop) doc() bicopDoc {
	return bicopDoc{
		Family:     b.family,
		Rotation:   b.rotation,
		Parameters: b.Parameters(),
	}
}

func (b *Bicop) set(d bicopDoc) error {
	nb, err := New(d.Family, d.Rotation, d.Parameters)
	if err != nil {
		return err
	}
	*b = *nb
	return nil
}

func (b *Bicop) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.doc())
}

// UnmarshalJSON decodes and fully validates the copula.
func (b *Bicop) UnmarshalJSON(data []byte) error {
	var d bicopDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return fmt.Errorf("decoding bicop: %w", err)
	}
	return b.set(d)
}

func (b *Bicop) MarshalYAML() (any, error) {
	return b.doc(), nil
}

// UnmarshalYAML decodes and fully validates the copula.
func (b *Bicop) UnmarshalYAML(node *yaml.Node) error {
	if v := mappingValue(node, "family"); v != nil && v.ShortTag() == "!!null" {
		return fmt.Errorf("decoding bicop: %w", invalidf(ErrUnknownFamily, "line %d: family is required", v.Line))
	}
	var d bicopDoc
	if err := node.Decode(&d); err != nil {
		return fmt.Errorf("decoding bicop: %w", err)
	}
	return b.set(d)
}

// mappingValue returns the value node stored under key, or nil.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
