// Package bicop holds the bivariate copula model: a closed set of parametric
// families, the four canonical rotations and a validated parameter vector.
package bicop

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Family identifies a bivariate copula family. The numeric values are stable
// and double as the legacy integer family codes.
type Family int

const (
	Indep Family = iota
	Gaussian
	Student
	Clayton
	Gumbel
	Frank
	Joe
	BB1
	BB6
	BB7
	BB8
	TLL
)

const (
	// unboundedParams marks families without an upper limit on the parameter count.
	unboundedParams = -1

	maxDependence = 200.0
)

type group uint16

const (
	groupParametric group = 1 << iota
	groupNonparametric
	groupElliptical
	groupArchimedean
	groupBB
	groupRotationless
	groupLowerTail
	groupUpperTail
	groupOnePar
	groupTwoPar
	groupTau
	groupFlipByRotation
)

// Bound is the closed interval a parameter must lie in.
type Bound struct {
	Name  string  `json:"name" yaml:"name"`
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// Contains reports whether v lies in [Lower, Upper].
func (b Bound) Contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

type familyInfo struct {
	name      string
	minParams int
	maxParams int
	// for variable arity families bounds has a single entry applied to every value
	bounds    []Bound
	rotations []int
	groups    group
}

var (
	allRotations = []int{0, 90, 180, 270}

	rhoBound = Bound{Name: "rho", Lower: -1, Upper: 1}

	families = [...]familyInfo{
		Indep: {
			name:      "indep",
			rotations: allRotations,
			groups:    groupParametric | groupNonparametric | groupRotationless | groupTau,
		},
		Gaussian: {
			name:      "gaussian",
			minParams: 1,
			maxParams: 1,
			bounds:    []Bound{rhoBound},
			rotations: allRotations,
			groups:    groupParametric | groupElliptical | groupOnePar | groupRotationless | groupTau,
		},
		Student: {
			name:      "student",
			minParams: 2,
			maxParams: 2,
			bounds:    []Bound{rhoBound, {Name: "nu", Lower: 2, Upper: 50}},
			rotations: allRotations,
			groups:    groupParametric | groupElliptical | groupTwoPar | groupRotationless | groupTau,
		},
		Clayton: {
			name:      "clayton",
			minParams: 1,
			maxParams: 1,
			bounds:    []Bound{{Name: "theta", Lower: 0, Upper: maxDependence}},
			rotations: allRotations,
			groups:    groupParametric | groupArchimedean | groupOnePar | groupLowerTail | groupTau | groupFlipByRotation,
		},
		Gumbel: {
			name:      "gumbel",
			minParams: 1,
			maxParams: 1,
			bounds:    []Bound{{Name: "theta", Lower: 1, Upper: maxDependence}},
			rotations: allRotations,
			groups:    groupParametric | groupArchimedean | groupOnePar | groupUpperTail | groupTau | groupFlipByRotation,
		},
		Frank: {
			name:      "frank",
			minParams: 1,
			maxParams: 1,
			bounds:    []Bound{{Name: "theta", Lower: -maxDependence, Upper: maxDependence}},
			rotations: allRotations,
			groups:    groupParametric | groupArchimedean | groupOnePar | groupRotationless | groupTau | groupFlipByRotation,
		},
		Joe: {
			name:      "joe",
			minParams: 1,
			maxParams: 1,
			bounds:    []Bound{{Name: "theta", Lower: 1, Upper: maxDependence}},
			rotations: allRotations,
			groups:    groupParametric | groupArchimedean | groupOnePar | groupUpperTail | groupTau | groupFlipByRotation,
		},
		BB1: {
			name:      "bb1",
			minParams: 2,
			maxParams: 2,
			bounds: []Bound{
				{Name: "theta", Lower: 0, Upper: maxDependence},
				{Name: "delta", Lower: 1, Upper: maxDependence},
			},
			rotations: allRotations,
			groups:    groupParametric | groupArchimedean | groupBB | groupTwoPar | groupLowerTail | groupUpperTail | groupFlipByRotation,
		},
		BB6: {
			name:      "bb6",
			minParams: 2,
			maxParams: 2,
			bounds: []Bound{
				{Name: "theta", Lower: 1, Upper: maxDependence},
				{Name: "delta", Lower: 1, Upper: maxDependence},
			},
			rotations: allRotations,
			groups:    groupParametric | groupArchimedean | groupBB | groupTwoPar | groupUpperTail | groupFlipByRotation,
		},
		BB7: {
			name:      "bb7",
			minParams: 2,
			maxParams: 2,
			bounds: []Bound{
				{Name: "theta", Lower: 1, Upper: maxDependence},
				{Name: "delta", Lower: 0, Upper: maxDependence},
			},
			rotations: allRotations,
			groups:    groupParametric | groupArchimedean | groupBB | groupTwoPar | groupLowerTail | groupUpperTail | groupFlipByRotation,
		},
		BB8: {
			name:      "bb8",
			minParams: 2,
			maxParams: 2,
			bounds: []Bound{
				{Name: "theta", Lower: 1, Upper: maxDependence},
				{Name: "delta", Lower: 0, Upper: 1},
			},
			rotations: allRotations,
			groups:    groupParametric | groupArchimedean | groupBB | groupTwoPar | groupUpperTail | groupFlipByRotation,
		},
		TLL: {
			name:      "tll",
			maxParams: unboundedParams,
			bounds:    []Bound{{Name: "density", Lower: 0, Upper: math.MaxFloat64}},
			rotations: allRotations,
			groups:    groupNonparametric | groupRotationless,
		},
	}

	familyAliases = map[string]Family{
		"independence": Indep,
		"gauss":        Gaussian,
		"normal":       Gaussian,
		"t":            Student,
		"tll0":         TLL,
	}
)

// Families returns every known family in code order.
func Families() []Family {
	list := make([]Family, len(families))
	for i := range families {
		list[i] = Family(i)
	}
	return list
}

// Valid reports whether f is a member of the enumeration.
func (f Family) Valid() bool {
	return f >= 0 && int(f) < len(families)
}

func (f Family) info() *familyInfo {
	if !f.Valid() {
		return nil
	}
	return &families[f]
}

func (f Family) String() string {
	if i := f.info(); i != nil {
		return i.name
	}
	return "family(" + strconv.Itoa(int(f)) + ")"
}

// NumParams returns the accepted parameter count range. A negative max means
// the family takes any number of parameters.
func (f Family) NumParams() (minParams, maxParams int) {
	i := f.info()
	if i == nil {
		return 0, 0
	}
	return i.minParams, i.maxParams
}

// Bounds returns a copy of the per-parameter domain of the family.
func (f Family) Bounds() []Bound {
	i := f.info()
	if i == nil {
		return nil
	}
	return append([]Bound(nil), i.bounds...)
}

// Rotations returns the rotations the family accepts.
func (f Family) Rotations() []int {
	i := f.info()
	if i == nil {
		return nil
	}
	return append([]int(nil), i.rotations...)
}

func (f Family) is(g group) bool {
	i := f.info()
	return i != nil && i.groups&g != 0
}

func (f Family) IsParametric() bool    { return f.is(groupParametric) }
func (f Family) IsNonparametric() bool { return f.is(groupNonparametric) }
func (f Family) IsElliptical() bool    { return f.is(groupElliptical) }
func (f Family) IsArchimedean() bool   { return f.is(groupArchimedean) }
func (f Family) IsBB() bool            { return f.is(groupBB) }
func (f Family) IsRotationless() bool  { return f.is(groupRotationless) }
func (f Family) HasLowerTail() bool    { return f.is(groupLowerTail) }
func (f Family) HasUpperTail() bool    { return f.is(groupUpperTail) }
func (f Family) IsOnePar() bool        { return f.is(groupOnePar) }
func (f Family) IsTwoPar() bool        { return f.is(groupTwoPar) }
func (f Family) SupportsTau() bool     { return f.is(groupTau) }

// FlipsByRotation reports whether swapping the two variables maps rotation
// 90 onto 270 and vice versa.
func (f Family) FlipsByRotation() bool { return f.is(groupFlipByRotation) }

// Groups lists the names of the groups f belongs to.
func (f Family) Groups() []string {
	names := []struct {
		g    group
		name string
	}{
		{groupParametric, "parametric"},
		{groupNonparametric, "nonparametric"},
		{groupElliptical, "elliptical"},
		{groupArchimedean, "archimedean"},
		{groupBB, "bb"},
		{groupRotationless, "rotationless"},
		{groupLowerTail, "lower_tail"},
		{groupUpperTail, "upper_tail"},
		{groupOnePar, "one_par"},
		{groupTwoPar, "two_par"},
		{groupTau, "itau"},
		{groupFlipByRotation, "flip_by_rotation"},
	}
	list := make([]string, 0)
	for _, n := range names {
		if f.is(n.g) {
			list = append(list, n.name)
		}
	}
	return list
}

// ParseFamily resolves a family from its name (case insensitive).
func ParseFamily(name string) (Family, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i := range families {
		if families[i].name == n {
			return Family(i), nil
		}
	}
	if f, ok := familyAliases[n]; ok {
		return f, nil
	}
	return 0, invalidf(ErrUnknownFamily, "%q", name)
}

func (f Family) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, invalidf(ErrUnknownFamily, "code %d", int(f))
	}
	return []byte(f.String()), nil
}

func (f *Family) UnmarshalText(b []byte) error {
	v, err := parseFamilyValue(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// UnmarshalJSON accepts a family name or a legacy integer code.
func (f *Family) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return invalidf(ErrUnknownFamily, "family is required")
	}
	if uq, err := strconv.Unquote(s); err == nil {
		s = uq
	}
	return f.UnmarshalText([]byte(s))
}

func (f Family) MarshalYAML() (any, error) {
	b, err := f.MarshalText()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *Family) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return invalidf(ErrUnknownFamily, "line %d: family must be a scalar", node.Line)
	}
	return f.UnmarshalText([]byte(node.Value))
}

func parseFamilyValue(s string) (Family, error) {
	if code, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return FamilyFromCode(code)
	}
	return ParseFamily(s)
}

// DescribeBounds renders the parameter domain, e.g. "theta in [0, 200]".
func (f Family) DescribeBounds() string {
	i := f.info()
	if i == nil || len(i.bounds) == 0 {
		return "none"
	}
	parts := make([]string, len(i.bounds))
	for k, b := range i.bounds {
		parts[k] = fmt.Sprintf("%s in [%g, %g]", b.Name, b.Lower, b.Upper)
	}
	return strings.Join(parts, ", ")
}
