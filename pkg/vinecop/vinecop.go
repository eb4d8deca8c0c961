// Package vinecop implements the R-vine copula model: a structure matrix
// describing a nested sequence of trees and one bivariate copula per edge.
package vinecop

import (
	"math"

	"github.com/mchmarny/vinecop/pkg/bicop"
)

// Option configures Vinecop construction.
type Option func(*options)

type options struct {
	level CheckLevel
}

// WithStrictMatrix requires the structure matrix to be a proper R-vine array.
func WithStrictMatrix() Option {
	return WithCheckLevel(CheckStrict)
}

// WithCheckLevel sets the structure matrix check level.
func WithCheckLevel(level CheckLevel) Option {
	return func(o *options) {
		o.level = level
	}
}

// Vinecop is an R-vine copula model on d variables. It is immutable once
// constructed and safe for concurrent use.
type Vinecop struct {
	structure   Matrix
	pairCopulas [][]*bicop.Bicop
	level       CheckLevel
}

// New returns the placeholder model. It has no variables and no edges, so
// every edge accessor fails.
func New() *Vinecop {
	return &Vinecop{}
}

// NewFromPairCopulas validates the structure matrix and the triangular pair
// copula array and returns the model. Row t of pcs holds the d-1-t pair
// copulas of tree t.
func NewFromPairCopulas(pcs [][]*bicop.Bicop, matrix [][]int, opts ...Option) (*Vinecop, error) {
	o := &options{level: CheckSyntax}
	for _, opt := range opts {
		opt(o)
	}

	m, err := NewMatrix(matrix, o.level)
	if err != nil {
		return nil, err
	}
	if err := checkPairCopulas(pcs, m.Dim()); err != nil {
		return nil, err
	}

	// bicop values are immutable, sharing them is fine
	copied := make([][]*bicop.Bicop, len(pcs))
	for t, row := range pcs {
		copied[t] = append([]*bicop.Bicop(nil), row...)
	}

	return &Vinecop{
		structure:   m,
		pairCopulas: copied,
		level:       o.level,
	}, nil
}

// NewIndependence returns the model with the given structure and independence
// copulas on every edge.
func NewIndependence(matrix [][]int, opts ...Option) (*Vinecop, error) {
	d := len(matrix)
	if d < 2 {
		_, err := NewMatrix(matrix, CheckSyntax)
		return nil, err
	}
	return NewFromPairCopulas(independenceRows(d), matrix, opts...)
}

// NewDVine returns the D-vine on variables 1..d with independence copulas.
func NewDVine(d int) (*Vinecop, error) {
	order := seq(1, d)
	m, err := DVineMatrix(order)
	if err != nil {
		return nil, err
	}
	return NewFromPairCopulas(independenceRows(d), m.rows, WithStrictMatrix())
}

func independenceRows(d int) [][]*bicop.Bicop {
	rows := make([][]*bicop.Bicop, d-1)
	for t := range rows {
		rows[t] = make([]*bicop.Bicop, d-1-t)
		for e := range rows[t] {
			rows[t][e] = bicop.Independence()
		}
	}
	return rows
}

func checkPairCopulas(pcs [][]*bicop.Bicop, d int) error {
	if len(pcs) != d-1 {
		return mismatchf("size of pair_copulas does not match dimension of matrix; expected %d trees, got %d", d-1, len(pcs))
	}
	for t, row := range pcs {
		if len(row) != d-1-t {
			return mismatchf("tree %d must have %d pair copulas, got %d", t, d-1-t, len(row))
		}
		for e, pc := range row {
			if pc == nil {
				return mismatchf("missing pair copula at tree %d, edge %d", t, e)
			}
		}
	}
	return nil
}

// PairCopula returns the pair copula of the given edge.
func (v *Vinecop) PairCopula(tree, edge int) (*bicop.Bicop, error) {
	d := v.Dim()
	if d < 2 || tree < 0 || tree > d-2 {
		return nil, indexErrorf("tree index out of bounds; allowed: 0..%d, got %d", d-2, tree)
	}
	if edge < 0 || edge > d-tree-2 {
		return nil, indexErrorf("edge index out of bounds; allowed: 0..%d for tree %d, got %d", d-tree-2, tree, edge)
	}
	return v.pairCopulas[tree][edge], nil
}

func (v *Vinecop) Family(tree, edge int) (bicop.Family, error) {
	pc, err := v.PairCopula(tree, edge)
	if err != nil {
		return bicop.Indep, err
	}
	return pc.Family(), nil
}

func (v *Vinecop) Rotation(tree, edge int) (int, error) {
	pc, err := v.PairCopula(tree, edge)
	if err != nil {
		return 0, err
	}
	return pc.Rotation(), nil
}

// Parameters returns a copy of the parameters of the given edge.
func (v *Vinecop) Parameters(tree, edge int) ([]float64, error) {
	pc, err := v.PairCopula(tree, edge)
	if err != nil {
		return nil, err
	}
	return pc.Parameters(), nil
}

// Dim returns the number of variables, 0 for the placeholder.
func (v *Vinecop) Dim() int { return v.structure.Dim() }

// IsEmpty reports whether v is the placeholder model.
func (v *Vinecop) IsEmpty() bool { return v.Dim() == 0 }

// Strict reports whether the structure passed the full R-vine checks.
func (v *Vinecop) Strict() bool { return v.level >= CheckStrict }

// Structure returns the validated structure matrix.
func (v *Vinecop) Structure() Matrix { return v.structure }

// Matrix returns a copy of the structure matrix.
func (v *Vinecop) Matrix() [][]int {
	if v.IsEmpty() {
		return [][]int{}
	}
	return v.structure.Rows()
}

// Order returns the variable order of the structure.
func (v *Vinecop) Order() []int {
	if v.IsEmpty() {
		return []int{}
	}
	return v.structure.Order()
}

// NumParams returns the total number of parameters across all pair copulas.
func (v *Vinecop) NumParams() int {
	n := 0
	for _, row := range v.pairCopulas {
		for _, pc := range row {
			n += pc.NumParams()
		}
	}
	return n
}

// Families lists the pair copula families tree by tree.
func (v *Vinecop) Families() []bicop.Family {
	out := []bicop.Family{}
	for _, row := range v.pairCopulas {
		for _, pc := range row {
			out = append(out, pc.Family())
		}
	}
	return out
}

// Rotations lists the pair copula rotations tree by tree.
func (v *Vinecop) Rotations() []int {
	out := []int{}
	for _, row := range v.pairCopulas {
		for _, pc := range row {
			out = append(out, pc.Rotation())
		}
	}
	return out
}

func mapTriangle[T any](v *Vinecop, fn func(*bicop.Bicop) T) [][]T {
	out := make([][]T, len(v.pairCopulas))
	for t, row := range v.pairCopulas {
		out[t] = make([]T, len(row))
		for e, pc := range row {
			out[t][e] = fn(pc)
		}
	}
	return out
}

func (v *Vinecop) AllPairCopulas() [][]*bicop.Bicop {
	return mapTriangle(v, func(pc *bicop.Bicop) *bicop.Bicop { return pc })
}

func (v *Vinecop) AllFamilies() [][]bicop.Family {
	return mapTriangle(v, (*bicop.Bicop).Family)
}

func (v *Vinecop) AllRotations() [][]int {
	return mapTriangle(v, (*bicop.Bicop).Rotation)
}

func (v *Vinecop) AllParameters() [][][]float64 {
	return mapTriangle(v, (*bicop.Bicop).Parameters)
}

// AllTaus returns Kendall's tau per edge, NaN where the family has no
// closed form.
func (v *Vinecop) AllTaus() [][]float64 {
	return mapTriangle(v, func(pc *bicop.Bicop) float64 {
		tau, err := pc.Tau()
		if err != nil {
			return math.NaN()
		}
		return tau
	})
}
