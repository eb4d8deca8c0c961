package vinecop

import (
	"slices"
	"strconv"
	"strings"
)

// CheckLevel selects how thoroughly a structure matrix is validated.
type CheckLevel int

const (
	// CheckSyntax verifies the shape of the array: square, at least 2x2, zeros
	// below the antidiagonal and variable labels 1..d above it.
	CheckSyntax CheckLevel = iota

	// CheckStrict additionally requires a proper R-vine: the antidiagonal is a
	// permutation of 1..d, columns are nested and the proximity condition holds.
	CheckStrict
)

func (l CheckLevel) String() string {
	switch l {
	case CheckSyntax:
		return "syntax"
	case CheckStrict:
		return "strict"
	default:
		return "level(" + strconv.Itoa(int(l)) + ")"
	}
}

// Matrix is an R-vine structure matrix. Column j lists, from the top row down
// to the antidiagonal, the conditioning variables and the conditioned pair of
// the edges that involve variable M[d-1-j][j]. Entries below the antidiagonal
// are zero. A Matrix never exposes its backing storage.
type Matrix struct {
	d    int
	rows [][]int
}

// NewMatrix copies and validates rows at the given level.
func NewMatrix(rows [][]int, level CheckLevel) (Matrix, error) {
	m := Matrix{d: len(rows), rows: cloneRows(rows)}

	checks := []func() error{
		m.checkShape,
		m.checkLowerTriangle,
		m.checkUpperTriangle,
	}
	if level >= CheckStrict {
		checks = append(checks,
			m.checkAntidiagonal,
			m.checkColumns,
			m.checkProximity,
		)
	}

	for _, check := range checks {
		if err := check(); err != nil {
			return Matrix{}, err
		}
	}
	return m, nil
}

// DVineMatrix builds the structure matrix of a D-vine, a vine whose trees are
// all paths, visiting the variables in the given order.
func DVineMatrix(order []int) (Matrix, error) {
	d := len(order)
	rows := make([][]int, d)
	for i := range rows {
		rows[i] = make([]int, d)
	}

	for i := 0; i < d; i++ {
		rows[d-1-i][i] = order[d-1-i]
	}
	for i := 1; i < d; i++ {
		for j := 0; j < i; j++ {
			rows[d-1-i][j] = order[i-j-1]
		}
	}

	return NewMatrix(rows, CheckStrict)
}

func cloneRows(rows [][]int) [][]int {
	if rows == nil {
		return nil
	}
	out := make([][]int, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Dim returns the number of variables.
func (m Matrix) Dim() int { return m.d }

// At returns the entry at (row, col).
func (m Matrix) At(row, col int) (int, error) {
	if row < 0 || col < 0 || row >= m.d || col >= m.d {
		return 0, indexErrorf("row and col must be in [0, %d), got (%d, %d)", m.d, row, col)
	}
	return m.rows[row][col], nil
}

// Rows returns a copy of the matrix.
func (m Matrix) Rows() [][]int {
	return cloneRows(m.rows)
}

// Order returns the variable order of the vine, read off the antidiagonal
// from the top right corner to the bottom left corner.
func (m Matrix) Order() []int {
	order := make([]int, m.d)
	for k := range order {
		order[k] = m.rows[k][m.d-1-k]
	}
	return order
}

// colHead returns the first n entries of column j.
func (m Matrix) colHead(j, n int) []int {
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i] = m.rows[i][j]
	}
	return out
}

// InNaturalOrder relabels the variables so that the antidiagonal reads
// d, ..., 1 from the bottom left corner.
func (m Matrix) InNaturalOrder() [][]int {
	labels := make(map[int]int, m.d)
	for i := 0; i < m.d; i++ {
		labels[m.rows[m.d-1-i][i]] = m.d - i
	}

	out := m.Rows()
	for i := 0; i < m.d; i++ {
		for j := 0; j < m.d-i; j++ {
			out[i][j] = labels[m.rows[i][j]]
		}
	}
	return out
}

// MaxMatrix accumulates the elementwise maximum of the natural order matrix
// down each column. It identifies which pseudo observations an edge needs.
func (m Matrix) MaxMatrix() [][]int {
	out := m.InNaturalOrder()
	for i := 0; i < m.d-1; i++ {
		for j := 0; j < m.d-i-1; j++ {
			out[i+1][j] = max(out[i][j], out[i+1][j])
		}
	}
	return out
}

func (m Matrix) boolMatrix() [][]bool {
	out := make([][]bool, m.d)
	for i := range out {
		out[i] = make([]bool, m.d)
	}
	return out
}

// NeededHfunc1 marks the edges whose first h-function is needed by a later tree.
func (m Matrix) NeededHfunc1() [][]bool {
	needed := m.boolMatrix()
	no := m.InNaturalOrder()
	mx := m.MaxMatrix()

	for i := 1; i < m.d-1; i++ {
		j := m.d - i
		for r := 0; r < j; r++ {
			for c := 0; c < i; c++ {
				if no[r][c] != j && mx[r][c] == j {
					needed[r][i] = true
					break
				}
			}
		}
	}
	return needed
}

// NeededHfunc2 marks the edges whose second h-function is needed by a later tree.
func (m Matrix) NeededHfunc2() [][]bool {
	needed := m.boolMatrix()
	for r := 0; r < m.d-1; r++ {
		needed[r][0] = true
	}

	no := m.InNaturalOrder()
	mx := m.MaxMatrix()
	for i := 1; i < m.d-1; i++ {
		j := m.d - i
		for r := 0; r < m.d-i; r++ {
			needed[r][i] = true
		}
		needed[j-1][i] = false
		for c := 0; c < i; c++ {
			if no[j-1][c] == j && mx[j-1][c] == j {
				needed[j-1][i] = true
				break
			}
		}
	}
	return needed
}

// BelongsToStructure reports whether the edge with the given conditioned pair
// and conditioning set is part of the vine.
func (m Matrix) BelongsToStructure(conditioned, conditioning []int) (bool, error) {
	if len(conditioned) != 2 {
		return false, mismatchf("conditioned set must have two elements, got %d", len(conditioned))
	}

	tree := len(conditioning)
	if tree+2 > m.d {
		return false, nil
	}
	for i := 0; i < m.d-tree-1; i++ {
		pair := []int{m.rows[tree][i], m.rows[m.d-1-i][i]}
		if !sameSet(conditioned, pair) {
			continue
		}
		if sameSet(conditioning, m.colHead(i, tree)) {
			return true, nil
		}
	}
	return false, nil
}

func (m Matrix) checkShape() error {
	if m.d < 2 {
		return invalidMatrixf("must have at least two variables, got %d rows", m.d)
	}
	for i, r := range m.rows {
		if len(r) != m.d {
			return invalidMatrixf("must be quadratic; row %d has %d columns, expected %d", i, len(r), m.d)
		}
	}
	return nil
}

func (m Matrix) checkLowerTriangle() error {
	for i := 0; i < m.d; i++ {
		for j := m.d - i; j < m.d; j++ {
			if m.rows[i][j] != 0 {
				return invalidMatrixf("the lower right triangle must only contain zeros; found %d at (%d, %d)",
					m.rows[i][j], i, j)
			}
		}
	}
	return nil
}

func (m Matrix) checkUpperTriangle() error {
	for j := 0; j < m.d; j++ {
		for i := 0; i < m.d-j; i++ {
			if v := m.rows[i][j]; v < 1 || v > m.d {
				return invalidMatrixf("the upper left triangle can only contain numbers between 1 and %d; found %d at (%d, %d)",
					m.d, v, i, j)
			}
		}
	}
	return nil
}

func (m Matrix) checkAntidiagonal() error {
	diag := make([]int, m.d)
	for i := range diag {
		diag[i] = m.rows[m.d-1-i][i]
	}
	if !sameSet(diag, seq(1, m.d)) {
		return invalidMatrixf("the antidiagonal must contain the numbers 1, ..., %d; got %v", m.d, diag)
	}
	return nil
}

func (m Matrix) checkColumns() error {
	no := Matrix{d: m.d, rows: m.InNaturalOrder()}
	for j := 0; j < m.d; j++ {
		if !sameSet(no.colHead(j, m.d-j), seq(1, m.d-j)) {
			return invalidMatrixf("the antidiagonal entry of column %d must not be contained in any column further "+
				"to the right; the entries of a column must be contained in all columns to the left", j)
		}
	}
	return nil
}

func (m Matrix) checkProximity() error {
	for t := 1; t < m.d-1; t++ {
		for e := 0; e < m.d-t-1; e++ {
			// non-diagonal conditioned variable and conditioning set of the edge
			v0 := m.rows[t][e]
			d0 := m.colHead(e, t)
			if m.matchedRight(t, e, v0, d0) || m.matchedAbove(t, e, v0, d0) {
				continue
			}
			return invalidMatrixf("proximity condition violated; cannot extract conditional distribution (%d | %s) from pair-copulas",
				v0, joinInts(d0))
		}
	}
	return nil
}

// matchedRight searches the antidiagonal right of column e for v0 with the
// same conditioning set. Columns with less than t entries are skipped.
func (m Matrix) matchedRight(t, e, v0 int, d0 []int) bool {
	for j := e + 1; j < m.d-t; j++ {
		if m.rows[m.d-j-1][j] != v0 {
			continue
		}
		if sameSet(d0, m.colHead(j, t)) {
			return true
		}
	}
	return false
}

// matchedAbove searches row t-1 right of column e for v0, completing the
// conditioning set with the antidiagonal entry of the candidate column.
func (m Matrix) matchedAbove(t, e, v0 int, d0 []int) bool {
	for j := e + 1; j < m.d-t; j++ {
		if m.rows[t-1][j] != v0 {
			continue
		}
		cand := append(m.colHead(j, t-1), m.rows[m.d-j-1][j])
		if sameSet(d0, cand) {
			return true
		}
	}
	return false
}

func sameSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

func seq(from, to int) []int {
	if to < from {
		return []int{}
	}
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}
