package metrics

import (
	"math"
	"slices"
)

// CorrelationPair is the Pearson coefficient between two numeric columns.
type CorrelationPair struct {
	A           string
	B           string
	Coefficient float64
}

// CorrelationMatrix holds pairwise coefficients for the numeric columns of a
// table. Values[i][j] pairs Columns[i] with Columns[j]; undefined entries
// (fewer than two shared rows, or a constant column) are NaN.
type CorrelationMatrix struct {
	Columns []string
	Values  [][]float64
}

// Correlate computes the correlation matrix over the numeric columns of t
// that are not excluded, in table column order. Each pair uses only rows
// where both columns are present.
func Correlate(t *Table, exclude []string) CorrelationMatrix {
	var cols []string
	for _, name := range t.NumericColumns() {
		if !slices.Contains(exclude, name) {
			cols = append(cols, name)
		}
	}

	m := CorrelationMatrix{Columns: cols, Values: make([][]float64, len(cols))}
	for i := range cols {
		m.Values[i] = make([]float64, len(cols))
	}
	for i := range cols {
		for j := 0; j <= i; j++ {
			r := pearson(t.Rows, cols[i], cols[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// FindCorrelations returns the pairs whose absolute coefficient exceeds
// threshold. Only entries below the diagonal (row > column) are visited, so a
// column is never paired with itself and each pair appears once, ordered by
// row then column.
func FindCorrelations(t *Table, exclude []string, threshold float64) []CorrelationPair {
	m := Correlate(t, exclude)

	var pairs []CorrelationPair
	for i := range m.Columns {
		for j := 0; j < i; j++ {
			r := m.Values[i][j]
			if math.Abs(r) > threshold {
				pairs = append(pairs, CorrelationPair{A: m.Columns[i], B: m.Columns[j], Coefficient: r})
			}
		}
	}
	return pairs
}

func pearson(rows []Row, a, b string) float64 {
	var xs, ys []float64
	for _, r := range rows {
		x, okx := r.Num(a)
		y, oky := r.Num(b)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}

	mx, my := Mean(xs), Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}

	r := sxy / math.Sqrt(sxx*syy)
	// Rounding can push a perfect correlation a hair past ±1.
	return math.Max(-1, math.Min(1, r))
}
