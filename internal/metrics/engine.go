// Package metrics computes period statistics over fetched WHOOP records.
//
// Tables are built once per load. Every aggregate is a plain arithmetic mean
// over the rows whose window column falls inside an inclusive time window;
// an empty window yields NaN, which callers propagate instead of treating
// as an error.
package metrics

import (
	"math"

	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
)

// Engine answers metric queries against one set of tables.
type Engine struct {
	tables map[Source]*Table
}

// NewEngine builds the tables of a dataset. The sleep table keeps naps; use
// WithoutNaps for views that go night by night.
func NewEngine(ds *models.Dataset) *Engine {
	if ds == nil {
		ds = &models.Dataset{}
	}
	return NewEngineFromTables(
		RecoveryTable(ds.Recovery, ds.Cycles),
		SleepTable(ds.Sleep),
		WorkoutTable(ds.Workouts),
		CycleTable(ds.Cycles),
	)
}

// NewEngineFromTables wraps prebuilt tables. A later table replaces an
// earlier one from the same source.
func NewEngineFromTables(tables ...*Table) *Engine {
	e := &Engine{tables: make(map[Source]*Table, len(tables))}
	for _, t := range tables {
		if t != nil {
			e.tables[t.Source] = t
		}
	}
	return e
}

// WithoutNaps returns an engine over the same tables except that nap rows
// are dropped from the sleep table.
func (e *Engine) WithoutNaps() *Engine {
	out := &Engine{tables: make(map[Source]*Table, len(e.tables))}
	for src, t := range e.tables {
		out.tables[src] = t
	}
	sleep, ok := e.tables[SourceSleep]
	if !ok {
		return out
	}
	nights := &Table{Source: sleep.Source, TimeField: sleep.TimeField, Columns: sleep.Columns}
	for _, r := range sleep.Rows {
		if nap, _ := r.Bool("nap"); !nap {
			nights.Rows = append(nights.Rows, r)
		}
	}
	out.tables[SourceSleep] = nights
	return out
}

// Table returns the table for src, or an empty one.
func (e *Engine) Table(src Source) *Table {
	if t, ok := e.tables[src]; ok {
		return t
	}
	return &Table{Source: src, TimeField: src.defaultTimeField()}
}

// Values returns the converted values of a metric inside w, in row order.
func (e *Engine) Values(name string, w Window) ([]float64, error) {
	def, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return e.values(def, w), nil
}

func (e *Engine) values(def Definition, w Window) []float64 {
	rows := e.Table(def.Source).Filter(w, def.timeField())
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.Num(def.Field); ok {
			out = append(out, def.convert(v))
		}
	}
	return out
}

// Aggregate reduces a metric over w. It returns NaN when no row in w carries
// the metric.
func (e *Engine) Aggregate(name string, w Window) (float64, error) {
	def, err := Lookup(name)
	if err != nil {
		return math.NaN(), err
	}
	return def.reduce(e.values(def, w)), nil
}

// PeriodResult compares a metric between the current and comparison windows.
type PeriodResult struct {
	Metric        string
	Current       float64
	Comparison    float64
	DeltaPercent  float64
	LowerIsBetter bool
}

// DeltaDefined reports whether DeltaPercent is a finite number. It is false
// when either side is NaN or the comparison value is zero.
func (r PeriodResult) DeltaDefined() bool {
	return !math.IsNaN(r.DeltaPercent) && !math.IsInf(r.DeltaPercent, 0)
}

// Improved reports whether the change goes in the good direction for the
// metric. ok is false when the delta is undefined or zero.
func (r PeriodResult) Improved() (improved, ok bool) {
	if !r.DeltaDefined() || r.DeltaPercent == 0 {
		return false, false
	}
	up := r.DeltaPercent > 0
	return up != r.LowerIsBetter, true
}

// PercentChange returns (current - baseline) / baseline * 100. A zero
// baseline yields ±Inf, or NaN when current is zero too.
func PercentChange(baseline, current float64) float64 {
	return (current - baseline) / baseline * 100
}

// Compare aggregates a metric over both windows. The comparison window is the
// baseline of the percentage change.
func (e *Engine) Compare(name string, current, comparison Window) (PeriodResult, error) {
	def, err := Lookup(name)
	if err != nil {
		return PeriodResult{Metric: name, Current: math.NaN(), Comparison: math.NaN(), DeltaPercent: math.NaN()}, err
	}
	cur := def.reduce(e.values(def, current))
	cmp := def.reduce(e.values(def, comparison))
	return PeriodResult{
		Metric:        name,
		Current:       cur,
		Comparison:    cmp,
		DeltaPercent:  PercentChange(cmp, cur),
		LowerIsBetter: def.LowerIsBetter,
	}, nil
}

// CompareAll runs Compare for each name, skipping unknown ones.
func (e *Engine) CompareAll(names []string, current, comparison Window) []PeriodResult {
	out := make([]PeriodResult, 0, len(names))
	for _, name := range names {
		if r, err := e.Compare(name, current, comparison); err == nil {
			out = append(out, r)
		}
	}
	return out
}
