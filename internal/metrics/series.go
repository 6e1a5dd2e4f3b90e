package metrics

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// Point is one timestamped value.
type Point struct {
	Time  time.Time
	Value float64
}

// Series returns a metric's converted values inside w, oldest first.
func (e *Engine) Series(name string, w Window) ([]Point, error) {
	def, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	tf := def.timeField()
	var points []Point
	for _, r := range e.Table(def.Source).Filter(w, tf) {
		v, ok := r.Num(def.Field)
		if !ok {
			continue
		}
		ts, _ := r.Time(tf)
		points = append(points, Point{Time: ts, Value: def.convert(v)})
	}
	slices.SortStableFunc(points, func(a, b Point) int { return a.Time.Compare(b.Time) })
	return points, nil
}

// Values returns the values of the points.
func Values(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}

// Summary is the lowest, highest and mean value of a series.
type Summary struct {
	Min   float64
	Max   float64
	Mean  float64
	Count int
}

// Summarize returns NaN statistics for an empty series.
func Summarize(points []Point) Summary {
	if len(points) == 0 {
		nan := math.NaN()
		return Summary{Min: nan, Max: nan, Mean: nan}
	}
	s := Summary{Min: math.Inf(1), Max: math.Inf(-1), Count: len(points)}
	for _, p := range points {
		s.Min = math.Min(s.Min, p.Value)
		s.Max = math.Max(s.Max, p.Value)
	}
	s.Mean = Mean(Values(points))
	return s
}

// DailyMeans groups points by calendar date in each point's location and
// returns one point per day at local midnight, oldest first.
func DailyMeans(points []Point) []Point {
	type bucket struct {
		day  time.Time
		vals []float64
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, p := range points {
		key := p.Time.Format(time.DateOnly)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{day: startOfDay(p.Time)}
			buckets[key] = b
			order = append(order, key)
		}
		b.vals = append(b.vals, p.Value)
	}

	out := make([]Point, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		out = append(out, Point{Time: b.day, Value: Mean(b.vals)})
	}
	slices.SortStableFunc(out, func(a, b Point) int { return a.Time.Compare(b.Time) })
	return out
}

// Count is a label with a number of occurrences.
type Count struct {
	Label string
	N     int
}

// WorkoutsPerDay counts workouts per calendar day of their start, oldest
// first. Days without workouts are omitted.
func (e *Engine) WorkoutsPerDay(w Window) []Count {
	t := e.Table(SourceWorkout)
	counts := make(map[string]int)
	for _, r := range t.Filter(w, "start") {
		ts, _ := r.Time("start")
		counts[ts.Format(time.DateOnly)]++
	}
	out := make([]Count, 0, len(counts))
	for day, n := range counts {
		out = append(out, Count{Label: day, N: n})
	}
	slices.SortFunc(out, func(a, b Count) int { return cmp.Compare(a.Label, b.Label) })
	return out
}

// SportDistribution counts workouts per sport, most frequent first.
func (e *Engine) SportDistribution(w Window) []Count {
	t := e.Table(SourceWorkout)
	counts := make(map[string]int)
	for _, r := range t.Filter(w, "start") {
		sport, ok := r.Text("sport_name")
		if !ok {
			sport = "unknown"
		}
		counts[sport]++
	}
	out := make([]Count, 0, len(counts))
	for sport, n := range counts {
		out = append(out, Count{Label: sport, N: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if c := cmp.Compare(b.N, a.N); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return out
}

// WeekSummary is the mean recovery of one ISO week.
type WeekSummary struct {
	Start time.Time
	End   time.Time
	Year  int
	Week  int
	Mean  float64
	Count int
}

// WeeklyRecovery joins recoveries in w with their cycles and averages the
// recovery score per ISO week of the cycle start. Recoveries without a
// matching cycle are dropped.
func (e *Engine) WeeklyRecovery(w Window) []WeekSummary {
	cycleStart := make(map[float64]time.Time)
	for _, r := range e.Table(SourceCycle).Rows {
		id, ok := r.Num("id")
		if !ok {
			continue
		}
		if start, ok := r.Time("start"); ok {
			cycleStart[id] = start
		}
	}

	type key struct{ year, week int }
	weeks := make(map[key]*WeekSummary)
	sums := make(map[key]float64)
	for _, r := range e.Table(SourceRecovery).Filter(w, "created_at") {
		id, ok := r.Num("cycle_id")
		if !ok {
			continue
		}
		start, ok := cycleStart[id]
		if !ok {
			continue
		}
		score, ok := r.Num("score.recovery_score")
		if !ok {
			continue
		}
		y, wk := start.ISOWeek()
		k := key{y, wk}
		ws, ok := weeks[k]
		if !ok {
			ws = &WeekSummary{Year: y, Week: wk, Start: start, End: start}
			weeks[k] = ws
		}
		if start.Before(ws.Start) {
			ws.Start = start
		}
		if start.After(ws.End) {
			ws.End = start
		}
		ws.Count++
		sums[k] += score
	}

	out := make([]WeekSummary, 0, len(weeks))
	for k, ws := range weeks {
		ws.Mean = sums[k] / float64(ws.Count)
		out = append(out, *ws)
	}
	slices.SortFunc(out, func(a, b WeekSummary) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Week, b.Week)
	})
	return out
}

// Snapshot compares the most recent value of a metric with the mean of the
// other values in the window.
type Snapshot struct {
	Latest   Point
	Metric   string
	Baseline float64
	Delta    float64
	Count    int
}

// Snapshot returns NaN fields when w holds no value; Baseline and Delta are
// NaN when it holds only one.
func (e *Engine) Snapshot(name string, w Window) (Snapshot, error) {
	points, err := e.Series(name, w)
	if err != nil {
		return Snapshot{Metric: name}, err
	}
	nan := math.NaN()
	if len(points) == 0 {
		return Snapshot{Metric: name, Latest: Point{Value: nan}, Baseline: nan, Delta: nan}, nil
	}

	latest := points[len(points)-1]
	baseline := Mean(Values(points[:len(points)-1]))
	return Snapshot{
		Metric:   name,
		Latest:   latest,
		Baseline: baseline,
		Delta:    latest.Value - baseline,
		Count:    len(points),
	}, nil
}
