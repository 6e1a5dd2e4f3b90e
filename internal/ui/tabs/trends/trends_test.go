package trends

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/whoop-dashboard-tui/internal/app"
	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/tabs/tabtest"
)

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_CyclesMetrics(t *testing.T) {
	m := New(app.NewState())
	catalog := metrics.Catalog()

	if m.Selected().Name != catalog[0].Name {
		t.Fatalf("initial metric = %s", m.Selected().Name)
	}

	m.Update(keyPress("n"))
	if m.Selected().Name != catalog[1].Name {
		t.Errorf("after n = %s, want %s", m.Selected().Name, catalog[1].Name)
	}

	m.Update(keyPress("b"))
	m.Update(keyPress("b"))
	if m.Selected().Name != catalog[len(catalog)-1].Name {
		t.Errorf("b should wrap to the last metric, got %s", m.Selected().Name)
	}
}

func TestModel_ViewWithoutData(t *testing.T) {
	m := New(app.NewState())
	m.SetSize(100, 30)
	if !strings.Contains(m.View(), "No data loaded") {
		t.Error("expected empty state")
	}
}

func TestModel_View(t *testing.T) {
	state := app.NewState()
	state.SetResult(tabtest.Result(28))

	m := New(state)
	m.SetSize(140, 200)
	view := m.View()

	def := m.Selected()
	for _, want := range []string{"Trends", def.Label, "daily mean", "Mean:", "Weekday (", "Weekend ("} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_ViewMetricWithoutValues(t *testing.T) {
	state := app.NewState()
	state.SetResult(tabtest.Result(28))

	m := New(state)
	m.SetSize(140, 200)
	for m.Selected().Name != "distance" {
		m.Update(keyPress("n"))
	}

	view := m.View()
	if !strings.Contains(view, "No values in the loaded range") {
		t.Error("expected the no-values message for a metric the fixture never records")
	}
	if !strings.Contains(view, "n/a") {
		t.Error("summary of an empty series should read n/a")
	}
}

func TestRenderSummary(t *testing.T) {
	def, err := metrics.Lookup("recovery_score")
	if err != nil {
		t.Fatal(err)
	}
	out := renderSummary(def, metrics.Summary{Min: 10, Max: 90, Mean: 50, Count: 3})
	for _, want := range []string{"50.00000 %", "10.00000 %", "90.00000 %", "3"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q: %q", want, out)
		}
	}
}

func TestModel_ViewLeavesOutNaps(t *testing.T) {
	ds := tabtest.Dataset(28)
	ds.Sleep = append(ds.Sleep, models.Sleep{
		ID:         "nap",
		Start:      tabtest.Today.Add(-20 * time.Hour),
		End:        tabtest.Today.Add(-19 * time.Hour),
		Nap:        true,
		ScoreState: models.ScoreStateScored,
		Score:      &models.SleepScore{SleepEfficiencyPercentage: func(v float64) *float64 { return &v }(20)},
	})
	res := tabtest.Result(28)
	res.Dataset = ds
	res.Engine = metrics.NewEngine(ds)

	state := app.NewState()
	state.SetResult(res)
	m := New(state)
	m.SetSize(140, 200)
	for m.Selected().Name != "sleep_efficiency" {
		m.Update(keyPress("n"))
	}

	view := m.View()
	for _, want := range []string{"Weekday (20)", "Weekend (8)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q, the nap should not count as a night", want)
		}
	}
	if got := res.Engine.Table(metrics.SourceSleep).Len(); got != 29 {
		t.Errorf("engine sleep rows = %d, want 29 with the nap", got)
	}
}
