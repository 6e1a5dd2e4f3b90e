package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/j-veylop/whoop-dashboard-tui/internal/config"
	"github.com/j-veylop/whoop-dashboard-tui/internal/export"
	"github.com/j-veylop/whoop-dashboard-tui/internal/metrics"
	"github.com/j-veylop/whoop-dashboard-tui/internal/models"
	"github.com/j-veylop/whoop-dashboard-tui/internal/services"
	"github.com/j-veylop/whoop-dashboard-tui/internal/session"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/whoop-dashboard-tui/internal/version"
)

// textFormat prints the metrics board as a table instead of an export format.
const textFormat = "text"

// withManager runs fn with a service manager that asks for authorization
// codes on the terminal. The context is canceled on SIGINT or SIGTERM.
func withManager(cmd *cobra.Command, configure func(*config.Config), fn func(context.Context, *services.Manager) error) error {
	cfg, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()
	if configure != nil {
		configure(cfg)
	}

	mgr, err := services.NewManager(cfg,
		services.WithPrompter(session.NewStdinPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())),
		services.WithoutWatcher(),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() { _ = mgr.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, mgr)
}

func newAuthCmd() *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to your WHOOP account",
		Long: `Authorize access to your WHOOP account.

A valid credential record is reused. Otherwise the authorization URL is
printed and the code (or the full redirect URL) is read from stdin.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, nil, func(ctx context.Context, mgr *services.Manager) error {
				if _, err := mgr.Authorize(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Authorized. Credentials stored in %s\n", mgr.TokenStatus().Path)
				return nil
			})
		},
	}

	auth.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the stored credential record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, nil, func(_ context.Context, mgr *services.Manager) error {
				printTokenStatus(cmd, mgr.TokenStatus())
				return nil
			})
		},
	})
	return auth
}

func printTokenStatus(cmd *cobra.Command, st services.TokenStatus) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "File:     %s\n", st.Path)
	switch {
	case !st.Exists:
		_, _ = fmt.Fprintln(out, "Status:   not authorized (run 'wdt auth')")
		return
	case st.Corrupt != nil:
		_, _ = fmt.Fprintf(out, "Status:   unreadable, will re-authorize (%v)\n", st.Corrupt)
		return
	}

	_, _ = fmt.Fprintln(out, "Status:   stored")
	_, _ = fmt.Fprintf(out, "Saved:    %s\n", humanize.Time(st.SavedAt))
	if !st.ExpiresAt.IsZero() {
		_, _ = fmt.Fprintf(out, "Expires:  %s\n", humanize.Time(st.ExpiresAt))
	}
	_, _ = fmt.Fprintf(out, "Refresh:  %t\n", st.Refreshing)
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored credential record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withManager(cmd, nil, func(_ context.Context, mgr *services.Manager) error {
				if err := mgr.Logout(); err != nil {
					return fmt.Errorf("failed to log out: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
				return nil
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var format, dir string
	var days int

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the raw recovery, sleep, workout and cycle tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			configure := func(cfg *config.Config) {
				if dir != "" {
					cfg.ExportDir = dir
				}
				if days == 0 {
					days = cfg.BaselineDays
				}
			}
			return withManager(cmd, configure, func(ctx context.Context, mgr *services.Manager) error {
				res, err := mgr.Load(ctx, days, true)
				if err != nil {
					return err
				}
				paths, err := mgr.Export(res.Dataset, f)
				if err != nil {
					return err
				}
				for _, p := range paths {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.CSV), "output format: csv|json|yaml")
	cmd.Flags().StringVarP(&dir, "dir", "o", "", "output directory (default: WHOOP_EXPORT_DIR)")
	cmd.Flags().IntVarP(&days, "days", "d", 0, "days of history to load (default: WHOOP_BASELINE_DAYS)")
	return cmd
}

func newMetricsCmd() *cobra.Command {
	var format, period string
	var days int
	var all, correlations bool

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Compare this week with a period and print the result",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := parsePeriod(period)
			if err != nil {
				return err
			}
			var f export.Format
			if format != textFormat {
				if f, err = export.ParseFormat(format); err != nil {
					return err
				}
			}

			var threshold float64
			configure := func(cfg *config.Config) {
				if days == 0 {
					days = cfg.BaselineDays
				}
				threshold = cfg.CorrelationThreshold
			}
			return withManager(cmd, configure, func(ctx context.Context, mgr *services.Manager) error {
				res, err := mgr.Load(ctx, days, false)
				if err != nil {
					return err
				}

				names := metrics.Headline()
				if all {
					names = nil
					for _, def := range metrics.Catalog() {
						names = append(names, def.Name)
					}
				}
				current := metrics.ThisWeek(res.Today)
				comparison := metrics.ComparisonWindow(p, res.Today, res.BaselineDays)
				results := res.Engine.CompareAll(names, current, comparison)

				out := cmd.OutOrStdout()
				if format != textFormat {
					return export.WriteResults(out, results, f)
				}
				_, _ = fmt.Fprintf(out, "This week %s vs %s %s\n\n", current, p, comparison)
				_, _ = fmt.Fprintln(out, renderResults(results))
				if correlations {
					pairs := metrics.FindCorrelations(res.Engine.Table(metrics.SourceSleep), []string{"cycle_id", "user_id"}, threshold)
					_, _ = fmt.Fprintln(out, renderCorrelations(pairs, threshold))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", textFormat, "output format: text|csv|json|yaml")
	cmd.Flags().StringVarP(&period, "period", "p", "previous-week", "comparison period: loaded-range|previous-week|last-30-days|last-90-days")
	cmd.Flags().IntVarP(&days, "days", "d", 0, "days of history to load (default: WHOOP_BASELINE_DAYS)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "compare every metric, not only the headline ones")
	cmd.Flags().BoolVarP(&correlations, "correlations", "c", false, "also list strongly correlated sleep fields")
	return cmd
}

// parsePeriod matches a period name case-insensitively, with spaces or dashes.
func parsePeriod(s string) (models.ComparisonPeriod, error) {
	want := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
	for p := models.PeriodLoadedRange; p <= models.PeriodLast90Days; p++ {
		if strings.ReplaceAll(strings.ToLower(p.String()), " ", "-") == want {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown period: %q", s)
}

func renderResults(results []metrics.PeriodResult) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Metric", "This week", "Compared with", "Change")
	for _, r := range results {
		def, err := metrics.Lookup(r.Metric)
		if err != nil {
			continue
		}
		t.Row(def.Label, def.Format(r.Current), def.Format(r.Comparison), components.DeltaText(r.DeltaPercent))
	}
	return t.String()
}

func renderCorrelations(pairs []metrics.CorrelationPair, threshold float64) string {
	if len(pairs) == 0 {
		return fmt.Sprintf("No sleep fields correlate above |r| > %.2f.", threshold)
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Field", "Field", "r")
	for _, p := range pairs {
		t.Row(p.A, p.B, fmt.Sprintf("%+.3f", p.Coefficient))
	}
	return t.String()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), version.Info())
		},
	}
}
