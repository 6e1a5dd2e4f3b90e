// Package main is the entry point for the WHOOP Dashboard TUI application.
// Without a subcommand it runs the Bubble Tea program; the subcommands cover
// authorization, export and a plain-text metrics board.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/j-veylop/whoop-dashboard-tui/internal/app"
	"github.com/j-veylop/whoop-dashboard-tui/internal/config"
	"github.com/j-veylop/whoop-dashboard-tui/internal/logger"
	"github.com/j-veylop/whoop-dashboard-tui/internal/services"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/tabs/board"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/tabs/info"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/tabs/insights"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/tabs/overview"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/tabs/trends"
	"github.com/j-veylop/whoop-dashboard-tui/internal/ui/tabs/workouts"
	"github.com/j-veylop/whoop-dashboard-tui/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wdt",
		Short: "WHOOP Dashboard TUI - recovery, sleep and workout analytics",
		Long: `WHOOP Dashboard TUI - recovery, sleep and workout analytics

Keyboard Shortcuts:
  1-6             Switch between tabs
  Tab/Shift+Tab   Navigate between tabs
  [ / ]           Shrink or grow the loaded baseline by a week
  p               Cycle the comparison period
  e / f           Export the loaded tables / cycle the export format
  r               Reload from WHOOP
  L               Log out
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  WHOOP_CLIENT_ID, WHOOP_CLIENT_SECRET, WHOOP_REDIRECT_URI  (required)
  WHOOP_TOKEN_FILE        Credential record path
  WHOOP_BASELINE_DAYS     Days loaded for comparison (default: 60)
  WHOOP_EXPORT_DIR        Export directory (default: whoop-export)

Configuration:
  The application looks for .env files in the current directory and in
  ~/.config/whoop-dashboard-tui/. Client credentials may also come from
  ~/.config/whoop-dashboard-tui/config.json.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI()
		},
	}
	root.SetVersionTemplate(version.Info() + "\n")

	root.AddCommand(
		newAuthCmd(),
		newLogoutCmd(),
		newExportCmd(),
		newMetricsCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration and points the logger at its file. The
// returned cleanup closes the log file.
func setup() (*config.Config, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	closer, err := logger.Setup(logger.Options{Path: cfg.LogPath, Level: cfg.LogLevel})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger.Info("starting", "version", version.GetVersion(), "commit", version.GetCommit())

	return cfg, func() { _ = closer.Close() }, nil
}

// runTUI contains the interactive application, separated for cleaner error
// handling.
func runTUI() error {
	cfg, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	model := app.NewModel(svcManager)

	// Tabs render from the shared state, so they all see the same load.
	state := model.GetState()
	model.SetTabs([]app.Tab{
		overview.New(state),
		board.New(state),
		trends.New(state),
		insights.New(state),
		workouts.New(state),
		info.New(state, svcManager),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.Quit())
		}
	}()

	// Blocks until the user quits or an error occurs.
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
