// Command pos-tui is the terminal client for the POS assistant backend.
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"postui/internal/api"
	"postui/internal/config"
	"postui/internal/logging"
	"postui/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath   string
		backendURL   string
		fetchTimeout int
		queryTimeout int
		debug        bool
	)

	cmd := &cobra.Command{
		Use:   "pos-tui",
		Short: "Chat with your personal assistant and watch its panels live",
		Long: `pos-tui talks to a running POS assistant backend over HTTP. It shows
the chat transcript next to live panels for tasks, calendar events,
memories, and per-role XP, refreshing them as the assistant acts.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg.ApplyEnv()
			if cmd.Flags().Changed("backend") {
				cfg.BackendURL = backendURL
			}
			if cmd.Flags().Changed("fetch-timeout") {
				cfg.FetchTimeoutSeconds = fetchTimeout
			}
			if cmd.Flags().Changed("query-timeout") {
				cfg.QueryTimeoutSeconds = queryTimeout
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}
			if err := cfg.Normalize(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&backendURL, "backend", config.DefaultBackendURL, "backend base URL")
	cmd.Flags().IntVar(&fetchTimeout, "fetch-timeout", config.DefaultFetchTimeoutS, "panel fetch timeout in seconds")
	cmd.Flags().IntVar(&queryTimeout, "query-timeout", config.DefaultQueryTimeoutS, "query timeout in seconds")
	cmd.Flags().BoolVar(&debug, "debug", false, "write a debug log file")
	return cmd
}

func run(cfg config.Config) error {
	logger, closeLog, err := logging.New(cfg.Debug, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	client := api.NewClient(cfg.BackendURL,
		time.Duration(cfg.FetchTimeoutSeconds)*time.Second,
		time.Duration(cfg.QueryTimeoutSeconds)*time.Second)

	logger.Info("starting",
		zap.String("backend", client.BaseURL()),
		zap.Int("fetch_timeout_s", cfg.FetchTimeoutSeconds),
		zap.Int("query_timeout_s", cfg.QueryTimeoutSeconds))

	program := tea.NewProgram(ui.NewModel(cfg, client, logger), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
