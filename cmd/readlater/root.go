package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/irfansharif/readlater/pkg/config"
	"github.com/irfansharif/readlater/pkg/reader"
	"github.com/irfansharif/readlater/pkg/tui"
)

var (
	configDir string
	verbose   bool
	env       *app
)

var rootCmd = &cobra.Command{
	Use:   "readlater",
	Short: "Save web pages for reading later, offline",
	Long: `readlater captures the readable content of pages open in your browser and
keeps it locally, with a terminal list view and a local reader page.

Example usage:
  readlater                       # Open the list view
  readlater save-page --tags go   # Save the active tab
  readlater save-link <url>       # Save a linked page without opening it
  readlater serve                 # Serve the reader page
  readlater list --archived       # Print archived articles`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var (
			cfg config.Config
			err error
		)
		if configDir != "" {
			cfg, err = config.LoadFrom(configDir)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		env, err = newApp(cfg, verbose)
		return err
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.readlater)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// execute runs the root command with args. Whatever the command opened is
// closed on return, including when the command fails and cobra skips its
// post-run hooks.
func execute(ctx context.Context, args []string) error {
	defer func() {
		if env != nil {
			env.close()
		}
	}()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// signalContext is cancelled on interrupt.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

// startBackground runs the worker and the reader page until ctx is done.
func startBackground(ctx context.Context) {
	go func() { _ = env.worker.Run(ctx) }()
	srv := reader.NewServer(reader.NewView(env.store), env.logger.With("context", "reader"))
	go func() {
		if err := srv.ListenAndServe(ctx, env.cfg.ReaderAddr); err != nil {
			env.logger.Warn("reader page unavailable", "addr", env.cfg.ReaderAddr, "err", err)
		}
	}()
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()
	startBackground(ctx)

	model := tui.New(ctx, tui.Options{
		Store:         env.store,
		Saver:         env.saver,
		Opener:        env.opener,
		Notifications: env.center.Subscribe(16),
		Clicker:       env.center,
		ReaderURL:     env.readerURL,
		ToastDelay:    env.cfg.ToastDelay,
		Logger:        env.logger.With("context", "popup"),
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}
