package main

import (
	"github.com/spf13/cobra"

	"github.com/irfansharif/readlater/pkg/reader"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reader page",
	Long: `Serve the reader page on reader_addr until interrupted.

The list view serves it too while it runs; use this to read without it.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	go func() { _ = env.worker.Run(ctx) }()
	cmd.Printf("Reader at %s\n", env.cfg.ReaderBase())
	srv := reader.NewServer(reader.NewView(env.store), env.logger.With("context", "reader"))
	return srv.ListenAndServe(ctx, env.cfg.ReaderAddr)
}
