package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/irfansharif/readlater/pkg/listview"
	"github.com/irfansharif/readlater/pkg/reader"
	"github.com/irfansharif/readlater/pkg/storage"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved articles",
	Long: `List saved articles, newest first.

Examples:
  readlater list                 # Unread articles
  readlater list --archived      # Archived articles
  readlater list --status unread # Unread articles
  readlater list --tag go        # Unread articles tagged go
  readlater list --json          # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var openCmd = &cobra.Command{
	Use:   "open <id>",
	Short: "Open an article in the reader",
	Long: `Open an article in the reader page. If no readlater process is serving the
reader, this command serves it until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	rootCmd.AddCommand(listCmd, openCmd)
	listFlags(listCmd)
}

func listFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("archived", false, "list archived articles (same as --status archived)")
	cmd.Flags().String("status", string(storage.StatusUnread), "list articles with this status (unread, archived)")
	cmd.Flags().String("tag", "", "only articles with this tag")
	cmd.Flags().Bool("json", false, "output as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	archived, _ := cmd.Flags().GetBool("archived")
	rawStatus, _ := cmd.Flags().GetString("status")
	tag, _ := cmd.Flags().GetString("tag")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	status, err := storage.ParseStatus(rawStatus)
	if err != nil {
		return err
	}
	if archived {
		status = storage.StatusArchived
	}
	vm := listview.NewViewModel().WithStatus(status).WithTag(tag)

	articles, err := env.store.List(cmd.Context())
	if err != nil {
		return err
	}
	filtered := listview.Filter(articles, vm)

	if jsonOutput {
		// Content is omitted; it can be large.
		for i := range filtered {
			filtered[i].Content = ""
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(filtered)
	}

	if len(filtered) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Empty.")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tTITLE\tTAGS")
	for _, c := range listview.Cards(filtered) {
		var tags []string
		for _, t := range c.Article.Tags {
			tags = append(tags, "#"+t)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.Article.ID, c.Article.Date, c.Article.Title, strings.Join(tags, " "))
	}
	return w.Flush()
}

func runOpen(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid article id %q", args[0])
	}
	if _, err := env.store.Get(cmd.Context(), id); err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	// Holding the reader address means nothing else is serving the page.
	ln, err := net.Listen("tcp", env.cfg.ReaderAddr)
	if err != nil {
		env.logger.Debug("reader address taken, assuming it is served", "addr", env.cfg.ReaderAddr, "err", err)
		_, err = env.opener.Create(ctx, env.readerURL(id), true)
		return err
	}
	srv := reader.NewServer(reader.NewView(env.store), env.logger.With("context", "reader"))
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	if _, err := env.opener.Create(ctx, env.readerURL(id), true); err != nil {
		cancel()
		<-done
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving the reader at %s until interrupted.\n", env.cfg.ReaderBase())
	return <-done
}
