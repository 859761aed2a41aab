package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/irfansharif/readlater/pkg/background"
	"github.com/irfansharif/readlater/pkg/safari"
)

var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "Show open Safari tabs and Reading List entries",
	Long: `Show the pages open in Safari windows and on the Reading List, marking the
ones already saved.

Examples:
  readlater tabs            # Show tabs
  readlater tabs --save     # Also save every tab not saved yet`,
	Args: cobra.NoArgs,
	RunE: runTabs,
}

func init() {
	rootCmd.AddCommand(tabsCmd)
	tabsCmd.Flags().Bool("save", false, "save tabs that aren't saved yet")
}

func runTabs(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()
	save, _ := cmd.Flags().GetBool("save")

	st, ok := env.tabs.(*safari.Tabs)
	if !ok {
		return fmt.Errorf("tabs needs browser = %q", "safari")
	}
	sources, warnings := st.GatherTabs(ctx)
	for _, w := range warnings {
		env.logger.Warn("gathering tabs", "err", w)
		cmd.PrintErrf("warning: %v\n", w)
	}

	saved, err := env.store.SavedURLs(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	out := cmd.OutOrStdout()
	for _, name := range names {
		fmt.Fprintf(out, "%s:\n", name)
		for _, t := range sources[name] {
			mark := " "
			if saved[t.URL] {
				mark = "✓"
			}
			fmt.Fprintf(out, "  %s %s\n    %s\n", mark, t.Title, t.URL)
			if !save || saved[t.URL] {
				continue
			}
			if _, err := env.worker.MenuClicked(ctx, background.Click{MenuID: background.MenuSaveLink, LinkURL: t.URL}); err != nil {
				cmd.PrintErrf("    could not save: %v\n", err)
				continue
			}
			saved[t.URL] = true
		}
	}
	return nil
}
