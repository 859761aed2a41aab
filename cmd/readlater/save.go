package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/irfansharif/readlater/pkg/background"
	"github.com/irfansharif/readlater/pkg/browser"
	"github.com/irfansharif/readlater/pkg/listview"
	"github.com/irfansharif/readlater/pkg/pipeline"
)

var savePageCmd = &cobra.Command{
	Use:   "save-page",
	Short: "Save the active browser tab",
	Long: `Save the page in the active browser tab. If the browser won't let the page
be read, the save is retried by fetching the page directly.

With --url the page is fetched directly, as the page context menu entry does.
Menu saves carry no tags.

Examples:
  readlater save-page
  readlater save-page --tags "go, databases"
  readlater save-page --url https://example.com/post`,
	Args: cobra.NoArgs,
	RunE: runSavePage,
}

var saveLinkCmd = &cobra.Command{
	Use:   "save-link <url>",
	Short: "Save a linked page without opening it",
	Long: `Save a linked page the way the link context menu entry does: the page is
loaded in the background, saved, and the result posted as a notification.`,
	Args: cobra.ExactArgs(1),
	RunE: runSaveLink,
}

func init() {
	rootCmd.AddCommand(savePageCmd, saveLinkCmd)
	savePageFlags(savePageCmd)
}

func savePageFlags(cmd *cobra.Command) {
	cmd.Flags().String("tags", "", "comma separated tags")
	cmd.Flags().String("url", "", "save this page through the page menu entry instead of the active tab")
	cmd.Flags().Duration("timeout", 2*time.Minute, "how long to wait for a handed off save")
}

func runSavePage(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	rawTags, _ := cmd.Flags().GetString("tags")
	pageURL, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if pageURL != "" {
		if rawTags != "" {
			return errors.New("--tags cannot be used with --url")
		}
		return menuSave(ctx, cmd, background.Click{
			MenuID: background.MenuSavePage,
			Tab:    browser.Tab{URL: pageURL},
		})
	}

	go func() { _ = env.worker.Run(ctx) }()

	res, err := env.saver.SaveActive(ctx, listview.ParseTags(rawTags))
	if err != nil {
		return err
	}
	if res.Outcome == pipeline.OutcomeHandedOff {
		fmt.Fprintln(cmd.OutOrStdout(), "Saving in the background...")
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		select {
		case ack := <-env.worker.Acks():
			if ack.Err != nil {
				return ack.Err
			}
			res = ack.Result
		case <-waitCtx.Done():
			return waitCtx.Err()
		}
	}
	printResult(cmd, res)
	return nil
}

func runSaveLink(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	return menuSave(ctx, cmd, background.Click{MenuID: background.MenuSaveLink, LinkURL: args[0]})
}

// menuSave dispatches a context menu activation to the background worker.
func menuSave(ctx context.Context, cmd *cobra.Command, c background.Click) error {
	res, err := env.worker.MenuClicked(ctx, c)
	if err != nil {
		return err
	}
	printResult(cmd, res)
	return nil
}

func printResult(cmd *cobra.Command, res pipeline.Result) {
	out := cmd.OutOrStdout()
	switch res.Outcome {
	case pipeline.OutcomeSaved:
		fmt.Fprintf(out, "Saved: %s\n  %s\n", res.Article.Title, env.readerURL(res.Article.ID))
	case pipeline.OutcomeDuplicate:
		fmt.Fprintln(out, "Already saved!")
	default:
		fmt.Fprintln(out, res.Outcome)
	}
}
