package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pttlab/pttgrab/internal/crawler"
)

func newLatestCmd() *cobra.Command {
	var pages int

	cmd := &cobra.Command{
		Use:   "latest <board>",
		Short: "Crawl the newest listing pages of a board",
		Long: `Resolves the board's newest page number from its index head and
crawls the last --pages listing pages. The window is clamped to page 1 for
small boards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board := args[0]
			return executeRun(cmd, func(ctx context.Context, eng *crawler.Engine) (*crawler.Result, error) {
				return eng.CrawlLatest(ctx, board, pages)
			})
		},
	}

	cmd.Flags().IntVar(&pages, "pages", 3, "number of newest pages to crawl")
	return cmd
}
