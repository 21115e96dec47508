package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pttlab/pttgrab/internal/crawler"
)

func newSearchCmd() *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "search <board> <keyword>",
		Short: "Search recent article titles for a keyword",
		Long: `Walks listing pages from the newest backwards, collects articles
whose titles contain the keyword (exact substring match), and fetches the
matches. Results come back newest first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, keyword := args[0], args[1]
			return executeRun(cmd, func(ctx context.Context, eng *crawler.Engine) (*crawler.Result, error) {
				return eng.Search(ctx, board, keyword, maxPages)
			})
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", 5, "maximum listing pages to scan")
	return cmd
}
