package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pttlab/pttgrab/internal/crawler"
)

func newArticleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "article <board> <article-id>",
		Short: "Crawl a single article by id",
		Long: `Fetches and parses one article, e.g.

  pttgrab article movie M.1700000000.A.ABC`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			board, articleID := args[0], args[1]
			return executeRun(cmd, func(ctx context.Context, eng *crawler.Engine) (*crawler.Result, error) {
				return eng.CrawlArticle(ctx, board, articleID)
			})
		},
	}
	return cmd
}
