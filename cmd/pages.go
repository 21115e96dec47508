package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pttlab/pttgrab/internal/crawler"
)

func newPagesCmd() *cobra.Command {
	var start, end int

	cmd := &cobra.Command{
		Use:   "pages <board>",
		Short: "Crawl an inclusive range of listing pages",
		Long: `Crawls listing pages --start through --end of the given board and
every article they link. Missing pages and dead articles are recorded in
the result's failure map without aborting the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			board := args[0]
			return executeRun(cmd, func(ctx context.Context, eng *crawler.Engine) (*crawler.Result, error) {
				return eng.CrawlRange(ctx, board, start, end)
			})
		},
	}

	cmd.Flags().IntVar(&start, "start", 1, "first listing page (inclusive)")
	cmd.Flags().IntVar(&end, "end", 1, "last listing page (inclusive)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
