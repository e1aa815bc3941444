package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/clubshelf/clubshelf/internal/config"
	"github.com/clubshelf/clubshelf/internal/googlebooks"
	"github.com/clubshelf/clubshelf/internal/pipeline"
)

func newEnrichCmd(configPath *string) *cobra.Command {
	var quota int

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Enrich deduplicated clusters with Google Books metadata",
		Long: `Read the clusters document produced by dedupe, sort clusters by
priority (currently-reading first, then popularity), and look up the top
slice on the Google Books API. Clusters beyond the budget keep their raw
title and author.

Lookups are cached, so re-runs only spend budget on new books.`,
		Example: `  # Enrich with the configured daily quota
  clubshelf enrich

  # Spend at most 50 API calls
  clubshelf enrich --quota 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if quota < 0 {
				quota = cfg.Enrich.Quota
			}

			client := googlebooks.NewClient(os.Getenv("GOOGLE_BOOKS_API_KEY"), cfg.RequestTimeout())
			return pipeline.RunEnrich(cmd.Context(), cfg, client, nil, quota)
		},
	}

	cmd.Flags().IntVar(&quota, "quota", -1, "Max API calls this run (-1 uses the configured quota)")
	return cmd
}
