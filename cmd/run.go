package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/clubshelf/clubshelf/internal/config"
	"github.com/clubshelf/clubshelf/internal/gemini"
	"github.com/clubshelf/clubshelf/internal/googlebooks"
	"github.com/clubshelf/clubshelf/internal/pipeline"
)

func newRunCmd(configPath *string) *cobra.Command {
	var quota int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run deduplication and enrichment end to end",
		Long: `Run both stages in one process: cluster the scraped records, then
enrich the clusters within the API budget. The clusters document is
still written, so a later enrich run can pick up where this one left
off.`,
		Example: `  # Full pipeline with defaults
  clubshelf run

  # Full pipeline, capped at 100 API calls
  clubshelf run --quota 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if quota < 0 {
				quota = cfg.Enrich.Quota
			}

			embedder, err := gemini.New(cmd.Context(), cfg.Dedupe.EmbeddingModel)
			if err != nil {
				return err
			}
			defer embedder.Close()

			client := googlebooks.NewClient(os.Getenv("GOOGLE_BOOKS_API_KEY"), cfg.RequestTimeout())
			return pipeline.Run(cmd.Context(), cfg, embedder, client, quota)
		},
	}

	cmd.Flags().IntVar(&quota, "quota", -1, "Max API calls this run (-1 uses the configured quota)")
	return cmd
}
