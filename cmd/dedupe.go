package cmd

import (
	"github.com/spf13/cobra"

	"github.com/clubshelf/clubshelf/internal/config"
	"github.com/clubshelf/clubshelf/internal/gemini"
	"github.com/clubshelf/clubshelf/internal/pipeline"
)

func newDedupeCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedupe",
		Short: "Cluster scraped book records into deduplicated books",
		Long: `Load the scraped reading lists, group records by normalized
title+author string, then merge semantically similar groups using Gemini
text embeddings and agglomerative clustering.

Writes the clusters document consumed by the enrich command.`,
		Example: `  # Cluster with defaults (reads data/*.json)
  clubshelf dedupe

  # Use a different similarity threshold via config
  clubshelf dedupe --config clubshelf.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			embedder, err := gemini.New(cmd.Context(), cfg.Dedupe.EmbeddingModel)
			if err != nil {
				return err
			}
			defer embedder.Close()

			_, err = pipeline.RunDedupe(cmd.Context(), cfg, embedder)
			return err
		},
	}
	return cmd
}
