package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "clubshelf",
		Short: "Book club catalog builder with semantic deduplication",
		Long: `Clubshelf turns scraped book club reading lists into one deduplicated,
metadata-enriched catalog.

Raw records from Reddit, Bookclubs.com, and Goodreads are clustered with
text embeddings so fuzzy title variants collapse into one book, then the
highest-priority clusters are enriched against the Google Books API
within a daily request budget.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to TOML config file (defaults apply when unset)")

	cmd.AddCommand(newDedupeCmd(&configPath))
	cmd.AddCommand(newEnrichCmd(&configPath))
	cmd.AddCommand(newRunCmd(&configPath))

	return cmd
}
