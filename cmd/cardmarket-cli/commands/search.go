package commands

import (
	"context"

	"cardmarket-monitor/internal/config"
	"cardmarket-monitor/internal/scrapers/cardmarket"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var searchMax int

func init() {
	searchCmd.Flags().IntVarP(&searchMax, "max", "n", 10, "The maximum amount of results.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <term> [--max <n>]",
	Short: "Searches the singles catalogue of the configured game.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScraper(cmd, func(ctx context.Context, cfg config.Config, s *cardmarket.Scraper) error {
			results, err := s.SearchCards(ctx, args[0], searchMax)
			if err != nil {
				return err
			}

			t := newTable()
			t.AppendHeader(table.Row{"Name", "Set", "From", "URL"})
			for _, r := range results {
				t.AppendRow(table.Row{r.Name, r.Set, formatPrice(r.PriceFrom), r.URL})
			}
			t.Render()
			return nil
		})
	},
}
