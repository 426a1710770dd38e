package commands

import (
	"context"
	"fmt"

	"cardmarket-monitor/internal/config"
	"cardmarket-monitor/internal/coordinator"
	"cardmarket-monitor/internal/scrapers/cardmarket"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var priceFilters cardmarket.CardFilters

func addFilterFlags(cmd *cobra.Command, f *cardmarket.CardFilters) {
	cmd.Flags().StringVar(&f.Language, "language", "", "Language filter id, see `games`.")
	cmd.Flags().StringVar(&f.Condition, "condition", "", "Minimum condition (MT, NM, EX, GD, LP, PL, PO).")
	cmd.Flags().StringVar(&f.Foil, "foil", "", "Foil filter (Y or N).")
}

func init() {
	addFilterFlags(pricesCmd, &priceFilters)
	rootCmd.AddCommand(pricesCmd)
}

var pricesCmd = &cobra.Command{
	Use:   "prices <url> [--language <id>] [--condition <code>] [--foil <Y|N>]",
	Short: "Reads the price panel of a card page.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := priceFilters.Validate(); err != nil {
			return err
		}
		return withScraper(cmd, func(ctx context.Context, cfg config.Config, s *cardmarket.Scraper) error {
			detail, err := s.CardPrices(ctx, args[0], priceFilters)
			if err != nil {
				return err
			}

			fmt.Println(coordinator.CardDisplayName(detail.Name, detail.Set, priceFilters))
			t := newTable()
			t.AppendHeader(table.Row{"Price", "Value"})
			t.AppendRows([]table.Row{
				{"From", formatPrice(detail.PriceFrom)},
				{"Trend", formatPrice(detail.PriceTrend)},
				{"30-day average", formatPrice(detail.Price30DayAvg)},
				{"7-day average", formatPrice(detail.Price7DayAvg)},
				{"1-day average", formatPrice(detail.Price1DayAvg)},
				{"Available items", detail.AvailableItems},
			})
			t.Render()
			if detail.FilterURL != "" {
				fmt.Println(detail.FilterURL)
			}
			return nil
		})
	},
}
