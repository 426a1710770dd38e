package commands

import (
	"cardmarket-monitor/internal/scrapers/cardmarket"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(gamesCmd)
}

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Lists the supported games and the filter vocabularies.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		vocabularies := []struct {
			title   string
			options []cardmarket.Option
		}{
			{"Game", cardmarket.SupportedGames()},
			{"Language", cardmarket.Languages},
			{"Condition", cardmarket.Conditions},
			{"Foil", cardmarket.FoilOptions},
		}
		for _, v := range vocabularies {
			t := newTable()
			t.SetTitle(v.title)
			t.AppendHeader(table.Row{"Value", "Name"})
			for _, o := range v.options {
				t.AppendRow(table.Row{o.Value, o.Label})
			}
			t.Render()
		}
	},
}
