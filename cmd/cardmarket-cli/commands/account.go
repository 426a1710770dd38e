package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"cardmarket-monitor/internal/config"
	"cardmarket-monitor/internal/coordinator"
	"cardmarket-monitor/internal/scrapers/cardmarket"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var snapshotJSON bool

func init() {
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false, "Print the snapshot as json.")
	rootCmd.AddCommand(testConnectionCmd, snapshotCmd)
}

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Logs in with the configured credentials.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScraper(cmd, func(ctx context.Context, cfg config.Config, s *cardmarket.Scraper) error {
			ok, err := s.Login(ctx)
			if err != nil {
				fmt.Printf("login failed (%s): %v\n", cardmarket.ErrorKind(err), err)
				return err
			}
			if !ok {
				return fmt.Errorf("login did not stick, check the credentials")
			}
			fmt.Printf("logged in to %s as %s\n", s.Game().DisplayName(), s.Username())
			return nil
		})
	},
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [--json]",
	Short: "Fetches balance, stock, orders and unread messages.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withScraper(cmd, func(ctx context.Context, cfg config.Config, s *cardmarket.Scraper) error {
			snap, err := s.AllData(ctx)
			if err != nil {
				return err
			}
			if snapshotJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			t := newTable()
			t.AppendHeader(table.Row{"Sensor", "Value", "Unit"})
			for _, sensor := range coordinator.Sensors(coordinator.State{Snapshot: snap, HasData: true}) {
				t.AppendRow(table.Row{sensor.Name, sensor.Value, sensor.Unit})
			}
			t.Render()
			return nil
		})
	},
}
