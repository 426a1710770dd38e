package commands

import (
	"context"
	"fmt"

	"cardmarket-monitor/internal/config"
	"cardmarket-monitor/internal/coordinator"
	"cardmarket-monitor/internal/scrapers/cardmarket"
	"cardmarket-monitor/pkg/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// below this the best search hit is probably not the card that was asked for
const minSearchSimilarity = 0.8

var (
	trackSpec   cardmarket.TrackedCardSpec
	trackSearch string
	untrackKey  string
)

func init() {
	trackAddCmd.Flags().StringVar(&trackSpec.Name, "name", "", "The name to display, read from the card page when empty.")
	trackAddCmd.Flags().StringVar(&trackSpec.Set, "set", "", "The expansion to display, derived from the url when empty.")
	trackAddCmd.Flags().StringVar(&trackSearch, "search", "", "Track the search hit whose name is closest to this instead of a url.")
	addFilterFlags(trackAddCmd, &trackSpec.CardFilters)

	trackRemoveCmd.Flags().StringVar(&untrackKey, "key", "", "Remove only the variant with this unique key.")

	trackCmd.AddCommand(trackAddCmd, trackRemoveCmd, trackListCmd)
	rootCmd.AddCommand(trackCmd)
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Manages the cards whose prices the daemon follows.",
}

var trackAddCmd = &cobra.Command{
	Use:   "add [<url>] [--search <name>] [--name <name>] [--set <set>] [--language <id>] [--condition <code>] [--foil <Y|N>]",
	Short: "Tracks a card by url, or by its best search hit.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := trackSpec.CardFilters.Validate(); err != nil {
			return err
		}
		switch {
		case len(args) == 1 && trackSearch == "":
			trackSpec.URL = args[0]
		case len(args) == 0 && trackSearch != "":
		default:
			return fmt.Errorf("either a url or --search is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if trackSearch != "" {
			err = resolveSearch(cmd, cfg, &trackSpec)
			if err != nil {
				return err
			}
		}
		trackSpec.URL = cardmarket.AbsoluteURL(cfg.BaseURL, trackSpec.URL)
		if trackSpec.Set == "" {
			trackSpec.Set = cardmarket.SetFromURL(trackSpec.URL)
		}

		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		stored, added, err := store.Add(cmd.Context(), trackSpec)
		if err != nil {
			return err
		}
		name := coordinator.CardDisplayName(stored.Name, stored.Set, stored.CardFilters)
		if !added {
			fmt.Printf("already tracking %s\n", name)
			return nil
		}
		fmt.Printf("tracking %s as %s\n", name, stored.UniqueKey)
		return nil
	},
}

// resolveSearch fills in the url, name and set of the search hit closest to
// the searched name.
func resolveSearch(cmd *cobra.Command, cfg config.Config, spec *cardmarket.TrackedCardSpec) error {
	scraper, err := newScraper(cfg)
	if err != nil {
		return err
	}
	defer scraper.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	results, err := scraper.SearchCards(ctx, trackSearch, 20)
	if err != nil {
		return err
	}
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	idx, similarity := textutil.BestMatch(trackSearch, names)
	if idx < 0 {
		return fmt.Errorf("no card found for %q", trackSearch)
	}
	if similarity < minSearchSimilarity {
		return fmt.Errorf(
			"closest match for %q is %q (similarity %.2f), pass its url instead",
			trackSearch, results[idx].Name, similarity,
		)
	}

	hit := results[idx]
	spec.URL = hit.URL
	if spec.Name == "" {
		spec.Name = hit.Name
	}
	if spec.Set == "" {
		spec.Set = hit.Set
	}
	return nil
}

var trackRemoveCmd = &cobra.Command{
	Use:   "remove [<url>] [--key <unique_key>]",
	Short: "Stops tracking every variant of a card, or one variant by key.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if (len(args) == 0) == (untrackKey == "") {
			return fmt.Errorf("either a url or --key is required")
		}
		cfg, err := config.Read(configPath)
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		removed := 0
		if untrackKey != "" {
			ok, err := store.Remove(cmd.Context(), untrackKey)
			if err != nil {
				return err
			}
			if ok {
				removed = 1
			}
		} else {
			url := cardmarket.AbsoluteURL(cfg.BaseURL, args[0])
			removed, err = store.RemoveByURL(cmd.Context(), url)
			if err != nil {
				return err
			}
		}
		if removed == 0 {
			fmt.Println("card not found in tracked cards")
			return nil
		}
		fmt.Printf("removed %d tracked card(s)\n", removed)
		return nil
	},
}

var trackListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the tracked cards.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Read(configPath)
		if err != nil {
			return err
		}
		store, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		cards, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		t := newTable()
		t.AppendHeader(table.Row{"Card", "Key"})
		for _, c := range cards {
			t.AppendRow(table.Row{coordinator.CardDisplayName(c.Name, c.Set, c.CardFilters), c.Key()})
		}
		t.Render()
		return nil
	},
}
