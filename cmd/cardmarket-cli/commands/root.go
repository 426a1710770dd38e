package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"cardmarket-monitor/internal/components/telemetry"
	"cardmarket-monitor/internal/config"
	"cardmarket-monitor/internal/scrapers/cardmarket"
	"cardmarket-monitor/internal/tracking"
	"cardmarket-monitor/pkg/restyutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dumpHttp   string
	verbose    bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "cardmarket-cli",
	Short: "cardmarket-cli is a CLI for checking a cardmarket account and the prices of cards.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "The json5 config file to read credentials from.")
	rootCmd.PersistentFlags().StringVar(&dumpHttp, "dump-http", "", "Write every http exchange to files under this directory.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Give up on the whole command after this long.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if _, ok := cfg.GameOrDefault(); !ok {
		fmt.Fprintf(os.Stderr, "unknown game %q, using %s\n", cfg.Game, cardmarket.DefaultGame)
	}
	return cfg, nil
}

// newScraper builds a scraper from the config, the caller closes it.
func newScraper(cfg config.Config) (*cardmarket.Scraper, error) {
	opts := cfg.ScraperOptions()
	if dumpHttp != "" {
		output, err := restyutil.NewFilesystemOutput(dumpHttp)
		if err != nil {
			return nil, err
		}
		opts.Client.Dump = output
	}
	return cardmarket.NewScraper(opts, telemetry.SlogAPI{})
}

// withScraper loads the config, runs fn with a scraper and a deadline, then
// closes the scraper.
func withScraper(cmd *cobra.Command, fn func(ctx context.Context, cfg config.Config, s *cardmarket.Scraper) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	scraper, err := newScraper(cfg)
	if err != nil {
		return err
	}
	defer scraper.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	return fn(ctx, cfg, scraper)
}

func openStore(ctx context.Context, cfg config.Config) (*tracking.Store, error) {
	return tracking.Open(ctx, cfg.Database, telemetry.SlogAPI{})
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f €", *v)
}
