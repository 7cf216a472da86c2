package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/showaudit/internal/audit"
	"github.com/wonny/showaudit/internal/extract"
	"github.com/wonny/showaudit/internal/registry"
	"github.com/wonny/showaudit/pkg/logger"
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:     "scrape <product url>",
	Short:   "Extract the performances of one product page without touching the ledger",
	Args:    cobra.ExactArgs(1),
	Example: `  go run ./cmd/showaudit scrape https://www.cal-store.co.il/product/123`,
	RunE:    runScrape,
}

var scrapeMetadata bool

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().BoolVar(&scrapeMetadata, "metadata", false, "also print the halls and stock dates from the hidden inputs")
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	failMode, err := extract.ParseFailMode(cfg.Extract.FailMode)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Vendor.Timeout)
	defer cancel()

	a, err := newVendorApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.vendor.FetchProduct(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if page.Skipped {
		fmt.Fprintf(out, "Page skipped: %s\n", page.SkipReason)
		return nil
	}

	if scrapeMetadata {
		reg, errs := registry.Build(page.HallsRaw, page.DatesRaw)
		for _, err := range errs {
			fmt.Fprintf(out, "warning: %v\n", err)
		}
		audit.RenderMetadata(out, reg)
	}

	records, err := extract.New(log, failMode).ExtractPage(page)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s: %d performances\n", page.Title, len(records))
	audit.RenderRecords(out, records)
	return nil
}
