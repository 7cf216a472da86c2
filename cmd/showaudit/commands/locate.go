package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/showaudit/pkg/logger"
)

// locateCmd represents the locate command
var locateCmd = &cobra.Command{
	Use:     "locate <short name>",
	Short:   "List the vendor product pages found for a show",
	Args:    cobra.MinimumNArgs(1),
	Example: `  go run ./cmd/showaudit locate "Concert X"`,
	RunE:    runLocate,
}

func init() {
	rootCmd.AddCommand(locateCmd)
}

func runLocate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Vendor.Timeout)
	defer cancel()

	a, err := newVendorApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	name := strings.Join(args, " ")
	urls, err := a.vendor.Locate(ctx, name)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(urls) == 0 {
		fmt.Fprintf(out, "No product pages found for %q\n", name)
		return nil
	}
	for _, u := range urls {
		fmt.Fprintln(out, u)
	}
	return nil
}
