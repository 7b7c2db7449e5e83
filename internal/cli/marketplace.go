package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/shopfront-backend/internal/marketplace"
)

func newMarketplaceCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "marketplace", Short: "Query the external marketplace"}

	var minPrice, maxPrice string
	var limit int
	search := &cobra.Command{
		Use:   "search KEYWORDS...",
		Short: "Search marketplace listings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var prices marketplace.PriceRange
			if minPrice != "" {
				v, err := decimal.NewFromString(minPrice)
				if err != nil {
					return fmt.Errorf("invalid --min %q", minPrice)
				}
				prices.Min = &v
			}
			if maxPrice != "" {
				v, err := decimal.NewFromString(maxPrice)
				if err != nil {
					return fmt.Errorf("invalid --max %q", maxPrice)
				}
				prices.Max = &v
			}
			listings := envFrom(cmd).Marketplace.Search(cmd.Context(), strings.Join(args, " "), prices, limit)
			return printJSON(cmd.OutOrStdout(), listings)
		},
	}
	search.Flags().StringVar(&minPrice, "min", "", "minimum sale price")
	search.Flags().StringVar(&maxPrice, "max", "", "maximum sale price")
	search.Flags().IntVar(&limit, "limit", 20, "maximum listings to return")

	cmd.AddCommand(search)
	return cmd
}
