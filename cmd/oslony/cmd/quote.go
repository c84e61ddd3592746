package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/oslony/internal/pricing"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a single item",
	Long: `Price one item of a product line against the configured catalogs.

The rectangular line (default) reads --category as the price list name and
accepts accessories. The combined_width line reads --category as the system
and needs --material; --second-width adds a second segment.`,
	RunE: runQuote,
}

var (
	quoteLine        string
	quoteCategory    string
	quoteWidth       float64
	quoteHeight      float64
	quoteQuantity    int
	quoteWebbing25   bool
	quoteWebbing50   bool
	quoteCurtainRail bool
	quoteLadderTape  bool
	quoteMaterial    string
	quoteSecondWidth float64
	quoteJSON        bool
)

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVarP(&quoteLine, "line", "l", string(pricing.LineRectangular), "product line (rectangular, combined_width)")
	quoteCmd.Flags().StringVarP(&quoteCategory, "category", "c", "", "price list category or system")
	quoteCmd.Flags().Float64VarP(&quoteWidth, "width", "W", 0, "width in cm")
	quoteCmd.Flags().Float64VarP(&quoteHeight, "height", "H", 0, "height in cm")
	quoteCmd.Flags().IntVarP(&quoteQuantity, "quantity", "q", 1, "number of units")
	quoteCmd.Flags().BoolVar(&quoteWebbing25, "webbing-25", false, "add 25 mm webbing")
	quoteCmd.Flags().BoolVar(&quoteWebbing50, "webbing-50", false, "add 50 mm webbing")
	quoteCmd.Flags().BoolVar(&quoteCurtainRail, "curtain-rail", false, "add a curtain rail")
	quoteCmd.Flags().BoolVar(&quoteLadderTape, "ladder-tape", false, "use ladder tape")
	quoteCmd.Flags().StringVarP(&quoteMaterial, "material", "m", "", "material (combined_width only)")
	quoteCmd.Flags().Float64Var(&quoteSecondWidth, "second-width", 0, "second segment width in cm (combined_width only)")
	quoteCmd.Flags().BoolVar(&quoteJSON, "json", false, "print the result as JSON")

	quoteCmd.MarkFlagRequired("category")
	quoteCmd.MarkFlagRequired("width")
	quoteCmd.MarkFlagRequired("height")
}

type quoteOutput struct {
	Line          string  `json:"line"`
	Category      string  `json:"category"`
	Price         int64   `json:"price"`
	MatchedWidth  float64 `json:"matched_width"`
	MatchedHeight float64 `json:"matched_height"`
}

func runQuote(cmd *cobra.Command, args []string) error {
	line := pricing.ProductLine(quoteLine)
	item := pricing.LineItem{
		Width:       quoteWidth,
		Height:      quoteHeight,
		Quantity:    quoteQuantity,
		LadderTape:  quoteLadderTape,
		Material:    quoteMaterial,
		SecondWidth: quoteSecondWidth,
	}
	for _, a := range []struct {
		on        bool
		accessory pricing.Accessory
	}{
		{quoteWebbing25, pricing.AccessoryWebbing25},
		{quoteWebbing50, pricing.AccessoryWebbing50},
		{quoteCurtainRail, pricing.AccessoryCurtainRail},
	} {
		if a.on {
			item.Accessories = append(item.Accessories, a.accessory)
		}
	}

	ev, closeFn, err := openEvaluator(cmd)
	if err != nil {
		return err
	}
	defer closeFn()

	q, err := ev.Quote(cmd.Context(), line, quoteCategory, item)
	if err != nil {
		return err
	}

	out := quoteOutput{
		Line:          string(line),
		Category:      quoteCategory,
		Price:         q.Price.IntPart(),
		MatchedWidth:  q.MatchedWidth,
		MatchedHeight: q.MatchedHeight,
	}
	if quoteJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %d (matched %vx%v)\n", out.Line, out.Category, out.Price, out.MatchedWidth, out.MatchedHeight)
	return nil
}
