package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ProductLine selects the pricing model applied to a line item.
type ProductLine string

const (
	// LineRectangular prices blinds and insect screens from a single grid cell.
	LineRectangular ProductLine = "rectangular"

	// LineCombinedWidth prices pleated shades from one or two width segments plus material area.
	LineCombinedWidth ProductLine = "combined_width"
)

// Accessory is an optional add-on of the rectangular product line.
type Accessory string

const (
	AccessoryWebbing25   Accessory = "webbing-25"
	AccessoryWebbing50   Accessory = "webbing-50"
	AccessoryCurtainRail Accessory = "curtain-rail"
)

var (
	accessoryOrder = []Accessory{AccessoryWebbing25, AccessoryWebbing50, AccessoryCurtainRail}

	surcharges = map[Accessory]decimal.Decimal{
		AccessoryWebbing25:   decimal.NewFromInt(35),
		AccessoryWebbing50:   decimal.NewFromInt(50),
		AccessoryCurtainRail: decimal.NewFromInt(30),
	}

	ladderTapeMultiplier = decimal.New(105, -2)
	centimetersPerMeter  = decimal.NewFromInt(100)
)

// Surcharge returns the fixed per-unit fee of an accessory.
func Surcharge(a Accessory) (decimal.Decimal, bool) {
	s, ok := surcharges[a]
	return s, ok
}

// LineItem represents one requested window covering.
type LineItem struct {
	// Category overrides the batch category when set.
	Category    string
	Width       float64
	Height      float64
	Quantity    int
	Accessories []Accessory
	LadderTape  bool

	// Material and SecondWidth are used by the combined-width line only.
	// A zero SecondWidth means a single segment.
	Material    string
	SecondWidth float64
}

// Has reports whether the item carries accessory a.
func (i LineItem) Has(a Accessory) bool {
	for _, got := range i.Accessories {
		if got == a {
			return true
		}
	}
	return false
}

func (i LineItem) units() int {
	if i.Quantity == 0 {
		return 1
	}
	return i.Quantity
}

// Quote is a successfully resolved line price together with the grid
// coordinates that were billed.
type Quote struct {
	Price         decimal.Decimal
	MatchedWidth  float64
	MatchedHeight float64
}

// Tables groups the catalog tables a pricer reads.
type Tables struct {
	Prices    *PriceTable
	Materials *MaterialTable
}

// Pricer prices a line item of one product line.
type Pricer interface {
	// NeedsMaterials reports whether Price reads Tables.Materials.
	NeedsMaterials() bool

	// Validate checks the item before any catalog access.
	Validate(item LineItem) error

	// Price resolves the item against the given tables.
	Price(t Tables, item LineItem) (Quote, error)
}

// PricerFor returns the pricer of a product line.
func PricerFor(line ProductLine) (Pricer, bool) {
	switch line {
	case LineRectangular:
		return Rectangular{}, true
	case LineCombinedWidth:
		return CombinedWidth{}, true
	default:
		return nil, false
	}
}

// Rectangular prices blinds and screens: grid cell, ladder tape multiplier,
// accessory surcharges, then quantity.
type Rectangular struct{}

func (Rectangular) NeedsMaterials() bool { return false }

func (Rectangular) Validate(item LineItem) error {
	if err := validateDimensions(item); err != nil {
		return err
	}
	if item.Quantity < 0 {
		return InvalidInput("quantity must be positive, got %d", item.Quantity)
	}
	for _, a := range item.Accessories {
		if _, ok := surcharges[a]; !ok {
			return InvalidInput("unknown accessory %q", a)
		}
	}
	if item.Has(AccessoryWebbing25) && item.Has(AccessoryWebbing50) {
		return InvalidInput("accessories %s and %s are mutually exclusive", AccessoryWebbing25, AccessoryWebbing50)
	}
	return nil
}

func (Rectangular) Price(t Tables, item LineItem) (Quote, error) {
	width, height, err := matchGrid(t.Prices, item.Width, item.Height)
	if err != nil {
		return Quote{}, err
	}

	base, ok := t.Prices.Price(height, width)
	if !ok {
		return Quote{}, priceNotAvailable(t.Prices, width, height)
	}

	unit := base
	if item.LadderTape {
		unit = unit.Mul(ladderTapeMultiplier)
	}
	for _, a := range accessoryOrder {
		if item.Has(a) {
			unit = unit.Add(surcharges[a])
		}
	}

	total := unit.Mul(decimal.NewFromInt(int64(item.units())))
	return Quote{
		Price:         total.RoundBank(0),
		MatchedWidth:  width,
		MatchedHeight: height,
	}, nil
}

// CombinedWidth prices pleated shades: one grid cell per width segment,
// summed, plus material cost over the requested area.
type CombinedWidth struct{}

func (CombinedWidth) NeedsMaterials() bool { return true }

func (CombinedWidth) Validate(item LineItem) error {
	if err := validateDimensions(item); err != nil {
		return err
	}
	if NormalizeMaterial(item.Material) == "" {
		return InvalidInput("material is required")
	}
	if item.SecondWidth < 0 || math.IsNaN(item.SecondWidth) || math.IsInf(item.SecondWidth, 0) {
		return InvalidInput("second width must be positive, got %v", item.SecondWidth)
	}
	return nil
}

func (CombinedWidth) Price(t Tables, item LineItem) (Quote, error) {
	unitPrice, ok := t.Materials.Lookup(item.Material)
	if !ok {
		return Quote{}, &Error{
			Kind:    KindMaterialNotFound,
			Message: fmt.Sprintf("material %s not found", NormalizeMaterial(item.Material)),
			Key:     t.Materials.Key(),
		}
	}

	width, height, err := matchGrid(t.Prices, item.Width, item.Height)
	if err != nil {
		return Quote{}, err
	}

	base, ok := t.Prices.Price(height, width)
	if !ok {
		return Quote{}, priceNotAvailable(t.Prices, width, height)
	}

	coveredWidth := item.Width
	if item.SecondWidth > 0 {
		if second, err := ResolveSize(item.SecondWidth, t.Prices.widths); err == nil {
			if p, ok := t.Prices.Price(height, second); ok {
				base = base.Add(p)
			}
		}
		coveredWidth = math.Max(item.Width, item.SecondWidth)
	}

	area := decimal.NewFromFloat(coveredWidth).Div(centimetersPerMeter).
		Mul(decimal.NewFromFloat(item.Height).Div(centimetersPerMeter))
	total := base.Add(area.Mul(unitPrice))

	return Quote{
		Price:         total.RoundBank(0),
		MatchedWidth:  width,
		MatchedHeight: height,
	}, nil
}

func validateDimensions(item LineItem) error {
	if !validDimension(item.Width) {
		return InvalidInput("width must be a positive number, got %v", item.Width)
	}
	if !validDimension(item.Height) {
		return InvalidInput("height must be a positive number, got %v", item.Height)
	}
	return nil
}

func matchGrid(t *PriceTable, width, height float64) (float64, float64, error) {
	w, err := ResolveSize(width, t.widths)
	if err != nil {
		return 0, 0, sizeNotFound(t, "width", width, t.widths)
	}
	h, err := ResolveSize(height, t.heights)
	if err != nil {
		return 0, 0, sizeNotFound(t, "height", height, t.heights)
	}
	return w, h, nil
}

func sizeNotFound(t *PriceTable, dimension string, requested float64, available []float64) *Error {
	return &Error{
		Kind:    KindSizeNotFound,
		Message: fmt.Sprintf("%s %v exceeds the largest available size %v", dimension, requested, available[len(available)-1]),
		Key:     t.key,
		Cause:   ErrOutOfRange,
	}
}

func priceNotAvailable(t *PriceTable, width, height float64) *Error {
	return &Error{
		Kind:    KindPriceNotAvailable,
		Message: fmt.Sprintf("no price for %vx%v", width, height),
		Key:     t.key,
	}
}
