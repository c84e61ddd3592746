package main

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/Simplici0/oslony/internal/pricing"
)

// parseRectangularQuery reads the category and the parallel item lists.
// Every optional list must be absent or as long as the width list.
func parseRectangularQuery(q url.Values) (string, []pricing.LineItem, error) {
	category := strings.TrimSpace(q.Get("category"))
	if category == "" {
		category = strings.TrimSpace(q.Get("kategoria"))
	}

	widths := q["szerokosc"]
	heights := q["wysokosc"]
	if len(widths) == 0 {
		return "", nil, pricing.InvalidInput("szerokosc is required")
	}
	if len(heights) != len(widths) {
		return "", nil, pricing.InvalidInput("expected %d wysokosc values, got %d", len(widths), len(heights))
	}

	items := make([]pricing.LineItem, len(widths))
	for i := range widths {
		var err error
		if items[i].Width, err = parsePositiveFloat(widths[i], "szerokosc"); err != nil {
			return "", nil, err
		}
		if items[i].Height, err = parsePositiveFloat(heights[i], "wysokosc"); err != nil {
			return "", nil, err
		}
	}

	quantities, err := optionalList(q, "ilosc", len(items))
	if err != nil {
		return "", nil, err
	}
	for i, raw := range quantities {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			return "", nil, pricing.InvalidInput("ilosc must be a non-negative integer, got %q", raw)
		}
		items[i].Quantity = n
	}

	flags := []struct {
		name      string
		accessory pricing.Accessory
	}{
		{"tasma_25", pricing.AccessoryWebbing25},
		{"tasma_50", pricing.AccessoryWebbing50},
		{"karnisz", pricing.AccessoryCurtainRail},
		{"drabinka", ""},
	}
	for _, f := range flags {
		values, err := optionalList(q, f.name, len(items))
		if err != nil {
			return "", nil, err
		}
		for i, raw := range values {
			on, err := parseFlag(raw, f.name)
			if err != nil {
				return "", nil, err
			}
			switch {
			case !on:
			case f.accessory == "":
				items[i].LadderTape = true
			default:
				items[i].Accessories = append(items[i].Accessories, f.accessory)
			}
		}
	}

	return category, items, nil
}

func parsePleatedQuery(q url.Values) (string, pricing.LineItem, error) {
	system := strings.TrimSpace(q.Get("system"))
	if system == "" {
		return "", pricing.LineItem{}, pricing.InvalidInput("system is required")
	}

	item := pricing.LineItem{Material: q.Get("material")}
	var err error
	if item.Width, err = parsePositiveFloat(q.Get("szerokosc"), "szerokosc"); err != nil {
		return "", item, err
	}
	if item.Height, err = parsePositiveFloat(q.Get("wysokosc"), "wysokosc"); err != nil {
		return "", item, err
	}
	if raw := q.Get("szerokosc2"); strings.TrimSpace(raw) != "" {
		if item.SecondWidth, err = parseNonNegativeFloat(raw, "szerokosc2"); err != nil {
			return "", item, err
		}
	}
	return system, item, nil
}

func optionalList(q url.Values, name string, n int) ([]string, error) {
	values := q[name]
	if len(values) != 0 && len(values) != n {
		return nil, pricing.InvalidInput("expected %d %s values, got %d", n, name, len(values))
	}
	return values, nil
}

func parseFlag(raw, field string) (bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, nil
	}
	on, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pricing.InvalidInput("%s must be a boolean, got %q", field, raw)
	}
	return on, nil
}

func parseNonNegativeFloat(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, pricing.InvalidInput("%s must be numeric", field)
	}
	if value < 0 {
		return 0, pricing.InvalidInput("%s must be greater than or equal to 0", field)
	}
	return value, nil
}

func parsePositiveFloat(raw, field string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, pricing.InvalidInput("%s must be numeric", field)
	}
	if value <= 0 {
		return 0, pricing.InvalidInput("%s must be greater than 0", field)
	}
	return value, nil
}
