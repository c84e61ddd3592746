package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Material is a single material row as read from a catalog.
type Material struct {
	Name      string
	UnitPrice decimal.Decimal // per square meter
}

// MaterialTable is an immutable lookup from material identifier to unit
// area price. Identifiers are matched after NormalizeMaterial.
type MaterialTable struct {
	key    string
	names  []string
	prices map[string]decimal.Decimal
}

// NormalizeMaterial returns the canonical form of a material identifier.
func NormalizeMaterial(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NewMaterialTable validates materials and builds a table. Source order is
// kept for listing.
func NewMaterialTable(key string, materials []Material) (*MaterialTable, error) {
	t := &MaterialTable{
		key:    key,
		names:  make([]string, 0, len(materials)),
		prices: make(map[string]decimal.Decimal, len(materials)),
	}

	for _, m := range materials {
		id := NormalizeMaterial(m.Name)
		if id == "" {
			return nil, MalformedCatalog(key, "material with empty name", nil)
		}
		if m.UnitPrice.IsNegative() {
			return nil, MalformedCatalog(key, fmt.Sprintf("negative price for material %s", id), nil)
		}
		if _, dup := t.prices[id]; dup {
			return nil, MalformedCatalog(key, fmt.Sprintf("duplicate material %s", id), nil)
		}
		t.prices[id] = m.UnitPrice
		t.names = append(t.names, strings.TrimSpace(m.Name))
	}

	return t, nil
}

// Key returns the system the table was loaded for.
func (t *MaterialTable) Key() string { return t.key }

// Lookup returns the unit area price of a material.
func (t *MaterialTable) Lookup(name string) (decimal.Decimal, bool) {
	p, ok := t.prices[NormalizeMaterial(name)]
	return p, ok
}

// Names returns material names as they appear in the catalog.
func (t *MaterialTable) Names() []string { return append([]string(nil), t.names...) }

// Materials returns every material in source order.
func (t *MaterialTable) Materials() []Material {
	out := make([]Material, 0, len(t.names))
	for _, name := range t.names {
		out = append(out, Material{Name: name, UnitPrice: t.prices[NormalizeMaterial(name)]})
	}
	return out
}

// Len returns the number of materials.
func (t *MaterialTable) Len() int { return len(t.names) }
