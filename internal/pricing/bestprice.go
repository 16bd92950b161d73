package pricing

import "fmt"

// MatchMode selects how supplier lines are matched to canonical products.
type MatchMode string

const (
	// MatchByIDWithNameFallback matches on product id; lines whose id is
	// empty or unknown to the catalog fall back to exact display name.
	MatchByIDWithNameFallback MatchMode = "id"
	// MatchByName matches on exact display name only.
	MatchByName MatchMode = "name"
)

// ParseMatchMode validates a configured match mode. Empty selects the default.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case "", MatchByIDWithNameFallback:
		return MatchByIDWithNameFallback, nil
	case MatchByName:
		return MatchByName, nil
	}
	return "", fmt.Errorf("pricing: unknown match mode %q", s)
}

// PricedSupplier pairs a supplier quote with its freight allocation.
type PricedSupplier struct {
	Quote      SupplierQuote
	Allocation FreightAllocation
}

type matcher struct {
	mode    MatchMode
	catalog map[string]struct{}
}

func newMatcher(mode MatchMode, products []CanonicalProduct) matcher {
	m := matcher{mode: mode, catalog: make(map[string]struct{}, len(products))}
	for _, p := range products {
		if p.ID != "" {
			m.catalog[p.ID] = struct{}{}
		}
	}
	return m
}

func (m matcher) offers(product CanonicalProduct, line LineItem) bool {
	if m.mode == MatchByName {
		return line.Name == product.Name
	}
	if line.ProductID != "" {
		if _, known := m.catalog[line.ProductID]; known {
			return line.ProductID == product.ID
		}
	}
	return line.Name == product.Name
}

// SelectBestPrices picks, for each product, the offer with the lowest final
// unit cost. Suppliers are scanned in the given order and ties keep the first
// offer seen. Products without a positive offer are left out.
func SelectBestPrices(products []CanonicalProduct, suppliers []PricedSupplier, mode MatchMode) []BestPriceResult {
	m := newMatcher(mode, products)
	results := make([]BestPriceResult, 0, len(products))
	for _, product := range products {
		var best *BestPriceResult
		for _, s := range suppliers {
			for i, line := range s.Quote.Lines {
				if i >= len(s.Allocation.Lines) || !m.offers(product, line) {
					continue
				}
				cost := s.Allocation.Lines[i]
				if cost.FinalUnitCost <= 0 {
					continue
				}
				if best == nil || cost.FinalUnitCost < best.FinalUnitCost {
					best = &BestPriceResult{
						Product:       product,
						Supplier:      s.Quote,
						Line:          line,
						FinalUnitCost: cost.FinalUnitCost,
						LineTotal:     cost.LineTotal,
					}
				}
			}
		}
		if best != nil {
			results = append(results, *best)
		}
	}
	return results
}
