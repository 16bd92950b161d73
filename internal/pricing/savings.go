package pricing

// Summarize computes the economy over the winning offers: for each winner,
// (first price - current price) x quantity. Negative economy means prices
// went up since the first quote and is reported as is.
func Summarize(products []CanonicalProduct, results []BestPriceResult) SavingsSummary {
	summary := SavingsSummary{
		TotalProductsConsidered: len(products),
		ProductsWithWinner:      len(results),
	}
	for _, r := range results {
		summary.TotalEconomy += Economy(r.Line)
	}
	return summary
}

// Economy is a single line's contribution to the savings total.
func Economy(line LineItem) float64 {
	return (line.FirstUnitPrice() - line.UnitPrice) * finite(line.Quantity)
}
