package pricing

// LandedUnitCost converts a raw unit price into a tax-inclusive unit cost.
// DIFAL is a percentage markup on the price; IPI is a fixed amount per unit.
func LandedUnitCost(unitPrice, difalPercent, ipiAmount float64) float64 {
	unitPrice, difalPercent, ipiAmount = finite(unitPrice), finite(difalPercent), finite(ipiAmount)
	return unitPrice*(1+difalPercent/100) + ipiAmount
}

// LineTotal is the freight-exclusive total for a line.
func LineTotal(quantity, landedUnitCost float64) float64 {
	return finite(quantity) * finite(landedUnitCost)
}
