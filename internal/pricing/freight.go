package pricing

// FreightAllocation is the result of spreading a supplier's freight charge
// over its lines.
type FreightAllocation struct {
	SupplierSubtotal float64
	FreightValue     float64
	// Undistributed is the freight dropped because the supplier has no
	// priced lines. It is reported, never redistributed.
	Undistributed float64
	Lines         []LineCost
}

// AllocateFreight distributes freightValue across lines proportionally to
// each line's tax-inclusive value and folds it into a final unit cost. The
// returned costs are index-aligned with lines.
func AllocateFreight(freightValue float64, lines []LineItem) FreightAllocation {
	freightValue = finite(freightValue)
	costs := make([]LineCost, len(lines))
	var subtotal float64
	for i, line := range lines {
		landed := LandedUnitCost(line.UnitPrice, line.DifalPercent, line.IPIAmount)
		lineSubtotal := LineTotal(line.Quantity, landed)
		costs[i] = LineCost{LandedUnitCost: landed, LineSubtotal: lineSubtotal}
		subtotal += lineSubtotal
	}

	alloc := FreightAllocation{SupplierSubtotal: subtotal, FreightValue: freightValue, Lines: costs}
	if subtotal <= 0 {
		alloc.Undistributed = freightValue
	}
	for i := range costs {
		c := &costs[i]
		if subtotal > 0 {
			c.FreightShare = (c.LineSubtotal / subtotal) * freightValue
		}
		qty := finite(lines[i].Quantity)
		if qty > 0 {
			c.FreightPerUnit = c.FreightShare / qty
		}
		c.FinalUnitCost = c.LandedUnitCost + c.FreightPerUnit
		c.LineTotal = qty * c.FinalUnitCost
	}
	return alloc
}

// TotalFreightShare sums the freight assigned to the lines.
func (a FreightAllocation) TotalFreightShare() float64 {
	var total float64
	for _, c := range a.Lines {
		total += c.FreightShare
	}
	return total
}
