package pricing

// Options tunes a recomputation pass.
type Options struct {
	Match MatchMode
}

// Comparison is the output of a full recomputation pass.
type Comparison struct {
	Suppliers  []PricedSupplier
	BestPrices []BestPriceResult
	Savings    SavingsSummary
}

// Recompute runs landed cost, freight allocation, best-price selection and
// savings in that order. The supplier quotes are not modified; the returned
// quotes carry each line's freight-inclusive Total.
func Recompute(products []CanonicalProduct, suppliers []SupplierQuote, opts Options) Comparison {
	if opts.Match == "" {
		opts.Match = MatchByIDWithNameFallback
	}
	priced := make([]PricedSupplier, len(suppliers))
	for i, s := range suppliers {
		alloc := AllocateFreight(s.FreightValue, s.Lines)
		quote := s
		quote.Lines = make([]LineItem, len(s.Lines))
		for j, line := range s.Lines {
			line.Total = alloc.Lines[j].LineTotal
			quote.Lines[j] = line
		}
		priced[i] = PricedSupplier{Quote: quote, Allocation: alloc}
	}
	best := SelectBestPrices(products, priced, opts.Match)
	return Comparison{
		Suppliers:  priced,
		BestPrices: best,
		Savings:    Summarize(products, best),
	}
}

// Supplier returns the priced supplier with the given quote id.
func (c Comparison) Supplier(id string) (PricedSupplier, bool) {
	for _, s := range c.Suppliers {
		if s.Quote.ID == id {
			return s, true
		}
	}
	return PricedSupplier{}, false
}
