// Package pricing implements the cotação pricing engine: price lineage,
// landed cost, freight allocation, best-price selection and savings.
//
// Every function in this package is pure. Callers own the records and decide
// when to persist them.
package pricing

// CanonicalProduct identifies a product within a quotation independent of supplier.
type CanonicalProduct struct {
	ID           string
	Name         string
	Quantity     float64
	Unit         string
	DeliveryTerm string
}

// LineItem is one product as priced by one supplier.
type LineItem struct {
	ID           string
	ProductID    string
	Name         string
	Quantity     float64
	Unit         string
	UnitPrice    float64
	DifalPercent float64
	IPIAmount    float64
	DeliveryTerm string
	DeliveryDate string
	Total        float64
	History      History
}

// FirstUnitPrice returns the first positive price ever quoted for the line.
func (l LineItem) FirstUnitPrice() float64 {
	first, _ := l.History.Lineage()
	return first
}

// PreviousUnitPrice returns the price replaced by the latest change.
func (l LineItem) PreviousUnitPrice() float64 {
	_, previous := l.History.Lineage()
	return previous
}

// SupplierQuote is one supplier's offer within a quotation.
type SupplierQuote struct {
	ID           string
	SupplierID   string
	Name         string
	PaymentTerm  string
	FreightType  string
	FreightValue float64
	Lines        []LineItem
}

// LineCost is the computed cost breakdown of a single line.
type LineCost struct {
	LandedUnitCost float64
	LineSubtotal   float64
	FreightShare   float64
	FreightPerUnit float64
	FinalUnitCost  float64
	LineTotal      float64
}

// BestPriceResult is the winning offer for a product.
type BestPriceResult struct {
	Product       CanonicalProduct
	Supplier      SupplierQuote
	Line          LineItem
	FinalUnitCost float64
	LineTotal     float64
}

// SavingsSummary aggregates economy over the winning offers.
type SavingsSummary struct {
	TotalProductsConsidered int
	ProductsWithWinner      int
	TotalEconomy            float64
}
