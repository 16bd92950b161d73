package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func TestLandedUnitCost(t *testing.T) {
	require.InDelta(t, 115.0, LandedUnitCost(100, 10, 5), epsilon)
	require.Equal(t, 100.0, LandedUnitCost(100, 0, 0))
	require.Equal(t, LandedUnitCost(42.5, 7.5, 1.2), LandedUnitCost(42.5, 7.5, 1.2))
	require.InDelta(t, 230.0, LineTotal(2, LandedUnitCost(100, 10, 5)), epsilon)
}

func TestAllocateFreightProportional(t *testing.T) {
	lines := []LineItem{
		{Name: "A", Quantity: 10, UnitPrice: 12},
		{Name: "B", Quantity: 5, UnitPrice: 20},
	}
	alloc := AllocateFreight(100, lines)

	require.InDelta(t, 220.0, alloc.SupplierSubtotal, epsilon)
	require.InDelta(t, 54.5454545, alloc.Lines[0].FreightShare, 1e-6)
	require.InDelta(t, 45.4545454, alloc.Lines[1].FreightShare, 1e-6)
	require.InDelta(t, 100.0, alloc.TotalFreightShare(), epsilon)
	require.Zero(t, alloc.Undistributed)

	first := alloc.Lines[0]
	require.InDelta(t, first.FreightShare/10, first.FreightPerUnit, epsilon)
	require.InDelta(t, 12+first.FreightPerUnit, first.FinalUnitCost, epsilon)
	require.InDelta(t, 10*first.FinalUnitCost, first.LineTotal, epsilon)
}

func TestAllocateFreightSumsToFreightValue(t *testing.T) {
	lines := []LineItem{
		{Quantity: 3, UnitPrice: 9.99, DifalPercent: 4, IPIAmount: 0.37},
		{Quantity: 17, UnitPrice: 1.13, DifalPercent: 12},
		{Quantity: 0, UnitPrice: 50},
		{Quantity: 250, UnitPrice: 0.07, IPIAmount: 0.01},
		{Quantity: 1, UnitPrice: 0},
	}
	for _, freight := range []float64{0, 0.01, 33.33, 1000, 98765.43} {
		alloc := AllocateFreight(freight, lines)
		require.Greater(t, alloc.SupplierSubtotal, 0.0)
		require.InDelta(t, freight, alloc.TotalFreightShare(), 1e-6*(1+freight))
	}
}

func TestAllocateFreightWithoutPricedLinesDropsFreight(t *testing.T) {
	lines := []LineItem{{Quantity: 4}, {Quantity: 2}}
	alloc := AllocateFreight(80, lines)
	require.Zero(t, alloc.SupplierSubtotal)
	require.Equal(t, 80.0, alloc.Undistributed)
	for _, c := range alloc.Lines {
		assert.Zero(t, c.FreightShare)
		assert.Zero(t, c.FinalUnitCost)
	}
}

func TestSelectBestPricesPicksCheapest(t *testing.T) {
	products := []CanonicalProduct{{ID: "p1", Name: "Arroz", Quantity: 10}}
	suppliers := Recompute(products, []SupplierQuote{
		{ID: "a", Name: "Supplier A", Lines: []LineItem{{ProductID: "p1", Name: "Arroz", Quantity: 10, UnitPrice: 5.50}}},
		{ID: "b", Name: "Supplier B", Lines: []LineItem{{ProductID: "p1", Name: "Arroz", Quantity: 10, UnitPrice: 5.20}}},
	}, Options{})

	require.Len(t, suppliers.BestPrices, 1)
	best := suppliers.BestPrices[0]
	require.Equal(t, "b", best.Supplier.ID)
	require.InDelta(t, 5.20, best.FinalUnitCost, epsilon)
	require.InDelta(t, 52.0, best.LineTotal, epsilon)
}

func TestSelectBestPricesTieKeepsFirst(t *testing.T) {
	products := []CanonicalProduct{{ID: "p1", Name: "Feijão"}}
	cmp := Recompute(products, []SupplierQuote{
		{ID: "a", Lines: []LineItem{{Name: "Feijão", Quantity: 1, UnitPrice: 7}}},
		{ID: "b", Lines: []LineItem{{Name: "Feijão", Quantity: 1, UnitPrice: 7}}},
	}, Options{})
	require.Equal(t, "a", cmp.BestPrices[0].Supplier.ID)
}

func TestSelectBestPricesSkipsUnpricedAndOmitsMissing(t *testing.T) {
	products := []CanonicalProduct{
		{ID: "p1", Name: "Arroz"},
		{ID: "p2", Name: "Açúcar"},
	}
	cmp := Recompute(products, []SupplierQuote{
		{ID: "a", Lines: []LineItem{{ProductID: "p1", Name: "Arroz", Quantity: 1}}},
		{ID: "b", Lines: []LineItem{{ProductID: "p1", Name: "Arroz", Quantity: 1, UnitPrice: 9}}},
	}, Options{})
	require.Len(t, cmp.BestPrices, 1)
	require.Equal(t, "p1", cmp.BestPrices[0].Product.ID)
	require.Equal(t, "b", cmp.BestPrices[0].Supplier.ID)
	require.Equal(t, 2, cmp.Savings.TotalProductsConsidered)
	require.Equal(t, 1, cmp.Savings.ProductsWithWinner)
}

func TestSelectBestPricesFreightChangesWinner(t *testing.T) {
	products := []CanonicalProduct{{ID: "p1", Name: "Arroz"}}
	cmp := Recompute(products, []SupplierQuote{
		{ID: "a", FreightValue: 10, Lines: []LineItem{{ProductID: "p1", Name: "Arroz", Quantity: 10, UnitPrice: 5.00}}},
		{ID: "b", Lines: []LineItem{{ProductID: "p1", Name: "Arroz", Quantity: 10, UnitPrice: 5.50}}},
	}, Options{})
	require.Equal(t, "b", cmp.BestPrices[0].Supplier.ID)
}

func TestMatchModes(t *testing.T) {
	products := []CanonicalProduct{
		{ID: "p1", Name: "Arroz"},
		{ID: "p2", Name: "Arroz integral"},
	}
	quotes := []SupplierQuote{
		// Renamed on the supplier side but still carrying the catalog id.
		{ID: "a", Lines: []LineItem{{ProductID: "p1", Name: "ARROZ TIPO 1", Quantity: 1, UnitPrice: 4}}},
		// Legacy import with a supplier-side id unknown to the catalog.
		{ID: "b", Lines: []LineItem{{ProductID: "forn-991", Name: "Arroz integral", Quantity: 1, UnitPrice: 6}}},
	}

	byID := Recompute(products, quotes, Options{Match: MatchByIDWithNameFallback})
	require.Len(t, byID.BestPrices, 2)
	require.Equal(t, "a", byID.BestPrices[0].Supplier.ID)
	require.Equal(t, "b", byID.BestPrices[1].Supplier.ID)

	byName := Recompute(products, quotes, Options{Match: MatchByName})
	require.Len(t, byName.BestPrices, 1)
	require.Equal(t, "p2", byName.BestPrices[0].Product.ID)
}

func TestParseMatchMode(t *testing.T) {
	mode, err := ParseMatchMode("")
	require.NoError(t, err)
	require.Equal(t, MatchByIDWithNameFallback, mode)
	mode, err = ParseMatchMode("name")
	require.NoError(t, err)
	require.Equal(t, MatchByName, mode)
	_, err = ParseMatchMode("sku")
	require.Error(t, err)
}

func TestSavingsScenario(t *testing.T) {
	line := RecordPriceChange(LineItem{ProductID: "p1", Name: "Arroz", Quantity: 100}, "10")
	line = RecordPriceChange(line, "8")
	require.InDelta(t, 200.0, Economy(line), epsilon)

	products := []CanonicalProduct{{ID: "p1", Name: "Arroz", Quantity: 100}}
	cmp := Recompute(products, []SupplierQuote{{ID: "a", Lines: []LineItem{line}}}, Options{})
	require.InDelta(t, 200.0, cmp.Savings.TotalEconomy, epsilon)
}

func TestSavingsCanBeNegative(t *testing.T) {
	line := RecordPriceChange(LineItem{Quantity: 5}, "10")
	line = RecordPriceChange(line, "12")
	summary := Summarize(nil, []BestPriceResult{{Line: line}})
	require.InDelta(t, -10.0, summary.TotalEconomy, epsilon)
}

func TestRecomputeWritesTotalsWithoutMutatingInput(t *testing.T) {
	quotes := []SupplierQuote{{
		ID:           "a",
		FreightValue: 20,
		Lines:        []LineItem{{Name: "X", Quantity: 2, UnitPrice: 10}},
	}}
	cmp := Recompute(nil, quotes, Options{})
	require.Zero(t, quotes[0].Lines[0].Total)
	s, ok := cmp.Supplier("a")
	require.True(t, ok)
	require.InDelta(t, 40.0, s.Quote.Lines[0].Total, epsilon)
	require.InDelta(t, s.Quote.Lines[0].Quantity*s.Allocation.Lines[0].FinalUnitCost, s.Quote.Lines[0].Total, epsilon)
}
