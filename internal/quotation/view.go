package quotation

import "github.com/odyssey-erp/cotacao/internal/pricing"

// ComparisonView is the cacheable outcome of a pricing pass.
type ComparisonView struct {
	QuotationID string          `json:"cotacao_id"`
	Number      string          `json:"numero"`
	Version     int64           `json:"versao"`
	Status      Status          `json:"status"`
	Round       int             `json:"rodada"`
	BestPrices  []BestPriceView `json:"melhores_precos"`
	Savings     SavingsView     `json:"economia"`
	Suppliers   []SupplierView  `json:"fornecedores"`
}

// BestPriceView is the winning offer of one product.
type BestPriceView struct {
	ProductID     string  `json:"produto_id"`
	ProductName   string  `json:"produto"`
	Quantity      float64 `json:"qtde"`
	Unit          string  `json:"un"`
	SupplierID    string  `json:"fornecedor_id"`
	SupplierName  string  `json:"fornecedor"`
	LineID        string  `json:"item_id"`
	UnitPrice     float64 `json:"valor_unitario"`
	FirstPrice    float64 `json:"primeiro_valor"`
	FinalUnitCost float64 `json:"custo_final_unitario"`
	LineTotal     float64 `json:"total"`
	Economy       float64 `json:"economia"`
}

// SavingsView is the aggregate economy.
type SavingsView struct {
	TotalProducts      int     `json:"total_produtos"`
	ProductsWithWinner int     `json:"produtos_com_vencedor"`
	TotalEconomy       float64 `json:"economia_total"`
}

// SupplierView is one supplier's cost breakdown.
type SupplierView struct {
	ID            string         `json:"id"`
	Name          string         `json:"nome"`
	Subtotal      float64        `json:"subtotal"`
	Freight       float64        `json:"valor_frete"`
	Undistributed float64        `json:"frete_nao_rateado"`
	Total         float64        `json:"total"`
	Lines         []LineCostView `json:"produtos"`
}

// LineCostView is the cost breakdown of one supplier line.
type LineCostView struct {
	LineID         string  `json:"id"`
	ProductID      string  `json:"produto_id"`
	Name           string  `json:"nome"`
	Quantity       float64 `json:"qtde"`
	UnitPrice      float64 `json:"valor_unitario"`
	LandedUnitCost float64 `json:"custo_unitario_impostos"`
	FreightShare   float64 `json:"rateio_frete"`
	FreightPerUnit float64 `json:"frete_unitario"`
	FinalUnitCost  float64 `json:"custo_final_unitario"`
	Total          float64 `json:"total"`
}

// NewComparisonView flattens a pricing comparison for transport.
func NewComparisonView(h Header, cmp pricing.Comparison) ComparisonView {
	view := ComparisonView{
		QuotationID: h.ID,
		Number:      h.Number,
		Version:     h.Version,
		Status:      h.Status,
		Round:       h.Round,
		BestPrices:  make([]BestPriceView, 0, len(cmp.BestPrices)),
		Suppliers:   make([]SupplierView, 0, len(cmp.Suppliers)),
		Savings: SavingsView{
			TotalProducts:      cmp.Savings.TotalProductsConsidered,
			ProductsWithWinner: cmp.Savings.ProductsWithWinner,
			TotalEconomy:       cmp.Savings.TotalEconomy,
		},
	}
	for _, b := range cmp.BestPrices {
		view.BestPrices = append(view.BestPrices, BestPriceView{
			ProductID:     b.Product.ID,
			ProductName:   b.Product.Name,
			Quantity:      b.Line.Quantity,
			Unit:          b.Line.Unit,
			SupplierID:    b.Supplier.ID,
			SupplierName:  b.Supplier.Name,
			LineID:        b.Line.ID,
			UnitPrice:     b.Line.UnitPrice,
			FirstPrice:    b.Line.FirstUnitPrice(),
			FinalUnitCost: b.FinalUnitCost,
			LineTotal:     b.LineTotal,
			Economy:       pricing.Economy(b.Line),
		})
	}
	for _, s := range cmp.Suppliers {
		sv := SupplierView{
			ID:            s.Quote.ID,
			Name:          s.Quote.Name,
			Subtotal:      s.Allocation.SupplierSubtotal,
			Freight:       s.Allocation.FreightValue,
			Undistributed: s.Allocation.Undistributed,
			Lines:         make([]LineCostView, 0, len(s.Quote.Lines)),
		}
		for i, line := range s.Quote.Lines {
			c := s.Allocation.Lines[i]
			sv.Total += c.LineTotal
			sv.Lines = append(sv.Lines, LineCostView{
				LineID:         line.ID,
				ProductID:      line.ProductID,
				Name:           line.Name,
				Quantity:       line.Quantity,
				UnitPrice:      line.UnitPrice,
				LandedUnitCost: c.LandedUnitCost,
				FreightShare:   c.FreightShare,
				FreightPerUnit: c.FreightPerUnit,
				FinalUnitCost:  c.FinalUnitCost,
				Total:          c.LineTotal,
			})
		}
		view.Suppliers = append(view.Suppliers, sv)
	}
	return view
}

// OfferCost returns the final unit cost a supplier quotes for a product, as
// the best-price selector would see it.
func (v ComparisonView) OfferCost(supplierID, productID string) (float64, bool) {
	for _, s := range v.Suppliers {
		if s.ID != supplierID {
			continue
		}
		for _, l := range s.Lines {
			if l.ProductID == productID && l.FinalUnitCost > 0 {
				return l.FinalUnitCost, true
			}
		}
	}
	return 0, false
}
