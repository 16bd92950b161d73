package quotation

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/cotacao/internal/pricing"
)

// Record is the persisted shape of a quotation.
type Record struct {
	Header    Header           `json:"cotacao"`
	Products  []ProductRecord  `json:"produtos"`
	Suppliers []SupplierRecord `json:"fornecedores"`
}

// ProductRecord is a canonical product as persisted.
type ProductRecord struct {
	ID           string  `json:"id"`
	Name         string  `json:"nome"`
	Quantity     float64 `json:"qtde"`
	Unit         string  `json:"un"`
	DeliveryTerm string  `json:"prazo_entrega,omitempty"`
}

// SupplierRecord is a supplier quote as persisted.
type SupplierRecord struct {
	ID           string       `json:"id"`
	SupplierID   string       `json:"fornecedor_id,omitempty"`
	Name         string       `json:"nome"`
	PaymentTerm  string       `json:"prazo_pagamento"`
	FreightType  string       `json:"tipo_frete"`
	FreightValue float64      `json:"valor_frete"`
	Lines        []LineRecord `json:"produtos"`
}

// LineRecord is a supplier line item as persisted.
type LineRecord struct {
	ID            string           `json:"id,omitempty"`
	ProductID     string           `json:"produto_id"`
	Name          string           `json:"nome"`
	Quantity      float64          `json:"qtde"`
	Unit          string           `json:"un"`
	UnitPrice     float64          `json:"valor_unitario"`
	FirstPrice    float64          `json:"primeiro_valor"`
	PreviousPrice float64          `json:"valor_anterior"`
	Difal         float64          `json:"difal"`
	IPI           float64          `json:"ipi"`
	DeliveryTerm  string           `json:"prazo_entrega"`
	DeliveryDate  string           `json:"data_entrega_fn"`
	Total         float64          `json:"total"`
	History       *pricing.History `json:"historico,omitempty"`
}

// FromRecord hydrates a draft from its persisted record. Lines without a
// stored history get one seeded from their lineage fields.
func FromRecord(rec Record) (Draft, error) {
	header := rec.Header
	if header.Status == "" {
		header.Status = StatusPending
	}
	if !header.Status.Valid() {
		return Draft{}, fmt.Errorf("%w: unknown status %q", ErrValidation, header.Status)
	}
	products := make([]pricing.CanonicalProduct, 0, len(rec.Products))
	for _, p := range rec.Products {
		products = append(products, pricing.CanonicalProduct{
			ID:           p.ID,
			Name:         p.Name,
			Quantity:     p.Quantity,
			Unit:         p.Unit,
			DeliveryTerm: p.DeliveryTerm,
		})
	}
	d := NewDraft(header, products)
	for _, s := range rec.Suppliers {
		quote := pricing.SupplierQuote{
			ID:           s.ID,
			SupplierID:   s.SupplierID,
			Name:         s.Name,
			PaymentTerm:  s.PaymentTerm,
			FreightType:  s.FreightType,
			FreightValue: s.FreightValue,
		}
		for _, l := range s.Lines {
			quote.Lines = append(quote.Lines, lineFromRecord(l))
		}
		if err := d.putSupplier(quote); err != nil {
			return Draft{}, err
		}
	}
	d.refreshTotals()
	return d, nil
}

func lineFromRecord(l LineRecord) pricing.LineItem {
	line := pricing.LineItem{
		ID:           l.ID,
		ProductID:    l.ProductID,
		Name:         l.Name,
		Quantity:     l.Quantity,
		Unit:         l.Unit,
		UnitPrice:    l.UnitPrice,
		DifalPercent: l.Difal,
		IPIAmount:    l.IPI,
		DeliveryTerm: l.DeliveryTerm,
		DeliveryDate: l.DeliveryDate,
		Total:        l.Total,
	}
	if l.History != nil && l.History.Len() > 0 {
		line.History = *l.History
	} else {
		line.History = pricing.SeedHistory(l.UnitPrice, l.FirstPrice, l.PreviousPrice)
	}
	return line
}

// ToRecord serialises the draft. Totals are freight-inclusive and lineage
// fields are the derived views of each line's history.
func (d Draft) ToRecord() Record {
	rec := Record{
		Header:    d.header,
		Products:  make([]ProductRecord, 0, len(d.products)),
		Suppliers: make([]SupplierRecord, 0, len(d.suppliers)),
	}
	for _, p := range d.products {
		rec.Products = append(rec.Products, ProductRecord{
			ID:           p.ID,
			Name:         p.Name,
			Quantity:     p.Quantity,
			Unit:         p.Unit,
			DeliveryTerm: p.DeliveryTerm,
		})
	}
	for _, s := range d.Suppliers() {
		sr := SupplierRecord{
			ID:           s.ID,
			SupplierID:   s.SupplierID,
			Name:         s.Name,
			PaymentTerm:  s.PaymentTerm,
			FreightType:  s.FreightType,
			FreightValue: s.FreightValue,
			Lines:        make([]LineRecord, 0, len(s.Lines)),
		}
		for _, l := range s.Lines {
			sr.Lines = append(sr.Lines, lineToRecord(l))
		}
		rec.Suppliers = append(rec.Suppliers, sr)
	}
	return rec
}

func lineToRecord(l pricing.LineItem) LineRecord {
	first, previous := l.History.Lineage()
	r := LineRecord{
		ID:            l.ID,
		ProductID:     l.ProductID,
		Name:          l.Name,
		Quantity:      l.Quantity,
		Unit:          l.Unit,
		UnitPrice:     l.UnitPrice,
		FirstPrice:    first,
		PreviousPrice: previous,
		Difal:         l.DifalPercent,
		IPI:           l.IPIAmount,
		DeliveryTerm:  l.DeliveryTerm,
		DeliveryDate:  l.DeliveryDate,
		Total:         l.Total,
	}
	if l.History.Len() > 0 {
		h := l.History
		r.History = &h
	}
	return r
}

// Supplier returns the supplier record with the given quote id.
func (r Record) Supplier(id string) (SupplierRecord, bool) {
	for _, s := range r.Suppliers {
		if s.ID == id {
			return s, true
		}
	}
	return SupplierRecord{}, false
}

// ProductInput describes one canonical product when opening a quotation.
type ProductInput struct {
	ID           string  `json:"id" validate:"omitempty,max=64"`
	Name         string  `json:"nome" validate:"required,max=200"`
	Quantity     float64 `json:"qtde" validate:"gte=0"`
	Unit         string  `json:"un" validate:"max=20"`
	DeliveryTerm string  `json:"prazo_entrega" validate:"max=60"`
}

func productsFromInput(in []ProductInput, newID func() string) ([]pricing.CanonicalProduct, error) {
	seen := make(map[string]bool, len(in))
	out := make([]pricing.CanonicalProduct, 0, len(in))
	for i, p := range in {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: product %d name required", ErrValidation, i+1)
		}
		id := strings.TrimSpace(p.ID)
		if id == "" {
			id = newID()
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate product id %s", ErrValidation, id)
		}
		seen[id] = true
		out = append(out, pricing.CanonicalProduct{
			ID:           id,
			Name:         name,
			Quantity:     p.Quantity,
			Unit:         strings.TrimSpace(p.Unit),
			DeliveryTerm: strings.TrimSpace(p.DeliveryTerm),
		})
	}
	return out, nil
}
