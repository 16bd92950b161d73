package quotation

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/cotacao/internal/pricing"
)

// Edit is a single transition applied to a draft.
type Edit interface {
	Kind() string
	apply(d *Draft) error
}

// SetUnitPrice records a unit price edit through the history tracker.
type SetUnitPrice struct {
	Key   LineKey
	Value pricing.Amount
}

func (SetUnitPrice) Kind() string { return "valor_unitario" }

func (e SetUnitPrice) apply(d *Draft) error {
	return d.updateLine(e.Key, func(line pricing.LineItem) pricing.LineItem {
		return pricing.RecordPriceChange(line, e.Value)
	})
}

// SetDifal changes the DIFAL percentage of a line.
type SetDifal struct {
	Key   LineKey
	Value pricing.Amount
}

func (SetDifal) Kind() string { return "difal" }

func (e SetDifal) apply(d *Draft) error {
	return d.updateLine(e.Key, func(line pricing.LineItem) pricing.LineItem {
		line.DifalPercent = e.Value.Float()
		return line
	})
}

// SetIPI changes the per-unit IPI amount of a line.
type SetIPI struct {
	Key   LineKey
	Value pricing.Amount
}

func (SetIPI) Kind() string { return "ipi" }

func (e SetIPI) apply(d *Draft) error {
	return d.updateLine(e.Key, func(line pricing.LineItem) pricing.LineItem {
		line.IPIAmount = e.Value.Float()
		return line
	})
}

// SetQuantity changes the quantity a supplier quotes for a line.
type SetQuantity struct {
	Key   LineKey
	Value pricing.Amount
}

func (SetQuantity) Kind() string { return "qtde" }

func (e SetQuantity) apply(d *Draft) error {
	return d.updateLine(e.Key, func(line pricing.LineItem) pricing.LineItem {
		line.Quantity = e.Value.Float()
		return line
	})
}

// SetDeliveryTerm changes the delivery term and date of a line.
type SetDeliveryTerm struct {
	Key  LineKey
	Term string
	Date string
}

func (SetDeliveryTerm) Kind() string { return "prazo_entrega" }

func (e SetDeliveryTerm) apply(d *Draft) error {
	return d.updateLine(e.Key, func(line pricing.LineItem) pricing.LineItem {
		line.DeliveryTerm = strings.TrimSpace(e.Term)
		line.DeliveryDate = strings.TrimSpace(e.Date)
		return line
	})
}

// SetFreight changes a supplier's fixed freight charge.
type SetFreight struct {
	SupplierID string
	Value      pricing.Amount
}

func (SetFreight) Kind() string { return "valor_frete" }

func (e SetFreight) apply(d *Draft) error {
	return d.updateSupplier(e.SupplierID, func(s *pricing.SupplierQuote) {
		s.FreightValue = e.Value.Float()
	})
}

// SetSupplierTerms changes the commercial terms of a supplier quote.
type SetSupplierTerms struct {
	SupplierID  string
	PaymentTerm string
	FreightType string
}

func (SetSupplierTerms) Kind() string { return "condicoes" }

func (e SetSupplierTerms) apply(d *Draft) error {
	return d.updateSupplier(e.SupplierID, func(s *pricing.SupplierQuote) {
		s.PaymentTerm = strings.TrimSpace(e.PaymentTerm)
		s.FreightType = strings.TrimSpace(e.FreightType)
	})
}

// AddSupplier adds a supplier quote with the canonical products cloned at zero price.
type AddSupplier struct {
	ID          string
	SupplierID  string
	Name        string
	PaymentTerm string
	FreightType string
	Freight     pricing.Amount
}

func (AddSupplier) Kind() string { return "adicionar_fornecedor" }

func (e AddSupplier) apply(d *Draft) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: supplier name required", ErrValidation)
	}
	return d.addSupplier(pricing.SupplierQuote{
		ID:           e.ID,
		SupplierID:   e.SupplierID,
		Name:         strings.TrimSpace(e.Name),
		PaymentTerm:  e.PaymentTerm,
		FreightType:  e.FreightType,
		FreightValue: e.Freight.Float(),
	})
}

// RemoveSupplier drops a supplier quote and all its lines.
type RemoveSupplier struct {
	SupplierID string
}

func (RemoveSupplier) Kind() string { return "remover_fornecedor" }

func (e RemoveSupplier) apply(d *Draft) error {
	return d.removeSupplier(e.SupplierID)
}

// RemoveLine drops one line from a supplier quote.
type RemoveLine struct {
	Key LineKey
}

func (RemoveLine) Kind() string { return "remover_item" }

func (e RemoveLine) apply(d *Draft) error {
	return d.removeLine(e.Key)
}

// LineUpdate is an import row resolved to a line.
type LineUpdate struct {
	LineID string
	Row    ImportRow
}

// ImportLines applies resolved import rows to one supplier's lines. Build it
// with PlanImport.
type ImportLines struct {
	SupplierID string
	Updates    []LineUpdate
}

func (ImportLines) Kind() string { return "importacao" }

func (e ImportLines) apply(d *Draft) error {
	for _, u := range e.Updates {
		key := LineKey{SupplierID: e.SupplierID, LineID: u.LineID}
		if err := d.updateLine(key, u.Row.applyTo); err != nil {
			return err
		}
	}
	return nil
}
