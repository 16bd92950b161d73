package quotation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/odyssey-erp/cotacao/internal/pricing"
)

// LineKey indexes a line item within a draft.
type LineKey struct {
	SupplierID string
	LineID     string
}

// Draft is the editable state of one quotation. It is a value: Apply and
// Transition return a new Draft and never modify the receiver.
type Draft struct {
	header    Header
	products  []pricing.CanonicalProduct
	suppliers []pricing.SupplierQuote // headers only; lines live in the flat index
	lineOrder map[string][]string
	lines     map[LineKey]pricing.LineItem
}

// NewDraft starts a pending draft for the canonical product list.
func NewDraft(header Header, products []pricing.CanonicalProduct) Draft {
	if header.Status == "" {
		header.Status = StatusPending
	}
	if header.Round == 0 {
		header.Round = 1
	}
	return Draft{
		header:    header,
		products:  append([]pricing.CanonicalProduct(nil), products...),
		lineOrder: make(map[string][]string),
		lines:     make(map[LineKey]pricing.LineItem),
	}
}

// Header returns the quotation header.
func (d Draft) Header() Header { return d.header }

// Products returns a copy of the canonical product list.
func (d Draft) Products() []pricing.CanonicalProduct {
	return append([]pricing.CanonicalProduct(nil), d.products...)
}

// Line returns the line item at key.
func (d Draft) Line(key LineKey) (pricing.LineItem, bool) {
	line, ok := d.lines[key]
	return line, ok
}

// Suppliers assembles the supplier quotes in draft order.
func (d Draft) Suppliers() []pricing.SupplierQuote {
	out := make([]pricing.SupplierQuote, len(d.suppliers))
	for i, s := range d.suppliers {
		ids := d.lineOrder[s.ID]
		s.Lines = make([]pricing.LineItem, 0, len(ids))
		for _, lineID := range ids {
			s.Lines = append(s.Lines, d.lines[LineKey{SupplierID: s.ID, LineID: lineID}])
		}
		out[i] = s
	}
	return out
}

// Supplier returns one supplier quote with its lines.
func (d Draft) Supplier(id string) (pricing.SupplierQuote, bool) {
	for _, s := range d.Suppliers() {
		if s.ID == id {
			return s, true
		}
	}
	return pricing.SupplierQuote{}, false
}

// Comparison runs the full pricing pipeline over the draft.
func (d Draft) Comparison(opts pricing.Options) pricing.Comparison {
	return pricing.Recompute(d.products, d.Suppliers(), opts)
}

// Apply returns the draft with edit applied and all totals recomputed. Edits
// are rejected with *InvalidStateError unless the status is editable.
func (d Draft) Apply(edit Edit) (Draft, error) {
	if !d.header.Status.Editable() {
		return d, &InvalidStateError{Status: d.header.Status, Op: edit.Kind()}
	}
	next := d.clone()
	if err := edit.apply(&next); err != nil {
		return d, err
	}
	next.refreshTotals()
	return next, nil
}

// ApplyAll applies edits in order; either all of them apply or none do.
func (d Draft) ApplyAll(edits []Edit) (Draft, error) {
	next := d
	for i, edit := range edits {
		var err error
		next, err = next.Apply(edit)
		if err != nil {
			return d, fmt.Errorf("edit %d (%s): %w", i+1, edit.Kind(), err)
		}
	}
	return next, nil
}

// Transition moves the draft to the status reached by action.
func (d Draft) Transition(action Action) (Draft, error) {
	status, err := d.header.Status.Next(action)
	if err != nil {
		return d, err
	}
	next := d.clone()
	next.header.Status = status
	if action == ActionRenegotiate {
		next.header.Round++
	}
	return next, nil
}

func (d Draft) clone() Draft {
	c := Draft{
		header:    d.header,
		products:  d.products,
		suppliers: append([]pricing.SupplierQuote(nil), d.suppliers...),
		lineOrder: make(map[string][]string, len(d.lineOrder)),
		lines:     make(map[LineKey]pricing.LineItem, len(d.lines)),
	}
	for k, v := range d.lineOrder {
		c.lineOrder[k] = append([]string(nil), v...)
	}
	for k, v := range d.lines {
		c.lines[k] = v
	}
	return c
}

// refreshTotals writes each line's freight-inclusive total.
func (d *Draft) refreshTotals() {
	for _, s := range d.Suppliers() {
		alloc := pricing.AllocateFreight(s.FreightValue, s.Lines)
		for i, line := range s.Lines {
			line.Total = alloc.Lines[i].LineTotal
			d.lines[LineKey{SupplierID: s.ID, LineID: line.ID}] = line
		}
	}
}

func (d *Draft) supplierIndex(id string) int {
	for i, s := range d.suppliers {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (d *Draft) updateLine(key LineKey, fn func(pricing.LineItem) pricing.LineItem) error {
	if d.supplierIndex(key.SupplierID) < 0 {
		return fmt.Errorf("%w: %s", ErrSupplierNotFound, key.SupplierID)
	}
	line, ok := d.lines[key]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrLineNotFound, key.SupplierID, key.LineID)
	}
	d.lines[key] = fn(line)
	return nil
}

func (d *Draft) updateSupplier(id string, fn func(*pricing.SupplierQuote)) error {
	i := d.supplierIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSupplierNotFound, id)
	}
	fn(&d.suppliers[i])
	return nil
}

// addSupplier appends a supplier and clones the canonical list into zero-priced lines.
func (d *Draft) addSupplier(s pricing.SupplierQuote) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if d.supplierIndex(s.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateSupplier, s.ID)
	}
	s.Lines = nil
	d.suppliers = append(d.suppliers, s)
	ids := make([]string, 0, len(d.products))
	for _, p := range d.products {
		line := pricing.LineItem{
			ID:           uuid.NewString(),
			ProductID:    p.ID,
			Name:         p.Name,
			Quantity:     p.Quantity,
			Unit:         p.Unit,
			DeliveryTerm: p.DeliveryTerm,
		}
		d.lines[LineKey{SupplierID: s.ID, LineID: line.ID}] = line
		ids = append(ids, line.ID)
	}
	d.lineOrder[s.ID] = ids
	return nil
}

func (d *Draft) removeSupplier(id string) error {
	i := d.supplierIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrSupplierNotFound, id)
	}
	for _, lineID := range d.lineOrder[id] {
		delete(d.lines, LineKey{SupplierID: id, LineID: lineID})
	}
	delete(d.lineOrder, id)
	d.suppliers = append(d.suppliers[:i:i], d.suppliers[i+1:]...)
	return nil
}

func (d *Draft) removeLine(key LineKey) error {
	if _, ok := d.lines[key]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrLineNotFound, key.SupplierID, key.LineID)
	}
	delete(d.lines, key)
	ids := d.lineOrder[key.SupplierID]
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != key.LineID {
			kept = append(kept, id)
		}
	}
	d.lineOrder[key.SupplierID] = kept
	return nil
}

// putSupplier inserts a supplier with its lines as they are, used when
// hydrating a draft from a stored record.
func (d *Draft) putSupplier(s pricing.SupplierQuote) error {
	if s.ID == "" {
		return fmt.Errorf("%w: supplier id required", ErrValidation)
	}
	if d.supplierIndex(s.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateSupplier, s.ID)
	}
	lines := s.Lines
	s.Lines = nil
	d.suppliers = append(d.suppliers, s)
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ID == "" {
			line.ID = uuid.NewString()
		}
		key := LineKey{SupplierID: s.ID, LineID: line.ID}
		if _, dup := d.lines[key]; dup {
			return fmt.Errorf("%w: duplicate line %s", ErrValidation, line.ID)
		}
		d.lines[key] = line
		ids = append(ids, line.ID)
	}
	d.lineOrder[s.ID] = ids
	return nil
}
