package pricing

// PriceSource tells where a history entry came from.
type PriceSource string

const (
	// SourceEdit marks an ordinary price edit.
	SourceEdit PriceSource = "edit"
	// SourceImport marks values brought in by a bulk import.
	SourceImport PriceSource = "import"
)

// PriceEntry is one accepted price change. Entries are never rewritten.
type PriceEntry struct {
	Seq      int         `json:"seq"`
	Value    float64     `json:"valor"`
	Replaced float64     `json:"substituido,omitempty"`
	Source   PriceSource `json:"origem"`
	// Explicit lineage carried by an import; nil means "not provided".
	FirstOverride    *float64 `json:"primeiro_valor,omitempty"`
	PreviousOverride *float64 `json:"valor_anterior,omitempty"`
}

// History is the append-only price sequence of a line item.
type History struct {
	Entries []PriceEntry `json:"entries,omitempty"`
}

// Lineage folds the sequence into the first price ever quoted and the price
// replaced by the latest change.
func (h History) Lineage() (first, previous float64) {
	for _, e := range h.Entries {
		if e.FirstOverride != nil {
			first = *e.FirstOverride
		} else if first <= 0 && e.Value > 0 {
			first = e.Value
		}
		if e.PreviousOverride != nil {
			previous = *e.PreviousOverride
		} else if e.Replaced > 0 {
			previous = e.Replaced
		}
	}
	return first, previous
}

// Len returns the number of recorded entries.
func (h History) Len() int {
	return len(h.Entries)
}

func (h History) nextSeq() int {
	if n := len(h.Entries); n > 0 {
		return h.Entries[n-1].Seq + 1
	}
	return 1
}

// append returns a copy of h with e appended; the receiver's backing array is
// never shared with the result.
func (h History) append(e PriceEntry) History {
	e.Seq = h.nextSeq()
	entries := make([]PriceEntry, len(h.Entries), len(h.Entries)+1)
	copy(entries, h.Entries)
	return History{Entries: append(entries, e)}
}

// SeedHistory rebuilds a history from persisted lineage fields when a record
// carries no sequence of its own.
func SeedHistory(unitPrice, first, previous float64) History {
	if unitPrice <= 0 && first <= 0 && previous <= 0 {
		return History{}
	}
	e := PriceEntry{Value: unitPrice, Source: SourceImport}
	if first > 0 {
		e.FirstOverride = &first
	}
	if previous > 0 {
		e.PreviousOverride = &previous
	}
	return History{}.append(e)
}

// RecordPriceChange applies a unit price edit to line and returns the updated
// line. Positive values extend the lineage; zero, blank or non-numeric input
// clears the current price but leaves the lineage untouched. The returned
// line's Total is freight-exclusive; callers run the pipeline afterwards.
func RecordPriceChange(line LineItem, raw Amount) LineItem {
	next := raw.Float()
	if next <= 0 {
		line.UnitPrice = 0
		line.Total = LineTotal(line.Quantity, LandedUnitCost(line.UnitPrice, line.DifalPercent, line.IPIAmount))
		return line
	}
	first := line.FirstUnitPrice()
	current := line.UnitPrice
	if first <= 0 || current != next {
		entry := PriceEntry{Value: next, Source: SourceEdit}
		if current > 0 && current != next {
			entry.Replaced = current
		}
		line.History = line.History.append(entry)
	}
	line.UnitPrice = next
	line.Total = LineTotal(line.Quantity, LandedUnitCost(line.UnitPrice, line.DifalPercent, line.IPIAmount))
	return line
}

// ImportedPrice is the price data of one line coming from a bulk import.
type ImportedPrice struct {
	UnitPrice Amount
	// Nil means the import did not carry the field.
	FirstUnitPrice    *float64
	PreviousUnitPrice *float64
}

// ApplyImport records an imported price. Explicit lineage fields on the
// import take precedence over the values the tracker would compute; a field
// the import leaves out, or sets to zero, is still computed.
func ApplyImport(line LineItem, in ImportedPrice) LineItem {
	firstOverride := positive(in.FirstUnitPrice)
	previousOverride := positive(in.PreviousUnitPrice)
	if firstOverride == nil && previousOverride == nil {
		if in.UnitPrice.IsBlank() {
			return line
		}
		return RecordPriceChange(line, in.UnitPrice)
	}
	value := line.UnitPrice
	if !in.UnitPrice.IsBlank() {
		value = in.UnitPrice.Float()
	}
	if value < 0 {
		value = 0
	}
	entry := PriceEntry{
		Value:            value,
		Source:           SourceImport,
		FirstOverride:    firstOverride,
		PreviousOverride: previousOverride,
	}
	if current := line.UnitPrice; current > 0 && current != value {
		entry.Replaced = current
	}
	line.History = line.History.append(entry)
	line.UnitPrice = value
	line.Total = LineTotal(line.Quantity, LandedUnitCost(line.UnitPrice, line.DifalPercent, line.IPIAmount))
	return line
}

// positive copies p when it holds a value above zero.
func positive(p *float64) *float64 {
	if p == nil || *p <= 0 {
		return nil
	}
	v := *p
	return &v
}
