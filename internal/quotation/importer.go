package quotation

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/cotacao/internal/pricing"
)

// ImportRow is one already-parsed row from a prior quotation or a
// spreadsheet, keyed by the persisted line field names.
type ImportRow struct {
	ProductID    string         `json:"produto_id"`
	Name         string         `json:"nome"`
	Quantity     pricing.Amount `json:"qtde"`
	Unit         string         `json:"un"`
	UnitPrice    pricing.Amount `json:"valor_unitario"`
	FirstPrice   pricing.Amount `json:"primeiro_valor"`
	PrevPrice    pricing.Amount `json:"valor_anterior"`
	Difal        pricing.Amount `json:"difal"`
	IPI          pricing.Amount `json:"ipi"`
	DeliveryTerm string         `json:"prazo_entrega"`
}

// optional reads a lineage cell. Blank and non-positive cells mean the row
// did not provide the value.
func optional(a pricing.Amount) *float64 {
	if a.IsBlank() {
		return nil
	}
	v := a.Float()
	if v <= 0 {
		return nil
	}
	return &v
}

// applyTo merges the row into line. Blank cells leave the line unchanged.
func (r ImportRow) applyTo(line pricing.LineItem) pricing.LineItem {
	if !r.Quantity.IsBlank() {
		line.Quantity = r.Quantity.Float()
	}
	if u := strings.TrimSpace(r.Unit); u != "" {
		line.Unit = u
	}
	if !r.Difal.IsBlank() {
		line.DifalPercent = r.Difal.Float()
	}
	if !r.IPI.IsBlank() {
		line.IPIAmount = r.IPI.Float()
	}
	if t := strings.TrimSpace(r.DeliveryTerm); t != "" {
		line.DeliveryTerm = t
	}
	return pricing.ApplyImport(line, pricing.ImportedPrice{
		UnitPrice:         r.UnitPrice,
		FirstUnitPrice:    optional(r.FirstPrice),
		PreviousUnitPrice: optional(r.PrevPrice),
	})
}

// RowError describes a row that could not be used.
type RowError struct {
	Row    int    `json:"linha"`
	Reason string `json:"motivo"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
}

var importColumns = map[string]func(*ImportRow, string){
	"produto_id":     func(r *ImportRow, v string) { r.ProductID = v },
	"nome":           func(r *ImportRow, v string) { r.Name = v },
	"qtde":           func(r *ImportRow, v string) { r.Quantity = pricing.Amount(v) },
	"un":             func(r *ImportRow, v string) { r.Unit = v },
	"valor_unitario": func(r *ImportRow, v string) { r.UnitPrice = pricing.Amount(v) },
	"primeiro_valor": func(r *ImportRow, v string) { r.FirstPrice = pricing.Amount(v) },
	"valor_anterior": func(r *ImportRow, v string) { r.PrevPrice = pricing.Amount(v) },
	"difal":          func(r *ImportRow, v string) { r.Difal = pricing.Amount(v) },
	"ipi":            func(r *ImportRow, v string) { r.IPI = pricing.Amount(v) },
	"prazo_entrega":  func(r *ImportRow, v string) { r.DeliveryTerm = v },
}

// RowsFromTable maps tabular rows to import rows using the header row.
// Unknown columns are ignored. Rows naming neither product id nor name are
// reported and skipped. Row numbers in errors are 1-based data rows.
func RowsFromTable(header []string, rows [][]string) ([]ImportRow, []RowError) {
	setters := make([]func(*ImportRow, string), len(header))
	for i, h := range header {
		setters[i] = importColumns[strings.ToLower(strings.TrimSpace(h))]
	}
	out := make([]ImportRow, 0, len(rows))
	var errs []RowError
	for n, cells := range rows {
		var row ImportRow
		for i, cell := range cells {
			if i < len(setters) && setters[i] != nil {
				setters[i](&row, strings.TrimSpace(cell))
			}
		}
		if row.ProductID == "" && row.Name == "" {
			errs = append(errs, RowError{Row: n + 1, Reason: "produto_id or nome required"})
			continue
		}
		out = append(out, row)
	}
	return out, errs
}

// RowsFromPriorQuotation turns a supplier's lines from an earlier quotation
// into import rows that carry their price lineage along. Quantity and unit
// stay those of the current quotation.
func RowsFromPriorQuotation(prior SupplierRecord) []ImportRow {
	rows := make([]ImportRow, 0, len(prior.Lines))
	for _, l := range prior.Lines {
		row := ImportRow{
			ProductID:    l.ProductID,
			Name:         l.Name,
			Difal:        pricing.AmountOf(l.Difal),
			IPI:          pricing.AmountOf(l.IPI),
			DeliveryTerm: l.DeliveryTerm,
		}
		if l.UnitPrice > 0 {
			row.UnitPrice = pricing.AmountOf(l.UnitPrice)
		}
		if l.FirstPrice > 0 {
			row.FirstPrice = pricing.AmountOf(l.FirstPrice)
		}
		if l.PreviousPrice > 0 {
			row.PrevPrice = pricing.AmountOf(l.PreviousPrice)
		}
		rows = append(rows, row)
	}
	return rows
}

// ImportReport summarises how import rows matched a supplier's lines.
type ImportReport struct {
	Matched   int        `json:"importados"`
	Unmatched []RowError `json:"ignorados,omitempty"`
}

// PlanImport resolves rows against a supplier's lines: first by product id,
// then by exact name. Each line takes at most one row; later duplicates are
// reported as unmatched.
func PlanImport(d Draft, supplierID string, rows []ImportRow) (ImportLines, ImportReport, error) {
	supplier, ok := d.Supplier(supplierID)
	if !ok {
		return ImportLines{}, ImportReport{}, fmt.Errorf("%w: %s", ErrSupplierNotFound, supplierID)
	}
	byProduct := make(map[string]string)
	byName := make(map[string]string)
	for _, line := range supplier.Lines {
		if line.ProductID != "" {
			if _, dup := byProduct[line.ProductID]; !dup {
				byProduct[line.ProductID] = line.ID
			}
		}
		if _, dup := byName[line.Name]; !dup {
			byName[line.Name] = line.ID
		}
	}

	plan := ImportLines{SupplierID: supplierID}
	var report ImportReport
	used := make(map[string]bool)
	for n, row := range rows {
		lineID, found := byProduct[strings.TrimSpace(row.ProductID)]
		if !found {
			lineID, found = byName[row.Name]
		}
		switch {
		case !found:
			report.Unmatched = append(report.Unmatched, RowError{Row: n + 1, Reason: "no matching line"})
		case used[lineID]:
			report.Unmatched = append(report.Unmatched, RowError{Row: n + 1, Reason: "line already imported"})
		default:
			used[lineID] = true
			plan.Updates = append(plan.Updates, LineUpdate{LineID: lineID, Row: row})
		}
	}
	report.Matched = len(plan.Updates)
	return plan, report, nil
}
