package quotation

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	sheetMap     = "Mapa"
	sheetMatrix  = "Comparativo"
	sheetSummary = "Resumo"
)

var brl = message.NewPrinter(language.BrazilianPortuguese)

// formatBRL renders an amount the way buyers read it, e.g. "R$ 1.234,50".
func formatBRL(v float64) string {
	return "R$ " + brl.Sprintf("%.2f", v)
}

var mapHeader = []any{
	"Fornecedor", "Produto", "Qtde", "Valor unitário", "Custo c/ impostos",
	"Rateio frete", "Frete unitário", "Custo final unitário", "Total",
}

var summaryHeader = []any{
	"Produto", "Qtde", "Un", "Vencedor", "Valor unitário", "Primeiro valor",
	"Custo final unitário", "Total", "Economia",
}

// GenerateComparisonWorkbook renders the comparison as an xlsx workbook with
// the supplier cost map and the best-price summary.
func GenerateComparisonWorkbook(view ComparisonView) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetMap); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	for _, name := range []string{sheetMatrix, sheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("new sheet: %w", err)
		}
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("create money style: %w", err)
	}

	if err := writeMapSheet(f, view, headerStyle, moneyStyle); err != nil {
		return nil, err
	}
	if err := writeMatrixSheet(f, view, headerStyle, moneyStyle); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, view, headerStyle, moneyStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeMapSheet(f *excelize.File, view ComparisonView, headerStyle, moneyStyle int) error {
	if err := setRow(f, sheetMap, 1, mapHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetMap, "A1", "I1", headerStyle); err != nil {
		return fmt.Errorf("style map header: %w", err)
	}
	row := 2
	for _, s := range view.Suppliers {
		for _, l := range s.Lines {
			values := []any{s.Name, l.Name, l.Quantity, l.UnitPrice, l.LandedUnitCost, l.FreightShare, l.FreightPerUnit, l.FinalUnitCost, l.Total}
			if err := setRow(f, sheetMap, row, values); err != nil {
				return err
			}
			row++
		}
		if err := setRow(f, sheetMap, row, []any{s.Name, "Total fornecedor", nil, nil, nil, s.Freight, nil, nil, s.Total}); err != nil {
			return err
		}
		row++
	}
	if row > 2 {
		if err := f.SetCellStyle(sheetMap, "D2", fmt.Sprintf("I%d", row-1), moneyStyle); err != nil {
			return fmt.Errorf("style map values: %w", err)
		}
	}
	return f.SetColWidth(sheetMap, "A", "B", 32)
}

// writeMatrixSheet lays products out against suppliers, one final unit cost
// per cell. Products a supplier did not price stay blank.
func writeMatrixSheet(f *excelize.File, view ComparisonView, headerStyle, moneyStyle int) error {
	header := []any{"Produto"}
	for _, s := range view.Suppliers {
		header = append(header, s.Name)
	}
	if err := setRow(f, sheetMatrix, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetMatrix, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style matrix header: %w", err)
	}

	type product struct{ id, name string }
	var products []product
	seen := map[string]bool{}
	for _, s := range view.Suppliers {
		for _, l := range s.Lines {
			if l.ProductID == "" || seen[l.ProductID] {
				continue
			}
			seen[l.ProductID] = true
			products = append(products, product{id: l.ProductID, name: l.Name})
		}
	}

	for i, p := range products {
		values := []any{p.name}
		for _, s := range view.Suppliers {
			if cost, ok := view.OfferCost(s.ID, p.id); ok {
				values = append(values, cost)
			} else {
				values = append(values, nil)
			}
		}
		if err := setRow(f, sheetMatrix, i+2, values); err != nil {
			return err
		}
	}
	if len(products) > 0 && len(view.Suppliers) > 0 {
		end, err := excelize.CoordinatesToCellName(len(header), len(products)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetMatrix, "B2", end, moneyStyle); err != nil {
			return fmt.Errorf("style matrix values: %w", err)
		}
	}
	return f.SetColWidth(sheetMatrix, "A", "A", 32)
}

func writeSummarySheet(f *excelize.File, view ComparisonView, headerStyle, moneyStyle int) error {
	title := fmt.Sprintf("Cotação %s (rodada %d, %s)", view.Number, view.Round, view.Status)
	if err := f.SetCellValue(sheetSummary, "A1", title); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	if err := setRow(f, sheetSummary, 3, summaryHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSummary, "A3", "I3", headerStyle); err != nil {
		return fmt.Errorf("style summary header: %w", err)
	}
	row := 4
	for _, b := range view.BestPrices {
		values := []any{b.ProductName, b.Quantity, b.Unit, b.SupplierName, b.UnitPrice, b.FirstPrice, b.FinalUnitCost, b.LineTotal, b.Economy}
		if err := setRow(f, sheetSummary, row, values); err != nil {
			return err
		}
		row++
	}
	if row > 4 {
		if err := f.SetCellStyle(sheetSummary, "E4", fmt.Sprintf("I%d", row-1), moneyStyle); err != nil {
			return fmt.Errorf("style summary values: %w", err)
		}
	}
	row++
	footer := [][]any{
		{"Produtos", view.Savings.TotalProducts},
		{"Com vencedor", view.Savings.ProductsWithWinner},
		{"Economia total", formatBRL(view.Savings.TotalEconomy)},
	}
	for _, values := range footer {
		if err := setRow(f, sheetSummary, row, values); err != nil {
			return err
		}
		row++
	}
	return f.SetColWidth(sheetSummary, "A", "A", 32)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
