package quotation

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/cotacao/internal/pricing"
)

func TestGenerateComparisonWorkbook(t *testing.T) {
	d := newTestDraft(t)
	d, err := d.ApplyAll([]Edit{
		SetUnitPrice{Key: keyOf(t, d, "a", "p1"), Value: "10"},
		SetUnitPrice{Key: keyOf(t, d, "b", "p1"), Value: "12"},
		SetUnitPrice{Key: keyOf(t, d, "b", "p2"), Value: "4"},
		SetFreight{SupplierID: "b", Value: "10"},
	})
	require.NoError(t, err)
	view := NewComparisonView(d.Header(), d.Comparison(pricing.Options{}))

	data, err := GenerateComparisonWorkbook(view)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	require.Equal(t, []string{"Mapa", "Comparativo", "Resumo"}, f.GetSheetList())

	header, err := f.GetCellValue("Mapa", "A1")
	require.NoError(t, err)
	require.Equal(t, "Fornecedor", header)
	rows, err := f.GetRows("Mapa")
	require.NoError(t, err)
	// Header, two lines plus a total row per supplier.
	require.Len(t, rows, 1+3+3)
	require.Equal(t, "Alfa", rows[1][0])
	require.Equal(t, "Total fornecedor", rows[3][1])

	raw := excelize.Options{RawCellValue: true}
	supplier, err := f.GetCellValue("Comparativo", "C1")
	require.NoError(t, err)
	require.Equal(t, "Beta", supplier)
	product, err := f.GetCellValue("Comparativo", "A2")
	require.NoError(t, err)
	require.Equal(t, "Tinta acrílica", product)
	alfa, err := f.GetCellValue("Comparativo", "B2", raw)
	require.NoError(t, err)
	require.Equal(t, "10", alfa)
	unpriced, err := f.GetCellValue("Comparativo", "B3", raw)
	require.NoError(t, err)
	require.Empty(t, unpriced)
	betaCost, ok := view.OfferCost("b", "p2")
	require.True(t, ok)
	require.Greater(t, betaCost, 4.0)
	_, ok = view.OfferCost("a", "p2")
	require.False(t, ok)

	winner, err := f.GetCellValue("Resumo", "D4")
	require.NoError(t, err)
	require.Equal(t, "Alfa", winner)
	title, err := f.GetCellValue("Resumo", "A1")
	require.NoError(t, err)
	require.Contains(t, title, "COT-1")
}

func TestFormatBRL(t *testing.T) {
	require.Equal(t, "R$ 200,00", formatBRL(200))
	require.Equal(t, "R$ 0,50", formatBRL(0.5))
}
