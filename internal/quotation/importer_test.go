package quotation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRowsFromTable(t *testing.T) {
	header := []string{"Produto_ID", " nome ", "valor_unitario", "ipi", "coluna_extra"}
	rows, errs := RowsFromTable(header, [][]string{
		{"p1", "Tinta acrílica", "R$ 1.234,50", "2", "x"},
		{"", "", "10"},
		{"", "Rolo de lã", "", ""},
	})
	require.Len(t, rows, 2)
	require.Equal(t, []RowError{{Row: 2, Reason: "produto_id or nome required"}}, errs)
	require.Equal(t, "p1", rows[0].ProductID)
	require.Equal(t, 1234.5, rows[0].UnitPrice.Float())
	require.Equal(t, 2.0, rows[0].IPI.Float())
	require.True(t, rows[1].UnitPrice.IsBlank())
}

func TestPlanImportMatchesByIdThenName(t *testing.T) {
	d := newTestDraft(t)
	plan, report, err := PlanImport(d, "a", []ImportRow{
		{Name: "Rolo de lã", UnitPrice: "8"},
		{ProductID: "p1", Name: "nome diferente", UnitPrice: "50"},
		{ProductID: "p1", UnitPrice: "49"},
		{Name: "Pincel", UnitPrice: "3"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, report.Matched)
	require.Equal(t, []RowError{
		{Row: 3, Reason: "line already imported"},
		{Row: 4, Reason: "no matching line"},
	}, report.Unmatched)

	require.Equal(t, keyOf(t, d, "a", "p2").LineID, plan.Updates[0].LineID)
	require.Equal(t, keyOf(t, d, "a", "p1").LineID, plan.Updates[1].LineID)

	_, _, err = PlanImport(d, "zzz", nil)
	require.ErrorIs(t, err, ErrSupplierNotFound)
}

func TestImportBlankCellsKeepLine(t *testing.T) {
	d := newTestDraft(t)
	key := keyOf(t, d, "a", "p1")
	d, err := d.ApplyAll([]Edit{
		SetUnitPrice{Key: key, Value: "10"},
		SetDifal{Key: key, Value: "5"},
	})
	require.NoError(t, err)

	plan, _, err := PlanImport(d, "a", []ImportRow{{ProductID: "p1", IPI: "1"}})
	require.NoError(t, err)
	d, err = d.Apply(plan)
	require.NoError(t, err)

	line, _ := d.Line(key)
	require.Equal(t, 10.0, line.UnitPrice)
	require.Equal(t, 5.0, line.DifalPercent)
	require.Equal(t, 1.0, line.IPIAmount)
	require.Equal(t, 10.0, line.FirstUnitPrice())
}

func TestImportOverridesLineage(t *testing.T) {
	d := newTestDraft(t)
	key := keyOf(t, d, "a", "p1")
	d, err := d.Apply(SetUnitPrice{Key: key, Value: "10"})
	require.NoError(t, err)

	plan, _, err := PlanImport(d, "a", []ImportRow{{ProductID: "p1", UnitPrice: "9", FirstPrice: "15", PrevPrice: "12"}})
	require.NoError(t, err)
	d, err = d.Apply(plan)
	require.NoError(t, err)

	line, _ := d.Line(key)
	require.Equal(t, 9.0, line.UnitPrice)
	require.Equal(t, 15.0, line.FirstUnitPrice())
	require.Equal(t, 12.0, line.PreviousUnitPrice())

	// A later edit keeps the imported first price.
	d, err = d.Apply(SetUnitPrice{Key: key, Value: "8"})
	require.NoError(t, err)
	line, _ = d.Line(key)
	require.Equal(t, 15.0, line.FirstUnitPrice())
	require.Equal(t, 9.0, line.PreviousUnitPrice())
}

func TestRowsFromPriorQuotation(t *testing.T) {
	rows := RowsFromPriorQuotation(SupplierRecord{
		ID: "a",
		Lines: []LineRecord{
			{ProductID: "p1", Name: "Tinta", Quantity: 4, UnitPrice: 11, FirstPrice: 12, PreviousPrice: 12, Difal: 4},
			{ProductID: "p2", Name: "Rolo"},
		},
	})
	require.Len(t, rows, 2)
	require.Equal(t, 11.0, rows[0].UnitPrice.Float())
	require.Equal(t, 12.0, rows[0].FirstPrice.Float())
	require.True(t, rows[0].Quantity.IsBlank())
	require.True(t, rows[1].UnitPrice.IsBlank())
	require.True(t, rows[1].FirstPrice.IsBlank())
	require.True(t, rows[1].PrevPrice.IsBlank())
}

func TestImportZeroLineageCellsAreNotOverrides(t *testing.T) {
	d := newTestDraft(t)
	key := keyOf(t, d, "a", "p1")
	d, err := d.Apply(SetUnitPrice{Key: key, Value: "10"})
	require.NoError(t, err)

	plan, _, err := PlanImport(d, "a", []ImportRow{{ProductID: "p1", UnitPrice: "12", FirstPrice: "0", PrevPrice: "0,00"}})
	require.NoError(t, err)
	d, err = d.Apply(plan)
	require.NoError(t, err)

	line, _ := d.Line(key)
	require.Equal(t, 12.0, line.UnitPrice)
	require.Equal(t, 10.0, line.FirstUnitPrice())
	require.Equal(t, 10.0, line.PreviousUnitPrice())

	plan, _, err = PlanImport(d, "a", []ImportRow{{ProductID: "p1", UnitPrice: "11", FirstPrice: "20"}})
	require.NoError(t, err)
	d, err = d.Apply(plan)
	require.NoError(t, err)

	line, _ = d.Line(key)
	require.Equal(t, 20.0, line.FirstUnitPrice())
	require.Equal(t, 12.0, line.PreviousUnitPrice())
}
