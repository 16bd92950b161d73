package quotation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const legacyRecord = `{
  "cotacao": {"id": "q9", "numero": "COT-9", "status": "renegociacao", "rodada": 2, "versao": 4},
  "produtos": [{"id": "p1", "nome": "Cimento CP-II", "qtde": 40, "un": "sc"}],
  "fornecedores": [{
    "id": "f1", "nome": "Depósito Central", "prazo_pagamento": "28 dias", "tipo_frete": "CIF", "valor_frete": 60,
    "produtos": [{"id": "l1", "produto_id": "p1", "nome": "Cimento CP-II", "qtde": 40, "un": "sc",
      "valor_unitario": 32, "primeiro_valor": 35, "valor_anterior": 33, "difal": 0, "ipi": 0,
      "prazo_entrega": "5 dias", "data_entrega_fn": "", "total": 0}]
  }]
}`

func TestFromRecordSeedsHistory(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(legacyRecord), &rec))

	d, err := FromRecord(rec)
	require.NoError(t, err)
	require.Equal(t, StatusRenegotiation, d.Header().Status)
	require.Equal(t, 2, d.Header().Round)

	line, ok := d.Line(LineKey{SupplierID: "f1", LineID: "l1"})
	require.True(t, ok)
	require.Equal(t, 35.0, line.FirstUnitPrice())
	require.Equal(t, 33.0, line.PreviousUnitPrice())
	// Total is recomputed with freight on load.
	require.InDelta(t, 40*32+60, line.Total, 1e-9)

	out := d.ToRecord()
	l := out.Suppliers[0].Lines[0]
	require.Equal(t, 35.0, l.FirstPrice)
	require.Equal(t, 33.0, l.PreviousPrice)
	require.NotNil(t, l.History)
}

func TestRecordRoundTripKeepsHistory(t *testing.T) {
	d := newTestDraft(t)
	key := keyOf(t, d, "a", "p1")
	d, err := d.ApplyAll([]Edit{
		SetUnitPrice{Key: key, Value: "10"},
		SetUnitPrice{Key: key, Value: "12"},
		SetUnitPrice{Key: key, Value: "11"},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(d.ToRecord())
	require.NoError(t, err)
	var rec Record
	require.NoError(t, json.Unmarshal(raw, &rec))
	back, err := FromRecord(rec)
	require.NoError(t, err)

	line, _ := back.Line(key)
	require.Equal(t, 3, line.History.Len())
	require.Equal(t, 10.0, line.FirstUnitPrice())
	require.Equal(t, 12.0, line.PreviousUnitPrice())
	require.Equal(t, d.Suppliers(), back.Suppliers())
}

func TestFromRecordRejectsUnknownStatus(t *testing.T) {
	_, err := FromRecord(Record{Header: Header{ID: "x", Status: "rascunho"}})
	require.ErrorIs(t, err, ErrValidation)

	_, err = FromRecord(Record{
		Header:    Header{ID: "x"},
		Suppliers: []SupplierRecord{{ID: "a"}, {ID: "a"}},
	})
	require.ErrorIs(t, err, ErrDuplicateSupplier)
}

func TestProductsFromInput(t *testing.T) {
	n := 0
	newID := func() string { n++; return "gen" }
	products, err := productsFromInput([]ProductInput{{Name: " Areia ", Quantity: 2, Unit: " m3 "}}, newID)
	require.NoError(t, err)
	require.Equal(t, "gen", products[0].ID)
	require.Equal(t, "Areia", products[0].Name)
	require.Equal(t, "m3", products[0].Unit)

	_, err = productsFromInput([]ProductInput{{ID: "a", Name: "x"}, {ID: "a", Name: "y"}}, newID)
	require.ErrorIs(t, err, ErrValidation)
	_, err = productsFromInput([]ProductInput{{Name: ""}}, newID)
	require.ErrorIs(t, err, ErrValidation)
}
