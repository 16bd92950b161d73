package pricing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	cases := map[string]string{
		"10":          "10",
		"1234.56":     "1234.56",
		"1.234,56":    "1234.56",
		"R$ 1.234,56": "1234.56",
		"1,234.56":    "1234.56",
		"3,5":         "3.5",
		"1.234.567":   "1234567",
		"-2,00":       "-2",
		" 7 ":         "7",
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got.String(), in)
	}
}

func TestParseMoneyErrors(t *testing.T) {
	_, err := ParseMoney("  ")
	require.True(t, errors.Is(err, ErrEmptyMoney))

	_, err = ParseMoney("dez reais")
	require.True(t, errors.Is(err, ErrInvalidMoney))
}

func TestCoerceMoneyIsPermissive(t *testing.T) {
	require.Zero(t, CoerceMoney(""))
	require.Zero(t, CoerceMoney("n/a"))
	require.Equal(t, 12.5, CoerceMoney("12,50"))
}

func TestAmountUnmarshal(t *testing.T) {
	var payload struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.5, "b": "1.000,10", "c": null}`), &payload))
	require.Equal(t, 12.5, payload.A.Float())
	require.Equal(t, 1000.1, payload.B.Float())
	require.True(t, payload.C.IsBlank())
}
