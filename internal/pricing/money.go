package pricing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyMoney indicates a blank monetary input.
	ErrEmptyMoney = errors.New("pricing: empty amount")
	// ErrInvalidMoney indicates a monetary input that is not a number.
	ErrInvalidMoney = errors.New("pricing: invalid amount")
)

// ParseMoney parses a user supplied amount. Both "1234.56" and the pt-BR
// "1.234,56" forms are accepted, with an optional "R$" prefix.
func ParseMoney(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "R$")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ErrEmptyMoney
	}
	s = normalizeSeparators(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidMoney, raw)
	}
	return d, nil
}

// normalizeSeparators rewrites the input so that '.' is the only decimal separator.
func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.Replace(s, ",", ".", 1)
	case strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// CoerceMoney is the permissive form of ParseMoney: anything that does not
// parse becomes 0 so the draft always stays computable.
func CoerceMoney(raw string) float64 {
	d, err := ParseMoney(raw)
	if err != nil {
		return 0
	}
	return finite(d.InexactFloat64())
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Amount is a raw monetary or quantity input as received from a form, an
// import row or a JSON body. It accepts JSON numbers, strings and null.
type Amount string

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	*a = Amount(data)
	return nil
}

// AmountOf formats a float as an Amount.
func AmountOf(v float64) Amount {
	return Amount(decimal.NewFromFloat(v).String())
}

// Float returns the coerced value of the amount.
func (a Amount) Float() float64 {
	return CoerceMoney(string(a))
}

// Parse returns the strictly parsed value of the amount.
func (a Amount) Parse() (decimal.Decimal, error) {
	return ParseMoney(string(a))
}

// IsBlank reports whether the amount carries no input at all.
func (a Amount) IsBlank() bool {
	return strings.TrimSpace(string(a)) == ""
}
