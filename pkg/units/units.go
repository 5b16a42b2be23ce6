// Package units converts native-currency amounts between the canonical
// denominations without ever going through floating point.
package units

import (
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

// Denomination is a named power-of-ten offset from wei.
type Denomination string

const (
	Wei    Denomination = "wei"
	Kwei   Denomination = "kwei"
	Mwei   Denomination = "mwei"
	Gwei   Denomination = "gwei"
	Szabo  Denomination = "szabo"
	Finney Denomination = "finney"
	Ether  Denomination = "ether"
)

// All lists every denomination from finest to coarsest.
var All = []Denomination{Wei, Kwei, Mwei, Gwei, Szabo, Finney, Ether}

var decimalPlaces = map[Denomination]int32{
	Wei:    0,
	Kwei:   3,
	Mwei:   6,
	Gwei:   9,
	Szabo:  12,
	Finney: 15,
	Ether:  18,
}

// Decimals returns the number of decimal places between d and wei.
func (d Denomination) Decimals() int32 {
	return decimalPlaces[d]
}

// Valid reports whether d is one of the seven canonical denominations.
func (d Denomination) Valid() bool {
	_, ok := decimalPlaces[d]
	return ok
}

// ParseDenomination resolves a case-insensitive name. "eth" is accepted for ether.
func ParseDenomination(name string) (Denomination, error) {
	d := Denomination(strings.ToLower(strings.TrimSpace(name)))
	if d == "eth" {
		d = Ether
	}
	if !d.Valid() {
		return "", errors.ErrInvalidUnit.WithMessagef("unknown denomination %q", name)
	}
	return d, nil
}

var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// ParseUnits converts a decimal amount expressed in d into wei.
// Fractional digits finer than wei are dropped (floor toward zero).
// The empty string is zero.
func ParseUnits(amount string, d Denomination) (*big.Int, error) {
	if !d.Valid() {
		return nil, errors.ErrInvalidUnit.WithMessagef("unknown denomination %q", string(d))
	}
	if amount == "" {
		return new(big.Int), nil
	}
	if !amountPattern.MatchString(amount) {
		return nil, errors.ErrInvalidDecimal.WithMessagef("invalid amount %q: expected digits with an optional fraction", amount)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.WrapWithCause(errors.ErrInvalidDecimal, err, "amount %q", amount)
	}
	return value.Shift(d.Decimals()).Truncate(0).BigInt(), nil
}

// FormatUnits renders wei in d. Trailing fractional zeros are stripped and an
// integral result carries no decimal point.
func FormatUnits(wei *big.Int, d Denomination) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -d.Decimals()).String()
}

// Conversion maps every denomination to the amount expressed in it.
type Conversion map[Denomination]string

// Wei returns the amount in wei as an integer.
func (c Conversion) Wei() *big.Int {
	v, ok := new(big.Int).SetString(c[Wei], 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// Convert parses amount in from and renders it in every denomination.
func Convert(amount string, from Denomination) (Conversion, error) {
	wei, err := ParseUnits(amount, from)
	if err != nil {
		return nil, err
	}

	out := make(Conversion, len(All))
	for _, d := range All {
		out[d] = FormatUnits(wei, d)
	}
	return out, nil
}
