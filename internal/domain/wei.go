package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

var weiPerEth = decimal.New(1, 18)

// ParseEth converts a user-entered decimal ETH string ("2.2") to wei.
// Precision beyond 18 decimals is rejected rather than silently truncated.
func ParseEth(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %q", s)
	}
	wei := d.Mul(weiPerEth)
	if !wei.Equal(wei.Truncate(0)) {
		return nil, fmt.Errorf("amount %q has sub-wei precision", s)
	}
	return wei.BigInt(), nil
}

// FormatWei renders a wei amount as a decimal ETH string for API payloads.
func FormatWei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, 0).Div(weiPerEth).String()
}

// ParseWei parses a decimal wei string as stored in MySQL. Empty strings map
// to nil (no amount).
func ParseWei(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei amount %q", s)
	}
	return v, nil
}
