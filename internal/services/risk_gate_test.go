package services

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRiskGate_Threshold(t *testing.T) {
	gate := NewRiskGate()

	// minimum bid 2.2 ETH, no average -> threshold 11 ETH
	reference := new(big.Int).Add(eth("2"), new(big.Int).Div(eth("2"), big.NewInt(10)))
	threshold := gate.Threshold(reference)
	require.Zero(t, eth("11").Cmp(threshold))

	require.Nil(t, gate.Threshold(nil))
}

func TestRiskGate_Exceeds(t *testing.T) {
	gate := NewRiskGate()
	minBid := new(big.Int).Add(eth("2"), new(big.Int).Div(eth("2"), big.NewInt(10))) // 2.2

	tests := []struct {
		name      string
		amount    *big.Int
		reference *big.Int
		expected  bool
	}{
		{name: "above_threshold", amount: eth("12"), reference: minBid, expected: true},
		{name: "below_threshold", amount: eth("10"), reference: minBid, expected: false},
		{name: "exactly_threshold", amount: eth("11"), reference: minBid, expected: false},
		{name: "average_reference", amount: eth("6"), reference: eth("1"), expected: true},
		{name: "nil_reference", amount: eth("100"), reference: nil, expected: false},
		{name: "nil_amount", amount: nil, reference: minBid, expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, gate.Exceeds(tc.amount, tc.reference))
		})
	}
}
