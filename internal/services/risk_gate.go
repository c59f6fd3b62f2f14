package services

import (
	"math/big"
)

const defaultRiskMultiplier = 5

// RiskGate flags anomalously large bids. The reference value is the historical
// average winning bid when one exists, otherwise the computed minimum bid; a
// bid above multiplier x reference needs explicit confirmation before it is
// submitted.
type RiskGate struct {
	multiplier int64
}

func NewRiskGate() *RiskGate {
	return &RiskGate{multiplier: defaultRiskMultiplier}
}

// Threshold returns multiplier x reference.
func (g *RiskGate) Threshold(reference *big.Int) *big.Int {
	if reference == nil {
		return nil
	}
	return new(big.Int).Mul(reference, big.NewInt(g.multiplier))
}

// Exceeds reports whether amount is strictly above the threshold for the
// given reference. Amounts equal to the threshold submit without a warning.
func (g *RiskGate) Exceeds(amount, reference *big.Int) bool {
	threshold := g.Threshold(reference)
	if threshold == nil || amount == nil {
		return false
	}
	return amount.Cmp(threshold) > 0
}
