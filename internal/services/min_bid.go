package services

import (
	"math/big"
)

var pctBase = big.NewInt(100)

// MinimumBid computes the lowest acceptable bid:
// max(reservePrice, highestBid * (100 + incrementPct) / 100), with floor
// division on the percentage step. A nil highest bid means the auction has no
// bids yet and the reserve price alone applies.
func MinimumBid(reservePrice, highestBid *big.Int, incrementPct uint8) *big.Int {
	if reservePrice == nil {
		reservePrice = big.NewInt(0)
	}
	if highestBid == nil || highestBid.Sign() == 0 {
		return new(big.Int).Set(reservePrice)
	}

	raised := new(big.Int).Mul(highestBid, big.NewInt(int64(100+uint16(incrementPct))))
	raised.Div(raised, pctBase)

	if raised.Cmp(reservePrice) < 0 {
		return new(big.Int).Set(reservePrice)
	}
	return raised
}

// IsEligible reports whether amount meets the minimum. Ineligibility is not an
// error; the submit path simply refuses to proceed.
func IsEligible(amount, minimum *big.Int) bool {
	if amount == nil {
		return false
	}
	return amount.Cmp(minimum) >= 0
}
