package services

import "github.com/shopspring/decimal"

// giftAidRate is the basic-rate fraction a charity can reclaim on the amount
// by which a winning bid exceeds the item's market value.
var giftAidRate = decimal.NewFromFloat(0.25)

// EstimateGiftAid computes the advisory Gift Aid uplift for a bid. The
// estimate is zero unless the bid exceeds a positive market value; otherwise
// it is 25% of the excess, rounded to pennies. Authoritative claim recording
// (declaration capture, eligibility) lives outside the engine.
func EstimateGiftAid(bidAmount, marketValue float64) float64 {
	if marketValue <= 0 || bidAmount <= marketValue {
		return 0
	}

	estimate := decimal.NewFromFloat(bidAmount).
		Sub(decimal.NewFromFloat(marketValue)).
		Mul(giftAidRate).
		Round(2)

	result, _ := estimate.Float64()
	return result
}
