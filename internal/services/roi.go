package services

import "github.com/shopspring/decimal"

// LedgerPrecision is the number of fractional digits carried by every ledger
// field. All amounts are rounded (half away from zero) to this precision
// before being written.
const LedgerPrecision = 4

var (
	roiThreshold = decimal.NewFromInt(2000)
	roiRateLow   = decimal.NewFromFloat(0.001)
	roiRateHigh  = decimal.NewFromFloat(0.002)
)

// ComputeROI returns the daily return for an investment principal:
// 0.1% up to 2000, 0.2% above.
func ComputeROI(principal decimal.Decimal) decimal.Decimal {
	rate := roiRateHigh
	if principal.LessThanOrEqual(roiThreshold) {
		rate = roiRateLow
	}
	return principal.Mul(rate).Round(LedgerPrecision)
}
