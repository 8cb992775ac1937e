package marketdata

import (
	"github.com/shopspring/decimal"
)

// takerFeeBps is a flat taker fee rate, expressed in basis points. The
// matching engine itself never computes fees (spec §4.4: "no floating-point
// arithmetic on the hot path; fees (decimal) are computed post-trade by a
// downstream consumer"); this is that consumer.
const takerFeeBps = 10 // 0.10%

// ComputeFee returns the decimal fee owed on an execution of the given
// price (ticks) and quantity (units), formatted as a string for storage on
// common.Execution.Fee. Using shopspring/decimal keeps monetary rounding
// off the integer-only matching hot path entirely.
func ComputeFee(price int64, quantity uint64) string {
	notional := decimal.NewFromInt(price).Mul(decimal.NewFromInt(int64(quantity)))
	fee := notional.Mul(decimal.NewFromInt(takerFeeBps)).Div(decimal.NewFromInt(10000))
	return fee.StringFixed(8)
}
