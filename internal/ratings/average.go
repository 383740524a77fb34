package ratings

import "github.com/shopspring/decimal"

// RunningAverage folds one more rating into an average over count ratings and
// rounds half up to one decimal.
func RunningAverage(current float64, count int, rating int) (float64, int) {
	next := count + 1
	sum := decimal.NewFromFloat(current).
		Mul(decimal.NewFromInt(int64(count))).
		Add(decimal.NewFromInt(int64(rating)))
	avg := sum.DivRound(decimal.NewFromInt(int64(next)), 8).Round(1)
	return avg.InexactFloat64(), next
}
