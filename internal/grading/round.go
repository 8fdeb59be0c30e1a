package grading

import (
	"math"
	"strconv"
)

// Round rounds x to the given number of decimals, ties away from zero. The
// 0.001 nudge absorbs binary representation error so 0.285 rounds to 0.29
// and not 0.28.
func Round(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	p := math.Pow(10, float64(decimals))
	sign := 1.0
	if x < 0 {
		sign = -1
	}
	r := math.Round(x*p+sign*0.001) / p
	v, err := strconv.ParseFloat(strconv.FormatFloat(r, 'f', decimals, 64), 64)
	if err != nil || v == 0 {
		return 0
	}
	return v
}

func round2(x float64) float64 { return Round(x, 2) }

// percent is round2(part/whole*100), or 0 for an empty whole.
func percent(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return round2(part / whole * 100)
}
