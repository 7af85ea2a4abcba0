package analytics

import "math"

// olsFit fits y = intercept + slope*x by ordinary least squares. It
// reports ok=false for degenerate inputs (fewer than two points or zero
// variance in x) instead of dividing by zero.
func olsFit(xs, ys []float64) (slope, intercept float64, ok bool) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0, 0, false
	}
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var covXY, varX float64
	for i := range xs {
		dx := xs[i] - meanX
		covXY += dx * (ys[i] - meanY)
		varX += dx * dx
	}
	if varX == 0 {
		return 0, 0, false
	}
	slope = covXY / varX
	intercept = meanY - slope*meanX
	return slope, intercept, true
}

// pearson returns the Pearson correlation of two equal-length series, or
// 0 when it is undefined (short input, zero variance, or NaN).
func pearson(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var covXY, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		covXY += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	r := covXY / math.Sqrt(varX*varY)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
