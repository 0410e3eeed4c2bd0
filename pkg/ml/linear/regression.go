package linear

// Line is a first-degree polynomial fitted by ordinary least squares.
type Line struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// FitLine fits y = slope*x + intercept over the given points. A degenerate
// x series (no variance) yields a flat line through the mean of y.
func FitLine(xs, ys []float64) Line {
	n := len(xs)
	if n == 0 || len(ys) != n {
		return Line{}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}

	denom := float64(n)*sumXX - sumX*sumX
	if denom == 0 {
		return Line{Intercept: sumY / float64(n)}
	}

	slope := (float64(n)*sumXY - sumX*sumY) / denom
	return Line{
		Slope:     slope,
		Intercept: (sumY - slope*sumX) / float64(n),
	}
}

// FitIndexed fits over implicit x positions 0..n-1, the form trend analysis
// uses when observation spacing does not matter.
func FitIndexed(ys []float64) Line {
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	return FitLine(xs, ys)
}

// At evaluates the fitted line at x.
func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}
