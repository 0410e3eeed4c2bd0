package linear

import (
	"math"
	"testing"
)

func TestFitLineExact(t *testing.T) {
	line := FitLine([]float64{0, 1, 2}, []float64{1, 3, 5})
	if math.Abs(line.Slope-2) > 1e-12 {
		t.Fatalf("expected slope 2, got %g", line.Slope)
	}
	if math.Abs(line.Intercept-1) > 1e-12 {
		t.Fatalf("expected intercept 1, got %g", line.Intercept)
	}
	if got := line.At(10); math.Abs(got-21) > 1e-12 {
		t.Fatalf("expected 21 at x=10, got %g", got)
	}
}

func TestFitLineNoisy(t *testing.T) {
	// Least squares over y = 2x with one point nudged off the line still
	// slopes upward.
	line := FitLine([]float64{0, 1, 2, 3}, []float64{0, 2, 4.5, 6})
	if line.Slope <= 1.9 || line.Slope >= 2.2 {
		t.Fatalf("expected slope near 2, got %g", line.Slope)
	}
}

func TestFitLineDegenerateX(t *testing.T) {
	line := FitLine([]float64{5, 5, 5}, []float64{1, 2, 3})
	if line.Slope != 0 {
		t.Fatalf("expected flat line, got slope %g", line.Slope)
	}
	if math.Abs(line.Intercept-2) > 1e-12 {
		t.Fatalf("expected intercept at mean 2, got %g", line.Intercept)
	}
}

func TestFitLineEmpty(t *testing.T) {
	line := FitLine(nil, nil)
	if line.Slope != 0 || line.Intercept != 0 {
		t.Fatalf("expected zero line, got %+v", line)
	}
}

func TestFitIndexed(t *testing.T) {
	line := FitIndexed([]float64{10, 20, 30})
	if math.Abs(line.Slope-10) > 1e-12 {
		t.Fatalf("expected slope 10, got %g", line.Slope)
	}
}
