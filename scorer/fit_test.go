package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitCurveExactQuadratic(t *testing.T) {
	weeks := Weeks()
	scores := make([]float64, len(weeks))
	for i, x := range weeks {
		scores[i] = 3 + 2*x + 0.5*x*x
	}

	c, err := FitCurve(weeks, scores)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, c.Coefficients[0], 1e-9)
	assert.InDelta(t, 2.0, c.Coefficients[1], 1e-9)
	assert.InDelta(t, 0.5, c.Coefficients[2], 1e-9)

	for i, x := range weeks {
		assert.InDelta(t, scores[i], c.Predict(x), 1e-9)
	}
	assert.InDelta(t, 2+2*0.5*5, c.Slope(5), 1e-9)
}

func TestFitCurveLeastSquaresResiduals(t *testing.T) {
	tests := [][]float64{
		{40, 45, 55, 70, 85},
		{70, 71, 69, 72, 70},
		{0, 100, 0, 100, 0},
		{0, 0, 0, 0, 0},
	}

	for _, scores := range tests {
		c, err := FitCurve(Weeks(), scores)
		require.NoError(t, err)

		// Normal equations: residuals are orthogonal to every basis column.
		var r0, r1, r2 float64
		for i, r := range c.Residuals() {
			x := c.Weeks[i]
			r0 += r
			r1 += r * x
			r2 += r * x * x
		}
		assert.InDelta(t, 0, r0, 1e-8, "scores %v", scores)
		assert.InDelta(t, 0, r1, 1e-8, "scores %v", scores)
		assert.InDelta(t, 0, r2, 1e-8, "scores %v", scores)
	}
}

func TestFitCurveKnownCoefficients(t *testing.T) {
	c, err := FitCurve(Weeks(), []float64{40, 45, 55, 70, 85})
	require.NoError(t, err)
	// Centered at week 3: linear term 11.5, quadratic 25/14.
	assert.InDelta(t, 25.0/14.0, c.Coefficients[2], 1e-9)
	assert.InDelta(t, 11.5+2*(25.0/14.0)*2, c.Slope(5), 1e-9)
}

func TestFitCurveErrors(t *testing.T) {
	_, err := FitCurve([]float64{1, 2, 3}, []float64{1, 2})
	assert.Error(t, err)

	_, err = FitCurve([]float64{1, 2}, []float64{1, 2})
	assert.Error(t, err)
}

func TestCurveSample(t *testing.T) {
	c, err := FitCurve(Weeks(), []float64{10, 20, 30, 40, 50})
	require.NoError(t, err)

	pts := c.Sample(DefaultSamples)
	require.Len(t, pts, DefaultSamples)
	assert.Equal(t, 1.0, pts[0].X)
	assert.Equal(t, 5.0, pts[len(pts)-1].X)
	for i := 1; i < len(pts); i++ {
		assert.Greater(t, pts[i].X, pts[i-1].X)
	}
	assert.InDelta(t, 50, pts[len(pts)-1].Y, 1e-9)

	assert.Len(t, c.Sample(0), 2)
}
