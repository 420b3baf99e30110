package scorer

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"progress-server-go/models"
)

const degree = 2

// DefaultSamples matches the density of the plotted trend line.
const DefaultSamples = 100

// Curve is a degree-2 polynomial fitted to (week, score) pairs.
type Curve struct {
	// Coefficients holds the intercept, linear and quadratic terms.
	Coefficients [degree + 1]float64
	Weeks        []float64
	Scores       []float64
}

// Weeks returns the fixed week indices 1..WeekCount.
func Weeks() []float64 {
	w := make([]float64, models.WeekCount)
	for i := range w {
		w[i] = float64(i + 1)
	}
	return w
}

// FitCurve fits scores against weeks by ordinary least squares on {1, x, x²}.
func FitCurve(weeks, scores []float64) (*Curve, error) {
	if len(weeks) != len(scores) {
		return nil, fmt.Errorf("fit curve: %d weeks but %d scores", len(weeks), len(scores))
	}
	if len(weeks) < degree+1 {
		return nil, fmt.Errorf("fit curve: need at least %d points, got %d", degree+1, len(weeks))
	}

	X := mat.NewDense(len(weeks), degree+1, nil)
	for i, x := range weeks {
		X.Set(i, 0, 1)
		X.Set(i, 1, x)
		X.Set(i, 2, x*x)
	}
	Y := mat.NewVecDense(len(scores), append([]float64(nil), scores...))

	var coef mat.VecDense
	if err := coef.SolveVec(X, Y); err != nil {
		return nil, fmt.Errorf("fit curve: %w", err)
	}

	c := &Curve{
		Weeks:  append([]float64(nil), weeks...),
		Scores: append([]float64(nil), scores...),
	}
	for i := range c.Coefficients {
		c.Coefficients[i] = coef.AtVec(i)
	}
	return c, nil
}

// Predict evaluates the curve at x.
func (c *Curve) Predict(x float64) float64 {
	return c.Coefficients[0] + c.Coefficients[1]*x + c.Coefficients[2]*x*x
}

// Slope is the first derivative of the curve at x.
func (c *Curve) Slope(x float64) float64 {
	return c.Coefficients[1] + 2*c.Coefficients[2]*x
}

// Residuals returns observed minus predicted score for every training point.
func (c *Curve) Residuals() []float64 {
	out := make([]float64, len(c.Weeks))
	for i, x := range c.Weeks {
		out[i] = c.Scores[i] - c.Predict(x)
	}
	return out
}

// LastWeek is the largest week index the curve was fitted on.
func (c *Curve) LastWeek() float64 {
	last := c.Weeks[0]
	for _, w := range c.Weeks[1:] {
		if w > last {
			last = w
		}
	}
	return last
}

func (c *Curve) firstWeek() float64 {
	first := c.Weeks[0]
	for _, w := range c.Weeks[1:] {
		if w < first {
			first = w
		}
	}
	return first
}

// Sample returns n evenly spaced points of the curve over the fitted week range.
func (c *Curve) Sample(n int) []models.Point {
	if n < 2 {
		n = 2
	}
	lo, hi := c.firstWeek(), c.LastWeek()
	step := (hi - lo) / float64(n-1)
	pts := make([]models.Point, n)
	for i := range pts {
		x := lo + step*float64(i)
		if i == n-1 {
			x = hi
		}
		pts[i] = models.Point{X: x, Y: c.Predict(x)}
	}
	return pts
}
