package scorer

import (
	"math"

	"progress-server-go/models"
)

// signalPrecision is applied before band comparison so inputs that are
// exactly linear land on their boundary despite floating point noise.
const signalPrecision = 1e9

// Classification is the outcome of Classify.
type Classification struct {
	Category string
	Color    string
	Reasons  []string
	// Signal is the rounded value the bands were compared against.
	Signal       float64
	AverageScore float64
	ScoreGrowth  int
}

// Classify assigns a category to rec. It is a pure function of its inputs.
func Classify(rec models.StudentRecord, curve *Curve, p Policy) Classification {
	avg := average(rec.WeeklyScores[:])
	growth := rec.WeeklyScores[models.WeekCount-1] - rec.WeeklyScores[0]

	var signal float64
	switch p.Signal {
	case SignalGrowth:
		signal = float64(growth)
	default:
		signal = curve.Slope(curve.LastWeek())
	}
	signal = math.Round(signal*signalPrecision) / signalPrecision

	c := Classification{Signal: signal, AverageScore: avg, ScoreGrowth: growth}

	if r := p.Consistency; r != nil && avg >= r.MinAverage && growth == 0 {
		c.Category, c.Color = r.Category, r.Color
		c.Reasons = append(c.Reasons, r.Reasons...)
	} else {
		b := p.Band(signal)
		c.Category, c.Color = b.Category, b.Color
		c.Reasons = append(c.Reasons, b.Reasons...)
	}

	for _, r := range p.Indicators {
		v, _ := rec.Indicator(r.Indicator)
		if v >= r.Min {
			c.Reasons = append(c.Reasons, r.Met)
		} else {
			c.Reasons = append(c.Reasons, r.Unmet)
		}
	}
	return c
}

// Band returns the first band matching signal. A validated policy always
// has a catch-all, so the zero Band is only returned for invalid tables.
func (p Policy) Band(signal float64) Band {
	for _, b := range p.Bands {
		if b.Matches(signal) {
			return b
		}
	}
	return Band{}
}

func average(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return float64(sum) / float64(len(scores))
}
