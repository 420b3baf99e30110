package scorer

import (
	"errors"
	"fmt"
	"math"

	"progress-server-go/models"
)

// ErrInvalidPolicy is wrapped by every Policy.Validate failure.
var ErrInvalidPolicy = errors.New("invalid policy")

// Signal selects the number a policy classifies on.
type Signal string

const (
	// SignalSlope is the fitted curve's slope at the last observed week.
	SignalSlope Signal = "slope"
	// SignalGrowth is the last weekly score minus the first.
	SignalGrowth Signal = "growth"
)

// Policy names
const (
	PolicySlope  = "slope"
	PolicyGrowth = "growth"
)

// Category labels shared by the built-in policies
const (
	CategoryHighConsistent = "High Consistent Performance"
	CategoryHigh           = "High Improvement"
	CategoryModerate       = "Moderate Improvement"
	CategoryLow            = "Low Improvement"
)

// Band maps a range of the signal to a category.
// A band with a nil Min matches anything and must come last.
type Band struct {
	Category string   `yaml:"category" json:"category"`
	Color    string   `yaml:"color" json:"color"`
	Reasons  []string `yaml:"reasons" json:"reasons"`
	Min      *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	// Exclusive makes Min a strict lower bound.
	Exclusive bool `yaml:"exclusive,omitempty" json:"exclusive,omitempty"`
}

// Matches reports whether signal falls in the band.
func (b Band) Matches(signal float64) bool {
	switch {
	case b.Min == nil:
		return true
	case b.Exclusive:
		return signal > *b.Min
	default:
		return signal >= *b.Min
	}
}

// ConsistencyRule short-circuits the bands for students already scoring
// high with no change between the first and last week.
type ConsistencyRule struct {
	MinAverage float64  `yaml:"min_average" json:"minAverage"`
	Category   string   `yaml:"category" json:"category"`
	Color      string   `yaml:"color" json:"color"`
	Reasons    []string `yaml:"reasons" json:"reasons"`
}

// IndicatorRule produces one reason sentence from an academic indicator.
type IndicatorRule struct {
	Indicator string  `yaml:"indicator" json:"indicator"`
	Min       float64 `yaml:"min" json:"min"`
	Met       string  `yaml:"met" json:"met"`
	Unmet     string  `yaml:"unmet" json:"unmet"`
}

// Policy is the threshold table used by Classify.
type Policy struct {
	Name        string           `yaml:"name" json:"name"`
	Signal      Signal           `yaml:"signal" json:"signal"`
	MetricLabel string           `yaml:"metric_label" json:"metricLabel"`
	Consistency *ConsistencyRule `yaml:"consistency,omitempty" json:"consistency,omitempty"`
	Bands       []Band           `yaml:"bands" json:"bands"`
	Indicators  []IndicatorRule  `yaml:"indicators" json:"indicators"`
}

func bound(v float64) *float64 { return &v }

// DefaultIndicators are the four academic input checks.
func DefaultIndicators() []IndicatorRule {
	return []IndicatorRule{
		{models.IndicatorSemester, 75, "Good overall semester performance", "Semester performance needs improvement"},
		{models.IndicatorAttendance, 85, "Consistent class attendance", "Attendance inconsistency affected learning"},
		{models.IndicatorHomework, 80, "Regular homework completion", "Irregular homework practice"},
		{models.IndicatorStudyHours, 3, "Sufficient daily study hours", "Insufficient daily study time"},
	}
}

// SlopePolicy classifies on the fitted slope at the final week.
func SlopePolicy() Policy {
	return Policy{
		Name:        PolicySlope,
		Signal:      SignalSlope,
		MetricLabel: "Improvement Rate",
		Bands: []Band{
			{Category: CategoryHigh, Color: "#abe5a7", Min: bound(2.0), Exclusive: true,
				Reasons: []string{"Strong upward trend in weekly test scores"}},
			{Category: CategoryModerate, Color: "#f5d76e", Min: bound(1.0),
				Reasons: []string{"Gradual improvement with minor score fluctuations"}},
			{Category: CategoryLow, Color: "#f1a9a0",
				Reasons: []string{"Minimal score growth over weeks"}},
		},
		Indicators: DefaultIndicators(),
	}
}

// GrowthPolicy classifies on first-to-last score growth, with the
// consistent high performer special case.
func GrowthPolicy() Policy {
	return Policy{
		Name:        PolicyGrowth,
		Signal:      SignalGrowth,
		MetricLabel: "Score Growth",
		Consistency: &ConsistencyRule{
			MinAverage: 90,
			Category:   CategoryHighConsistent,
			Color:      "#007bfe",
			Reasons: []string{
				"Consistently high scores across all weeks",
				"Student has already reached an excellent performance level",
			},
		},
		Bands: []Band{
			{Category: CategoryHigh, Color: "#abe5a7", Min: bound(15),
				Reasons: []string{"Strong upward trend in weekly test scores"}},
			{Category: CategoryModerate, Color: "#6a5101", Min: bound(5),
				Reasons: []string{"Gradual improvement with minor score fluctuations"}},
			{Category: CategoryLow, Color: "#5d040c",
				Reasons: []string{"Minimal score growth over weeks"}},
		},
		Indicators: DefaultIndicators(),
	}
}

// PolicyByName returns a built-in policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", PolicySlope:
		return SlopePolicy(), nil
	case PolicyGrowth:
		return GrowthPolicy(), nil
	}
	return Policy{}, fmt.Errorf("unknown policy %q: %w", name, ErrInvalidPolicy)
}

// Validate runs consistency checks on the table.
func (p Policy) Validate() error {
	if p.Signal != SignalSlope && p.Signal != SignalGrowth {
		return fmt.Errorf("unknown signal %q: %w", p.Signal, ErrInvalidPolicy)
	}
	if len(p.Bands) == 0 {
		return fmt.Errorf("policy %q has no bands: %w", p.Name, ErrInvalidPolicy)
	}
	prev := math.Inf(1)
	for i, b := range p.Bands {
		if b.Category == "" || b.Color == "" {
			return fmt.Errorf("band %d needs a category and a color: %w", i, ErrInvalidPolicy)
		}
		last := i == len(p.Bands)-1
		if b.Min == nil {
			if !last {
				return fmt.Errorf("catch-all band %q must be last: %w", b.Category, ErrInvalidPolicy)
			}
			continue
		}
		if last {
			return fmt.Errorf("last band %q must have no lower bound: %w", b.Category, ErrInvalidPolicy)
		}
		if *b.Min >= prev {
			return fmt.Errorf("band %q bound %g is not below %g: %w", b.Category, *b.Min, prev, ErrInvalidPolicy)
		}
		prev = *b.Min
	}
	if c := p.Consistency; c != nil && (c.Category == "" || c.Color == "") {
		return fmt.Errorf("consistency rule needs a category and a color: %w", ErrInvalidPolicy)
	}
	for _, r := range p.Indicators {
		if !models.KnownIndicator(r.Indicator) {
			return fmt.Errorf("unknown indicator %q: %w", r.Indicator, ErrInvalidPolicy)
		}
	}
	return nil
}
