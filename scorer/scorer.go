package scorer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"progress-server-go/models"
)

// MissingIdentityMessage is shown to the user when ErrMissingIdentity is returned.
const MissingIdentityMessage = "Please enter both Name and Roll Number"

// ErrMissingIdentity is returned when the name or roll number is blank.
var ErrMissingIdentity = errors.New("name and roll number are required")

// TimestampLayout is the "Generated On" format, dd-mm-yyyy HH:MM:SS.
const TimestampLayout = "02-01-2006 15:04:05"

// Scorer turns student records into reports. It holds only immutable
// configuration and is safe for concurrent use.
type Scorer struct {
	policy  Policy
	samples int
	now     func() time.Time
	newID   func() string
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithClock overrides the time source used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) { s.now = now }
}

// WithIDs overrides the report ID generator.
func WithIDs(newID func() string) Option {
	return func(s *Scorer) { s.newID = newID }
}

// WithSamples sets how many curve points each report carries.
func WithSamples(n int) Option {
	return func(s *Scorer) {
		if n >= 2 {
			s.samples = n
		}
	}
}

// New validates p and builds a Scorer around it.
func New(p Policy, opts ...Option) (*Scorer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	s := &Scorer{
		policy:  p,
		samples: DefaultSamples,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Policy returns the table the scorer classifies with.
func (s *Scorer) Policy() Policy {
	return s.policy
}

// Validate checks the only precondition the scorer enforces.
func Validate(rec models.StudentRecord) error {
	if strings.TrimSpace(rec.Name) == "" || strings.TrimSpace(rec.RollNo) == "" {
		return ErrMissingIdentity
	}
	return nil
}

// Analyze fits and classifies rec. Numeric ranges are the input layer's
// concern; a record with a blank identity is rejected before any fitting.
func (s *Scorer) Analyze(rec models.StudentRecord) (*models.Report, error) {
	if err := Validate(rec); err != nil {
		return nil, err
	}

	curve, err := FitCurve(Weeks(), rec.Scores())
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", rec.RollNo, err)
	}
	c := Classify(rec, curve, s.policy)
	rate := curve.Slope(curve.LastWeek())
	at := s.now()

	label, metric := "Improvement Rate", strconv.FormatFloat(rate, 'f', 2, 64)
	if s.policy.Signal == SignalGrowth {
		label, metric = "Score Growth", strconv.Itoa(c.ScoreGrowth)
	}
	if s.policy.MetricLabel != "" {
		label = s.policy.MetricLabel
	}

	return &models.Report{
		ID:       s.newID(),
		Name:     strings.TrimSpace(rec.Name),
		RollNo:   strings.TrimSpace(rec.RollNo),
		Category: c.Category,
		Color:    c.Color,
		Reasons:  c.Reasons,
		Fields: []models.Field{
			{Label: "Name", Value: strings.TrimSpace(rec.Name)},
			{Label: "Roll No", Value: strings.TrimSpace(rec.RollNo)},
			{Label: "Average Score", Value: strconv.FormatFloat(c.AverageScore, 'f', 2, 64)},
			{Label: label, Value: metric},
			{Label: "Generated On", Value: at.Format(TimestampLayout)},
		},
		Policy:          s.policy.Name,
		ImprovementRate: rate,
		AverageScore:    c.AverageScore,
		ScoreGrowth:     c.ScoreGrowth,
		Coefficients:    curve.Coefficients,
		Scores:          rec.WeeklyScores,
		Curve:           curve.Sample(s.samples),
		GeneratedAt:     at,
	}, nil
}
