package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progress-server-go/models"
)

func record(scores [models.WeekCount]int) models.StudentRecord {
	return models.StudentRecord{
		Name:          "Asha",
		RollNo:        "R-17",
		SemesterPct:   70,
		AttendancePct: 80,
		HomeworkPct:   75,
		StudyHours:    2,
		WeeklyScores:  scores,
	}
}

func classify(t *testing.T, rec models.StudentRecord, p Policy) Classification {
	t.Helper()
	c, err := FitCurve(Weeks(), rec.Scores())
	require.NoError(t, err)
	return Classify(rec, c, p)
}

func TestClassifySlopePolicy(t *testing.T) {
	tests := []struct {
		scores [models.WeekCount]int
		want   string
	}{
		{[5]int{40, 45, 55, 70, 85}, CategoryHigh},
		{[5]int{70, 71, 69, 72, 70}, CategoryLow},
		{[5]int{10, 13, 16, 19, 22}, CategoryHigh},
		{[5]int{10, 12, 14, 16, 18}, CategoryModerate},
		{[5]int{10, 11, 12, 13, 14}, CategoryModerate},
		{[5]int{50, 50, 50, 50, 50}, CategoryLow},
		{[5]int{90, 80, 70, 60, 50}, CategoryLow},
	}

	for _, tt := range tests {
		got := classify(t, record(tt.scores), SlopePolicy())
		if got.Category != tt.want {
			t.Errorf("Classify(%v) = %q (signal %v), want %q", tt.scores, got.Category, got.Signal, tt.want)
		}
	}
}

func TestClassifyLowGrowthReason(t *testing.T) {
	got := classify(t, record([5]int{70, 71, 69, 72, 70}), SlopePolicy())
	assert.Equal(t, CategoryLow, got.Category)
	assert.Contains(t, got.Reasons, "Minimal score growth over weeks")
	assert.InDelta(t, 0, got.Signal, 0.5)
}

func TestSlopeBandBoundaries(t *testing.T) {
	p := SlopePolicy()
	tests := []struct {
		signal float64
		want   string
	}{
		{2.0000001, CategoryHigh},
		{2.0, CategoryModerate},
		{1.5, CategoryModerate},
		{1.0, CategoryModerate},
		{0.9999999, CategoryLow},
		{-3, CategoryLow},
	}

	for _, tt := range tests {
		if got := p.Band(tt.signal).Category; got != tt.want {
			t.Errorf("Band(%v) = %q, want %q", tt.signal, got, tt.want)
		}
	}
}

func TestClassifyGrowthPolicy(t *testing.T) {
	tests := []struct {
		scores [models.WeekCount]int
		want   string
		color  string
	}{
		{[5]int{95, 92, 90, 91, 95}, CategoryHighConsistent, "#007bfe"},
		{[5]int{40, 45, 55, 70, 85}, CategoryHigh, "#abe5a7"},
		{[5]int{60, 70, 80, 70, 75}, CategoryHigh, "#abe5a7"},
		{[5]int{60, 62, 61, 64, 66}, CategoryModerate, "#6a5101"},
		{[5]int{60, 62, 61, 64, 64}, CategoryLow, "#5d040c"},
		{[5]int{80, 85, 88, 90, 80}, CategoryLow, "#5d040c"},
		{[5]int{95, 92, 90, 91, 96}, CategoryLow, "#5d040c"},
	}

	for _, tt := range tests {
		got := classify(t, record(tt.scores), GrowthPolicy())
		assert.Equal(t, tt.want, got.Category, "scores %v", tt.scores)
		assert.Equal(t, tt.color, got.Color, "scores %v", tt.scores)
	}
}

func TestClassifyConsistentReasons(t *testing.T) {
	got := classify(t, record([5]int{95, 92, 90, 91, 95}), GrowthPolicy())
	assert.InDelta(t, 92.6, got.AverageScore, 1e-9)
	assert.Equal(t, 0, got.ScoreGrowth)
	require.Len(t, got.Reasons, 6)
	assert.Equal(t, "Consistently high scores across all weeks", got.Reasons[0])
	assert.Equal(t, "Student has already reached an excellent performance level", got.Reasons[1])
}

func TestClassifyIndicatorReasons(t *testing.T) {
	rec := record([5]int{40, 45, 55, 70, 85})
	got := classify(t, rec, SlopePolicy())
	assert.Equal(t, []string{
		"Strong upward trend in weekly test scores",
		"Semester performance needs improvement",
		"Attendance inconsistency affected learning",
		"Irregular homework practice",
		"Insufficient daily study time",
	}, got.Reasons)

	rec.SemesterPct = 75
	rec.AttendancePct = 85
	rec.HomeworkPct = 80
	rec.StudyHours = 3
	got = classify(t, rec, SlopePolicy())
	assert.Equal(t, []string{
		"Strong upward trend in weekly test scores",
		"Good overall semester performance",
		"Consistent class attendance",
		"Regular homework completion",
		"Sufficient daily study hours",
	}, got.Reasons)
}

func TestClassifyDeterministic(t *testing.T) {
	rec := record([5]int{55, 61, 58, 66, 71})
	for _, p := range []Policy{SlopePolicy(), GrowthPolicy()} {
		first := classify(t, rec, p)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, classify(t, rec, p))
		}
	}
}
