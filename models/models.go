package models

import (
	"errors"
	"fmt"
	"time"
)

// WeekCount is the number of weekly test scores collected per student.
const WeekCount = 5

// ErrOutOfRange is returned by CheckRanges when an input is outside its declared range.
var ErrOutOfRange = errors.New("value out of range")

// Indicator names used by policy rules
const (
	IndicatorSemester   = "semester_pct"
	IndicatorAttendance = "attendance_pct"
	IndicatorHomework   = "homework_pct"
	IndicatorStudyHours = "study_hours"
)

// StudentRecord is one form submission
type StudentRecord struct {
	Name          string         `json:"name" form:"name"`
	RollNo        string         `json:"rollNo" form:"rollNo"`
	SemesterPct   float64        `json:"semesterPct" form:"semesterPct" binding:"min=0,max=100"`
	AttendancePct float64        `json:"attendancePct" form:"attendancePct" binding:"min=0,max=100"`
	HomeworkPct   float64        `json:"homeworkPct" form:"homeworkPct" binding:"min=0,max=100"`
	StudyHours    float64        `json:"studyHours" form:"studyHours" binding:"min=0,max=12"`
	WeeklyScores  [WeekCount]int `json:"weeklyScores" form:"scores" binding:"dive,min=0,max=100"`
}

// Indicator returns the value of a named academic indicator.
func (r StudentRecord) Indicator(name string) (float64, bool) {
	switch name {
	case IndicatorSemester:
		return r.SemesterPct, true
	case IndicatorAttendance:
		return r.AttendancePct, true
	case IndicatorHomework:
		return r.HomeworkPct, true
	case IndicatorStudyHours:
		return r.StudyHours, true
	}
	return 0, false
}

// KnownIndicator reports whether name is an indicator StudentRecord carries.
func KnownIndicator(name string) bool {
	_, ok := StudentRecord{}.Indicator(name)
	return ok
}

// Scores returns the weekly scores as floats, in week order.
func (r StudentRecord) Scores() []float64 {
	out := make([]float64, WeekCount)
	for i, s := range r.WeeklyScores {
		out[i] = float64(s)
	}
	return out
}

// CheckRanges reports the first numeric input outside its declared range.
func (r StudentRecord) CheckRanges() error {
	checks := []struct {
		label    string
		val, max float64
	}{
		{"semester percentage", r.SemesterPct, 100},
		{"attendance percentage", r.AttendancePct, 100},
		{"homework percentage", r.HomeworkPct, 100},
		{"study hours", r.StudyHours, 12},
	}
	for _, c := range checks {
		if c.val < 0 || c.val > c.max {
			return fmt.Errorf("%s %.2f not in [0, %g]: %w", c.label, c.val, c.max, ErrOutOfRange)
		}
	}
	for i, s := range r.WeeklyScores {
		if s < 0 || s > 100 {
			return fmt.Errorf("week %d score %d not in [0, 100]: %w", i+1, s, ErrOutOfRange)
		}
	}
	return nil
}

// Field is one labelled row of the summary box
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Point is a sample of the fitted trend curve
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Report is the presentation-agnostic result of analysing one StudentRecord.
type Report struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	RollNo          string         `json:"rollNo"`
	Category        string         `json:"category"`
	Color           string         `json:"color"`
	Reasons         []string       `json:"reasons"`
	Fields          []Field        `json:"fields"`
	Policy          string         `json:"policy"`
	ImprovementRate float64        `json:"improvementRate"`
	AverageScore    float64        `json:"averageScore"`
	ScoreGrowth     int            `json:"scoreGrowth"`
	Coefficients    [3]float64     `json:"coefficients"`
	Scores          [WeekCount]int `json:"scores"`
	Curve           []Point        `json:"curve"`
	GeneratedAt     time.Time      `json:"generatedAt"`
}
