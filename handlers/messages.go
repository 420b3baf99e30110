package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"progress-server-go/models"
	"progress-server-go/scorer"
)

var fieldLabels = map[string]string{
	"SemesterPct":   "Semester Percentage (%)",
	"AttendancePct": "Attendance Percentage (%)",
	"HomeworkPct":   "Homework Completion Percentage (%)",
	"StudyHours":    "Average Study Hours per Day",
	"WeeklyScores":  "Weekly Test Scores",
}

// fieldLabel names a struct field the way the form labels it.
// Array elements arrive as "WeeklyScores[2]".
func fieldLabel(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	if rest, ok := strings.CutPrefix(field, "WeeklyScores["); ok {
		if i, err := strconv.Atoi(strings.TrimSuffix(rest, "]")); err == nil {
			return fmt.Sprintf("Week %d Test Score", i+1)
		}
	}
	return field
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "min":
			return fmt.Sprintf("%s must be at least %s", fieldLabel(fe.Field()), fe.Param())
		case "max":
			return fmt.Sprintf("%s must be at most %s", fieldLabel(fe.Field()), fe.Param())
		case "len":
			return fmt.Sprintf("%s must contain exactly %s values", fieldLabel(fe.Field()), fe.Param())
		}
		return fmt.Sprintf("%s is invalid", fieldLabel(fe.Field()))
	}
	return "Invalid input: " + err.Error()
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, scorer.ErrMissingIdentity):
		return scorer.MissingIdentityMessage
	case errors.Is(err, models.ErrOutOfRange):
		return "Invalid input: " + err.Error()
	default:
		return "Analysis failed, please try again"
	}
}
