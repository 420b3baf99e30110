package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"progress-server-go/models"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one student's weekly scores",
		Example: `  progress analyze --name Asha --roll R-17 --scores 40,45,55,70,85
  progress analyze --name Asha --roll R-17 --semester 82 --scores 40,45,55,70,85 --json`,
		RunE: runAnalyze,
	}
	f := cmd.Flags()
	f.String("name", "", "Student name")
	f.String("roll", "", "Roll number")
	f.Float64("semester", 70, "Semester percentage (0-100)")
	f.Float64("attendance", 80, "Attendance percentage (0-100)")
	f.Float64("homework", 75, "Homework completion percentage (0-100)")
	f.Float64("study-hours", 2, "Average study hours per day (0-12)")
	f.IntSlice("scores", nil, "Five weekly test scores, comma separated")
	f.Bool("json", false, "Print the report as JSON")
	f.String("chart", "", "Write the trend chart as SVG to this path")
	return cmd
}

func recordFromFlags(cmd *cobra.Command) (models.StudentRecord, error) {
	f := cmd.Flags()
	var rec models.StudentRecord
	rec.Name, _ = f.GetString("name")
	rec.RollNo, _ = f.GetString("roll")
	rec.SemesterPct, _ = f.GetFloat64("semester")
	rec.AttendancePct, _ = f.GetFloat64("attendance")
	rec.HomeworkPct, _ = f.GetFloat64("homework")
	rec.StudyHours, _ = f.GetFloat64("study-hours")

	scores, _ := f.GetIntSlice("scores")
	if len(scores) != models.WeekCount {
		return rec, fmt.Errorf("--scores needs exactly %d values, got %d", models.WeekCount, len(scores))
	}
	copy(rec.WeeklyScores[:], scores)
	return rec, rec.CheckRanges()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rec, err := recordFromFlags(cmd)
	if err != nil {
		return err
	}
	s, err := newScorer(cfg)
	if err != nil {
		return err
	}

	report, err := s.Analyze(rec)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("chart"); path != "" {
		svg, err := newCharts(cfg).SVG(report)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, svg, 0644); err != nil {
			return fmt.Errorf("failed to write chart %s: %w", path, err)
		}
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(out, report)
	return nil
}

func printReport(w io.Writer, r *models.Report) {
	fmt.Fprintf(w, "Improvement Category: %s (%s)\n", r.Category, r.Color)
	for _, f := range r.Fields {
		fmt.Fprintf(w, "%s: %s\n", f.Label, f.Value)
	}
	fmt.Fprintln(w, "\nReason Analysis:")
	for _, reason := range r.Reasons {
		fmt.Fprintf(w, "  • %s\n", reason)
	}
}
