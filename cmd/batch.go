package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"progress-server-go/models"
	"progress-server-go/workbook"
)

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every student in an xlsx workbook",
		RunE:  runBatch,
	}
	cmd.Flags().String("in", "", "Input workbook (Name, Roll No, Semester %, Attendance %, Homework %, Study Hours, Week 1-5)")
	cmd.Flags().String("out", "reports.xlsx", "Output workbook")
	cmd.Flags().Bool("template", false, "Write an empty input workbook to --out and exit")
	return cmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	outPath, _ := cmd.Flags().GetString("out")
	if tmpl, _ := cmd.Flags().GetBool("template"); tmpl {
		return writeFile(outPath, func(f *os.File) error { return workbook.WriteTemplate(f) })
	}

	inPath, _ := cmd.Flags().GetString("in")
	if inPath == "" {
		return errors.New("--in is required")
	}
	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", inPath, err)
	}
	defer in.Close()

	entries, skipped, err := workbook.ReadRecords(in)
	if err != nil {
		return err
	}
	for _, e := range skipped {
		logger.Warn("skipping row", zap.Int("row", e.Row), zap.String("reason", e.Reason))
	}

	s, err := newScorer(cfg)
	if err != nil {
		return err
	}
	reports := make([]*models.Report, 0, len(entries))
	for _, e := range entries {
		r, err := s.Analyze(e.Record)
		if err != nil {
			skipped = append(skipped, e.Fail(err))
			continue
		}
		reports = append(reports, r)
	}

	if err := writeFile(outPath, func(f *os.File) error { return workbook.WriteReports(f, reports, skipped) }); err != nil {
		return err
	}
	logger.Info("batch complete",
		zap.String("in", inPath),
		zap.String("out", outPath),
		zap.Int("reports", len(reports)),
		zap.Int("skipped", len(skipped)))
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d reports to %s (%d rows skipped)\n", len(reports), outPath, len(skipped))
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
