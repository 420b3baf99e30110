package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"progress-server-go/chart"
	"progress-server-go/db"
	"progress-server-go/models"
	"progress-server-go/scorer"
	"progress-server-go/workbook"
)

const (
	xlsxContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

var errArchiveDisabled = errors.New("report archive is disabled")

// APIHandler holds the dependencies for the form and API handlers
type APIHandler struct {
	Scorer *scorer.Scorer
	Charts *chart.Renderer
	// Archive is nil unless report archiving is enabled.
	Archive        db.ReportArchive
	MaxUploadBytes int64

	logger *zap.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(s *scorer.Scorer, charts *chart.Renderer, archive db.ReportArchive, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		Scorer:         s,
		Charts:         charts,
		Archive:        archive,
		MaxUploadBytes: 8 << 20,
		logger:         logger,
	}
}

// --- Form Handlers ---

type pageData struct {
	Record   models.StudentRecord
	Error    string
	Report   *models.Report
	ChartURI template.URL
}

// DefaultRecord holds the values the form opens with.
func DefaultRecord() models.StudentRecord {
	return models.StudentRecord{
		SemesterPct:   70,
		AttendancePct: 80,
		HomeworkPct:   75,
		StudyHours:    2,
	}
}

// ShowForm handles GET /
func (h *APIHandler) ShowForm(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{Record: DefaultRecord()})
}

// SubmitForm handles POST /analyze
func (h *APIHandler) SubmitForm(c *gin.Context) {
	rec := DefaultRecord()
	if err := c.ShouldBind(&rec); err != nil {
		c.HTML(http.StatusBadRequest, "index.html", pageData{Record: rec, Error: bindingMessage(err)})
		return
	}

	report, status, err := h.analyze(c, rec)
	if err != nil {
		c.HTML(status, "index.html", pageData{Record: rec, Error: userMessage(err)})
		return
	}

	uri, err := h.Charts.DataURI(report)
	if err != nil {
		// The summary is still useful without the chart.
		h.logger.Error("failed to render chart", zap.String("id", report.ID), zap.Error(err))
	}
	c.HTML(http.StatusOK, "index.html", pageData{Record: rec, Report: report, ChartURI: template.URL(uri)})
}

// --- Analysis API ---

// analyzeRequest is the JSON body of POST /api/analyze. WeeklyScores is a
// slice so a wrong count is rejected instead of padded or truncated.
type analyzeRequest struct {
	Name          string  `json:"name"`
	RollNo        string  `json:"rollNo"`
	SemesterPct   float64 `json:"semesterPct" binding:"min=0,max=100"`
	AttendancePct float64 `json:"attendancePct" binding:"min=0,max=100"`
	HomeworkPct   float64 `json:"homeworkPct" binding:"min=0,max=100"`
	StudyHours    float64 `json:"studyHours" binding:"min=0,max=12"`
	WeeklyScores  []int   `json:"weeklyScores" binding:"len=5,dive,min=0,max=100"`
}

func (r analyzeRequest) record() models.StudentRecord {
	rec := models.StudentRecord{
		Name:          r.Name,
		RollNo:        r.RollNo,
		SemesterPct:   r.SemesterPct,
		AttendancePct: r.AttendancePct,
		HomeworkPct:   r.HomeworkPct,
		StudyHours:    r.StudyHours,
	}
	copy(rec.WeeklyScores[:], r.WeeklyScores)
	return rec
}

// Analyze handles POST /api/analyze
func (h *APIHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingMessage(err)})
		return
	}

	report, status, err := h.analyze(c, req.record())
	if err != nil {
		c.JSON(status, gin.H{"error": userMessage(err)})
		return
	}
	c.JSON(http.StatusOK, report)
}

// analyze runs the scorer and archives the result. The returned status is
// meaningful only when err is non-nil.
func (h *APIHandler) analyze(c *gin.Context, rec models.StudentRecord) (*models.Report, int, error) {
	if err := rec.CheckRanges(); err != nil {
		return nil, http.StatusBadRequest, err
	}
	report, err := h.Scorer.Analyze(rec)
	if err != nil {
		if errors.Is(err, scorer.ErrMissingIdentity) {
			return nil, http.StatusBadRequest, err
		}
		h.logger.Error("analysis failed", zap.String("rollNo", rec.RollNo), zap.Error(err))
		return nil, http.StatusInternalServerError, err
	}
	h.archive(c, report)
	return report, http.StatusOK, nil
}

func (h *APIHandler) archive(c *gin.Context, r *models.Report) {
	if h.Archive == nil {
		return
	}
	if err := h.Archive.Save(c.Request.Context(), r); err != nil {
		// Archiving is best effort; the caller still gets the report.
		h.logger.Warn("failed to archive report", zap.String("id", r.ID), zap.Error(err))
	}
}

// --- Import Handlers ---

// ImportRecords handles POST /api/import/records
func (h *APIHandler) ImportRecords(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error retrieving uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	h.logger.Info("received workbook", zap.String("file", header.Filename), zap.Int64("size", header.Size))

	entries, skipped, err := workbook.ReadRecords(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read workbook: " + err.Error()})
		return
	}

	reports := make([]*models.Report, 0, len(entries))
	for _, e := range entries {
		report, _, err := h.analyze(c, e.Record)
		if err != nil {
			skipped = append(skipped, e.Fail(err))
			continue
		}
		reports = append(reports, report)
	}
	h.logger.Info("analysed workbook",
		zap.String("file", header.Filename),
		zap.Int("reports", len(reports)),
		zap.Int("skipped", len(skipped)))

	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, gin.H{
			"importedCount": len(reports),
			"reports":       reports,
			"skipped":       skipped,
		})
		return
	}

	var buf bytes.Buffer
	if err := workbook.WriteReports(&buf, reports, skipped); err != nil {
		h.logger.Error("failed to write report workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report workbook"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="reports.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportTemplate handles GET /api/import/template
func (h *APIHandler) ImportTemplate(c *gin.Context) {
	var buf bytes.Buffer
	if err := workbook.WriteTemplate(&buf); err != nil {
		h.logger.Error("failed to write import template", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build template"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="records.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// --- Archive Handlers ---

// RecentReports handles GET /api/reports
func (h *APIHandler) RecentReports(c *gin.Context) {
	if h.Archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errArchiveDisabled.Error()})
		return
	}

	limit := int64(defaultRecentLimit)
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 || n > maxRecentLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(maxRecentLimit)})
			return
		}
		limit = n
	}

	reports, err := h.Archive.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list reports", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
		return
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport handles GET /api/reports/:id
func (h *APIHandler) GetReport(c *gin.Context) {
	report, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetReportChart handles GET /api/reports/:id/chart.svg
func (h *APIHandler) GetReportChart(c *gin.Context) {
	report, ok := h.lookup(c)
	if !ok {
		return
	}
	b, err := h.Charts.SVG(report)
	if err != nil {
		h.logger.Error("failed to render chart", zap.String("id", report.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render chart"})
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", b)
}

func (h *APIHandler) lookup(c *gin.Context) (*models.Report, bool) {
	if h.Archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errArchiveDisabled.Error()})
		return nil, false
	}
	id := c.Param("id")
	report, err := h.Archive.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return nil, false
		}
		h.logger.Error("failed to get report", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve report"})
		return nil, false
	}
	return report, true
}

// --- Ping Handler ---
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
