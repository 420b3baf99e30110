package handlers

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"progress-server-go/chart"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"textColor": func(bg string) string {
		if chart.IsDark(bg) {
			return "#ffffff"
		}
		return "#1b1b1b"
	},
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *APIHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(logger), gin.Recovery())
	router.SetHTMLTemplate(template.Must(
		template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"),
	))

	// Form routes
	router.GET("/", h.ShowForm)
	router.POST("/analyze", h.SubmitForm)

	api := router.Group("/api")
	{
		api.POST("/analyze", h.Analyze)

		// Import routes
		api.POST("/import/records", h.ImportRecords)
		api.GET("/import/template", h.ImportTemplate)

		// Archive routes
		api.GET("/reports", h.RecentReports)
		api.GET("/reports/:id", h.GetReport)
		api.GET("/reports/:id/chart.svg", h.GetReportChart)

		api.GET("/ping", PingHandler)
	}
	return router
}
