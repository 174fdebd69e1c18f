package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"hermannm.dev/devlog/log"
	"hermannm.dev/widgets/export"
	"hermannm.dev/widgets/pivot"
	"hermannm.dev/widgets/results"
)

// Returns:
//   - JSON-encoded []report.SavedReport, most recently updated first
func (api WidgetAPI) ListReports(res http.ResponseWriter, req *http.Request) {
	reports, err := api.store.ListReports(req.Context())
	if err != nil {
		sendServerError(res, err, "failed to list reports")
		return
	}

	sendJSON(res, reports)
}

// Returns:
//   - JSON-encoded report.SavedReport
func (api WidgetAPI) GetReport(res http.ResponseWriter, req *http.Request) {
	saved, err := api.store.GetReport(req.Context(), chi.URLParam(req, "reportID"))
	if err != nil {
		sendWorkflowError(res, err, "failed to get report")
		return
	}

	sendJSON(res, saved)
}

func (api WidgetAPI) DeleteReport(res http.ResponseWriter, req *http.Request) {
	if err := api.store.DeleteReport(req.Context(), chi.URLParam(req, "reportID")); err != nil {
		sendWorkflowError(res, err, "failed to delete report")
		return
	}

	res.WriteHeader(http.StatusNoContent)
}

// Runs a saved report's query and returns its data.
//
// Expects:
//   - query parameter 'format': csv or xlsx (default csv)
//
// Returns:
//   - the report's result (or pivot grid) as a file download
func (api WidgetAPI) ExportReport(res http.ResponseWriter, req *http.Request) {
	format, ok := getExportFormat(res, req)
	if !ok {
		return
	}

	saved, err := api.store.GetReport(req.Context(), chi.URLParam(req, "reportID"))
	if err != nil {
		sendWorkflowError(res, err, "failed to get report")
		return
	}

	set, grid, err := export.LoadReportData(req.Context(), api.executor, saved.Report)
	if err != nil {
		sendWorkflowError(res, err, "failed to load report data")
		return
	}

	sendExport(res, format, saved.Name, set, grid)
}

func sendExport(
	res http.ResponseWriter,
	format export.Format,
	filename string,
	set results.Set,
	grid *pivot.Grid,
) {
	res.Header().Set("Content-Type", format.ContentType())
	res.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filename+format.FileExtension()),
	)
	res.WriteHeader(http.StatusOK)

	if err := export.Write(res, format, set, grid); err != nil {
		log.ErrorCause(err, "failed to write export response")
	}
}
