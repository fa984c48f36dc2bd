package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/opencivic/citizen-reports-sync/config"
	"github.com/opencivic/citizen-reports-sync/models"
	"github.com/opencivic/citizen-reports-sync/sync"
)

// Report exported for testing purposes
type Report struct {
	Sync *sync.Coordinator
}

// ReportHandler returns all reports matching the query filter, newest
// activity first
func (re Report) ReportHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		zap.S().Warnf("limit not set, using default of %v", 10)
		limit = 10
	}
	page := getPage(0, r)

	filter, err := parseFilter(r)
	if err != nil {
		config.ErrorStatus("failed to parse filter", http.StatusBadRequest, w, err)
		return
	}

	reports, err := re.Sync.FetchAll(r.Context(), filter)
	if err != nil {
		config.ErrorStatus("failed to get reports", http.StatusInternalServerError, w, err)
		return
	}

	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].UpdatedAt.After(reports[j].UpdatedAt)
	})
	reports = paginate(reports, page, limit)

	// the frontend requires the data elements to exist, so an empty result
	// returns an empty array rather than null
	if len(reports) == 0 {
		reports = []models.Report{}
	}
	b, err := json.Marshal(reports)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ReportByIDHandler returns a report by ID
func (re Report) ReportByIDHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]

	zap.S().Debugf("report_id: %v", reportID)

	id, err := strconv.Atoi(reportID)
	if err != nil {
		config.ErrorStatus("failed to parse report id", http.StatusBadRequest, w, err)
		return
	}

	report, err := re.Sync.FetchOne(r.Context(), id)
	if err != nil {
		if errors.Is(err, sync.ErrNotFoundLocally) {
			config.ErrorStatus("failed to get report by ID", http.StatusNotFound, w, err)
			return
		}
		config.ErrorStatus("failed to get report by ID", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(report)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateReportHandler creates a report, queueing it locally when the remote
// service is unreachable
func (re Report) CreateReportHandler(w http.ResponseWriter, r *http.Request) {
	var report models.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if report.Title == "" {
		config.ErrorStatus("title is required", http.StatusBadRequest, w, fmt.Errorf("missing title"))
		return
	}
	if report.Category != "" && !report.Category.IsValid() {
		config.ErrorStatus("invalid category", http.StatusBadRequest, w, fmt.Errorf("unknown category %q", report.Category))
		return
	}

	created, err := re.Sync.Create(r.Context(), report)
	if err != nil {
		config.ErrorStatus("failed to create report", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(created)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// UpdateReportHandler applies partial updates to a report
func (re Report) UpdateReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]
	id, err := strconv.Atoi(reportID)
	if err != nil {
		config.ErrorStatus("failed to parse report id", http.StatusBadRequest, w, err)
		return
	}

	var updates models.Report
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if updates.Status != "" && !updates.Status.IsValid() {
		config.ErrorStatus("invalid status", http.StatusBadRequest, w, fmt.Errorf("unknown status %q", updates.Status))
		return
	}

	updated, err := re.Sync.Update(r.Context(), id, updates)
	if err != nil {
		config.ErrorStatus("failed to update report", http.StatusInternalServerError, w, err)
		return
	}

	b, err := json.Marshal(updated)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// DeleteReportHandler deletes a report, queueing the delete when offline
func (re Report) DeleteReportHandler(w http.ResponseWriter, r *http.Request) {
	reportID := mux.Vars(r)["report_id"]
	id, err := strconv.Atoi(reportID)
	if err != nil {
		config.ErrorStatus("failed to parse report id", http.StatusBadRequest, w, err)
		return
	}

	if err := re.Sync.Delete(r.Context(), id); err != nil {
		config.ErrorStatus("failed to delete report", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// FlushHandler replays the queued operations on demand. Unlike the
// automatic replay on reconnect, failures here are surfaced to the caller.
func (re Report) FlushHandler(w http.ResponseWriter, r *http.Request) {
	if err := re.Sync.FlushQueue(r.Context()); err != nil {
		config.ErrorStatus("failed to replay queued operations", http.StatusBadGateway, w, err)
		return
	}

	b, err := json.Marshal(re.Sync.Status())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SyncStatusHandler reports connectivity and queue depth
func (re Report) SyncStatusHandler(w http.ResponseWriter, r *http.Request) {
	b, err := json.Marshal(re.Sync.Status())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func parseFilter(r *http.Request) (*models.ReportFilter, error) {
	q := r.URL.Query()
	filter := &models.ReportFilter{
		Category: models.ReportCategory(q.Get("category")),
		Status:   models.ReportStatus(q.Get("status")),
		Location: q.Get("location"),
	}
	if filter.Category != "" && !filter.Category.IsValid() {
		return nil, fmt.Errorf("unknown category %q", filter.Category)
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, fmt.Errorf("unknown status %q", filter.Status)
	}
	if raw := q.Get("startDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid startDate: %w", err)
		}
		filter.StartDate = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid endDate: %w", err)
		}
		filter.EndDate = &t
	}
	if filter.IsZero() {
		return nil, nil
	}
	return filter, nil
}

func paginate(reports []models.Report, page, limit int) []models.Report {
	start := page * limit
	if start >= len(reports) {
		return nil
	}
	end := start + limit
	if end > len(reports) {
		end = len(reports)
	}
	return reports[start:end]
}

func getPage(page int, r *http.Request) int {
	if r.URL.Query().Get("page") == "" {
		zap.S().Warnf("page not set, using default of %v", page)
	} else {
		var err error
		page, err = strconv.Atoi(r.URL.Query().Get("page"))
		if err != nil {
			zap.S().Errorf(fmt.Sprintf("error parsing page number: %v", err))
		}
		if page < 0 {
			zap.S().Warnf(fmt.Sprintf("cannot process page number less than 1. Got: %v", page))
			return 0
		}
	}
	return page
}
