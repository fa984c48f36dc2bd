// Package remote is the HTTP client for the citizen-reports backend. It maps
// between the wire representation and the local models; callers treat every
// failure it returns as "the remote service is unavailable" and fall back to
// the local cache.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/opencivic/citizen-reports-sync/models"
)

// Client is the remote operation surface the sync coordinator depends on
type Client interface {
	ListReports(ctx context.Context, filter *models.ReportFilter) ([]models.Report, error)
	GetReport(ctx context.Context, id int) (models.Report, error)
	CreateReport(ctx context.Context, report models.Report) (models.Report, error)
	UpdateReport(ctx context.Context, id int, updates models.Report) (models.Report, error)
	DeleteReport(ctx context.Context, id int) error
}

// TokenSource supplies the bearer token attached to backend requests
type TokenSource interface {
	Token() string
}

// Error wraps a failed backend call
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s failed: status %d", e.Op, e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTP implements Client against the backend REST API
type HTTP struct {
	baseURL string
	client  *http.Client
	tokens  TokenSource
}

// NewHTTP creates a backend client rooted at baseURL. tokens may be nil for
// unauthenticated use.
func NewHTTP(baseURL string, tokens TokenSource) *HTTP {
	return &HTTP{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
	}
}

// ListReports fetches all reports matching the filter
func (h *HTTP) ListReports(ctx context.Context, filter *models.ReportFilter) ([]models.Report, error) {
	var dtos []reportDTO
	if err := h.do(ctx, http.MethodGet, "/reports"+filterQuery(filter), nil, &dtos); err != nil {
		return nil, err
	}
	reports := make([]models.Report, 0, len(dtos))
	for _, dto := range dtos {
		reports = append(reports, fromDTO(dto))
	}
	return reports, nil
}

// GetReport fetches a single report by id
func (h *HTTP) GetReport(ctx context.Context, id int) (models.Report, error) {
	var dto reportDTO
	if err := h.do(ctx, http.MethodGet, "/reports/"+strconv.Itoa(id), nil, &dto); err != nil {
		return models.Report{}, err
	}
	return fromDTO(dto), nil
}

// CreateReport submits a new report and returns the stored entity with its
// remote-assigned id
func (h *HTTP) CreateReport(ctx context.Context, report models.Report) (models.Report, error) {
	var dto reportDTO
	body := toDTO(report)
	body.ID = 0 // the remote service assigns identity
	if err := h.do(ctx, http.MethodPost, "/reports", body, &dto); err != nil {
		return models.Report{}, err
	}
	return fromDTO(dto), nil
}

// UpdateReport patches a report; unset fields are omitted from the body
func (h *HTTP) UpdateReport(ctx context.Context, id int, updates models.Report) (models.Report, error) {
	var dto reportDTO
	if err := h.do(ctx, http.MethodPatch, "/reports/"+strconv.Itoa(id), toDTO(updates), &dto); err != nil {
		return models.Report{}, err
	}
	return fromDTO(dto), nil
}

// DeleteReport removes a report by id
func (h *HTTP) DeleteReport(ctx context.Context, id int) error {
	return h.do(ctx, http.MethodDelete, "/reports/"+strconv.Itoa(id), nil, nil)
}

// Login exchanges credentials for a session token
func (h *HTTP) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/auth/token", nil)
	if err != nil {
		return models.AuthResponse{}, &Error{Op: "login", Err: err}
	}
	req.SetBasicAuth(email, password)

	resp, err := h.client.Do(req)
	if err != nil {
		return models.AuthResponse{}, &Error{Op: "login", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.AuthResponse{}, &Error{Op: "login", Status: resp.StatusCode}
	}

	var auth models.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return models.AuthResponse{}, &Error{Op: "login", Err: err}
	}
	return auth, nil
}

func (h *HTTP) do(ctx context.Context, method, path string, body, out interface{}) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: err}
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if h.tokens != nil {
		if token := h.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &Error{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Err: err}
	}
	return nil
}

func filterQuery(filter *models.ReportFilter) string {
	if filter == nil || filter.IsZero() {
		return ""
	}
	params := url.Values{}
	if filter.Category != "" {
		params.Set("category", filter.Category.String())
	}
	if filter.Status != "" {
		params.Set("status", filter.Status.String())
	}
	if filter.Location != "" {
		params.Set("location", filter.Location)
	}
	if filter.StartDate != nil {
		params.Set("startDate", filter.StartDate.Format(time.RFC3339))
	}
	if filter.EndDate != nil {
		params.Set("endDate", filter.EndDate.Format(time.RFC3339))
	}
	return "?" + params.Encode()
}
