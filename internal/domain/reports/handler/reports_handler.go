// Package handler serves the summary and report routes under /api/expenses.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/reports"
	"github.com/FACorreiaa/expense-tracker/pkg/httpx"
	"github.com/FACorreiaa/expense-tracker/pkg/interceptors"
)

// ReportService is the read-only reporting surface.
type ReportService interface {
	Now() time.Time
	CategorySummary(ctx context.Context, owner uuid.UUID, year int, month time.Month, includeRecurring bool) (*reports.CategorySummary, error)
	MonthlySummary(ctx context.Context, owner uuid.UUID, year int, category *expense.Category, includeRecurring bool) (*reports.MonthlySummary, error)
	YearlySummary(ctx context.Context, owner uuid.UUID, category *expense.Category, includeRecurring bool) (*reports.YearlySummary, error)
	AvailableYears(ctx context.Context, owner uuid.UUID, category *expense.Category, includeRecurring bool) ([]int, error)
	AvailableCategories(ctx context.Context, owner uuid.UUID) ([]expense.Category, error)
	YearReport(ctx context.Context, owner uuid.UUID, category *expense.Category, selected int, includeRecurring bool) (*reports.YearReport, error)
	Overview(ctx context.Context, owner uuid.UUID, year int, month time.Month) (*reports.Overview, error)
}

type ReportsHandler struct {
	reports ReportService
	logger  *slog.Logger
}

func NewReportsHandler(svc ReportService, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{reports: svc, logger: logger}
}

// Routes mounts next to the expense record routes on the same subrouter.
func (h *ReportsHandler) Routes(r chi.Router) {
	r.Get("/categories", h.Categories)
	r.Get("/years", h.Years)
	r.Get("/report", h.Report)
	r.Get("/overview", h.Overview)
	r.Get("/summary/years", h.YearlySummary)
	r.Get("/summary/monthly/{year}", h.MonthlySummary)
	r.Get("/summary/{year}/{month}", h.CategorySummary)
}

// filters holds the category and includeRecurring query parameters shared by
// most routes.
type filters struct {
	category         *expense.Category
	includeRecurring bool
}

func parseFilters(r *http.Request) (filters, error) {
	category, err := expense.ParseFilter(r.URL.Query().Get("category"))
	if err != nil {
		return filters{}, err
	}
	include, err := httpx.QueryBool(r, "includeRecurring", true)
	if err != nil {
		return filters{}, invalidParam{err.Error()}
	}
	return filters{category: category, includeRecurring: include}, nil
}

type invalidParam struct{ msg string }

func (e invalidParam) Error() string { return e.msg }

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, invalidParam{name + " must be a number"}
	}
	return v, nil
}

// Categories returns the filter catalog: All, then each category in use.
func (h *ReportsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	categories, err := h.reports.AvailableCategories(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, categories)
}

// Years lists the years with spending under the filter, newest first.
func (h *ReportsHandler) Years(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	f, err := parseFilters(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	years, err := h.reports.AvailableYears(r.Context(), owner, f.category, f.includeRecurring)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, years)
}

func (h *ReportsHandler) CategorySummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	year, err := pathInt(r, "year")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	month, err := pathInt(r, "month")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	include, err := httpx.QueryBool(r, "includeRecurring", true)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := h.reports.CategorySummary(r.Context(), owner, year, time.Month(month), include)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

func (h *ReportsHandler) MonthlySummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	year, err := pathInt(r, "year")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := parseFilters(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.reports.MonthlySummary(r.Context(), owner, year, f.category, f.includeRecurring)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

func (h *ReportsHandler) YearlySummary(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	f, err := parseFilters(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.reports.YearlySummary(r.Context(), owner, f.category, f.includeRecurring)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, summary)
}

// Report runs the full pipeline. A missing year selects the current one
// when it has spending.
func (h *ReportsHandler) Report(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	f, err := parseFilters(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	selected, err := httpx.QueryInt(r, "year", 0)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.reports.YearReport(r.Context(), owner, f.category, selected, f.includeRecurring)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

// Overview compares a month's spending with the caller's income. year and
// month default to the current month.
func (h *ReportsHandler) Overview(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	now := h.reports.Now()
	year, err := httpx.QueryInt(r, "year", now.Year())
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	month, err := httpx.QueryInt(r, "month", int(now.Month()))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	overview, err := h.reports.Overview(r.Context(), owner, year, time.Month(month))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, overview)
}

func (h *ReportsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var bad invalidParam
	switch {
	case errors.As(err, &bad):
		httpx.WriteError(w, http.StatusBadRequest, bad.msg)
	case errors.Is(err, reports.ErrInvalidPeriod), errors.Is(err, expense.ErrInvalidCategory):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "report request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
