// Package handler exposes expense records and recurring templates over HTTP.
package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/expense-tracker/internal/domain/categorization"
	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	"github.com/FACorreiaa/expense-tracker/internal/domain/expense/search"
	"github.com/FACorreiaa/expense-tracker/internal/domain/expense/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/export"
	"github.com/FACorreiaa/expense-tracker/internal/domain/import/parser"
	importservice "github.com/FACorreiaa/expense-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/reports"
	"github.com/FACorreiaa/expense-tracker/pkg/httpx"
	"github.com/FACorreiaa/expense-tracker/pkg/interceptors"
)

// maxUploadBytes bounds an import upload.
const maxUploadBytes = 10 << 20

// ExpenseService is the record and template surface used by the handler.
type ExpenseService interface {
	CreateExpense(ctx context.Context, owner uuid.UUID, in service.ExpenseInput) (*expense.Expense, error)
	GetExpense(ctx context.Context, owner, id uuid.UUID) (*expense.Expense, error)
	ListExpenses(ctx context.Context, owner uuid.UUID, within *expense.DateRange) ([]expense.Expense, error)
	UpdateExpense(ctx context.Context, owner, id uuid.UUID, in service.ExpenseInput) (*expense.Expense, error)
	DeleteExpense(ctx context.Context, owner, id uuid.UUID) error
	SearchExpenses(ctx context.Context, owner uuid.UUID, q search.Query) ([]search.Hit, error)

	CreateRecurring(ctx context.Context, owner uuid.UUID, in service.RecurringInput) (*expense.RecurringExpense, error)
	ListRecurring(ctx context.Context, owner uuid.UUID) ([]expense.RecurringExpense, error)
	DeleteRecurring(ctx context.Context, owner, id uuid.UUID) error
	Upcoming(ctx context.Context, owner uuid.UUID) ([]service.UpcomingCharge, error)
}

// Suggester ranks categories for a description.
type Suggester interface {
	Suggestions(description string) []categorization.Suggestion
}

// Importer stores the rows of an uploaded file.
type Importer interface {
	Import(ctx context.Context, owner uuid.UUID, format importservice.Format, r io.Reader) (*importservice.ImportResult, error)
}

// Exporter renders downloads.
type Exporter interface {
	ExpensesCSV(ctx context.Context, owner uuid.UUID, year int, w io.Writer) error
	YearWorkbook(ctx context.Context, owner uuid.UUID, year int, category *expense.Category, includeRecurring bool, w io.Writer) error
}

// ExpenseHandler serves /api/expenses and /api/recurring-expenses.
type ExpenseHandler struct {
	expenses  ExpenseService
	suggester Suggester
	importer  Importer
	exporter  Exporter
	now       func() time.Time
	logger    *slog.Logger
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(expenses ExpenseService, suggester Suggester, importer Importer, exporter Exporter, now func() time.Time, logger *slog.Logger) *ExpenseHandler {
	if now == nil {
		now = time.Now
	}
	return &ExpenseHandler{
		expenses:  expenses,
		suggester: suggester,
		importer:  importer,
		exporter:  exporter,
		now:       now,
		logger:    logger,
	}
}

// Routes mounts the record routes. Summary routes are mounted next to these
// by the reports handler.
func (h *ExpenseHandler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/categories/suggest", h.Suggest)
	r.Get("/search", h.Search)
	r.Post("/import", h.Import)
	r.Get("/export.csv", h.ExportCSV)
	r.Get("/report.xlsx", h.ExportWorkbook)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// RecurringRoutes mounts the template routes.
func (h *ExpenseHandler) RecurringRoutes(r chi.Router) {
	r.Get("/", h.ListRecurring)
	r.Post("/", h.CreateRecurring)
	r.Get("/upcoming", h.Upcoming)
	r.Delete("/{id}", h.DeleteRecurring)
}

type expenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
	RecurringID *uuid.UUID      `json:"recurringId"`
}

func (req expenseRequest) input() (service.ExpenseInput, error) {
	date, err := parseDate("date", req.Date)
	if err != nil {
		return service.ExpenseInput{}, err
	}
	return service.ExpenseInput{
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		Category:    req.Category,
		RecurringID: req.RecurringID,
	}, nil
}

// badRequest marks client input errors found by the handler itself.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, badRequest{field + " is required"}
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, badRequest{fmt.Sprintf("%s must be YYYY-MM-DD", field)}
	}
	return d, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, badRequest{"invalid id"}
	}
	return id, nil
}

// List returns the caller's records, newest first. year, or year and
// month, narrow the range.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	within, err := rangeParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	records, err := h.expenses.ListExpenses(r.Context(), owner, within)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, records)
}

func rangeParam(r *http.Request) (*expense.DateRange, error) {
	year, err := httpx.QueryInt(r, "year", 0)
	if err != nil {
		return nil, badRequest{err.Error()}
	}
	month, err := httpx.QueryInt(r, "month", 0)
	if err != nil {
		return nil, badRequest{err.Error()}
	}
	switch {
	case year == 0 && month == 0:
		return nil, nil
	case year < 1 || year > 9999 || month < 0 || month > 12:
		return nil, reports.ErrInvalidPeriod
	case month == 0:
		within := expense.YearRange(year)
		return &within, nil
	default:
		within := expense.MonthRange(year, time.Month(month))
		return &within, nil
	}
}

// Create stores a new record. A blank category is suggested from the
// description.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	var req expenseRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.expenses.CreateExpense(r.Context(), owner, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	e, err := h.expenses.GetExpense(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

// Update replaces description, amount, date and category.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req expenseRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	updated, err := h.expenses.UpdateExpense(r.Context(), owner, id, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.expenses.DeleteExpense(r.Context(), owner, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Suggest ranks categories for ?description=.
func (h *ExpenseHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	desc := strings.TrimSpace(r.URL.Query().Get("description"))
	if desc == "" {
		httpx.WriteError(w, http.StatusBadRequest, "description is required")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, h.suggester.Suggestions(desc))
}

// Search runs a full-text query over the caller's descriptions.
func (h *ExpenseHandler) Search(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	category, err := expense.ParseFilter(r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit, err := httpx.QueryInt(r, "limit", search.DefaultLimit)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	hits, err := h.expenses.SearchExpenses(r.Context(), owner, search.Query{
		Text:     r.URL.Query().Get("q"),
		Category: category,
		Limit:    limit,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, hits)
}

// Import accepts a multipart upload in the "file" field.
func (h *ExpenseHandler) Import(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "file is too large")
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, "a file field is required")
		return
	}
	defer file.Close()

	format, err := importservice.DetectFormat(header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.importer.Import(r.Context(), owner, format, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if result.RowsImported == 0 {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, result)
}

// ExportCSV downloads the records of ?year= (default current year).
func (h *ExpenseHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	year, err := httpx.QueryInt(r, "year", h.now().Year())
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.download(w, r, "text/csv; charset=utf-8", export.CSVFilename(year), func(out io.Writer) error {
		return h.exporter.ExpensesCSV(r.Context(), owner, year, out)
	})
}

// ExportWorkbook downloads the yearly report as XLSX.
func (h *ExpenseHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	year, err := httpx.QueryInt(r, "year", h.now().Year())
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	includeRecurring, err := httpx.QueryBool(r, "includeRecurring", true)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := expense.ParseFilter(r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	const xlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	h.download(w, r, xlsx, export.WorkbookFilename(year), func(out io.Writer) error {
		return h.exporter.YearWorkbook(r.Context(), owner, year, category, includeRecurring, out)
	})
}

// download renders into memory first so a failure can still produce a JSON
// error response.
func (h *ExpenseHandler) download(w http.ResponseWriter, r *http.Request, contentType, filename string, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type recurringRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	DayOfMonth  int             `json:"dayOfMonth"`
	StartsOn    string          `json:"startsOn"`
	EndsOn      string          `json:"endsOn"`
}

func (req recurringRequest) input() (service.RecurringInput, error) {
	in := service.RecurringInput{
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		DayOfMonth:  req.DayOfMonth,
	}
	if strings.TrimSpace(req.StartsOn) != "" {
		d, err := parseDate("startsOn", req.StartsOn)
		if err != nil {
			return in, err
		}
		in.StartsOn = d
	}
	if strings.TrimSpace(req.EndsOn) != "" {
		d, err := parseDate("endsOn", req.EndsOn)
		if err != nil {
			return in, err
		}
		in.EndsOn = &d
	}
	return in, nil
}

func (h *ExpenseHandler) ListRecurring(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	templates, err := h.expenses.ListRecurring(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, templates)
}

// CreateRecurring stores a template. startsOn defaults to today.
func (h *ExpenseHandler) CreateRecurring(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	var req recurringRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	in, err := req.input()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.expenses.CreateRecurring(r.Context(), owner, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *ExpenseHandler) DeleteRecurring(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.expenses.DeleteRecurring(r.Context(), owner, id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upcoming lists each template with its next due date, soonest first.
func (h *ExpenseHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	owner, ok := interceptors.CallerID(w, r)
	if !ok {
		return
	}
	charges, err := h.expenses.Upcoming(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, charges)
}

func (h *ExpenseHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var br badRequest
	switch {
	case errors.As(err, &br):
		httpx.WriteError(w, http.StatusBadRequest, br.msg)
	case errors.Is(err, expense.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not found")
	case errors.Is(err, expense.ErrInvalidExpense),
		errors.Is(err, expense.ErrInvalidTemplate),
		errors.Is(err, expense.ErrInvalidCategory),
		errors.Is(err, reports.ErrInvalidPeriod),
		errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, importservice.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrNoHeader),
		errors.Is(err, parser.ErrMalformed),
		errors.Is(err, parser.ErrTooManyRows):
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "expense request failed",
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
