// Package service turns an uploaded CSV or XLSX export into expense records.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/expense-tracker/internal/domain/expense"
	expenseservice "github.com/FACorreiaa/expense-tracker/internal/domain/expense/service"
	"github.com/FACorreiaa/expense-tracker/internal/domain/import/parser"
)

// Format is the file type of an upload.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported file format: upload a .csv or .xlsx file")

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DetectFormat picks the format from the file extension, then the content
// type.
func DetectFormat(filename, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	mediaType, _, _ := strings.Cut(strings.ToLower(contentType), ";")
	switch strings.TrimSpace(mediaType) {
	case "text/csv", "application/csv", "text/plain":
		return FormatCSV, nil
	case xlsxContentType:
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFormat
}

// ExpenseCreator stores one validated record.
type ExpenseCreator interface {
	CreateExpense(ctx context.Context, owner uuid.UUID, in expenseservice.ExpenseInput) (*expense.Expense, error)
}

// ImportResult contains the result of an import operation
type ImportResult struct {
	RowsTotal    int                 `json:"rowsTotal"`
	RowsImported int                 `json:"rowsImported"`
	RowsFailed   int                 `json:"rowsFailed"`
	RowsSkipped  int                 `json:"rowsSkipped"`
	Errors       []parser.ParseError `json:"errors"`
	Expenses     []expense.Expense   `json:"expenses"`
}

// ImportService parses uploads and stores the accepted rows.
type ImportService struct {
	expenses ExpenseCreator
	parser   *parser.Parser
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(expenses ExpenseCreator, cfg parser.Config, logger *slog.Logger) *ImportService {
	return &ImportService{
		expenses: expenses,
		parser:   parser.NewParser(cfg),
		tracer:   otel.Tracer("expense-tracker/import"),
		logger:   logger,
	}
}

// Import reads every row of r and creates an expense for each valid one.
// Rows without a category get a suggested one. A row that fails validation
// is reported and does not stop the import.
func (s *ImportService) Import(ctx context.Context, owner uuid.UUID, format Format, r io.Reader) (_ *ImportResult, err error) {
	ctx, span := s.tracer.Start(ctx, "import.Import", trace.WithAttributes(
		attribute.String("owner_id", owner.String()),
		attribute.String("format", string(format)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var parsed *parser.ParseResult
	switch format {
	case FormatCSV:
		parsed, err = s.parser.Parse(r)
	case FormatXLSX:
		parsed, err = s.parser.ParseExcel(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		RowsTotal:   parsed.TotalRows,
		RowsSkipped: parsed.SkippedRows,
		Errors:      append([]parser.ParseError(nil), parsed.Errors...),
		Expenses:    make([]expense.Expense, 0, len(parsed.Expenses)),
	}
	for _, row := range parsed.Expenses {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		created, err := s.expenses.CreateExpense(ctx, owner, expenseservice.ExpenseInput{
			Description: row.Description,
			Amount:      row.Amount,
			Date:        row.Date,
			Category:    row.Category,
		})
		if err != nil {
			perr, ok := rowError(row, err)
			if !ok {
				return nil, fmt.Errorf("failed to store row %d: %w", row.Row, err)
			}
			result.Errors = append(result.Errors, perr)
			continue
		}
		result.Expenses = append(result.Expenses, *created)
	}
	result.RowsImported = len(result.Expenses)
	result.RowsFailed = len(result.Errors)
	span.SetAttributes(
		attribute.Int("rows_imported", result.RowsImported),
		attribute.Int("rows_failed", result.RowsFailed),
	)

	s.logger.InfoContext(ctx, "import finished",
		slog.String("owner_id", owner.String()),
		slog.String("format", string(format)),
		slog.Int("rows_total", result.RowsTotal),
		slog.Int("rows_imported", result.RowsImported),
		slog.Int("rows_failed", result.RowsFailed),
	)
	return result, nil
}

// rowError converts a validation failure into a row error. Storage errors
// are not row errors and abort the import.
func rowError(row parser.ParsedExpense, err error) (parser.ParseError, bool) {
	switch {
	case errors.Is(err, expense.ErrInvalidCategory):
		return parser.ParseError{Row: row.Row, Column: "category", Message: "unknown category", RawData: row.Category}, true
	case errors.Is(err, expense.ErrInvalidExpense):
		return parser.ParseError{Row: row.Row, Column: "description", Message: err.Error(), RawData: row.Description}, true
	}
	return parser.ParseError{}, false
}
