package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/metrics"
	apperrors "geoevents.io/geoevents/internal/pkg/errors"
	"geoevents.io/geoevents/internal/pkg/logger"
)

// MaxBulkRows caps a single bulk import.
const MaxBulkRows = 5000

// RowRunner runs fn for each index in [0, n) with bounded concurrency and
// returns one error slot per index.
type RowRunner interface {
	ForEach(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error
}

// BulkImporter creates events from loosely typed rows. Rows are attempted
// independently; one bad row never aborts the batch and there is no
// enclosing transaction.
type BulkImporter struct {
	events *EventService
	runner RowRunner
}

// NewBulkImporter creates a new BulkImporter.
func NewBulkImporter(events *EventService, runner RowRunner) *BulkImporter {
	return &BulkImporter{events: events, runner: runner}
}

// Import attempts every JSON row. Cells may be strings, numbers, booleans,
// null or lists of those; a row that cannot be coerced fails on its own.
func (b *BulkImporter) Import(ctx context.Context, createdBy int64, rows []map[string]any) (*domain.BulkResult, error) {
	return b.run(ctx, createdBy, len(rows), func(i int) (map[string]string, error) {
		return CoerceRow(rows[i])
	})
}

// ImportCSV parses text as CSV with a header row and imports the rows.
func (b *BulkImporter) ImportCSV(ctx context.Context, createdBy int64, text string) (*domain.BulkResult, error) {
	rows, err := ParseCSV(text)
	if err != nil {
		return nil, err
	}
	return b.run(ctx, createdBy, len(rows), func(i int) (map[string]string, error) {
		return rows[i], nil
	})
}

// run attempts n rows and reports per-row failures with 1-based row numbers
// in ascending order.
func (b *BulkImporter) run(ctx context.Context, createdBy int64, n int, cellsAt func(i int) (map[string]string, error)) (*domain.BulkResult, error) {
	if n > MaxBulkRows {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequest,
			fmt.Sprintf("at most %d rows per import", MaxBulkRows))
	}

	errs := b.runner.ForEach(ctx, n, func(ctx context.Context, i int) error {
		cells, err := cellsAt(i)
		if err != nil {
			return err
		}
		in, err := RowToInput(cells)
		if err != nil {
			return err
		}
		_, err = b.events.create(ctx, createdBy, in, metrics.SourceBulk)
		return err
	})

	result := &domain.BulkResult{
		Total:        n,
		ErrorDetails: make([]domain.BulkRowError, 0),
	}
	for i, err := range errs {
		if err == nil {
			result.Success++
			continue
		}
		result.Errors++
		result.ErrorDetails = append(result.ErrorDetails, domain.BulkRowError{
			Row:   i + 1,
			Error: rowErrorMessage(err),
		})
	}

	metrics.RecordBulkImport(result.Success, result.Errors)
	logger.Ctx(ctx).Info("Bulk import finished",
		zap.Int("total", result.Total),
		zap.Int("success", result.Success),
		zap.Int("errors", result.Errors),
	)
	return result, nil
}

// CoerceRow flattens a decoded JSON object into string cells. Numbers use
// the shortest decimal form, booleans become "true"/"false", null becomes
// empty and lists of scalars are joined with commas.
func CoerceRow(row map[string]any) (map[string]string, error) {
	cells := make(map[string]string, len(row))
	for col, v := range row {
		if list, ok := v.([]any); ok {
			parts := make([]string, 0, len(list))
			for _, item := range list {
				cell, err := coerceScalar(item)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", col, err)
				}
				if cell != "" {
					parts = append(parts, cell)
				}
			}
			cells[col] = strings.Join(parts, ",")
			continue
		}
		cell, err := coerceScalar(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col, err)
		}
		cells[col] = cell
	}
	return cells, nil
}

func coerceScalar(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}

// ParseCSV reads CSV text whose first record names the columns. Short records
// leave the missing columns empty.
func ParseCSV(text string) ([]map[string]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequest, "csv is empty")
	}
	if err != nil {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequest, "invalid csv header: "+err.Error())
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidRequest, "invalid csv: "+err.Error())
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Accepted eventDate layouts, tried in order.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RowToInput maps an import row onto an EventInput. Column names match
// case-insensitively. List cells are comma-separated; isCrime is true only
// for "true" or "1".
func RowToInput(row map[string]string) (domain.EventInput, error) {
	cells := make(map[string]string, len(row))
	for k, v := range row {
		cells[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	get := func(col string) string { return cells[strings.ToLower(col)] }
	optional := func(col string) *string {
		if v := get(col); v != "" {
			return &v
		}
		return nil
	}

	in := domain.EventInput{
		Title:          get("title"),
		Description:    get("description"),
		Category:       get("category"),
		Subcategories:  splitCell(get("subcategories")),
		Tags:           splitCell(get("tags")),
		Latitude:       get("latitude"),
		Longitude:      get("longitude"),
		LocationName:   get("locationName"),
		Borough:        optional("borough"),
		VideoURL:       optional("videoUrl"),
		ThumbnailURL:   optional("thumbnailUrl"),
		SourceURL:      optional("sourceUrl"),
		PeopleInvolved: optional("peopleInvolved"),
		BackgroundInfo: optional("backgroundInfo"),
		Details:        optional("details"),
		IsCrime:        get("isCrime") == "true" || get("isCrime") == "1",
	}

	if raw := get("eventDate"); raw != "" {
		at, err := parseEventDate(raw)
		if err != nil {
			return domain.EventInput{}, err
		}
		in.EventDate = at
	}
	return in, nil
}

func parseEventDate(raw string) (time.Time, error) {
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid eventDate %q", raw)
}

func splitCell(cell string) []string {
	if cell == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(cell, ",") {
		if p := strings.Trim(strings.TrimSpace(part), `"`); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// rowErrorMessage flattens field errors into one line for the import report.
func rowErrorMessage(err error) string {
	appErr, ok := apperrors.IsAppError(err)
	if !ok {
		return err.Error()
	}
	if len(appErr.FieldErrors) == 0 {
		return appErr.Message
	}
	parts := make([]string, len(appErr.FieldErrors))
	for i, fe := range appErr.FieldErrors {
		parts[i] = fe.Field + " " + fe.Message
	}
	return strings.Join(parts, "; ")
}
