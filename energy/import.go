package energy

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/carbon-engine/generic"
)

// =============================================================================
// CSV IMPORT
// =============================================================================
//
// Format (header row required, column order free, names case-insensitive):
//
//	date,totalKwh,departmentName,region
//	2025-01-15,1250.5,ML Platform,US
//	2025-01-15,300,,EU-WEST
//
// date and totalKwh are required columns. An empty departmentName uses the
// company baseline; an empty region uses the company region.

const (
	colDate       = "date"
	colTotalKwh   = "totalkwh"
	colDepartment = "departmentname"
	colRegion     = "region"
)

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Success         bool
	RecordsImported int
	Rejected        []generic.RowRejection
	Records         []EnergyRecord
}

// Import appends every valid row of a CSV document. Invalid rows are
// rejected individually and reported; valid rows are still persisted.
// When at least one row is rejected the returned error is a
// *generic.PartialImportError alongside a populated result.
func (l *Ledger) Import(ctx context.Context, companyID string, r io.Reader) (ImportResult, error) {
	unlock := l.locks.Lock(companyID)
	defer unlock()

	company, err := l.store.GetCompany(ctx, companyID)
	if err != nil {
		return ImportResult{}, err
	}
	depts, err := l.store.ListDepartments(ctx, companyID)
	if err != nil {
		return ImportResult{}, err
	}
	byName := make(map[string]*Department, len(depts))
	for i := range depts {
		byName[strings.ToLower(strings.TrimSpace(depts[i].Name))] = &depts[i]
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return ImportResult{Success: true}, nil
	}
	if err != nil {
		return ImportResult{}, generic.Invalid("file", nil, fmt.Sprintf("unreadable CSV header: %v", err))
	}
	cols, err := parseHeader(header)
	if err != nil {
		return ImportResult{}, err
	}

	var (
		records  []EnergyRecord
		rejected []generic.RowRejection
	)
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return ImportResult{}, fmt.Errorf("failed to read CSV: %w", err)
			}
			rejected = append(rejected, generic.RowRejection{Row: perr.StartLine, Reason: perr.Err.Error()})
			continue
		}
		row, _ := reader.FieldPos(0)
		if isBlank(fields) {
			continue
		}

		rec, reason, err := l.importRow(ctx, company, byName, cols, fields)
		if err != nil {
			return ImportResult{}, err
		}
		if reason != "" {
			rejected = append(rejected, generic.RowRejection{Row: row, Reason: reason})
			continue
		}
		records = append(records, rec)
	}

	if len(records) > 0 {
		if err := l.store.AppendRecords(ctx, records); err != nil {
			return ImportResult{}, err
		}
		l.observer.RecordsAppended(SourceCSVImport, len(records))
	}
	l.observer.RowsRejected(len(rejected))

	l.logger.Info("csv import finished",
		zap.String("company_id", companyID),
		zap.Int("imported", len(records)),
		zap.Int("rejected", len(rejected)),
	)
	l.publish(ctx, records)

	result := ImportResult{
		Success:         len(records) > 0 || len(rejected) == 0,
		RecordsImported: len(records),
		Rejected:        rejected,
		Records:         records,
	}
	if len(rejected) > 0 {
		return result, &generic.PartialImportError{Imported: len(records), Rejections: rejected}
	}
	return result, nil
}

// importRow returns either a record or a rejection reason. A non-nil error
// means the import itself failed (store unavailable) and must stop.
func (l *Ledger) importRow(ctx context.Context, company Company, byName map[string]*Department, cols map[string]int, fields []string) (EnergyRecord, string, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(fields) {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	date, err := generic.ParseDate(field(colDate))
	if err != nil {
		return EnergyRecord{}, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", field(colDate)), nil
	}
	kwh, err := decimal.NewFromString(field(colTotalKwh))
	if err != nil {
		return EnergyRecord{}, fmt.Sprintf("invalid totalKwh %q", field(colTotalKwh)), nil
	}

	var dept *Department
	if name := field(colDepartment); name != "" {
		d, ok := byName[strings.ToLower(name)]
		if !ok {
			return EnergyRecord{}, fmt.Sprintf("unknown department %q", name), nil
		}
		dept = d
	}

	rec, err := l.derive(ctx, company, dept, RecordInput{
		UsageDate:  date,
		TotalKwh:   kwh,
		Region:     field(colRegion),
		PeriodType: PeriodDaily,
		DataSource: SourceCSVImport,
	})
	if err != nil {
		if generic.IsClientError(err) || generic.IsNotFound(err) {
			return EnergyRecord{}, err.Error(), nil
		}
		return EnergyRecord{}, "", err
	}
	return rec, "", nil
}

func parseHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[name] = i
	}
	for _, required := range []string{colDate, colTotalKwh} {
		if _, ok := cols[required]; !ok {
			return nil, generic.Invalid("file", strings.Join(header, ","),
				"header must contain date,totalKwh[,departmentName][,region]")
		}
	}
	return cols, nil
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
