package energy_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/carbon-engine/energy"
	"github.com/warp/carbon-engine/generic"
)

func TestImport_ValidRowsPersistDespiteRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// GIVEN: a CSV with two good rows and five bad ones
	csv := strings.Join([]string{
		"date,totalKwh,departmentName,region",
		"2025-03-01,1000,ML Platform,US",
		"2025-03-02,not-a-number,,",
		"2025-13-01,50,,",
		"2025-03-03,200,Unknown Dept,",
		"2025-03-04,-5,,",
		"2025-03-05,300,,MARS",
		"2025-03-06,400,ml platform,",
	}, "\n")

	// WHEN: imported
	result, err := f.ledger.Import(ctx, f.company.ID, strings.NewReader(csv))

	// THEN: the import reports a partial failure with spreadsheet row numbers
	require.Error(t, err)
	var perr *generic.PartialImportError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 2, perr.Imported)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.RecordsImported)
	rows := make([]int, len(result.Rejected))
	for i, r := range result.Rejected {
		rows[i] = r.Row
	}
	assert.Equal(t, []int{3, 4, 5, 6, 7}, rows)
	assert.Contains(t, result.Rejected[2].Reason, "unknown department")

	// AND: the good rows are in the ledger, attributed by department
	records, err := f.ledger.Records(ctx, f.company.ID, generic.Period{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assertDecimal(t, "800", records[0].Derived.AIAttributedKwh)
	assertDecimal(t, "320", records[1].Derived.AIAttributedKwh)
	assert.Equal(t, energy.SourceCSVImport, records[0].DataSource)

	assert.Equal(t, 2, f.observer.appended[energy.SourceCSVImport])
	assert.Equal(t, 5, f.observer.rejected)
}

func TestImport_ColumnOrderAndCaseAreFree(t *testing.T) {
	f := newFixture(t)

	csv := "\ufeffRegion, TotalKWh ,DATE\nSE,100,2025-03-01\n,,\n"
	result, err := f.ledger.Import(context.Background(), f.company.ID, strings.NewReader(csv))

	require.NoError(t, err)
	require.Equal(t, 1, result.RecordsImported)
	assert.Equal(t, "SE", result.Records[0].Region)
	assertDecimal(t, "4.1", result.Records[0].Derived.Co2eKg)
}

func TestImport_AllRowsRejected(t *testing.T) {
	f := newFixture(t)

	result, err := f.ledger.Import(context.Background(), f.company.ID,
		strings.NewReader("date,totalKwh\nyesterday,1\n"))

	assert.True(t, generic.IsPartialImport(err))
	assert.False(t, result.Success)
	assert.Zero(t, result.RecordsImported)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 2, result.Rejected[0].Row)
}

func TestImport_MissingRequiredColumn(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Import(context.Background(), f.company.ID,
		strings.NewReader("date,kwh\n2025-03-01,1\n"))

	assert.True(t, generic.IsClientError(err))
}

func TestImport_EmptyFile(t *testing.T) {
	f := newFixture(t)

	result, err := f.ledger.Import(context.Background(), f.company.ID, strings.NewReader(""))

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Zero(t, result.RecordsImported)
}

func TestImport_UnknownCompany(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Import(context.Background(), "missing", strings.NewReader("date,totalKwh\n"))

	assert.True(t, generic.IsNotFound(err))
}
