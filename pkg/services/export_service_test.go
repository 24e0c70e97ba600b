package services

import (
	"path/filepath"
	"testing"

	"ai-sales-report/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

func TestExportServiceExport(t *testing.T) {
	ds := fixtureDataset()
	facts, err := NewStatisticsService(nil).Summarize(ds)
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := NewExportService(dir, zaptest.NewLogger(t)).Export(ds, facts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, WorkbookFileName), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Sales", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Sales")
	require.NoError(t, err)
	require.Len(t, rows, len(ds.Records)+1)
	assert.Equal(t, "order_id", rows[0][0])
	assert.Equal(t, "1000", rows[1][0])
	assert.Equal(t, "Classic Cars", rows[1][2])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	values := make(map[string]string)
	for _, row := range summary {
		if len(row) == 2 {
			values[row[0]] = row[1]
		}
	}
	assert.Equal(t, "5", values["transactions"])
	assert.Equal(t, "1", values["outliers"])
	assert.Equal(t, facts.Recommendation, values["recommendation"])
}

func TestExportServiceEmptyDataset(t *testing.T) {
	_, err := NewExportService(t.TempDir(), nil).Export(models.SaleDataset{}, &models.SummaryFacts{})
	assert.ErrorIs(t, err, ErrEmptyDataset)
}
