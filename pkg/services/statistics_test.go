package services

import (
	"errors"
	"testing"

	"ai-sales-report/pkg/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fixtureDataset 合計値が既知の5件のデータセット
func fixtureDataset() models.SaleDataset {
	rec := func(id int, product string, qty int, price float64, region, country string) models.SaleRecord {
		return models.SaleRecord{
			OrderID: id, Date: "2026-10-14", Product: product, Quantity: qty, UnitPrice: price,
			Region: region, Country: country, Total: LineTotal(qty, price),
		}
	}
	return models.SaleDataset{
		RunID: "fixture",
		Records: []models.SaleRecord{
			rec(1000, "Classic Cars", 2, 1000.00, "North", "USA"),
			rec(1001, "Planes", 1, 3500.00, "West", "Germany"),
			rec(1002, "Ships", 3, 500.50, "East", "India"),
			rec(1003, "Planes", 2, 1000.00, "South", "USA"),
			rec(1004, "Motorcycles", 5, 1200.00, "North", "France"),
		},
	}
}

func datasetWithTotals(totals ...float64) models.SaleDataset {
	ds := models.SaleDataset{RunID: "totals"}
	for i, total := range totals {
		ds.Records = append(ds.Records, models.SaleRecord{
			OrderID: 1000 + i, Product: models.Products[i%len(models.Products)],
			Country: models.Countries[i%len(models.Countries)], Quantity: 1, UnitPrice: total, Total: total,
		})
	}
	return ds
}

func TestSummarizeFixture(t *testing.T) {
	service := NewStatisticsService(zaptest.NewLogger(t))

	got, err := service.Summarize(fixtureDataset())
	require.NoError(t, err)

	want := &models.SummaryFacts{
		RecordCount: 5,
		Average:     3000.3,
		Median:      2000,
		Mode:        models.ModeResult{Value: 2000, Unique: true},
		Min:         models.ExtremeSale{OrderID: 1002, Total: 1501.5, Product: "Ships", Country: "India"},
		Max:         models.ExtremeSale{OrderID: 1004, Total: 6000, Product: "Motorcycles", Country: "France"},
		TopProducts: []models.GroupTotal{
			{Label: "Motorcycles", Total: 6000, Count: 1},
			{Label: "Planes", Total: 5500, Count: 2},
			{Label: "Classic Cars", Total: 2000, Count: 1},
		},
		TopCountries: []models.GroupTotal{
			{Label: "France", Total: 6000, Count: 1},
			{Label: "USA", Total: 4000, Count: 2},
			{Label: "Germany", Total: 3500, Count: 1},
		},
		Outliers: models.OutlierStats{
			Q1: 2000, Q3: 3500, IQR: 1500, LowerFence: -250, UpperFence: 5750,
			Count: 1, OrderIDs: []int{1004},
		},
		Recommendation: "Focus on Motorcycles, the top-selling product, and prioritize France, the strongest market. " +
			"Review 1 outlier transaction(s) before forecasting.",
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Summarize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeDistinctTotalsReportsNoUniqueMode(t *testing.T) {
	service := NewStatisticsService(nil)

	facts, err := service.Summarize(datasetWithTotals(100, 200, 300, 400))
	require.NoError(t, err)
	assert.False(t, facts.Mode.Unique)
	assert.Equal(t, models.NoUniqueMode, FormatMode(facts.Mode))
}

func TestSummarizeSingleRecord(t *testing.T) {
	service := NewStatisticsService(nil)

	facts, err := service.Summarize(datasetWithTotals(1234.56))
	require.NoError(t, err)
	assert.Equal(t, 1234.56, facts.Average)
	assert.Equal(t, 1234.56, facts.Median)
	assert.Equal(t, 1234.56, facts.Min.Total)
	assert.Equal(t, 1234.56, facts.Max.Total)
	assert.Equal(t, 0, facts.Outliers.Count)
}

func TestSummarizeEmptyDataset(t *testing.T) {
	service := NewStatisticsService(nil)

	_, err := service.Summarize(models.SaleDataset{})
	assert.True(t, errors.Is(err, ErrEmptyDataset))
}

func TestSummarizeMinMaxTiesKeepFirstOccurrence(t *testing.T) {
	service := NewStatisticsService(nil)

	facts, err := service.Summarize(datasetWithTotals(50, 10, 90, 10, 90))
	require.NoError(t, err)
	assert.Equal(t, 1001, facts.Min.OrderID)
	assert.Equal(t, 1002, facts.Max.OrderID)
}

func TestDetectOutliers(t *testing.T) {
	service := NewStatisticsService(nil)

	stats := service.DetectOutliers(datasetWithTotals(10, 12, 11, 13, 1000).Records)
	assert.Equal(t, 11.0, stats.Q1)
	assert.Equal(t, 13.0, stats.Q3)
	assert.Equal(t, 2.0, stats.IQR)
	assert.Equal(t, 1, stats.Count)
	assert.Equal(t, []int{1004}, stats.OrderIDs)
}

func TestTopRankingIsStable(t *testing.T) {
	service := NewStatisticsService(nil)
	records := []models.SaleRecord{
		{OrderID: 1, Product: "Ships", Country: "India", Total: 100},
		{OrderID: 2, Product: "Planes", Country: "Spain", Total: 100},
		{OrderID: 3, Product: "Motorcycles", Country: "USA", Total: 300},
		{OrderID: 4, Product: "Vintage Cars", Country: "France", Total: 100},
	}

	first := service.TopProducts(records)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, service.TopProducts(records))
	}

	labels := make([]string, len(first))
	for i, g := range first {
		labels[i] = g.Label
	}
	// 同額の場合はデータ順で先に現れたグループが先
	assert.Equal(t, []string{"Motorcycles", "Ships", "Planes"}, labels)
}

func TestCalculateQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, calculateQuantile(sorted, 0.25), 1e-9)
	assert.InDelta(t, 3.25, calculateQuantile(sorted, 0.75), 1e-9)
	assert.Equal(t, 5.0, calculateQuantile([]float64{5}, 0.25))
}

func TestCalculateMedianEven(t *testing.T) {
	assert.Equal(t, 2.5, calculateMedian([]float64{4, 1, 3, 2}))
}

func TestFormatSummary(t *testing.T) {
	service := NewStatisticsService(nil)
	facts, err := service.Summarize(fixtureDataset())
	require.NoError(t, err)

	text := FormatSummary(facts)
	assert.Contains(t, text, "- Average sale value: $3000.30")
	assert.Contains(t, text, "- Median: $2000.00")
	assert.Contains(t, text, "- Mode: $2000.00")
	assert.Contains(t, text, "- Max: $6000.00 (Motorcycles in France)")
	assert.Contains(t, text, "- Min: $1501.50 (Ships in India)")
	assert.Contains(t, text, "- Top products: Motorcycles ($6000.00), Planes ($5500.00), Classic Cars ($2000.00)")
	assert.Contains(t, text, "- Outliers (IQR rule): 1")
}
