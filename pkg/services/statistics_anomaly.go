package services

import (
	"ai-sales-report/pkg/models"
)

// IQRルールの係数
const iqrMultiplier = 1.5

// DetectOutliers IQRルールで外れ値を検知する。
// total < Q1 - 1.5*IQR または total > Q3 + 1.5*IQR のレコードを外れ値とする。
func (s *StatisticsService) DetectOutliers(records []models.SaleRecord) models.OutlierStats {
	totals := make([]float64, len(records))
	for i, r := range records {
		totals[i] = r.Total
	}
	sorted := sortedCopy(totals)

	q1 := calculateQuantile(sorted, 0.25)
	q3 := calculateQuantile(sorted, 0.75)
	iqr := q3 - q1
	stats := models.OutlierStats{
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		LowerFence: q1 - iqrMultiplier*iqr,
		UpperFence: q3 + iqrMultiplier*iqr,
		OrderIDs:   []int{},
	}

	for _, r := range records {
		if r.Total < stats.LowerFence || r.Total > stats.UpperFence {
			stats.OrderIDs = append(stats.OrderIDs, r.OrderID)
		}
	}
	stats.Count = len(stats.OrderIDs)

	return stats
}
