package services

import (
	"fmt"

	"ai-sales-report/pkg/models"

	"go.uber.org/zap"
)

// StatisticsService 統計分析サービス
type StatisticsService struct {
	logger *zap.Logger
}

// NewStatisticsService 新しい統計分析サービスを作成
func NewStatisticsService(logger *zap.Logger) *StatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatisticsService{logger: logger}
}

// Summarize データセット全体からSummary Factsを算出する。
// 空のデータセットは呼び出し側の前提違反として ErrEmptyDataset を返す。
func (s *StatisticsService) Summarize(ds models.SaleDataset) (*models.SummaryFacts, error) {
	if len(ds.Records) == 0 {
		return nil, ErrEmptyDataset
	}

	totals := ds.Totals()
	facts := &models.SummaryFacts{
		RecordCount:  len(ds.Records),
		Average:      calculateMean(totals),
		Median:       calculateMedian(totals),
		Mode:         calculateMode(totals),
		Min:          extremeOf(ds.Records, func(candidate, current float64) bool { return candidate < current }),
		Max:          extremeOf(ds.Records, func(candidate, current float64) bool { return candidate > current }),
		TopProducts:  s.TopProducts(ds.Records),
		TopCountries: s.TopCountries(ds.Records),
		Outliers:     s.DetectOutliers(ds.Records),
	}
	facts.Recommendation = s.Recommend(facts)

	if !facts.Mode.Unique {
		s.logger.Debug("[統計] 最頻値なし（すべての売上が一意）", zap.Int("records", facts.RecordCount))
	}
	s.logger.Info("📊 [統計] サマリーを算出しました",
		zap.String("run_id", ds.RunID),
		zap.Int("records", facts.RecordCount),
		zap.Float64("average", facts.Average),
		zap.Int("outliers", facts.Outliers.Count),
	)

	return facts, nil
}

// extremeOf better(candidate, current) が真のときだけ更新するので、同値の場合は最初の行が残る
func extremeOf(records []models.SaleRecord, better func(candidate, current float64) bool) models.ExtremeSale {
	best := records[0]
	for _, r := range records[1:] {
		if better(r.Total, best.Total) {
			best = r
		}
	}
	return models.ExtremeSale{
		OrderID: best.OrderID,
		Total:   best.Total,
		Product: best.Product,
		Country: best.Country,
	}
}

// Recommend サマリーから推奨アクションの文章を生成
func (s *StatisticsService) Recommend(facts *models.SummaryFacts) string {
	if len(facts.TopProducts) == 0 || len(facts.TopCountries) == 0 {
		return "Collect more sales data before acting on trends."
	}

	rec := fmt.Sprintf("Focus on %s, the top-selling product, and prioritize %s, the strongest market.",
		facts.TopProducts[0].Label, facts.TopCountries[0].Label)
	if facts.Outliers.Count > 0 {
		rec += fmt.Sprintf(" Review %d outlier transaction(s) before forecasting.", facts.Outliers.Count)
	}
	return rec
}
