package services

import (
	"fmt"
	"os"
	"path/filepath"

	"ai-sales-report/pkg/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// WorkbookFileName 出力するワークブックのファイル名
const WorkbookFileName = "sales_report.xlsx"

const (
	salesSheet   = "Sales"
	summarySheet = "Summary"
)

var salesHeader = []interface{}{"order_id", "date", "product", "quantity", "unit_price", "region", "country", "total_sales"}

// ExportService データセットとSummary FactsをExcelワークブックに書き出すサービス
type ExportService struct {
	outputDir string
	logger    *zap.Logger
}

// NewExportService 新しいExportServiceを作成
func NewExportService(outputDir string, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{outputDir: outputDir, logger: logger}
}

// OutputDir 出力先ディレクトリ
func (e *ExportService) OutputDir() string {
	return e.outputDir
}

// Export Sales / Summary の2シートを持つワークブックを保存し、そのパスを返す
func (e *ExportService) Export(ds models.SaleDataset, facts *models.SummaryFacts) (string, error) {
	return e.ExportTo(e.outputDir, ds, facts)
}

// ExportTo Exportと同じワークブックを指定ディレクトリに保存する
func (e *ExportService) ExportTo(dir string, ds models.SaleDataset, facts *models.SummaryFacts) (string, error) {
	if len(ds.Records) == 0 {
		return "", ErrEmptyDataset
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		return "", fmt.Errorf("シート名の変更に失敗: %w", err)
	}
	if err := writeSalesSheet(f, ds.Records); err != nil {
		return "", err
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return "", fmt.Errorf("Summaryシートの作成に失敗: %w", err)
	}
	if err := writeSummarySheet(f, ds, facts); err != nil {
		return "", err
	}

	path := filepath.Join(dir, WorkbookFileName)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("ワークブックの保存に失敗: %w", err)
	}

	e.logger.Info("📊 [エクスポート] ワークブックを保存しました",
		zap.String("path", path),
		zap.Int("records", len(ds.Records)),
	)
	return path, nil
}

func writeSalesSheet(f *excelize.File, records []models.SaleRecord) error {
	if err := f.SetSheetRow(salesSheet, "A1", &salesHeader); err != nil {
		return fmt.Errorf("ヘッダー行の書き込みに失敗: %w", err)
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{r.OrderID, r.Date, r.Product, r.Quantity, r.UnitPrice, r.Region, r.Country, r.Total}
		if err := f.SetSheetRow(salesSheet, cell, &row); err != nil {
			return fmt.Errorf("%d行目の書き込みに失敗: %w", i+2, err)
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, ds models.SaleDataset, facts *models.SummaryFacts) error {
	rows := [][]interface{}{
		{"metric", "value"},
		{"run_id", ds.RunID},
		{"transactions", facts.RecordCount},
		{"average", facts.Average},
		{"median", facts.Median},
		{"mode", FormatMode(facts.Mode)},
		{"max", fmt.Sprintf("%.2f (order %d, %s, %s)", facts.Max.Total, facts.Max.OrderID, facts.Max.Product, facts.Max.Country)},
		{"min", fmt.Sprintf("%.2f (order %d, %s, %s)", facts.Min.Total, facts.Min.OrderID, facts.Min.Product, facts.Min.Country)},
		{"q1", facts.Outliers.Q1},
		{"q3", facts.Outliers.Q3},
		{"iqr", facts.Outliers.IQR},
		{"lower_fence", facts.Outliers.LowerFence},
		{"upper_fence", facts.Outliers.UpperFence},
		{"outliers", facts.Outliers.Count},
	}
	for i, g := range facts.TopProducts {
		rows = append(rows, []interface{}{fmt.Sprintf("top_product_%d", i+1), fmt.Sprintf("%s (%.2f)", g.Label, g.Total)})
	}
	for i, g := range facts.TopCountries {
		rows = append(rows, []interface{}{fmt.Sprintf("top_country_%d", i+1), fmt.Sprintf("%s (%.2f)", g.Label, g.Total)})
	}
	rows = append(rows, []interface{}{"recommendation", facts.Recommendation})

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("Summaryシートの書き込みに失敗: %w", err)
		}
	}
	return nil
}
