package services

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"ai-sales-report/pkg/models"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// 出力ディレクトリ内のチャートのファイル名
const (
	ChartSalesByProduct      = "sales_by_product.png"
	ChartProductSalesRegion  = "product_sales_by_region.png"
	ChartSalesDistributionBy = "sales_distribution_by_product.png"
)

const (
	chartWidth  = 8 * vg.Inch
	chartHeight = 5 * vg.Inch
)

// ChartService データセットからチャート画像を生成するサービス
type ChartService struct {
	outputDir string
	logger    *zap.Logger
}

// NewChartService 新しいChartServiceを作成
func NewChartService(outputDir string, logger *zap.Logger) *ChartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartService{outputDir: outputDir, logger: logger}
}

type chartJob struct {
	name   string
	file   string
	render func(ds models.SaleDataset) (*plot.Plot, error)
}

// OutputDir 出力先ディレクトリ
func (c *ChartService) OutputDir() string {
	return c.outputDir
}

// Render 3種類のチャートを出力ディレクトリに描画する。
// 1つのチャートが失敗しても残りは描画し、描画できたものと失敗をまとめて返す。
func (c *ChartService) Render(ds models.SaleDataset) ([]models.ChartArtifact, error) {
	return c.RenderTo(c.outputDir, ds)
}

// RenderTo Renderと同じチャートを指定ディレクトリに描画する
func (c *ChartService) RenderTo(dir string, ds models.SaleDataset) ([]models.ChartArtifact, error) {
	if len(ds.Records) == 0 {
		return nil, ErrEmptyDataset
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &RenderError{Failed: []string{dir}, Cause: fmt.Errorf("出力ディレクトリの作成に失敗: %w", err)}
	}

	jobs := []chartJob{
		{name: "Sales by Product", file: ChartSalesByProduct, render: salesByProductPlot},
		{name: "Product Sales by Region", file: ChartProductSalesRegion, render: productSalesByRegionPlot},
		{name: "Sales Distribution per Product", file: ChartSalesDistributionBy, render: salesDistributionPlot},
	}

	var artifacts []models.ChartArtifact
	var failed []string
	var errs error
	for _, job := range jobs {
		path := filepath.Join(dir, job.file)
		if err := renderOne(job, ds, path); err != nil {
			c.logger.Error("❌ [チャート] 描画に失敗しました", zap.String("chart", job.name), zap.Error(err))
			failed = append(failed, job.name)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", job.name, err))
			continue
		}
		c.logger.Info("🖼️ [チャート] 描画しました", zap.String("chart", job.name), zap.String("path", path))
		artifacts = append(artifacts, models.ChartArtifact{Name: job.name, Path: path})
	}

	if errs != nil {
		return artifacts, &RenderError{Failed: failed, Cause: errs}
	}
	return artifacts, nil
}

func renderOne(job chartJob, ds models.SaleDataset, path string) (err error) {
	// プロット描画中のpanicは該当チャートの失敗として扱う
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("描画中にpanicが発生: %v", r)
		}
	}()

	p, err := job.render(ds)
	if err != nil {
		return err
	}
	return p.Save(chartWidth, chartHeight, path)
}

// presentLabels カテゴリ順のうちデータに存在するものだけを返す
func presentLabels(records []models.SaleRecord, order []string, key func(models.SaleRecord) string) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		seen[key(r)] = true
	}
	labels := make([]string, 0, len(order))
	for _, label := range order {
		if seen[label] {
			labels = append(labels, label)
		}
	}
	return labels
}

func salesByProductPlot(ds models.SaleDataset) (*plot.Plot, error) {
	products := presentLabels(ds.Records, models.Products, byProduct)
	sums := make(map[string]float64)
	for _, r := range ds.Records {
		sums[r.Product] += r.Total
	}

	values := make(plotter.Values, len(products))
	for i, product := range products {
		values[i] = sums[product]
	}

	p := plot.New()
	p.Title.Text = "Total Sales by Product"
	p.Y.Label.Text = "Total Sales"

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return nil, err
	}
	bars.Color = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	p.Add(bars)
	p.NominalX(products...)

	return p, nil
}

func productSalesByRegionPlot(ds models.SaleDataset) (*plot.Plot, error) {
	products := presentLabels(ds.Records, models.Products, byProduct)
	regions := presentLabels(ds.Records, models.Regions, byRegion)

	sums := make(map[string]map[string]float64)
	for _, r := range ds.Records {
		if sums[r.Region] == nil {
			sums[r.Region] = make(map[string]float64)
		}
		sums[r.Region][r.Product] += r.Total
	}

	p := plot.New()
	p.Title.Text = "Product Sales by Region"
	p.Y.Label.Text = "Total Sales"
	p.Legend.Top = true

	barWidth := vg.Points(12)
	for i, region := range regions {
		values := make(plotter.Values, len(products))
		for j, product := range products {
			values[j] = sums[region][product]
		}

		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return nil, err
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = vg.Length(0)
		// 地域ごとに横にずらしてグループ化する
		bars.Offset = barWidth * vg.Length(float64(i)-float64(len(regions)-1)/2)
		p.Add(bars)
		p.Legend.Add(region, bars)
	}
	p.NominalX(products...)

	return p, nil
}

func salesDistributionPlot(ds models.SaleDataset) (*plot.Plot, error) {
	products := presentLabels(ds.Records, models.Products, byProduct)
	totals := make(map[string]plotter.Values)
	for _, r := range ds.Records {
		totals[r.Product] = append(totals[r.Product], r.Total)
	}

	p := plot.New()
	p.Title.Text = "Sales Distribution per Product"
	p.Y.Label.Text = "Transaction Total"

	for i, product := range products {
		box, err := plotter.NewBoxPlot(vg.Points(25), float64(i), totals[product])
		if err != nil {
			return nil, err
		}
		p.Add(box)
	}
	p.NominalX(products...)

	return p, nil
}
