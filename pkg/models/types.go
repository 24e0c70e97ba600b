package models

import "time"

// 商品・地域・国の固定カテゴリ
var (
	Products  = []string{"Classic Cars", "Vintage Cars", "Motorcycles", "Planes", "Ships"}
	Regions   = []string{"North", "South", "East", "West"}
	Countries = []string{"USA", "Spain", "France", "Germany", "India"}
)

// NoUniqueMode is printed when every total in the dataset is distinct.
const NoUniqueMode = "No unique mode"

// SaleRecord represents a single simulated sales transaction.
// Total is always round(Quantity * UnitPrice, 2).
type SaleRecord struct {
	OrderID   int     `json:"order_id"`
	Date      string  `json:"date"`
	Product   string  `json:"product"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Total     float64 `json:"total_sales"`
}

// SaleDataset represents the records produced by one run.
type SaleDataset struct {
	RunID   string       `json:"run_id"`
	RunDate time.Time    `json:"run_date"`
	Records []SaleRecord `json:"records"`
}

// Totals 全レコードの売上合計をデータセット順で返す
func (d SaleDataset) Totals() []float64 {
	totals := make([]float64, len(d.Records))
	for i, r := range d.Records {
		totals[i] = r.Total
	}
	return totals
}

// Sample 先頭からlimit件のレコードを返す（limit <= 0 の場合は空）
func (d SaleDataset) Sample(limit int) []SaleRecord {
	if limit <= 0 {
		return nil
	}
	if limit > len(d.Records) {
		limit = len(d.Records)
	}
	return d.Records[:limit]
}

// ModeResult holds the most frequent total.
// Unique is false when no total occurs more than once.
type ModeResult struct {
	Value  float64 `json:"value"`
	Unique bool    `json:"unique"`
}

// ExtremeSale 最大・最小の売上とその取引情報
type ExtremeSale struct {
	OrderID int     `json:"order_id"`
	Total   float64 `json:"total"`
	Product string  `json:"product"`
	Country string  `json:"country"`
}

// GroupTotal represents the summed sales of one product or country.
type GroupTotal struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// OutlierStats IQRルールによる外れ値判定の結果
type OutlierStats struct {
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	LowerFence float64 `json:"lower_fence"`
	UpperFence float64 `json:"upper_fence"`
	Count      int     `json:"count"`
	OrderIDs   []int   `json:"order_ids"`
}

// SummaryFacts represents the statistical digest of a SaleDataset.
type SummaryFacts struct {
	RecordCount    int          `json:"record_count"`
	Average        float64      `json:"average"`
	Median         float64      `json:"median"`
	Mode           ModeResult   `json:"mode"`
	Min            ExtremeSale  `json:"min"`
	Max            ExtremeSale  `json:"max"`
	TopProducts    []GroupTotal `json:"top_products"`
	TopCountries   []GroupTotal `json:"top_countries"`
	Outliers       OutlierStats `json:"outliers"`
	Recommendation string       `json:"recommendation"`
}

// ChartArtifact represents a rendered chart image on disk.
type ChartArtifact struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ReportMessage メール送信用のメッセージ
type ReportMessage struct {
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
}

// Report represents the composed output of one pipeline run.
type Report struct {
	RunID        string          `json:"run_id"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Facts        *SummaryFacts   `json:"facts"`
	SummaryText  string          `json:"summary_text"`
	Narrative    string          `json:"narrative"`
	Placeholder  bool            `json:"placeholder_narrative"`
	Charts       []ChartArtifact `json:"charts"`
	WorkbookPath string          `json:"workbook_path,omitempty"`
	Message      ReportMessage   `json:"message"`
	Dispatched   bool            `json:"dispatched"`
}

// ReportRequest represents the body of the report API endpoints.
type ReportRequest struct {
	Records          int    `json:"records,omitempty"`
	Seed             *int64 `json:"seed,omitempty"`
	IncludeNarrative *bool  `json:"include_narrative,omitempty"`
}

// GenerationParams テキスト生成のパラメータ
type GenerationParams struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	DoSample     bool    `json:"do_sample"`
	Temperature  float32 `json:"temperature"`
}
