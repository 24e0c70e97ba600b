package services

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"ai-sales-report/pkg/models"

	"github.com/google/uuid"
)

const (
	firstOrderID = 1000
	minUnitPrice = 500.0
	maxUnitPrice = 5000.0
	maxQuantity  = 5
)

// SalesSimulator 擬似的な売上データを生成する
type SalesSimulator struct {
	rng   *rand.Rand
	clock func() time.Time
}

// NewSalesSimulator 新しいSalesSimulatorを作成。
// seedがnilの場合は現在時刻をシードに使う（実行ごとに結果が変わる）。
func NewSalesSimulator(seed *int64, clock func() time.Time) *SalesSimulator {
	if clock == nil {
		clock = time.Now
	}
	s := clock().UnixNano()
	if seed != nil {
		s = *seed
	}
	return &SalesSimulator{
		rng:   rand.New(rand.NewPCG(uint64(s), uint64(s)^0x9e3779b97f4a7c15)),
		clock: clock,
	}
}

// Generate n件のレコードを持つデータセットを生成
func (s *SalesSimulator) Generate(n int) (models.SaleDataset, error) {
	if n < 1 {
		return models.SaleDataset{}, fmt.Errorf("生成件数は1以上である必要があります: %d", n)
	}

	runDate := s.clock()
	today := runDate.Format("2006-01-02")
	records := make([]models.SaleRecord, n)

	for i := 0; i < n; i++ {
		quantity := s.rng.IntN(maxQuantity) + 1
		unitPrice := roundCents(minUnitPrice + s.rng.Float64()*(maxUnitPrice-minUnitPrice))
		records[i] = models.SaleRecord{
			OrderID:   firstOrderID + i,
			Date:      today,
			Product:   pick(s.rng, models.Products),
			Quantity:  quantity,
			UnitPrice: unitPrice,
			Region:    pick(s.rng, models.Regions),
			Country:   pick(s.rng, models.Countries),
			Total:     LineTotal(quantity, unitPrice),
		}
	}

	return models.SaleDataset{
		RunID:   uuid.NewString(),
		RunDate: runDate,
		Records: records,
	}, nil
}

// LineTotal 数量×単価を小数点以下2桁に丸める
func LineTotal(quantity int, unitPrice float64) float64 {
	return roundCents(float64(quantity) * unitPrice)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.IntN(len(options))]
}
