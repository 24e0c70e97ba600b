package services

import (
	"sort"

	"ai-sales-report/pkg/models"
)

// 上位ランキングの件数
const topN = 3

// rankGroups keyでグループ化して売上合計の降順に並べ、上位limit件を返す。
// 合計が同じ場合はデータセット内で先に現れたグループを優先する（安定ソート）。
func rankGroups(records []models.SaleRecord, key func(models.SaleRecord) string, limit int) []models.GroupTotal {
	index := make(map[string]int)
	groups := make([]models.GroupTotal, 0)

	for _, r := range records {
		label := key(r)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, models.GroupTotal{Label: label})
		}
		groups[i].Total += r.Total
		groups[i].Count++
	}

	for i := range groups {
		groups[i].Total = roundCents(groups[i].Total)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Total > groups[j].Total
	})

	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

func byProduct(r models.SaleRecord) string { return r.Product }

func byCountry(r models.SaleRecord) string { return r.Country }

func byRegion(r models.SaleRecord) string { return r.Region }

// TopProducts 商品別売上の上位3件
func (s *StatisticsService) TopProducts(records []models.SaleRecord) []models.GroupTotal {
	return rankGroups(records, byProduct, topN)
}

// TopCountries 国別売上の上位3件
func (s *StatisticsService) TopCountries(records []models.SaleRecord) []models.GroupTotal {
	return rankGroups(records, byCountry, topN)
}
