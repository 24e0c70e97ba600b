package services

import (
	"math"
	"sort"

	"ai-sales-report/pkg/models"
)

// calculateMean パッケージ内部用のヘルパー関数：平均値を計算
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateMedian 中央値を計算（偶数件の場合は中央2値の平均）
func calculateMedian(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := sortedCopy(values)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// calculateMode 最頻値を計算。
// 出現回数が同じ場合はデータ順で先に現れた値を採用し、
// すべての値が1回しか出現しない場合は Unique=false を返す。
func calculateMode(values []float64) models.ModeResult {
	counts := make(map[float64]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best := 0
	var mode float64
	for _, v := range values {
		if counts[v] > best {
			best = counts[v]
			mode = v
		}
	}

	if best <= 1 {
		return models.ModeResult{Unique: false}
	}
	return models.ModeResult{Value: mode, Unique: true}
}

// calculateQuantile ソート済みの値から分位点を線形補間で求める。
// 位置は (n-1)*p（pandas/NumPyのデフォルトと同じ方式）。
func calculateQuantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted
}
