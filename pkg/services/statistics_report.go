package services

import (
	"fmt"
	"strings"

	"ai-sales-report/pkg/models"
)

// FormatSummary Summary Factsをメール本文・プロンプト用の箇条書きに整形
func FormatSummary(facts *models.SummaryFacts) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("- Transactions: %d\n", facts.RecordCount))
	sb.WriteString(fmt.Sprintf("- Average sale value: $%.2f\n", facts.Average))
	sb.WriteString(fmt.Sprintf("- Median: $%.2f\n", facts.Median))
	sb.WriteString(fmt.Sprintf("- Mode: %s\n", FormatMode(facts.Mode)))
	sb.WriteString(fmt.Sprintf("- Max: $%.2f (%s in %s)\n", facts.Max.Total, facts.Max.Product, facts.Max.Country))
	sb.WriteString(fmt.Sprintf("- Min: $%.2f (%s in %s)\n", facts.Min.Total, facts.Min.Product, facts.Min.Country))
	sb.WriteString(fmt.Sprintf("- Top products: %s\n", formatGroups(facts.TopProducts)))
	sb.WriteString(fmt.Sprintf("- Top countries: %s\n", formatGroups(facts.TopCountries)))
	sb.WriteString(fmt.Sprintf("- Outliers (IQR rule): %d\n", facts.Outliers.Count))
	sb.WriteString(fmt.Sprintf("- Recommendation: %s", facts.Recommendation))

	return sb.String()
}

// FormatMode 最頻値が無い場合は "No unique mode" を返す
func FormatMode(mode models.ModeResult) string {
	if !mode.Unique {
		return models.NoUniqueMode
	}
	return fmt.Sprintf("$%.2f", mode.Value)
}

func formatGroups(groups []models.GroupTotal) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = fmt.Sprintf("%s ($%.2f)", g.Label, g.Total)
	}
	return strings.Join(parts, ", ")
}
