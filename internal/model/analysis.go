package model

import "fmt"

// AnalysisKind selects one of the fixed free-form analysis templates.
type AnalysisKind string

const (
	AnalysisOverview   AnalysisKind = "overview"
	AnalysisNews       AnalysisKind = "news"
	AnalysisGrowth     AnalysisKind = "growth"
	AnalysisRisks      AnalysisKind = "risks"
	AnalysisComparison AnalysisKind = "comparison"
	AnalysisTimeline   AnalysisKind = "timeline"
)

var AnalysisKinds = []AnalysisKind{
	AnalysisOverview, AnalysisNews, AnalysisGrowth,
	AnalysisRisks, AnalysisComparison, AnalysisTimeline,
}

func ParseAnalysisKind(s string) (AnalysisKind, error) {
	for _, k := range AnalysisKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown analysis type %q", s)
}
