package model

import "encoding/json"

// Risk levels
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Risk factor names. The set is fixed.
const (
	FactorDeveloper = "developer"
	FactorTimeline  = "timeline"
	FactorPrice     = "price"
	FactorLocation  = "location"
	FactorLiquidity = "liquidity"
)

var FactorNames = []string{FactorDeveloper, FactorTimeline, FactorPrice, FactorLocation, FactorLiquidity}

type RiskFactor struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

type RiskFactors struct {
	Developer RiskFactor `json:"developer"`
	Timeline  RiskFactor `json:"timeline"`
	Price     RiskFactor `json:"price"`
	Location  RiskFactor `json:"location"`
	Liquidity RiskFactor `json:"liquidity"`
}

// RiskAssessment is stored per property id and replaced wholesale.
type RiskAssessment struct {
	OverallRisk     float64     `json:"overallRisk"`
	RiskLevel       RiskLevel   `json:"riskLevel"`
	Factors         RiskFactors `json:"factors"`
	Summary         string      `json:"summary"`
	Recommendations []string    `json:"recommendations"`
}

// ClassifyRisk maps a 0-100 score onto the three bands.
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score <= 35:
		return RiskLow
	case score <= 60:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Normalize clamps scores into 0-100 and derives the level from the overall score.
func (r *RiskAssessment) Normalize() {
	r.OverallRisk = clampScore(r.OverallRisk)
	r.RiskLevel = ClassifyRisk(r.OverallRisk)
	for _, f := range r.factorPtrs() {
		f.Score = clampScore(f.Score)
	}
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
}

// Factor looks a factor up by name.
func (r *RiskAssessment) Factor(name string) (RiskFactor, bool) {
	for n, f := range r.factorPtrs() {
		if n == name {
			return *f, true
		}
	}
	return RiskFactor{}, false
}

func (r *RiskAssessment) factorPtrs() map[string]*RiskFactor {
	return map[string]*RiskFactor{
		FactorDeveloper: &r.Factors.Developer,
		FactorTimeline:  &r.Factors.Timeline,
		FactorPrice:     &r.Factors.Price,
		FactorLocation:  &r.Factors.Location,
		FactorLiquidity: &r.Factors.Liquidity,
	}
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// CorrectionResult is what the model decides about a free-text correction.
type CorrectionResult struct {
	Updates       map[string]json.RawMessage `json:"updates"`
	Explanation   string                     `json:"explanation"`
	AffectsRisk   bool                       `json:"affectsRisk"`
	FieldsChanged []string                   `json:"fieldsChanged"`
}

// HasUpdates is false when the model found nothing to change.
func (c CorrectionResult) HasUpdates() bool {
	return len(c.Updates) > 0
}
