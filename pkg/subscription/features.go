package subscription

import "strings"

type PlanType string
type Feature string

const (
	FreePlan  PlanType = "free"
	ProPlan   PlanType = "pro"
	ElitePlan PlanType = "elite"
)

const (
	DocumentArchive Feature = "document_archive"
)

// PlanLimits is reported by /api/me. MaxAnalysesPerMonth is informational:
// analyses are not counted.
type PlanLimits struct {
	MaxAnalysesPerMonth int              `json:"maxAnalysesPerMonth"`
	AllowedFeatures     map[Feature]bool `json:"features"`
}

var PlanFeatures = map[PlanType]PlanLimits{
	FreePlan: {
		MaxAnalysesPerMonth: 10,
		AllowedFeatures: map[Feature]bool{
			DocumentArchive: false,
		},
	},
	ProPlan: {
		MaxAnalysesPerMonth: 100,
		AllowedFeatures: map[Feature]bool{
			DocumentArchive: true,
		},
	},
	ElitePlan: {
		MaxAnalysesPerMonth: 1000,
		AllowedFeatures: map[Feature]bool{
			DocumentArchive: true,
		},
	},
}

func CanUseFeature(plan PlanType, feature Feature) bool {
	limits, exists := PlanFeatures[plan]
	if !exists {
		return false
	}
	return limits.AllowedFeatures[feature]
}

// GetPlanLimits falls back to the free tier for unknown plans.
func GetPlanLimits(plan PlanType) PlanLimits {
	if limits, ok := PlanFeatures[plan]; ok {
		return limits
	}
	return PlanFeatures[FreePlan]
}

// ParsePlan maps a stored plan name onto a PlanType; anything unknown is free.
func ParsePlan(name string) PlanType {
	switch PlanType(strings.ToLower(strings.TrimSpace(name))) {
	case ProPlan:
		return ProPlan
	case ElitePlan:
		return ElitePlan
	default:
		return FreePlan
	}
}
