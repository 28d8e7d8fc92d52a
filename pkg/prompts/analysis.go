package prompts

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"propertylens_backend/internal/model"
	"propertylens_backend/pkg/i18n"
)

// Analysis builds the free-form analysis prompt for one of the fixed kinds.
// Unknown kinds get the overview template.
func Analysis(kind model.AnalysisKind, p model.Property, lang string, now time.Time) string {
	today := now.Format("2 January 2006")
	currency := model.CurrencyFor(p.Location)
	extra := extraContext(p)
	corrections := correctionsContext(p)
	reply := i18n.Instruction(lang)

	switch kind {
	case model.AnalysisNews:
		return fmt.Sprintf("Today is %s. Find the latest news about the %s area and the developer %s.%s %s Maximum 500 words.",
			today, p.Location, p.Developer, corrections, reply)
	case model.AnalysisGrowth:
		return fmt.Sprintf("Today is %s. Analyze the capital growth potential of real estate in %s. Price: %s %s, size: %s sq.ft, completion: %s.%s%s Forecast for 3-5 years. %s",
			today, p.Location, FormatNumber(p.Price), currency, FormatNumber(p.Size), p.Completion, extra, corrections, reply)
	case model.AnalysisRisks:
		return fmt.Sprintf("Today is %s. Assess the investment risks of %s in %s. Developer: %s. Completion: %s.%s%s %s",
			today, p.Name, p.Location, p.Developer, p.Completion, extra, corrections, reply)
	case model.AnalysisComparison:
		return fmt.Sprintf("Today is %s. Compare %s with the neighbouring districts: prices per sq.ft in %s, growth and prospects. The property under review is %s (%s sq.ft, %s %s).%s %s",
			today, p.Location, currency, p.Name, FormatNumber(p.Size), FormatNumber(p.Price), currency, corrections, reply)
	case model.AnalysisTimeline:
		return fmt.Sprintf("Today is %s. Analyze construction timelines in %s. Project %s, completion %s. Developer: %s.%s Is the timeline realistic? %s",
			today, p.Location, p.Name, p.Completion, p.Developer, corrections, reply)
	default:
		return fmt.Sprintf("Today is %s. Property overview: %s in %s. Type: %s, price: %s %s, size: %s sq.ft, completion: %s, developer: %s.%s%s Give a score on a 10-point scale. %s",
			today, p.Name, p.Location, p.Type, FormatNumber(p.Price), currency, FormatNumber(p.Size), p.Completion, p.Developer, extra, corrections, reply)
	}
}

// Question wraps a custom user question in the property context.
func Question(p model.Property, question, lang string, now time.Time) string {
	currency := model.CurrencyFor(p.Location)
	return fmt.Sprintf("Today is %s. Context: %q in %s. %s, %s sq.ft, %s %s, completion %s, developer %s.%s\n\nQuestion: %s\n\n%s",
		now.Format("2 January 2006"), p.Name, p.Location, p.Type, FormatNumber(p.Size), FormatNumber(p.Price), currency,
		p.Completion, p.Developer, correctionsContext(p), strings.TrimSpace(question), i18n.Instruction(lang))
}

func extraContext(p model.Property) string {
	var extra []string
	if p.PaymentPlan != "" {
		extra = append(extra, "Payment plan: "+p.PaymentPlan)
	}
	if p.View != "" {
		extra = append(extra, "View: "+p.View)
	}
	if p.Bedrooms != nil && *p.Bedrooms > 0 {
		extra = append(extra, "Bedrooms: "+strconv.Itoa(*p.Bedrooms))
	}
	if len(p.Amenities) > 0 {
		extra = append(extra, "Amenities: "+strings.Join(p.Amenities, ", "))
	}
	if len(extra) == 0 {
		return ""
	}
	return "\nAdditionally: " + strings.Join(extra, "; ")
}

// correctionsContext keeps the model from contradicting facts the user has
// already asserted.
func correctionsContext(p model.Property) string {
	if len(p.Corrections) == 0 {
		return ""
	}
	return "\nIMPORTANT - user corrections: " + correctionTexts(p.Corrections)
}
