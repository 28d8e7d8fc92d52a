package desk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"propertylens_backend/internal/model"
	"propertylens_backend/pkg/prompts"
)

type Format string

const (
	FormatHuman Format = "human"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatHuman, "":
		return FormatHuman, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (human, json, yaml)", s)
}

// Render writes v as json or yaml, or calls human for the default format.
func Render(w io.Writer, format Format, v interface{}, human func(io.Writer)) error {
	switch format {
	case FormatJSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case FormatYAML:
		// Go through json so yaml keys match the stored field names.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var generic interface{}
		if err := dec.Decode(&generic); err != nil {
			return err
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		human(w)
		return nil
	}
}

func RiskColor(level model.RiskLevel) *color.Color {
	switch level {
	case model.RiskHigh:
		return color.New(color.FgRed, color.Bold)
	case model.RiskMedium:
		return color.New(color.FgYellow, color.Bold)
	case model.RiskLow:
		return color.New(color.FgGreen, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}

func riskBadge(r model.RiskAssessment) string {
	return RiskColor(r.RiskLevel).Sprintf("%s %s", strconv.FormatFloat(r.OverallRisk, 'f', 0, 64), strings.ToUpper(string(r.RiskLevel)))
}

// PrintList prints one line per property, marking the selected one.
func PrintList(w io.Writer, snap Snapshot) {
	if len(snap.Properties) == 0 {
		fmt.Fprintln(w, color.HiBlackString("No properties yet. Run `desk upload FILE.pdf` to add one."))
		return
	}
	for _, p := range snap.Properties {
		marker := "  "
		if p.ID == snap.SelectedID {
			marker = color.CyanString("> ")
		}
		risk := color.HiBlackString("not assessed")
		if snap.Assessing[p.ID] {
			risk = color.HiBlackString("assessing...")
		} else if r, ok := snap.Risks[p.ID]; ok {
			risk = riskBadge(r)
		}
		fmt.Fprintf(w, "%s%d  %s  %s  %s %s  %s\n", marker, p.ID, p.Name, p.Location,
			prompts.FormatNumber(p.Price), model.CurrencyFor(p.Location), risk)
	}
}

// PrintProperty prints a property card with its risk assessment, if any.
func PrintProperty(w io.Writer, p model.Property, risk *model.RiskAssessment) {
	title := color.New(color.FgCyan, color.Bold)
	title.Fprintf(w, "%s\n", p.Name)
	fmt.Fprintln(w, strings.Repeat("-", 60))

	currency := model.CurrencyFor(p.Location)
	rows := [][2]string{
		{"ID", strconv.FormatInt(p.ID, 10)},
		{"Location", p.Location},
		{"Type", p.Type},
		{"Price", prompts.FormatNumber(p.Price) + " " + string(currency)},
		{"Size", prompts.FormatNumber(p.Size) + " sq.ft"},
		{"Completion", p.Completion},
		{"Developer", p.Developer},
		{"Payment plan", p.PaymentPlan},
		{"View", p.View},
		{"Floor", p.Floor},
		{"Bedrooms", intString(p.Bedrooms)},
		{"Bathrooms", intString(p.Bathrooms)},
		{"Parking", intString(p.Parking)},
		{"Amenities", strings.Join(p.Amenities, ", ")},
		{"Buyer", p.BuyerName},
		{"Booking date", p.BookingDate},
		{"Notes", p.AdditionalInfo},
	}
	if per := p.PricePerSqft(); per > 0 {
		rows = append(rows, [2]string{"Price per sq.ft", strconv.FormatFloat(per, 'f', 0, 64) + " " + string(currency)})
	}
	for _, row := range rows {
		if row[1] == "" {
			continue
		}
		fmt.Fprintf(w, "  %-16s %s\n", row[0]+":", row[1])
	}

	if len(p.Corrections) > 0 {
		fmt.Fprintln(w)
		color.New(color.Bold).Fprintln(w, "Corrections")
		for _, c := range p.Corrections {
			fmt.Fprintf(w, "  %s  %s %s\n", c.Date, c.Text, color.HiBlackString("(%s)", strings.Join(c.Fields, ", ")))
		}
	}

	if risk != nil {
		fmt.Fprintln(w)
		PrintRisk(w, *risk)
	}
}

func PrintRisk(w io.Writer, r model.RiskAssessment) {
	fmt.Fprintf(w, "Risk: %s\n", riskBadge(r))
	for _, name := range model.FactorNames {
		f, _ := r.Factor(name)
		level := model.ClassifyRisk(f.Score)
		fmt.Fprintf(w, "  %-10s %s  %s\n", name, RiskColor(level).Sprintf("%3.0f", f.Score), f.Reason)
	}
	if r.Summary != "" {
		fmt.Fprintf(w, "\n%s\n", r.Summary)
	}
	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w)
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  • %s\n", rec)
		}
	}
}

// PrintCorrection summarises a correction outcome.
func PrintCorrection(w io.Writer, out CorrectionOutcome) {
	if out.Explanation != "" {
		fmt.Fprintln(w, out.Explanation)
	}
	if !out.Applied {
		fmt.Fprintln(w, color.HiBlackString("No fields were changed."))
	} else {
		color.New(color.FgGreen).Fprintf(w, "Updated: %s\n", strings.Join(out.FieldsChanged, ", "))
	}
	if len(out.Skipped) > 0 {
		color.New(color.FgYellow).Fprintf(w, "Ignored: %s\n", strings.Join(out.Skipped, ", "))
	}
	if out.RiskScheduled {
		fmt.Fprintln(w, color.HiBlackString("Risk will be reassessed."))
	}
}

func intString(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
