package desk

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertylens_backend/internal/model"
)

func init() {
	color.NoColor = true
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatHuman, false},
		{"human", FormatHuman, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestRenderYAMLUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	p := sampleProperty(1)
	require.NoError(t, Render(&buf, FormatYAML, p, nil))

	out := buf.String()
	assert.Contains(t, out, "paymentPlan: 60/40")
	assert.Contains(t, out, "name: Olaia Residences Unit 917")
	assert.Contains(t, out, "price: 21712896")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, map[string]int{"a": 1}, nil))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

func TestPrintList(t *testing.T) {
	var buf bytes.Buffer
	PrintList(&buf, Snapshot{})
	assert.Contains(t, buf.String(), "No properties yet")

	buf.Reset()
	PrintList(&buf, Snapshot{
		Properties: []model.Property{sampleProperty(1), sampleProperty(2)},
		Risks:      map[int64]model.RiskAssessment{1: sampleRisk(72)},
		SelectedID: 2,
		Assessing:  map[int64]bool{2: true},
	})
	out := buf.String()
	assert.Contains(t, out, "72 HIGH")
	assert.Contains(t, out, "> 2")
	assert.Contains(t, out, "assessing...")
	assert.Contains(t, out, "AED")
}

func TestPrintPropertyWithRisk(t *testing.T) {
	var buf bytes.Buffer
	risk := sampleRisk(30)
	PrintProperty(&buf, sampleProperty(1), &risk)

	out := buf.String()
	assert.Contains(t, out, "Olaia Residences Unit 917")
	assert.Contains(t, out, "21712896 AED")
	assert.Contains(t, out, "Bedrooms:")
	assert.NotContains(t, out, "Bathrooms:")
	assert.Contains(t, out, "view is sea")
	assert.Contains(t, out, "30 LOW")
	assert.Contains(t, out, "check escrow")
}

func TestPrintCorrection(t *testing.T) {
	var buf bytes.Buffer
	PrintCorrection(&buf, CorrectionOutcome{Explanation: "Nothing to change."})
	assert.Contains(t, buf.String(), "No fields were changed.")

	buf.Reset()
	PrintCorrection(&buf, CorrectionOutcome{Applied: true, FieldsChanged: []string{"price"}, Skipped: []string{"id"}, RiskScheduled: true})
	assert.Contains(t, buf.String(), "Updated: price")
	assert.Contains(t, buf.String(), "Ignored: id")
	assert.Contains(t, buf.String(), "Risk will be reassessed.")
}
