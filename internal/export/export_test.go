package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"bizpilot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var generatedAt = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testPlan() *models.BusinessPlan {
	return &models.BusinessPlan{
		ID:          "p-1",
		Title:       "Lean Startup Plan for Sourdough Corner",
		Description: "Minimal viable approach",
		Type:        models.PlanTypeLean,
		RiskLevel:   models.RiskMedium,
		Timeline:    models.Timeline,
		Months: []models.MonthEntry{
			{
				Month: 1, Title: "Problem Validation", Budget: "10%", Content: "Talk to customers",
				Milestones: []string{"a", "b"},
				Tasks: []models.Task{
					{Name: "Market research, local", Priority: models.PriorityHigh, EstimatedHours: 20, Cost: 400},
					{Name: "Permits", Priority: models.PriorityLow, EstimatedHours: 2.5, Cost: 50, Completed: true},
				},
			},
			{Month: 2, Title: "MVP Development", Budget: "30%", Content: "Bake", Milestones: []string{"c"}},
		},
	}
}

func TestText(t *testing.T) {
	want := `Business Plan: Lean Startup Plan for Sourdough Corner

Description: Minimal viable approach
Type: lean
Risk Level: Medium
Timeline: 6 months

Monthly Plan:

Month 1: Problem Validation
Budget: 10%
Content: Talk to customers
Milestones: a, b

Month 2: MVP Development
Budget: 30%
Content: Bake
Milestones: c

Generated on: 2024-06-15T12:00:00Z
`
	assert.Equal(t, want, string(Text(testPlan(), generatedAt)))
}

func TestCSV(t *testing.T) {
	body, err := CSV(testPlan())
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"1", "Problem Validation", "10%", "Market research, local", "high", "20", "400.00", "false"}, rows[1])
	assert.Equal(t, []string{"1", "Problem Validation", "10%", "Permits", "low", "2.5", "50.00", "true"}, rows[2])
}

func TestRender(t *testing.T) {
	tests := []struct {
		format      models.ExportFormat
		contentType string
		filename    string
	}{
		{models.ExportPDF, "application/pdf", "Lean Startup Plan for Sourdough Corner.pdf"},
		{models.ExportCSV, "text/csv; charset=utf-8", "Lean Startup Plan for Sourdough Corner.csv"},
		{models.ExportJSON, "application/json", "Lean Startup Plan for Sourdough Corner.json"},
		{FormatYAML, "application/yaml", "Lean Startup Plan for Sourdough Corner.yaml"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			doc, err := Render(tt.format, testPlan(), generatedAt)
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, doc.ContentType)
			assert.Equal(t, tt.filename, doc.Filename)
			assert.NotEmpty(t, doc.Body)
		})
	}

	_, err := Render("docx", testPlan(), generatedAt)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRender_StructuredFormatsKeepFields(t *testing.T) {
	doc, err := Render(models.ExportJSON, testPlan(), generatedAt)
	require.NoError(t, err)
	var fromJSON models.BusinessPlan
	require.NoError(t, json.Unmarshal(doc.Body, &fromJSON))
	assert.Equal(t, "p-1", fromJSON.ID)

	doc, err = Render(FormatYAML, testPlan(), generatedAt)
	require.NoError(t, err)
	var fromYAML map[string]interface{}
	require.NoError(t, yaml.Unmarshal(doc.Body, &fromYAML))
	assert.Equal(t, "lean", fromYAML["type"])
}

func TestIsAPIFormat(t *testing.T) {
	assert.True(t, IsAPIFormat(models.ExportCSV))
	assert.False(t, IsAPIFormat(FormatYAML))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, `Plan AB.pdf`, Filename(` Plan "A/B" `, "pdf"))
	assert.Equal(t, "business-plan.csv", Filename("  ", "csv"))
}
