// Package export renders plans as downloadable documents.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bizpilot/internal/models"

	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("UNSUPPORTED_EXPORT_FORMAT")

// FormatYAML is only offered by the CLI.
const FormatYAML models.ExportFormat = "yaml"

// Document is a rendered export ready to be sent.
type Document struct {
	ContentType string
	Filename    string
	Body        []byte
}

// Render produces the document for format. generatedAt is printed in the
// text layout.
func Render(format models.ExportFormat, plan *models.BusinessPlan, generatedAt time.Time) (*Document, error) {
	var (
		body        []byte
		contentType string
		ext         string
		err         error
	)

	switch format {
	case models.ExportPDF:
		body, contentType, ext = Text(plan, generatedAt), "application/pdf", "pdf"
	case models.ExportCSV:
		body, err = CSV(plan)
		contentType, ext = "text/csv; charset=utf-8", "csv"
	case models.ExportJSON:
		body, err = JSON(plan)
		contentType, ext = "application/json", "json"
	case FormatYAML:
		body, err = YAML(plan)
		contentType, ext = "application/yaml", "yaml"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}

	return &Document{
		ContentType: contentType,
		Filename:    Filename(plan.Title, ext),
		Body:        body,
	}, nil
}

// IsAPIFormat reports whether the HTTP export endpoint serves format.
func IsAPIFormat(format models.ExportFormat) bool {
	switch format {
	case models.ExportPDF, models.ExportCSV, models.ExportJSON:
		return true
	}
	return false
}

// Filename builds a header-safe attachment name from the plan title.
func Filename(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '"' || r == '\\' || r == '/' || r < 0x20:
			return -1
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "business-plan"
	}
	return name + "." + ext
}

// Text is the plain text document served for the pdf format.
func Text(plan *models.BusinessPlan, generatedAt time.Time) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Business Plan: %s\n\n", plan.Title)
	fmt.Fprintf(&b, "Description: %s\n", plan.Description)
	fmt.Fprintf(&b, "Type: %s\n", plan.Type)
	fmt.Fprintf(&b, "Risk Level: %s\n", plan.RiskLevel)
	fmt.Fprintf(&b, "Timeline: %s\n\n", plan.Timeline)
	b.WriteString("Monthly Plan:\n")
	for _, m := range plan.Months {
		fmt.Fprintf(&b, "\nMonth %d: %s\n", m.Month, m.Title)
		fmt.Fprintf(&b, "Budget: %s\n", m.Budget)
		fmt.Fprintf(&b, "Content: %s\n", m.Content)
		fmt.Fprintf(&b, "Milestones: %s\n", strings.Join(m.Milestones, ", "))
	}
	fmt.Fprintf(&b, "\nGenerated on: %s\n", generatedAt.UTC().Format(time.RFC3339))
	return []byte(b.String())
}

var csvHeader = []string{"month", "phase", "budget", "task", "priority", "estimated_hours", "cost", "completed"}

// CSV writes one row per task.
func CSV(plan *models.BusinessPlan) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, m := range plan.Months {
		for _, t := range m.Tasks {
			row := []string{
				strconv.Itoa(m.Month),
				m.Title,
				m.Budget,
				t.Name,
				string(t.Priority),
				strconv.FormatFloat(t.EstimatedHours, 'f', -1, 64),
				strconv.FormatFloat(t.Cost, 'f', 2, 64),
				strconv.FormatBool(t.Completed),
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func JSON(plan *models.BusinessPlan) ([]byte, error) {
	return json.MarshalIndent(plan, "", "  ")
}

func YAML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
