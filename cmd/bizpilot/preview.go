// cmd/bizpilot/preview.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"bizpilot/internal/common/validation"
	"bizpilot/internal/export"
	"bizpilot/internal/models"
	"bizpilot/internal/planning"

	"github.com/spf13/cobra"
)

type previewOptions struct {
	title       string
	description string
	category    string
	budget      string
	format      string
}

// previewDocument is what the preview command prints.
type previewDocument struct {
	Idea    models.IdeaSnapshot   `json:"idea" yaml:"idea"`
	AIModel string                `json:"aiModel" yaml:"aiModel"`
	Sources []planning.Source     `json:"sources" yaml:"sources"`
	Plans   []models.BusinessPlan `json:"plans" yaml:"plans"`
}

// newPreviewCmd drafts the three template plans of an idea without touching
// any database or provider.
func newPreviewCmd(out io.Writer) *cobra.Command {
	var o previewOptions
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Print the template plans for an idea",
		RunE: func(cmd *cobra.Command, _ []string) error {
			idea := models.IdeaSnapshot{
				Title:       strings.TrimSpace(o.title),
				Description: strings.TrimSpace(o.description),
				Category:    models.Category(o.category),
				Budget:      models.Budget(o.budget),
			}
			res, err := validation.BusinessIdea.ValidateValue(map[string]interface{}{
				"title":       idea.Title,
				"description": idea.Description,
				"category":    string(idea.Category),
				"budget":      string(idea.Budget),
			})
			if err != nil {
				return err
			}
			if !res.Valid {
				return fmt.Errorf("invalid idea: %s", strings.Join(res.GetErrorMessages(), "; "))
			}

			gen := planning.NewGenerator(nil, nil, planning.DefaultGeneratorConfig(), nil, nil)
			result := gen.Preview(cmd.Context(), idea)
			doc := previewDocument{Idea: idea, AIModel: result.Model, Sources: result.Sources, Plans: result.Plans}

			var body []byte
			switch o.format {
			case "yaml":
				body, err = export.YAML(doc)
			case "json":
				body, err = json.MarshalIndent(doc, "", "  ")
				body = append(body, '\n')
			default:
				return fmt.Errorf("unsupported format %q, use yaml or json", o.format)
			}
			if err != nil {
				return err
			}
			_, err = out.Write(body)
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.title, "title", "", "idea title")
	f.StringVar(&o.description, "description", "", "idea description")
	f.StringVar(&o.category, "category", string(models.CategoryOther), "idea category")
	f.StringVar(&o.budget, "budget", string(models.BudgetLow), "budget range")
	f.StringVarP(&o.format, "format", "o", "yaml", "output format (yaml or json)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}
