// internal/planning/metrics.go
package planning

import (
	"fmt"

	"bizpilot/internal/models"
)

// BuildMetrics returns the three success metrics of planType with the idea
// title in each label.
func BuildMetrics(idea models.IdeaSnapshot, planType models.PlanType) []models.SuccessMetric {
	templates, ok := metricTemplates[planType]
	if !ok {
		templates = metricTemplates[models.PlanTypeConservative]
	}

	metrics := make([]models.SuccessMetric, 0, len(templates))
	for _, m := range templates {
		metrics = append(metrics, models.SuccessMetric{
			Metric:    fmt.Sprintf("%s for %s", m.metric, idea.Title),
			Target:    m.target,
			Timeframe: models.Timeline,
		})
	}
	return metrics
}
