// internal/models/plan.go
package models

import (
	"math"
	"time"
)

// PlanType is the strategic posture of a plan.
type PlanType string

const (
	PlanTypeConservative PlanType = "conservative"
	PlanTypeAggressive   PlanType = "aggressive"
	PlanTypeLean         PlanType = "lean"
)

// PlanTypes is the fixed generation order.
var PlanTypes = []PlanType{PlanTypeConservative, PlanTypeAggressive, PlanTypeLean}

func IsValidPlanType(t PlanType) bool {
	for _, v := range PlanTypes {
		if v == t {
			return true
		}
	}
	return false
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type PlanStatus string

const (
	PlanStatusDraft    PlanStatus = "draft"
	PlanStatusSaved    PlanStatus = "saved"
	PlanStatusArchived PlanStatus = "archived"
	PlanStatusExported PlanStatus = "exported"
)

var PlanStatuses = []PlanStatus{PlanStatusDraft, PlanStatusSaved, PlanStatusArchived, PlanStatusExported}

func IsValidPlanStatus(s PlanStatus) bool {
	for _, v := range PlanStatuses {
		if v == s {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Timeline is the fixed horizon of every plan.
const Timeline = "6 months"

// MonthsPerPlan is the number of month entries in every plan.
const MonthsPerPlan = 6

type Task struct {
	Name           string   `json:"name" yaml:"name"`
	Priority       Priority `json:"priority" yaml:"priority"`
	EstimatedHours float64  `json:"estimatedHours" yaml:"estimatedHours"`
	Cost           float64  `json:"cost" yaml:"cost"`
	Completed      bool     `json:"completed" yaml:"completed"`
}

type MonthEntry struct {
	Month      int      `json:"month" yaml:"month"`
	Title      string   `json:"title" yaml:"title"`
	Content    string   `json:"content" yaml:"content"`
	Budget     string   `json:"budget" yaml:"budget"`
	Milestones []string `json:"milestones" yaml:"milestones"`
	Tasks      []Task   `json:"tasks" yaml:"tasks"`
}

type SuccessMetric struct {
	Metric    string `json:"metric" yaml:"metric"`
	Target    string `json:"target" yaml:"target"`
	Timeframe string `json:"timeframe" yaml:"timeframe"`
}

type Feedback struct {
	Rating    int       `json:"rating" yaml:"rating"`
	Comment   string    `json:"comment,omitempty" yaml:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

type ExportFormat string

const (
	ExportPDF  ExportFormat = "pdf"
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

type ExportRecord struct {
	Format        ExportFormat `json:"format" yaml:"format"`
	ExportedAt    time.Time    `json:"exportedAt" yaml:"exportedAt"`
	DownloadCount int          `json:"downloadCount" yaml:"downloadCount"`
}

// BusinessPlan is one generated variant for an idea.
type BusinessPlan struct {
	ID                  string          `json:"id" yaml:"id,omitempty" db:"id"`
	UserID              string          `json:"userId" yaml:"userId,omitempty" db:"user_id"`
	IdeaID              string          `json:"ideaId" yaml:"ideaId,omitempty" db:"idea_id"`
	Title               string          `json:"title" yaml:"title" db:"title"`
	Description         string          `json:"description" yaml:"description" db:"description"`
	Type                PlanType        `json:"type" yaml:"type" db:"type"`
	RiskLevel           RiskLevel       `json:"riskLevel" yaml:"riskLevel" db:"risk_level"`
	Timeline            string          `json:"timeline" yaml:"timeline" db:"timeline"`
	Months              []MonthEntry    `json:"months" yaml:"months" db:"months"`
	TotalBudgetEstimate float64         `json:"totalBudgetEstimate" yaml:"totalBudgetEstimate" db:"total_budget_estimate"`
	PotentialRevenue    string          `json:"potentialRevenue,omitempty" yaml:"potentialRevenue,omitempty" db:"potential_revenue"`
	SuccessMetrics      []SuccessMetric `json:"successMetrics" yaml:"successMetrics" db:"success_metrics"`
	Status              PlanStatus      `json:"status" yaml:"status" db:"status"`
	Tags                []string        `json:"tags" yaml:"tags" db:"tags"`
	Feedback            *Feedback       `json:"feedback,omitempty" yaml:"feedback,omitempty" db:"feedback"`
	Exports             []ExportRecord  `json:"exports" yaml:"exports,omitempty" db:"exports"`
	CompletionPercent   int             `json:"completionPercentage" yaml:"completionPercentage" db:"-"`
	CreatedAt           time.Time       `json:"createdAt" yaml:"createdAt" db:"created_at"`
	UpdatedAt           time.Time       `json:"updatedAt" yaml:"updatedAt" db:"updated_at"`
}

// TaskCostTotal sums the cost of every task across all months.
func (p *BusinessPlan) TaskCostTotal() float64 {
	var total float64
	for _, m := range p.Months {
		for _, t := range m.Tasks {
			total += t.Cost
		}
	}
	return total
}

// CompletionPercentage is the rounded share of completed tasks, 0 without tasks.
func (p *BusinessPlan) CompletionPercentage() int {
	var all, done int
	for _, m := range p.Months {
		for _, t := range m.Tasks {
			all++
			if t.Completed {
				done++
			}
		}
	}
	if all == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(all) * 100))
}

// Recalculate refreshes the derived fields. Stored values are never trusted.
func (p *BusinessPlan) Recalculate() {
	p.TotalBudgetEstimate = p.TaskCostTotal()
	p.CompletionPercent = p.CompletionPercentage()
}

// SetTaskCompleted marks the named task in the given month and recalculates.
// It reports false when the month or task does not exist.
func (p *BusinessPlan) SetTaskCompleted(month int, task string, completed bool) bool {
	for i := range p.Months {
		if p.Months[i].Month != month {
			continue
		}
		for j := range p.Months[i].Tasks {
			if p.Months[i].Tasks[j].Name == task {
				p.Months[i].Tasks[j].Completed = completed
				p.Recalculate()
				return true
			}
		}
	}
	return false
}

// RecordExport appends an export entry. Status is left alone.
func (p *BusinessPlan) RecordExport(format ExportFormat, at time.Time) {
	p.Exports = append(p.Exports, ExportRecord{Format: format, ExportedAt: at, DownloadCount: 1})
}
