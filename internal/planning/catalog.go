// Package planning builds the three business plan variants for an idea.
//
// The catalog in this file is pure data: plan type templates keyed by
// PlanType and category activity fragments keyed by (Category, phase).
// Every lookup is total. Unknown plan types resolve to conservative and
// categories without their own fragments resolve to DefaultCategory.
package planning

import (
	"fmt"
	"strings"

	"bizpilot/internal/models"
)

// Phase is one of the six month positions of a plan.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseDevelopment
	PhaseLaunch
	PhaseGrowth
	PhaseScale
	PhaseOptimize
)

// DefaultCategory supplies activity fragments for categories without their own.
const DefaultCategory = models.CategoryTechnology

// PlanTemplate is the static shape of one plan type.
type PlanTemplate struct {
	Type              models.PlanType
	TitleFormat       string
	DescriptionFormat string
	RiskLevel         models.RiskLevel
	// Focus completes the prompt sentence "Focus on making the plan ...".
	Focus        string
	Phases       [models.MonthsPerPlan]string
	BudgetShares [models.MonthsPerPlan]int
}

// Title interpolates the idea title.
func (t PlanTemplate) Title(ideaTitle string) string {
	return fmt.Sprintf(t.TitleFormat, ideaTitle)
}

// Description interpolates the lower-cased category.
func (t PlanTemplate) Description(category models.Category) string {
	return fmt.Sprintf(t.DescriptionFormat, strings.ToLower(string(category)))
}

// BudgetShare renders the share for a zero-based month index, e.g. "15%".
func (t PlanTemplate) BudgetShare(i int) string {
	return fmt.Sprintf("%d%%", t.BudgetShares[i])
}

var conservativeTemplate = PlanTemplate{
	Type:              models.PlanTypeConservative,
	TitleFormat:       "Conservative Growth Plan for %s",
	DescriptionFormat: "Steady, low-risk approach for your %s business focusing on sustainable growth and market validation",
	RiskLevel:         models.RiskLow,
	Focus:             "low-risk and sustainable",
	Phases: [models.MonthsPerPlan]string{
		"Foundation & Research", "Planning & Setup", "Soft Launch",
		"Growth Phase", "Expansion", "Optimization",
	},
	BudgetShares: [models.MonthsPerPlan]int{15, 20, 20, 15, 15, 15},
}

var aggressiveTemplate = PlanTemplate{
	Type:              models.PlanTypeAggressive,
	TitleFormat:       "Aggressive Expansion Plan for %s",
	DescriptionFormat: "Fast-paced growth strategy for your %s business with higher investment and rapid market penetration",
	RiskLevel:         models.RiskHigh,
	Focus:             "high-growth and ambitious",
	Phases: [models.MonthsPerPlan]string{
		"Rapid Setup", "Full Launch", "Market Penetration",
		"Scaling", "Expansion", "Domination",
	},
	BudgetShares: [models.MonthsPerPlan]int{30, 25, 15, 10, 10, 10},
}

var leanTemplate = PlanTemplate{
	Type:              models.PlanTypeLean,
	TitleFormat:       "Lean Startup Plan for %s",
	DescriptionFormat: "Minimal viable approach for your %s business focusing on learning, iteration, and customer feedback",
	RiskLevel:         models.RiskMedium,
	Focus:             "lean and iterative with focus on learning",
	Phases: [models.MonthsPerPlan]string{
		"Problem Validation", "MVP Development", "Market Testing",
		"Iteration", "Growth", "Scale",
	},
	BudgetShares: [models.MonthsPerPlan]int{10, 30, 20, 15, 15, 10},
}

// TemplateFor returns the template of a plan type.
func TemplateFor(t models.PlanType) PlanTemplate {
	switch t {
	case models.PlanTypeAggressive:
		return aggressiveTemplate
	case models.PlanTypeLean:
		return leanTemplate
	default:
		return conservativeTemplate
	}
}

// RiskLevelFor is the fixed risk level of a plan type.
func RiskLevelFor(t models.PlanType) models.RiskLevel {
	return TemplateFor(t).RiskLevel
}

type activitySet [models.MonthsPerPlan]string

var technologyActivities = activitySet{
	"Platform development, technical infrastructure, software licenses",
	"Product development, testing, security implementation",
	"Beta testing, user feedback, performance optimization",
	"Feature expansion, scaling infrastructure, user acquisition",
	"Advanced features, integrations, team expansion",
	"Performance optimization, analytics, market expansion",
}

var foodActivities = activitySet{
	"Kitchen setup, equipment purchase, permits and licenses",
	"Menu development, supplier relationships, recipe testing",
	"Soft opening, customer feedback, quality improvement",
	"Marketing campaigns, delivery setup, customer base expansion",
	"Additional locations, catering services, staff training",
	"Process optimization, cost reduction, brand building",
}

var retailActivities = activitySet{
	"Inventory sourcing, store setup, POS system, legal requirements",
	"Product selection, supplier negotiations, pricing strategy",
	"Grand opening, initial sales, customer service training",
	"Marketing campaigns, online presence, customer loyalty programs",
	"Inventory expansion, multiple channels, staff hiring",
	"Operations streamlining, customer retention, profit optimization",
}

var healthActivities = activitySet{
	"Facility setup, equipment, certifications, insurance",
	"Service offerings, staff training, compliance procedures",
	"Soft launch, initial clients, feedback collection",
	"Marketing outreach, referral programs, service expansion",
	"Additional services, staff expansion, facility growth",
	"Process improvement, client retention, outcome tracking",
}

// activitiesFor resolves the fragment set of a category.
func activitiesFor(c models.Category) activitySet {
	switch c {
	case models.CategoryTechnology:
		return technologyActivities
	case models.CategoryFood:
		return foodActivities
	case models.CategoryRetail:
		return retailActivities
	case models.CategoryHealth:
		return healthActivities
	default:
		return activitiesFor(DefaultCategory)
	}
}

// HasOwnActivities reports whether c has fragments of its own.
func HasOwnActivities(c models.Category) bool {
	switch c {
	case models.CategoryTechnology, models.CategoryFood, models.CategoryRetail, models.CategoryHealth:
		return true
	}
	return false
}

// Activity returns the fragment for a category and phase. Out of range
// phases clamp to the nearest valid phase.
func Activity(c models.Category, p Phase) string {
	if p < PhaseSetup {
		p = PhaseSetup
	}
	if p > PhaseOptimize {
		p = PhaseOptimize
	}
	return activitiesFor(c)[p]
}

// TierMultiplier scales task base costs. Unknown tiers use 1.0.
func TierMultiplier(b models.Budget) float64 {
	switch b {
	case models.BudgetLow:
		return 0.5
	case models.BudgetMedium:
		return 1.0
	case models.BudgetHigh:
		return 1.5
	case models.BudgetEnterprise:
		return 2.0
	default:
		return 1.0
	}
}

type taskTemplate struct {
	name        string
	perCategory bool // name takes the category through %s
	priority    models.Priority
	hours       float64
	baseCost    float64
}

var taskTemplates = []taskTemplate{
	{name: "%s specific setup", perCategory: true, priority: models.PriorityHigh, hours: 40, baseCost: 800},
	{name: "Market research and analysis", priority: models.PriorityHigh, hours: 20, baseCost: 400},
	{name: "Customer outreach and marketing", priority: models.PriorityMedium, hours: 30, baseCost: 600},
	{name: "Operations and logistics", priority: models.PriorityMedium, hours: 25, baseCost: 500},
}

type metricTemplate struct {
	metric string
	target string
}

var metricTemplates = map[models.PlanType][3]metricTemplate{
	models.PlanTypeConservative: {
		{"Customer Acquisition", "50-100 customers"},
		{"Revenue", "$5,000-10,000"},
		{"Market Validation", "80% customer satisfaction"},
	},
	models.PlanTypeAggressive: {
		{"Customer Acquisition", "200-500 customers"},
		{"Revenue", "$20,000-50,000"},
		{"Market Share", "10-15% local market"},
	},
	models.PlanTypeLean: {
		{"Problem Validation", "100+ validated problems"},
		{"MVP Validation", "80% user acceptance"},
		{"Learning Velocity", "2 validated learnings/month"},
	},
}
