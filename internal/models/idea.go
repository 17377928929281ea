// internal/models/idea.go
package models

import "time"

// Category is the business sector of an idea.
type Category string

const (
	CategoryTechnology    Category = "technology"
	CategoryRetail        Category = "retail"
	CategoryFood          Category = "food"
	CategoryHealth        Category = "health"
	CategoryEducation     Category = "education"
	CategoryFinance       Category = "finance"
	CategoryEntertainment Category = "entertainment"
	CategoryTravel        Category = "travel"
	CategoryRealEstate    Category = "real-estate"
	CategoryAutomotive    Category = "automotive"
	CategoryOther         Category = "other"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategoryTechnology, CategoryRetail, CategoryFood, CategoryHealth,
	CategoryEducation, CategoryFinance, CategoryEntertainment, CategoryTravel,
	CategoryRealEstate, CategoryAutomotive, CategoryOther,
}

// Budget is the coarse spend bracket of an idea.
type Budget string

const (
	BudgetLow        Budget = "low"
	BudgetMedium     Budget = "medium"
	BudgetHigh       Budget = "high"
	BudgetEnterprise Budget = "enterprise"
)

var Budgets = []Budget{BudgetLow, BudgetMedium, BudgetHigh, BudgetEnterprise}

// IdeaStatus tracks an idea through plan generation.
type IdeaStatus string

const (
	IdeaStatusDraft      IdeaStatus = "draft"
	IdeaStatusProcessing IdeaStatus = "processing"
	IdeaStatusCompleted  IdeaStatus = "completed"
	IdeaStatusArchived   IdeaStatus = "archived"
)

var IdeaStatuses = []IdeaStatus{IdeaStatusDraft, IdeaStatusProcessing, IdeaStatusCompleted, IdeaStatusArchived}

// ImageInfo describes an uploaded business image.
type ImageInfo struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Mimetype     string `json:"mimetype"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

// IdeaMetadata carries request and generation details.
type IdeaMetadata struct {
	IPAddress      string `json:"ipAddress,omitempty"`
	UserAgent      string `json:"userAgent,omitempty"`
	ProcessingTime int64  `json:"processingTime,omitempty"` // milliseconds
	AIModel        string `json:"aiModel,omitempty"`
}

// BusinessIdea is a user submission that plans are generated from.
type BusinessIdea struct {
	ID          string       `json:"id" db:"id"`
	UserID      string       `json:"userId" db:"user_id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Category    Category     `json:"category" db:"category"`
	Budget      Budget       `json:"budget" db:"budget"`
	Status      IdeaStatus   `json:"status" db:"status"`
	Image       *ImageInfo   `json:"image,omitempty" db:"image"`
	Metadata    IdeaMetadata `json:"metadata" db:"metadata"`
	PlanCount   int          `json:"planCount" db:"-"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time    `json:"updatedAt" db:"updated_at"`
}

// Snapshot returns the fields plan generation reads.
func (i *BusinessIdea) Snapshot() IdeaSnapshot {
	return IdeaSnapshot{
		ID:          i.ID,
		UserID:      i.UserID,
		Title:       i.Title,
		Description: i.Description,
		Category:    i.Category,
		Budget:      i.Budget,
	}
}

// IdeaSnapshot is the immutable input to plan generation.
type IdeaSnapshot struct {
	ID          string   `json:"id,omitempty"`
	UserID      string   `json:"userId,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Budget      Budget   `json:"budget"`
}

// IsValidCategory reports whether c is one of the accepted categories.
func IsValidCategory(c Category) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

func IsValidBudget(b Budget) bool {
	for _, v := range Budgets {
		if v == b {
			return true
		}
	}
	return false
}

func IsValidIdeaStatus(s IdeaStatus) bool {
	for _, v := range IdeaStatuses {
		if v == s {
			return true
		}
	}
	return false
}
