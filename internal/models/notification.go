// internal/models/notification.go
package models

import "time"

// ShareNotification records a plan shared by e-mail.
type ShareNotification struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"planId"`
	SenderID  string    `json:"senderId"`
	Recipient string    `json:"sharedWith"`
	Message   string    `json:"message,omitempty"`
	ShareLink string    `json:"shareLink"`
	Channel   string    `json:"channel"` // "email"
	Status    string    `json:"status"`  // "sent", "failed", "disabled"
	SentAt    time.Time `json:"sentAt"`
}

// PlanEventType names an event published about plans.
type PlanEventType string

const (
	EventPlansGenerated PlanEventType = "plans.generated"
	EventPlanSaved      PlanEventType = "plan.saved"
	EventPlanShared     PlanEventType = "plan.shared"
)

// PlanEvent is the payload published to the plan events topic.
type PlanEvent struct {
	ID         string        `json:"id"`
	Type       PlanEventType `json:"type"`
	UserID     string        `json:"userId"`
	IdeaID     string        `json:"ideaId,omitempty"`
	PlanIDs    []string      `json:"planIds"`
	Sources    []string      `json:"sources,omitempty"`
	OccurredAt time.Time     `json:"occurredAt"`
}
