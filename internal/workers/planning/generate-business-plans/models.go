// internal/workers/planning/generate-business-plans/models.go
package generatebusinessplans

type Input struct {
	IdeaID string `json:"ideaId"`
}

type Output struct {
	PlanIDs []string `json:"planIds"`
	Sources []string `json:"sources"`
	AIModel string   `json:"aiModel"`
	// Reused is set when the idea already had plans and none were generated.
	Reused bool `json:"reused"`
}
