// internal/common/validation/schemas.go
package validation

import (
	"bizpilot/internal/models"
)

func stringEnum[T ~string](values []T) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func str(minLen, maxLen int) map[string]interface{} {
	s := map[string]interface{}{"type": "string"}
	if minLen > 0 {
		s["minLength"] = minLen
	}
	if maxLen > 0 {
		s["maxLength"] = maxLen
	}
	return s
}

func object(required []string, props map[string]interface{}) map[string]interface{} {
	o := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

var ideaMessages = Messages{
	"title": {
		"string_gte": "Business title must be at least 3 characters long",
		"string_lte": "Business title cannot exceed 100 characters",
		"required":   "Business title is required",
	},
	"description": {
		"string_gte": "Description must be at least 10 characters long",
		"string_lte": "Description cannot exceed 1000 characters",
		"required":   "Business description is required",
	},
	"category": {
		"enum":     "Please select a valid category",
		"required": "Category is required",
	},
	"budget": {
		"enum":     "Please select a valid budget range",
		"required": "Budget range is required",
	},
	"status": {
		"enum": "Please select a valid status",
	},
}

func ideaProperties() map[string]interface{} {
	return map[string]interface{}{
		"title":       str(3, 100),
		"description": str(10, 1000),
		"category":    map[string]interface{}{"type": "string", "enum": stringEnum(models.Categories)},
		"budget":      map[string]interface{}{"type": "string", "enum": stringEnum(models.Budgets)},
	}
}

// BusinessIdea validates a submitted idea.
var BusinessIdea = MustCompile("businessIdea",
	object([]string{"title", "description", "category", "budget"}, ideaProperties()),
	ideaMessages)

// BusinessIdeaUpdate validates a partial idea update.
var BusinessIdeaUpdate = func() *Schema {
	props := ideaProperties()
	props["status"] = map[string]interface{}{"type": "string", "enum": stringEnum(models.IdeaStatuses)}
	return MustCompile("businessIdeaUpdate", object(nil, props), ideaMessages)
}()

var emailMessages = map[string]string{
	"format":   "Please provide a valid email address",
	"required": "Email is required",
}

// Registration validates sign up requests.
var Registration = MustCompile("registration",
	object([]string{"name", "email", "password"}, map[string]interface{}{
		"name":     str(2, 100),
		"email":    map[string]interface{}{"type": "string", "format": "email"},
		"password": str(6, 0),
	}),
	Messages{
		"name": {
			"string_gte": "Name must be at least 2 characters long",
			"string_lte": "Name cannot exceed 100 characters",
			"required":   "Name is required",
		},
		"email": emailMessages,
		"password": {
			"string_gte": "Password must be at least 6 characters long",
			"required":   "Password is required",
		},
	})

// Login validates sign in requests.
var Login = MustCompile("login",
	object([]string{"email", "password"}, map[string]interface{}{
		"email":    map[string]interface{}{"type": "string", "format": "email"},
		"password": str(1, 0),
	}),
	Messages{
		"email":    emailMessages,
		"password": {"*": "Password is required"},
	})

// ProfileUpdate validates profile changes.
var ProfileUpdate = MustCompile("profileUpdate",
	object(nil, map[string]interface{}{
		"name":   str(2, 100),
		"avatar": map[string]interface{}{"type": "string"},
		"preferences": object(nil, map[string]interface{}{
			"theme": map[string]interface{}{"type": "string", "enum": []interface{}{"light", "dark", "auto"}},
			"notifications": object(nil, map[string]interface{}{
				"email": map[string]interface{}{"type": "boolean"},
				"push":  map[string]interface{}{"type": "boolean"},
			}),
			"defaultBudget": map[string]interface{}{"type": "string", "enum": stringEnum(models.Budgets)},
		}),
	}),
	Messages{
		"name": {
			"string_gte": "Name must be at least 2 characters long",
			"string_lte": "Name cannot exceed 100 characters",
		},
		"preferences.theme":         {"enum": "Theme must be light, dark or auto"},
		"preferences.defaultBudget": {"enum": "Please select a valid budget range"},
	})

// Feedback validates plan feedback.
var Feedback = MustCompile("feedback",
	object([]string{"rating"}, map[string]interface{}{
		"rating":  map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 5},
		"comment": str(0, 500),
	}),
	Messages{
		"rating":  {"*": "Rating must be a whole number between 1 and 5"},
		"comment": {"string_lte": "Comment cannot exceed 500 characters"},
	})

// Share validates plan share requests.
var Share = MustCompile("share",
	object([]string{"email"}, map[string]interface{}{
		"email":   map[string]interface{}{"type": "string", "format": "email"},
		"message": str(0, 1000),
	}),
	Messages{
		"email":   emailMessages,
		"message": {"string_lte": "Message cannot exceed 1000 characters"},
	})

// TaskUpdate validates a task completion toggle.
var TaskUpdate = MustCompile("taskUpdate",
	object([]string{"month", "task", "completed"}, map[string]interface{}{
		"month":     map[string]interface{}{"type": "integer", "minimum": 1, "maximum": models.MonthsPerPlan},
		"task":      str(1, 0),
		"completed": map[string]interface{}{"type": "boolean"},
	}),
	Messages{
		"month":     {"*": "Month must be a whole number between 1 and 6"},
		"task":      {"*": "Task name is required"},
		"completed": {"*": "Completed must be true or false"},
	})

// GeneratedPlan validates the JSON document returned by a text generation
// provider before it is turned into a plan.
var GeneratedPlan = MustCompile("generatedPlan",
	object([]string{"months"}, map[string]interface{}{
		"title":       map[string]interface{}{"type": "string"},
		"description": map[string]interface{}{"type": "string"},
		"riskLevel":   map[string]interface{}{"type": "string"},
		"months": map[string]interface{}{
			"type":     "array",
			"minItems": models.MonthsPerPlan,
			"maxItems": models.MonthsPerPlan,
			"items": object([]string{"title", "content", "milestones", "tasks"}, map[string]interface{}{
				"month":   map[string]interface{}{"type": "integer"},
				"title":   str(1, 0),
				"content": str(1, 0),
				"budget":  map[string]interface{}{"type": "string"},
				"milestones": map[string]interface{}{
					"type":     "array",
					"minItems": 1,
					"items":    str(1, 0),
				},
				"tasks": map[string]interface{}{
					"type": "array",
					"items": object([]string{"name", "priority"}, map[string]interface{}{
						"name":           str(1, 0),
						"priority":       map[string]interface{}{"type": "string", "enum": []interface{}{"low", "medium", "high"}},
						"estimatedHours": map[string]interface{}{"type": "number", "minimum": 0},
						"cost":           map[string]interface{}{"type": "number", "minimum": 0},
					}),
				},
			}),
		},
	}),
	nil)
