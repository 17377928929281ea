// Package validation checks request bodies and generated documents against
// JSON schemas and reports field level messages.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"-"`
}

// Messages maps field -> rule -> message. Rules are gojsonschema error types
// ("required", "string_gte", "enum", ...); "*" matches every rule of a field.
type Messages map[string]map[string]string

// Schema is a compiled JSON schema with its user facing messages.
type Schema struct {
	name     string
	schema   *gojsonschema.Schema
	messages Messages
}

// MustCompile compiles a schema document given as a Go value.
func MustCompile(name string, doc map[string]interface{}, messages Messages) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("validation: compiling %s schema: %v", name, err))
	}
	return &Schema{name: name, schema: s, messages: messages}
}

func (s *Schema) Name() string { return s.name }

// ValidateJSON validates a raw JSON body. A non-nil error means the body is not JSON.
func (s *Schema) ValidateJSON(body []byte) (*ValidationResult, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}
	res, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return s.result(res), nil
}

// ValidateValue validates an already decoded document.
func (s *Schema) ValidateValue(v interface{}) (*ValidationResult, error) {
	res, err := s.schema.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", s.name, err)
	}
	return s.result(res), nil
}

func (s *Schema) result(res *gojsonschema.Result) *ValidationResult {
	if res.Valid() {
		return &ValidationResult{Valid: true}
	}
	errs := make([]ValidationError, 0, len(res.Errors()))
	seen := map[string]bool{}
	for _, re := range res.Errors() {
		field := fieldOf(re)
		msg := s.message(field, re)
		key := field + "|" + msg
		if seen[key] {
			continue
		}
		seen[key] = true
		errs = append(errs, ValidationError{Field: field, Message: msg, Code: re.Type()})
	}
	sort.SliceStable(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
	return &ValidationResult{Valid: false, Errors: errs}
}

func (s *Schema) message(field string, re gojsonschema.ResultError) string {
	if byRule, ok := s.messages[field]; ok {
		if msg, ok := byRule[re.Type()]; ok {
			return msg
		}
		if msg, ok := byRule["*"]; ok {
			return msg
		}
	}
	return fmt.Sprintf("%s: %s", field, re.Description())
}

// fieldOf reports the dotted path of the offending field. Required errors
// are raised on the parent object, so the missing property is appended.
func fieldOf(re gojsonschema.ResultError) string {
	field := re.Field()
	if field == "(root)" {
		field = ""
	}
	if re.Type() == "required" {
		if prop, ok := re.Details()["property"].(string); ok {
			if field == "" {
				return prop
			}
			return field + "." + prop
		}
	}
	if field == "" {
		return "body"
	}
	return field
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
