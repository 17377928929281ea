// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	reg := Default()
	require.NoError(t, reg.Validate())

	a, ok := reg.Find("generate-business-plans")
	require.True(t, ok)
	assert.Equal(t, "planning", a.Category)
	assert.Contains(t, a.ErrorCodes, "PLAN_GENERATION_FAILED")

	_, ok = reg.Find("send-notification")
	assert.False(t, ok)
}

func TestActivity_ValidateInput(t *testing.T) {
	a, ok := Default().Find("generate-business-plans")
	require.True(t, ok)

	assert.NoError(t, a.ValidateInput([]byte(`{"ideaId":"abc","extra":1}`)))
	assert.Error(t, a.ValidateInput([]byte(`{}`)))
	assert.Error(t, a.ValidateInput([]byte(`{"ideaId":""}`)))
	assert.Error(t, a.ValidateInput([]byte(`{"ideaId":42}`)))
	assert.Error(t, a.ValidateInput([]byte(`not json`)))
}

func TestActivity_ValidateOutput(t *testing.T) {
	a, _ := Default().Find("generate-business-plans")

	assert.NoError(t, a.ValidateOutput(map[string]interface{}{
		"planIds": []string{"p1", "p2", "p3"},
		"sources": []string{"ai", "template", "template"},
		"aiModel": "gpt-3.5-turbo",
		"reused":  false,
	}))
	assert.Error(t, a.ValidateOutput(map[string]interface{}{
		"planIds": []string{"p1"},
		"sources": []string{"guess"},
		"aiModel": "x",
		"reused":  false,
	}))
}

func TestActivity_NoSchemaAcceptsAnything(t *testing.T) {
	a := &Activity{ID: "noop"}
	assert.NoError(t, a.ValidateInput([]byte(`{"anything":true}`)))
	assert.NoError(t, a.ValidateOutput(nil))
}

func TestValidate(t *testing.T) {
	base := func() Activity {
		return Activity{ID: "a", DisplayName: "A", TaskType: "a", Category: "planning", Timeout: "30s"}
	}
	tests := []struct {
		name    string
		mutate  func(*ActivityRegistry)
		wantErr string
	}{
		{name: "valid", mutate: func(*ActivityRegistry) {}},
		{name: "empty", mutate: func(r *ActivityRegistry) { r.Activities = nil }, wantErr: "no activities"},
		{name: "duplicate id", mutate: func(r *ActivityRegistry) {
			b := base()
			b.TaskType = "b"
			r.Activities = append(r.Activities, b)
		}, wantErr: "duplicate activity ID"},
		{name: "duplicate task type", mutate: func(r *ActivityRegistry) {
			b := base()
			b.ID = "b"
			r.Activities = append(r.Activities, b)
		}, wantErr: "duplicate task type"},
		{name: "missing category", mutate: func(r *ActivityRegistry) { r.Activities[0].Category = "" }, wantErr: "Category"},
		{name: "bad timeout", mutate: func(r *ActivityRegistry) { r.Activities[0].Timeout = "soon" }, wantErr: "invalid timeout"},
		{name: "bad schema", mutate: func(r *ActivityRegistry) {
			r.Activities[0].InputSchema = map[string]interface{}{"type": 12}
		}, wantErr: "invalid input schema"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &ActivityRegistry{Activities: []Activity{base()}}
			tt.mutate(reg)
			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	require.NoError(t, os.WriteFile(path, builtin, 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), reg)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}
