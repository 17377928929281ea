// internal/common/aws/aws_test.go
package aws

import (
	"encoding/json"
	"testing"
	"time"

	"bizpilot/internal/models"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailInput(t *testing.T) {
	in := EmailInput(models.EmailMessage{
		To:      []string{"friend@example.com"},
		From:    "noreply@bizpilot.dev",
		Subject: "Plan shared",
		Body:    "Take a look",
	})
	assert.Equal(t, "noreply@bizpilot.dev", awssdk.ToString(in.Source))
	assert.Equal(t, []string{"friend@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Take a look", awssdk.ToString(in.Message.Body.Text.Data))
	assert.Nil(t, in.Message.Body.Html)
	assert.Empty(t, in.ReplyToAddresses)
}

func TestPublishInput(t *testing.T) {
	event := models.PlanEvent{
		ID:         "e-1",
		Type:       models.EventPlansGenerated,
		UserID:     "u-1",
		PlanIDs:    []string{"p-1", "p-2", "p-3"},
		OccurredAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	in, err := PublishInput("arn:aws:sns:us-east-1:1:plans", event)
	require.NoError(t, err)

	assert.Equal(t, "plans.generated", awssdk.ToString(in.MessageAttributes["eventType"].StringValue))

	var decoded models.PlanEvent
	require.NoError(t, json.Unmarshal([]byte(awssdk.ToString(in.Message)), &decoded))
	assert.Equal(t, event.PlanIDs, decoded.PlanIDs)
}
