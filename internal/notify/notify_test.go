package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	stderrors "bizpilot/internal/common/errors"
	"bizpilot/internal/common/logger"
	"bizpilot/internal/models"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: awssdk.String("m-1")}, nil
}

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("m-2")}, nil
}

func shareRequest() ShareRequest {
	return ShareRequest{
		Plan:       &models.BusinessPlan{ID: "p-1", Title: "Lean Startup Plan for Cafe", Description: "Minimal viable approach"},
		SenderID:   "u-1",
		SenderName: "Ada",
		Recipient:  "friend@example.com",
		Message:    "  thoughts?  ",
		ShareLink:  "http://localhost:3000/plans/p-1",
	}
}

func TestShareEmail(t *testing.T) {
	msg := ShareEmail("noreply@bizpilot.dev", shareRequest())
	assert.Equal(t, []string{"friend@example.com"}, msg.To)
	assert.Equal(t, `Ada shared "Lean Startup Plan for Cafe"`, msg.Subject)
	assert.Equal(t, "Ada shared a business plan with you.\n\n"+
		"Lean Startup Plan for Cafe\nMinimal viable approach\n\n"+
		"Message: thoughts?\n\n"+
		"View the plan: http://localhost:3000/plans/p-1\n", msg.Body)
}

func TestSharer_Share(t *testing.T) {
	sender := &fakeSES{}
	sharer := NewSharer(sender, "noreply@bizpilot.dev", logger.NewTestLogger(t))

	n, err := sharer.Share(context.Background(), shareRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusSent, n.Status)
	assert.Equal(t, "friend@example.com", n.Recipient)
	assert.NotEmpty(t, n.ID)

	require.Len(t, sender.inputs, 1)
	assert.Equal(t, "noreply@bizpilot.dev", awssdk.ToString(sender.inputs[0].Source))
}

func TestSharer_Failure(t *testing.T) {
	sharer := NewSharer(&fakeSES{err: errors.New("throttled")}, "noreply@bizpilot.dev", nil)
	_, err := sharer.Share(context.Background(), shareRequest())
	assert.True(t, stderrors.Is(err, stderrors.ErrCodeNotificationSendFailed))
}

func TestSharer_Disabled(t *testing.T) {
	n, err := NewSharer(nil, "", nil).Share(context.Background(), shareRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusDisabled, n.Status)
	assert.Equal(t, "http://localhost:3000/plans/p-1", n.ShareLink)
}

func TestPublisher(t *testing.T) {
	client := &fakeSNS{}
	pub := NewPublisher(client, "arn:aws:sns:us-east-1:1:plans", logger.NewTestLogger(t))
	pub.now = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, pub.Publish(context.Background(), models.PlanEvent{
		Type:    models.EventPlansGenerated,
		UserID:  "u-1",
		PlanIDs: []string{"p-1"},
	}))

	require.Len(t, client.inputs, 1)
	var event models.PlanEvent
	require.NoError(t, json.Unmarshal([]byte(awssdk.ToString(client.inputs[0].Message)), &event))
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "2024-06-15T12:00:00Z", event.OccurredAt.Format(time.RFC3339))
	assert.Equal(t, "arn:aws:sns:us-east-1:1:plans", awssdk.ToString(client.inputs[0].TopicArn))
}

func TestPublisher_Errors(t *testing.T) {
	pub := NewPublisher(&fakeSNS{err: errors.New("down")}, "arn", nil)
	err := pub.Publish(context.Background(), models.PlanEvent{Type: models.EventPlanSaved})
	assert.True(t, stderrors.Is(err, stderrors.ErrCodeNotificationSendFailed))

	var nilPub *Publisher
	assert.NoError(t, nilPub.Publish(context.Background(), models.PlanEvent{}))
	assert.NoError(t, NewPublisher(nil, "", nil).Publish(context.Background(), models.PlanEvent{}))
}
