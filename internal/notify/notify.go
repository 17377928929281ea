// Package notify sends plan share e-mails through SES and publishes plan
// events to SNS.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizpilot/internal/common/aws"
	"bizpilot/internal/common/errors"
	"bizpilot/internal/common/logger"
	"bizpilot/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"
)

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

// EmailSender is the part of the SES client the sharer needs.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// TopicPublisher is the part of the SNS client the publisher needs.
type TopicPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// ShareRequest describes one plan shared with one recipient.
type ShareRequest struct {
	Plan       *models.BusinessPlan
	SenderID   string
	SenderName string
	Recipient  string
	Message    string
	ShareLink  string
}

// Sharer e-mails share links. With no sender configured the share is
// recorded with status "disabled" and nothing is sent.
type Sharer struct {
	sender EmailSender
	from   string
	log    logger.Logger
	now    func() time.Time
}

func NewSharer(sender EmailSender, from string, log logger.Logger) *Sharer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Sharer{
		sender: sender,
		from:   from,
		log:    log.WithFields(map[string]interface{}{"component": "sharer"}),
		now:    time.Now,
	}
}

func (s *Sharer) Share(ctx context.Context, req ShareRequest) (*models.ShareNotification, error) {
	n := &models.ShareNotification{
		ID:        uuid.NewString(),
		PlanID:    req.Plan.ID,
		SenderID:  req.SenderID,
		Recipient: req.Recipient,
		Message:   req.Message,
		ShareLink: req.ShareLink,
		Channel:   "email",
		Status:    StatusDisabled,
		SentAt:    s.now(),
	}
	if s.sender == nil {
		s.log.Debug("e-mail disabled, share not sent", map[string]interface{}{"planId": req.Plan.ID})
		return n, nil
	}

	if _, err := s.sender.SendEmail(ctx, aws.EmailInput(ShareEmail(s.from, req))); err != nil {
		s.log.Error("share e-mail failed", map[string]interface{}{"planId": req.Plan.ID, "error": err.Error()})
		return nil, errors.NewNotificationSendFailedError("email", err)
	}

	n.Status = StatusSent
	s.log.Info("plan shared", map[string]interface{}{"planId": req.Plan.ID, "shareId": n.ID})
	return n, nil
}

// ShareEmail builds the message sent to the recipient.
func ShareEmail(from string, req ShareRequest) models.EmailMessage {
	sender := req.SenderName
	if sender == "" {
		sender = "A BizPilot user"
	}

	var body strings.Builder
	fmt.Fprintf(&body, "%s shared a business plan with you.\n\n", sender)
	fmt.Fprintf(&body, "%s\n%s\n\n", req.Plan.Title, req.Plan.Description)
	if msg := strings.TrimSpace(req.Message); msg != "" {
		fmt.Fprintf(&body, "Message: %s\n\n", msg)
	}
	fmt.Fprintf(&body, "View the plan: %s\n", req.ShareLink)

	return models.EmailMessage{
		To:      []string{req.Recipient},
		From:    from,
		Subject: fmt.Sprintf("%s shared \"%s\"", sender, req.Plan.Title),
		Body:    body.String(),
	}
}

// Publisher emits plan events. A Publisher without a topic client drops
// events.
type Publisher struct {
	client   TopicPublisher
	topicARN string
	log      logger.Logger
	now      func() time.Time
}

func NewPublisher(client TopicPublisher, topicARN string, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Publisher{
		client:   client,
		topicARN: topicARN,
		log:      log.WithFields(map[string]interface{}{"component": "publisher"}),
		now:      time.Now,
	}
}

// Publish fills in the event id and time when missing and sends it.
func (p *Publisher) Publish(ctx context.Context, event models.PlanEvent) error {
	if p == nil || p.client == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}

	input, err := aws.PublishInput(p.topicARN, event)
	if err != nil {
		return errors.NewNotificationSendFailedError("sns", err)
	}
	out, err := p.client.Publish(ctx, input)
	if err != nil {
		p.log.Error("event publish failed", map[string]interface{}{"type": event.Type, "error": err.Error()})
		return errors.NewNotificationSendFailedError("sns", err)
	}

	fields := map[string]interface{}{"type": event.Type, "eventId": event.ID}
	if out != nil && out.MessageId != nil {
		fields["messageId"] = *out.MessageId
	}
	p.log.Debug("event published", fields)
	return nil
}
