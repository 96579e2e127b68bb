package service

import (
	"context"
	"fmt"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type pushChannel struct {
	client messagingClient
}

// NewPushChannel creates an FCM client from a service-account credentials file.
func NewPushChannel(ctx context.Context, credentialsFile string) (Channel, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}
	return &pushChannel{client: client}, nil
}

func (c *pushChannel) Name() string { return "push" }

// Deliver sends an FCM message to the user's device. Users without a
// registered token are skipped.
func (c *pushChannel) Deliver(ctx context.Context, to *domain.User, n *domain.Notification) error {
	if to.PushToken == "" {
		return nil
	}
	msg := &messaging.Message{
		Token: to.PushToken,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: map[string]string{
			"type":         string(n.Type),
			"subject_kind": string(n.Subject.Kind),
			"subject_id":   fmt.Sprint(n.Subject.ID),
		},
	}
	logger.ExternalServiceCall("FCM", "Send", "userID", to.ID, "event", n.Type)
	id, err := c.client.Send(ctx, msg)
	logger.ExternalServiceResult("FCM", "Send", err, "userID", to.ID, "messageID", id)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	return nil
}
