package service

import (
	"context"
	"errors"
	"fmt"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/events"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
)

// Channel delivers a stored notification to one recipient outside the app.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, to *domain.User, n *domain.Notification) error
}

type notificationDispatcher struct {
	users    repository.UserRepository
	noteRepo repository.NotificationRepository
	channels []Channel
}

// NewNotifier stores every notification in the recipient's inbox and then
// fans it out to the given channels.
func NewNotifier(users repository.UserRepository, noteRepo repository.NotificationRepository, channels ...Channel) Notifier {
	return &notificationDispatcher{users: users, noteRepo: noteRepo, channels: channels}
}

func (d *notificationDispatcher) NotifyUser(ctx context.Context, userID int32, event domain.EventType, subject domain.Subject, msg Message) error {
	user, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotificationDelivery, err)
	}
	return d.deliver(ctx, user, event, subject, msg)
}

func (d *notificationDispatcher) NotifyAdmins(ctx context.Context, event domain.EventType, subject domain.Subject, msg Message) error {
	admins, err := d.users.ListAdmins(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNotificationDelivery, err)
	}
	var errs []error
	for i := range admins {
		if err := d.deliver(ctx, &admins[i], event, subject, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *notificationDispatcher) deliver(ctx context.Context, user *domain.User, event domain.EventType, subject domain.Subject, msg Message) error {
	n := &domain.Notification{
		UserID:  user.ID,
		Type:    event,
		Subject: subject,
		Title:   msg.Title,
		Message: msg.Body,
		Data:    msg.Data,
	}
	var errs []error
	if err := d.noteRepo.Create(ctx, n); err != nil {
		errs = append(errs, fmt.Errorf("inbox: %w", err))
	}
	for _, ch := range d.channels {
		if err := ch.Deliver(ctx, user, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Name(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w to user %d: %w", domain.ErrNotificationDelivery, user.ID, errors.Join(errs...))
	}
	logger.Debug("Notification delivered", "userID", user.ID, "event", event, "channels", len(d.channels))
	return nil
}

// EventPublisher is the part of events.Publisher the event channel needs.
type EventPublisher interface {
	Publish(ctx context.Context, e events.Event) error
}

type eventChannel struct {
	publisher EventPublisher
}

// NewEventChannel mirrors every notification onto the lifecycle event bus.
func NewEventChannel(publisher EventPublisher) Channel {
	return &eventChannel{publisher: publisher}
}

func (c *eventChannel) Name() string { return "events" }

func (c *eventChannel) Deliver(ctx context.Context, to *domain.User, n *domain.Notification) error {
	return c.publisher.Publish(ctx, events.Event{
		Type:        n.Type,
		Subject:     n.Subject,
		RecipientID: to.ID,
		Title:       n.Title,
		Message:     n.Message,
		Data:        n.Data,
		OccurredAt:  n.CreatedOn,
	})
}
