package service

import (
	"context"
	"errors"
	"testing"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/events"

	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) ListAdmins(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotificationRepo) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}

func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Name() string { return "mock" }

func (m *MockChannel) Deliver(ctx context.Context, to *domain.User, n *domain.Notification) error {
	args := m.Called(ctx, to, n)
	return args.Error(0)
}

type MockSendGrid struct {
	mock.Mock
}

func (m *MockSendGrid) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rest.Response), args.Error(1)
}

type MockMessaging struct {
	mock.Mock
}

func (m *MockMessaging) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func TestNotificationDispatcher_NotifyUser(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: 10, Name: "Alice", Email: "alice@example.com"}
	msg := Message{Title: "Booking Cancelled", Body: "Booking #7 was cancelled.", Data: map[string]any{"booking_id": int32(7)}}

	t.Run("Success", func(t *testing.T) {
		users := new(MockUserRepo)
		notes := new(MockNotificationRepo)
		channel := new(MockChannel)
		n := NewNotifier(users, notes, channel)

		users.On("GetByID", ctx, int32(10)).Return(user, nil)
		notes.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
			return n.UserID == 10 && n.Type == domain.EventBookingCancelled && n.Subject == domain.BookingSubject(7) && n.Message == msg.Body
		})).Return(nil)
		channel.On("Deliver", ctx, user, mock.AnythingOfType("*domain.Notification")).Return(nil)

		err := n.NotifyUser(ctx, 10, domain.EventBookingCancelled, domain.BookingSubject(7), msg)
		assert.NoError(t, err)
		notes.AssertExpectations(t)
		channel.AssertExpectations(t)
	})

	t.Run("Channel Failure Still Stores", func(t *testing.T) {
		users := new(MockUserRepo)
		notes := new(MockNotificationRepo)
		channel := new(MockChannel)
		n := NewNotifier(users, notes, channel)

		users.On("GetByID", ctx, int32(10)).Return(user, nil)
		notes.On("Create", ctx, mock.Anything).Return(nil)
		channel.On("Deliver", ctx, user, mock.Anything).Return(errors.New("smtp timeout"))

		err := n.NotifyUser(ctx, 10, domain.EventBookingCancelled, domain.BookingSubject(7), msg)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrNotificationDelivery))
		assert.Contains(t, err.Error(), "smtp timeout")
		notes.AssertCalled(t, "Create", ctx, mock.Anything)
	})

	t.Run("Unknown User", func(t *testing.T) {
		users := new(MockUserRepo)
		n := NewNotifier(users, new(MockNotificationRepo))
		users.On("GetByID", ctx, int32(99)).Return(nil, domain.NotFoundf("User 99 not found"))

		err := n.NotifyUser(ctx, 99, domain.EventBookingCancelled, domain.BookingSubject(7), msg)
		assert.True(t, errors.Is(err, domain.ErrNotificationDelivery))
	})
}

func TestNotificationDispatcher_NotifyAdmins(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepo)
	notes := new(MockNotificationRepo)
	n := NewNotifier(users, notes)

	users.On("ListAdmins", ctx).Return([]domain.User{{ID: 1}, {ID: 2}}, nil)
	notes.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool { return n.UserID == 1 })).Return(nil)
	notes.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool { return n.UserID == 2 })).Return(errors.New("db down"))

	err := n.NotifyAdmins(ctx, domain.EventBookingsAutoCancelled, domain.BookingSubject(3), Message{Title: "Conflicts"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotificationDelivery))
	notes.AssertNumberOfCalls(t, "Create", 2)
}

func TestEmailChannel_Deliver(t *testing.T) {
	ctx := context.Background()
	note := &domain.Notification{Type: domain.EventVehicleReleased, Title: "Vehicle Released", Message: "Drive safe <3"}

	t.Run("Success", func(t *testing.T) {
		client := new(MockSendGrid)
		ch := &emailChannel{client: client, fromEmail: "noreply@rentals.example", fromName: "Rentals"}
		client.On("SendWithContext", ctx, mock.MatchedBy(func(m *mail.SGMailV3) bool {
			return m.Subject == "Vehicle Released" && m.From.Address == "noreply@rentals.example" &&
				m.Personalizations[0].To[0].Address == "alice@example.com"
		})).Return(&rest.Response{StatusCode: 202}, nil)

		err := ch.Deliver(ctx, &domain.User{ID: 10, Name: "Alice", Email: "alice@example.com"}, note)
		assert.NoError(t, err)
		client.AssertExpectations(t)
	})

	t.Run("Error Status", func(t *testing.T) {
		client := new(MockSendGrid)
		ch := &emailChannel{client: client}
		client.On("SendWithContext", ctx, mock.Anything).Return(&rest.Response{StatusCode: 401, Body: "unauthorized"}, nil)

		err := ch.Deliver(ctx, &domain.User{ID: 10, Email: "alice@example.com"}, note)
		assert.ErrorContains(t, err, "status 401")
	})

	t.Run("No Address", func(t *testing.T) {
		client := new(MockSendGrid)
		ch := &emailChannel{client: client}
		assert.NoError(t, ch.Deliver(ctx, &domain.User{ID: 10}, note))
		client.AssertNotCalled(t, "SendWithContext", mock.Anything, mock.Anything)
	})
}

func TestPushChannel_Deliver(t *testing.T) {
	ctx := context.Background()
	note := &domain.Notification{Type: domain.EventPaymentStatusUpdated, Subject: domain.PaymentSubject(4), Title: "Payment Approved", Message: "ok"}

	client := new(MockMessaging)
	ch := &pushChannel{client: client}
	client.On("Send", ctx, mock.MatchedBy(func(m *messaging.Message) bool {
		return m.Token == "device-1" && m.Notification.Title == "Payment Approved" && m.Data["subject_id"] == "4"
	})).Return("projects/x/messages/1", nil)

	assert.NoError(t, ch.Deliver(ctx, &domain.User{ID: 10, PushToken: "device-1"}, note))
	assert.NoError(t, ch.Deliver(ctx, &domain.User{ID: 11}, note))
	client.AssertNumberOfCalls(t, "Send", 1)
}

func TestEventChannel_Deliver(t *testing.T) {
	ctx := context.Background()
	pub := new(MockPublisher)
	ch := NewEventChannel(pub)
	note := &domain.Notification{Type: domain.EventVehicleReturnCompleted, Subject: domain.BookingSubject(9), Title: "Return Completed"}

	pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
		return e.RecipientID == 10 && e.Type == domain.EventVehicleReturnCompleted && e.Subject.ID == 9
	})).Return(nil)

	assert.NoError(t, ch.Deliver(ctx, &domain.User{ID: 10}, note))
	pub.AssertExpectations(t)
}

func TestNotificationService(t *testing.T) {
	ctx := context.Background()
	notes := new(MockNotificationRepo)
	svc := NewNotificationService(notes)

	notes.On("List", ctx, int32(10), int32(20), int32(0)).Return([]domain.Notification{{ID: 1}}, int32(1), nil)
	notes.On("List", ctx, int32(10), int32(5), int32(10)).Return([]domain.Notification{}, int32(1), nil)
	notes.On("MarkAsRead", ctx, int32(1), int32(10)).Return(nil)

	list, total, err := svc.GetNotifications(ctx, 10, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int32(1), total)

	_, _, err = svc.GetNotifications(ctx, 10, 3, 5)
	require.NoError(t, err)

	assert.NoError(t, svc.MarkAsRead(ctx, 10, 1))
	notes.AssertExpectations(t)
}
