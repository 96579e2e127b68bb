package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vehicle-rental-backend/internal/config"
	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository/memory"
	"vehicle-rental-backend/internal/service"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyUser(ctx context.Context, userID int32, event domain.EventType, subject domain.Subject, msg service.Message) error {
	args := m.Called(ctx, userID, event, subject, msg)
	return args.Error(0)
}

func (m *MockNotifier) NotifyAdmins(ctx context.Context, event domain.EventType, subject domain.Subject, msg service.Message) error {
	args := m.Called(ctx, event, subject, msg)
	return args.Error(0)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func seed(t *testing.T, store *memory.Store, userID int32, end time.Time, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		UserID:     userID,
		VehicleID:  1,
		StartTime:  end.Add(-48 * time.Hour),
		EndTime:    end,
		PickupType: domain.PickupTypePickup,
		Status:     status,
	}
	require.NoError(t, store.Bookings().Create(context.Background(), b))
	return b
}

func newRunner(store *memory.Store, notifier service.Notifier) *JobRunner {
	return NewJobRunner(Dependencies{
		Bookings: store.Bookings(),
		Vehicles: store.Vehicles(),
		Notifier: notifier,
		Clock:    fixedClock{now: now},
	}, &config.Config{})
}

func TestSendOverdueReturnReminders(t *testing.T) {
	store := memory.NewStore()
	store.PutVehicle(domain.Vehicle{ID: 1, Name: "Toyota Vios", LateFeePerHour: 120, LateFeePerDay: 600})

	overdue := seed(t, store, 10, now.Add(-3*time.Hour), domain.BookingStatusReleased)
	seed(t, store, 11, now.Add(3*time.Hour), domain.BookingStatusReleased)
	seed(t, store, 12, now.Add(-3*time.Hour), domain.BookingStatusPendingReturn)
	seed(t, store, 13, now.Add(-3*time.Hour), domain.BookingStatusCompleted)

	notifier := new(MockNotifier)
	notifier.On("NotifyUser", mock.Anything, int32(10), domain.EventReturnOverdue, domain.BookingSubject(overdue.ID),
		mock.MatchedBy(func(msg service.Message) bool {
			return msg.Data["late_fee"] == 360.0 && msg.Data["late_hours"] == int64(3)
		})).Return(nil).Once()

	sent, err := newRunner(store, notifier).sendOverdueReturnReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	notifier.AssertExpectations(t)
}

func TestSendOverdueReturnReminders_FlatFeeAndFailures(t *testing.T) {
	store := memory.NewStore()
	store.PutVehicle(domain.Vehicle{ID: 1, Name: "Ford Ranger"})

	first := seed(t, store, 10, now.Add(-2*time.Hour), domain.BookingStatusReleased)
	second := seed(t, store, 11, now.Add(-26*time.Hour), domain.BookingStatusReleased)

	notifier := new(MockNotifier)
	notifier.On("NotifyUser", mock.Anything, int32(10), domain.EventReturnOverdue, domain.BookingSubject(first.ID),
		mock.MatchedBy(func(msg service.Message) bool { return msg.Data["late_fee"] == 200.0 })).Return(nil).Once()
	notifier.On("NotifyUser", mock.Anything, int32(11), domain.EventReturnOverdue, domain.BookingSubject(second.ID),
		mock.Anything).Return(domain.ErrNotificationDelivery).Once()

	sent, err := newRunner(store, notifier).sendOverdueReturnReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	notifier.AssertExpectations(t)
}

func TestSendOverdueReturnReminders_RecoversFromPanic(t *testing.T) {
	runner := NewJobRunner(Dependencies{Clock: fixedClock{now: now}}, &config.Config{})
	assert.NotPanics(t, runner.SendOverdueReturnReminders)
}
