// Package bootstrap builds the runtime collaborators shared by the server
// and the cron job runner from configuration.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"vehicle-rental-backend/internal/config"
	"vehicle-rental-backend/internal/events"
	"vehicle-rental-backend/internal/logger"
	"vehicle-rental-backend/internal/repository"
	"vehicle-rental-backend/internal/repository/memory"
	"vehicle-rental-backend/internal/repository/postgres"
	"vehicle-rental-backend/internal/service"
)

// Store groups the repositories behind either backing store.
type Store struct {
	Bookings      repository.BookingRepository
	Payments      repository.PaymentRepository
	Releases      repository.VehicleReleaseRepository
	Returns       repository.VehicleReturnRepository
	Vehicles      repository.VehicleRepository
	Drivers       repository.DriverRepository
	Users         repository.UserRepository
	Notifications repository.NotificationRepository
	Tx            repository.TxManager

	// DB is nil for the in-memory store.
	DB *sql.DB
}

// Close releases the database connection, if any.
func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// OpenStore connects to the configured store.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		return FromMemory(memory.NewStore()), nil
	}

	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	logger.Info("Database connection established")
	return FromPostgres(db), nil
}

func FromPostgres(db *sql.DB) *Store {
	pg := postgres.NewStore(db)
	return &Store{
		Bookings:      pg.Bookings,
		Payments:      pg.Payments,
		Releases:      pg.Releases,
		Returns:       pg.Returns,
		Vehicles:      pg.Vehicles,
		Drivers:       pg.Drivers,
		Users:         pg.Users,
		Notifications: pg.Notifications,
		Tx:            pg.TxManager,
		DB:            db,
	}
}

func FromMemory(m *memory.Store) *Store {
	return &Store{
		Bookings:      m.Bookings(),
		Payments:      m.Payments(),
		Releases:      m.Releases(),
		Returns:       m.Returns(),
		Vehicles:      m.Vehicles(),
		Drivers:       m.Drivers(),
		Users:         m.Users(),
		Notifications: m.Notifications(),
		Tx:            m,
	}
}

// Notifier builds the notification dispatcher with every enabled channel.
// The returned cleanup closes the event bus connection.
func Notifier(ctx context.Context, cfg *config.Config, store *Store) (service.Notifier, func(), error) {
	var channels []service.Channel
	cleanup := func() {}

	if cfg.SendGrid.Enabled {
		channels = append(channels, service.NewEmailChannel(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName))
		logger.Info("Email notifications enabled", "from", cfg.SendGrid.FromEmail)
	}

	if cfg.Firebase.Enabled {
		push, err := service.NewPushChannel(ctx, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to initialize push notifications: %w", err)
		}
		channels = append(channels, push)
		logger.Info("Push notifications enabled")
	}

	if cfg.RabbitMQ.Enabled {
		publisher, err := events.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to connect to event bus: %w", err)
		}
		channels = append(channels, service.NewEventChannel(publisher))
		cleanup = func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close event bus connection", "error", err)
			}
		}
		logger.Info("Event publishing enabled", "exchange", cfg.RabbitMQ.Exchange)
	}

	return service.NewNotifier(store.Users, store.Notifications, channels...), cleanup, nil
}

// Services holds every lifecycle service built over one store.
type Services struct {
	Bookings      service.BookingService
	Handover      service.HandoverService
	Payments      service.PaymentService
	Notifications service.NotificationService
}

func NewServices(cfg *config.Config, store *Store, notifier service.Notifier) Services {
	bookings, handover, payments := service.NewServices(service.Dependencies{
		Bookings:       store.Bookings,
		Payments:       store.Payments,
		Releases:       store.Releases,
		Returns:        store.Returns,
		Vehicles:       store.Vehicles,
		Drivers:        store.Drivers,
		Tx:             store.Tx,
		Notifier:       notifier,
		PaymentMethods: cfg.Payments.Methods,
	})
	return Services{
		Bookings:      bookings,
		Handover:      handover,
		Payments:      payments,
		Notifications: service.NewNotificationService(store.Notifications),
	}
}
