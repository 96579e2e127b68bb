// Package memory keeps every repository in process memory. It backs local
// runs without Postgres and the lifecycle tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/repository"
)

type state struct {
	bookings      map[int32]domain.Booking
	payments      map[int32]domain.Payment
	releases      map[int32]domain.VehicleRelease
	returns       map[int32]domain.VehicleReturn
	vehicles      map[int32]domain.Vehicle
	drivers       map[int32]domain.Driver
	users         map[int32]domain.User
	notifications map[int32]domain.Notification
	nextID        int32
}

func (s *state) clone() *state {
	c := &state{
		bookings:      make(map[int32]domain.Booking, len(s.bookings)),
		payments:      make(map[int32]domain.Payment, len(s.payments)),
		releases:      make(map[int32]domain.VehicleRelease, len(s.releases)),
		returns:       make(map[int32]domain.VehicleReturn, len(s.returns)),
		vehicles:      make(map[int32]domain.Vehicle, len(s.vehicles)),
		drivers:       make(map[int32]domain.Driver, len(s.drivers)),
		users:         make(map[int32]domain.User, len(s.users)),
		notifications: make(map[int32]domain.Notification, len(s.notifications)),
		nextID:        s.nextID,
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.releases {
		c.releases[k] = v
	}
	for k, v := range s.returns {
		c.returns[k] = v
	}
	for k, v := range s.vehicles {
		c.vehicles[k] = v
	}
	for k, v := range s.drivers {
		c.drivers[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	return c
}

type txKey struct{}

// Store implements every repository interface over maps. Transactions and
// writes made outside one are serialised by txMu; a failed transaction is
// rolled back by restoring a snapshot.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	s    *state
}

func NewStore() *Store {
	return &Store{s: (&state{}).clone()}
}

func (st *Store) id() int32 {
	st.s.nextID++
	return st.s.nextID
}

func (st *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	st.txMu.Lock()
	defer st.txMu.Unlock()

	st.mu.RLock()
	snapshot := st.s.clone()
	st.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		st.mu.Lock()
		st.s = snapshot
		st.mu.Unlock()
		return err
	}
	return nil
}

// LockVehicle and LockBooking are no-ops beyond the transaction mutex
// already held.
func (st *Store) LockVehicle(ctx context.Context, vehicleID int32) error {
	if ctx.Value(txKey{}) == nil {
		return errors.New("vehicle lock requires a transaction")
	}
	return nil
}

func (st *Store) LockBooking(ctx context.Context, bookingID int32) error {
	if ctx.Value(txKey{}) == nil {
		return errors.New("booking lock requires a transaction")
	}
	return nil
}

// write locks the state for a mutation. A write outside a transaction waits
// for any open transaction to finish so its rollback cannot discard it.
func (st *Store) write(ctx context.Context) (unlock func()) {
	if ctx.Value(txKey{}) != nil {
		st.mu.Lock()
		return st.mu.Unlock
	}
	st.txMu.Lock()
	st.mu.Lock()
	return func() {
		st.mu.Unlock()
		st.txMu.Unlock()
	}
}

// Seeding helpers for vehicles, drivers and users, which the core only reads.

func (st *Store) PutVehicle(v domain.Vehicle) {
	defer st.write(context.Background())()
	st.s.vehicles[v.ID] = v
}

func (st *Store) PutDriver(d domain.Driver) {
	defer st.write(context.Background())()
	st.s.drivers[d.ID] = d
}

func (st *Store) PutUser(u domain.User) {
	defer st.write(context.Background())()
	st.s.users[u.ID] = u
}

// Repository views.

func (st *Store) Bookings() repository.BookingRepository { return bookingRepo{st} }
func (st *Store) Payments() repository.PaymentRepository { return paymentRepo{st} }
func (st *Store) Releases() repository.VehicleReleaseRepository { return releaseRepo{st} }
func (st *Store) Returns() repository.VehicleReturnRepository { return returnRepo{st} }
func (st *Store) Vehicles() repository.VehicleRepository { return vehicleRepo{st} }
func (st *Store) Drivers() repository.DriverRepository { return driverRepo{st} }
func (st *Store) Users() repository.UserRepository { return userRepo{st} }
func (st *Store) Notifications() repository.NotificationRepository { return notificationRepo{st} }

type bookingRepo struct{ st *Store }

func (r bookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	defer r.st.write(ctx)()
	now := time.Now()
	b.ID = r.st.id()
	b.CreatedOn, b.UpdatedOn = now, now
	r.st.s.bookings[b.ID] = copyBooking(*b)
	return nil
}

func (r bookingRepo) GetByID(ctx context.Context, id int32) (*domain.Booking, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	b, ok := r.st.s.bookings[id]
	if !ok {
		return nil, domain.NotFoundf("Booking %d not found", id)
	}
	b = copyBooking(b)
	return &b, nil
}

func (r bookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	defer r.st.write(ctx)()
	if _, ok := r.st.s.bookings[b.ID]; !ok {
		return domain.NotFoundf("Booking %d not found", b.ID)
	}
	b.UpdatedOn = time.Now()
	r.st.s.bookings[b.ID] = copyBooking(*b)
	return nil
}

func (r bookingRepo) List(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, int32, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	var out []domain.Booking
	for _, b := range r.st.s.bookings {
		if f.UserID != nil && b.UserID != *f.UserID {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, b.Status) {
			continue
		}
		if f.EndBefore != nil && !b.EndTime.Before(*f.EndBefore) {
			continue
		}
		out = append(out, copyBooking(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})

	total := int32(len(out))
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		from := (page - 1) * f.PageSize
		if from >= total {
			return nil, total, nil
		}
		to := from + f.PageSize
		if to > total {
			to = total
		}
		out = out[from:to]
	}
	return out, total, nil
}

func (r bookingRepo) ListOverlapping(ctx context.Context, q repository.OverlapQuery) ([]domain.Booking, error) {
	if q.VehicleID == nil && q.DriverID == nil {
		return nil, domain.Validationf("overlap query needs a vehicle or a driver")
	}

	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	var out []domain.Booking
	for _, b := range r.st.s.bookings {
		if q.VehicleID != nil && b.VehicleID != *q.VehicleID {
			continue
		}
		if q.DriverID != nil && (b.DriverID == nil || *b.DriverID != *q.DriverID) {
			continue
		}
		if b.Status == domain.BookingStatusCancelled {
			continue
		}
		if len(q.Statuses) > 0 && !hasStatus(q.Statuses, b.Status) {
			continue
		}
		if q.ExcludeID != nil && b.ID == *q.ExcludeID {
			continue
		}
		if !b.Overlaps(q.Start, q.End) {
			continue
		}
		out = append(out, copyBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type paymentRepo struct{ st *Store }

func (r paymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	defer r.st.write(ctx)()
	p.ID = r.st.id()
	p.CreatedOn = time.Now()
	r.st.s.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) GetByID(ctx context.Context, id int32) (*domain.Payment, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	p, ok := r.st.s.payments[id]
	if !ok {
		return nil, domain.NotFoundf("Payment %d not found", id)
	}
	return &p, nil
}

func (r paymentRepo) GetByReference(ctx context.Context, reference string) (*domain.Payment, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	for _, p := range r.st.s.payments {
		if p.ReferenceNumber == reference {
			return &p, nil
		}
	}
	return nil, nil
}

func (r paymentRepo) Update(ctx context.Context, p *domain.Payment) error {
	defer r.st.write(ctx)()
	if _, ok := r.st.s.payments[p.ID]; !ok {
		return domain.NotFoundf("Payment %d not found", p.ID)
	}
	r.st.s.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) ListByBooking(ctx context.Context, bookingID int32) ([]domain.Payment, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []domain.Payment
	for _, p := range r.st.s.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type releaseRepo struct{ st *Store }

func (r releaseRepo) Create(ctx context.Context, rel *domain.VehicleRelease) error {
	defer r.st.write(ctx)()
	rel.ID = r.st.id()
	rel.CreatedOn = time.Now()
	r.st.s.releases[rel.BookingID] = *rel
	return nil
}

func (r releaseRepo) GetByBooking(ctx context.Context, bookingID int32) (*domain.VehicleRelease, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	rel, ok := r.st.s.releases[bookingID]
	if !ok {
		return nil, nil
	}
	return &rel, nil
}

type returnRepo struct{ st *Store }

func (r returnRepo) Create(ctx context.Context, ret *domain.VehicleReturn) error {
	defer r.st.write(ctx)()
	now := time.Now()
	ret.ID = r.st.id()
	ret.CreatedOn, ret.UpdatedOn = now, now
	r.st.s.returns[ret.BookingID] = *ret
	return nil
}

func (r returnRepo) GetByBooking(ctx context.Context, bookingID int32) (*domain.VehicleReturn, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	ret, ok := r.st.s.returns[bookingID]
	if !ok {
		return nil, nil
	}
	return &ret, nil
}

func (r returnRepo) Update(ctx context.Context, ret *domain.VehicleReturn) error {
	defer r.st.write(ctx)()
	if _, ok := r.st.s.returns[ret.BookingID]; !ok {
		return domain.NotFoundf("Vehicle return for booking %d not found", ret.BookingID)
	}
	ret.UpdatedOn = time.Now()
	r.st.s.returns[ret.BookingID] = *ret
	return nil
}

type vehicleRepo struct{ st *Store }

func (r vehicleRepo) GetByID(ctx context.Context, id int32) (*domain.Vehicle, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	v, ok := r.st.s.vehicles[id]
	if !ok {
		return nil, domain.NotFoundf("Vehicle %d not found", id)
	}
	return &v, nil
}

func (r vehicleRepo) UpdateStatus(ctx context.Context, id int32, status domain.VehicleStatus) error {
	defer r.st.write(ctx)()
	v, ok := r.st.s.vehicles[id]
	if !ok {
		return domain.NotFoundf("Vehicle %d not found", id)
	}
	v.Status = status
	r.st.s.vehicles[id] = v
	return nil
}

type driverRepo struct{ st *Store }

func (r driverRepo) GetByID(ctx context.Context, id int32) (*domain.Driver, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	d, ok := r.st.s.drivers[id]
	if !ok {
		return nil, domain.NotFoundf("Driver %d not found", id)
	}
	return &d, nil
}

func (r driverRepo) ListActive(ctx context.Context) ([]domain.Driver, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []domain.Driver
	for _, d := range r.st.s.drivers {
		if d.Status == domain.DriverStatusActive {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r driverRepo) SetAvailable(ctx context.Context, id int32, available bool) error {
	defer r.st.write(ctx)()
	d, ok := r.st.s.drivers[id]
	if !ok {
		return domain.NotFoundf("Driver %d not found", id)
	}
	d.Available = available
	r.st.s.drivers[id] = d
	return nil
}

type userRepo struct{ st *Store }

func (r userRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	u, ok := r.st.s.users[id]
	if !ok {
		return nil, domain.NotFoundf("User %d not found", id)
	}
	return &u, nil
}

func (r userRepo) ListAdmins(ctx context.Context) ([]domain.User, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []domain.User
	for _, u := range r.st.s.users {
		if u.Role == domain.UserRoleAdmin {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type notificationRepo struct{ st *Store }

func (r notificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	defer r.st.write(ctx)()
	n.ID = r.st.id()
	n.CreatedOn = time.Now()
	r.st.s.notifications[n.ID] = *n
	return nil
}

func (r notificationRepo) List(ctx context.Context, userID int32, limit, offset int32) ([]domain.Notification, int32, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	var out []domain.Notification
	for _, n := range r.st.s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	total := int32(len(out))
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (r notificationRepo) MarkAsRead(ctx context.Context, id, userID int32) error {
	defer r.st.write(ctx)()
	n, ok := r.st.s.notifications[id]
	if !ok || n.UserID != userID {
		return domain.NotFoundf("Notification %d not found", id)
	}
	n.IsRead = true
	r.st.s.notifications[id] = n
	return nil
}

func hasStatus(set []domain.BookingStatus, s domain.BookingStatus) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func copyBooking(b domain.Booking) domain.Booking {
	if b.ValidIDs != nil {
		b.ValidIDs = append([]string(nil), b.ValidIDs...)
	}
	return b
}
