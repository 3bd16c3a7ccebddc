// Package inmem is an in-memory implementation of every repository
// interface. A single mutex stands in for the row-level locking the
// Postgres store uses, which keeps the same all-or-nothing semantics.
package inmem

import (
	"context"
	"sync"
	"time"

	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
	"github.com/voltride/rental-service/internal/repository"
)

type Store struct {
	mu sync.Mutex

	vehicles     map[string]*model.Vehicle
	reservations map[string]*model.Reservation
	tokens       map[string]*model.AccessToken
	handovers    []model.Handover
	entries      []model.WalletEntry

	nextID int
}

var (
	_ repository.ReservationRepository = (*Store)(nil)
	_ repository.VehicleTracker        = (*Store)(nil)
	_ repository.TokenRepository       = (*Store)(nil)
	_ repository.HandoverRepository    = (*Store)(nil)
	_ repository.WalletRepository      = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		vehicles:     make(map[string]*model.Vehicle),
		reservations: make(map[string]*model.Reservation),
		tokens:       make(map[string]*model.AccessToken),
	}
}

// AddVehicle seeds a vehicle row; test setup helper.
func (s *Store) AddVehicle(v model.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	v.ID = s.nextID
	if v.Status == "" {
		v.Status = model.VehicleAvailable
	}
	s.vehicles[v.VehicleUid] = &v
}

func (s *Store) id() int {
	s.nextID++
	return s.nextID
}

func (s *Store) hasConflictLocked(vehicleUid string, iv model.Interval) bool {
	for _, res := range s.reservations {
		if res.VehicleUid != vehicleUid || res.Status.Terminal() {
			continue
		}
		if iv.Overlaps(model.Interval{Start: res.StartTime, End: res.EndTime}) {
			return true
		}
	}
	return false
}

func (s *Store) balanceLocked(customerID model.CustomerID) int64 {
	var balance int64
	for _, e := range s.entries {
		if e.CustomerID == customerID {
			balance += e.AmountCents
		}
	}
	return balance
}

func (s *Store) appendLocked(e model.WalletEntry) model.WalletEntry {
	e.ID = s.id()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.entries = append(s.entries, e)
	return e
}

func (s *Store) Create(_ context.Context, res model.Reservation) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vehicle, ok := s.vehicles[res.VehicleUid]
	if !ok {
		return model.Reservation{}, errs.ErrNotFound
	}
	if vehicle.Status == model.VehicleMaintenance {
		return model.Reservation{}, errs.ErrVehicleUnavailable
	}
	if s.hasConflictLocked(res.VehicleUid, model.Interval{Start: res.StartTime, End: res.EndTime}) {
		return model.Reservation{}, errs.ErrVehicleUnavailable
	}

	res.ID = s.id()
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	s.reservations[res.ReservationUid] = &res
	if vehicle.Status == model.VehicleAvailable {
		vehicle.Status = model.VehicleReserved
	}
	return res, nil
}

func (s *Store) Get(_ context.Context, reservationUid string) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.reservations[reservationUid]
	if !ok {
		return model.Reservation{}, errs.ErrNotFound
	}
	return *res, nil
}

func (s *Store) ListByCustomer(_ context.Context, customerID model.CustomerID) ([]model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []model.Reservation
	for _, res := range s.reservations {
		if res.CustomerID == customerID {
			items = append(items, *res)
		}
	}
	return items, nil
}

func (s *Store) Confirm(_ context.Context, reservationUid string, charge model.WalletEntry, token model.AccessToken) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[reservationUid]
	if !ok {
		return model.Reservation{}, errs.ErrNotFound
	}
	if res.Status != model.StatusPending {
		return model.Reservation{}, errs.ErrInvalidTransition
	}
	if s.balanceLocked(charge.CustomerID)+charge.AmountCents < 0 {
		return model.Reservation{}, errs.ErrInsufficientFunds
	}

	s.appendLocked(charge)
	token.ID = s.id()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	s.tokens[token.TokenID] = &token
	res.Status = model.StatusConfirmed
	return *res, nil
}

func (s *Store) Cancel(_ context.Context, reservationUid string, refund *model.WalletEntry) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[reservationUid]
	if !ok {
		return model.Reservation{}, errs.ErrNotFound
	}
	if !res.Status.CanTransition(model.StatusCancelled) {
		return model.Reservation{}, errs.ErrInvalidTransition
	}

	res.Status = model.StatusCancelled
	if vehicle, ok := s.vehicles[res.VehicleUid]; ok &&
		(vehicle.Status == model.VehicleReserved || vehicle.Status == model.VehicleRented) {
		vehicle.Status = model.VehicleAvailable
	}
	if refund != nil {
		s.appendLocked(*refund)
	}
	return *res, nil
}

func (s *Store) GetVehicle(_ context.Context, vehicleUid string) (model.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vehicle, ok := s.vehicles[vehicleUid]
	if !ok {
		return model.Vehicle{}, errs.ErrNotFound
	}
	return *vehicle, nil
}

func (s *Store) HasConflict(_ context.Context, vehicleUid string, iv model.Interval) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasConflictLocked(vehicleUid, iv), nil
}

func (s *Store) CreateToken(_ context.Context, token model.AccessToken) (model.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token.ID = s.id()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	s.tokens[token.TokenID] = &token
	return token, nil
}

func (s *Store) Consume(_ context.Context, tokenID string, now time.Time) (model.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenID]
	if !ok {
		return model.AccessToken{}, errs.ErrNotFound
	}
	if token.Used() {
		return model.AccessToken{}, errs.ErrTokenAlreadyUsed
	}
	if !now.Before(token.ExpiresAt) {
		return model.AccessToken{}, errs.ErrTokenExpired
	}
	usedAt := now
	token.UsedAt = &usedAt
	return *token, nil
}

func (s *Store) LastByReservation(_ context.Context, reservationUid string) (model.AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var last *model.AccessToken
	for _, token := range s.tokens {
		if token.ReservationUid != reservationUid {
			continue
		}
		if last == nil || token.ID > last.ID {
			last = token
		}
	}
	if last == nil {
		return model.AccessToken{}, errs.ErrNotFound
	}
	return *last, nil
}

func (s *Store) RecordPickup(_ context.Context, h model.Handover) (model.Handover, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[h.ReservationUid]
	if !ok || res.Status != model.StatusConfirmed {
		return model.Handover{}, errs.ErrPickupNotAllowed
	}
	for _, existing := range s.handovers {
		if existing.ReservationUid == h.ReservationUid && existing.Kind == model.HandoverPickup {
			return model.Handover{}, errs.ErrPickupNotAllowed
		}
	}

	res.Status = model.StatusActive
	h.ID = s.id()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	s.handovers = append(s.handovers, h)
	if vehicle, ok := s.vehicles[res.VehicleUid]; ok {
		vehicle.Status = model.VehicleRented
		vehicle.BatteryLevel = h.BatteryLevel
		vehicle.Mileage = h.Mileage
	}
	return h, nil
}

func (s *Store) RecordReturn(_ context.Context, h model.Handover, entries []model.WalletEntry) (model.Handover, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.handovers {
		if existing.ReservationUid == h.ReservationUid && existing.Kind == model.HandoverReturn {
			return model.Handover{}, errs.ErrReturnAlreadyRecorded
		}
	}
	res, ok := s.reservations[h.ReservationUid]
	if !ok || res.Status != model.StatusActive {
		return model.Handover{}, errs.ErrReturnNotAllowed
	}

	res.Status = model.StatusCompleted
	h.ID = s.id()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	s.handovers = append(s.handovers, h)
	for _, e := range entries {
		s.appendLocked(e)
	}
	if vehicle, ok := s.vehicles[res.VehicleUid]; ok {
		vehicle.Status = model.VehicleAvailable
		vehicle.BatteryLevel = h.BatteryLevel
		vehicle.Mileage = h.Mileage
		vehicle.Condition = h.Snapshot().Worst()
	}
	return h, nil
}

func (s *Store) ListByReservation(_ context.Context, reservationUid string) ([]model.Handover, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []model.Handover
	for _, h := range s.handovers {
		if h.ReservationUid == reservationUid {
			items = append(items, h)
		}
	}
	return items, nil
}

func (s *Store) Append(_ context.Context, e model.WalletEntry) (model.WalletEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(e), nil
}

func (s *Store) AppendChecked(_ context.Context, e model.WalletEntry) (model.WalletEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balanceLocked(e.CustomerID)+e.AmountCents < 0 {
		return model.WalletEntry{}, errs.ErrInsufficientFunds
	}
	return s.appendLocked(e), nil
}

func (s *Store) Balance(_ context.Context, customerID model.CustomerID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceLocked(customerID), nil
}

func (s *Store) List(_ context.Context, customerID model.CustomerID) ([]model.WalletEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var items []model.WalletEntry
	for _, e := range s.entries {
		if e.CustomerID == customerID {
			items = append(items, e)
		}
	}
	return items, nil
}

func (s *Store) ChargeByReference(_ context.Context, referenceUid string) (model.WalletEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.Kind == model.EntryCharge && e.ReferenceUid != nil && *e.ReferenceUid == referenceUid {
			return e, nil
		}
	}
	return model.WalletEntry{}, errs.ErrNotFound
}
