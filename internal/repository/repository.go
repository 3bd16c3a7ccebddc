package repository

import (
	"context"
	"time"

	"github.com/voltride/rental-service/internal/model"
)

// Each mutating method is one transactional unit: the status
// transition and its side effects commit together or not at all.

type ReservationRepository interface {
	// Create runs the per-vehicle serialized overlap check, inserts the
	// pending reservation and marks the vehicle slot reserved.
	Create(ctx context.Context, res model.Reservation) (model.Reservation, error)
	Get(ctx context.Context, reservationUid string) (model.Reservation, error)
	ListByCustomer(ctx context.Context, customerID model.CustomerID) ([]model.Reservation, error)
	// Confirm moves PENDING -> CONFIRMED, takes the deposit charge off
	// the wallet (balance checked) and stores the access token.
	Confirm(ctx context.Context, reservationUid string, charge model.WalletEntry, token model.AccessToken) (model.Reservation, error)
	// Cancel moves PENDING/CONFIRMED -> CANCELLED, releases the vehicle
	// slot and, when refund is non-nil, appends the refund entry.
	Cancel(ctx context.Context, reservationUid string, refund *model.WalletEntry) (model.Reservation, error)
}

// VehicleTracker is the availability read surface consumed by the
// reservation service. Reserving and releasing the slot happen inline
// inside the transition transactions, where the row lock lives.
type VehicleTracker interface {
	GetVehicle(ctx context.Context, vehicleUid string) (model.Vehicle, error)
	HasConflict(ctx context.Context, vehicleUid string, iv model.Interval) (bool, error)
}

type TokenRepository interface {
	CreateToken(ctx context.Context, token model.AccessToken) (model.AccessToken, error)
	// Consume atomically marks the token used iff it is unused and
	// unexpired; otherwise it fails without mutating anything.
	Consume(ctx context.Context, tokenID string, now time.Time) (model.AccessToken, error)
	LastByReservation(ctx context.Context, reservationUid string) (model.AccessToken, error)
}

type HandoverRepository interface {
	// RecordPickup inserts the PICKUP handover, moves the reservation
	// CONFIRMED -> ACTIVE and marks the vehicle rented.
	RecordPickup(ctx context.Context, h model.Handover) (model.Handover, error)
	// RecordReturn inserts the RETURN handover with its settlement
	// fields, appends the wallet entries, moves ACTIVE -> COMPLETED and
	// releases the vehicle with the returned condition.
	RecordReturn(ctx context.Context, h model.Handover, entries []model.WalletEntry) (model.Handover, error)
	ListByReservation(ctx context.Context, reservationUid string) ([]model.Handover, error)
}

type WalletRepository interface {
	Append(ctx context.Context, e model.WalletEntry) (model.WalletEntry, error)
	// AppendChecked rejects the entry with ErrInsufficientFunds when the
	// derived balance cannot absorb it; serialized per customer.
	AppendChecked(ctx context.Context, e model.WalletEntry) (model.WalletEntry, error)
	Balance(ctx context.Context, customerID model.CustomerID) (int64, error)
	List(ctx context.Context, customerID model.CustomerID) ([]model.WalletEntry, error)
	ChargeByReference(ctx context.Context, referenceUid string) (model.WalletEntry, error)
}
