package handler

import (
	"context"
	"time"

	"github.com/voltride/rental-service/internal/model"
	"github.com/voltride/rental-service/internal/service"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type ReservationService interface {
	Create(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error)
	Get(ctx context.Context, reservationUid string) (model.Reservation, error)
	List(ctx context.Context, customerID model.CustomerID) ([]model.Reservation, error)
	Confirm(ctx context.Context, reservationUid string) (model.Reservation, model.AccessToken, error)
	Cancel(ctx context.Context, reservationUid string) (model.Reservation, error)
	Availability(ctx context.Context, vehicleUid string, iv model.Interval) (model.AvailabilityResponse, error)
}

type TokenService interface {
	Issue(ctx context.Context, reservationUid string, expiresAt time.Time) (model.AccessToken, error)
	Verify(ctx context.Context, value string) (model.Reservation, error)
}

type HandoverService interface {
	RecordPickup(ctx context.Context, req model.PickupRequest) (model.Handover, error)
	RecordReturn(ctx context.Context, req model.ReturnRequest) (model.Handover, error)
	History(ctx context.Context, reservationUid string) ([]model.Handover, error)
}

type WalletService interface {
	Deposit(ctx context.Context, customerID model.CustomerID, amountCents int64) (model.WalletEntry, error)
	Withdraw(ctx context.Context, customerID model.CustomerID, amountCents int64) (model.WalletEntry, error)
	Balance(ctx context.Context, customerID model.CustomerID) (int64, error)
	Entries(ctx context.Context, customerID model.CustomerID) ([]model.WalletEntry, error)
}

var (
	_ ReservationService = (*service.ReservationService)(nil)
	_ TokenService       = (*service.TokenService)(nil)
	_ HandoverService    = (*service.HandoverService)(nil)
	_ WalletService      = (*service.WalletService)(nil)
)
