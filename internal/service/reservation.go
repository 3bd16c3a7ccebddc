package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/voltride/rental-service/config"
	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
	"github.com/voltride/rental-service/internal/repository"
	"github.com/voltride/rental-service/pkg/kafka"
)

// ReservationService owns the reservation lifecycle:
// PENDING -> CONFIRMED -> ACTIVE -> COMPLETED, with CANCELLED
// reachable from the first two states only. The ACTIVE and COMPLETED
// edges are driven by the handover flow.
type ReservationService struct {
	log       *zap.Logger
	repo      repository.ReservationRepository
	tracker   repository.VehicleTracker
	wallet    *WalletService
	tokens    *TokenService
	publisher kafka.Publisher
	policy    config.Policy
}

func NewReservationService(
	repo repository.ReservationRepository,
	tracker repository.VehicleTracker,
	wallet *WalletService,
	tokens *TokenService,
	publisher kafka.Publisher,
	policy config.Policy,
	log *zap.Logger,
) *ReservationService {
	return &ReservationService{
		log:       log,
		repo:      repo,
		tracker:   tracker,
		wallet:    wallet,
		tokens:    tokens,
		publisher: publisher,
		policy:    policy,
	}
}

func (s *ReservationService) Create(ctx context.Context, req model.CreateReservationRequest) (model.Reservation, error) {
	if !req.StartTime.Before(req.EndTime) {
		return model.Reservation{}, errs.ErrInvalidInterval
	}
	res := model.Reservation{
		ReservationUid: uuid.NewString(),
		CustomerID:     req.CustomerID,
		VehicleUid:     req.VehicleUid,
		StationUid:     req.StationUid,
		Status:         model.StatusPending,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		DepositCents:   s.policy.DepositCents,
	}
	return s.repo.Create(ctx, res)
}

func (s *ReservationService) Get(ctx context.Context, reservationUid string) (model.Reservation, error) {
	return s.repo.Get(ctx, reservationUid)
}

func (s *ReservationService) List(ctx context.Context, customerID model.CustomerID) ([]model.Reservation, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// Confirm moves the reservation to CONFIRMED, takes the deposit off
// the wallet and issues the pickup token, all in one transaction.
func (s *ReservationService) Confirm(ctx context.Context, reservationUid string) (model.Reservation, model.AccessToken, error) {
	res, err := s.repo.Get(ctx, reservationUid)
	if err != nil {
		return model.Reservation{}, model.AccessToken{}, err
	}
	if res.Status != model.StatusPending {
		return model.Reservation{}, model.AccessToken{}, errs.ErrInvalidTransition
	}

	token, err := s.tokens.Mint(reservationUid, res.StartTime.Add(s.policy.PickupWindow))
	if err != nil {
		return model.Reservation{}, model.AccessToken{}, err
	}
	charge := s.wallet.chargeEntry(res.CustomerID, res.DepositCents, reservationUid)

	confirmed, err := s.repo.Confirm(ctx, reservationUid, charge, token)
	if err != nil {
		return model.Reservation{}, model.AccessToken{}, err
	}
	s.emit(kafka.EventReservationConfirmed, confirmed)
	return confirmed, token, nil
}

// Cancel releases the vehicle slot and refunds the deposit charge if
// one was taken. A pending reservation with no deposit entry cancels
// without any wallet movement.
func (s *ReservationService) Cancel(ctx context.Context, reservationUid string) (model.Reservation, error) {
	var refund *model.WalletEntry
	charge, err := s.wallet.ChargeByReference(ctx, reservationUid)
	switch {
	case err == nil:
		e := s.wallet.refundEntry(charge.CustomerID, -charge.AmountCents, reservationUid)
		refund = &e
	case errors.Is(err, errs.ErrNotFound):
	default:
		return model.Reservation{}, err
	}

	cancelled, err := s.repo.Cancel(ctx, reservationUid, refund)
	if err != nil {
		return model.Reservation{}, err
	}
	s.emit(kafka.EventReservationCancelled, cancelled)
	return cancelled, nil
}

func (s *ReservationService) Availability(ctx context.Context, vehicleUid string, iv model.Interval) (model.AvailabilityResponse, error) {
	vehicle, err := s.tracker.GetVehicle(ctx, vehicleUid)
	if err != nil {
		return model.AvailabilityResponse{}, err
	}
	conflict, err := s.tracker.HasConflict(ctx, vehicleUid, iv)
	if err != nil {
		return model.AvailabilityResponse{}, err
	}
	return model.AvailabilityResponse{
		VehicleUid: vehicleUid,
		StartTime:  iv.Start,
		EndTime:    iv.End,
		Available:  !conflict && vehicle.Status != model.VehicleMaintenance,
	}, nil
}

// emit publishes a lifecycle event for the notification service.
// Delivery is best effort; the transition has already committed.
func (s *ReservationService) emit(event string, res model.Reservation) {
	err := s.publisher.Publish(kafka.RentalTopic, kafka.EventRental{
		Event:          event,
		ReservationUid: res.ReservationUid,
		CustomerID:     string(res.CustomerID),
		At:             time.Now().UTC(),
	})
	if err != nil {
		s.log.Error("publish event", zap.String("event", event), zap.Error(err))
	}
}
