package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voltride/rental-service/config"
	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
	"github.com/voltride/rental-service/internal/repository"
	"github.com/voltride/rental-service/pkg/kafka"
)

// HandoverService records vehicle condition at pickup and return and
// settles the rental on return.
type HandoverService struct {
	log          *zap.Logger
	repo         repository.HandoverRepository
	reservations repository.ReservationRepository
	tokens       repository.TokenRepository
	wallet       *WalletService
	publisher    kafka.Publisher
	policy       config.Policy
}

func NewHandoverService(
	repo repository.HandoverRepository,
	reservations repository.ReservationRepository,
	tokens repository.TokenRepository,
	wallet *WalletService,
	publisher kafka.Publisher,
	policy config.Policy,
	log *zap.Logger,
) *HandoverService {
	return &HandoverService{
		log:          log,
		repo:         repo,
		reservations: reservations,
		tokens:       tokens,
		wallet:       wallet,
		publisher:    publisher,
		policy:       policy,
	}
}

// RecordPickup requires a confirmed reservation whose access token has
// been consumed by a staff scan; it writes the pickup snapshot and
// activates the reservation in one transaction.
func (s *HandoverService) RecordPickup(ctx context.Context, req model.PickupRequest) (model.Handover, error) {
	res, err := s.reservations.Get(ctx, req.ReservationUid)
	if err != nil {
		return model.Handover{}, err
	}
	if res.Status != model.StatusConfirmed {
		return model.Handover{}, errs.ErrPickupNotAllowed
	}
	token, err := s.tokens.LastByReservation(ctx, req.ReservationUid)
	if err != nil || !token.Used() {
		return model.Handover{}, errs.ErrPickupNotAllowed
	}

	return s.repo.RecordPickup(ctx, newHandover(req.ReservationUid, req.StaffID, model.HandoverPickup, req.Snapshot))
}

// RecordReturn computes the settlement from the pickup baseline and
// the return snapshot, then persists the return handover, the refund
// and any shortfall charge, the completion and the vehicle release as
// one unit. Retries fail with ErrReturnAlreadyRecorded and never
// double-charge.
func (s *HandoverService) RecordReturn(ctx context.Context, req model.ReturnRequest) (model.Handover, error) {
	res, err := s.reservations.Get(ctx, req.ReservationUid)
	if err != nil {
		return model.Handover{}, err
	}

	pickup, err := s.pickupFor(ctx, req.ReservationUid)
	if err != nil {
		return model.Handover{}, err
	}

	settlement := ComputeSettlement(res.EndTime, req.ReturnedAt.UTC(), pickup.Snapshot(), req.Snapshot, s.policy, res.DepositCents)

	h := newHandover(req.ReservationUid, req.StaffID, model.HandoverReturn, req.Snapshot)
	h.LateHours = settlement.LateHours
	h.LateFeeCents = settlement.LateFeeCents
	h.DamageFeeCents = settlement.DamageFeeCents
	h.TotalDueCents = settlement.TotalDueCents
	h.DepositRefundCents = settlement.DepositRefundCents
	h.OutstandingCents = settlement.OutstandingCents

	// The refund entry is always written, zero included, so every
	// completed rental has its deposit resolution on the ledger.
	entries := []model.WalletEntry{
		s.wallet.refundEntry(res.CustomerID, settlement.DepositRefundCents, req.ReservationUid),
	}
	if settlement.OutstandingCents > 0 {
		entries = append(entries,
			s.wallet.pendingChargeEntry(res.CustomerID, settlement.OutstandingCents, req.ReservationUid))
	}

	created, err := s.repo.RecordReturn(ctx, h, entries)
	if err != nil {
		return model.Handover{}, err
	}

	s.emitCompleted(res)
	return created, nil
}

func (s *HandoverService) History(ctx context.Context, reservationUid string) ([]model.Handover, error) {
	return s.repo.ListByReservation(ctx, reservationUid)
}

func (s *HandoverService) pickupFor(ctx context.Context, reservationUid string) (model.Handover, error) {
	items, err := s.repo.ListByReservation(ctx, reservationUid)
	if err != nil {
		return model.Handover{}, err
	}
	for _, h := range items {
		if h.Kind == model.HandoverPickup {
			return h, nil
		}
	}
	return model.Handover{}, errs.ErrReturnNotAllowed
}

func newHandover(reservationUid string, staffID model.StaffID, kind model.HandoverKind, snap model.ConditionSnapshot) model.Handover {
	return model.Handover{
		HandoverUid:    uuid.NewString(),
		ReservationUid: reservationUid,
		StaffID:        staffID,
		Kind:           kind,
		BatteryLevel:   snap.BatteryLevel,
		Mileage:        snap.Mileage,
		Exterior:       snap.Exterior,
		Interior:       snap.Interior,
		Tires:          snap.Tires,
		Damages:        snap.Damages,
	}
}

func (s *HandoverService) emitCompleted(res model.Reservation) {
	err := s.publisher.Publish(kafka.RentalTopic, kafka.EventRental{
		Event:          kafka.EventReservationCompleted,
		ReservationUid: res.ReservationUid,
		CustomerID:     string(res.CustomerID),
		At:             time.Now().UTC(),
	})
	if err != nil {
		s.log.Error("publish event", zap.String("event", kafka.EventReservationCompleted), zap.Error(err))
	}
}
