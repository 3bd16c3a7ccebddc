package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voltride/rental-service/config"
	"github.com/voltride/rental-service/internal/model"
	"github.com/voltride/rental-service/internal/repository/inmem"
	"github.com/voltride/rental-service/internal/service"
	"github.com/voltride/rental-service/pkg/kafka"
)

func testPolicy() config.Policy {
	return config.Policy{
		DepositCents:           20000,
		LateFeeCentsPerHour:    1500,
		CategoryDamageFeeCents: 5000,
		DamageItemFeeCents:     2500,
		PickupWindow:           2 * time.Hour,
	}
}

type env struct {
	store        *inmem.Store
	wallet       *service.WalletService
	tokens       *service.TokenService
	reservations *service.ReservationService
	handovers    *service.HandoverService

	vehicleUid string
	stationUid string
}

func newEnv(t *testing.T, policy config.Policy) *env {
	t.Helper()
	store := inmem.NewStore()
	log := zap.NewExample().Named("test")
	publisher := kafka.NopPublisher{}

	tokens := service.NewTokenService(store, store, config.AccessToken{Secret: "test-secret"}, policy.PickupWindow, log)
	wallet := service.NewWalletService(store, log)
	reservations := service.NewReservationService(store, store, wallet, tokens, publisher, policy, log)
	handovers := service.NewHandoverService(store, store, store, wallet, publisher, policy, log)

	e := &env{
		store:        store,
		wallet:       wallet,
		tokens:       tokens,
		reservations: reservations,
		handovers:    handovers,
		vehicleUid:   uuid.NewString(),
		stationUid:   uuid.NewString(),
	}
	store.AddVehicle(model.Vehicle{
		VehicleUid:   e.vehicleUid,
		StationUid:   e.stationUid,
		Status:       model.VehicleAvailable,
		BatteryLevel: 100,
		Condition:    model.ConditionExcellent,
	})
	return e
}

func (e *env) createReservation(t *testing.T, customerID model.CustomerID, start, end time.Time) model.Reservation {
	t.Helper()
	res, err := e.reservations.Create(context.Background(), model.CreateReservationRequest{
		VehicleUid: e.vehicleUid,
		StationUid: e.stationUid,
		StartTime:  start,
		EndTime:    end,
		CustomerID: customerID,
	})
	require.NoError(t, err)
	return res
}

func snapshot(exterior, interior, tires model.ConditionGrade, damages ...string) model.ConditionSnapshot {
	return model.ConditionSnapshot{
		BatteryLevel: 90,
		Mileage:      12000,
		Exterior:     exterior,
		Interior:     interior,
		Tires:        tires,
		Damages:      damages,
	}
}

// fund tops up the wallet so the deposit charge can be taken.
func (e *env) fund(t *testing.T, customerID model.CustomerID, amountCents int64) {
	t.Helper()
	_, err := e.wallet.Deposit(context.Background(), customerID, amountCents)
	require.NoError(t, err)
}

// confirmed walks a fresh reservation to CONFIRMED and returns it with
// its access token.
func (e *env) confirmed(t *testing.T, customerID model.CustomerID, start, end time.Time) (model.Reservation, model.AccessToken) {
	t.Helper()
	e.fund(t, customerID, 50000)
	res := e.createReservation(t, customerID, start, end)
	confirmed, token, err := e.reservations.Confirm(context.Background(), res.ReservationUid)
	require.NoError(t, err)
	return confirmed, token
}

// active additionally scans the token and records the pickup.
func (e *env) active(t *testing.T, customerID model.CustomerID, start, end time.Time, pickup model.ConditionSnapshot) model.Reservation {
	t.Helper()
	res, token := e.confirmed(t, customerID, start, end)
	_, err := e.tokens.Verify(context.Background(), token.Value)
	require.NoError(t, err)
	_, err = e.handovers.RecordPickup(context.Background(), model.PickupRequest{
		ReservationUid: res.ReservationUid,
		Snapshot:       pickup,
		StaffID:        "staff-1",
	})
	require.NoError(t, err)
	res, err = e.reservations.Get(context.Background(), res.ReservationUid)
	require.NoError(t, err)
	return res
}
