package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
)

func TestHandoverService_RecordPickup(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("confirmed reservation with a scanned token", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res, token := e.confirmed(t, "cust-1", start, end)

		_, err := e.tokens.Verify(ctx, token.Value)
		require.NoError(t, err)

		h, err := e.handovers.RecordPickup(ctx, model.PickupRequest{
			ReservationUid: res.ReservationUid,
			Snapshot:       snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
			StaffID:        "staff-1",
		})
		require.NoError(t, err)
		require.Equal(t, model.HandoverPickup, h.Kind)
		require.Equal(t, model.StaffID("staff-1"), h.StaffID)

		got, err := e.reservations.Get(ctx, res.ReservationUid)
		require.NoError(t, err)
		require.Equal(t, model.StatusActive, got.Status)

		vehicle, err := e.store.GetVehicle(ctx, e.vehicleUid)
		require.NoError(t, err)
		require.Equal(t, model.VehicleRented, vehicle.Status)
	})

	t.Run("token never scanned", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res, _ := e.confirmed(t, "cust-1", start, end)

		_, err := e.handovers.RecordPickup(ctx, model.PickupRequest{
			ReservationUid: res.ReservationUid,
			Snapshot:       snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
			StaffID:        "staff-1",
		})
		require.ErrorIs(t, err, errs.ErrPickupNotAllowed)
	})

	t.Run("pending reservation", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res := e.createReservation(t, "cust-1", start, end)

		_, err := e.handovers.RecordPickup(ctx, model.PickupRequest{
			ReservationUid: res.ReservationUid,
			Snapshot:       snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
			StaffID:        "staff-1",
		})
		require.ErrorIs(t, err, errs.ErrPickupNotAllowed)
	})

	t.Run("second pickup", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res := e.active(t, "cust-1", start, end, snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood))

		_, err := e.handovers.RecordPickup(ctx, model.PickupRequest{
			ReservationUid: res.ReservationUid,
			Snapshot:       snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
			StaffID:        "staff-2",
		})
		require.ErrorIs(t, err, errs.ErrPickupNotAllowed)
	})
}

func TestHandoverService_RecordReturn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("on time and clean refunds the full deposit", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res := e.active(t, "cust-1", start, end, snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood))

		h, err := e.handovers.RecordReturn(ctx, model.ReturnRequest{
			ReservationUid: res.ReservationUid,
			Snapshot:       snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
			ReturnedAt:     end,
			StaffID:        "staff-1",
		})
		require.NoError(t, err)
		require.Equal(t, model.HandoverReturn, h.Kind)
		require.Zero(t, h.LateHours)
		require.Zero(t, h.TotalDueCents)
		require.Equal(t, testPolicy().DepositCents, h.DepositRefundCents)
		require.Zero(t, h.OutstandingCents)

		got, err := e.reservations.Get(ctx, res.ReservationUid)
		require.NoError(t, err)
		require.Equal(t, model.StatusCompleted, got.Status)

		vehicle, err := e.store.GetVehicle(ctx, e.vehicleUid)
		require.NoError(t, err)
		require.Equal(t, model.VehicleAvailable, vehicle.Status)
		require.Equal(t, model.ConditionGood, vehicle.Condition)

		// Deposit went out on confirm and came back in full.
		balance, err := e.wallet.Balance(ctx, "cust-1")
		require.NoError(t, err)
		require.Equal(t, int64(50000), balance)
	})

	t.Run("late return bills whole hours", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res := e.active(t, "cust-1", start, end, snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood))

		h, err := e.handovers.RecordReturn(ctx, model.ReturnRequest{
			ReservationUid: res.ReservationUid,
			Snapshot:       snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
			ReturnedAt:     end.Add(2*time.Hour + 5*time.Minute),
			StaffID:        "staff-1",
		})
		require.NoError(t, err)
		require.Equal(t, 3, h.LateHours)
		require.Equal(t, int64(4500), h.LateFeeCents)
		require.Equal(t, int64(20000-4500), h.DepositRefundCents)

		balance, err := e.wallet.Balance(ctx, "cust-1")
		require.NoError(t, err)
		require.Equal(t, int64(50000-4500), balance)
	})

	t.Run("damage fees from downgrades and reported items", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res := e.active(t, "cust-1", start, end, snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood))

		h, err := e.handovers.RecordReturn(ctx, model.ReturnRequest{
			ReservationUid: res.ReservationUid,
			Snapshot:       snapshot(model.ConditionBad, model.ConditionGood, model.ConditionGood, "scratched door", "cracked mirror"),
			ReturnedAt:     end,
			StaffID:        "staff-1",
		})
		require.NoError(t, err)
		// One downgraded category plus two reported items.
		require.Equal(t, int64(5000+2*2500), h.DamageFeeCents)
		require.Equal(t, int64(20000-10000), h.DepositRefundCents)
		require.Zero(t, h.OutstandingCents)

		vehicle, err := e.store.GetVehicle(ctx, e.vehicleUid)
		require.NoError(t, err)
		require.Equal(t, model.ConditionBad, vehicle.Condition)
	})

	t.Run("shortfall becomes a pending charge", func(t *testing.T) {
		t.Parallel()
		policy := testPolicy()
		policy.DepositCents = 200
		policy.LateFeeCentsPerHour = 50
		e := newEnv(t, policy)
		start, end := window(t)
		res := e.active(t, "cust-1", start, end, snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood))

		h, err := e.handovers.RecordReturn(ctx, model.ReturnRequest{
			ReservationUid: res.ReservationUid,
			Snapshot:       snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
			ReturnedAt:     end.Add(5 * time.Hour),
			StaffID:        "staff-1",
		})
		require.NoError(t, err)
		require.Equal(t, int64(250), h.TotalDueCents)
		require.Zero(t, h.DepositRefundCents)
		require.Equal(t, int64(50), h.OutstandingCents)

		entries, err := e.wallet.Entries(ctx, "cust-1")
		require.NoError(t, err)
		last := entries[len(entries)-1]
		require.Equal(t, model.EntryCharge, last.Kind)
		require.Equal(t, model.EntryPending, last.Status)
		require.Equal(t, int64(-50), last.AmountCents)

		balance, err := e.wallet.Balance(ctx, "cust-1")
		require.NoError(t, err)
		require.Equal(t, int64(50000-200-50), balance)
	})

	t.Run("retry does not double-settle", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res := e.active(t, "cust-1", start, end, snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood))

		req := model.ReturnRequest{
			ReservationUid: res.ReservationUid,
			Snapshot:       snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
			ReturnedAt:     end,
			StaffID:        "staff-1",
		}
		_, err := e.handovers.RecordReturn(ctx, req)
		require.NoError(t, err)
		_, err = e.handovers.RecordReturn(ctx, req)
		require.ErrorIs(t, err, errs.ErrReturnAlreadyRecorded)

		balance, err := e.wallet.Balance(ctx, "cust-1")
		require.NoError(t, err)
		require.Equal(t, int64(50000), balance)

		entries, err := e.wallet.Entries(ctx, "cust-1")
		require.NoError(t, err)
		// Top-up, deposit charge, one refund. No duplicates.
		require.Len(t, entries, 3)
	})

	t.Run("return before pickup", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res, _ := e.confirmed(t, "cust-1", start, end)

		_, err := e.handovers.RecordReturn(ctx, model.ReturnRequest{
			ReservationUid: res.ReservationUid,
			Snapshot:       snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
			ReturnedAt:     end,
			StaffID:        "staff-1",
		})
		require.ErrorIs(t, err, errs.ErrReturnNotAllowed)
	})
}

func TestHandoverService_History(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	e := newEnv(t, testPolicy())
	start, end := window(t)
	res := e.active(t, "cust-1", start, end, snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood))

	_, err := e.handovers.RecordReturn(ctx, model.ReturnRequest{
		ReservationUid: res.ReservationUid,
		Snapshot:       snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
		ReturnedAt:     end,
		StaffID:        "staff-2",
	})
	require.NoError(t, err)

	history, err := e.handovers.History(ctx, res.ReservationUid)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, model.HandoverPickup, history[0].Kind)
	require.Equal(t, model.HandoverReturn, history[1].Kind)
}
