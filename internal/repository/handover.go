package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
)

var handoverColumns = []string{
	"id", "handover_uid", "reservation_uid", "staff_id", "kind",
	"battery_level", "mileage", "exterior", "interior", "tires", "damages",
	"late_hours", "late_fee_cents", "damage_fee_cents", "total_due_cents",
	"deposit_refund_cents", "outstanding_cents", "created_at",
}

func (r *Repository) RecordPickup(ctx context.Context, h model.Handover) (model.Handover, error) {
	var created model.Handover
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var vehicleUid string
		q := `update reservations set status = 'ACTIVE' where reservation_uid = $1 and status = 'CONFIRMED' returning vehicle_uid`
		if err := tx.GetContext(ctx, &vehicleUid, q, h.ReservationUid); err != nil {
			if isNoRows(err) {
				return errs.ErrPickupNotAllowed
			}
			return err
		}

		if err := insertHandoverTx(ctx, tx, h, &created); err != nil {
			if isUniqueViolation(err) {
				return errs.ErrPickupNotAllowed
			}
			return err
		}

		q = `update vehicles set status = 'RENTED', battery_level = $2, mileage = $3 where vehicle_uid = $1`
		_, err := tx.ExecContext(ctx, q, vehicleUid, h.BatteryLevel, h.Mileage)
		return err
	})
	if err != nil {
		return model.Handover{}, err
	}
	return created, nil
}

func (r *Repository) RecordReturn(ctx context.Context, h model.Handover, entries []model.WalletEntry) (model.Handover, error) {
	var created model.Handover
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		// Insert before the status guard so a retried request fails on
		// the (reservation, kind) unique index, not on the transition.
		if err := insertHandoverTx(ctx, tx, h, &created); err != nil {
			if isUniqueViolation(err) {
				return errs.ErrReturnAlreadyRecorded
			}
			return err
		}

		var vehicleUid string
		q := `update reservations set status = 'COMPLETED' where reservation_uid = $1 and status = 'ACTIVE' returning vehicle_uid`
		if err := tx.GetContext(ctx, &vehicleUid, q, h.ReservationUid); err != nil {
			if isNoRows(err) {
				return errs.ErrReturnNotAllowed
			}
			return err
		}

		for _, e := range entries {
			if err := appendTx(ctx, tx, e); err != nil {
				return err
			}
		}

		q = `update vehicles set status = 'AVAILABLE', battery_level = $2, mileage = $3, condition = $4 where vehicle_uid = $1`
		_, err := tx.ExecContext(ctx, q, vehicleUid, h.BatteryLevel, h.Mileage, h.Snapshot().Worst())
		return err
	})
	if err != nil {
		return model.Handover{}, err
	}
	return created, nil
}

func (r *Repository) ListByReservation(ctx context.Context, reservationUid string) ([]model.Handover, error) {
	query, args, err := qb.Select(handoverColumns...).
		From(handoversTableName).
		Where(sq.Eq{"reservation_uid": reservationUid}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var items []model.Handover
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func insertHandoverTx(ctx context.Context, tx *sqlx.Tx, h model.Handover, dst *model.Handover) error {
	query, args, err := qb.Insert(handoversTableName).
		Columns("handover_uid", "reservation_uid", "staff_id", "kind",
			"battery_level", "mileage", "exterior", "interior", "tires", "damages",
			"late_hours", "late_fee_cents", "damage_fee_cents", "total_due_cents",
			"deposit_refund_cents", "outstanding_cents").
		Values(h.HandoverUid, h.ReservationUid, h.StaffID, h.Kind,
			h.BatteryLevel, h.Mileage, h.Exterior, h.Interior, h.Tires, h.Damages,
			h.LateHours, h.LateFeeCents, h.DamageFeeCents, h.TotalDueCents,
			h.DepositRefundCents, h.OutstandingCents).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return err
	}
	return tx.GetContext(ctx, dst, query, args...)
}
