package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
)

var reservationColumns = []string{
	"id", "reservation_uid", "customer_id", "vehicle_uid", "station_uid",
	"status", "start_time", "end_time", "deposit_cents", "created_at",
}

func (r *Repository) Create(ctx context.Context, res model.Reservation) (model.Reservation, error) {
	var created model.Reservation
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		// The vehicle row lock is the serialization point for the
		// overlap check; concurrent creates queue up here.
		var vehicle struct {
			ID     int                 `db:"id"`
			Status model.VehicleStatus `db:"status"`
		}
		q := `select id, status from vehicles where vehicle_uid = $1 for update`
		if err := tx.GetContext(ctx, &vehicle, q, res.VehicleUid); err != nil {
			if isNoRows(err) {
				return errs.ErrNotFound
			}
			return err
		}
		if vehicle.Status == model.VehicleMaintenance {
			return errs.ErrVehicleUnavailable
		}

		var conflicts int
		q = `
	select count(*) from reservations
	where vehicle_uid = $1 and status in ('PENDING', 'CONFIRMED', 'ACTIVE')
	  and start_time < $3 and end_time > $2`
		if err := tx.GetContext(ctx, &conflicts, q, res.VehicleUid, res.StartTime, res.EndTime); err != nil {
			return err
		}
		if conflicts > 0 {
			return errs.ErrVehicleUnavailable
		}

		query, args, err := qb.Insert(reservationsTableName).
			Columns("reservation_uid", "customer_id", "vehicle_uid", "station_uid", "status", "start_time", "end_time", "deposit_cents").
			Values(res.ReservationUid, res.CustomerID, res.VehicleUid, res.StationUid, res.Status, res.StartTime, res.EndTime, res.DepositCents).
			Suffix("returning *").
			ToSql()
		if err != nil {
			return err
		}
		if err := tx.GetContext(ctx, &created, query, args...); err != nil {
			r.log.Error("Create reservation", zap.String("q", query), zap.Any("args", args))
			return err
		}

		q = `update vehicles set status = 'RESERVED' where id = $1 and status = 'AVAILABLE'`
		_, err = tx.ExecContext(ctx, q, vehicle.ID)
		return err
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return created, nil
}

func (r *Repository) Get(ctx context.Context, reservationUid string) (model.Reservation, error) {
	query, args, err := qb.Select(reservationColumns...).
		From(reservationsTableName).
		Where(sq.Eq{"reservation_uid": reservationUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Reservation{}, err
	}
	var res model.Reservation
	if err := r.db.GetContext(ctx, &res, query, args...); err != nil {
		if isNoRows(err) {
			return model.Reservation{}, errs.ErrNotFound
		}
		return model.Reservation{}, err
	}
	return res, nil
}

func (r *Repository) ListByCustomer(ctx context.Context, customerID model.CustomerID) ([]model.Reservation, error) {
	query, args, err := qb.Select(reservationColumns...).
		From(reservationsTableName).
		Where(sq.Eq{"customer_id": customerID}).
		OrderBy("created_at desc").
		ToSql()
	if err != nil {
		return nil, err
	}
	var items []model.Reservation
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) Confirm(ctx context.Context, reservationUid string, charge model.WalletEntry, token model.AccessToken) (model.Reservation, error) {
	var confirmed model.Reservation
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var status model.ReservationStatus
		q := `select status from reservations where reservation_uid = $1 for update`
		if err := tx.GetContext(ctx, &status, q, reservationUid); err != nil {
			if isNoRows(err) {
				return errs.ErrNotFound
			}
			return err
		}
		if status != model.StatusPending {
			return errs.ErrInvalidTransition
		}

		if err := appendCheckedTx(ctx, tx, charge); err != nil {
			return err
		}

		query, args, err := qb.Insert(accessTokensTableName).
			Columns("token_id", "reservation_uid", "expires_at").
			Values(token.TokenID, token.ReservationUid, token.ExpiresAt).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}

		q = `update reservations set status = 'CONFIRMED' where reservation_uid = $1 returning *`
		return tx.GetContext(ctx, &confirmed, q, reservationUid)
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return confirmed, nil
}

func (r *Repository) Cancel(ctx context.Context, reservationUid string, refund *model.WalletEntry) (model.Reservation, error) {
	var cancelled model.Reservation
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var res model.Reservation
		q := `select * from reservations where reservation_uid = $1 for update`
		if err := tx.GetContext(ctx, &res, q, reservationUid); err != nil {
			if isNoRows(err) {
				return errs.ErrNotFound
			}
			return err
		}
		if !res.Status.CanTransition(model.StatusCancelled) {
			return errs.ErrInvalidTransition
		}

		q = `update reservations set status = 'CANCELLED' where reservation_uid = $1 returning *`
		if err := tx.GetContext(ctx, &cancelled, q, reservationUid); err != nil {
			return err
		}

		if err := releaseVehicleTx(ctx, tx, res.VehicleUid); err != nil {
			return err
		}

		if refund != nil {
			if err := appendTx(ctx, tx, *refund); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return cancelled, nil
}

func releaseVehicleTx(ctx context.Context, tx *sqlx.Tx, vehicleUid string) error {
	q := `update vehicles set status = 'AVAILABLE' where vehicle_uid = $1 and status in ('RESERVED', 'RENTED')`
	_, err := tx.ExecContext(ctx, q, vehicleUid)
	return err
}
