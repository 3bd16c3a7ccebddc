package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
)

func (r *Repository) GetVehicle(ctx context.Context, vehicleUid string) (model.Vehicle, error) {
	query, args, err := qb.Select("id", "vehicle_uid", "station_uid", "status", "battery_level", "mileage", "condition").
		From(vehiclesTableName).
		Where(sq.Eq{"vehicle_uid": vehicleUid}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Vehicle{}, err
	}
	var v model.Vehicle
	if err := r.db.GetContext(ctx, &v, query, args...); err != nil {
		if isNoRows(err) {
			return model.Vehicle{}, errs.ErrNotFound
		}
		return model.Vehicle{}, err
	}
	return v, nil
}

func (r *Repository) HasConflict(ctx context.Context, vehicleUid string, iv model.Interval) (bool, error) {
	q := `
	select count(*) from reservations
	where vehicle_uid = $1 and status in ('PENDING', 'CONFIRMED', 'ACTIVE')
	  and start_time < $3 and end_time > $2`
	var count int
	if err := r.db.QueryRowContext(ctx, q, vehicleUid, iv.Start, iv.End).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
