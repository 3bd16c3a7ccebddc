package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
)

var tokenColumns = []string{
	"id", "token_id", "reservation_uid", "expires_at", "used_at", "created_at",
}

func (r *Repository) CreateToken(ctx context.Context, token model.AccessToken) (model.AccessToken, error) {
	query, args, err := qb.Insert(accessTokensTableName).
		Columns("token_id", "reservation_uid", "expires_at").
		Values(token.TokenID, token.ReservationUid, token.ExpiresAt).
		Suffix("returning " + "id, token_id, reservation_uid, expires_at, used_at, created_at").
		ToSql()
	if err != nil {
		return model.AccessToken{}, err
	}
	var created model.AccessToken
	if err := r.db.GetContext(ctx, &created, query, args...); err != nil {
		return model.AccessToken{}, err
	}
	return created, nil
}

// Consume is the atomic check-and-mark: the token is marked used in
// the same statement that proves it unused and unexpired, so two
// concurrent scans cannot both pass.
func (r *Repository) Consume(ctx context.Context, tokenID string, now time.Time) (model.AccessToken, error) {
	q := `
	update access_tokens set used_at = $2
	where token_id = $1 and used_at is null and expires_at > $2
	returning id, token_id, reservation_uid, expires_at, used_at, created_at`
	var consumed model.AccessToken
	err := r.db.GetContext(ctx, &consumed, q, tokenID, now)
	if err == nil {
		return consumed, nil
	}
	if !isNoRows(err) {
		return model.AccessToken{}, err
	}

	// Distinguish why the guarded update matched nothing.
	query, args, err := qb.Select(tokenColumns...).
		From(accessTokensTableName).
		Where(sq.Eq{"token_id": tokenID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.AccessToken{}, err
	}
	var existing model.AccessToken
	if err := r.db.GetContext(ctx, &existing, query, args...); err != nil {
		if isNoRows(err) {
			return model.AccessToken{}, errs.ErrNotFound
		}
		return model.AccessToken{}, err
	}
	if existing.Used() {
		return model.AccessToken{}, errs.ErrTokenAlreadyUsed
	}
	return model.AccessToken{}, errs.ErrTokenExpired
}

func (r *Repository) LastByReservation(ctx context.Context, reservationUid string) (model.AccessToken, error) {
	query, args, err := qb.Select(tokenColumns...).
		From(accessTokensTableName).
		Where(sq.Eq{"reservation_uid": reservationUid}).
		OrderBy("id desc").
		Limit(1).
		ToSql()
	if err != nil {
		return model.AccessToken{}, err
	}
	var token model.AccessToken
	if err := r.db.GetContext(ctx, &token, query, args...); err != nil {
		if isNoRows(err) {
			return model.AccessToken{}, errs.ErrNotFound
		}
		return model.AccessToken{}, err
	}
	return token, nil
}
