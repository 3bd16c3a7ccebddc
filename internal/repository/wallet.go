package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
)

var walletColumns = []string{
	"id", "entry_uid", "customer_id", "amount_cents", "kind", "status", "reference_uid", "created_at",
}

func (r *Repository) Append(ctx context.Context, e model.WalletEntry) (model.WalletEntry, error) {
	var created model.WalletEntry
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		return appendReturningTx(ctx, tx, e, &created)
	})
	if err != nil {
		return model.WalletEntry{}, err
	}
	return created, nil
}

func (r *Repository) AppendChecked(ctx context.Context, e model.WalletEntry) (model.WalletEntry, error) {
	var created model.WalletEntry
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockCustomerTx(ctx, tx, e.CustomerID); err != nil {
			return err
		}
		balance, err := balanceTx(ctx, tx, e.CustomerID)
		if err != nil {
			return err
		}
		if balance+e.AmountCents < 0 {
			return errs.ErrInsufficientFunds
		}
		return appendReturningTx(ctx, tx, e, &created)
	})
	if err != nil {
		return model.WalletEntry{}, err
	}
	return created, nil
}

func (r *Repository) Balance(ctx context.Context, customerID model.CustomerID) (int64, error) {
	q := `select coalesce(sum(amount_cents), 0) from wallet_entries where customer_id = $1`
	var balance int64
	if err := r.db.QueryRowContext(ctx, q, customerID).Scan(&balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (r *Repository) List(ctx context.Context, customerID model.CustomerID) ([]model.WalletEntry, error) {
	query, args, err := qb.Select(walletColumns...).
		From(walletEntriesTableName).
		Where(sq.Eq{"customer_id": customerID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var items []model.WalletEntry
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *Repository) ChargeByReference(ctx context.Context, referenceUid string) (model.WalletEntry, error) {
	query, args, err := qb.Select(walletColumns...).
		From(walletEntriesTableName).
		Where(sq.Eq{"reference_uid": referenceUid, "kind": model.EntryCharge}).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return model.WalletEntry{}, err
	}
	var e model.WalletEntry
	if err := r.db.GetContext(ctx, &e, query, args...); err != nil {
		if isNoRows(err) {
			return model.WalletEntry{}, errs.ErrNotFound
		}
		return model.WalletEntry{}, err
	}
	return e, nil
}

// lockCustomerTx serializes wallet writes per customer for the
// duration of the transaction; balance stays a derived value.
func lockCustomerTx(ctx context.Context, tx *sqlx.Tx, customerID model.CustomerID) error {
	_, err := tx.ExecContext(ctx, `select pg_advisory_xact_lock(hashtext($1))`, customerID)
	return err
}

func balanceTx(ctx context.Context, tx *sqlx.Tx, customerID model.CustomerID) (int64, error) {
	var balance int64
	q := `select coalesce(sum(amount_cents), 0) from wallet_entries where customer_id = $1`
	err := tx.GetContext(ctx, &balance, q, customerID)
	return balance, err
}

func appendTx(ctx context.Context, tx *sqlx.Tx, e model.WalletEntry) error {
	query, args, err := qb.Insert(walletEntriesTableName).
		Columns("entry_uid", "customer_id", "amount_cents", "kind", "status", "reference_uid").
		Values(e.EntryUid, e.CustomerID, e.AmountCents, e.Kind, e.Status, e.ReferenceUid).
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func appendReturningTx(ctx context.Context, tx *sqlx.Tx, e model.WalletEntry, dst *model.WalletEntry) error {
	query, args, err := qb.Insert(walletEntriesTableName).
		Columns("entry_uid", "customer_id", "amount_cents", "kind", "status", "reference_uid").
		Values(e.EntryUid, e.CustomerID, e.AmountCents, e.Kind, e.Status, e.ReferenceUid).
		Suffix("returning *").
		ToSql()
	if err != nil {
		return err
	}
	return tx.GetContext(ctx, dst, query, args...)
}

// appendCheckedTx is appendTx behind the per-customer lock and the
// no-overdraft rule; used inside the confirm transaction.
func appendCheckedTx(ctx context.Context, tx *sqlx.Tx, e model.WalletEntry) error {
	if err := lockCustomerTx(ctx, tx, e.CustomerID); err != nil {
		return err
	}
	balance, err := balanceTx(ctx, tx, e.CustomerID)
	if err != nil {
		return err
	}
	if balance+e.AmountCents < 0 {
		return errs.ErrInsufficientFunds
	}
	return appendTx(ctx, tx, e)
}
