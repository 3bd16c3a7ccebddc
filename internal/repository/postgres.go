package repository

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	vehiclesTableName      = `vehicles`
	reservationsTableName  = `reservations`
	accessTokensTableName  = `access_tokens`
	handoversTableName     = `handovers`
	walletEntriesTableName = `wallet_entries`
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repository is the Postgres store behind every core component. One
// struct so multi-table state transitions share a transaction.
type Repository struct {
	db  *sqlx.DB
	log *zap.Logger
}

var (
	_ ReservationRepository = (*Repository)(nil)
	_ VehicleTracker        = (*Repository)(nil)
	_ TokenRepository       = (*Repository)(nil)
	_ HandoverRepository    = (*Repository)(nil)
	_ WalletRepository      = (*Repository)(nil)
)

func NewRepository(db *sqlx.DB, log *zap.Logger) (*Repository, error) {
	return &Repository{
		db:  db,
		log: log.Named("repo"),
	}, nil
}

func (r *Repository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Error("tx rollback", zap.Error(rbErr))
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "commit tx")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
