package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
	"github.com/voltride/rental-service/internal/repository"
)

// WalletService is the append-only ledger. Balance is always derived
// from the entries; there is no mutable balance field anywhere.
type WalletService struct {
	log  *zap.Logger
	repo repository.WalletRepository
}

func NewWalletService(repo repository.WalletRepository, log *zap.Logger) *WalletService {
	return &WalletService{
		log:  log,
		repo: repo,
	}
}

func newEntry(customerID model.CustomerID, amountCents int64, kind model.EntryKind, status model.EntryStatus, referenceUid string) model.WalletEntry {
	e := model.WalletEntry{
		EntryUid:    uuid.NewString(),
		CustomerID:  customerID,
		AmountCents: amountCents,
		Kind:        kind,
		Status:      status,
	}
	if referenceUid != "" {
		e.ReferenceUid = &referenceUid
	}
	return e
}

// The entry builders below are the single place where the ledger sign
// and status conventions live. The reservation and handover services
// obtain entries here and hand them to their own transactions, so a
// charge or refund looks the same no matter which flow wrote it.

// chargeEntry is a settled debit referencing the reservation it pays for.
func (s *WalletService) chargeEntry(customerID model.CustomerID, amountCents int64, referenceUid string) model.WalletEntry {
	return newEntry(customerID, -amountCents, model.EntryCharge, model.EntrySettled, referenceUid)
}

// pendingChargeEntry records an obligation regardless of balance,
// flagged PENDING for manual reconciliation. Used only for return
// shortfalls.
func (s *WalletService) pendingChargeEntry(customerID model.CustomerID, amountCents int64, referenceUid string) model.WalletEntry {
	return newEntry(customerID, -amountCents, model.EntryCharge, model.EntryPending, referenceUid)
}

// refundEntry is a settled credit; zero amounts are valid records.
func (s *WalletService) refundEntry(customerID model.CustomerID, amountCents int64, referenceUid string) model.WalletEntry {
	return newEntry(customerID, amountCents, model.EntryRefund, model.EntrySettled, referenceUid)
}

func (s *WalletService) Deposit(ctx context.Context, customerID model.CustomerID, amountCents int64) (model.WalletEntry, error) {
	if amountCents <= 0 {
		return model.WalletEntry{}, errs.ErrInvalidAmount
	}
	return s.repo.Append(ctx, newEntry(customerID, amountCents, model.EntryDeposit, model.EntrySettled, ""))
}

func (s *WalletService) Withdraw(ctx context.Context, customerID model.CustomerID, amountCents int64) (model.WalletEntry, error) {
	if amountCents <= 0 {
		return model.WalletEntry{}, errs.ErrInvalidAmount
	}
	return s.repo.AppendChecked(ctx, newEntry(customerID, -amountCents, model.EntryWithdrawal, model.EntrySettled, ""))
}

// Charge rejects rather than clamps: a charge the balance cannot
// absorb fails with ErrInsufficientFunds.
func (s *WalletService) Charge(ctx context.Context, customerID model.CustomerID, amountCents int64, referenceUid string) (model.WalletEntry, error) {
	if amountCents <= 0 {
		return model.WalletEntry{}, errs.ErrInvalidAmount
	}
	return s.repo.AppendChecked(ctx, s.chargeEntry(customerID, amountCents, referenceUid))
}

func (s *WalletService) ChargePending(ctx context.Context, customerID model.CustomerID, amountCents int64, referenceUid string) (model.WalletEntry, error) {
	if amountCents <= 0 {
		return model.WalletEntry{}, errs.ErrInvalidAmount
	}
	return s.repo.Append(ctx, s.pendingChargeEntry(customerID, amountCents, referenceUid))
}

// Refund permits zero amounts: a return with no fees legitimately
// refunds the full deposit, and a zero refund is a valid record.
func (s *WalletService) Refund(ctx context.Context, customerID model.CustomerID, amountCents int64, referenceUid string) (model.WalletEntry, error) {
	if amountCents < 0 {
		return model.WalletEntry{}, errs.ErrInvalidAmount
	}
	return s.repo.Append(ctx, s.refundEntry(customerID, amountCents, referenceUid))
}

// ChargeByReference finds the settled charge that references the given
// reservation, if one was ever taken.
func (s *WalletService) ChargeByReference(ctx context.Context, referenceUid string) (model.WalletEntry, error) {
	return s.repo.ChargeByReference(ctx, referenceUid)
}

func (s *WalletService) Balance(ctx context.Context, customerID model.CustomerID) (int64, error) {
	return s.repo.Balance(ctx, customerID)
}

func (s *WalletService) Entries(ctx context.Context, customerID model.CustomerID) ([]model.WalletEntry, error) {
	return s.repo.List(ctx, customerID)
}
