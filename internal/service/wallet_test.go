package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
)

func TestWalletService_DepositWithdraw(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("balance is the sum of entries", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())

		_, err := e.wallet.Deposit(ctx, "cust-1", 10000)
		require.NoError(t, err)
		_, err = e.wallet.Deposit(ctx, "cust-1", 2500)
		require.NoError(t, err)
		_, err = e.wallet.Withdraw(ctx, "cust-1", 4000)
		require.NoError(t, err)

		balance, err := e.wallet.Balance(ctx, "cust-1")
		require.NoError(t, err)
		require.Equal(t, int64(8500), balance)

		entries, err := e.wallet.Entries(ctx, "cust-1")
		require.NoError(t, err)
		require.Len(t, entries, 3)
		var sum int64
		for _, entry := range entries {
			sum += entry.AmountCents
		}
		require.Equal(t, balance, sum)
	})

	t.Run("withdraw over balance", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		e.fund(t, "cust-1", 1000)

		_, err := e.wallet.Withdraw(ctx, "cust-1", 1001)
		require.ErrorIs(t, err, errs.ErrInsufficientFunds)

		balance, err := e.wallet.Balance(ctx, "cust-1")
		require.NoError(t, err)
		require.Equal(t, int64(1000), balance)

		// Draining to exactly zero is allowed.
		_, err = e.wallet.Withdraw(ctx, "cust-1", 1000)
		require.NoError(t, err)
	})

	t.Run("customers are isolated", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		e.fund(t, "cust-1", 5000)

		balance, err := e.wallet.Balance(ctx, "cust-2")
		require.NoError(t, err)
		require.Zero(t, balance)

		_, err = e.wallet.Withdraw(ctx, "cust-2", 1)
		require.ErrorIs(t, err, errs.ErrInsufficientFunds)
	})

	t.Run("non-positive amounts", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())

		_, err := e.wallet.Deposit(ctx, "cust-1", 0)
		require.ErrorIs(t, err, errs.ErrInvalidAmount)
		_, err = e.wallet.Deposit(ctx, "cust-1", -100)
		require.ErrorIs(t, err, errs.ErrInvalidAmount)
		_, err = e.wallet.Withdraw(ctx, "cust-1", 0)
		require.ErrorIs(t, err, errs.ErrInvalidAmount)
		_, err = e.wallet.Charge(ctx, "cust-1", -1, "ref")
		require.ErrorIs(t, err, errs.ErrInvalidAmount)
		_, err = e.wallet.Refund(ctx, "cust-1", -1, "ref")
		require.ErrorIs(t, err, errs.ErrInvalidAmount)
	})
}

func TestWalletService_ChargeRefund(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("charge stores a negative settled entry with reference", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		e.fund(t, "cust-1", 5000)

		entry, err := e.wallet.Charge(ctx, "cust-1", 3000, "res-1")
		require.NoError(t, err)
		require.Equal(t, int64(-3000), entry.AmountCents)
		require.Equal(t, model.EntryCharge, entry.Kind)
		require.Equal(t, model.EntrySettled, entry.Status)
		require.NotNil(t, entry.ReferenceUid)
		require.Equal(t, "res-1", *entry.ReferenceUid)
	})

	t.Run("charge over balance is rejected", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		e.fund(t, "cust-1", 100)

		_, err := e.wallet.Charge(ctx, "cust-1", 200, "res-1")
		require.ErrorIs(t, err, errs.ErrInsufficientFunds)
	})

	t.Run("zero refund is a valid record", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())

		entry, err := e.wallet.Refund(ctx, "cust-1", 0, "res-1")
		require.NoError(t, err)
		require.Zero(t, entry.AmountCents)
		require.Equal(t, model.EntryRefund, entry.Kind)

		entries, err := e.wallet.Entries(ctx, "cust-1")
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})
}

func TestWalletService_ChargePending(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// The shortfall path: the obligation lands even though the balance
	// cannot absorb it, and the balance goes negative.
	e := newEnv(t, testPolicy())
	e.fund(t, "cust-1", 100)

	entry, err := e.wallet.ChargePending(ctx, "cust-1", 500, "res-1")
	require.NoError(t, err)
	require.Equal(t, int64(-500), entry.AmountCents)
	require.Equal(t, model.EntryPending, entry.Status)

	balance, err := e.wallet.Balance(ctx, "cust-1")
	require.NoError(t, err)
	require.Equal(t, int64(-400), balance)

	// A later top-up settles the debt arithmetically.
	e.fund(t, "cust-1", 400)
	balance, err = e.wallet.Balance(ctx, "cust-1")
	require.NoError(t, err)
	require.Zero(t, balance)
}
