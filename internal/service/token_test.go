package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voltride/rental-service/config"
	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/service"
)

func TestTokenService_Verify(t *testing.T) {
	t.Parallel()

	t.Run("valid token resolves the reservation", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res, token := e.confirmed(t, "cust-1", start, end)

		got, err := e.tokens.Verify(context.Background(), token.Value)
		require.NoError(t, err)
		require.Equal(t, res.ReservationUid, got.ReservationUid)
	})

	t.Run("second scan is rejected", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		_, token := e.confirmed(t, "cust-1", start, end)

		_, err := e.tokens.Verify(context.Background(), token.Value)
		require.NoError(t, err)
		_, err = e.tokens.Verify(context.Background(), token.Value)
		require.ErrorIs(t, err, errs.ErrTokenAlreadyUsed)
	})

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res, _ := e.confirmed(t, "cust-1", start, end)

		stale, err := e.tokens.Mint(res.ReservationUid, time.Now().UTC().Add(-time.Minute))
		require.NoError(t, err)
		_, err = e.store.CreateToken(context.Background(), stale)
		require.NoError(t, err)

		_, err = e.tokens.Verify(context.Background(), stale.Value)
		require.ErrorIs(t, err, errs.ErrTokenExpired)
	})

	t.Run("garbage value", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		_, err := e.tokens.Verify(context.Background(), "not-a-token")
		require.ErrorIs(t, err, errs.ErrTokenInvalid)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res, _ := e.confirmed(t, "cust-1", start, end)

		rogue := service.NewTokenService(e.store, e.store, config.AccessToken{Secret: "other-secret"},
			testPolicy().PickupWindow, zap.NewExample())
		forged, err := rogue.Mint(res.ReservationUid, time.Now().UTC().Add(time.Hour))
		require.NoError(t, err)

		_, err = e.tokens.Verify(context.Background(), forged.Value)
		require.ErrorIs(t, err, errs.ErrTokenInvalid)
	})

	t.Run("well-signed token without a stored row", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res, _ := e.confirmed(t, "cust-1", start, end)

		// Minted but never persisted, so consuming it finds nothing.
		loose, err := e.tokens.Mint(res.ReservationUid, time.Now().UTC().Add(time.Hour))
		require.NoError(t, err)
		_, err = e.tokens.Verify(context.Background(), loose.Value)
		require.ErrorIs(t, err, errs.ErrNotFound)
	})
}

func TestTokenService_Issue(t *testing.T) {
	t.Parallel()

	t.Run("reissue for a confirmed reservation", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res, original := e.confirmed(t, "cust-1", start, end)

		reissued, err := e.tokens.Issue(context.Background(), res.ReservationUid, time.Time{})
		require.NoError(t, err)
		require.NotEmpty(t, reissued.Value)
		require.NotEqual(t, original.TokenID, reissued.TokenID)
		require.Equal(t, start.Add(testPolicy().PickupWindow), reissued.ExpiresAt)

		// The fresh token works; the lost one still works too until
		// either of them is scanned.
		_, err = e.tokens.Verify(context.Background(), reissued.Value)
		require.NoError(t, err)
	})

	t.Run("pending reservation cannot get a token", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		start, end := window(t)
		res := e.createReservation(t, "cust-1", start, end)

		_, err := e.tokens.Issue(context.Background(), res.ReservationUid, time.Time{})
		require.ErrorIs(t, err, errs.ErrReservationNotConfirmed)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, testPolicy())
		_, err := e.tokens.Issue(context.Background(), "00000000-0000-0000-0000-000000000000", time.Time{})
		require.ErrorIs(t, err, errs.ErrNotFound)
	})
}
