package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/voltride/rental-service/config"
	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
	"github.com/voltride/rental-service/internal/repository"
)

type tokenClaims struct {
	jwt.RegisteredClaims
	ReservationUid string `json:"reservationUid"`
}

// TokenService issues and verifies the single-use pickup credentials.
// The wire format is an HS256 JWT, so a scanning client cannot mint a
// valid-looking token without the service secret; single use is
// enforced in storage, not in the token itself.
type TokenService struct {
	log          *zap.Logger
	repo         repository.TokenRepository
	reservations repository.ReservationRepository
	secret       []byte
	pickupWindow time.Duration
}

func NewTokenService(repo repository.TokenRepository, reservations repository.ReservationRepository, cfg config.AccessToken, pickupWindow time.Duration, log *zap.Logger) *TokenService {
	return &TokenService{
		log:          log,
		repo:         repo,
		reservations: reservations,
		secret:       []byte(cfg.Secret),
		pickupWindow: pickupWindow,
	}
}

// Mint signs a token without persisting it; the confirm transaction
// stores the row so token and status commit together.
func (s *TokenService) Mint(reservationUid string, expiresAt time.Time) (model.AccessToken, error) {
	tokenID := uuid.NewString()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			IssuedAt:  jwt.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ReservationUid: reservationUid,
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return model.AccessToken{}, errors.Wrap(err, "sign token")
	}
	return model.AccessToken{
		TokenID:        tokenID,
		ReservationUid: reservationUid,
		Value:          value,
		ExpiresAt:      expiresAt,
	}, nil
}

// Issue re-issues a token for an already confirmed reservation, e.g.
// when the customer lost the original QR before pickup. A zero
// expiresAt falls back to the policy pickup window.
func (s *TokenService) Issue(ctx context.Context, reservationUid string, expiresAt time.Time) (model.AccessToken, error) {
	res, err := s.reservations.Get(ctx, reservationUid)
	if err != nil {
		return model.AccessToken{}, err
	}
	if res.Status != model.StatusConfirmed {
		return model.AccessToken{}, errs.ErrReservationNotConfirmed
	}
	if expiresAt.IsZero() {
		expiresAt = res.StartTime.Add(s.pickupWindow)
	}
	token, err := s.Mint(reservationUid, expiresAt)
	if err != nil {
		return model.AccessToken{}, err
	}
	created, err := s.repo.CreateToken(ctx, token)
	if err != nil {
		return model.AccessToken{}, err
	}
	created.Value = token.Value
	return created, nil
}

// Verify checks signature and expiry, then consumes the token: the
// "is unused" check and the "mark used" write are one atomic storage
// operation. A second scan of the same token gets ErrTokenAlreadyUsed.
func (s *TokenService) Verify(ctx context.Context, value string) (model.Reservation, error) {
	claims := new(tokenClaims)
	_, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Reservation{}, errs.ErrTokenExpired
		}
		s.log.Debug("token parse", zap.Error(err))
		return model.Reservation{}, errs.ErrTokenInvalid
	}

	token, err := s.repo.Consume(ctx, claims.ID, time.Now().UTC())
	if err != nil {
		return model.Reservation{}, err
	}
	return s.reservations.Get(ctx, token.ReservationUid)
}
