package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/voltride/rental-service/internal/errs"
	"github.com/voltride/rental-service/internal/model"
	"github.com/voltride/rental-service/pkg/validate"
)

type Handler struct {
	reservationSvc ReservationService
	tokenSvc       TokenService
	handoverSvc    HandoverService
	walletSvc      WalletService
	log            *zap.Logger
}

func New(reservationSvc ReservationService, tokenSvc TokenService, handoverSvc HandoverService, walletSvc WalletService, log *zap.Logger) *Handler {
	return &Handler{
		reservationSvc: reservationSvc,
		tokenSvc:       tokenSvc,
		handoverSvc:    handoverSvc,
		walletSvc:      walletSvc,
		log:            log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", newRateLimiterMW(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(requestLoggerConfig(h.log)),
		middleware.RequestID(),
		newRateLimiterMW(apiRPS),
	)

	api.POST("/reservations", h.CreateReservation, customerAuth)
	api.GET("/reservations", h.ListReservations, customerAuth)
	api.GET("/reservations/:reservationUid", h.GetReservation, customerAuth)
	api.POST("/reservations/:reservationUid/confirm", h.ConfirmReservation, customerAuth)
	api.POST("/reservations/:reservationUid/cancel", h.CancelReservation, customerAuth)
	api.POST("/reservations/:reservationUid/token", h.IssueToken, customerAuth)
	api.GET("/vehicles/:vehicleUid/availability", h.Availability)

	api.POST("/tokens/verify", h.VerifyToken, staffAuth)
	api.POST("/handovers/pickup", h.RecordPickup, staffAuth)
	api.POST("/handovers/return", h.RecordReturn, staffAuth)
	api.GET("/handovers/:reservationUid", h.HandoverHistory, staffAuth)

	api.POST("/wallet/deposit", h.WalletDeposit, customerAuth)
	api.POST("/wallet/withdraw", h.WalletWithdraw, customerAuth)
	api.GET("/wallet/balance", h.WalletBalance, customerAuth)
	api.GET("/wallet/entries", h.WalletEntries, customerAuth)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// toHTTPError maps the expected domain outcomes onto statuses the
// booking and staff UIs can act on; anything else is internal.
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrInvalidInterval),
		errors.Is(err, errs.ErrInvalidAmount):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrTokenInvalid):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, errs.ErrInsufficientFunds):
		return echo.NewHTTPError(http.StatusPaymentRequired, err.Error())
	case errors.Is(err, errs.ErrTokenExpired):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case errors.Is(err, errs.ErrVehicleUnavailable),
		errors.Is(err, errs.ErrInvalidTransition),
		errors.Is(err, errs.ErrReservationNotConfirmed),
		errors.Is(err, errs.ErrTokenAlreadyUsed),
		errors.Is(err, errs.ErrPickupNotAllowed),
		errors.Is(err, errs.ErrReturnNotAllowed),
		errors.Is(err, errs.ErrReturnAlreadyRecorded):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func (h *Handler) CreateReservation(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.CustomerID = customerID(c)
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.reservationSvc.Create(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListReservations(c echo.Context) error {
	items, err := h.reservationSvc.List(c.Request().Context(), customerID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetReservation(c echo.Context) error {
	reservationUid := c.Param("reservationUid")
	if reservationUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationUid is empty")
	}
	res, err := h.reservationSvc.Get(c.Request().Context(), reservationUid)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ConfirmReservation(c echo.Context) error {
	reservationUid := c.Param("reservationUid")
	if reservationUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationUid is empty")
	}
	res, token, err := h.reservationSvc.Confirm(c.Request().Context(), reservationUid)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation": res,
		"token":       model.IssueTokenResponse{Token: token.Value, ExpiresAt: token.ExpiresAt},
	})
}

func (h *Handler) CancelReservation(c echo.Context) error {
	reservationUid := c.Param("reservationUid")
	if reservationUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationUid is empty")
	}
	res, err := h.reservationSvc.Cancel(c.Request().Context(), reservationUid)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) IssueToken(c echo.Context) error {
	reservationUid := c.Param("reservationUid")
	if reservationUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationUid is empty")
	}
	token, err := h.tokenSvc.Issue(c.Request().Context(), reservationUid, time.Time{})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, model.IssueTokenResponse{Token: token.Value, ExpiresAt: token.ExpiresAt})
}

func (h *Handler) Availability(c echo.Context) error {
	vehicleUid := c.Param("vehicleUid")
	if vehicleUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "vehicleUid is empty")
	}
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid start")
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("end"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid end")
	}
	resp, err := h.reservationSvc.Availability(c.Request().Context(), vehicleUid, model.Interval{Start: start, End: end})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) VerifyToken(c echo.Context) error {
	var req model.VerifyTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.tokenSvc.Verify(c.Request().Context(), req.Token)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, model.VerifyTokenResponse{Reservation: res})
}

func (h *Handler) RecordPickup(c echo.Context) error {
	var req model.PickupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.StaffID = staffID(c)
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	handover, err := h.handoverSvc.RecordPickup(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, handover)
}

func (h *Handler) RecordReturn(c echo.Context) error {
	var req model.ReturnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.StaffID = staffID(c)
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	handover, err := h.handoverSvc.RecordReturn(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, handover)
}

func (h *Handler) HandoverHistory(c echo.Context) error {
	reservationUid := c.Param("reservationUid")
	if reservationUid == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reservationUid is empty")
	}
	items, err := h.handoverSvc.History(c.Request().Context(), reservationUid)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) WalletDeposit(c echo.Context) error {
	var req model.WalletAmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.walletSvc.Deposit(c.Request().Context(), customerID(c), req.AmountCents)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) WalletWithdraw(c echo.Context) error {
	var req model.WalletAmountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.walletSvc.Withdraw(c.Request().Context(), customerID(c), req.AmountCents)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) WalletBalance(c echo.Context) error {
	id := customerID(c)
	balance, err := h.walletSvc.Balance(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, model.BalanceResponse{CustomerID: id, BalanceCents: balance})
}

func (h *Handler) WalletEntries(c echo.Context) error {
	items, err := h.walletSvc.Entries(c.Request().Context(), customerID(c))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, items)
}
