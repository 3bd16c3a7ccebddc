package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/voltride/rental-service/internal/model"
)

const (
	XCustomerID = "X-Customer-Id"
	XStaffID    = "X-Staff-Id"

	customerIDKey = "customerID"
	staffIDKey    = "staffID"
)

// customerAuth requires the customer identity header so only typed
// ids reach the services.
func customerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(XCustomerID)
		if id == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "customer id is required")
		}
		c.Set(customerIDKey, model.CustomerID(id))
		return next(c)
	}
}

func staffAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(XStaffID)
		if id == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "staff id is required")
		}
		c.Set(staffIDKey, model.StaffID(id))
		return next(c)
	}
}

func customerID(c echo.Context) model.CustomerID {
	id, _ := c.Get(customerIDKey).(model.CustomerID)
	return id
}

func staffID(c echo.Context) model.StaffID {
	id, _ := c.Get(staffIDKey).(model.StaffID)
	return id
}

func newRateLimiterMW(rps rate.Limit) echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rps))
}

func requestLoggerConfig(log *zap.Logger) middleware.RequestLoggerConfig {
	return middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		HandleError:  true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := zapcore.InfoLevel
			if v.Error != nil {
				level = zapcore.ErrorLevel
			}
			log.Log(level, "request",
				zap.String("URI", v.URI),
				zap.String("Method", v.Method),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}
}
