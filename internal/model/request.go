package model

import (
	"time"
)

type CreateReservationRequest struct {
	VehicleUid string     `json:"vehicleUid" validate:"required,uuid"`
	StationUid string     `json:"stationUid" validate:"required,uuid"`
	StartTime  time.Time  `json:"startTime" validate:"required"`
	EndTime    time.Time  `json:"endTime" validate:"required"`
	CustomerID CustomerID `json:"-" validate:"required"`
}

type VerifyTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type VerifyTokenResponse struct {
	Reservation Reservation `json:"reservation"`
}

type IssueTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type PickupRequest struct {
	ReservationUid string            `json:"reservationUid" validate:"required,uuid"`
	Snapshot       ConditionSnapshot `json:"snapshot" validate:"required"`
	StaffID        StaffID           `json:"-" validate:"required"`
}

type ReturnRequest struct {
	ReservationUid string            `json:"reservationUid" validate:"required,uuid"`
	Snapshot       ConditionSnapshot `json:"snapshot" validate:"required"`
	ReturnedAt     time.Time         `json:"returnedAt" validate:"required"`
	StaffID        StaffID           `json:"-" validate:"required"`
}

type WalletAmountRequest struct {
	AmountCents int64 `json:"amountCents" validate:"required,gt=0"`
}

type BalanceResponse struct {
	CustomerID   CustomerID `json:"customerId"`
	BalanceCents int64      `json:"balanceCents"`
}

type AvailabilityResponse struct {
	VehicleUid string    `json:"vehicleUid"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
	Available  bool      `json:"available"`
}
