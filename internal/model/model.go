package model

import (
	"time"
)

// CustomerID and StaffID are required at the core boundary; untyped
// records from the UI layers never cross into the services.
type (
	CustomerID string
	StaffID    string
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusActive    ReservationStatus = "ACTIVE"
	StatusCompleted ReservationStatus = "COMPLETED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

func (s ReservationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether the edge s -> to exists in the
// reservation lifecycle. Cancellation is reachable from PENDING and
// CONFIRMED only.
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusConfirmed || to == StatusCancelled
	case StatusConfirmed:
		return to == StatusActive || to == StatusCancelled
	case StatusActive:
		return to == StatusCompleted
	default:
		return false
	}
}

type Reservation struct {
	ID             int               `json:"-" db:"id"`
	ReservationUid string            `json:"reservationUid" db:"reservation_uid"`
	CustomerID     CustomerID        `json:"customerId" db:"customer_id"`
	VehicleUid     string            `json:"vehicleUid" db:"vehicle_uid"`
	StationUid     string            `json:"stationUid" db:"station_uid"`
	Status         ReservationStatus `json:"status" db:"status"`
	StartTime      time.Time         `json:"startTime" db:"start_time"`
	EndTime        time.Time         `json:"endTime" db:"end_time"`
	DepositCents   int64             `json:"depositCents" db:"deposit_cents"`
	CreatedAt      time.Time         `json:"createdAt" db:"created_at"`
}

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "AVAILABLE"
	VehicleReserved    VehicleStatus = "RESERVED"
	VehicleRented      VehicleStatus = "RENTED"
	VehicleMaintenance VehicleStatus = "MAINTENANCE"
)

// ConditionGrade orders vehicle condition from best to worst.
type ConditionGrade string

const (
	ConditionExcellent ConditionGrade = "EXCELLENT"
	ConditionGood      ConditionGrade = "GOOD"
	ConditionBad       ConditionGrade = "BAD"
)

// Rank maps a grade to a comparable value; higher is worse.
func (c ConditionGrade) Rank() int {
	switch c {
	case ConditionExcellent:
		return 0
	case ConditionGood:
		return 1
	case ConditionBad:
		return 2
	}
	return 3
}

type Vehicle struct {
	ID           int            `json:"-" db:"id"`
	VehicleUid   string         `json:"vehicleUid" db:"vehicle_uid"`
	StationUid   string         `json:"stationUid" db:"station_uid"`
	Status       VehicleStatus  `json:"status" db:"status"`
	BatteryLevel int            `json:"batteryLevel" db:"battery_level"`
	Mileage      int            `json:"mileage" db:"mileage"`
	Condition    ConditionGrade `json:"condition" db:"condition"`
}

// Interval is a half-open [Start, End) booking window.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

type AccessToken struct {
	ID             int        `json:"-" db:"id"`
	TokenID        string     `json:"-" db:"token_id"`
	ReservationUid string     `json:"reservationUid" db:"reservation_uid"`
	Value          string     `json:"value" db:"-"`
	ExpiresAt      time.Time  `json:"expiresAt" db:"expires_at"`
	UsedAt         *time.Time `json:"usedAt,omitempty" db:"used_at"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
}

func (t AccessToken) Used() bool { return t.UsedAt != nil }

type HandoverKind string

const (
	HandoverPickup HandoverKind = "PICKUP"
	HandoverReturn HandoverKind = "RETURN"
)

// ConditionSnapshot is the staff-recorded vehicle state at a handover.
type ConditionSnapshot struct {
	BatteryLevel int            `json:"batteryLevel" validate:"min=0,max=100"`
	Mileage      int            `json:"mileage" validate:"min=0"`
	Exterior     ConditionGrade `json:"exterior" validate:"required,oneof=EXCELLENT GOOD BAD"`
	Interior     ConditionGrade `json:"interior" validate:"required,oneof=EXCELLENT GOOD BAD"`
	Tires        ConditionGrade `json:"tires" validate:"required,oneof=EXCELLENT GOOD BAD"`
	Damages      Damages        `json:"damages"`
}

// Worst returns the poorest grade across the snapshot's categories;
// it becomes the vehicle's condition tag after a return.
func (s ConditionSnapshot) Worst() ConditionGrade {
	worst := s.Exterior
	for _, g := range []ConditionGrade{s.Interior, s.Tires} {
		if g.Rank() > worst.Rank() {
			worst = g
		}
	}
	return worst
}

type Handover struct {
	ID             int            `json:"-" db:"id"`
	HandoverUid    string         `json:"handoverUid" db:"handover_uid"`
	ReservationUid string         `json:"reservationUid" db:"reservation_uid"`
	StaffID        StaffID        `json:"staffId" db:"staff_id"`
	Kind           HandoverKind   `json:"kind" db:"kind"`
	BatteryLevel   int            `json:"batteryLevel" db:"battery_level"`
	Mileage        int            `json:"mileage" db:"mileage"`
	Exterior       ConditionGrade `json:"exterior" db:"exterior"`
	Interior       ConditionGrade `json:"interior" db:"interior"`
	Tires          ConditionGrade `json:"tires" db:"tires"`
	Damages        Damages        `json:"damages" db:"damages"`

	// Settlement fields, populated on RETURN handovers only.
	LateHours          int   `json:"lateHours" db:"late_hours"`
	LateFeeCents       int64 `json:"lateFeeCents" db:"late_fee_cents"`
	DamageFeeCents     int64 `json:"damageFeeCents" db:"damage_fee_cents"`
	TotalDueCents      int64 `json:"totalDueCents" db:"total_due_cents"`
	DepositRefundCents int64 `json:"depositRefundCents" db:"deposit_refund_cents"`
	OutstandingCents   int64 `json:"outstandingCents" db:"outstanding_cents"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

func (h Handover) Snapshot() ConditionSnapshot {
	return ConditionSnapshot{
		BatteryLevel: h.BatteryLevel,
		Mileage:      h.Mileage,
		Exterior:     h.Exterior,
		Interior:     h.Interior,
		Tires:        h.Tires,
		Damages:      h.Damages,
	}
}

type EntryKind string

const (
	EntryDeposit    EntryKind = "DEPOSIT"
	EntryCharge     EntryKind = "CHARGE"
	EntryRefund     EntryKind = "REFUND"
	EntryWithdrawal EntryKind = "WITHDRAWAL"
)

type EntryStatus string

const (
	EntrySettled EntryStatus = "SETTLED"
	// EntryPending marks the one controlled overdraft exception: a
	// shortfall charge recorded for later reconciliation.
	EntryPending EntryStatus = "PENDING"
)

// WalletEntry is append-only; AmountCents is signed (credits positive,
// debits negative) and balance is always derived by summation.
type WalletEntry struct {
	ID           int         `json:"-" db:"id"`
	EntryUid     string      `json:"entryUid" db:"entry_uid"`
	CustomerID   CustomerID  `json:"customerId" db:"customer_id"`
	AmountCents  int64       `json:"amountCents" db:"amount_cents"`
	Kind         EntryKind   `json:"kind" db:"kind"`
	Status       EntryStatus `json:"status" db:"status"`
	ReferenceUid *string     `json:"referenceUid,omitempty" db:"reference_uid"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
}

// Settlement holds the deterministic fee computation for a return.
type Settlement struct {
	LateHours          int   `json:"lateHours"`
	LateFeeCents       int64 `json:"lateFeeCents"`
	DamageFeeCents     int64 `json:"damageFeeCents"`
	TotalDueCents      int64 `json:"totalDueCents"`
	DepositRefundCents int64 `json:"depositRefundCents"`
	OutstandingCents   int64 `json:"outstandingCents"`
}
