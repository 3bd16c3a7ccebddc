package service

import (
	"time"

	"github.com/voltride/rental-service/config"
	"github.com/voltride/rental-service/internal/model"
)

// ComputeSettlement is pure: given the expected end, the actual return
// time, the two condition snapshots and the policy rates it always
// produces the same fees. The ledger and state machine never feed back
// into it.
func ComputeSettlement(expectedEnd, returnedAt time.Time, pickup, returned model.ConditionSnapshot, policy config.Policy, depositCents int64) model.Settlement {
	var lateHours int
	if overrun := returnedAt.Sub(expectedEnd); overrun > 0 {
		lateHours = int((overrun + time.Hour - 1) / time.Hour)
	}
	lateFee := int64(lateHours) * policy.LateFeeCentsPerHour

	var damageFee int64
	categories := [][2]model.ConditionGrade{
		{pickup.Exterior, returned.Exterior},
		{pickup.Interior, returned.Interior},
		{pickup.Tires, returned.Tires},
	}
	for _, c := range categories {
		if c[1].Rank() > c[0].Rank() {
			damageFee += policy.CategoryDamageFeeCents
		}
	}
	damageFee += int64(len(returned.Damages)) * policy.DamageItemFeeCents

	totalDue := lateFee + damageFee
	refund := depositCents - totalDue
	if refund < 0 {
		refund = 0
	}
	outstanding := totalDue - depositCents
	if outstanding < 0 {
		outstanding = 0
	}

	return model.Settlement{
		LateHours:          lateHours,
		LateFeeCents:       lateFee,
		DamageFeeCents:     damageFee,
		TotalDueCents:      totalDue,
		DepositRefundCents: refund,
		OutstandingCents:   outstanding,
	}
}
