package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voltride/rental-service/config"
	"github.com/voltride/rental-service/internal/model"
	"github.com/voltride/rental-service/internal/service"
)

func TestComputeSettlement(t *testing.T) {
	t.Parallel()

	policy := config.Policy{
		DepositCents:           20000,
		LateFeeCentsPerHour:    1500,
		CategoryDamageFeeCents: 5000,
		DamageItemFeeCents:     2500,
	}
	end := time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)

	clean := snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood)

	var tests = []struct {
		name       string
		returnedAt time.Time
		pickup     model.ConditionSnapshot
		returned   model.ConditionSnapshot
		deposit    int64
		policy     config.Policy
		want       model.Settlement
	}{
		{
			name:       "on time no damages refunds full deposit",
			returnedAt: end,
			pickup:     clean,
			returned:   clean,
			deposit:    20000,
			policy:     policy,
			want: model.Settlement{
				DepositRefundCents: 20000,
			},
		},
		{
			name:       "early return refunds full deposit",
			returnedAt: end.Add(-90 * time.Minute),
			pickup:     clean,
			returned:   clean,
			deposit:    20000,
			policy:     policy,
			want: model.Settlement{
				DepositRefundCents: 20000,
			},
		},
		{
			name:       "two hours five minutes late rounds up to three hours",
			returnedAt: time.Date(2024, 1, 1, 19, 5, 0, 0, time.UTC),
			pickup:     clean,
			returned:   clean,
			deposit:    20000,
			policy:     policy,
			want: model.Settlement{
				LateHours:          3,
				LateFeeCents:       4500,
				TotalDueCents:      4500,
				DepositRefundCents: 15500,
			},
		},
		{
			name:       "exactly one hour late is one hour",
			returnedAt: end.Add(time.Hour),
			pickup:     clean,
			returned:   clean,
			deposit:    20000,
			policy:     policy,
			want: model.Settlement{
				LateHours:          1,
				LateFeeCents:       1500,
				TotalDueCents:      1500,
				DepositRefundCents: 18500,
			},
		},
		{
			name:       "category downgrades and reported damages",
			returnedAt: end,
			pickup:     snapshot(model.ConditionExcellent, model.ConditionGood, model.ConditionGood),
			returned:   snapshot(model.ConditionGood, model.ConditionGood, model.ConditionBad, "scratched bumper", "torn seat"),
			deposit:    20000,
			policy:     policy,
			want: model.Settlement{
				DamageFeeCents:     15000, // 2 categories + 2 reported items
				TotalDueCents:      15000,
				DepositRefundCents: 5000,
			},
		},
		{
			name:       "condition upgrade is not billed",
			returnedAt: end,
			pickup:     snapshot(model.ConditionBad, model.ConditionGood, model.ConditionGood),
			returned:   snapshot(model.ConditionGood, model.ConditionGood, model.ConditionGood),
			deposit:    20000,
			policy:     policy,
			want: model.Settlement{
				DepositRefundCents: 20000,
			},
		},
		{
			name:       "shortfall never drives the refund negative",
			returnedAt: end.Add(5 * time.Hour),
			pickup:     clean,
			returned:   clean,
			deposit:    200,
			policy: config.Policy{
				DepositCents:        200,
				LateFeeCentsPerHour: 50,
			},
			want: model.Settlement{
				LateHours:          5,
				LateFeeCents:       250,
				TotalDueCents:      250,
				DepositRefundCents: 0,
				OutstandingCents:   50,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := service.ComputeSettlement(end, tt.returnedAt, tt.pickup, tt.returned, tt.policy, tt.deposit)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestComputeSettlementDeterministic(t *testing.T) {
	t.Parallel()

	policy := config.Policy{
		DepositCents:           20000,
		LateFeeCentsPerHour:    1500,
		CategoryDamageFeeCents: 5000,
		DamageItemFeeCents:     2500,
	}
	end := time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)
	pickup := snapshot(model.ConditionExcellent, model.ConditionExcellent, model.ConditionExcellent)
	returned := snapshot(model.ConditionGood, model.ConditionExcellent, model.ConditionBad, "cracked mirror")

	first := service.ComputeSettlement(end, end.Add(95*time.Minute), pickup, returned, policy, 20000)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, service.ComputeSettlement(end, end.Add(95*time.Minute), pickup, returned, policy, 20000))
	}
	// Deposit conservation: refund plus what the deposit absorbed is
	// the deposit, as long as the due fits the deposit.
	require.Equal(t, int64(20000), first.DepositRefundCents+first.TotalDueCents-first.OutstandingCents)
}
