package loyalty

import (
	"time"

	"github.com/shopspring/decimal"
)

// Daily coin activity and the incremental aggregate math behind the
// dashboard views. The same delta rules drive the stream-fed aggregates
// updater, so a full recompute and the incremental path agree.

// DayLayout keys daily aggregates
const DayLayout = "2006-01-02"

// CoinActivity sums one day's ledger movement
type CoinActivity struct {
	Credits decimal.Decimal
	Debits  decimal.Decimal
}

// DailyActivity groups transaction facts by creation day and sums credits
// and debits. Debits are reported as absolute values regardless of the
// ledger's sign convention. Facts without a creation timestamp are ignored.
func DailyActivity(facts []WalletTransactionFact) map[string]CoinActivity {
	byDay := make(map[string]CoinActivity)
	for _, fact := range facts {
		if fact.CreatedAt == nil {
			continue
		}
		day := fact.CreatedAt.UTC().Format(DayLayout)
		activity := byDay[day]
		if fact.Type == TransactionTypeDebit {
			activity.Debits = activity.Debits.Add(fact.Amount.Abs())
		} else {
			activity.Credits = activity.Credits.Add(fact.Amount.Abs())
		}
		byDay[day] = activity
	}
	return byDay
}

// Stream event kinds as delivered by the source tables' change streams
const (
	StreamInsert = "INSERT"
	StreamModify = "MODIFY"
	StreamRemove = "REMOVE"
)

// Aggregate partition keys
const (
	AggregateGlobal = "GLOBAL"
	AggregateTier   = "TIER"
	AggregateDaily  = "DAILY"

	AggregateGlobalStats = "STATS"
)

// AggregateDelta is one atomic set of numeric adjustments to an aggregate row
type AggregateDelta struct {
	Type    string
	ID      string
	Updates map[string]Amount
}

// WalletDeltas computes the aggregate adjustments for a wallet balance
// change: total coins in circulation, the active-user count (balance > 0),
// and the per-tier coin/currency/user rollup.
func WalletDeltas(oldBalance, newBalance decimal.Decimal, tierName string) []AggregateDelta {
	coinDelta := newBalance.Sub(oldBalance)

	activeDelta := decimal.Zero
	wasActive := oldBalance.IsPositive()
	isActive := newBalance.IsPositive()
	switch {
	case !wasActive && isActive:
		activeDelta = decimal.NewFromInt(1)
	case wasActive && !isActive:
		activeDelta = decimal.NewFromInt(-1)
	}

	if coinDelta.IsZero() && activeDelta.IsZero() {
		return nil
	}

	if tierName == "" {
		tierName = TierUnknown
	}
	rate := RedemptionRate(tierName)

	return []AggregateDelta{
		{
			Type: AggregateGlobal,
			ID:   AggregateGlobalStats,
			Updates: map[string]Amount{
				"totalCoins":       NewAmount(coinDelta),
				"activeUsersCount": NewAmount(activeDelta),
			},
		},
		{
			Type: AggregateTier,
			ID:   tierName,
			Updates: map[string]Amount{
				"coins":  NewAmount(coinDelta),
				"rupees": NewAmount(coinDelta.Mul(rate)),
				"users":  NewAmount(activeDelta),
			},
		},
	}
}

// ReferralDeltas computes the aggregate adjustments for a referral insert or
// removal: the daily referral counter and, when the referral belongs to the
// current day, the global today counter.
func ReferralDeltas(event string, createdAt *time.Time, today time.Time) []AggregateDelta {
	return countedEventDeltas(event, createdAt, today, "referrals", "todayReferralsCount")
}

// LeadDeltas computes the aggregate adjustments for a lead insert or removal
func LeadDeltas(event string, createdAt *time.Time, today time.Time) []AggregateDelta {
	return countedEventDeltas(event, createdAt, today, "leads", "todayLeadsCount")
}

func countedEventDeltas(event string, createdAt *time.Time, today time.Time, dailyKey, todayKey string) []AggregateDelta {
	var sign int64
	switch event {
	case StreamInsert:
		sign = 1
	case StreamRemove:
		sign = -1
	default:
		return nil
	}
	if createdAt == nil {
		return nil
	}

	delta := NewAmount(decimal.NewFromInt(sign))
	day := createdAt.UTC().Format(DayLayout)

	deltas := []AggregateDelta{
		{
			Type:    AggregateDaily,
			ID:      day,
			Updates: map[string]Amount{dailyKey: delta},
		},
	}
	if day == today.UTC().Format(DayLayout) {
		deltas = append(deltas, AggregateDelta{
			Type:    AggregateGlobal,
			ID:      AggregateGlobalStats,
			Updates: map[string]Amount{todayKey: delta},
		})
	}
	return deltas
}

// WithdrawalDeltas computes the pending-withdrawal count and amount
// adjustments for a withdrawal status or amount change.
func WithdrawalDeltas(oldStatus, newStatus string, oldAmount, newAmount decimal.Decimal) []AggregateDelta {
	wasPending := oldStatus == WithdrawalStatusPending
	isPending := newStatus == WithdrawalStatusPending

	countDelta := decimal.Zero
	amountDelta := decimal.Zero

	switch {
	case !wasPending && isPending:
		countDelta = decimal.NewFromInt(1)
		amountDelta = newAmount
	case wasPending && !isPending:
		countDelta = decimal.NewFromInt(-1)
		amountDelta = oldAmount.Neg()
	case wasPending && isPending && !oldAmount.Equal(newAmount):
		amountDelta = newAmount.Sub(oldAmount)
	}

	if countDelta.IsZero() && amountDelta.IsZero() {
		return nil
	}

	return []AggregateDelta{
		{
			Type: AggregateGlobal,
			ID:   AggregateGlobalStats,
			Updates: map[string]Amount{
				"pendingWithdrawalsCount":  NewAmount(countDelta),
				"pendingWithdrawalsAmount": NewAmount(amountDelta),
			},
		},
	}
}
