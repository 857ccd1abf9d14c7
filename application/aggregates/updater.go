package aggregates

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loyaltyetl/application/ports"
	"loyaltyetl/domain/loyalty"
	apperrors "loyaltyetl/pkg/errors"
	"loyaltyetl/pkg/utils"
)

// SourceKind classifies which aggregate rules apply to a stream change
type SourceKind string

const (
	KindWallet     SourceKind = "wallet"
	KindReferral   SourceKind = "referral"
	KindLead       SourceKind = "lead"
	KindWithdrawal SourceKind = "withdrawal"
)

// Updater applies change-stream records to the dashboard aggregate rows.
// Each change is reduced to numeric deltas and applied atomically, so the
// aggregates stay consistent without rescanning the source tables.
type Updater struct {
	store  ports.AggregateStore
	kinds  map[string]SourceKind
	logger *zap.Logger
	clock  func() time.Time
}

// NewUpdater creates an updater. kinds maps physical source table names to
// the aggregate rules that apply to their streams.
func NewUpdater(store ports.AggregateStore, kinds map[string]SourceKind, logger *zap.Logger) *Updater {
	return &Updater{
		store:  store,
		kinds:  kinds,
		logger: logger,
		clock:  time.Now,
	}
}

// WithClock overrides the updater's clock
func (u *Updater) WithClock(clock func() time.Time) *Updater {
	u.clock = clock
	return u
}

// Apply reduces a batch of stream changes to aggregate deltas and applies
// them. Changes from unmapped tables are skipped. A failed apply is logged
// and counted but does not stop the batch; the batch errors as a whole so
// the stream source can redeliver.
func (u *Updater) Apply(ctx context.Context, changes []loyalty.StreamChange) error {
	failures := 0
	for _, change := range changes {
		kind, ok := u.kinds[change.Table]
		if !ok {
			u.logger.Debug("Skipping change from unmapped table",
				zap.String("table", change.Table),
			)
			continue
		}

		for _, delta := range u.deltas(kind, change) {
			if err := u.store.Apply(ctx, delta); err != nil {
				failures++
				u.logger.Error("Aggregate delta apply failed",
					zap.String("table", change.Table),
					zap.String("aggregateType", delta.Type),
					zap.String("aggregateId", delta.ID),
					zap.Error(err),
				)
			}
		}
	}

	if failures > 0 {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to apply %d aggregate deltas", failures))
	}
	return nil
}

func (u *Updater) deltas(kind SourceKind, change loyalty.StreamChange) []loyalty.AggregateDelta {
	switch kind {
	case KindWallet:
		oldBalance := loyalty.NumberField(change.Old, "remainingAmount")
		newBalance := loyalty.NumberField(change.New, "remainingAmount")
		tierName := loyalty.StringField(change.New, "tierName")
		if tierName == "" {
			tierName = loyalty.StringField(change.Old, "tierName")
		}
		return loyalty.WalletDeltas(oldBalance, newBalance, tierName)

	case KindReferral:
		return loyalty.ReferralDeltas(change.Event, createdAt(change), u.clock())

	case KindLead:
		return loyalty.LeadDeltas(change.Event, createdAt(change), u.clock())

	case KindWithdrawal:
		return loyalty.WithdrawalDeltas(
			loyalty.StringField(change.Old, "status"),
			loyalty.StringField(change.New, "status"),
			loyalty.NumberField(change.Old, "requestedAmount"),
			loyalty.NumberField(change.New, "requestedAmount"),
		)
	}
	return nil
}

// createdAt reads the record's creation time from whichever image carries it
func createdAt(change loyalty.StreamChange) *time.Time {
	image := change.New
	if change.Event == loyalty.StreamRemove {
		image = change.Old
	}
	if image == nil {
		return nil
	}
	t, ok := utils.ParseFlexibleTime(image["created_time"])
	if !ok {
		return nil
	}
	return &t
}
