package ports

import (
	"context"
	"time"

	"loyaltyetl/domain/loyalty"
)

// SourceReader retrieves complete record sets from the seven loyalty source
// tables, handling result-set pagination transparently: callers always see a
// fully materialized slice, never a partial page. Fact readers accept an
// optional lower bound on created_time for incremental runs; dimension
// readers are always full scans.
type SourceReader interface {
	Users(ctx context.Context) ([]loyalty.UserRecord, error)
	Wallets(ctx context.Context) ([]loyalty.WalletRecord, error)
	TierDetails(ctx context.Context) ([]loyalty.TierDetailRecord, error)
	Transactions(ctx context.Context, since *time.Time) ([]loyalty.WalletTransactionRecord, error)
	Referrals(ctx context.Context, since *time.Time) ([]loyalty.TierReferralRecord, error)
	Leads(ctx context.Context, since *time.Time) ([]loyalty.LeadRecord, error)
	Withdrawals(ctx context.Context, since *time.Time) ([]loyalty.WithdrawalRecord, error)
}

// Stager serializes one target table's rows into a column-delimited file,
// stamping every row with the load timestamp.
type Stager interface {
	Stage(table string, columns []string, rows [][]string, loadedAt time.Time) ([]byte, error)
}

// ObjectStore writes staged artifacts to the durable output store.
// Writes are last-write-wins per key, which is what makes same-date reruns
// idempotent.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// CopyEmitter renders warehouse load statements for the given target tables
// of one run date. The statements are emitted as data, never executed.
type CopyEmitter interface {
	Commands(date time.Time, tables []string) string
}

// MetricsPublisher records operational counters for operator visibility
type MetricsPublisher interface {
	Count(ctx context.Context, name string, value float64, dimensions map[string]string)
	Duration(ctx context.Context, name string, d time.Duration, dimensions map[string]string)
}

// RunStateEvent describes a pipeline run state transition
type RunStateEvent struct {
	RunID string         `json:"runId"`
	Date  string         `json:"date"`
	State string         `json:"state"`
	Error string         `json:"error,omitempty"`
	Rows  map[string]int `json:"rows,omitempty"`
}

// EventPublisher publishes run lifecycle events for downstream consumers
type EventPublisher interface {
	PublishRunState(ctx context.Context, event RunStateEvent) error
}

// AggregateStore applies atomic numeric deltas to dashboard aggregate rows
type AggregateStore interface {
	Apply(ctx context.Context, delta loyalty.AggregateDelta) error
}
