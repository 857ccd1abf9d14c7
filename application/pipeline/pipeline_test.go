package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"loyaltyetl/application/ports"
	"loyaltyetl/domain/loyalty"
	apperrors "loyaltyetl/pkg/errors"
)

// fakeSource returns canned records per table and can be told to fail any of
// them. It records the since bound passed to the fact readers.
type fakeSource struct {
	failUsers        error
	failWallets      error
	failTiers        error
	failTransactions error

	sinceSeen *time.Time
}

func (f *fakeSource) Users(ctx context.Context) ([]loyalty.UserRecord, error) {
	if f.failUsers != nil {
		return nil, f.failUsers
	}
	return []loyalty.UserRecord{
		{UserID: "u1", UserName: "Asha", PhoneNumber: "+91 98765 43210", TierID: "GOLD", CreatedTime: "2025-03-01T10:00:00"},
		{UserID: "u2", UserName: "Ravi", PhoneNumber: "9000000000", TierID: "BRONZE"},
	}, nil
}

func (f *fakeSource) Wallets(ctx context.Context) ([]loyalty.WalletRecord, error) {
	if f.failWallets != nil {
		return nil, f.failWallets
	}
	return []loyalty.WalletRecord{
		{WalletID: "w1", UserID: "u1", RemainingAmount: loyalty.AmountFromFloat(120), TotalAmount: loyalty.AmountFromFloat(150), UsedAmount: loyalty.AmountFromFloat(30)},
	}, nil
}

func (f *fakeSource) TierDetails(ctx context.Context) ([]loyalty.TierDetailRecord, error) {
	if f.failTiers != nil {
		return nil, f.failTiers
	}
	return []loyalty.TierDetailRecord{
		{TierID: "GOLD", TierType: "GOLD"},
		{TierID: "SILVER", TierType: "SILVER"},
		{TierID: "BRONZE", TierType: "BRONZE"},
	}, nil
}

func (f *fakeSource) Transactions(ctx context.Context, since *time.Time) ([]loyalty.WalletTransactionRecord, error) {
	f.sinceSeen = since
	if f.failTransactions != nil {
		return nil, f.failTransactions
	}
	return []loyalty.WalletTransactionRecord{
		{TransactionID: "t1", UserID: "u1", Amount: loyaltyAmount("150"), Title: "referral bonus"},
		{TransactionID: "t2", UserID: "u1", Amount: loyaltyAmount("-30"), Title: "redemption"},
		{UserID: "u1", Amount: loyaltyAmount("5")}, // missing id, skipped
	}, nil
}

func (f *fakeSource) Referrals(ctx context.Context, since *time.Time) ([]loyalty.TierReferralRecord, error) {
	return []loyalty.TierReferralRecord{
		{TierReferralID: "r1", UserID: "u1", SentTo: "+919000000000", AppliedCode: "ASHA10"},
	}, nil
}

func (f *fakeSource) Leads(ctx context.Context, since *time.Time) ([]loyalty.LeadRecord, error) {
	return []loyalty.LeadRecord{
		{LeadID: "l1", UserID: "u2", LeadName: "Meera", LeadStage: "new"},
	}, nil
}

func (f *fakeSource) Withdrawals(ctx context.Context, since *time.Time) ([]loyalty.WithdrawalRecord, error) {
	return []loyalty.WithdrawalRecord{
		{RequestedID: "wd1", UserID: "u1", RequestedAmount: loyaltyAmount("50"), Status: loyalty.WithdrawalStatusPending},
	}, nil
}

func loyaltyAmount(s string) loyalty.Amount {
	return loyalty.NewAmount(decimal.RequireFromString(s))
}

// fakeStager records what it staged and returns a marker body per table
type fakeStager struct {
	failTable string
	staged    map[string]int
}

func (f *fakeStager) Stage(table string, columns []string, rows [][]string, loadedAt time.Time) ([]byte, error) {
	if table == f.failTable {
		return nil, errors.New("serialization failed")
	}
	if f.staged == nil {
		f.staged = map[string]int{}
	}
	f.staged[table] = len(rows)
	return []byte(fmt.Sprintf("csv:%s:%d", table, len(rows))), nil
}

// fakeStore keeps every Put in memory and can fail by key substring
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	failOn  string
}

func (f *fakeStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	if f.failOn != "" && strings.Contains(key, f.failOn) {
		return errors.New("store unavailable")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = body
	return nil
}

func (f *fakeStore) get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[key]
	return body, ok
}

type fakeEmitter struct {
	tables []string
}

func (f *fakeEmitter) Commands(date time.Time, tables []string) string {
	f.tables = tables
	return "-- load commands\n"
}

type fakeMetrics struct{}

func (fakeMetrics) Count(ctx context.Context, name string, value float64, dims map[string]string) {}
func (fakeMetrics) Duration(ctx context.Context, name string, d time.Duration, dims map[string]string) {
}

type fakeEvents struct {
	states []string
}

func (f *fakeEvents) PublishRunState(ctx context.Context, event ports.RunStateEvent) error {
	f.states = append(f.states, event.State)
	return nil
}

func newTestPipeline(source ports.SourceReader, stager ports.Stager, store ports.ObjectStore, emitter ports.CopyEmitter, events ports.EventPublisher) *Pipeline {
	p := New(source, stager, store, emitter, fakeMetrics{}, events, Options{ArchiveRaw: true}, zap.NewNop())
	return p.WithClock(func() time.Time {
		return time.Date(2025, 3, 15, 6, 30, 0, 0, time.UTC)
	})
}

func TestExecute_FullRunReachesTerminalState(t *testing.T) {
	// Arrange
	source := &fakeSource{}
	stager := &fakeStager{}
	store := &fakeStore{}
	emitter := &fakeEmitter{}
	events := &fakeEvents{}
	p := newTestPipeline(source, stager, store, emitter, events)

	// Act
	run, err := p.Execute(context.Background(), SyncRequest{Trigger: "schedule", Date: "2025-03-15"})

	// Assert
	require.NoError(t, err)
	assert.True(t, run.Succeeded())
	assert.Equal(t, StateCommandsEmitted, run.State)
	assert.Empty(t, run.FailedTables())
	assert.Equal(t, loyalty.TargetTables, run.UploadedTables())

	for _, table := range loyalty.TargetTables {
		body, ok := store.get(DataKey(run.Date, table))
		require.True(t, ok, "missing upload for %s", table)
		assert.NotEmpty(t, body)
	}

	_, ok := store.get("metadata/runs/loyalty/year=2025/month=03/day=15/copy_commands.sql")
	assert.True(t, ok)
	_, ok = store.get("metadata/runs/loyalty/year=2025/month=03/day=15/execution_log.json")
	assert.True(t, ok)

	// raw archive written for every source
	_, ok = store.get("raw/dynamodb/users/year=2025/month=03/day=15/data.json")
	assert.True(t, ok)

	assert.Equal(t, loyalty.TargetTables, emitter.tables)
	assert.Equal(t, 2, run.Tables[loyalty.TableFactWalletTransactions].Transformed)
	assert.Equal(t, 1, run.Tables[loyalty.TableFactWalletTransactions].Skipped)
	assert.Contains(t, events.states, string(StateCommandsEmitted))
}

func TestExecute_SourceFailureIsolatedToItsTable(t *testing.T) {
	// Arrange
	source := &fakeSource{failTransactions: errors.New("provisioned throughput exceeded")}
	stager := &fakeStager{}
	store := &fakeStore{}
	emitter := &fakeEmitter{}
	p := newTestPipeline(source, stager, store, emitter, &fakeEvents{})

	// Act
	run, err := p.Execute(context.Background(), SyncRequest{Date: "2025-03-15"})

	// Assert
	require.Error(t, err)
	assert.Equal(t, StateCommandsEmitted, run.State)
	assert.Equal(t, []string{loyalty.TableFactWalletTransactions}, run.FailedTables())

	// every other table still made it through
	assert.Len(t, run.UploadedTables(), len(loyalty.TargetTables)-1)
	assert.NotContains(t, emitter.tables, loyalty.TableFactWalletTransactions)
	_, ok := store.get(DataKey(run.Date, loyalty.TableFactWalletTransactions))
	assert.False(t, ok)
}

func TestExecute_UsersFailureFailsDimensionButNotFacts(t *testing.T) {
	// Arrange
	source := &fakeSource{failUsers: errors.New("access denied")}
	p := newTestPipeline(source, &fakeStager{}, &fakeStore{}, &fakeEmitter{}, &fakeEvents{})

	// Act
	run, err := p.Execute(context.Background(), SyncRequest{Date: "2025-03-15"})

	// Assert
	require.Error(t, err)
	assert.Equal(t, []string{loyalty.TableDimLoyaltyUsers}, run.FailedTables())
	assert.Contains(t, run.UploadedTables(), loyalty.TableFactReferrals)
	assert.Contains(t, run.UploadedTables(), loyalty.TableFactWithdrawals)
}

func TestExecute_StagingFailureSkipsUploadAndCopy(t *testing.T) {
	// Arrange
	stager := &fakeStager{failTable: loyalty.TableFactLeads}
	emitter := &fakeEmitter{}
	p := newTestPipeline(&fakeSource{}, stager, &fakeStore{}, emitter, &fakeEvents{})

	// Act
	run, err := p.Execute(context.Background(), SyncRequest{Date: "2025-03-15"})

	// Assert
	require.Error(t, err)
	assert.Equal(t, []string{loyalty.TableFactLeads}, run.FailedTables())
	assert.True(t, apperrors.IsStaging(run.Tables[loyalty.TableFactLeads].Err))
	assert.NotContains(t, emitter.tables, loyalty.TableFactLeads)
}

func TestExecute_NothingUploadedStopsBeforeEmit(t *testing.T) {
	// Arrange: every CSV upload fails, so there is nothing to load
	store := &fakeStore{failOn: ".csv"}
	p := newTestPipeline(&fakeSource{}, &fakeStager{}, store, &fakeEmitter{}, &fakeEvents{})

	// Act
	run, err := p.Execute(context.Background(), SyncRequest{Date: "2025-03-15"})

	// Assert
	require.Error(t, err)
	assert.Equal(t, StateUploaded, run.State)
	assert.False(t, run.Succeeded())
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeEmit))
	_, ok := store.get(CopyCommandsKey(run.Date))
	assert.False(t, ok)
}

func TestExecute_IncrementalBoundsFactReaders(t *testing.T) {
	// Arrange
	source := &fakeSource{}
	p := newTestPipeline(source, &fakeStager{}, &fakeStore{}, &fakeEmitter{}, &fakeEvents{})

	// Act
	_, err := p.Execute(context.Background(), SyncRequest{Action: ActionIncremental, Date: "2025-03-15"})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, source.sinceSeen)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), *source.sinceSeen)
}

func TestExecute_RejectsBadRequests(t *testing.T) {
	p := newTestPipeline(&fakeSource{}, &fakeStager{}, &fakeStore{}, &fakeEmitter{}, &fakeEvents{})

	_, err := p.Execute(context.Background(), SyncRequest{Action: "rebuild"})
	assert.Error(t, err)

	_, err = p.Execute(context.Background(), SyncRequest{Date: "15-03-2025"})
	assert.Error(t, err)
}
