package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"loyaltyetl/application/ports"
	"loyaltyetl/domain/loyalty"
	apperrors "loyaltyetl/pkg/errors"
)

// Logical source table names used for bookkeeping and raw archive paths
const (
	sourceUsers        = "users"
	sourceWallets      = "wallets"
	sourceTransactions = "wallet_transactions"
	sourceReferrals    = "tier_referrals"
	sourceTierDetails  = "tier_details"
	sourceLeads        = "leads"
	sourceWithdrawals  = "withdrawals"
)

var targetOrder = loyalty.TargetTables

// Options tunes per-run behavior
type Options struct {
	// ArchiveRaw writes the extracted records as JSON next to the staged
	// CSVs, mirroring the raw layer of the data lake.
	ArchiveRaw bool
}

// Pipeline runs one Extract → Transform → Stage → Upload → Emit pass over
// the loyalty tables. Control flow is strictly linear; the only looping is
// per table, and one table's failure never aborts the others.
type Pipeline struct {
	source   ports.SourceReader
	stager   ports.Stager
	store    ports.ObjectStore
	emitter  ports.CopyEmitter
	metrics  ports.MetricsPublisher
	events   ports.EventPublisher
	opts     Options
	logger   *zap.Logger
	validate *validator.Validate
	clock    func() time.Time
}

// New creates a pipeline
func New(
	source ports.SourceReader,
	stager ports.Stager,
	store ports.ObjectStore,
	emitter ports.CopyEmitter,
	metrics ports.MetricsPublisher,
	events ports.EventPublisher,
	opts Options,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		source:   source,
		stager:   stager,
		store:    store,
		emitter:  emitter,
		metrics:  metrics,
		events:   events,
		opts:     opts,
		logger:   logger,
		validate: validator.New(),
		clock:    time.Now,
	}
}

// WithClock overrides the pipeline's clock
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// Execute runs the full pipeline for one date. The returned run always
// reflects how far execution got; the returned error is non-nil when the
// run stopped early or any table dropped out, so schedulers can retry.
func (p *Pipeline) Execute(ctx context.Context, req SyncRequest) (*Run, error) {
	if err := p.validate.Struct(req); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("invalid sync request: %v", err))
	}

	action := req.Action
	if action == "" {
		action = ActionFull
	}

	date := p.clock().UTC()
	if req.Date != "" {
		parsed, err := time.Parse(loyalty.DayLayout, req.Date)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid run date %q", req.Date))
		}
		date = parsed
	}

	run := NewRun(date, action)
	run.StartedAt = p.clock()

	p.logger.Info("Pipeline run started",
		zap.String("runID", run.ID),
		zap.String("date", date.Format(loyalty.DayLayout)),
		zap.String("action", action),
		zap.String("trigger", req.Trigger),
	)

	var since *time.Time
	if action == ActionIncremental {
		start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		since = &start
	}

	extracted := p.extract(ctx, run, since)
	p.setState(ctx, run, StateExtracted)

	staged := p.transform(run, extracted)
	p.setState(ctx, run, StateTransformed)

	bodies := p.stage(run, staged)
	p.setState(ctx, run, StateStaged)

	p.upload(ctx, run, bodies)
	p.setState(ctx, run, StateUploaded)

	if err := p.emit(ctx, run); err != nil {
		run.Err = err
		run.FinishedAt = p.clock()
		p.publishState(ctx, run)
		return run, err
	}

	p.setState(ctx, run, StateCommandsEmitted)
	run.FinishedAt = p.clock()
	p.recordRunMetrics(ctx, run)

	if failed := run.FailedTables(); len(failed) > 0 {
		return run, apperrors.NewInternalError(
			fmt.Sprintf("run %s completed with %d failed tables: %v", run.ID, len(failed), failed))
	}
	return run, nil
}

// extracted bundles everything the transform stage consumes
type extracted struct {
	users        []loyalty.UserRecord
	wallets      []loyalty.WalletRecord
	tiers        []loyalty.TierDetailRecord
	transactions []loyalty.WalletTransactionRecord
	referrals    []loyalty.TierReferralRecord
	leads        []loyalty.LeadRecord
	withdrawals  []loyalty.WithdrawalRecord
}

func (p *Pipeline) extract(ctx context.Context, run *Run, since *time.Time) *extracted {
	out := &extracted{}

	extractInto(p, ctx, run, sourceUsers, &out.users, func() ([]loyalty.UserRecord, error) {
		return p.source.Users(ctx)
	})
	extractInto(p, ctx, run, sourceWallets, &out.wallets, func() ([]loyalty.WalletRecord, error) {
		return p.source.Wallets(ctx)
	})
	extractInto(p, ctx, run, sourceTierDetails, &out.tiers, func() ([]loyalty.TierDetailRecord, error) {
		return p.source.TierDetails(ctx)
	})
	extractInto(p, ctx, run, sourceTransactions, &out.transactions, func() ([]loyalty.WalletTransactionRecord, error) {
		return p.source.Transactions(ctx, since)
	})
	extractInto(p, ctx, run, sourceReferrals, &out.referrals, func() ([]loyalty.TierReferralRecord, error) {
		return p.source.Referrals(ctx, since)
	})
	extractInto(p, ctx, run, sourceLeads, &out.leads, func() ([]loyalty.LeadRecord, error) {
		return p.source.Leads(ctx, since)
	})
	extractInto(p, ctx, run, sourceWithdrawals, &out.withdrawals, func() ([]loyalty.WithdrawalRecord, error) {
		return p.source.Withdrawals(ctx, since)
	})

	return out
}

// extractInto runs one source table's extraction, records the result and
// optionally archives the raw records. An extraction error is scoped to its
// table; the run continues.
func extractInto[T any](p *Pipeline, ctx context.Context, run *Run, name string, dst *[]T, fetch func() ([]T, error)) {
	records, err := fetch()
	if err != nil {
		run.Sources[name] = &SourceResult{Table: name, Err: err}
		p.logger.Error("Source extraction failed",
			zap.String("runID", run.ID),
			zap.String("source", name),
			zap.Error(err),
		)
		p.metrics.Count(ctx, "ExtractionFailures", 1, map[string]string{"Source": name})
		return
	}

	*dst = records
	run.Sources[name] = &SourceResult{Table: name, Count: len(records)}
	p.logger.Info("Source extracted",
		zap.String("runID", run.ID),
		zap.String("source", name),
		zap.Int("records", len(records)),
	)

	if p.opts.ArchiveRaw {
		p.archiveRaw(ctx, run, name, records)
	}
}

// archiveRaw is best-effort; a failed archive never affects the run
func (p *Pipeline) archiveRaw(ctx context.Context, run *Run, name string, records interface{}) {
	body, err := json.Marshal(records)
	if err == nil {
		err = p.store.Put(ctx, RawKey(run.Date, name), "application/json", body)
	}
	if err != nil {
		p.logger.Warn("Raw archive failed",
			zap.String("runID", run.ID),
			zap.String("source", name),
			zap.Error(err),
		)
	}
}

// stagedRows is a target table's transformed output ready for staging
type stagedRows struct {
	table string
	rows  [][]string
}

func (p *Pipeline) transform(run *Run, ext *extracted) []stagedRows {
	var out []stagedRows

	sourceErr := func(name string) error {
		if res, ok := run.Sources[name]; ok {
			return res.Err
		}
		return nil
	}

	// dim_tier: seeds stand in when the source table is empty, but a failed
	// scan fails the target.
	catalog := loyalty.NewTierCatalog(ext.tiers)
	if err := sourceErr(sourceTierDetails); err != nil {
		p.failTable(run, loyalty.TableDimTier, err)
	} else {
		out = append(out, p.collect(run, loyalty.TableDimTier, tierRows(catalog.Rows()), 0))
	}

	// dim_loyalty_users joins users and wallets; either source failing
	// fails the dimension. The user index is still built from whatever was
	// transformed so fact enrichment degrades instead of failing.
	dims, dimSkipped := loyalty.BuildUserDimensions(ext.users, ext.wallets, catalog)
	index := loyalty.NewUserIndex(dims)
	if err := sourceErr(sourceUsers); err != nil {
		p.failTable(run, loyalty.TableDimLoyaltyUsers, err)
	} else if err := sourceErr(sourceWallets); err != nil {
		p.failTable(run, loyalty.TableDimLoyaltyUsers, err)
	} else {
		out = append(out, p.collect(run, loyalty.TableDimLoyaltyUsers, userRows(dims), dimSkipped))
	}

	if err := sourceErr(sourceTransactions); err != nil {
		p.failTable(run, loyalty.TableFactWalletTransactions, err)
	} else {
		facts, skipped := loyalty.TransformTransactions(ext.transactions)
		if day, ok := loyalty.DailyActivity(facts)[run.Date.Format(loyalty.DayLayout)]; ok {
			p.logger.Info("Coin activity for run date",
				zap.String("runID", run.ID),
				zap.String("credits", day.Credits.String()),
				zap.String("debits", day.Debits.String()),
			)
		}
		out = append(out, p.collect(run, loyalty.TableFactWalletTransactions, transactionRows(facts), skipped))
	}

	if err := sourceErr(sourceReferrals); err != nil {
		p.failTable(run, loyalty.TableFactReferrals, err)
	} else {
		facts, skipped := loyalty.TransformReferrals(ext.referrals, index)
		out = append(out, p.collect(run, loyalty.TableFactReferrals, referralRows(facts), skipped))
	}

	if err := sourceErr(sourceLeads); err != nil {
		p.failTable(run, loyalty.TableFactLeads, err)
	} else {
		facts, skipped := loyalty.TransformLeads(ext.leads, index)
		out = append(out, p.collect(run, loyalty.TableFactLeads, leadRows(facts), skipped))
	}

	if err := sourceErr(sourceWithdrawals); err != nil {
		p.failTable(run, loyalty.TableFactWithdrawals, err)
	} else {
		facts, skipped := loyalty.TransformWithdrawals(ext.withdrawals, index)
		out = append(out, p.collect(run, loyalty.TableFactWithdrawals, withdrawalRows(facts), skipped))
	}

	return out
}

func (p *Pipeline) failTable(run *Run, table string, err error) {
	res := run.table(table)
	res.Err = err
}

func (p *Pipeline) collect(run *Run, table string, rows [][]string, skipped int) stagedRows {
	res := run.table(table)
	res.Transformed = len(rows)
	res.Skipped = skipped
	if skipped > 0 {
		p.logger.Warn("Malformed source records skipped",
			zap.String("runID", run.ID),
			zap.String("table", table),
			zap.Int("skipped", skipped),
		)
	}
	return stagedRows{table: table, rows: rows}
}

func (p *Pipeline) stage(run *Run, staged []stagedRows) map[string][]byte {
	bodies := make(map[string][]byte, len(staged))
	loadedAt := p.clock().UTC()

	for _, s := range staged {
		body, err := p.stager.Stage(s.table, loyalty.WarehouseColumns[s.table], s.rows, loadedAt)
		if err != nil {
			p.failTable(run, s.table, apperrors.NewStagingError(s.table, err))
			p.logger.Error("Staging failed",
				zap.String("runID", run.ID),
				zap.String("table", s.table),
				zap.Error(err),
			)
			continue
		}
		run.table(s.table).Staged = len(s.rows)
		bodies[s.table] = body
	}
	return bodies
}

func (p *Pipeline) upload(ctx context.Context, run *Run, bodies map[string][]byte) {
	for _, table := range targetOrder {
		body, ok := bodies[table]
		if !ok {
			continue
		}
		key := DataKey(run.Date, table)
		if err := p.store.Put(ctx, key, "text/csv", body); err != nil {
			p.failTable(run, table, apperrors.NewUploadError(key, err))
			p.logger.Error("Upload failed",
				zap.String("runID", run.ID),
				zap.String("table", table),
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		res := run.table(table)
		res.Uploaded = true
		p.logger.Info("Table uploaded",
			zap.String("runID", run.ID),
			zap.String("table", table),
			zap.String("key", key),
			zap.Int("rows", res.Staged),
		)
	}
}

// emit writes the load commands for every uploaded table, then the
// execution log. No command is emitted for a table whose staging or upload
// failed, so the warehouse load step never references a missing file.
func (p *Pipeline) emit(ctx context.Context, run *Run) error {
	uploaded := run.UploadedTables()
	if len(uploaded) == 0 {
		return apperrors.NewEmitError("no target tables uploaded, skipping load command emission", nil)
	}

	commands := p.emitter.Commands(run.Date, uploaded)
	key := CopyCommandsKey(run.Date)
	if err := p.store.Put(ctx, key, "text/plain", []byte(commands)); err != nil {
		return apperrors.NewEmitError("failed to write load commands", err)
	}
	p.logger.Info("Load commands emitted",
		zap.String("runID", run.ID),
		zap.String("key", key),
		zap.Strings("tables", uploaded),
	)

	p.writeExecutionLog(ctx, run)
	return nil
}

// writeExecutionLog is best-effort run metadata for operators
func (p *Pipeline) writeExecutionLog(ctx context.Context, run *Run) {
	type tableLog struct {
		Transformed int    `json:"transformed"`
		Skipped     int    `json:"skipped"`
		Staged      int    `json:"staged"`
		Uploaded    bool   `json:"uploaded"`
		Error       string `json:"error,omitempty"`
	}
	logEntry := struct {
		RunID   string              `json:"runId"`
		Date    string              `json:"date"`
		Action  string              `json:"action"`
		Started time.Time           `json:"startedAt"`
		Sources map[string]int      `json:"extract"`
		Tables  map[string]tableLog `json:"tables"`
	}{
		RunID:   run.ID,
		Date:    run.Date.Format(loyalty.DayLayout),
		Action:  run.Action,
		Started: run.StartedAt,
		Sources: make(map[string]int, len(run.Sources)),
		Tables:  make(map[string]tableLog, len(run.Tables)),
	}
	for name, res := range run.Sources {
		count := res.Count
		if res.Err != nil {
			count = -1
		}
		logEntry.Sources[name] = count
	}
	for name, res := range run.Tables {
		entry := tableLog{
			Transformed: res.Transformed,
			Skipped:     res.Skipped,
			Staged:      res.Staged,
			Uploaded:    res.Uploaded,
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		logEntry.Tables[name] = entry
	}

	body, err := json.Marshal(logEntry)
	if err == nil {
		err = p.store.Put(ctx, ExecutionLogKey(run.Date), "application/json", body)
	}
	if err != nil {
		p.logger.Warn("Execution log write failed",
			zap.String("runID", run.ID),
			zap.Error(err),
		)
	}
}

func (p *Pipeline) setState(ctx context.Context, run *Run, state State) {
	run.State = state
	p.logger.Info("Run state changed",
		zap.String("runID", run.ID),
		zap.String("state", string(state)),
	)
	p.publishState(ctx, run)
}

func (p *Pipeline) publishState(ctx context.Context, run *Run) {
	event := ports.RunStateEvent{
		RunID: run.ID,
		Date:  run.Date.Format(loyalty.DayLayout),
		State: string(run.State),
		Rows:  run.RowCounts(),
	}
	if run.Err != nil {
		event.Error = run.Err.Error()
	}
	if err := p.events.PublishRunState(ctx, event); err != nil {
		p.logger.Warn("Run state event publish failed",
			zap.String("runID", run.ID),
			zap.Error(err),
		)
	}
}

func (p *Pipeline) recordRunMetrics(ctx context.Context, run *Run) {
	for table, count := range run.RowCounts() {
		p.metrics.Count(ctx, "RowsStaged", float64(count), map[string]string{"Table": table})
	}
	for _, res := range run.Tables {
		if res.Skipped > 0 {
			p.metrics.Count(ctx, "RecordsSkipped", float64(res.Skipped), map[string]string{"Table": res.Table})
		}
	}
	p.metrics.Count(ctx, "TablesFailed", float64(len(run.FailedTables())), nil)
	p.metrics.Duration(ctx, "RunDuration", run.FinishedAt.Sub(run.StartedAt), nil)
}

// Row collection helpers keep the transform stage free of [][]string noise

func tierRows(dims []loyalty.TierDimension) [][]string {
	rows := make([][]string, 0, len(dims))
	for _, d := range dims {
		rows = append(rows, d.Row())
	}
	return rows
}

func userRows(dims []loyalty.UserDimension) [][]string {
	rows := make([][]string, 0, len(dims))
	for _, d := range dims {
		rows = append(rows, d.Row())
	}
	return rows
}

func transactionRows(facts []loyalty.WalletTransactionFact) [][]string {
	rows := make([][]string, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, f.Row())
	}
	return rows
}

func referralRows(facts []loyalty.ReferralFact) [][]string {
	rows := make([][]string, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, f.Row())
	}
	return rows
}

func leadRows(facts []loyalty.LeadFact) [][]string {
	rows := make([][]string, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, f.Row())
	}
	return rows
}

func withdrawalRows(facts []loyalty.WithdrawalFact) [][]string {
	rows := make([][]string, 0, len(facts))
	for _, f := range facts {
		rows = append(rows, f.Row())
	}
	return rows
}
