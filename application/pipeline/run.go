package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// State is a pipeline run's progress through its stages. A run that fails
// mid-flight stays in its last completed state with the error recorded;
// already-uploaded partitions are immutable and are never rolled back.
type State string

const (
	StatePending         State = "PENDING"
	StateExtracted       State = "EXTRACTED"
	StateTransformed     State = "TRANSFORMED"
	StateStaged          State = "STAGED"
	StateUploaded        State = "UPLOADED"
	StateCommandsEmitted State = "COMMANDS_EMITTED"
)

// Actions accepted in the invocation payload
const (
	ActionFull        = "full"
	ActionIncremental = "incremental"
)

// SyncRequest is the optional invocation payload. An absent payload means a
// full sync for today.
type SyncRequest struct {
	Trigger string `json:"trigger" validate:"omitempty,max=64"`
	Action  string `json:"action" validate:"omitempty,oneof=full incremental"`
	Date    string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// SourceResult tracks one source table's extraction
type SourceResult struct {
	Table string
	Count int
	Err   error
}

// TableResult tracks one target table through the run
type TableResult struct {
	Table       string
	Transformed int
	Skipped     int
	Staged      int
	Uploaded    bool
	Err         error
}

// Failed reports whether the target table dropped out of the run
func (t *TableResult) Failed() bool {
	return t.Err != nil
}

// Run is the unit of pipeline execution: one date, one pass over all tables
type Run struct {
	ID         string
	Date       time.Time
	Action     string
	State      State
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time

	Sources map[string]*SourceResult
	Tables  map[string]*TableResult
}

// NewRun creates a pending run for the given date
func NewRun(date time.Time, action string) *Run {
	return &Run{
		ID:      uuid.NewString(),
		Date:    date,
		Action:  action,
		State:   StatePending,
		Sources: make(map[string]*SourceResult),
		Tables:  make(map[string]*TableResult),
	}
}

// Succeeded reports whether the run reached its terminal state
func (r *Run) Succeeded() bool {
	return r.State == StateCommandsEmitted && r.Err == nil
}

// FailedTables returns the names of target tables that dropped out
func (r *Run) FailedTables() []string {
	var failed []string
	for _, name := range targetOrder {
		if res, ok := r.Tables[name]; ok && res.Failed() {
			failed = append(failed, name)
		}
	}
	return failed
}

// UploadedTables returns the target tables whose files reached the store,
// in load order.
func (r *Run) UploadedTables() []string {
	var uploaded []string
	for _, name := range targetOrder {
		if res, ok := r.Tables[name]; ok && res.Uploaded {
			uploaded = append(uploaded, name)
		}
	}
	return uploaded
}

// RowCounts returns staged row counts per uploaded target table
func (r *Run) RowCounts() map[string]int {
	counts := make(map[string]int, len(r.Tables))
	for name, res := range r.Tables {
		if res.Uploaded {
			counts[name] = res.Staged
		}
	}
	return counts
}

func (r *Run) table(name string) *TableResult {
	if res, ok := r.Tables[name]; ok {
		return res
	}
	res := &TableResult{Table: name}
	r.Tables[name] = res
	return res
}
