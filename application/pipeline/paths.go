package pipeline

import (
	"fmt"
	"time"
)

// Object keys are partitioned by the run's year/month/day so repeated runs
// never overwrite prior runs' outputs and downstream consumers can
// reconstruct historical state.

func datePartition(date time.Time) string {
	return fmt.Sprintf("year=%04d/month=%02d/day=%02d", date.Year(), int(date.Month()), date.Day())
}

// DataKey is the staged CSV location for one target table
func DataKey(date time.Time, table string) string {
	return fmt.Sprintf("processed/unified/loyalty/%s/%s.csv", datePartition(date), table)
}

// RawKey is the raw-extract archive location for one source table
func RawKey(date time.Time, table string) string {
	return fmt.Sprintf("raw/dynamodb/%s/%s/data.json", table, datePartition(date))
}

// CopyCommandsKey is the emitted load-command file location
func CopyCommandsKey(date time.Time) string {
	return fmt.Sprintf("metadata/runs/loyalty/%s/copy_commands.sql", datePartition(date))
}

// ExecutionLogKey is the per-run execution log location
func ExecutionLogKey(date time.Time) string {
	return fmt.Sprintf("metadata/runs/loyalty/%s/execution_log.json", datePartition(date))
}
