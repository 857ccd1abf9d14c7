package csvstage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"loyaltyetl/domain/loyalty"
	"loyaltyetl/pkg/utils"
)

// Stager serializes target table rows as CSV with a header row. Every data
// row is stamped with the load timestamp in the trailing column, which the
// warehouse uses to tell apart rows from different runs.
type Stager struct{}

// NewStager creates a CSV stager
func NewStager() *Stager {
	return &Stager{}
}

// Stage renders one table's rows. The header is the given columns plus the
// load timestamp column; output is deterministic for a fixed input and
// timestamp.
func (s *Stager) Stage(table string, columns []string, rows [][]string, loadedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(columns)+1)
	header = append(header, columns...)
	header = append(header, loyalty.LoadTimestampColumn)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header for %s: %w", table, err)
	}

	stamp := loadedAt.UTC().Format(utils.WarehouseTimeLayout)
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d of %s has %d values, want %d", i, table, len(row), len(columns))
		}
		record := make([]string, 0, len(row)+1)
		record = append(record, row...)
		record = append(record, stamp)
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write row %d of %s: %w", i, table, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush %s: %w", table, err)
	}
	return buf.Bytes(), nil
}
