package redshift

import (
	"fmt"
	"strings"
	"time"

	"loyaltyetl/application/pipeline"
	"loyaltyetl/domain/loyalty"
)

// Emitter renders warehouse load statements for staged CSV files. The
// statements are written out as data for a separately-privileged load step;
// this process never holds warehouse credentials and never executes them.
type Emitter struct {
	bucket  string
	iamRole string
	schema  string
}

// NewEmitter creates an emitter for one bucket, IAM role and target schema
func NewEmitter(bucket, iamRole, schema string) *Emitter {
	return &Emitter{
		bucket:  bucket,
		iamRole: iamRole,
		schema:  schema,
	}
}

// Commands renders the truncate-and-copy statement pair for each table, in
// the given order. Each COPY names its columns explicitly so the file and
// table schemas stay pinned to each other.
func (e *Emitter) Commands(date time.Time, tables []string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("-- loyalty warehouse load for %s\n", date.Format(loyalty.DayLayout)))

	for _, table := range tables {
		columns := append([]string{}, loyalty.WarehouseColumns[table]...)
		columns = append(columns, loyalty.LoadTimestampColumn)

		b.WriteString(fmt.Sprintf("TRUNCATE TABLE %s.%s;\n", e.schema, table))
		b.WriteString(fmt.Sprintf(
			"COPY %s.%s (%s) FROM 's3://%s/%s' IAM_ROLE '%s' CSV IGNOREHEADER 1 BLANKSASNULL EMPTYASNULL TIMEFORMAT 'YYYY-MM-DDTHH:MI:SS';\n",
			e.schema, table,
			strings.Join(columns, ", "),
			e.bucket, pipeline.DataKey(date, table),
			e.iamRole,
		))
	}

	return b.String()
}
