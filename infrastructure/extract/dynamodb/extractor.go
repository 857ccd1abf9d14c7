package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"loyaltyetl/domain/loyalty"
	apperrors "loyaltyetl/pkg/errors"
)

// ScanAPI is the slice of the DynamoDB client the extractor uses
type ScanAPI interface {
	Scan(ctx context.Context, params *awsdynamodb.ScanInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.ScanOutput, error)
}

// Tables names the seven physical source tables
type Tables struct {
	Users        string
	Wallets      string
	Transactions string
	Referrals    string
	TierDetails  string
	Leads        string
	Withdrawals  string
}

// Extractor reads the loyalty source tables. Every read is a projected scan
// that follows LastEvaluatedKey until the table is exhausted, so callers
// always get the complete record set.
type Extractor struct {
	client ScanAPI
	tables Tables
	logger *zap.Logger
}

// NewExtractor creates an extractor over the given source tables
func NewExtractor(client ScanAPI, tables Tables, logger *zap.Logger) *Extractor {
	return &Extractor{
		client: client,
		tables: tables,
		logger: logger,
	}
}

// Users scans the user table
func (e *Extractor) Users(ctx context.Context) ([]loyalty.UserRecord, error) {
	return scanAll[loyalty.UserRecord](ctx, e, e.tables.Users, loyalty.UserProjection, nil)
}

// Wallets scans the wallet table
func (e *Extractor) Wallets(ctx context.Context) ([]loyalty.WalletRecord, error) {
	return scanAll[loyalty.WalletRecord](ctx, e, e.tables.Wallets, loyalty.WalletProjection, nil)
}

// TierDetails scans the tier details table
func (e *Extractor) TierDetails(ctx context.Context) ([]loyalty.TierDetailRecord, error) {
	return scanAll[loyalty.TierDetailRecord](ctx, e, e.tables.TierDetails, loyalty.TierDetailProjection, nil)
}

// Transactions scans the wallet transaction ledger, optionally bounded below
// by creation time.
func (e *Extractor) Transactions(ctx context.Context, since *time.Time) ([]loyalty.WalletTransactionRecord, error) {
	return scanAll[loyalty.WalletTransactionRecord](ctx, e, e.tables.Transactions, loyalty.WalletTransactionProjection, since)
}

// Referrals scans the tier referral table, optionally bounded below by
// creation time.
func (e *Extractor) Referrals(ctx context.Context, since *time.Time) ([]loyalty.TierReferralRecord, error) {
	return scanAll[loyalty.TierReferralRecord](ctx, e, e.tables.Referrals, loyalty.TierReferralProjection, since)
}

// Leads scans the lead table, optionally bounded below by creation time
func (e *Extractor) Leads(ctx context.Context, since *time.Time) ([]loyalty.LeadRecord, error) {
	return scanAll[loyalty.LeadRecord](ctx, e, e.tables.Leads, loyalty.LeadProjection, since)
}

// Withdrawals scans the withdrawal table, optionally bounded below by
// creation time.
func (e *Extractor) Withdrawals(ctx context.Context, since *time.Time) ([]loyalty.WithdrawalRecord, error) {
	return scanAll[loyalty.WithdrawalRecord](ctx, e, e.tables.Withdrawals, loyalty.WithdrawalProjection, since)
}

// scanAll runs a projected scan over one table and unmarshals every page.
// The since bound filters on the source's epoch-millisecond created_time.
func scanAll[T any](ctx context.Context, e *Extractor, table string, projection []string, since *time.Time) ([]T, error) {
	if table == "" {
		return nil, apperrors.NewExtractionError(table, fmt.Errorf("source table name not configured"))
	}

	expr, err := buildScanExpression(projection, since)
	if err != nil {
		return nil, apperrors.NewExtractionError(table, fmt.Errorf("failed to build scan expression: %w", err))
	}

	input := &awsdynamodb.ScanInput{
		TableName:                 &table,
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		FilterExpression:          expr.Filter(),
	}

	var records []T
	pages := 0

	// Handle pagination
	for {
		result, err := e.client.Scan(ctx, input)
		if err != nil {
			return nil, apperrors.NewExtractionError(table, fmt.Errorf("scan failed: %w", err))
		}
		pages++

		var page []T
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, apperrors.NewExtractionError(table, fmt.Errorf("failed to unmarshal scan page: %w", err))
		}
		records = append(records, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	e.logger.Debug("Source table scanned",
		zap.String("table", table),
		zap.Int("records", len(records)),
		zap.Int("pages", pages),
	)
	return records, nil
}

func buildScanExpression(projection []string, since *time.Time) (expression.Expression, error) {
	names := make([]expression.NameBuilder, 0, len(projection)-1)
	for _, attr := range projection[1:] {
		names = append(names, expression.Name(attr))
	}
	builder := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name(projection[0]), names...))

	if since != nil {
		builder = builder.WithFilter(
			expression.Name("created_time").GreaterThanEqual(expression.Value(since.UnixMilli())))
	}

	return builder.Build()
}
