package loyalty

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

// Amount is a fixed-precision coin or currency quantity. It marshals to and
// from the DynamoDB number type without passing through float64, so the
// digits the source system stored are the digits the warehouse receives.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps a decimal as an Amount
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

// AmountFromFloat builds an Amount from a float64 value
func AmountFromFloat(f float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(f)}
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler
func (a Amount) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: a.Decimal.String()}, nil
}

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler
func (a *Amount) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		d, err := decimal.NewFromString(v.Value)
		if err != nil {
			return fmt.Errorf("failed to parse numeric attribute %q: %w", v.Value, err)
		}
		a.Decimal = d
		return nil
	case *types.AttributeValueMemberS:
		if v.Value == "" || v.Value == "None" {
			a.Decimal = decimal.Zero
			return nil
		}
		d, err := decimal.NewFromString(v.Value)
		if err != nil {
			return fmt.Errorf("failed to parse numeric attribute %q: %w", v.Value, err)
		}
		a.Decimal = d
		return nil
	case *types.AttributeValueMemberNULL:
		a.Decimal = decimal.Zero
		return nil
	default:
		return fmt.Errorf("unsupported attribute type %T for amount", av)
	}
}
