package s3

import (
	"context"
	"errors"
	"io"
	"testing"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePutter struct {
	inputs []*awss3.PutObjectInput
	err    error
}

func (f *fakePutter) PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inputs = append(f.inputs, params)
	return &awss3.PutObjectOutput{}, nil
}

func TestPut_WritesObject(t *testing.T) {
	// Arrange
	putter := &fakePutter{}
	store := NewStore(putter, "loyalty-data-lake", zap.NewNop())

	// Act
	err := store.Put(context.Background(), "processed/unified/loyalty/year=2025/month=03/day=15/dim_tier.csv", "text/csv", []byte("tier_id\n"))

	// Assert
	require.NoError(t, err)
	require.Len(t, putter.inputs, 1)
	input := putter.inputs[0]
	assert.Equal(t, "loyalty-data-lake", *input.Bucket)
	assert.Equal(t, "processed/unified/loyalty/year=2025/month=03/day=15/dim_tier.csv", *input.Key)
	assert.Equal(t, "text/csv", *input.ContentType)

	body, err := io.ReadAll(input.Body)
	require.NoError(t, err)
	assert.Equal(t, "tier_id\n", string(body))
}

func TestPut_WrapsClientError(t *testing.T) {
	store := NewStore(&fakePutter{err: errors.New("access denied")}, "loyalty-data-lake", zap.NewNop())

	err := store.Put(context.Background(), "some/key", "text/plain", nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://loyalty-data-lake/some/key")
}
