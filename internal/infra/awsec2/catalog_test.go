package awsec2

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"capacity-manager/internal/domain"
)

type describeOfferingsFunc func(context.Context, *ec2.DescribeCapacityBlockOfferingsInput, ...func(*ec2.Options)) (*ec2.DescribeCapacityBlockOfferingsOutput, error)

func (f describeOfferingsFunc) DescribeCapacityBlockOfferings(
	ctx context.Context,
	in *ec2.DescribeCapacityBlockOfferingsInput,
	opts ...func(*ec2.Options),
) (*ec2.DescribeCapacityBlockOfferingsOutput, error) {
	return f(ctx, in, opts...)
}

func testCatalogConfig() CatalogConfig {
	return CatalogConfig{
		StartBuffer:   30 * time.Minute,
		Horizon:       14 * 24 * time.Hour,
		InstanceCount: 1,
	}
}

func testOffering(id, zone string, start time.Time, durationHours int32) types.CapacityBlockOffering {
	return types.CapacityBlockOffering{
		CapacityBlockOfferingId:    aws.String(id),
		InstanceType:               aws.String("p6-b200.48xlarge"),
		AvailabilityZone:           aws.String(zone),
		InstanceCount:              aws.Int32(1),
		StartDate:                  aws.Time(start),
		EndDate:                    aws.Time(start.Add(time.Duration(durationHours) * time.Hour)),
		CapacityBlockDurationHours: aws.Int32(durationHours),
		UpfrontFee:                 aws.String("747.36"),
		CurrencyCode:               aws.String("USD"),
	}
}

func TestCatalog_List_WindowAndRequest(t *testing.T) {
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	var gotInput *ec2.DescribeCapacityBlockOfferingsInput
	api := describeOfferingsFunc(func(
		_ context.Context,
		in *ec2.DescribeCapacityBlockOfferingsInput,
		_ ...func(*ec2.Options),
	) (*ec2.DescribeCapacityBlockOfferingsOutput, error) {
		gotInput = in
		return &ec2.DescribeCapacityBlockOfferingsOutput{
			CapacityBlockOfferings: []types.CapacityBlockOffering{
				testOffering("cbo-1", "us-east-1a", now.Add(24*time.Hour), 24),
			},
		}, nil
	})

	catalog := NewCatalog(api, testCatalogConfig(), testBreakerConfig(), zap.NewNop())
	catalog.now = func() time.Time { return now }

	offerings, err := catalog.List(context.Background(), "p6-b200.48xlarge", 24, "")
	require.NoError(t, err)
	require.Len(t, offerings, 1)

	assert.Equal(t, "cbo-1", offerings[0].OfferingID)
	assert.Equal(t, "us-east-1a", offerings[0].Zone)
	assert.Equal(t, int32(24), offerings[0].DurationHours)
	assert.Equal(t, "747.36", offerings[0].UpfrontFee)
	assert.Equal(t, "USD", offerings[0].Currency)

	// Window: offerings sooner than the buffer are not actionable, offerings
	// beyond the horizon are not useful for near-term planning.
	assert.Equal(t, now.Add(30*time.Minute), aws.ToTime(gotInput.StartDateRange))
	assert.Equal(t, now.Add(14*24*time.Hour), aws.ToTime(gotInput.EndDateRange))
	assert.Equal(t, "p6-b200.48xlarge", aws.ToString(gotInput.InstanceType))
	assert.Equal(t, int32(24), aws.ToInt32(gotInput.CapacityDurationHours))
	assert.Equal(t, int32(1), aws.ToInt32(gotInput.InstanceCount))
}

func TestCatalog_List_ZoneFilteredClientSide(t *testing.T) {
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	api := describeOfferingsFunc(func(
		_ context.Context,
		_ *ec2.DescribeCapacityBlockOfferingsInput,
		_ ...func(*ec2.Options),
	) (*ec2.DescribeCapacityBlockOfferingsOutput, error) {
		return &ec2.DescribeCapacityBlockOfferingsOutput{
			CapacityBlockOfferings: []types.CapacityBlockOffering{
				testOffering("cbo-a", "us-east-1a", now.Add(24*time.Hour), 24),
				testOffering("cbo-b", "us-east-1b", now.Add(24*time.Hour), 24),
				testOffering("cbo-a2", "us-east-1a", now.Add(48*time.Hour), 24),
			},
		}, nil
	})

	catalog := NewCatalog(api, testCatalogConfig(), testBreakerConfig(), zap.NewNop())
	catalog.now = func() time.Time { return now }

	offerings, err := catalog.List(context.Background(), "p6-b200.48xlarge", 24, "us-east-1a")
	require.NoError(t, err)
	require.Len(t, offerings, 2)
	assert.Equal(t, "cbo-a", offerings[0].OfferingID)
	assert.Equal(t, "cbo-a2", offerings[1].OfferingID)
}

func TestCatalog_List_DropsDurationMismatches(t *testing.T) {
	now := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	api := describeOfferingsFunc(func(
		_ context.Context,
		_ *ec2.DescribeCapacityBlockOfferingsInput,
		_ ...func(*ec2.Options),
	) (*ec2.DescribeCapacityBlockOfferingsOutput, error) {
		return &ec2.DescribeCapacityBlockOfferingsOutput{
			CapacityBlockOfferings: []types.CapacityBlockOffering{
				testOffering("cbo-24h", "us-east-1a", now.Add(24*time.Hour), 24),
				testOffering("cbo-48h", "us-east-1a", now.Add(24*time.Hour), 48),
			},
		}, nil
	})

	catalog := NewCatalog(api, testCatalogConfig(), testBreakerConfig(), zap.NewNop())
	catalog.now = func() time.Time { return now }

	offerings, err := catalog.List(context.Background(), "p6-b200.48xlarge", 24, "")
	require.NoError(t, err)
	require.Len(t, offerings, 1)
	assert.Equal(t, "cbo-24h", offerings[0].OfferingID)
}

func TestCatalog_List_EmptyIsNotAnError(t *testing.T) {
	api := describeOfferingsFunc(func(
		_ context.Context,
		_ *ec2.DescribeCapacityBlockOfferingsInput,
		_ ...func(*ec2.Options),
	) (*ec2.DescribeCapacityBlockOfferingsOutput, error) {
		return &ec2.DescribeCapacityBlockOfferingsOutput{}, nil
	})

	catalog := NewCatalog(api, testCatalogConfig(), testBreakerConfig(), zap.NewNop())

	offerings, err := catalog.List(context.Background(), "p6-b200.48xlarge", 24, "")
	require.NoError(t, err)
	assert.Empty(t, offerings, "nothing purchasable right now is a legitimate state")
}

func TestCatalog_List_QueryFailure(t *testing.T) {
	api := describeOfferingsFunc(func(
		_ context.Context,
		_ *ec2.DescribeCapacityBlockOfferingsInput,
		_ ...func(*ec2.Options),
	) (*ec2.DescribeCapacityBlockOfferingsOutput, error) {
		return nil, errors.New("InternalError")
	})

	catalog := NewCatalog(api, testCatalogConfig(), testBreakerConfig(), zap.NewNop())

	offerings, err := catalog.List(context.Background(), "p6-b200.48xlarge", 24, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDiscovery)
	assert.Empty(t, offerings)
}
