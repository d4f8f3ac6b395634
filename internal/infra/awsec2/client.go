// Package awsec2 implements the provider-facing components (reservation
// directory, offering catalog, purchaser and zone lookup) on the EC2 API.
package awsec2

import (
	"context"
	"errors"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker/v2"
)

// Each component depends on the narrowest API surface it uses, so tests can
// stub a single call with a func adapter instead of mocking *ec2.Client.

// DescribeReservationsAPI is the slice of the EC2 API the Directory uses.
type DescribeReservationsAPI interface {
	DescribeCapacityReservations(ctx context.Context, in *ec2.DescribeCapacityReservationsInput, opts ...func(*ec2.Options)) (*ec2.DescribeCapacityReservationsOutput, error)
}

// DescribeOfferingsAPI is the slice of the EC2 API the Catalog uses.
type DescribeOfferingsAPI interface {
	DescribeCapacityBlockOfferings(ctx context.Context, in *ec2.DescribeCapacityBlockOfferingsInput, opts ...func(*ec2.Options)) (*ec2.DescribeCapacityBlockOfferingsOutput, error)
}

// PurchaseAPI is the slice of the EC2 API the Purchaser uses.
type PurchaseAPI interface {
	PurchaseCapacityBlock(ctx context.Context, in *ec2.PurchaseCapacityBlockInput, opts ...func(*ec2.Options)) (*ec2.PurchaseCapacityBlockOutput, error)
}

// DescribeSubnetsAPI is the slice of the EC2 API the ZoneLookup uses.
type DescribeSubnetsAPI interface {
	DescribeSubnets(ctx context.Context, in *ec2.DescribeSubnetsInput, opts ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
}

// NewClient builds an EC2 client from the default credential chain.
// *ec2.Client satisfies every API interface above.
func NewClient(ctx context.Context, region string) (*ec2.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return ec2.NewFromConfig(cfg), nil
}

// BreakerConfig holds circuit breaker settings for provider calls.
type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// newBreaker creates a circuit breaker for one provider call family.
// Read paths (describe calls) are wrapped; the purchase call is not: a
// mutation with real monetary cost must never be short-circuited into a
// misleading "provider down" answer after the lease is already held.
func newBreaker[T any](name string, cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= cfg.FailureRatio
		},
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}

// apiErrorCode extracts the provider's error code for logging.
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}

	return "unknown"
}
