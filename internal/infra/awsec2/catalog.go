package awsec2

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"capacity-manager/internal/domain"
)

// CatalogConfig bounds the forward window offerings are searched in.
type CatalogConfig struct {
	// StartBuffer excludes offerings starting sooner than now+buffer;
	// they are not actionable.
	StartBuffer time.Duration
	// Horizon excludes offerings starting beyond now+horizon.
	Horizon time.Duration
	// InstanceCount is the capacity requested per block.
	InstanceCount int32
}

// Catalog implements domain.OfferingCatalog on EC2 capacity block offerings.
type Catalog struct {
	api    DescribeOfferingsAPI
	cb     *gobreaker.CircuitBreaker[*ec2.DescribeCapacityBlockOfferingsOutput]
	cfg    CatalogConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewCatalog creates an offering catalog.
func NewCatalog(api DescribeOfferingsAPI, cfg CatalogConfig, breaker BreakerConfig, logger *zap.Logger) *Catalog {
	return &Catalog{
		api:    api,
		cb:     newBreaker[*ec2.DescribeCapacityBlockOfferingsOutput]("offering-catalog", breaker),
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// List returns purchasable offerings for the class and duration inside
// [now+buffer, now+horizon]. The provider cannot filter by zone server-side,
// so a non-empty zone is matched exactly client-side. An empty result with a
// nil error means nothing is purchasable right now.
func (c *Catalog) List(ctx context.Context, resourceClass string, durationHours int32, zone string) ([]domain.Offering, error) {
	now := c.now().UTC()
	windowStart := now.Add(c.cfg.StartBuffer)
	windowEnd := now.Add(c.cfg.Horizon)

	var (
		offerings []domain.Offering
		nextToken *string
	)
	for {
		in := &ec2.DescribeCapacityBlockOfferingsInput{
			CapacityDurationHours: aws.Int32(durationHours),
			InstanceCount:         aws.Int32(c.cfg.InstanceCount),
			InstanceType:          aws.String(resourceClass),
			StartDateRange:        aws.Time(windowStart),
			EndDateRange:          aws.Time(windowEnd),
			NextToken:             nextToken,
		}

		out, err := c.cb.Execute(func() (*ec2.DescribeCapacityBlockOfferingsOutput, error) {
			return c.api.DescribeCapacityBlockOfferings(ctx, in)
		})
		if err != nil {
			c.logger.Warn("describe capacity block offerings failed",
				zap.String("resource_class", resourceClass),
				zap.String("error_code", apiErrorCode(err)),
				zap.String("breaker_state", c.cb.State().String()),
				zap.Error(err),
			)

			return nil, fmt.Errorf("%w: describing offerings for %s: %v", domain.ErrDiscovery, resourceClass, err)
		}

		for _, o := range out.CapacityBlockOfferings {
			offering := offeringFromAPI(o)
			if zone != "" && offering.Zone != zone {
				continue
			}
			if offering.DurationHours != durationHours {
				continue
			}
			offerings = append(offerings, offering)
		}

		nextToken = out.NextToken
		if nextToken == nil {
			break
		}
	}

	c.logger.Debug("capacity block offerings found",
		zap.String("resource_class", resourceClass),
		zap.String("zone", zoneOrAll(zone)),
		zap.Int32("duration_hours", durationHours),
		zap.Int("count", len(offerings)),
	)

	return offerings, nil
}
