package awsec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"capacity-manager/internal/domain"
)

// Directory implements domain.ReservationDirectory on EC2 capacity
// reservations.
type Directory struct {
	api    DescribeReservationsAPI
	cb     *gobreaker.CircuitBreaker[*ec2.DescribeCapacityReservationsOutput]
	logger *zap.Logger
}

// NewDirectory creates a reservation directory.
func NewDirectory(api DescribeReservationsAPI, cfg BreakerConfig, logger *zap.Logger) *Directory {
	return &Directory{
		api:    api,
		cb:     newBreaker[*ec2.DescribeCapacityReservationsOutput]("reservation-directory", cfg),
		logger: logger,
	}
}

// Find returns reservations for resourceClass in state active, pending or
// payment-pending, keeping only time-bound records. An empty zone searches
// across all zones, the form duplicate-purchase checks must use.
func (d *Directory) Find(ctx context.Context, resourceClass, zone string) ([]domain.CapacityBlock, error) {
	filters := []types.Filter{
		{
			Name:   aws.String("instance-type"),
			Values: []string{resourceClass},
		},
		{
			Name: aws.String("state"),
			Values: []string{
				string(domain.StateActive),
				string(domain.StatePending),
				string(domain.StatePaymentPending),
			},
		},
	}
	if zone != "" {
		filters = append(filters, types.Filter{
			Name:   aws.String("availability-zone"),
			Values: []string{zone},
		})
	}

	var (
		blocks    []domain.CapacityBlock
		nextToken *string
	)
	for {
		in := &ec2.DescribeCapacityReservationsInput{
			Filters:   filters,
			NextToken: nextToken,
		}

		out, err := d.cb.Execute(func() (*ec2.DescribeCapacityReservationsOutput, error) {
			return d.api.DescribeCapacityReservations(ctx, in)
		})
		if err != nil {
			d.logger.Warn("describe capacity reservations failed",
				zap.String("resource_class", resourceClass),
				zap.String("error_code", apiErrorCode(err)),
				zap.String("breaker_state", d.cb.State().String()),
				zap.Error(err),
			)

			return nil, fmt.Errorf("%w: describing reservations for %s: %v", domain.ErrDiscovery, resourceClass, err)
		}

		for _, cr := range out.CapacityReservations {
			block := blockFromReservation(cr)
			// Open-ended reservations are not capacity blocks.
			if !block.IsTimeBound() {
				continue
			}
			blocks = append(blocks, block)
		}

		nextToken = out.NextToken
		if nextToken == nil {
			break
		}
	}

	d.logger.Debug("capacity reservations found",
		zap.String("resource_class", resourceClass),
		zap.String("zone", zoneOrAll(zone)),
		zap.Int("count", len(blocks)),
	)

	return blocks, nil
}

func zoneOrAll(zone string) string {
	if zone == "" {
		return "all"
	}
	return zone
}
