package awsec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"go.uber.org/zap"
)

// ZoneLookup implements domain.ZoneLookup: when no zone is configured or
// requested, derive a preferred one from where the fleet's network already
// lives. Best-effort; callers fall back to all zones on error.
type ZoneLookup struct {
	api    DescribeSubnetsAPI
	vpcID  string
	logger *zap.Logger
}

// NewZoneLookup creates a zone lookup scoped to vpcID. An empty vpcID
// disables autodiscovery.
func NewZoneLookup(api DescribeSubnetsAPI, vpcID string, logger *zap.Logger) *ZoneLookup {
	return &ZoneLookup{
		api:    api,
		vpcID:  vpcID,
		logger: logger,
	}
}

// PreferredZone returns the availability zone of the fleet VPC's first
// subnet, or "" when autodiscovery is disabled or nothing is found.
func (z *ZoneLookup) PreferredZone(ctx context.Context) (string, error) {
	if z.vpcID == "" {
		return "", nil
	}

	out, err := z.api.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("vpc-id"),
				Values: []string{z.vpcID},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("describing subnets for %s: %w", z.vpcID, err)
	}
	if len(out.Subnets) == 0 {
		z.logger.Debug("no subnets found for zone autodiscovery",
			zap.String("vpc_id", z.vpcID),
		)
		return "", nil
	}

	zone := aws.ToString(out.Subnets[0].AvailabilityZone)

	z.logger.Debug("preferred zone autodiscovered",
		zap.String("vpc_id", z.vpcID),
		zap.String("zone", zone),
	)

	return zone, nil
}
