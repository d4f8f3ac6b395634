package awsec2

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"go.uber.org/zap"

	"capacity-manager/internal/domain"
)

// Purchaser implements domain.CapacityPurchaser. Each purchased block is
// tagged with ownership metadata so the fleet tooling can find its own
// reservations.
type Purchaser struct {
	api    PurchaseAPI
	tags   map[string]string
	logger *zap.Logger
}

// NewPurchaser creates a capacity purchaser. tags are applied to every
// reservation created by it.
func NewPurchaser(api PurchaseAPI, tags map[string]string, logger *zap.Logger) *Purchaser {
	return &Purchaser{
		api:    api,
		tags:   tags,
		logger: logger,
	}
}

// Purchase submits the acquisition of offeringID and returns the reservation
// the provider created. No retry: the caller owns the purchase lease and the
// operation has real monetary cost.
func (p *Purchaser) Purchase(ctx context.Context, offeringID string) (*domain.CapacityBlock, error) {
	in := &ec2.PurchaseCapacityBlockInput{
		CapacityBlockOfferingId: aws.String(offeringID),
		InstancePlatform:        types.CapacityReservationInstancePlatformLinuxUnix,
	}
	if len(p.tags) > 0 {
		spec := types.TagSpecification{
			ResourceType: types.ResourceTypeCapacityReservation,
		}
		for key, value := range p.tags {
			spec.Tags = append(spec.Tags, types.Tag{
				Key:   aws.String(key),
				Value: aws.String(value),
			})
		}
		in.TagSpecifications = []types.TagSpecification{spec}
	}

	out, err := p.api.PurchaseCapacityBlock(ctx, in)
	if err != nil {
		p.logger.Error("capacity block purchase failed",
			zap.String("offering_id", offeringID),
			zap.String("error_code", apiErrorCode(err)),
			zap.Error(err),
		)

		return nil, fmt.Errorf("%w: purchasing offering %s: %v", domain.ErrAcquisition, offeringID, err)
	}
	if out.CapacityReservation == nil {
		return nil, fmt.Errorf("%w: provider returned no reservation for offering %s", domain.ErrAcquisition, offeringID)
	}

	block := blockFromReservation(*out.CapacityReservation)

	p.logger.Info("capacity block purchased",
		zap.String("offering_id", offeringID),
		zap.String("reservation_id", block.ReservationID),
		zap.String("resource_class", block.ResourceClass),
		zap.String("zone", block.Zone),
	)

	return &block, nil
}
