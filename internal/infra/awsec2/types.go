package awsec2

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"capacity-manager/internal/domain"
)

// blockFromReservation converts a provider reservation to the domain entity.
func blockFromReservation(cr types.CapacityReservation) domain.CapacityBlock {
	block := domain.CapacityBlock{
		ReservationID:  aws.ToString(cr.CapacityReservationId),
		ResourceClass:  aws.ToString(cr.InstanceType),
		Zone:           aws.ToString(cr.AvailabilityZone),
		State:          domain.ParseBlockState(string(cr.State)),
		AvailableCount: aws.ToInt32(cr.AvailableInstanceCount),
		TotalCount:     aws.ToInt32(cr.TotalInstanceCount),
	}

	if cr.StartDate != nil {
		block.StartAt = *cr.StartDate
	}
	if cr.EndDate != nil {
		block.EndAt = *cr.EndDate
	}

	return block
}

// offeringFromAPI converts a provider offering to the domain entity.
func offeringFromAPI(o types.CapacityBlockOffering) domain.Offering {
	offering := domain.Offering{
		OfferingID:    aws.ToString(o.CapacityBlockOfferingId),
		ResourceClass: aws.ToString(o.InstanceType),
		Zone:          aws.ToString(o.AvailabilityZone),
		InstanceCount: aws.ToInt32(o.InstanceCount),
		DurationHours: aws.ToInt32(o.CapacityBlockDurationHours),
		UpfrontFee:    aws.ToString(o.UpfrontFee),
		Currency:      aws.ToString(o.CurrencyCode),
	}

	if o.StartDate != nil {
		offering.StartAt = *o.StartDate
	}
	if o.EndDate != nil {
		offering.EndAt = *o.EndDate
	}

	return offering
}
