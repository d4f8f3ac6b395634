package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"capacity-manager/internal/domain"
)

// AuditStore implements domain.AuditStore: a best-effort durable note of each
// completed acquisition at <namespace>/active-cb/<reservationId>. Records are
// written for operator visibility only and never read back for decisions.
type AuditStore struct {
	client    *redis.Client
	logger    *zap.Logger
	namespace string
}

// NewAuditStore creates an audit store.
func NewAuditStore(client *redis.Client, logger *zap.Logger, namespace string) *AuditStore {
	return &AuditStore{
		client:    client,
		logger:    logger,
		namespace: namespace,
	}
}

// Record persists the acquisition note. No expiry: the record outlives the
// reservation so operators can reconstruct what was bought and when.
func (s *AuditStore) Record(ctx context.Context, rec domain.AuditRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding audit record: %w", err)
	}

	key := s.namespace + "/active-cb/" + rec.ReservationID
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("writing audit record %s: %w", key, err)
	}

	s.logger.Info("acquisition recorded",
		zap.String("reservation_id", rec.ReservationID),
		zap.String("resource_class", rec.ResourceClass),
		zap.String("zone", rec.Zone),
	)

	return nil
}
