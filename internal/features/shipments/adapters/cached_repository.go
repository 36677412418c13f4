package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"freightdesk/internal/core/cache"
	"freightdesk/internal/core/logger"
	"freightdesk/internal/features/shipments/domain"
	"freightdesk/internal/features/shipments/ports"

	"go.uber.org/zap"
)

const shipmentKeyPrefix = "shipment:"

// CachedRepository is a read-through cache in front of another repository.
// Single-shipment reads are cached; writes invalidate. Cache failures only
// cost a trip to the store.
type CachedRepository struct {
	ports.ShipmentRepository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedRepository wraps next with a cache.
func NewCachedRepository(next ports.ShipmentRepository, c cache.Cache, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		ShipmentRepository: next,
		cache:              c,
		ttl:                ttl,
	}
}

// Get returns the shipment from the cache, loading it on a miss.
func (r *CachedRepository) Get(ctx context.Context, id string) (*domain.Shipment, error) {
	data, err := r.cache.Get(ctx, shipmentKeyPrefix+id)
	if err == nil {
		var s domain.Shipment
		if err := json.Unmarshal(data, &s); err == nil {
			return &s, nil
		}
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Named("shipments").Warn("Shipment cache read failed", zap.String("id", id), zap.Error(err))
	}

	s, err := r.ShipmentRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, s)
	return s, nil
}

// Update writes through and drops the cached copy.
func (r *CachedRepository) Update(ctx context.Context, s *domain.Shipment) error {
	if err := r.ShipmentRepository.Update(ctx, s); err != nil {
		return err
	}
	r.invalidate(ctx, s.ID)
	return nil
}

// AppendDocument writes through and drops the cached copy.
func (r *CachedRepository) AppendDocument(ctx context.Context, id string, doc domain.Document) (*domain.Shipment, error) {
	s, err := r.ShipmentRepository.AppendDocument(ctx, id, doc)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, id)
	return s, nil
}

// Create writes through and drops any stale cached copy.
func (r *CachedRepository) Create(ctx context.Context, s *domain.Shipment) error {
	if err := r.ShipmentRepository.Create(ctx, s); err != nil {
		return err
	}
	r.invalidate(ctx, s.ID)
	return nil
}

func (r *CachedRepository) store(ctx context.Context, s *domain.Shipment) {
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, shipmentKeyPrefix+s.ID, data, r.ttl); err != nil {
		logger.Named("shipments").Warn("Shipment cache write failed", zap.String("id", s.ID), zap.Error(err))
	}
}

func (r *CachedRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, shipmentKeyPrefix+id); err != nil {
		logger.Named("shipments").Warn("Shipment cache invalidation failed",
			zap.String("id", id),
			zap.Error(fmt.Errorf("delete %s: %w", shipmentKeyPrefix+id, err)),
		)
	}
}
