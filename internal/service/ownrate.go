package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/rateshop/internal/model"
)

// ErrInvalidRate is returned for a non-positive own rate.
var ErrInvalidRate = errors.New("rate must be positive")

// OwnRateService records the tenant's own published rates.
type OwnRateService struct {
	rates OwnRateStore
	clock Clock
}

func NewOwnRateService(rates OwnRateStore, clock Clock) *OwnRateService {
	return &OwnRateService{rates: rates, clock: clock}
}

// Set stores the own rate for checkIn.
func (s *OwnRateService) Set(ctx context.Context, tenantID uint64, checkIn time.Time, rate int64) error {
	if rate <= 0 {
		return ErrInvalidRate
	}
	return s.rates.Upsert(ctx, model.OwnRate{
		TenantID:    tenantID,
		CheckInDate: checkIn,
		Rate:        rate,
		UpdatedAt:   s.clock.Now(),
	})
}
