package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/vendor"
)

// SearchService resolves free text to vendor property tokens for onboarding
// competitors.  Vendor calls are charged to the system budget.
type SearchService struct {
	client   HotelSearcher
	cache    SearchCache
	quota    *QuotaService
	defaults SearchDefaults
	log      logrus.FieldLogger
}

func NewSearchService(client HotelSearcher, cache SearchCache, quota *QuotaService, defaults SearchDefaults, log logrus.FieldLogger) *SearchService {
	return &SearchService{client: client, cache: cache, quota: quota, defaults: defaults, log: log.WithField("component", "search")}
}

// Search returns candidate hotels for q.
func (s *SearchService) Search(ctx context.Context, q string) ([]vendor.Hotel, error) {
	query := strings.ToLower(strings.Join(strings.Fields(q), " "))
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if hotels, ok := s.cache.Get(ctx, query); ok {
		return hotels, nil
	}
	if err := s.quota.CheckSystemBudget(ctx); err != nil {
		return nil, err
	}

	hotels, err := s.client.SearchHotels(ctx, query, s.defaults.Locale, s.defaults.Region)
	if !errors.Is(err, vendor.ErrNotDispatched) {
		if rerr := s.quota.RecordSystemCall(ctx); rerr != nil {
			s.log.WithError(rerr).Error("record system usage")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("hotel search: %w", err)
	}
	if hotels == nil {
		hotels = []vendor.Hotel{}
	}
	s.cache.Set(ctx, query, hotels)
	return hotels, nil
}
