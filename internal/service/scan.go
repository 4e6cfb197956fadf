package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/metrics"
	"github.com/iliyamo/rateshop/internal/model"
	"github.com/iliyamo/rateshop/internal/repository"
	"github.com/iliyamo/rateshop/internal/swr"
)

// ScanRequest is a tenant's ask to refresh one competitor for one horizon.
type ScanRequest struct {
	TenantID      uint64
	PropertyToken string
	OffsetDays    int
}

// ScanResult is returned to the caller.  Status is COMPLETED, COALESCED or
// FAILED.
type ScanResult struct {
	RequestID      string              `json:"request_id"`
	Status         model.RequestStatus `json:"status"`
	Message        string              `json:"message"`
	CreditConsumed bool                `json:"credit_consumed"`
	CoalescedWith  string              `json:"coalesced_with,omitempty"`
}

// ScanService serves manual scans.
type ScanService struct {
	competitors CompetitorStore
	cache       CacheStore
	requests    RequestStore
	quota       *QuotaService
	refresh     *Orchestrator
	defaults    SearchDefaults
	clock       Clock
	log         logrus.FieldLogger
	newID       func() string
}

func NewScanService(competitors CompetitorStore, cache CacheStore, requests RequestStore, quota *QuotaService, refresh *Orchestrator, defaults SearchDefaults, clock Clock, log logrus.FieldLogger) *ScanService {
	return &ScanService{
		competitors: competitors,
		cache:       cache,
		requests:    requests,
		quota:       quota,
		refresh:     refresh,
		defaults:    defaults,
		clock:       clock,
		log:         log.WithField("component", "scan"),
		newID:       func() string { return uuid.NewString() },
	}
}

// ManualScan runs one manual scan.  The daily scan cap is checked before a
// request row exists, so rejected asks are not counted.  Every accepted ask
// is recorded, including those served from cache or coalesced.  Tenant quota
// and system budget rejections are returned as errors after the request is
// marked FAILED; a vendor failure is a FAILED result with a nil error.
func (s *ScanService) ManualScan(ctx context.Context, in ScanRequest) (ScanResult, error) {
	if !swr.IsSupportedOffset(in.OffsetDays) {
		return ScanResult{}, fmt.Errorf("%w: %d", ErrUnsupportedOffset, in.OffsetDays)
	}
	if _, err := s.competitors.GetActiveByToken(ctx, in.TenantID, in.PropertyToken); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ScanResult{}, ErrCompetitorNotFound
		}
		return ScanResult{}, fmt.Errorf("load competitor: %w", err)
	}
	if err := s.quota.CheckManualScanLimit(ctx, in.TenantID); err != nil {
		return ScanResult{}, err
	}

	checkIn := s.clock.CheckIn(in.OffsetDays)
	params := s.defaults.Params(in.PropertyToken, checkIn)
	key := params.Key()
	req := model.RateShopRequest{
		ID:            s.newID(),
		TenantID:      in.TenantID,
		CacheKey:      key,
		PropertyToken: params.PropertyToken,
		OffsetDays:    in.OffsetDays,
		Status:        model.RequestPending,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return ScanResult{}, fmt.Errorf("create request: %w", err)
	}
	log := s.log.WithFields(logrus.Fields{"tenant_id": in.TenantID, "request_id": req.ID, "cache_key": key})

	entry, err := s.entry(ctx, key)
	if err != nil {
		return s.finish(ctx, req, model.RequestFailed, "cache unavailable", nil, false), err
	}
	status := swr.Status(entry, s.clock.Now())
	metrics.CacheReads.WithLabelValues(string(status)).Inc()

	switch status {
	case model.CacheFresh:
		return s.finish(ctx, req, model.RequestCompleted, "served from cache", nil, false), nil
	case model.CacheRefreshing:
		return s.finish(ctx, req, model.RequestCoalesced, "refresh already in progress", entry.RefreshingRequestID, false), nil
	case model.CacheFailed:
		msg := "vendor backoff in effect"
		if entry.BackoffUntil != nil {
			msg = fmt.Sprintf("vendor backoff until %s", entry.BackoffUntil.UTC().Format("2006-01-02T15:04:05Z"))
		}
		return s.finish(ctx, req, model.RequestFailed, msg, nil, false), nil
	}

	if err := s.quota.CheckTenantQuota(ctx, in.TenantID); err != nil {
		return s.finish(ctx, req, model.RequestFailed, err.Error(), nil, false), err
	}
	if err := s.quota.CheckSystemBudget(ctx); err != nil {
		return s.finish(ctx, req, model.RequestFailed, err.Error(), nil, false), err
	}

	if entry == nil {
		if err := s.cache.Ensure(ctx, model.CacheEntry{
			CacheKey:      key,
			PropertyToken: params.PropertyToken,
			CheckInDate:   checkIn,
			CheckOutDate:  checkIn.AddDate(0, 0, params.LengthOfStay()),
			OffsetDays:    in.OffsetDays,
			Adults:        params.Adults,
		}); err != nil {
			return s.finish(ctx, req, model.RequestFailed, "cache unavailable", nil, false), fmt.Errorf("ensure cache entry: %w", err)
		}
	}

	tenantID := in.TenantID
	res, err := s.refresh.ExecuteRefresh(ctx, key, params, &tenantID, req.ID)
	switch {
	case errors.Is(err, ErrRefreshInProgress):
		var holder *string
		if current, gerr := s.entry(ctx, key); gerr == nil && current != nil {
			holder = current.RefreshingRequestID
		}
		return s.finish(ctx, req, model.RequestCoalesced, "refresh already in progress", holder, false), nil
	case err != nil:
		log.WithError(err).Warn("manual refresh failed")
		return s.finish(ctx, req, model.RequestFailed, res.ErrorMessage, nil, res.CreditConsumed), nil
	}
	msg := fmt.Sprintf("refreshed %d rates for %d competitors", res.RatesCount, res.Competitors)
	return s.finish(ctx, req, model.RequestCompleted, msg, nil, res.CreditConsumed), nil
}

func (s *ScanService) entry(ctx context.Context, key string) (*model.CacheEntry, error) {
	e, err := s.cache.Get(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cache entry: %w", err)
	}
	return e, nil
}

// finish records the outcome.  A failed write is logged; the caller still
// gets the outcome.
func (s *ScanService) finish(ctx context.Context, req model.RateShopRequest, status model.RequestStatus, msg string, coalescedWith *string, credit bool) ScanResult {
	req.Status = status
	req.Message = msg
	req.CoalescedWith = coalescedWith
	req.CreditConsumed = credit
	req.UpdatedAt = s.clock.Now()
	if err := s.requests.Finish(ctx, req); err != nil {
		s.log.WithError(err).WithField("request_id", req.ID).Error("record request outcome")
	}
	res := ScanResult{RequestID: req.ID, Status: status, Message: msg, CreditConsumed: credit}
	if coalescedWith != nil {
		res.CoalescedWith = *coalescedWith
	}
	return res
}
