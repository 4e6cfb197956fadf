package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iliyamo/rateshop/internal/cachekey"
	"github.com/iliyamo/rateshop/internal/logger"
	"github.com/iliyamo/rateshop/internal/model"
	"github.com/iliyamo/rateshop/internal/queue"
	"github.com/iliyamo/rateshop/internal/repository"
	"github.com/iliyamo/rateshop/internal/swr"
	"github.com/iliyamo/rateshop/internal/vendor"
)

var testNow = time.Date(2026, 10, 15, 1, 0, 0, 0, time.UTC)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*model.CacheEntry
	// afterGet, when set, runs after every Get with the lock released.
	afterGet func()
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]*model.CacheEntry{}} }

func (f *fakeCache) put(e model.CacheEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[e.CacheKey] = &e
}

func (f *fakeCache) Get(_ context.Context, key string) (*model.CacheEntry, error) {
	f.mu.Lock()
	hook := f.afterGet
	e, ok := f.entries[key]
	var cp model.CacheEntry
	if ok {
		cp = *e
	}
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cp, nil
}

func (f *fakeCache) Ensure(_ context.Context, e model.CacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[e.CacheKey]; !ok {
		e.Status = model.CacheExpired
		f.entries[e.CacheKey] = &e
	}
	return nil
}

func (f *fakeCache) AcquireLock(_ context.Context, key, requestID string, now time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	if e.RefreshLockUntil != nil && !e.RefreshLockUntil.Before(now) {
		return false, nil
	}
	until := now.Add(swr.LockTTL)
	e.Status = model.CacheRefreshing
	e.RefreshLockUntil = &until
	e.RefreshingRequestID = nil
	if requestID != "" {
		id := requestID
		e.RefreshingRequestID = &id
	}
	return true, nil
}

func holder(e *model.CacheEntry) string {
	if e.RefreshingRequestID == nil {
		return ""
	}
	return *e.RefreshingRequestID
}

func (f *fakeCache) ReleaseSuccess(_ context.Context, key, requestID string, payload []byte, fetchedAt, expiresAt, staleUntil time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entries[key]
	if holder(e) != requestID {
		return repository.ErrLockLost
	}
	e.Status = model.CacheFresh
	e.FetchedAt, e.ExpiresAt, e.StaleUntil = &fetchedAt, &expiresAt, &staleUntil
	e.BackoffUntil, e.RefreshLockUntil, e.RefreshingRequestID = nil, nil, nil
	e.FailStreak = 0
	e.RawPayload = payload
	return nil
}

func (f *fakeCache) ReleaseFailure(_ context.Context, key, requestID string, now time.Time) (int, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.entries[key]
	if holder(e) != requestID {
		return 0, time.Time{}, repository.ErrLockLost
	}
	until := now.Add(swr.Backoff(e.FailStreak))
	e.FailStreak = swr.NextFailStreak(e.FailStreak)
	e.Status = model.CacheFailed
	e.BackoffUntil = &until
	e.RefreshLockUntil, e.RefreshingRequestID = nil, nil
	return e.FailStreak, until, nil
}

type fakeCompetitors struct {
	list []model.Competitor
}

func (f *fakeCompetitors) GetActiveByToken(_ context.Context, tenantID uint64, token string) (*model.Competitor, error) {
	for _, c := range f.list {
		if c.TenantID == tenantID && c.PropertyToken == token && c.IsActive {
			cp := c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCompetitors) ListActiveByToken(_ context.Context, token string) ([]model.Competitor, error) {
	var out []model.Competitor
	for _, c := range f.list {
		if c.PropertyToken == token && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCompetitors) ListActiveByTenant(_ context.Context, tenantID uint64) ([]model.Competitor, error) {
	var out []model.Competitor
	for _, c := range f.list {
		if c.TenantID == tenantID && c.IsActive {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeRates struct {
	mu       sync.Mutex
	rows     []model.CompetitorRate
	failFor  map[uint64]bool
	inserted int
}

func (f *fakeRates) InsertBatch(_ context.Context, rates []model.CompetitorRate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(rates) > 0 && f.failFor[rates[0].CompetitorID] {
		return errors.New("insert failed")
	}
	f.rows = append(f.rows, rates...)
	f.inserted += len(rates)
	return nil
}

func (f *fakeRates) LatestBatch(_ context.Context, competitorID uint64, cacheKey string) ([]model.CompetitorRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest time.Time
	for _, r := range f.rows {
		if r.CompetitorID == competitorID && r.CacheKey == cacheKey && r.ScrapedAt.After(latest) {
			latest = r.ScrapedAt
		}
	}
	var out []model.CompetitorRate
	for _, r := range f.rows {
		if r.CompetitorID == competitorID && r.CacheKey == cacheKey && r.ScrapedAt.Equal(latest) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRates) forCompetitor(id uint64) []model.CompetitorRate {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CompetitorRate
	for _, r := range f.rows {
		if r.CompetitorID == id {
			out = append(out, r)
		}
	}
	return out
}

type fakeRequests struct {
	mu    sync.Mutex
	order []string
	byID  map[string]model.RateShopRequest
}

func newFakeRequests() *fakeRequests { return &fakeRequests{byID: map[string]model.RateShopRequest{}} }

func (f *fakeRequests) Create(_ context.Context, req model.RateShopRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, req.ID)
	f.byID[req.ID] = req
	return nil
}

func (f *fakeRequests) Finish(_ context.Context, req model.RateShopRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[req.ID]; !ok {
		return repository.ErrNotFound
	}
	f.byID[req.ID] = req
	return nil
}

func (f *fakeRequests) CountSince(_ context.Context, tenantID uint64, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.byID {
		if r.TenantID == tenantID && !r.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeRequests) get(id string) model.RateShopRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

type fakeUsage struct {
	mu      sync.Mutex
	daily   map[string]int
	monthly map[string]int
}

func newFakeUsage() *fakeUsage { return &fakeUsage{daily: map[string]int{}, monthly: map[string]int{}} }

func monthKey(tenantID uint64, month string) string { return fmt.Sprintf("%d/%s", tenantID, month) }

func (f *fakeUsage) IncrementDaily(_ context.Context, day time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daily[day.Format(cachekey.DateLayout)]++
	return nil
}

func (f *fakeUsage) IncrementTenantMonthly(_ context.Context, tenantID uint64, month string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.monthly[monthKey(tenantID, month)]++
	return nil
}

func (f *fakeUsage) DailyCalls(_ context.Context, day time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.daily[day.Format(cachekey.DateLayout)], nil
}

func (f *fakeUsage) TenantMonthlyCalls(_ context.Context, tenantID uint64, month string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.monthly[monthKey(tenantID, month)], nil
}

type fakeOverrides map[uint64]int

func (f fakeOverrides) MonthlyQuota(_ context.Context, tenantID uint64) (int, bool, error) {
	q, ok := f[tenantID]
	return q, ok, nil
}

type fakeOwnRates struct {
	rates map[string]int64
}

func ownKey(tenantID uint64, d time.Time) string {
	return fmt.Sprintf("%d/%s", tenantID, d.Format(cachekey.DateLayout))
}

func (f *fakeOwnRates) Get(_ context.Context, tenantID uint64, checkIn time.Time) (*int64, error) {
	if r, ok := f.rates[ownKey(tenantID, checkIn)]; ok {
		return &r, nil
	}
	return nil, nil
}

func (f *fakeOwnRates) Upsert(_ context.Context, rate model.OwnRate) error {
	if f.rates == nil {
		f.rates = map[string]int64{}
	}
	f.rates[ownKey(rate.TenantID, rate.CheckInDate)] = rate.Rate
	return nil
}

// fakeSnapshots mirrors the flip-then-upsert statements of SnapshotRepo.
type fakeSnapshots struct {
	mu     sync.Mutex
	rows   []model.MarketSnapshot
	nextID uint64
}

func (f *fakeSnapshots) SaveLatest(_ context.Context, s model.MarketSnapshot) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	same := func(r model.MarketSnapshot) bool {
		return r.TenantID == s.TenantID && r.CheckInDate.Equal(s.CheckInDate) && r.LOS == s.LOS && r.Adults == s.Adults
	}
	for i := range f.rows {
		if same(f.rows[i]) {
			f.rows[i].IsLatest = false
		}
	}
	s.IsLatest = true
	for i := range f.rows {
		if same(f.rows[i]) && f.rows[i].SnapshotDate.Equal(s.SnapshotDate) {
			s.ID = f.rows[i].ID
			f.rows[i] = s
			return s.ID, nil
		}
	}
	f.nextID++
	s.ID = f.nextID
	f.rows = append(f.rows, s)
	return s.ID, nil
}

func (f *fakeSnapshots) ListLatest(_ context.Context, from time.Time) ([]model.MarketSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MarketSnapshot
	for _, r := range f.rows {
		if r.IsLatest && !r.CheckInDate.Before(from) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeRecommendations struct {
	mu   sync.Mutex
	rows []model.Recommendation
}

func (f *fakeRecommendations) Create(_ context.Context, rec model.Recommendation) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.SnapshotID == rec.SnapshotID {
			return false, nil
		}
	}
	rec.ID = uint64(len(f.rows) + 1)
	rec.Status = model.RecommendationPending
	for i := range f.rows {
		r := &f.rows[i]
		if r.TenantID == rec.TenantID && r.CheckInDate.Equal(rec.CheckInDate) && r.Status == model.RecommendationPending {
			r.Status = model.RecommendationExpired
		}
	}
	f.rows = append(f.rows, rec)
	return true, nil
}

func (f *fakeRecommendations) ListByTenant(_ context.Context, tenantID uint64, status model.RecommendationStatus) ([]model.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Recommendation
	for _, r := range f.rows {
		if r.TenantID == tenantID && (status == "" || r.Status == status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecommendations) Decide(_ context.Context, tenantID, id uint64, status model.RecommendationStatus, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID != id || f.rows[i].TenantID != tenantID {
			continue
		}
		if f.rows[i].Status != model.RecommendationPending {
			return repository.ErrConflict
		}
		f.rows[i].Status = status
		f.rows[i].DecidedAt = &now
		return nil
	}
	return repository.ErrNotFound
}

type fakeVendor struct {
	mu      sync.Mutex
	calls   int
	payload []byte
	err     error
	onCall  func(ctx context.Context)
}

func (f *fakeVendor) PropertyPricing(ctx context.Context, _ cachekey.CanonicalSearchParams) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	onCall := f.onCall
	f.mu.Unlock()
	if onCall != nil {
		onCall(ctx)
	}
	return f.payload, f.err
}

func (f *fakeVendor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSearcher struct {
	calls  int
	hotels []vendor.Hotel
	err    error
}

func (f *fakeSearcher) SearchHotels(_ context.Context, _, _, _ string) ([]vendor.Hotel, error) {
	f.calls++
	return f.hotels, f.err
}

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.RatesRefreshedEvent
}

func (f *fakePublisher) PublishRatesRefreshed(_ context.Context, ev queue.RatesRefreshedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

type staticSafeMode bool

func (s staticSafeMode) Enabled(context.Context) bool { return bool(s) }

const testPayload = `{
  "name": "Hotel A",
  "prices": [
    {"source": "agoda.com", "total_rate": {"extracted_before_taxes_fees": 100000, "extracted_lowest": 120000}},
    {"source": "Booking.com", "total_rate": {"extracted_lowest": 125000}}
  ]
}`

var testDefaults = SearchDefaults{
	Engine:   "google_hotels",
	Adults:   2,
	LOS:      1,
	Currency: "KRW",
	Locale:   "ko",
	Region:   "kr",
}

// harness wires the manual-scan path over fakes.  Tenants 1 and 2 both
// track tok-A; tenant 1 also tracks tok-B.
type harness struct {
	cache     *fakeCache
	comps     *fakeCompetitors
	rates     *fakeRates
	requests  *fakeRequests
	usage     *fakeUsage
	overrides fakeOverrides
	vendor    *fakeVendor
	events    *fakePublisher
	clock     Clock

	quota   *QuotaService
	refresh *Orchestrator
	scan    *ScanService
}

func newHarness(limits QuotaLimits, safe bool) *harness {
	h := &harness{
		cache: newFakeCache(),
		comps: &fakeCompetitors{list: []model.Competitor{
			{ID: 11, TenantID: 1, Name: "Hotel A", PropertyToken: "tok-A", IsActive: true},
			{ID: 12, TenantID: 1, Name: "Hotel B", PropertyToken: "tok-B", IsActive: true},
			{ID: 21, TenantID: 2, Name: "Hotel A", PropertyToken: "tok-A", IsActive: true},
		}},
		rates:     &fakeRates{failFor: map[uint64]bool{}},
		requests:  newFakeRequests(),
		usage:     newFakeUsage(),
		overrides: fakeOverrides{},
		vendor:    &fakeVendor{payload: []byte(testPayload)},
		events:    &fakePublisher{},
		clock:     NewClock(func() time.Time { return testNow }, time.UTC),
	}
	log := logger.Discard()
	h.quota = NewQuotaService(limits, h.requests, h.usage, h.overrides, staticSafeMode(safe), h.clock, log)
	h.refresh = NewOrchestrator(h.cache, h.comps, h.rates, h.vendor, h.quota, h.events, h.clock, log)
	h.scan = NewScanService(h.comps, h.cache, h.requests, h.quota, h.refresh, testDefaults, h.clock, log)
	var n atomic.Int64
	h.scan.newID = func() string {
		return fmt.Sprintf("req-%d", n.Add(1))
	}
	return h
}

func defaultLimits() QuotaLimits {
	return QuotaLimits{SystemDailyBudget: 500, TenantMonthlyQuota: 200, ManualScanDailyCap: 20}
}

func (h *harness) key(token string, offset int) (string, cachekey.CanonicalSearchParams) {
	p := testDefaults.Params(token, h.clock.CheckIn(offset))
	return p.Key(), p
}

// seed stores an entry for token/offset whose windows end at the given
// distances from testNow.
func (h *harness) seed(token string, offset int, expiresIn, staleIn time.Duration) string {
	key, p := h.key(token, offset)
	fetched := testNow.Add(-time.Hour)
	expires := testNow.Add(expiresIn)
	stale := testNow.Add(staleIn)
	h.cache.put(model.CacheEntry{
		CacheKey:      key,
		Status:        model.CacheFresh,
		PropertyToken: token,
		CheckInDate:   p.CheckInDate(),
		OffsetDays:    offset,
		Adults:        p.Adults,
		FetchedAt:     &fetched,
		ExpiresAt:     &expires,
		StaleUntil:    &stale,
	})
	return key
}

func ptr[T any](v T) *T { return &v }
