package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/service"
	"github.com/iliyamo/rateshop/internal/vendor"
)

type Scanner interface {
	ManualScan(ctx context.Context, in service.ScanRequest) (service.ScanResult, error)
}

type RatesViewer interface {
	RatesView(ctx context.Context, tenantID uint64, offsets []int) ([]service.DayView, error)
}

type HotelSearcher interface {
	Search(ctx context.Context, q string) ([]vendor.Hotel, error)
}

type UsageReporter interface {
	Summary(ctx context.Context, tenantID uint64) (service.UsageSummary, error)
}

type OwnRateSetter interface {
	Set(ctx context.Context, tenantID uint64, checkIn time.Time, rate int64) error
}

// TenantHandler serves the tenant-facing rate shopping endpoints.
type TenantHandler struct {
	scans    Scanner
	view     RatesViewer
	search   HotelSearcher
	usage    UsageReporter
	ownRates OwnRateSetter
	log      logrus.FieldLogger
}

func NewTenantHandler(scans Scanner, view RatesViewer, search HotelSearcher, usage UsageReporter, ownRates OwnRateSetter, log logrus.FieldLogger) *TenantHandler {
	return &TenantHandler{scans: scans, view: view, search: search, usage: usage, ownRates: ownRates, log: log.WithField("component", "http")}
}

type scanBody struct {
	CompetitorToken string `json:"competitor_token"`
	OffsetDays      *int   `json:"offset_days"`
}

// Scan handles POST /v1/scans.  Accepted scans answer 200 with the request
// outcome, including FAILED ones; quota rejections map to 429 or 503 and
// carry the request id when a request was recorded.
func (h *TenantHandler) Scan(c echo.Context) error {
	tid, err := tenantID(c)
	if err != nil {
		return err
	}
	var body scanBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	token := strings.TrimSpace(body.CompetitorToken)
	if token == "" || body.OffsetDays == nil {
		return badRequest(c, "competitor_token and offset_days are required")
	}

	res, err := h.scans.ManualScan(c.Request().Context(), service.ScanRequest{
		TenantID:      tid,
		PropertyToken: token,
		OffsetDays:    *body.OffsetDays,
	})
	if err != nil {
		if res.RequestID == "" {
			return writeError(c, h.log, err)
		}
		status, code := errorStatus(err)
		return c.JSON(status, echo.Map{"error": code, "message": err.Error(), "request_id": res.RequestID, "status": res.Status})
	}
	return c.JSON(http.StatusOK, res)
}

// Rates handles GET /v1/rates?offsets=1,7,14.  It never calls the vendor.
func (h *TenantHandler) Rates(c echo.Context) error {
	tid, err := tenantID(c)
	if err != nil {
		return err
	}
	offsets, err := parseOffsets(c.QueryParam("offsets"))
	if err != nil {
		return badRequest(c, "offsets must be a comma separated list of integers")
	}
	days, err := h.view.RatesView(c.Request().Context(), tid, offsets)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"days": days})
}

func parseOffsets(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// SearchHotels handles GET /v1/hotels/search?q=.
func (h *TenantHandler) SearchHotels(c echo.Context) error {
	if _, err := tenantID(c); err != nil {
		return err
	}
	hotels, err := h.search.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"hotels": hotels})
}

// Usage handles GET /v1/usage.
func (h *TenantHandler) Usage(c echo.Context) error {
	tid, err := tenantID(c)
	if err != nil {
		return err
	}
	s, err := h.usage.Summary(c.Request().Context(), tid)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, s)
}

type ownRateBody struct {
	CheckInDate string `json:"check_in_date"`
	Rate        int64  `json:"rate"`
}

// PutOwnRate handles PUT /v1/own-rates.
func (h *TenantHandler) PutOwnRate(c echo.Context) error {
	tid, err := tenantID(c)
	if err != nil {
		return err
	}
	var body ownRateBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	day, err := time.Parse("2006-01-02", body.CheckInDate)
	if err != nil {
		return badRequest(c, "check_in_date must be YYYY-MM-DD")
	}
	if err := h.ownRates.Set(c.Request().Context(), tid, day, body.Rate); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
