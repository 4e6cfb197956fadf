package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/model"
)

type Recommendations interface {
	List(ctx context.Context, tenantID uint64, status model.RecommendationStatus) ([]model.Recommendation, error)
	Accept(ctx context.Context, tenantID, id uint64) error
	Reject(ctx context.Context, tenantID, id uint64) error
}

type recommendationView struct {
	ID            uint64                     `json:"id"`
	CheckInDate   string                     `json:"check_in_date"`
	CurrentRate   int64                      `json:"current_rate"`
	SuggestedRate int64                      `json:"suggested_rate"`
	CompMedian    int64                      `json:"comp_median"`
	GapPct        float64                    `json:"gap_pct"`
	Tags          []string                   `json:"tags"`
	Status        model.RecommendationStatus `json:"status"`
	CreatedAt     time.Time                  `json:"created_at"`
	DecidedAt     *time.Time                 `json:"decided_at,omitempty"`
}

func toRecommendationView(r model.Recommendation) recommendationView {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return recommendationView{
		ID:            r.ID,
		CheckInDate:   r.CheckInDate.Format("2006-01-02"),
		CurrentRate:   r.CurrentRate,
		SuggestedRate: r.SuggestedRate,
		CompMedian:    r.CompMedian,
		GapPct:        r.GapPct,
		Tags:          tags,
		Status:        r.Status,
		CreatedAt:     r.CreatedAt,
		DecidedAt:     r.DecidedAt,
	}
}

var recommendationStatuses = map[model.RecommendationStatus]bool{
	model.RecommendationPending:  true,
	model.RecommendationAccepted: true,
	model.RecommendationRejected: true,
	model.RecommendationExpired:  true,
}

// RecommendationHandler serves the recommendation lifecycle.
type RecommendationHandler struct {
	recs Recommendations
	log  logrus.FieldLogger
}

func NewRecommendationHandler(recs Recommendations, log logrus.FieldLogger) *RecommendationHandler {
	return &RecommendationHandler{recs: recs, log: log.WithField("component", "http")}
}

// List handles GET /v1/recommendations?status=.  No status lists all.
func (h *RecommendationHandler) List(c echo.Context) error {
	tid, err := tenantID(c)
	if err != nil {
		return err
	}
	status := model.RecommendationStatus(strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))))
	if status != "" && !recommendationStatuses[status] {
		return badRequest(c, "unknown status")
	}
	recs, err := h.recs.List(c.Request().Context(), tid, status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]recommendationView, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecommendationView(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"recommendations": out})
}

// Accept handles POST /v1/recommendations/:id/accept.
func (h *RecommendationHandler) Accept(c echo.Context) error {
	return h.decide(c, h.recs.Accept, model.RecommendationAccepted)
}

// Reject handles POST /v1/recommendations/:id/reject.
func (h *RecommendationHandler) Reject(c echo.Context) error {
	return h.decide(c, h.recs.Reject, model.RecommendationRejected)
}

func (h *RecommendationHandler) decide(c echo.Context, fn func(context.Context, uint64, uint64) error, status model.RecommendationStatus) error {
	tid, err := tenantID(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return badRequest(c, "invalid recommendation id")
	}
	if err := fn(c.Request().Context(), tid, id); err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
}
