package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/middleware"
	"github.com/iliyamo/rateshop/internal/repository"
	"github.com/iliyamo/rateshop/internal/service"
)

// errorStatus maps domain errors to an HTTP status and a stable error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrManualScanLimit):
		return http.StatusTooManyRequests, "manual_scan_limit"
	case errors.Is(err, service.ErrTenantQuotaExceeded):
		return http.StatusTooManyRequests, "tenant_quota_exceeded"
	case errors.Is(err, service.ErrSystemBudgetExhausted):
		return http.StatusServiceUnavailable, "system_budget_exhausted"
	case errors.Is(err, service.ErrSafeMode):
		return http.StatusServiceUnavailable, "safe_mode"
	case errors.Is(err, service.ErrSafeModeUnavailable):
		return http.StatusServiceUnavailable, "safe_mode_unavailable"
	case errors.Is(err, service.ErrUnsupportedOffset):
		return http.StatusBadRequest, "unsupported_offset"
	case errors.Is(err, service.ErrEmptyQuery):
		return http.StatusBadRequest, "empty_query"
	case errors.Is(err, service.ErrInvalidRate):
		return http.StatusBadRequest, "invalid_rate"
	case errors.Is(err, service.ErrCompetitorNotFound):
		return http.StatusNotFound, "competitor_not_found"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError renders err.  Unexpected errors are logged and their details
// are not exposed.
func writeError(c echo.Context, log logrus.FieldLogger, err error) error {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request().Method,
			"path":   c.Path(),
		}).Error("request failed")
		return c.JSON(status, echo.Map{"error": code, "message": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": code, "message": err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad_request", "message": msg})
}

// tenantID reads the tenant set by middleware.JWTAuth.
func tenantID(c echo.Context) (uint64, error) {
	id, ok := middleware.TenantID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}
