package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// TenantID returns the authenticated tenant of the request.
func TenantID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ContextTenantID).(uint64)
	return id, ok
}

// clientKey identifies the caller for rate limiting and response caching:
// the tenant when authenticated, the client IP otherwise.
func clientKey(c echo.Context) string {
	if id, ok := TenantID(c); ok {
		return "tenant:" + strconv.FormatUint(id, 10)
	}
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
