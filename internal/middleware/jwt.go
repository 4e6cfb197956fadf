package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	ContextTenantID = "tenant_id"
	ContextRole     = "role"
)

// JWTAuth validates a Bearer HS256 token and stores the tenant id (the
// "sub" claim) and the "role" claim in the request context.  Tokens whose
// subject is not a positive integer are rejected.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			tenantID, ok := subjectID(claims["sub"])
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}

			c.Set(ContextTenantID, tenantID)
			if role, ok := claims["role"].(string); ok {
				c.Set(ContextRole, role)
			}
			return next(c)
		}
	}
}

// subjectID accepts the subject as a JSON number or a decimal string.
func subjectID(v any) (uint64, bool) {
	switch s := v.(type) {
	case float64:
		if s < 1 || s != float64(uint64(s)) {
			return 0, false
		}
		return uint64(s), true
	case string:
		id, err := strconv.ParseUint(s, 10, 64)
		return id, err == nil && id > 0
	default:
		return 0, false
	}
}
