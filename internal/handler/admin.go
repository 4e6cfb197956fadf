package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type SafeModeSwitch interface {
	Enabled(ctx context.Context) bool
	Set(ctx context.Context, enabled bool) error
}

// AdminHandler exposes operator switches.  Routes are restricted to the
// ADMIN role.
type AdminHandler struct {
	safe SafeModeSwitch
	log  logrus.FieldLogger
}

func NewAdminHandler(safe SafeModeSwitch, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{safe: safe, log: log.WithField("component", "http")}
}

// SetSafeMode handles PUT /v1/admin/safe-mode {"enabled": bool}.  The
// response reports the effective state, which stays on while SAFE_MODE is
// configured.
func (h *AdminHandler) SetSafeMode(c echo.Context) error {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := c.Bind(&body); err != nil || body.Enabled == nil {
		return badRequest(c, "enabled is required")
	}
	ctx := c.Request().Context()
	if err := h.safe.Set(ctx, *body.Enabled); err != nil {
		return writeError(c, h.log, err)
	}
	h.log.WithField("enabled", *body.Enabled).Warn("safe mode switched")
	return c.JSON(http.StatusOK, echo.Map{"safe_mode": h.safe.Enabled(ctx)})
}
