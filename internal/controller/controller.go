package controller

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/Alkira-Consulting/skylight-web/internal/model"
	"github.com/Alkira-Consulting/skylight-web/internal/service"
)

// sessionCookie carries the process-local session ID across page loads.
const sessionCookie = "skylight_session"

// dateLayout is the explicit date pick format from the presentation layer.
const dateLayout = "2006-01-02"

type DashboardController interface {
	Login(c *fiber.Ctx) error
	AuthCallback(c *fiber.Ctx) error
	Logout(c *fiber.Ctx) error
	Dashboard(c *fiber.Ctx) error
	Snapshot(c *fiber.Ctx) error
}

type dashboardController struct {
	sessions       service.SessionService
	dashboard      service.DashboardService
	refresher      *service.Refresher
	refreshEnabled bool
}

// NewDashboardController builds the HTTP handlers. refresher may be nil
// when auto refresh is disabled.
func NewDashboardController(sessions service.SessionService, dashboard service.DashboardService, refresher *service.Refresher) DashboardController {
	return &dashboardController{
		sessions:       sessions,
		dashboard:      dashboard,
		refresher:      refresher,
		refreshEnabled: refresher != nil,
	}
}

// Login starts the OIDC flow and redirects the browser to the provider.
func (h *dashboardController) Login(c *fiber.Ctx) error {
	id := h.ensureSession(c)

	var redirect string
	err := h.sessions.WithSession(id, func(sess *model.Session) error {
		var err error
		redirect, err = h.sessions.BeginLogin(c.Context(), sess)
		return err
	})
	if err != nil {
		var initErr *service.AuthInitError
		if errors.As(err, &initErr) {
			return fiber.NewError(fiber.StatusBadGateway, "something went wrong with authentication")
		}
		return err
	}

	return c.Redirect(redirect, fiber.StatusFound)
}

// AuthCallback finishes the code exchange. The code and state parameters
// are one-use: success redirects to a clean URL so a reload cannot replay
// them.
func (h *dashboardController) AuthCallback(c *fiber.Ctx) error {
	id := h.ensureSession(c)
	code := utils.CopyString(c.Query("code"))
	state := utils.CopyString(c.Query("state"))

	err := h.sessions.WithSession(id, func(sess *model.Session) error {
		return h.sessions.CompleteLogin(c.Context(), sess, code, state)
	})
	if err != nil {
		var exchErr *service.AuthExchangeError
		if errors.As(err, &exchErr) {
			return fiber.NewError(fiber.StatusUnauthorized, "login could not be completed")
		}
		return err
	}

	return c.Redirect("/dashboard", fiber.StatusFound)
}

// Logout invalidates the session and tells the presentation layer where
// to navigate.
func (h *dashboardController) Logout(c *fiber.Ctx) error {
	id := c.Cookies(sessionCookie)
	if id == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "no session")
	}

	var redirect string
	err := h.sessions.WithSession(id, func(sess *model.Session) error {
		redirect = h.sessions.Logout(c.Context(), sess)
		return nil
	})
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "no session")
	}

	c.ClearCookie(sessionCookie)
	return c.JSON(fiber.Map{"redirect": redirect})
}

// Dashboard runs one render cycle and returns the panels.
func (h *dashboardController) Dashboard(c *fiber.Ctx) error {
	id := c.Cookies(sessionCookie)
	if id == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}

	in, err := buildRenderInput(c)
	if err != nil {
		return err
	}

	var result model.RenderResult
	renderErr := h.sessions.WithSession(id, func(sess *model.Session) error {
		var err error
		result, err = h.dashboard.Render(c.Context(), sess, in)
		return err
	})
	if renderErr != nil {
		switch {
		case errors.Is(renderErr, service.ErrSessionNotFound),
			errors.Is(renderErr, service.ErrNotAuthenticated):
			return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
		}
		var refreshErr *service.RefreshError
		if errors.As(renderErr, &refreshErr) {
			return fiber.NewError(fiber.StatusUnauthorized, "session expired")
		}
		return fiber.NewError(fiber.StatusBadGateway, "dashboard render failed")
	}

	if h.refreshEnabled {
		h.refresher.Track(id, in)
	}

	return c.JSON(result)
}

// Snapshot serves the latest background render without touching the
// engine.
func (h *dashboardController) Snapshot(c *fiber.Ctx) error {
	id := c.Cookies(sessionCookie)
	if id == "" {
		return fiber.NewError(fiber.StatusUnauthorized, "not authenticated")
	}
	if !h.refreshEnabled {
		return c.SendStatus(fiber.StatusNoContent)
	}

	res, ok := h.refresher.Snapshot(id)
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(res)
}

func (h *dashboardController) ensureSession(c *fiber.Ctx) string {
	if id := c.Cookies(sessionCookie); id != "" {
		if err := h.sessions.WithSession(id, func(*model.Session) error { return nil }); err == nil {
			return id
		}
	}

	sess := h.sessions.Create()
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return sess.ID
}

func buildRenderInput(c *fiber.Ctx) (model.RenderInput, error) {
	in := model.RenderInput{
		ReportingGroup: utils.CopyString(c.Query("group")),
	}

	if raw := c.Query("date"); raw != "" {
		if _, parseErr := time.Parse(dateLayout, raw); parseErr != nil {
			return model.RenderInput{}, fiber.NewError(fiber.StatusBadRequest, "invalid date")
		}
		in.Date = utils.CopyString(raw)
	}

	if raw := c.Query("offset"); raw != "" {
		minutes, parseErr := strconv.Atoi(raw)
		if parseErr != nil || minutes < 0 {
			return model.RenderInput{}, fiber.NewError(fiber.StatusBadRequest, "invalid offset")
		}
		in.OffsetMinutes = &minutes
	}

	return in, nil
}
