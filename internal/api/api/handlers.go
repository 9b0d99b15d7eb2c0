package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"srisai/internal/admin"
	"srisai/internal/dto"
	"srisai/internal/metrics"
	"srisai/internal/model"
	"srisai/internal/repo"
	"srisai/internal/service"
)

const sessionCookie = "srisai_admin"

type handlers struct {
	svc          service.Service
	sessions     *admin.Sessions
	repo         repo.Repository
	log          *zerolog.Logger
	cookieSecure bool
	now          func() time.Time
}

func newHandlers(r *Routers) *handlers {
	log := r.Log
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	return &handlers{
		svc:          r.Service,
		sessions:     r.Sessions,
		repo:         r.Repo,
		log:          log,
		cookieSecure: r.CookieSecure,
		now:          now,
	}
}

func (h *handlers) Site(ctx *ginext.Context) {
	dto.SuccessResponse(ctx, dto.SiteResponse{Year: h.now().Year()}, nil)
}

func (h *handlers) SubmitBooking(ctx *ginext.Context) {
	var form model.BookingForm
	if err := ctx.ShouldBind(&form); err != nil {
		h.log.Error().Err(err).Msg("failed to parse booking request")
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid request format")
		return
	}

	res, err := h.svc.SubmitBooking(ctx.Request.Context(), form)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to store booking")
		dto.InternalServerError(ctx)
		return
	}

	notice := dto.NewNotice(res.Message, !res.OK, res.ClearAfter)
	if !res.OK {
		dto.BadNoticeResponse(ctx, dto.FieldRequired, notice)
		return
	}
	dto.SuccessCreatedResponse(ctx, dto.BookingResponse{Booking: res.Booking, ResetForm: res.ResetForm}, notice)
}

func (h *handlers) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBind(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid request format")
		return
	}

	sid, _ := ctx.Cookie(sessionCookie)
	sid, out := h.sessions.Login(ctx.Request.Context(), sid, req.Password)
	notice := dto.NewNotice(out.Message, out.Error, 0)

	switch {
	case out.ConfigError:
		metrics.LoginAttempts.WithLabelValues("config_error").Inc()
		h.log.Error().Msg("admin login refused: expected hash is not configured")
		dto.ConfigMissingError(ctx, notice)
		return
	case out.Error || out.State != admin.LoggedIn:
		metrics.LoginAttempts.WithLabelValues("denied").Inc()
		h.log.Warn().Str("ip", ctx.ClientIP()).Str("reason", out.Message).Msg("admin login denied")
		dto.UnauthorizedError(ctx, out.Message, notice, dto.GateResponse{State: out.State.String()})
		return
	}

	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	h.log.Info().Str("ip", ctx.ClientIP()).Msg("admin logged in")
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(sessionCookie, sid, 0, "/", "", h.cookieSecure, true)

	table, err := h.svc.RenderBookings(ctx.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to render bookings after login")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, dto.GateResponse{State: out.State.String(), Bookings: tableResponse(table)}, notice)
}

func (h *handlers) Logout(ctx *ginext.Context) {
	sid, _ := ctx.Cookie(sessionCookie)
	out := h.sessions.Logout(sid)
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(sessionCookie, "", -1, "/", "", h.cookieSecure, true)
	h.log.Info().Msg("admin logged out")
	dto.SuccessResponse(ctx, dto.GateResponse{State: out.State.String()}, dto.NewNotice(out.Message, false, 0))
}

func (h *handlers) RequireAdmin(ctx *ginext.Context) {
	sid, _ := ctx.Cookie(sessionCookie)
	if h.sessions.State(sid) != admin.LoggedIn {
		dto.UnauthorizedError(ctx, "Admin login required", nil, dto.GateResponse{State: admin.LoggedOut.String()})
		return
	}
	ctx.Next()
}

func (h *handlers) Bookings(ctx *ginext.Context) {
	table, err := h.svc.RenderBookings(ctx.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to render bookings")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, tableResponse(table), nil)
}

func (h *handlers) ExportCSV(ctx *ginext.Context) {
	h.sendExport(ctx, h.svc.ExportCSV)
}

func (h *handlers) ExportXLSX(ctx *ginext.Context) {
	h.sendExport(ctx, h.svc.ExportXLSX)
}

func (h *handlers) sendExport(ctx *ginext.Context, export func(context.Context) (*service.Export, error)) {
	file, err := export(ctx.Request.Context())
	if errors.Is(err, service.ErrNothingToExport) {
		dto.BadNoticeResponse(ctx, dto.NothingToExport, dto.NewNotice(service.MsgNothingToExport, true, 0))
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to export bookings")
		dto.InternalServerError(ctx)
		return
	}
	ctx.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	ctx.Data(http.StatusOK, file.ContentType, file.Body)
}

func (h *handlers) Clear(ctx *ginext.Context) {
	var req dto.ClearRequest
	if err := ctx.ShouldBind(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid request format")
		return
	}

	cleared, table, err := h.svc.ClearAll(ctx.Request.Context(), func(string) bool { return req.Confirm })
	if err != nil {
		h.log.Error().Err(err).Msg("failed to clear bookings")
		dto.InternalServerError(ctx)
		return
	}
	if !cleared {
		dto.SuccessResponse(ctx, dto.ClearResponse{Cleared: false}, dto.NewNotice(service.ClearPrompt, false, 0))
		return
	}
	resp := tableResponse(table)
	dto.SuccessResponse(ctx, dto.ClearResponse{Cleared: true, Bookings: &resp}, nil)
}

func (h *handlers) Health(ctx *ginext.Context) {
	if h.repo != nil {
		if err := h.repo.Ping(ctx.Request.Context()); err != nil {
			h.log.Error().Err(err).Msg("health check failed")
			ctx.JSON(http.StatusServiceUnavailable, dto.Response{
				Status: "error",
				Error:  &dto.Error{Code: dto.ServiceUnavailable, Desc: "storage unreachable"},
			})
			return
		}
	}
	dto.SuccessResponse(ctx, map[string]any{"storage": "ok", "admin_configured": h.sessions.Configured()}, nil)
}

func tableResponse(t service.Table) dto.BookingsTableResponse {
	return dto.BookingsTableResponse{Rows: t.Rows, Empty: t.Empty, HTML: t.HTML()}
}
