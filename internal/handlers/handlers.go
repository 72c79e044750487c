// Package handlers serves the dashboard pages, the JSON API, the xlsx exports
// and the Datastar SSE endpoints.
package handlers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"retail-dashboard/internal/auth"
	"retail-dashboard/internal/backend"
	"retail-dashboard/internal/checkout"
	"retail-dashboard/internal/config"
	"retail-dashboard/internal/errors"
	"retail-dashboard/internal/export"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/roles"
	"retail-dashboard/internal/services"
)

// Backend is what the handlers call directly, outside of the dashboard.
type Backend interface {
	checkout.Backend
	CurrentUser(ctx context.Context, token string) (models.User, error)
	Shop(ctx context.Context, token, shopID string) (models.Shop, error)
}

// Deps is shared by every handler group.
type Deps struct {
	Dashboard    *services.Dashboard
	Backend      Backend
	Display      config.DisplayConfig
	PollInterval time.Duration
	Version      string
	Logger       *slog.Logger
}

func (d Deps) location() *time.Location {
	return d.Display.Location()
}

func (d Deps) log(r *http.Request) *slog.Logger {
	return observability.RequestLogger(r.Context(), d.Logger)
}

func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Principal{}, errors.Unauthorized("Authentication required")
	}
	return p, nil
}

// viewer resolves the caller's assignment from the backend.
func (d Deps) viewer(ctx context.Context, p auth.Principal) (roles.Viewer, error) {
	u, err := d.Backend.CurrentUser(ctx, p.Token)
	if err != nil {
		return roles.Viewer{}, err
	}
	return roles.Viewer{Role: p.Role, WorksAt: u.WorksAt}, nil
}

func (d Deps) parseFilter(q url.Values) (services.Filter, error) {
	f, err := services.ParseFilter(q, d.location())
	if err != nil {
		return services.Filter{}, errors.BadRequestWrap(err, "Invalid filter")
	}
	return f, nil
}

// appError maps domain and transport failures onto the error envelope.
// Backend causes are kept for the log but never shown to the caller.
func appError(err error, fallback string) *errors.AppError {
	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, export.ErrNoData):
		return errors.NoData("No data available to export")
	case stderrors.Is(err, checkout.ErrValidation):
		return errors.ValidationWrap(err, "Please fill all required fields.")
	case stderrors.Is(err, backend.ErrUnauthorized):
		e := errors.Unauthorized("Your session has expired, please sign in again")
		e.Cause = err
		return e
	case stderrors.Is(err, backend.ErrNotFound):
		e := errors.NotFound("Not found")
		e.Cause = err
		return e
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		e := errors.ServiceUnavailable("Request cancelled")
		e.Cause = err
		return e
	default:
		return errors.Upstream(err, fallback)
	}
}

func (d Deps) writeErr(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	errors.WriteError(w, d.Logger, appError(err, fallback), observability.GetRequestID(r.Context()))
}
