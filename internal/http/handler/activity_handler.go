package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trackivity/web-bff/internal/domain"
	"github.com/trackivity/web-bff/internal/http/middleware"
	"github.com/trackivity/web-bff/internal/http/response"
	"github.com/trackivity/web-bff/internal/observability"
	"github.com/trackivity/web-bff/internal/repository"
)

// ActivityHandler serves the endpoints not yet migrated to the backend:
// activity registration and the public department directory.
type ActivityHandler struct {
	activities     repository.ActivityRepository
	participations repository.ParticipationRepository
	departments    repository.DepartmentRepository
	logger         *slog.Logger
}

func NewActivityHandler(
	activities repository.ActivityRepository,
	participations repository.ParticipationRepository,
	departments repository.DepartmentRepository,
	logger *slog.Logger,
) *ActivityHandler {
	return &ActivityHandler{
		activities:     activities,
		participations: participations,
		departments:    departments,
		logger:         logger,
	}
}

func (h *ActivityHandler) Participate(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	activityID, ok := uintParam(r, "id")
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid activity id", nil)
		return
	}

	// Recompute the time-derived status first so a published activity whose
	// window has opened admits registration without waiting for a write
	// elsewhere.
	if _, err := h.activities.RefreshStatus(r.Context(), activityID, time.Now()); err != nil && !errors.Is(err, repository.ErrNotFound) {
		h.logger.ErrorContext(r.Context(), "status refresh failed", "activity_id", activityID, "error", err)
	}

	participation, err := h.participations.Register(r.Context(), activityID, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "activity not found", nil)
		case errors.Is(err, repository.ErrAlreadyRegistered):
			response.Error(w, r, http.StatusConflict, "ALREADY_REGISTERED", "already registered for this activity", nil)
		case errors.Is(err, repository.ErrActivityFull):
			response.Error(w, r, http.StatusConflict, "ACTIVITY_FULL", "activity has reached capacity", nil)
		case errors.Is(err, repository.ErrRegistrationClosed):
			response.Error(w, r, http.StatusConflict, "ACTIVITY_FULL", "activity is not open for registration", nil)
		default:
			h.logger.ErrorContext(r.Context(), "participation failed", "activity_id", activityID, "error", err)
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not register participation", nil)
		}
		return
	}

	observability.Audit(h.logger, r, "activity.participate",
		slog.Uint64("user_id", uint64(user.ID)),
		slog.Uint64("activity_id", uint64(activityID)))
	response.JSON(w, r, http.StatusCreated, map[string]any{"participation": participation})
}

func (h *ActivityHandler) PublicDepartments(w http.ResponseWriter, r *http.Request) {
	organizationID, ok := uintParam(r, "id")
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid organization id", nil)
		return
	}

	departments, err := h.departments.ListPublicByOrganization(r.Context(), organizationID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "department list failed", "organization_id", organizationID, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not list departments", nil)
		return
	}
	if departments == nil {
		departments = []domain.Department{}
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"departments": departments})
}

// AdminSummary reports aggregate activity counts. A super admin sees the
// whole system; organization-scoped admins see their own organization only.
func (h *ActivityHandler) AdminSummary(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.IdentityFromContext(r.Context())
	if !ok || !user.IsAdmin() {
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "admin role required", nil)
		return
	}

	var scope *uint
	if user.Admin.Level != domain.AdminLevelSuper {
		scope = user.Admin.OrganizationID
	}
	summary, err := h.activities.Summarize(r.Context(), scope)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "summary failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not build summary", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"summary": summary})
}

// OrganizationSummary is the organization-scoped variant of AdminSummary.
// Scope enforcement happens in the admin gate; by the time this runs the
// caller is allowed to see the requested organization.
func (h *ActivityHandler) OrganizationSummary(w http.ResponseWriter, r *http.Request) {
	organizationID, ok := uintParam(r, "id")
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "invalid organization id", nil)
		return
	}
	summary, err := h.activities.Summarize(r.Context(), &organizationID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "summary failed", "organization_id", organizationID, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "could not build summary", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"summary": summary})
}

func uintParam(r *http.Request, name string) (uint, bool) {
	raw := chi.URLParam(r, name)
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
