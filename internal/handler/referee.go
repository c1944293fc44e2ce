package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sgad/referee-service/internal/domain"
)

// RefereeService is the behaviour RefereeHandler needs from the service layer.
type RefereeService interface {
	Create(ctx context.Context, input domain.RefereeCreate) (*domain.Referee, error)
	List(ctx context.Context) ([]domain.Referee, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Referee, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Referee, error)
	Update(ctx context.Context, id uuid.UUID, input domain.RefereeUpdate) (*domain.Referee, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RefereeHandler handles the /referees endpoints.
type RefereeHandler struct {
	svc    RefereeService
	logger *slog.Logger
}

// NewRefereeHandler creates a new RefereeHandler.
func NewRefereeHandler(svc RefereeService, logger *slog.Logger) *RefereeHandler {
	return &RefereeHandler{svc: svc, logger: logger}
}

// Routes mounts the referee endpoints on r.
func (h *RefereeHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/user/{user_id}", h.GetByUserID)
	r.Get("/{referee_id}", h.GetByID)
	r.Put("/{referee_id}", h.Update)
	r.Delete("/{referee_id}", h.Delete)
}

// Create handles POST /referees/.
func (h *RefereeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.RefereeCreate
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body: "+err.Error()))
		return
	}

	ref, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondJSON(w, http.StatusCreated, ref)
}

// List handles GET /referees/.
func (h *RefereeHandler) List(w http.ResponseWriter, r *http.Request) {
	refs, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, refs)
}

// GetByID handles GET /referees/{referee_id}.
func (h *RefereeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "referee_id")
	if !ok {
		return
	}
	ref, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, ref)
}

// GetByUserID handles GET /referees/user/{user_id}.
func (h *RefereeHandler) GetByUserID(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathUUID(w, r, "user_id")
	if !ok {
		return
	}
	ref, err := h.svc.GetByUserID(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, ref)
}

// Update handles PUT /referees/{referee_id}.
func (h *RefereeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "referee_id")
	if !ok {
		return
	}
	var input domain.RefereeUpdate
	if err := DecodeJSON(r, &input); err != nil {
		RespondError(w, domain.ErrValidation("invalid request body: "+err.Error()))
		return
	}

	ref, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, ref)
}

// Delete handles DELETE /referees/{referee_id}.
func (h *RefereeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathUUID(w, r, "referee_id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"message": domain.MsgRefereeDeleted})
}

func (h *RefereeHandler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		RespondError(w, domain.ErrValidationFields([]domain.FieldError{
			{Field: name, Message: "must be a valid UUID"},
		}))
		return uuid.Nil, false
	}
	return id, true
}

// fail logs server-side failures before writing the error response.
func (h *RefereeHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) || appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("referee request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", GetRequestID(r.Context()),
			"error", err,
		)
	}
	RespondError(w, err)
}
