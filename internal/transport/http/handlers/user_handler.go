package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/vedran77/userdesk/internal/domain"
	"github.com/vedran77/userdesk/internal/service"
	"go.uber.org/zap"
)

// maxBodyBytes bounds user payloads before a password reaches the hasher.
const maxBodyBytes = 4 << 10

type UserService interface {
	Create(ctx context.Context, input service.CreateUserInput) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, input service.UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type UserHandler struct {
	userService UserService
	log         *zap.Logger
}

func NewUserHandler(userService UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.GetAll(r.Context())
	if err != nil {
		h.writeServiceError(w, "list users", err)
		return
	}

	if users == nil {
		users = []domain.User{}
	}

	writeSuccess(w, http.StatusOK, "", users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "get user", err)
		return
	}

	writeSuccess(w, http.StatusOK, "", user)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateUserInput
	if !decodeBody(w, r, &input) {
		return
	}

	user, err := h.userService.Create(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, "create user", err)
		return
	}

	writeSuccess(w, http.StatusCreated, "User created successfully", user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var input service.UpdateUserInput
	if !decodeBody(w, r, &input) {
		return
	}

	user, err := h.userService.Update(r.Context(), id, input)
	if err != nil {
		h.writeServiceError(w, "update user", err)
		return
	}

	writeSuccess(w, http.StatusOK, "User updated successfully", user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, "delete user", err)
		return
	}

	writeSuccess(w, http.StatusOK, "User deleted successfully", nil)
}

func (h *UserHandler) writeServiceError(w http.ResponseWriter, op string, err error) {
	var verr *service.ValidationError

	switch {
	case errors.Is(err, service.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrDuplicateUser):
		WriteError(w, http.StatusBadRequest, "Username or email already exists")
	case errors.As(err, &verr):
		WriteError(w, http.StatusBadRequest, verr.Fields.String())
	default:
		h.log.Error(op+" failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, MsgServerError)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// parseID treats a malformed id like an unknown one: no user can have it.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteError(w, http.StatusNotFound, "User not found")
		return uuid.Nil, false
	}
	return id, true
}
