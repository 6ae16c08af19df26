package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jjudge-oj/usersapi/internal/apperror"
	"github.com/jjudge-oj/usersapi/internal/logging"
	"github.com/jjudge-oj/usersapi/internal/services"
)

const (
	userIDParam                 = "userID"
	msgPasswordChangeSuccessful = "Password change successful"
)

// UserHandler provides HTTP handlers for user accounts.
type UserHandler struct {
	userService *services.UserService
	log         logging.Logger
}

// NewUserHandler constructs a handler with the provided service.
func NewUserHandler(userService *services.UserService, log logging.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, log logging.Logger) {
	handler := NewUserHandler(userService, log)

	r.Get("/", handler.ListUsers)
	r.Post("/", handler.CreateUser)
	r.Route("/{"+userIDParam+"}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Put("/", handler.UpdateUser)
		r.Delete("/", handler.DeleteUser)
		r.Post("/change-password", handler.ChangePassword)
	})
}

func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, userIDParam)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	user, ok, err := h.userService.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		h.fail(w, r, apperror.New(apperror.KindUnprocessableEntity, "Unknown user"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := requireFields(
		field{"name", req.Name},
		field{"email", req.Email},
		field{"password", req.Password},
		field{"password_confirm", req.PasswordConfirm},
	); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.userService.CreateUser(r.Context(), req.Name, req.Email, req.Password, req.PasswordConfirm)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CreateUserResponse{Name: user.Name, Email: user.Email})
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, userIDParam)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := requireFields(field{"name", req.Name}, field{"email", req.Email}); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.userService.UpdateUser(r.Context(), id, req.Name, req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, userIDParam)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.userService.DeleteUser(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IDResponse{ID: id})
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, userIDParam)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := requireFields(
		field{"password_old", req.PasswordOld},
		field{"password_new", req.PasswordNew},
		field{"password_confirm", req.PasswordConfirm},
	); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.userService.ChangePassword(r.Context(), id, req.PasswordOld, req.PasswordNew, req.PasswordConfirm); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: msgPasswordChangeSuccessful})
}

// fail hands err to the error translation boundary. Untyped errors are
// logged here since their details never reach the client.
func (h *UserHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperror.KindOf(err) == apperror.KindServer {
		h.log.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	apperror.Write(w, err)
}

type CreateUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type UpdateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ChangePasswordRequest struct {
	PasswordOld     string `json:"password_old"`
	PasswordNew     string `json:"password_new"`
	PasswordConfirm string `json:"password_confirm"`
}

type CreateUserResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type IDResponse struct {
	ID int `json:"id"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
