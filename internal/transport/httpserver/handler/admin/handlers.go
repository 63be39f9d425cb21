package admin

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	admindomain "welfare-app-go/internal/domain/admin"
	notificationdomain "welfare-app-go/internal/domain/notification"
	"welfare-app-go/internal/transport/httpserver/handler/common"
	"welfare-app-go/pkg/logger"
)

type Handlers struct {
	admins        *admindomain.Service
	notifications *notificationdomain.Service
	respond       common.Responder
	log           logger.Logger
}

func New(admins *admindomain.Service, notifications *notificationdomain.Service, respond common.Responder, log logger.Logger) *Handlers {
	return &Handlers{
		admins:        admins,
		notifications: notifications,
		respond:       respond,
		log:           log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)

	var req loginRequest
	if err := common.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		log.BusinessError("admin.login: bad request body", err)
		h.respond.Error(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		h.respond.Error(w, http.StatusBadRequest, "validation_error", "Email and password are required")
		return
	}

	session, err := h.admins.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, admindomain.ErrInvalidCredentials) {
			log.BusinessError("admin.login: invalid credentials", err)
			h.respond.Error(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
			return
		}
		log.InternalError("admin.login: failed", err)
		h.respond.Internal(w, http.StatusInternalServerError, "internal_error", "Server error", err)
		return
	}

	common.WriteJSON(w, http.StatusOK, loginResponse{Email: session.Email, Token: session.Token})
}

func (h *Handlers) ListNotifications(w http.ResponseWriter, r *http.Request) {
	filter := notificationdomain.ListFilter{
		Status: notificationdomain.Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.respond.Error(w, http.StatusBadRequest, "validation_error", "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	jobs, err := h.notifications.List(r.Context(), filter)
	if err != nil {
		logger.FromContext(r.Context(), h.log).InternalError("admin.notifications.list: failed", err)
		h.respond.Internal(w, http.StatusInternalServerError, "internal_error", "Server error", err)
		return
	}
	common.WriteJSON(w, http.StatusOK, jobs)
}

func (h *Handlers) RetryNotification(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.log)
	id := chi.URLParam(r, "id")

	job, err := h.notifications.Retry(r.Context(), id)
	switch {
	case err == nil:
		log.Info("admin.notifications.retry: job requeued", "job_id", job.ID)
		common.WriteJSON(w, http.StatusOK, job)
	case errors.Is(err, notificationdomain.ErrJobNotFound):
		log.BusinessError("admin.notifications.retry: not found", err, "job_id", id)
		h.respond.Error(w, http.StatusNotFound, "not_found", "Notification job not found")
	case errors.Is(err, notificationdomain.ErrJobNotRetryable):
		log.BusinessError("admin.notifications.retry: not retryable", err, "job_id", id)
		h.respond.Error(w, http.StatusConflict, "not_retryable", "Only failed jobs can be retried")
	default:
		log.InternalError("admin.notifications.retry: failed", err, "job_id", id)
		h.respond.Internal(w, http.StatusInternalServerError, "internal_error", "Server error", err)
	}
}
