package members

import (
	"errors"
	"net/http"

	"welfare-app-go/internal/domain/member"
	"welfare-app-go/internal/transport/httpserver/handler/common"
	"welfare-app-go/pkg/logger"
)

type Handlers struct {
	members       *member.Service
	respond       common.Responder
	log           logger.Logger
	maxUploadSize int64
}

func New(members *member.Service, respond common.Responder, maxUploadSize int64, log logger.Logger) *Handlers {
	return &Handlers{
		members:       members,
		respond:       respond,
		log:           log,
		maxUploadSize: maxUploadSize,
	}
}

// writeServiceError maps member domain errors onto HTTP responses.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, op string, category member.Category, err error) {
	log := logger.FromContext(r.Context(), h.log)

	var validation *member.ValidationError
	var upload *member.UploadError
	switch {
	case errors.As(err, &validation):
		log.BusinessError(op+": validation failed", err)
		h.respond.Error(w, http.StatusBadRequest, "validation_error", validation.Message)
	case errors.Is(err, member.ErrConflict):
		log.BusinessError(op+": conflict", err)
		h.respond.Error(w, http.StatusConflict, "conflict", category.Title()+" with this email or phone already exists")
	case errors.Is(err, member.ErrInvalidCredentials):
		log.BusinessError(op+": invalid credentials", err)
		h.respond.Error(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, member.ErrForbidden):
		log.BusinessError(op+": forbidden", err)
		h.respond.Error(w, http.StatusForbidden, "forbidden", "Forbidden")
	case errors.Is(err, member.ErrMemberNotFound):
		log.BusinessError(op+": not found", err)
		h.respond.Error(w, http.StatusNotFound, "not_found", category.Title()+" not found")
	case errors.As(err, &upload):
		log.InternalError(op+": upload failed", err, "field", upload.Field)
		h.respond.Internal(w, http.StatusInternalServerError, "upload_failed", uploadMessage(upload.Field), upload.Err)
	default:
		log.InternalError(op+": failed", err)
		h.respond.Internal(w, http.StatusInternalServerError, "internal_error", "Server error", err)
	}
}

func (h *Handlers) writeBodyError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.FromContext(r.Context(), h.log).BusinessError(op+": bad request body", err)
	if errors.Is(err, errBodyTooLarge) {
		h.respond.Error(w, http.StatusRequestEntityTooLarge, "body_too_large", "Request body too large")
		return
	}
	h.respond.Error(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
}

func uploadMessage(field string) string {
	if field == member.FieldCertificates {
		return "Failed to upload certificate"
	}
	return "Failed to upload passport photo"
}
