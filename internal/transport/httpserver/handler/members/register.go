package members

import (
	"net/http"
	"strings"

	"welfare-app-go/internal/transport/httpserver/handler/common"
	"welfare-app-go/internal/transport/httpserver/middleware"
	"welfare-app-go/pkg/logger"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	category := middleware.CategoryFromContext(r.Context())
	op := category.Path() + ".register"

	form, err := readForm(w, r, h.maxUploadSize)
	if err != nil {
		h.writeBodyError(w, r, op, err)
		return
	}

	session, err := h.members.Register(r.Context(), category, form)
	if err != nil {
		h.writeServiceError(w, r, op, category, err)
		return
	}

	logger.FromContext(r.Context(), h.log).Info(op+": registered", "member_id", session.Member.ID)
	common.WriteJSON(w, http.StatusCreated, registerResponse{
		ID:    session.Member.ID,
		Name:  session.Member.Name,
		Phone: session.Member.Phone,
		Email: session.Member.Email,
		Token: session.Token,
	})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	category := middleware.CategoryFromContext(r.Context())
	op := category.Path() + ".login"

	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeBodyError(w, r, op, err)
		return
	}

	session, err := h.members.Login(r.Context(), category, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		h.writeServiceError(w, r, op, category, err)
		return
	}

	common.WriteJSON(w, http.StatusOK, loginResponse{
		ID:    session.Member.ID,
		Name:  session.Member.Name,
		Email: session.Member.Email,
		Token: session.Token,
	})
}
