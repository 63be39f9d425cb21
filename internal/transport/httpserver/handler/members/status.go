package members

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"welfare-app-go/internal/transport/httpserver/handler/common"
	"welfare-app-go/internal/transport/httpserver/middleware"
	"welfare-app-go/pkg/logger"
)

func (h *Handlers) Approve(w http.ResponseWriter, r *http.Request) {
	category := middleware.CategoryFromContext(r.Context())
	actor, _ := middleware.ActorFromContext(r.Context())
	op := category.Path() + ".approve"

	var req approveRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeBodyError(w, r, op, err)
		return
	}

	m, err := h.members.Approve(r.Context(), actor, category, chi.URLParam(r, "id"), req.Disease, req.Message)
	if err != nil {
		h.writeServiceError(w, r, op, category, err)
		return
	}

	logger.FromContext(r.Context(), h.log).Info(op+": approved", "member_id", m.ID, "actor_role", actor.Role)
	common.WriteJSON(w, http.StatusOK, statusResponse{Message: "Approved", Member: toMemberResponse(*m)})
}

func (h *Handlers) MarkDeceased(w http.ResponseWriter, r *http.Request) {
	category := middleware.CategoryFromContext(r.Context())
	actor, _ := middleware.ActorFromContext(r.Context())
	op := category.Path() + ".deceased"

	var req deceasedRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeBodyError(w, r, op, err)
		return
	}

	m, err := h.members.MarkDeceased(r.Context(), actor, category, chi.URLParam(r, "id"), req.Reason, req.DiseaseName)
	if err != nil {
		h.writeServiceError(w, r, op, category, err)
		return
	}

	logger.FromContext(r.Context(), h.log).Info(op+": marked deceased", "member_id", m.ID, "actor_role", actor.Role)
	common.WriteJSON(w, http.StatusOK, statusResponse{
		Message: category.Title() + " marked deceased",
		Member:  toMemberResponse(*m),
	})
}
