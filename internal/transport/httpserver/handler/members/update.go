package members

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"welfare-app-go/internal/transport/httpserver/handler/common"
	"welfare-app-go/internal/transport/httpserver/middleware"
	"welfare-app-go/pkg/logger"
)

// Update serves both the profile route and the plain update route.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	category := middleware.CategoryFromContext(r.Context())
	actor, _ := middleware.ActorFromContext(r.Context())
	op := category.Path() + ".update"

	form, err := readForm(w, r, h.maxUploadSize)
	if err != nil {
		h.writeBodyError(w, r, op, err)
		return
	}

	result, err := h.members.Update(r.Context(), actor, category, chi.URLParam(r, "id"), form)
	if err != nil {
		h.writeServiceError(w, r, op, category, err)
		return
	}

	logger.FromContext(r.Context(), h.log).Info(op+": updated",
		"member_id", result.Member.ID,
		"changes", len(result.Changes),
		"actor_role", actor.Role,
	)
	common.WriteJSON(w, http.StatusOK, toMemberResponse(*result.Member))
}
