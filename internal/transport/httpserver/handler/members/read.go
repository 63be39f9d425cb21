package members

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"welfare-app-go/internal/domain/member"
	"welfare-app-go/internal/export"
	"welfare-app-go/internal/transport/httpserver/handler/common"
	"welfare-app-go/internal/transport/httpserver/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	category := middleware.CategoryFromContext(r.Context())

	members, err := h.members.List(r.Context(), category, listFilter(r))
	if err != nil {
		h.writeServiceError(w, r, category.Path()+".list", category, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, toMemberResponses(members))
}

// Export streams the filtered listing as an xlsx workbook.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	category := middleware.CategoryFromContext(r.Context())
	op := category.Path() + ".export"

	members, err := h.members.List(r.Context(), category, listFilter(r))
	if err != nil {
		h.writeServiceError(w, r, op, category, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteMembers(&buf, category, members); err != nil {
		h.writeServiceError(w, r, op, category, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", category.Path(), time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	category := middleware.CategoryFromContext(r.Context())
	actor, _ := middleware.ActorFromContext(r.Context())

	m, err := h.members.Get(r.Context(), actor, category, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, category.Path()+".get", category, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, toMemberResponse(*m))
}

func listFilter(r *http.Request) member.ListFilter {
	return member.ListFilter{Status: member.Status(r.URL.Query().Get("status"))}
}
