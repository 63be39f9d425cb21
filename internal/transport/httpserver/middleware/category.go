package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"welfare-app-go/internal/domain/member"
)

const categoryKey contextKey = actorKey + 1

// Category resolves the {category} route segment ("engineers", "doctors").
// Unknown segments get a 404 before any handler runs.
func Category(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		category, ok := member.CategoryFromPath(chi.URLParam(r, "category"))
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", "Not found")
			return
		}
		ctx := context.WithValue(r.Context(), categoryKey, category)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func CategoryFromContext(ctx context.Context) member.Category {
	category, _ := ctx.Value(categoryKey).(member.Category)
	return category
}

func WithCategory(ctx context.Context, category member.Category) context.Context {
	return context.WithValue(ctx, categoryKey, category)
}
