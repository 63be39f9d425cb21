package common

import (
	"context"
	"net/http"
	"time"

	"welfare-app-go/pkg/logger"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	db      Pinger
	respond Responder
	log     logger.Logger
}

func New(db Pinger, respond Responder, log logger.Logger) *Handlers {
	return &Handlers{db: db, respond: respond, log: log}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the database answers a ping within two seconds.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.InternalError("health.ready: database ping failed", err)
		h.respond.Internal(w, http.StatusServiceUnavailable, "db_unavailable", "database unavailable", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}
