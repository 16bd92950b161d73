package quotationhttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the quotation endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	exportLimiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Route("/cotacoes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleOpen)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.handleGet)
			r.Post("/edits", h.handleEdits)
			r.Post("/importacao", h.handleImport)
			r.Get("/comparacao", h.handleComparison)
			r.With(exportLimiter).Get("/comparacao.xlsx", h.handleExport)
			r.Post("/aprovar", h.handleDecision(h.service.Approve))
			r.Post("/reprovar", h.handleDecision(h.service.Reject))
			r.Post("/renegociar", h.handleDecision(h.service.Renegotiate))
			r.Post("/reenviar", h.handleDecision(h.service.Resubmit))
			r.Get("/decisoes", h.handleDecisions)
		})
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if actor := r.Header.Get(ActorHeader); actor != "" {
		return "actor:" + actor, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
