// Package httpapi exposes a logofy.Resolver over HTTP for UIs that render
// prospect cards: a JSON endpoint with the full resolution and an image
// endpoint that always answers with something displayable.
package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	logofy "github.com/anatolykoptev/go-logofy"
)

const maxAvatarSize = 512

// Handler serves logo resolutions.
type Handler struct {
	resolver *logofy.Resolver
	slots    *logofy.Slots
	logger   *slog.Logger
}

// New returns a Handler. A nil logger uses slog.Default().
func New(resolver *logofy.Resolver, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{resolver: resolver, slots: &logofy.Slots{}, logger: logger}
}

// RegisterHTTP registers the endpoints on a chi router.
//
//	GET /v1/logo?email=&domain=&slot=            JSON ResolutionResult
//	GET /v1/logo/image?email=&domain=&name=&size=&slot=
//	                                             winner bytes, or a PNG avatar
func (h *Handler) RegisterHTTP(r chi.Router) {
	r.Get("/v1/logo", h.handleResolve)
	r.Get("/v1/logo/image", h.handleImage)
}

// Router returns a chi router with the endpoints mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.RegisterHTTP(r)
	return r
}

func (h *Handler) resolve(r *http.Request) (logofy.ResolutionResult, bool) {
	q := r.URL.Query()
	req := logofy.ResolutionRequest{Email: q.Get("email"), Domain: q.Get("domain")}
	if slot := q.Get("slot"); slot != "" {
		return h.resolver.ResolveSlot(r.Context(), h.slots, slot, req)
	}
	return h.resolver.Resolve(r.Context(), req), true
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("email") == "" && q.Get("domain") == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email or domain is required"})
		return
	}

	start := time.Now()
	res, ok := h.resolve(r)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "superseded by a newer request for this slot"})
		return
	}
	h.logger.Info("logo resolved",
		"domain", res.Domain,
		"found", res.Winner != nil,
		"probes", len(res.AllProbes),
		"cached", res.Cached,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if res.Winner != nil {
		res.Winner.Data = nil // served by /v1/logo/image
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, ok := h.resolve(r)
	if !ok {
		w.WriteHeader(http.StatusConflict)
		return
	}

	if res.Winner != nil && len(res.Winner.Data) > 0 {
		w.Header().Set("Content-Type", res.Winner.MIMEType)
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Header().Set("X-Logo-Source", res.Winner.Candidate.Provider.String())
		_, _ = w.Write(res.Winner.Data)
		return
	}

	name := q.Get("name")
	if name == "" {
		name = firstNonEmpty(res.CompanyToken, res.Domain, q.Get("email"))
	}
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 || size > maxAvatarSize {
		size = logofy.DefaultAvatarSize
	}
	data, err := logofy.AvatarPNG(name, size)
	if err != nil {
		h.logger.Error("avatar encode failed", "error", err)
		http.Error(w, "avatar unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("X-Logo-Fallback", "avatar")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
