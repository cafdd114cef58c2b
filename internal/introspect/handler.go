// Package introspect serves a read-only JSON view of a dictionary
package introspect

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/conduit-lang/entitydict/internal/dictionary"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var errBindingNotFound = errors.New("no binding with that name")

// Handler routes introspection requests
type Handler struct {
	dict   *dictionary.Dictionary
	logger *zap.Logger
	mux    chi.Router
}

// NewHandler creates the introspection routes over d
func NewHandler(d *dictionary.Dictionary, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{dict: d, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/bindings", h.listBindings)
	r.Get("/bindings/{name}", h.getBinding)
	r.Get("/checks", h.listChecks)
	r.Get("/order", h.dependencyOrder)
	r.Get("/stats", h.stats)

	h.mux = r
	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) listBindings(w http.ResponseWriter, r *http.Request) {
	bindings := h.dict.Bindings()
	views := make([]BindingView, 0, len(bindings))
	for _, b := range bindings {
		views = append(views, NewBindingView(h.dict, b))
	}
	renderJSON(w, http.StatusOK, views)
}

func (h *Handler) getBinding(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	t, ok := h.dict.GetTypeByExposedName(name)
	if !ok {
		renderError(w, http.StatusNotFound, "not_found", errBindingNotFound)
		return
	}
	b, err := h.dict.GetBinding(t)
	if err != nil {
		renderError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	renderJSON(w, http.StatusOK, NewBindingView(h.dict, b))
}

func (h *Handler) listChecks(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, NewCheckViews(h.dict))
}

func (h *Handler) dependencyOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.dict.DependencyOrder()
	if err != nil {
		renderError(w, http.StatusConflict, "circular_dependency", err)
		return
	}
	renderJSON(w, http.StatusOK, order)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, h.dict.Stats())
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func renderJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func renderError(w http.ResponseWriter, status int, code string, err error) {
	renderJSON(w, status, ErrorResponse{Error: code, Message: err.Error()})
}
