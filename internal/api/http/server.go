// Package httpapi is the controller's HTTP surface: the portal-facing
// operations consumed by the portal UI and the authenticated admin read API.
// Page rendering lives outside this process.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appAdmin "github.com/wifigate/wifigate/internal/application/admin"
	appAuth "github.com/wifigate/wifigate/internal/application/auth"
	appGate "github.com/wifigate/wifigate/internal/application/gate"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	gateSvc  *appGate.Service
	authSvc  *appAuth.Service
	adminSvc *appAdmin.Service
}

func NewServer(gateSvc *appGate.Service, authSvc *appAuth.Service, adminSvc *appAdmin.Service) *Server {
	return &Server{
		gateSvc:  gateSvc,
		authSvc:  authSvc,
		adminSvc: adminSvc,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{"status": "OK"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/portal", func(r chi.Router) {
		r.Get("/access", s.checkAccess)
		r.Get("/plans", s.listPlans)
		r.Post("/select", s.selectPlan)
		r.Post("/pay", s.confirmPayment)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.login)
			r.Post("/bootstrap", s.bootstrapOperator)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/sessions", s.listSessions)
			r.Get("/sessions/{deviceId}", s.getSession)
			r.Get("/plans", s.listAllPlans)
			r.With(s.requireRole("ADMIN")).Post("/plans", s.createPlan)
			r.With(s.requireRole("ADMIN")).Post("/plans/{planId}/deactivate", s.deactivatePlan)
		})
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
