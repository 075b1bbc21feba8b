package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appAdmin "github.com/wifigate/wifigate/internal/application/admin"
	"github.com/wifigate/wifigate/internal/domain/plan"
	"github.com/wifigate/wifigate/internal/domain/session"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	res, err := s.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"operator":  res.Operator,
		"token":     res.Token,
		"expiresAt": res.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) bootstrapOperator(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	op, err := s.authSvc.Bootstrap(r.Context(), req.Username, req.Password)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_STATE", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, op)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 500)
	filter := session.Filter{}
	if v := r.URL.Query().Get("paid"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Paid = &b
		}
	}
	if v := r.URL.Query().Get("active"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.Active = &b
		}
	}
	items, err := s.adminSvc.ListSessions(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	total, err := s.adminSvc.CountSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sessions": items, "total": total})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceId")
	sess, err := s.adminSvc.GetSession(r.Context(), deviceID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if sess == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) listAllPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.adminSvc.ListPlans(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

type createPlanRequest struct {
	Name          string `json:"name"`
	PriceCents    int64  `json:"priceCents"`
	DurationHours int    `json:"durationHours"`
	Description   string `json:"description"`
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	p, err := s.adminSvc.CreatePlan(r.Context(), appAdmin.CreatePlanInput{
		Name:          req.Name,
		PriceCents:    req.PriceCents,
		DurationHours: req.DurationHours,
		Description:   req.Description,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) deactivatePlan(w http.ResponseWriter, r *http.Request) {
	planID, err := parseUUIDParam(r, "planId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid planId")
		return
	}
	if err := s.adminSvc.DeactivatePlan(r.Context(), planID); err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "plan not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "OK"})
}
