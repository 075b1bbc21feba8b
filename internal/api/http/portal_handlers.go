package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	appGate "github.com/wifigate/wifigate/internal/application/gate"
	"github.com/wifigate/wifigate/internal/identity"
)

type accessResponse struct {
	Decision string      `json:"decision"`
	Session  interface{} `json:"session,omitempty"`
}

func (s *Server) checkAccess(w http.ResponseWriter, r *http.Request) {
	decision, sess, err := s.gateSvc.CheckAccess(r.Context(), identity.ClientIP(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	resp := accessResponse{Decision: string(decision)}
	if sess != nil {
		resp.Session = sess
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.gateSvc.ListActivePlans(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"plans": plans})
}

type selectPlanRequest struct {
	PlanID uuid.UUID `json:"planId"`
}

// selectPlan resolves the device the same way checkAccess does; a client
// cannot select on behalf of another device.
func (s *Server) selectPlan(w http.ResponseWriter, r *http.Request) {
	var req selectPlanRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	decision, sess, err := s.gateSvc.CheckAccess(r.Context(), identity.ClientIP(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if decision == appGate.DecisionUnidentified {
		respondError(w, http.StatusBadRequest, "UNIDENTIFIED", "unable to identify device")
		return
	}
	sel, err := s.gateSvc.SelectPlan(r.Context(), sess.DeviceID, req.PlanID)
	if err != nil {
		s.respondGateError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sel)
}

type confirmPaymentRequest struct {
	PlanID      uuid.UUID `json:"planId"`
	Attestation string    `json:"attestation"`
}

type confirmPaymentResponse struct {
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt"`
}

func (s *Server) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	decision, sess, err := s.gateSvc.CheckAccess(r.Context(), identity.ClientIP(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	if decision == appGate.DecisionUnidentified {
		respondError(w, http.StatusBadRequest, "UNIDENTIFIED", "unable to identify device")
		return
	}
	paid, err := s.gateSvc.ConfirmPayment(r.Context(), sess.DeviceID, req.PlanID, req.Attestation)
	if err != nil {
		s.respondGateError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, confirmPaymentResponse{
		Status:    "OK",
		ExpiresAt: paid.ExpiresAt.Format(time.RFC3339),
	})
}

func (s *Server) respondGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appGate.ErrSessionNotFound):
		respondError(w, http.StatusConflict, "SESSION_NOT_FOUND", "device has no session; visit the portal first")
	case errors.Is(err, appGate.ErrPlanNotAvailable):
		respondError(w, http.StatusNotFound, "PLAN_NOT_AVAILABLE", "plan does not exist or is inactive")
	case errors.Is(err, appGate.ErrNoSelection):
		respondError(w, http.StatusConflict, "NO_SELECTION", "no matching plan selection; select a plan first")
	case errors.Is(err, appGate.ErrPaymentRejected):
		respondError(w, http.StatusPaymentRequired, "PAYMENT_REJECTED", "payment was not confirmed")
	case errors.Is(err, appGate.ErrEnforcementFailed):
		respondError(w, http.StatusBadGateway, "ENFORCEMENT_FAILED", "payment recorded but access could not be enabled; it will be retried")
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
