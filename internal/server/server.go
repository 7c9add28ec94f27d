package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"AgentEscrow/internal/escrow"
	"AgentEscrow/internal/model"
	"AgentEscrow/internal/store"
)

// callerHeader carries the caller's identity, resolved and authenticated by
// the fronting transport. The engine treats it as the invocation context.
const callerHeader = "X-Caller-Identity"

// Server exposes the engine's operations over HTTP JSON.
type Server struct {
	engine *escrow.Engine
	mux    *http.ServeMux
	http   *http.Server
}

// New builds the server on addr.
func New(addr string, eng *escrow.Engine) *Server {
	s := &Server{engine: eng, mux: http.NewServeMux()}

	s.mux.HandleFunc("POST /v1/sessions", s.handleInitialize)
	s.mux.HandleFunc("GET /v1/sessions/{owner}/{session}", s.handleGet)
	s.mux.HandleFunc("POST /v1/sessions/{owner}/{session}/deposit", s.handleDeposit)
	s.mux.HandleFunc("POST /v1/sessions/{owner}/{session}/swap", s.handleSwap)
	s.mux.HandleFunc("POST /v1/sessions/{owner}/{session}/deduct", s.handleDeduct)
	s.mux.HandleFunc("POST /v1/sessions/{owner}/{session}/pause", s.handlePause)
	s.mux.HandleFunc("POST /v1/sessions/{owner}/{session}/resume", s.handleResume)
	s.mux.HandleFunc("POST /v1/sessions/{owner}/{session}/withdraw", s.handleWithdraw)
	s.mux.HandleFunc("POST /v1/sessions/{owner}/{session}/expire", s.handleExpire)

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route table, for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Start serves until Shutdown. Blocks.
func (s *Server) Start() error {
	log.Printf("[INFO] http server listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type initializeRequest struct {
	SessionID    string         `json:"session_id"`
	DurationDays uint16         `json:"duration_days"`
	Agent        model.Identity `json:"agent"`
	FeeRecipient model.Identity `json:"fee_recipient"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	caller := callerOf(r)
	if caller.IsZero() {
		writeBadRequest(w, "missing "+callerHeader+" header")
		return
	}

	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Sprintf("decode request: %v", err))
		return
	}
	if req.Agent.IsZero() || req.FeeRecipient.IsZero() {
		writeBadRequest(w, "agent and fee_recipient are required")
		return
	}
	if req.DurationDays == 0 {
		writeBadRequest(w, "duration_days must be at least 1")
		return
	}

	sessionID := model.NewSessionID()
	if req.SessionID != "" {
		var err error
		sessionID, err = model.ParseSessionID(req.SessionID)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
	}

	v, err := s.engine.Initialize(r.Context(), caller, sessionID, req.DurationDays, req.Agent, req.FeeRecipient)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	owner, sessionID, ok := sessionFromPath(w, r)
	if !ok {
		return
	}
	v, err := s.engine.Vault(r.Context(), owner, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type depositRequest struct {
	Amount       uint64         `json:"amount"`
	FeeRecipient model.Identity `json:"fee_recipient"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	owner, sessionID, ok := sessionFromPath(w, r)
	if !ok {
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Sprintf("decode request: %v", err))
		return
	}
	v, err := s.engine.Deposit(r.Context(), callerOf(r), owner, sessionID, req.Amount, req.FeeRecipient)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type swapRequest struct {
	AmountIn         uint64         `json:"amount_in"`
	MinimumAmountOut uint64         `json:"minimum_amount_out"`
	Venue            model.Identity `json:"venue"`
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	owner, sessionID, ok := sessionFromPath(w, r)
	if !ok {
		return
	}
	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Sprintf("decode request: %v", err))
		return
	}
	v, err := s.engine.ExecuteSwap(r.Context(), callerOf(r), owner, sessionID, req.AmountIn, req.MinimumAmountOut, req.Venue)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type deductRequest struct {
	FeeRecipient model.Identity `json:"fee_recipient"`
}

func (s *Server) handleDeduct(w http.ResponseWriter, r *http.Request) {
	owner, sessionID, ok := sessionFromPath(w, r)
	if !ok {
		return
	}
	var req deductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, fmt.Sprintf("decode request: %v", err))
		return
	}
	v, err := s.engine.DeductComputeFee(r.Context(), owner, sessionID, req.FeeRecipient)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.ownerAction(w, r, s.engine.Pause)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.ownerAction(w, r, s.engine.Resume)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	s.ownerAction(w, r, s.engine.Withdraw)
}

func (s *Server) handleExpire(w http.ResponseWriter, r *http.Request) {
	owner, sessionID, ok := sessionFromPath(w, r)
	if !ok {
		return
	}
	v, err := s.engine.Expire(r.Context(), owner, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type ownerOp func(ctx context.Context, caller, owner model.Identity, sessionID model.SessionID) (*model.Vault, error)

func (s *Server) ownerAction(w http.ResponseWriter, r *http.Request, op ownerOp) {
	owner, sessionID, ok := sessionFromPath(w, r)
	if !ok {
		return
	}
	v, err := op(r.Context(), callerOf(r), owner, sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func callerOf(r *http.Request) model.Identity {
	return model.Identity(r.Header.Get(callerHeader))
}

func sessionFromPath(w http.ResponseWriter, r *http.Request) (model.Identity, model.SessionID, bool) {
	owner := model.Identity(r.PathValue("owner"))
	sessionID, err := model.ParseSessionID(r.PathValue("session"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return "", model.SessionID{}, false
	}
	return owner, sessionID, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError maps engine rejections onto HTTP statuses. Every rejection kind
// keeps its specific message; there is no catch-all rewording.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrExists):
		status = http.StatusConflict
	case errors.Is(err, escrow.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, escrow.ErrInvalidStatus),
		errors.Is(err, escrow.ErrSessionExpired),
		errors.Is(err, escrow.ErrSessionNotExpired),
		errors.Is(err, escrow.ErrTooEarlyForDeduction):
		status = http.StatusConflict
	case errors.Is(err, escrow.ErrDepositTooSmall),
		errors.Is(err, escrow.ErrInsufficientBalance),
		errors.Is(err, escrow.ErrVenueNotWhitelisted),
		errors.Is(err, escrow.ErrInvalidFeeRecipient),
		errors.Is(err, escrow.ErrMathOverflow):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
