package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/minwoo-j/delegator/params"
	"github.com/minwoo-j/delegator/pkg/engine"
	"github.com/minwoo-j/delegator/pkg/order"
)

// Server exposes the order engine over REST and pushes order state
// changes over WebSocket. It is the surface a wallet frontend talks to.
type Server struct {
	engine *engine.Engine
	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

// NewServer creates a new API server around an engine.
func NewServer(eng *engine.Engine, log *zap.SugaredLogger) *Server {
	s := &Server{
		engine: eng,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/session", s.handleGetSession).Methods("GET")
	api.HandleFunc("/session/delegate", s.handleSetDelegate).Methods("POST")

	api.HandleFunc("/orders", s.handleListOrders).Methods("GET")
	api.HandleFunc("/orders", s.handleCreateOrder).Methods("POST")
	api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods("GET")
	api.HandleFunc("/orders/{id}/execute", s.handleExecuteOrder).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// BroadcastOrder pushes an order mutation to "orders" subscribers.
// Wire it as the engine's onChange observer.
func (s *Server) BroadcastOrder(o *order.Order) {
	s.hub.BroadcastToChannel("orders", WSOrderUpdate{
		Channel: "orders",
		Order:   orderInfo(o),
	})
}

// Start starts the API server
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	s.log.Infow("api server starting", "addr", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info := SessionInfo{ChainID: params.MonadTestnetChainID}
	if owner, ok := s.engine.Owner(); ok {
		info.Connected = true
		info.Owner = owner.Hex()
	}
	if delegate, ok := s.engine.Delegate(); ok {
		info.Delegate = delegate.Hex()
	}
	respondJSON(w, info)
}

func (s *Server) handleSetDelegate(w http.ResponseWriter, r *http.Request) {
	var req SetDelegateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !common.IsHexAddress(req.Address) {
		respondError(w, http.StatusBadRequest, "invalid delegate address", req.Address)
		return
	}

	s.engine.UseDelegate(common.HexToAddress(req.Address))
	s.handleGetSession(w, r)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders := s.engine.Orders()
	response := make([]OrderInfo, len(orders))
	for i, o := range orders {
		response[i] = orderInfo(o)
	}
	respondJSON(w, response)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	o, err := s.engine.Get(id)
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, orderInfo(o))
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	o, err := s.engine.CreateOrder(req.Recipient, req.Amount, req.DelaySeconds)
	if err != nil {
		if errors.Is(err, engine.ErrWriteFailed) && o != nil {
			// The order exists in memory but is not durable; the
			// client has to know both halves of that.
			respondJSONStatus(w, http.StatusInternalServerError, map[string]interface{}{
				"order": orderInfo(o),
				"error": err.Error(),
			})
			return
		}
		respondEngineError(w, err)
		return
	}

	respondJSONStatus(w, http.StatusCreated, orderInfo(o))
}

func (s *Server) handleExecuteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}

	// Blocks until the submission's terminal outcome; the in-flight
	// guard rejects a concurrent execute of the same order meanwhile.
	o, err := s.engine.ExecuteOrder(r.Context(), id)
	if err != nil && !errors.Is(err, engine.ErrSubmissionFailed) {
		respondEngineError(w, err)
		return
	}
	// A failed submission still reports the order: the outcome is
	// recorded on it.
	respondJSON(w, orderInfo(o))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id", mux.Vars(r)["id"])
		return 0, false
	}
	return id, true
}

// respondEngineError maps engine error kinds onto HTTP statuses.
func respondEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, order.ErrInvalidAddress),
		errors.Is(err, order.ErrInvalidAmount),
		errors.Is(err, order.ErrInvalidDelay):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNotReady),
		errors.Is(err, engine.ErrAlreadyFinalized),
		errors.Is(err, engine.ErrSubmissionInFlight),
		errors.Is(err, engine.ErrNotConnected),
		errors.Is(err, engine.ErrNoDelegate):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrSigningRejected):
		status = http.StatusBadGateway
	}
	respondError(w, status, err.Error(), "")
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   error,
		Message: message,
	})
}
