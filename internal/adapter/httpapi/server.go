package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fracledger/fracledger-backend/internal/adapter/settlement"
	"github.com/fracledger/fracledger-backend/internal/domain"
	"github.com/fracledger/fracledger-backend/internal/ledger"
	"github.com/fracledger/fracledger-backend/internal/usecase/holdings"
)

// Server exposes the ledger engine over HTTP.
type Server struct {
	engine     *ledger.Engine
	holdings   *holdings.Service
	settlement *settlement.Gateway // nil when settlement is disabled
	apiToken   string
}

// NewServer creates a new HTTP adapter. gateway may be nil, in which case
// the settlement routes are not mounted.
func NewServer(engine *ledger.Engine, holdingsSvc *holdings.Service, gateway *settlement.Gateway, apiToken string) *Server {
	return &Server{
		engine:     engine,
		holdings:   holdingsSvc,
		settlement: gateway,
		apiToken:   apiToken,
	}
}

// Router builds the chi router with logging, panic recovery and token auth.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RequireToken(s.apiToken))

	r.Route("/assets", func(r chi.Router) {
		r.Post("/", s.handleCreateAsset)
		r.Get("/{id}", s.handleGetAsset)
		r.Get("/{id}/holdings", s.handleGetHoldings)
		r.Get("/{id}/holdings/{owner}", s.handleGetPosition)
		r.Post("/{id}/transfers", s.handleTransfer)
		r.Post("/{id}/compliance", s.handleSetCompliance)
		r.Get("/{id}/compliance/{user}", s.handleGetCompliance)
	})
	r.Get("/events/{id}", s.handleGetEvent)

	if s.settlement != nil {
		r.Route("/settlement", func(r chi.Router) {
			r.Post("/prepare", s.handlePrepareSettlement)
			r.Post("/complete", s.handleCompleteSettlement)
		})
	}

	return r
}

// errorResponse is the JSON shape of every failed request. Code carries the
// ledger's numeric error code when the failure is a domain error.
type errorResponse struct {
	Error string `json:"error"`
	Code  uint8  `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain error codes onto HTTP statuses; anything outside
// the closed set is a 500.
func writeError(w http.ResponseWriter, err error) {
	code, ok := domain.CodeOf(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch code {
	case domain.CodeInvalidInput:
		status = http.StatusBadRequest
	case domain.CodeInvalidAsset:
		status = http.StatusNotFound
	case domain.CodeUnauthorized:
		status = http.StatusForbidden
	case domain.CodeComplianceCheckFailed:
		status = http.StatusUnprocessableEntity
	case domain.CodeInsufficientShares, domain.CodeInsufficientFunds:
		status = http.StatusConflict
	case domain.CodeTransferFailed, domain.CodeEventLoggingFailed:
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: uint8(code)})
}
