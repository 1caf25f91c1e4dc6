package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fracledger/fracledger-backend/internal/domain"
	"github.com/fracledger/fracledger-backend/internal/ledger"
)

type assetResponse struct {
	ID               uint64    `json:"id"`
	Owner            uuid.UUID `json:"owner"`
	TotalSupply      uint64    `json:"total_supply"`
	FractionalShares uint64    `json:"fractional_shares"`
	MetadataURI      string    `json:"metadata_uri"`
	IsTransferable   bool      `json:"is_transferable"`
	CreatedAt        time.Time `json:"created_at"`
}

func toAssetResponse(a domain.Asset) assetResponse {
	return assetResponse{
		ID:               a.ID,
		Owner:            a.Owner,
		TotalSupply:      a.TotalSupply,
		FractionalShares: a.FractionalShares,
		MetadataURI:      a.MetadataURI,
		IsTransferable:   a.IsTransferable,
		CreatedAt:        a.CreatedAt,
	}
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// POST /assets
func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Creator          uuid.UUID `json:"creator"`
		TotalSupply      uint64    `json:"total_supply"`
		FractionalShares uint64    `json:"fractional_shares"`
		MetadataURI      string    `json:"metadata_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid request body: %v", err))
		return
	}

	assetID, err := s.engine.CreateAsset(r.Context(), ledger.CreateAssetInput{
		Creator:          req.Creator,
		TotalSupply:      req.TotalSupply,
		FractionalShares: req.FractionalShares,
		MetadataURI:      req.MetadataURI,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]uint64{"asset_id": assetID})
}

// GET /assets/{id}
func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid asset id"))
		return
	}
	asset, found := s.engine.Asset(id)
	if !found {
		writeError(w, domain.NewError(domain.CodeInvalidAsset, "asset %d does not exist", id))
		return
	}
	writeJSON(w, http.StatusOK, toAssetResponse(asset))
}

// POST /assets/{id}/transfers
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid asset id"))
		return
	}
	var req struct {
		Sender    uuid.UUID `json:"sender"`
		Recipient uuid.UUID `json:"recipient"`
		Amount    uint64    `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid request body: %v", err))
		return
	}

	err := s.engine.Transfer(r.Context(), ledger.TransferInput{
		AssetID:   id,
		Sender:    req.Sender,
		Recipient: req.Recipient,
		Amount:    req.Amount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// POST /assets/{id}/compliance
func (s *Server) handleSetCompliance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid asset id"))
		return
	}
	var req struct {
		Admin    uuid.UUID `json:"admin"`
		User     uuid.UUID `json:"user"`
		Approved bool      `json:"approved"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid request body: %v", err))
		return
	}

	if err := s.engine.SetComplianceStatus(r.Context(), id, req.User, req.Approved, req.Admin); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GET /assets/{id}/compliance/{user}
func (s *Server) handleGetCompliance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid asset id"))
		return
	}
	user, ok := pathUUID(r, "user")
	if !ok {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid user identity"))
		return
	}

	record, found := s.engine.ComplianceDetails(id, user)
	if !found {
		writeError(w, domain.NewError(domain.CodeInvalidAsset, "no compliance record for user %s on asset %d", user, id))
		return
	}
	writeJSON(w, http.StatusOK, struct {
		AssetID     uint64    `json:"asset_id"`
		User        uuid.UUID `json:"user"`
		IsApproved  bool      `json:"is_approved"`
		LastUpdated time.Time `json:"last_updated"`
		ApprovedBy  uuid.UUID `json:"approved_by"`
	}{record.AssetID, record.User, record.IsApproved, record.LastUpdated, record.ApprovedBy})
}

// GET /assets/{id}/holdings
func (s *Server) handleGetHoldings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid asset id"))
		return
	}
	breakdown, err := s.holdings.ForAsset(id)
	if err != nil {
		writeError(w, err)
		return
	}

	type position struct {
		Owner        uuid.UUID       `json:"owner"`
		Shares       uint64          `json:"shares"`
		Fraction     decimal.Decimal `json:"fraction"`
		IsController bool            `json:"is_controller"`
	}
	positions := make([]position, 0, len(breakdown.Positions))
	for _, p := range breakdown.Positions {
		positions = append(positions, position{p.Owner, p.Shares, p.Fraction, p.IsController})
	}
	writeJSON(w, http.StatusOK, struct {
		AssetID     uint64     `json:"asset_id"`
		TotalSupply uint64     `json:"total_supply"`
		Positions   []position `json:"positions"`
	}{breakdown.AssetID, breakdown.TotalSupply, positions})
}

// GET /assets/{id}/holdings/{owner}
func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid asset id"))
		return
	}
	owner, ok := pathUUID(r, "owner")
	if !ok {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid owner identity"))
		return
	}

	pos, err := s.holdings.ForOwner(id, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Owner        uuid.UUID       `json:"owner"`
		Shares       uint64          `json:"shares"`
		Fraction     decimal.Decimal `json:"fraction"`
		IsController bool            `json:"is_controller"`
	}{pos.Owner, pos.Shares, pos.Fraction, pos.IsController})
}

// GET /events/{id}
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid event id"))
		return
	}
	event, found := s.engine.Event(id)
	if !found {
		writeError(w, domain.NewError(domain.CodeInvalidAsset, "event %d does not exist", id))
		return
	}
	writeJSON(w, http.StatusOK, struct {
		ID        uint64           `json:"id"`
		Type      domain.EventType `json:"type"`
		AssetID   uint64           `json:"asset_id"`
		Owner     uuid.UUID        `json:"owner"`
		Timestamp time.Time        `json:"timestamp"`
	}{event.ID, event.Type, event.AssetID, event.Owner, event.Timestamp})
}

// POST /settlement/prepare
func (s *Server) handlePrepareSettlement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetID   uint64    `json:"asset_id"`
		Sender    uuid.UUID `json:"sender"`
		Recipient uuid.UUID `json:"recipient"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid request body: %v", err))
		return
	}

	// Settlement only mirrors an already-recorded control token move.
	holder, ok := s.engine.ControlHolder(req.AssetID)
	if !ok || holder != req.Recipient {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "control token of asset %d is not held by %s", req.AssetID, req.Recipient))
		return
	}

	tx, err := s.settlement.PrepareControlTransfer(r.Context(), req.AssetID, req.Sender, req.Recipient)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transaction": tx})
}

// POST /settlement/complete
func (s *Server) handleCompleteSettlement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SignedTransaction string `json:"signed_transaction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "invalid request body: %v", err))
		return
	}
	if req.SignedTransaction == "" {
		writeError(w, domain.NewError(domain.CodeInvalidInput, "signed_transaction is required"))
		return
	}

	sig, err := s.settlement.SubmitSigned(r.Context(), req.SignedTransaction)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"signature": sig})
}
