package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fracledger/fracledger-backend/internal/domain"
)

// Engine is the ledger's state-transition engine. Every public operation
// validates its inputs, stages a single commit, records it durably, and
// applies it in one step; validation failures abort before any mutation.
//
// The engine executes operations strictly sequentially. The internal mutex
// provides the one-operation-at-a-time discipline the execution model
// requires; there is no finer-grained locking and no partial application.
type Engine struct {
	mu     sync.Mutex
	store  *Store
	policy domain.IdentityPolicy
	rec    Recorder
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRecorder sets the durable commit recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.rec = r }
}

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithSnapshot seeds the engine's state from a restored snapshot.
func WithSnapshot(snap Snapshot) Option {
	return func(e *Engine) { e.store = newStoreFromSnapshot(snap) }
}

// NewEngine creates an engine with empty state unless a snapshot is given.
func NewEngine(policy domain.IdentityPolicy, opts ...Option) *Engine {
	e := &Engine{
		store:  newStore(),
		policy: policy,
		rec:    NopRecorder{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateAssetInput carries the parameters of CreateAsset.
type CreateAssetInput struct {
	Creator          uuid.UUID
	TotalSupply      uint64
	FractionalShares uint64
	MetadataURI      string
}

// CreateAsset registers a new asset and returns its id. The creator receives
// the full supply as shares and the asset's control token; one ASSET_CREATED
// event is appended. The five effects commit as one atomic unit.
func (e *Engine) CreateAsset(ctx context.Context, in CreateAssetInput) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	asset := domain.Asset{
		ID:               e.store.nextAssetID,
		Owner:            in.Creator,
		TotalSupply:      in.TotalSupply,
		FractionalShares: in.FractionalShares,
		MetadataURI:      in.MetadataURI,
		IsTransferable:   true,
		CreatedAt:        e.now(),
	}
	if err := asset.Validate(); err != nil {
		return 0, err
	}

	c := Commit{
		Event: domain.Event{
			ID:        e.store.lastEventID + 1,
			Type:      domain.EventAssetCreated,
			AssetID:   asset.ID,
			Owner:     in.Creator,
			Timestamp: asset.CreatedAt,
		},
		Asset:    &asset,
		Balances: []domain.Balance{{AssetID: asset.ID, Owner: in.Creator, Shares: in.TotalSupply}},
		Control:  &domain.ControlToken{AssetID: asset.ID, Holder: in.Creator},
	}
	if err := e.rec.Record(ctx, c); err != nil {
		return 0, domain.NewError(domain.CodeEventLoggingFailed, "recording asset creation: %v", err)
	}
	e.store.apply(c)
	return asset.ID, nil
}

// TransferInput carries the parameters of Transfer.
type TransferInput struct {
	AssetID   uint64
	Sender    uuid.UUID
	Recipient uuid.UUID
	Amount    uint64
}

// Transfer moves fractional shares between owners. Preconditions are checked
// in a fixed order and the first failure wins; on success the debit, credit,
// TRANSFER event and, when the sender's balance reaches exactly zero, the
// control token move commit atomically. Compliance gates the recipient only:
// receiving is regulated, holding and sending are not.
func (e *Engine) Transfer(ctx context.Context, in TransferInput) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	asset, ok := e.store.asset(in.AssetID)
	if !ok {
		return domain.NewError(domain.CodeInvalidAsset, "asset %d does not exist", in.AssetID)
	}
	if !e.store.validAssetID(in.AssetID) {
		return domain.NewError(domain.CodeInvalidInput, "invalid asset id %d", in.AssetID)
	}
	if err := e.policy.ValidateTarget(in.Recipient); err != nil {
		return err
	}
	if in.Amount == 0 {
		return domain.NewError(domain.CodeInvalidInput, "transfer amount must be positive")
	}
	if !asset.IsTransferable {
		return domain.NewError(domain.CodeUnauthorized, "asset %d is not transferable", in.AssetID)
	}
	if !e.store.isApproved(in.AssetID, in.Recipient) {
		return domain.NewError(domain.CodeComplianceCheckFailed, "recipient %s lacks compliance approval for asset %d", in.Recipient, in.AssetID)
	}
	senderBalance := e.store.shares(in.AssetID, in.Sender)
	if senderBalance < in.Amount {
		return domain.NewError(domain.CodeInsufficientShares, "sender holds %d shares, needs %d", senderBalance, in.Amount)
	}

	// Stage debit then credit through one map so a self-transfer nets to
	// zero instead of minting shares.
	staged := map[uuid.UUID]uint64{in.Sender: senderBalance - in.Amount}
	recipientBalance, ok := staged[in.Recipient]
	if !ok {
		recipientBalance = e.store.shares(in.AssetID, in.Recipient)
	}
	staged[in.Recipient] = recipientBalance + in.Amount

	c := Commit{
		Event: domain.Event{
			ID:        e.store.lastEventID + 1,
			Type:      domain.EventTransfer,
			AssetID:   in.AssetID,
			Owner:     in.Sender,
			Timestamp: e.now(),
		},
		Balances: []domain.Balance{
			{AssetID: in.AssetID, Owner: in.Sender, Shares: staged[in.Sender]},
			{AssetID: in.AssetID, Owner: in.Recipient, Shares: staged[in.Recipient]},
		},
	}

	// A debit that empties the sender moves the control token with it.
	// Token movement is all-or-nothing: a binding inconsistency aborts the
	// whole transfer.
	if staged[in.Sender] == 0 {
		holder, ok := e.store.controlHolder(in.AssetID)
		if !ok || holder != in.Sender {
			return domain.NewError(domain.CodeTransferFailed, "control token for asset %d is not held by sender", in.AssetID)
		}
		c.Control = &domain.ControlToken{AssetID: in.AssetID, Holder: in.Recipient}
	}

	if err := e.rec.Record(ctx, c); err != nil {
		return domain.NewError(domain.CodeEventLoggingFailed, "recording transfer: %v", err)
	}
	e.store.apply(c)
	return nil
}

// SetComplianceStatus upserts the compliance approval of user for an asset.
// Only the designated administrator may call it; one COMPLIANCE_UPDATE event
// is appended.
func (e *Engine) SetComplianceStatus(ctx context.Context, assetID uint64, user uuid.UUID, approved bool, admin uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.policy.IsAdmin(admin) {
		return domain.NewError(domain.CodeUnauthorized, "caller is not the compliance administrator")
	}
	if !e.store.validAssetID(assetID) {
		return domain.NewError(domain.CodeInvalidInput, "invalid asset id %d", assetID)
	}
	if err := e.policy.ValidateTarget(user); err != nil {
		return err
	}

	now := e.now()
	c := Commit{
		Event: domain.Event{
			ID:        e.store.lastEventID + 1,
			Type:      domain.EventComplianceUpdate,
			AssetID:   assetID,
			Owner:     user,
			Timestamp: now,
		},
		Compliance: &domain.ComplianceRecord{
			AssetID:     assetID,
			User:        user,
			IsApproved:  approved,
			LastUpdated: now,
			ApprovedBy:  admin,
		},
	}
	if err := e.rec.Record(ctx, c); err != nil {
		return domain.NewError(domain.CodeEventLoggingFailed, "recording compliance update: %v", err)
	}
	e.store.apply(c)
	return nil
}

// Asset returns the asset record, if it exists.
func (e *Engine) Asset(id uint64) (domain.Asset, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.asset(id)
}

// OwnerShares returns the owner's balance for an asset, zero for unknown
// pairs.
func (e *Engine) OwnerShares(assetID uint64, owner uuid.UUID) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.shares(assetID, owner)
}

// ComplianceDetails returns the compliance record for (asset, user), if one
// exists.
func (e *Engine) ComplianceDetails(assetID uint64, user uuid.UUID) (domain.ComplianceRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.complianceRecord(assetID, user)
}

// IsApproved reports whether user holds a passing compliance record for the
// asset. Default-deny.
func (e *Engine) IsApproved(assetID uint64, user uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.isApproved(assetID, user)
}

// ControlHolder returns the current holder of the asset's control token.
func (e *Engine) ControlHolder(assetID uint64) (uuid.UUID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.controlHolder(assetID)
}

// Event returns the audit event with the given id, if it exists.
func (e *Engine) Event(id uint64) (domain.Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.event(id)
}

// Holdings lists the asset's non-zero balances, largest first.
func (e *Engine) Holdings(assetID uint64) []domain.Balance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.holdings(assetID)
}

// LastEventID returns the id of the most recently appended event, zero if
// none.
func (e *Engine) LastEventID() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.lastEventID
}
