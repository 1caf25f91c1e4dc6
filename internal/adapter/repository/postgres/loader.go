package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fracledger/fracledger-backend/internal/domain"
	"github.com/fracledger/fracledger-backend/internal/ledger"
)

type assetRow struct {
	ID               int64     `db:"id"`
	OwnerID          uuid.UUID `db:"owner_id"`
	TotalSupply      int64     `db:"total_supply"`
	FractionalShares int64     `db:"fractional_shares"`
	MetadataURI      string    `db:"metadata_uri"`
	IsTransferable   bool      `db:"is_transferable"`
	CreatedAt        time.Time `db:"created_at"`
}

type balanceRow struct {
	AssetID int64     `db:"asset_id"`
	OwnerID uuid.UUID `db:"owner_id"`
	Shares  int64     `db:"shares"`
}

type complianceRow struct {
	AssetID     int64     `db:"asset_id"`
	UserID      uuid.UUID `db:"user_id"`
	IsApproved  bool      `db:"is_approved"`
	LastUpdated time.Time `db:"last_updated"`
	ApprovedBy  uuid.UUID `db:"approved_by"`
}

type controlRow struct {
	AssetID  int64     `db:"asset_id"`
	HolderID uuid.UUID `db:"holder_id"`
}

type eventRow struct {
	ID        int64     `db:"id"`
	EventType string    `db:"event_type"`
	AssetID   int64     `db:"asset_id"`
	OwnerID   uuid.UUID `db:"owner_id"`
	CreatedAt time.Time `db:"created_at"`
}

// LoadSnapshot reads the mirrored ledger state back into an engine snapshot.
// Used at startup so the in-memory engine resumes from the last durable
// commit; the id counters are re-derived from the rows themselves.
func LoadSnapshot(ctx context.Context, db *DB) (ledger.Snapshot, error) {
	var snap ledger.Snapshot

	var assets []assetRow
	if err := db.SelectContext(ctx, &assets, `SELECT id, owner_id, total_supply, fractional_shares, metadata_uri, is_transferable, created_at FROM assets`); err != nil {
		return snap, fmt.Errorf("failed to load assets: %w", err)
	}
	for _, r := range assets {
		snap.Assets = append(snap.Assets, domain.Asset{
			ID:               uint64(r.ID),
			Owner:            r.OwnerID,
			TotalSupply:      uint64(r.TotalSupply),
			FractionalShares: uint64(r.FractionalShares),
			MetadataURI:      r.MetadataURI,
			IsTransferable:   r.IsTransferable,
			CreatedAt:        r.CreatedAt,
		})
	}

	var balances []balanceRow
	if err := db.SelectContext(ctx, &balances, `SELECT asset_id, owner_id, shares FROM share_balances`); err != nil {
		return snap, fmt.Errorf("failed to load share balances: %w", err)
	}
	for _, r := range balances {
		snap.Balances = append(snap.Balances, domain.Balance{
			AssetID: uint64(r.AssetID),
			Owner:   r.OwnerID,
			Shares:  uint64(r.Shares),
		})
	}

	var compliance []complianceRow
	if err := db.SelectContext(ctx, &compliance, `SELECT asset_id, user_id, is_approved, last_updated, approved_by FROM compliance_records`); err != nil {
		return snap, fmt.Errorf("failed to load compliance records: %w", err)
	}
	for _, r := range compliance {
		snap.Compliance = append(snap.Compliance, domain.ComplianceRecord{
			AssetID:     uint64(r.AssetID),
			User:        r.UserID,
			IsApproved:  r.IsApproved,
			LastUpdated: r.LastUpdated,
			ApprovedBy:  r.ApprovedBy,
		})
	}

	var control []controlRow
	if err := db.SelectContext(ctx, &control, `SELECT asset_id, holder_id FROM control_tokens`); err != nil {
		return snap, fmt.Errorf("failed to load control tokens: %w", err)
	}
	for _, r := range control {
		snap.Control = append(snap.Control, domain.ControlToken{
			AssetID: uint64(r.AssetID),
			Holder:  r.HolderID,
		})
	}

	var events []eventRow
	if err := db.SelectContext(ctx, &events, `SELECT id, event_type, asset_id, owner_id, created_at FROM events`); err != nil {
		return snap, fmt.Errorf("failed to load events: %w", err)
	}
	for _, r := range events {
		snap.Events = append(snap.Events, domain.Event{
			ID:        uint64(r.ID),
			Type:      domain.EventType(r.EventType),
			AssetID:   uint64(r.AssetID),
			Owner:     r.OwnerID,
			Timestamp: r.CreatedAt,
		})
	}

	return snap, nil
}
