package postgres

import (
	"context"
	"fmt"

	"github.com/fracledger/fracledger-backend/internal/ledger"
)

// CommitRecorder implements ledger.Recorder by mirroring every ledger commit
// into the database inside a single transaction. The engine calls it before
// applying a commit in memory, so a failed write aborts the whole operation.
type CommitRecorder struct {
	db *DB
}

// NewCommitRecorder creates a new recorder backed by db.
func NewCommitRecorder(db *DB) *CommitRecorder {
	return &CommitRecorder{db: db}
}

// Record persists the commit. All rows touched by the commit and its audit
// event are written atomically; any failure rolls the transaction back.
func (r *CommitRecorder) Record(ctx context.Context, c ledger.Commit) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if c.Asset != nil {
		const q = `
			INSERT INTO assets (id, owner_id, total_supply, fractional_shares, metadata_uri, is_transferable, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET is_transferable = EXCLUDED.is_transferable
		`
		if _, err := tx.ExecContext(ctx, q,
			int64(c.Asset.ID),
			c.Asset.Owner,
			int64(c.Asset.TotalSupply),
			int64(c.Asset.FractionalShares),
			c.Asset.MetadataURI,
			c.Asset.IsTransferable,
			c.Asset.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to upsert asset %d: %w", c.Asset.ID, err)
		}
	}

	// A zero balance is represented by the absence of a row, in the mirror
	// as in the ledger itself.
	for _, b := range c.Balances {
		if b.Shares == 0 {
			const q = `DELETE FROM share_balances WHERE asset_id = $1 AND owner_id = $2`
			if _, err := tx.ExecContext(ctx, q, int64(b.AssetID), b.Owner); err != nil {
				return fmt.Errorf("failed to clear balance (%d, %s): %w", b.AssetID, b.Owner, err)
			}
			continue
		}
		const q = `
			INSERT INTO share_balances (asset_id, owner_id, shares)
			VALUES ($1, $2, $3)
			ON CONFLICT (asset_id, owner_id) DO UPDATE SET shares = EXCLUDED.shares
		`
		if _, err := tx.ExecContext(ctx, q, int64(b.AssetID), b.Owner, int64(b.Shares)); err != nil {
			return fmt.Errorf("failed to upsert balance (%d, %s): %w", b.AssetID, b.Owner, err)
		}
	}

	if c.Compliance != nil {
		const q = `
			INSERT INTO compliance_records (asset_id, user_id, is_approved, last_updated, approved_by)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (asset_id, user_id) DO UPDATE
			SET is_approved = EXCLUDED.is_approved,
			    last_updated = EXCLUDED.last_updated,
			    approved_by = EXCLUDED.approved_by
		`
		if _, err := tx.ExecContext(ctx, q,
			int64(c.Compliance.AssetID),
			c.Compliance.User,
			c.Compliance.IsApproved,
			c.Compliance.LastUpdated,
			c.Compliance.ApprovedBy,
		); err != nil {
			return fmt.Errorf("failed to upsert compliance record (%d, %s): %w", c.Compliance.AssetID, c.Compliance.User, err)
		}
	}

	if c.Control != nil {
		const q = `
			INSERT INTO control_tokens (asset_id, holder_id)
			VALUES ($1, $2)
			ON CONFLICT (asset_id) DO UPDATE SET holder_id = EXCLUDED.holder_id
		`
		if _, err := tx.ExecContext(ctx, q, int64(c.Control.AssetID), c.Control.Holder); err != nil {
			return fmt.Errorf("failed to upsert control token for asset %d: %w", c.Control.AssetID, err)
		}
	}

	const eventQ = `
		INSERT INTO events (id, event_type, asset_id, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, eventQ,
		int64(c.Event.ID),
		string(c.Event.Type),
		int64(c.Event.AssetID),
		c.Event.Owner,
		c.Event.Timestamp,
	); err != nil {
		return fmt.Errorf("failed to append event %d: %w", c.Event.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger commit %d: %w", c.Event.ID, err)
	}
	return nil
}
