package ledger

import (
	"sort"

	"github.com/google/uuid"

	"github.com/fracledger/fracledger-backend/internal/domain"
)

// ownerKey is the composite key of the share ledger and compliance registry.
type ownerKey struct {
	AssetID uint64
	Owner   uuid.UUID
}

// Store owns the ledger's mutable state: the four tables, the control token
// binding and the two monotonic counters. All writes go through apply, which
// installs a fully staged commit in one step; nothing in apply can fail, so
// partial state is never observable.
type Store struct {
	assets     map[uint64]domain.Asset
	balances   map[ownerKey]uint64
	compliance map[ownerKey]domain.ComplianceRecord
	control    map[uint64]uuid.UUID
	events     map[uint64]domain.Event

	nextAssetID uint64 // starts at 1
	lastEventID uint64 // starts at 0
}

func newStore() *Store {
	return &Store{
		assets:      make(map[uint64]domain.Asset),
		balances:    make(map[ownerKey]uint64),
		compliance:  make(map[ownerKey]domain.ComplianceRecord),
		control:     make(map[uint64]uuid.UUID),
		events:      make(map[uint64]domain.Event),
		nextAssetID: 1,
	}
}

// Snapshot is a full copy of ledger state, used to seed an engine from a
// durable mirror on startup. Counters are re-derived from the highest asset
// and event ids present.
type Snapshot struct {
	Assets     []domain.Asset
	Balances   []domain.Balance
	Compliance []domain.ComplianceRecord
	Control    []domain.ControlToken
	Events     []domain.Event
}

func newStoreFromSnapshot(snap Snapshot) *Store {
	s := newStore()
	for _, a := range snap.Assets {
		s.assets[a.ID] = a
		if a.ID >= s.nextAssetID {
			s.nextAssetID = a.ID + 1
		}
	}
	for _, b := range snap.Balances {
		if b.Shares > 0 {
			s.balances[ownerKey{b.AssetID, b.Owner}] = b.Shares
		}
	}
	for _, c := range snap.Compliance {
		s.compliance[ownerKey{c.AssetID, c.User}] = c
	}
	for _, t := range snap.Control {
		s.control[t.AssetID] = t.Holder
	}
	for _, e := range snap.Events {
		s.events[e.ID] = e
		if e.ID > s.lastEventID {
			s.lastEventID = e.ID
		}
	}
	return s
}

// apply installs a staged commit. Zero balances are removed rather than
// stored, so absent and zero read identically.
func (s *Store) apply(c Commit) {
	if c.Asset != nil {
		s.assets[c.Asset.ID] = *c.Asset
		if c.Asset.ID >= s.nextAssetID {
			s.nextAssetID = c.Asset.ID + 1
		}
	}
	for _, b := range c.Balances {
		k := ownerKey{b.AssetID, b.Owner}
		if b.Shares == 0 {
			delete(s.balances, k)
		} else {
			s.balances[k] = b.Shares
		}
	}
	if c.Compliance != nil {
		s.compliance[ownerKey{c.Compliance.AssetID, c.Compliance.User}] = *c.Compliance
	}
	if c.Control != nil {
		s.control[c.Control.AssetID] = c.Control.Holder
	}
	s.events[c.Event.ID] = c.Event
	if c.Event.ID > s.lastEventID {
		s.lastEventID = c.Event.ID
	}
}

func (s *Store) asset(id uint64) (domain.Asset, bool) {
	a, ok := s.assets[id]
	return a, ok
}

// validAssetID reports whether id was previously assigned by this ledger.
func (s *Store) validAssetID(id uint64) bool {
	return id > 0 && id < s.nextAssetID
}

func (s *Store) shares(assetID uint64, owner uuid.UUID) uint64 {
	return s.balances[ownerKey{assetID, owner}]
}

func (s *Store) complianceRecord(assetID uint64, user uuid.UUID) (domain.ComplianceRecord, bool) {
	c, ok := s.compliance[ownerKey{assetID, user}]
	return c, ok
}

// isApproved is default-deny: absence of a record means not approved.
func (s *Store) isApproved(assetID uint64, user uuid.UUID) bool {
	c, ok := s.compliance[ownerKey{assetID, user}]
	return ok && c.IsApproved
}

func (s *Store) controlHolder(assetID uint64) (uuid.UUID, bool) {
	h, ok := s.control[assetID]
	return h, ok
}

func (s *Store) event(id uint64) (domain.Event, bool) {
	e, ok := s.events[id]
	return e, ok
}

// holdings lists the non-zero balances of an asset, largest first with owner
// id as the tie-break, so callers see a deterministic order.
func (s *Store) holdings(assetID uint64) []domain.Balance {
	var out []domain.Balance
	for k, shares := range s.balances {
		if k.AssetID == assetID {
			out = append(out, domain.Balance{AssetID: assetID, Owner: k.Owner, Shares: shares})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Shares != out[j].Shares {
			return out[i].Shares > out[j].Shares
		}
		return out[i].Owner.String() < out[j].Owner.String()
	})
	return out
}
