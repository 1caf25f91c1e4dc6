// Package settlement mirrors control-token movements onto Solana as SPL
// token transfers. It is an external collaborator of the ledger engine:
// preparing or submitting a settlement never touches ledger state, and the
// engine never waits on it.
package settlement

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/google/uuid"
)

// Directory maps ledger identities to Solana wallet public keys.
type Directory interface {
	WalletFor(id uuid.UUID) (solana.PublicKey, bool)
}

// StaticDirectory is a fixed identity-to-wallet mapping loaded from
// configuration.
type StaticDirectory map[uuid.UUID]solana.PublicKey

// WalletFor implements Directory.
func (d StaticDirectory) WalletFor(id uuid.UUID) (solana.PublicKey, bool) {
	pk, ok := d[id]
	return pk, ok
}

// ParseDirectory parses a comma-separated list of "identity=wallet" pairs,
// where identity is a UUID and wallet a base58 public key.
func ParseDirectory(spec string) (StaticDirectory, error) {
	dir := make(StaticDirectory)
	if strings.TrimSpace(spec) == "" {
		return dir, nil
	}
	for _, pair := range strings.Split(spec, ",") {
		id, wallet, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, fmt.Errorf("invalid directory entry %q: expected identity=wallet", pair)
		}
		owner, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid identity in directory entry %q: %w", pair, err)
		}
		pk, err := solana.PublicKeyFromBase58(wallet)
		if err != nil {
			return nil, fmt.Errorf("invalid wallet in directory entry %q: %w", pair, err)
		}
		dir[owner] = pk
	}
	return dir, nil
}

// Gateway prepares and submits on-chain transfers of per-asset control
// mints. The fee payer signs for network fees at prepare time; the sending
// wallet countersigns out of band and the completed transaction comes back
// through Submit.
type Gateway struct {
	rpcClient *rpc.Client
	feePayer  solana.PrivateKey
	dir       Directory
	mints     map[uint64]solana.PublicKey
}

// NewGateway creates a gateway against the given RPC endpoint.
func NewGateway(rpcURL, feePayerKeyBase58 string, dir Directory) (*Gateway, error) {
	feePayer, err := solana.PrivateKeyFromBase58(feePayerKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid fee payer key: %w", err)
	}
	return &Gateway{
		rpcClient: rpc.New(rpcURL),
		feePayer:  feePayer,
		dir:       dir,
		mints:     make(map[uint64]solana.PublicKey),
	}, nil
}

// RegisterMint binds an asset id to the mint of its on-chain control token.
func (g *Gateway) RegisterMint(assetID uint64, mintBase58 string) error {
	mint, err := solana.PublicKeyFromBase58(mintBase58)
	if err != nil {
		return fmt.Errorf("invalid mint for asset %d: %w", assetID, err)
	}
	g.mints[assetID] = mint
	return nil
}

// PrepareControlTransfer builds a one-unit transfer of the asset's control
// mint from the sender's wallet to the recipient's, signs it as fee payer
// and returns it base64-encoded for the sender to countersign.
func (g *Gateway) PrepareControlTransfer(ctx context.Context, assetID uint64, from, to uuid.UUID) (string, error) {
	mint, ok := g.mints[assetID]
	if !ok {
		return "", fmt.Errorf("no control mint registered for asset %d", assetID)
	}
	fromWallet, ok := g.dir.WalletFor(from)
	if !ok {
		return "", fmt.Errorf("no wallet registered for sender %s", from)
	}
	toWallet, ok := g.dir.WalletFor(to)
	if !ok {
		return "", fmt.Errorf("no wallet registered for recipient %s", to)
	}

	fromATA, _, err := solana.FindAssociatedTokenAddress(fromWallet, mint)
	if err != nil {
		return "", fmt.Errorf("failed to derive sender token account: %w", err)
	}
	toATA, _, err := solana.FindAssociatedTokenAddress(toWallet, mint)
	if err != nil {
		return "", fmt.Errorf("failed to derive recipient token account: %w", err)
	}

	recent, err := g.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	// The control token is indivisible: settlement always moves exactly
	// one atomic unit.
	transfer := token.NewTransferInstruction(1, fromATA, toATA, fromWallet, nil).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{transfer},
		recent.Value.Blockhash,
		solana.TransactionPayer(g.feePayer.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to build settlement transaction: %w", err)
	}

	// The sending wallet signs on its own side; only the fee payer signs
	// here.
	_, err = tx.PartialSign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(g.feePayer.PublicKey()) {
			return &g.feePayer
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign as fee payer: %w", err)
	}

	serialized, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize settlement transaction: %w", err)
	}
	return base64.StdEncoding.EncodeToString(serialized), nil
}

// SubmitSigned sends a fully countersigned settlement transaction to the
// network and returns its signature.
func (g *Gateway) SubmitSigned(ctx context.Context, signedTxBase64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(signedTxBase64)
	if err != nil {
		return "", fmt.Errorf("failed to decode signed transaction: %w", err)
	}

	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to deserialize signed transaction: %w", err)
	}

	sig, err := g.rpcClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit settlement transaction: %w", err)
	}
	return sig.String(), nil
}
