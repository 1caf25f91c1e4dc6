package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/fracledger/fracledger-backend/internal/adapter/httpapi"
	"github.com/fracledger/fracledger-backend/internal/adapter/repository/postgres"
	"github.com/fracledger/fracledger-backend/internal/adapter/settlement"
	"github.com/fracledger/fracledger-backend/internal/config"
	"github.com/fracledger/fracledger-backend/internal/domain"
	"github.com/fracledger/fracledger-backend/internal/ledger"
	"github.com/fracledger/fracledger-backend/internal/usecase/holdings"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Reserved identities default to fresh ids in development so the
	// service never starts with a guessable administrator.
	if cfg.AdminID == uuid.Nil {
		cfg.AdminID = uuid.New()
		log.Printf("ADMIN_ID not set, generated administrator identity %s", cfg.AdminID)
	}
	if cfg.SystemID == uuid.Nil {
		cfg.SystemID = uuid.New()
		log.Printf("SYSTEM_ID not set, generated service identity %s", cfg.SystemID)
	}
	policy := domain.IdentityPolicy{Admin: cfg.AdminID, System: cfg.SystemID}

	// 1. Engine, optionally restored from and mirrored to Postgres
	var opts []ledger.Option
	if cfg.DatabaseURL != "" {
		db, err := postgres.NewDB(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		snap, err := postgres.LoadSnapshot(context.Background(), db)
		if err != nil {
			log.Fatalf("Failed to restore ledger state: %v", err)
		}
		opts = append(opts,
			ledger.WithSnapshot(snap),
			ledger.WithRecorder(postgres.NewCommitRecorder(db)),
		)
		log.Printf("Ledger state restored from database (%d assets, %d events)", len(snap.Assets), len(snap.Events))
	} else {
		log.Println("DATABASE_URL not set, running with in-memory state only")
	}
	engine := ledger.NewEngine(policy, opts...)

	// 2. Read-side services
	holdingsService := holdings.NewService(engine)

	// 3. Optional Solana settlement gateway
	var gateway *settlement.Gateway
	if cfg.SettlementEnabled() {
		dir, err := settlement.ParseDirectory(cfg.SolanaDirectory)
		if err != nil {
			log.Fatalf("Failed to parse settlement directory: %v", err)
		}
		gateway, err = settlement.NewGateway(cfg.SolanaRPCURL, cfg.SolanaFeePayerKey, dir)
		if err != nil {
			log.Fatalf("Failed to initialize settlement gateway: %v", err)
		}
		if err := registerControlMints(gateway, cfg.SolanaControlMints); err != nil {
			log.Fatalf("Failed to register control mints: %v", err)
		}
		log.Println("Solana settlement gateway enabled")
	}

	// 4. HTTP server
	server := httpapi.NewServer(engine, holdingsService, gateway, cfg.APIToken)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.Router(),
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	waitForShutdown(httpServer)
}

// registerControlMints parses "assetID=mint" pairs and registers each with
// the gateway.
func registerControlMints(gateway *settlement.Gateway, spec string) error {
	if strings.TrimSpace(spec) == "" {
		return nil
	}
	for _, pair := range strings.Split(spec, ",") {
		idStr, mint, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return fmt.Errorf("invalid control mint entry %q: expected assetID=mint", pair)
		}
		assetID, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid asset id in control mint entry %q: %w", pair, err)
		}
		if err := gateway.RegisterMint(assetID, mint); err != nil {
			return err
		}
	}
	return nil
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the
// server.
func waitForShutdown(httpServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
