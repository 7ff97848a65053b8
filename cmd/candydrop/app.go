package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"candy-drop/pkg/config"
	"candy-drop/pkg/drop"
	"candy-drop/pkg/gallery"
	"candy-drop/pkg/machine"
	"candy-drop/pkg/mint"
	"candy-drop/pkg/solana/anchor"
	"candy-drop/pkg/solana/candymachine"
	"candy-drop/pkg/store"
	"candy-drop/pkg/wallet"
)

// app holds the wired components for one command run
type app struct {
	chain     *config.Chain
	client    *rpc.Client
	store     *store.Store
	connector *wallet.Connector
	fetcher   *gallery.Fetcher
	lister    *gallery.Lister
	submitter *mint.Submitter
	journal   *mint.Journal
	session   *drop.Session
}

func newApp() (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	chain, err := cfg.Chain()
	if err != nil {
		return nil, err
	}
	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	candymachine.SetProgramID(chain.ProgramID)

	db, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	journal, err := mint.NewJournal(cfg.JournalDir())
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &app{
		chain:   chain,
		client:  rpc.New(cfg.SolanaRpcURL),
		store:   db,
		journal: journal,
	}

	provider, err := newProvider(db)
	if err != nil {
		a.close()
		return nil, err
	}
	a.connector = wallet.NewConnector(provider, logger.Named("wallet"))

	a.fetcher = gallery.NewFetcher(cfg.HTTPTimeout, cfg.MetadataRPS, db, logger.Named("metadata"))
	a.lister = gallery.NewLister(a.client, a.fetcher, nil, logger.Named("gallery"))

	a.submitter = mint.NewSubmitter(mint.Config{
		CandyMachine:        chain.CandyMachine,
		Config:              chain.Config,
		Treasury:            chain.Treasury,
		ProgramID:           chain.ProgramID,
		ConfirmationTimeout: cfg.ConfirmationTimeout,
	}, a.client, a.connector, anchor.NewResolver(a.client), mint.NewWSConfirmer(cfg.SolanaWsURL), journal, logger.Named("mint"))

	reader := machine.NewReader(a.client, chain.ProgramID, location, logger.Named("machine"))
	a.session = drop.NewSession(chain.CandyMachine, a.connector, reader, a.lister, a.submitter, nil, logger)

	logger.Debug("application wired",
		zap.String("rpc", cfg.SolanaRpcURL),
		zap.Stringer("candy_machine", chain.CandyMachine),
	)
	return a, nil
}

// newProvider returns a nil provider when no wallet is configured
func newProvider(trust wallet.TrustStore) (wallet.Provider, error) {
	var approver wallet.Approver = wallet.NewTerminalApprover()
	if assumeYes {
		approver = wallet.AutoApprover{}
	}

	provider, err := wallet.NewKeyfileProvider(cfg.WalletPrivateKey, cfg.WalletKeypair, trust, approver)
	if errors.Is(err, wallet.ErrWalletNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return provider, nil
}

// connectWallet auto-connects a trusted wallet and prompts otherwise
func (a *app) connectWallet(ctx context.Context) error {
	if a.connector.TryAutoConnect(ctx) {
		return nil
	}
	if _, ok := a.connector.Connect(ctx); !ok {
		return fmt.Errorf("wallet is not connected: set WALLET_KEYPAIR or WALLET_PRIVATE_KEY and approve the connection")
	}
	return nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
