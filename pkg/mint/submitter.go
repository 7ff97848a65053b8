// Package mint submits the one-transaction mint of a candy machine NFT and
// follows it to confirmation.
package mint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	sol "candy-drop/pkg/solana"
	"candy-drop/pkg/solana/anchor"
	"candy-drop/pkg/solana/candymachine"
	"candy-drop/pkg/wallet"
)

// mintAccountSize is the span of an SPL token mint account
const mintAccountSize = 82

// RPC is the slice of the node client the submitter needs
type RPC interface {
	sol.LatestBlockhashGetter
	sol.ParsedTransactionGetter
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// IDLResolver returns the interface definition of a program
type IDLResolver interface {
	Resolve(ctx context.Context, programID solana.PublicKey) (*anchor.IDL, error)
}

// WalletSource is the connected wallet; *wallet.Connector implements it
type WalletSource interface {
	Address() (solana.PublicKey, bool)
	Signer() wallet.Provider
}

type Config struct {
	CandyMachine        solana.PublicKey
	Config              solana.PublicKey
	Treasury            solana.PublicKey
	ProgramID           solana.PublicKey
	ConfirmationTimeout time.Duration
}

// Receipt describes a confirmed mint
type Receipt struct {
	Signature     solana.Signature
	Mint          solana.PublicKey
	TokenAccount  solana.PublicKey
	Metadata      solana.PublicKey
	MasterEdition solana.PublicKey
	// Fee is zero when the lookup after confirmation failed
	Fee uint64
}

type Submitter struct {
	cfg         Config
	node        RPC
	wallet      WalletSource
	idls        IDLResolver
	confirmer   Confirmer
	blockhashes *sol.BlockhashCache
	journal     *Journal
	logger      *zap.Logger
	newMintKey  func() (solana.PrivateKey, error)

	mu          sync.Mutex
	state       State
	lastErr     error
	onConfirmed func(ctx context.Context)
}

// NewSubmitter wires a submitter. journal may be nil.
func NewSubmitter(cfg Config, node RPC, w WalletSource, idls IDLResolver, confirmer Confirmer, journal *Journal, logger *zap.Logger) *Submitter {
	if cfg.ProgramID.IsZero() {
		cfg.ProgramID = sol.CandyMachineProgramID
	}
	if cfg.ConfirmationTimeout <= 0 {
		cfg.ConfirmationTimeout = 60 * time.Second
	}
	return &Submitter{
		cfg:         cfg,
		node:        node,
		wallet:      w,
		idls:        idls,
		confirmer:   confirmer,
		blockhashes: sol.NewBlockhashCache(20 * time.Second),
		journal:     journal,
		logger:      logger,
		newMintKey:  solana.NewRandomPrivateKey,
	}
}

// FillAccounts sets the config and treasury accounts read from the candy
// machine. Values set at construction win.
func (s *Submitter) FillAccounts(config, treasury solana.PublicKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Config.IsZero() {
		s.cfg.Config = config
	}
	if s.cfg.Treasury.IsZero() {
		s.cfg.Treasury = treasury
	}
}

// OnConfirmed registers a hook run after a mint is confirmed
func (s *Submitter) OnConfirmed(hook func(ctx context.Context)) {
	s.mu.Lock()
	s.onConfirmed = hook
	s.mu.Unlock()
}

func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Submitter) InProgress() bool {
	return s.State().InProgress()
}

// LastError is the error of the last failed mint, nil otherwise
func (s *Submitter) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Reset returns a terminal submitter to Idle. It has no effect while a mint is
// in flight.
func (s *Submitter) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.InProgress() {
		return
	}
	s.state = StateIdle
	s.lastErr = nil
}

// begin moves to Submitting, refusing a second concurrent mint
func (s *Submitter) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.InProgress() {
		return ErrMintInProgress
	}
	s.state = StateSubmitting
	s.lastErr = nil
	return nil
}

func (s *Submitter) transition(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.lastErr = err
	s.mu.Unlock()
}

// Mint creates a new mint account, mints one token into the wallet's
// associated account and calls mint_nft, all in one transaction, then waits
// for it to be processed
func (s *Submitter) Mint(ctx context.Context) (*Receipt, error) {
	payer, connected := s.wallet.Address()
	signer := s.wallet.Signer()
	if !connected || signer == nil {
		return nil, ErrWalletNotConnected
	}

	if err := s.begin(); err != nil {
		return nil, err
	}

	receipt, err := s.mint(ctx, payer, signer)
	if err != nil {
		s.transition(StateFailed, err)
		s.record(payer, receipt, err)
		return nil, err
	}

	s.transition(StateSucceeded, nil)
	s.logger.Info("NFT minted",
		zap.Stringer("mint", receipt.Mint),
		zap.Stringer("signature", receipt.Signature),
	)

	s.mu.Lock()
	hook := s.onConfirmed
	s.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}

	fee, err := sol.GetTransactionFee(ctx, s.node, receipt.Signature)
	if err != nil {
		s.logger.Warn("failed to get transaction fee", zap.Stringer("signature", receipt.Signature), zap.Error(err))
	} else {
		receipt.Fee = fee
		s.logger.Info("transaction fee",
			zap.Uint64("lamports", fee),
			zap.Float64("sol", float64(fee)/sol.LamportsPerSol),
		)
	}
	s.record(payer, receipt, nil)

	return receipt, nil
}

func (s *Submitter) mint(ctx context.Context, payer solana.PublicKey, signer wallet.Provider) (*Receipt, error) {
	tx, receipt, mintKey, c, err := s.buildTransaction(ctx, payer)
	if err != nil {
		return receipt, err
	}

	if err := signer.SignTransaction(ctx, tx, mintKey); err != nil {
		return receipt, &MintError{Kind: KindGeneric, Stage: StageSign, Err: err}
	}
	receipt.Signature = tx.Signatures[0]

	confirmation, err := s.confirmer.Watch(ctx, receipt.Signature)
	if err != nil {
		return receipt, &MintError{Kind: KindGeneric, Stage: StageSubscribe, Err: err}
	}
	defer confirmation.Close()

	if _, err := s.node.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentProcessed,
	}); err != nil {
		if strings.Contains(err.Error(), "Blockhash not found") {
			s.blockhashes.Invalidate()
		}
		return receipt, c.classify(StageSubmit, err)
	}

	s.transition(StateConfirming, nil)
	s.logger.Info("mint transaction sent", zap.Stringer("signature", receipt.Signature))

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.ConfirmationTimeout)
	defer cancel()

	if err := confirmation.Wait(waitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = ErrConfirmationTimeout
		}
		return receipt, c.classify(StageConfirm, err)
	}

	return receipt, nil
}

// Preview builds the unsigned mint transaction for the connected wallet
// without submitting it. The returned receipt holds the derived addresses.
func (s *Submitter) Preview(ctx context.Context) (*solana.Transaction, *Receipt, error) {
	payer, connected := s.wallet.Address()
	if !connected {
		return nil, nil, ErrWalletNotConnected
	}
	tx, receipt, _, _, err := s.buildTransaction(ctx, payer)
	if err != nil {
		return nil, receipt, err
	}
	return tx, receipt, nil
}

func (s *Submitter) buildTransaction(ctx context.Context, payer solana.PublicKey) (*solana.Transaction, *Receipt, solana.PrivateKey, classifier, error) {
	idl, err := s.idls.Resolve(ctx, s.cfg.ProgramID)
	if err != nil {
		s.logger.Warn("failed to fetch program idl, using built-in layout", zap.Error(err))
		idl = nil
	}

	instructions, receipt, mintKey, err := s.buildInstructions(ctx, payer, idl)
	if err != nil {
		return nil, receipt, nil, classifier{}, &MintError{Kind: KindGeneric, Stage: StageBuild, Err: err}
	}
	c := classifier{idl: idl, mintIndex: len(instructions) - 1}

	blockhash, err := s.blockhashes.GetBlockhash(ctx, s.node)
	if err != nil {
		return nil, receipt, nil, c, &MintError{Kind: KindGeneric, Stage: StageBuild, Err: fmt.Errorf("failed to get blockhash: %w", err)}
	}

	s.logger.Debug("creating transaction", zap.Int("instructions", len(instructions)))

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, receipt, nil, c, &MintError{Kind: KindGeneric, Stage: StageBuild, Err: fmt.Errorf("failed to create transaction: %w", err)}
	}
	return tx, receipt, mintKey, c, nil
}

// buildInstructions returns createAccount, initializeMint, create associated
// account, mintTo and mint_nft, in that order
func (s *Submitter) buildInstructions(ctx context.Context, payer solana.PublicKey, idl *anchor.IDL) ([]solana.Instruction, *Receipt, solana.PrivateKey, error) {
	receipt := &Receipt{}

	mintKey, err := s.newMintKey()
	if err != nil {
		return nil, receipt, nil, fmt.Errorf("failed to generate mint keypair: %w", err)
	}
	receipt.Mint = mintKey.PublicKey()

	if receipt.TokenAccount, err = sol.FindAssociatedTokenAccount(payer, receipt.Mint); err != nil {
		return nil, receipt, nil, err
	}
	if receipt.Metadata, err = sol.FindMetadataPDA(receipt.Mint); err != nil {
		return nil, receipt, nil, err
	}
	if receipt.MasterEdition, err = sol.FindMasterEditionPDA(receipt.Mint); err != nil {
		return nil, receipt, nil, err
	}

	rent, err := s.node.GetMinimumBalanceForRentExemption(ctx, mintAccountSize, rpc.CommitmentProcessed)
	if err != nil {
		return nil, receipt, nil, fmt.Errorf("failed to get rent exemption: %w", err)
	}

	s.mu.Lock()
	config, treasury := s.cfg.Config, s.cfg.Treasury
	s.mu.Unlock()

	mintNft, err := candymachine.NewMintNftInstruction(candymachine.MintNftLayout(idl), candymachine.MintNftAccounts{
		Config:        config,
		CandyMachine:  s.cfg.CandyMachine,
		Payer:         payer,
		Treasury:      treasury,
		Mint:          receipt.Mint,
		Metadata:      receipt.Metadata,
		MasterEdition: receipt.MasterEdition,
	})
	if err != nil {
		return nil, receipt, nil, err
	}

	instructions := []solana.Instruction{
		system.NewCreateAccountInstruction(
			rent,
			mintAccountSize,
			solana.TokenProgramID,
			payer,
			receipt.Mint,
		).Build(),
		token.NewInitializeMintInstruction(
			0,
			payer,
			payer,
			receipt.Mint,
			solana.SysVarRentPubkey,
		).Build(),
		associatedtokenaccount.NewCreateInstruction(
			payer,
			payer,
			receipt.Mint,
		).Build(),
		token.NewMintToInstruction(
			1,
			receipt.Mint,
			receipt.TokenAccount,
			payer,
			nil,
		).Build(),
		mintNft,
	}

	return instructions, receipt, mintKey, nil
}

func (s *Submitter) record(payer solana.PublicKey, receipt *Receipt, err error) {
	if s.journal == nil {
		return
	}

	entry := JournalEntry{
		Outcome: OutcomeSucceeded,
		Wallet:  payer.String(),
	}
	if receipt != nil {
		if !receipt.Mint.IsZero() {
			entry.Mint = receipt.Mint.String()
		}
		if receipt.Signature != (solana.Signature{}) {
			entry.Signature = receipt.Signature.String()
		}
		entry.Fee = receipt.Fee
	}
	if err != nil {
		entry.Outcome = OutcomeFailed
		entry.Kind = KindGeneric.String()
		entry.Message = err.Error()
		var me *MintError
		if errors.As(err, &me) {
			entry.Kind = me.Kind.String()
			entry.Message = me.Message()
		}
	}

	if err := s.journal.Record(entry); err != nil {
		s.logger.Warn("failed to record mint", zap.Error(err))
	}
}
