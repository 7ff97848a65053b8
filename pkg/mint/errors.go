package mint

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrWalletNotConnected  = errors.New("wallet is not connected")
	ErrMintInProgress      = errors.New("a mint is already in progress")
	ErrConfirmationTimeout = errors.New("timed out waiting for confirmation")
)

// Kind is the user-facing class of a failed mint
type Kind int

const (
	KindGeneric Kind = iota
	KindSoldOut
	KindNotStarted
	KindInsufficientFunds
)

func (k Kind) String() string {
	switch k {
	case KindSoldOut:
		return "sold_out"
	case KindNotStarted:
		return "not_started"
	case KindInsufficientFunds:
		return "insufficient_funds"
	default:
		return "generic"
	}
}

// Stage is the step of the mint protocol that failed
type Stage string

const (
	StageBuild     Stage = "build"
	StageSign      Stage = "sign"
	StageSubscribe Stage = "subscribe"
	StageSubmit    Stage = "submit"
	StageConfirm   Stage = "confirm"
)

type MintError struct {
	Kind  Kind
	Stage Stage
	// Code is the program's custom error code, zero when none was reported
	Code int
	// Name and Msg come from the program's error table when Code is known
	Name string
	Msg  string
	Err  error
}

func (e *MintError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("mint failed during %s: %s (%d): %v", e.Stage, e.Name, e.Code, e.Err)
	}
	return fmt.Sprintf("mint failed during %s: %v", e.Stage, e.Err)
}

func (e *MintError) Unwrap() error {
	return e.Err
}

// Message is the text shown to the user
func (e *MintError) Message() string {
	switch e.Kind {
	case KindSoldOut:
		return "SOLD OUT!"
	case KindNotStarted:
		return "Minting period hasn't started yet."
	case KindInsufficientFunds:
		return "Insufficient funds to mint. Please fund your wallet."
	}
	if e.Msg != "" {
		return e.Msg
	}
	return "Minting failed! Please try again!"
}

// ConfirmationError carries the error status a signature notification reported
type ConfirmationError struct {
	Signature solana.Signature
	TxErr     interface{}
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.Signature, e.TxErr)
}
