package machine

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// RemoteReadError is returned when the candy machine account could not be read
// from the node
type RemoteReadError struct {
	MachineID solana.PublicKey
	Err       error
}

func (e *RemoteReadError) Error() string {
	return fmt.Sprintf("failed to read candy machine %s: %v", e.MachineID, e.Err)
}

func (e *RemoteReadError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the account exists but does not hold a
// consistent candy machine
type DecodeError struct {
	MachineID solana.PublicKey
	Reason    string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to decode candy machine %s: %s: %v", e.MachineID, e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to decode candy machine %s: %s", e.MachineID, e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
