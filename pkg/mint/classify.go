package mint

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"candy-drop/pkg/solana/anchor"
	"candy-drop/pkg/solana/candymachine"
)

// TransactionError is the decoded form of a runtime TransactionError, as
// found in RPC error data and signature notifications
type TransactionError struct {
	// InstructionIndex is -1 when the error is not tied to an instruction
	InstructionIndex int
	Custom           int
	HasCustom        bool
	// Name is the variant name, e.g. InsufficientFundsForFee
	Name string
}

var customErrorPattern = regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`)

// classifier turns submission and confirmation failures into MintErrors.
// mintIndex is the position of mint_nft in the transaction; custom codes
// raised before it come from the system or token programs.
type classifier struct {
	idl       *anchor.IDL
	mintIndex int
}

func (c classifier) classify(stage Stage, err error) *MintError {
	me := &MintError{Kind: KindGeneric, Stage: stage, Err: err}

	if errors.Is(err, ErrConfirmationTimeout) {
		return me
	}

	var (
		txErr TransactionError
		found bool
		logs  []string
	)

	var confErr *ConfirmationError
	var rpcErr *jsonrpc.RPCError
	switch {
	case errors.As(err, &confErr):
		txErr, found = parseTransactionError(confErr.TxErr)
	case errors.As(err, &rpcErr):
		if data, ok := rpcErr.Data.(map[string]interface{}); ok {
			txErr, found = parseTransactionError(data["err"])
			logs = stringSlice(data["logs"])
		}
	}

	if found {
		c.apply(me, txErr)
		return me
	}

	// Last resort: the error arrived as text only
	text := err.Error() + "\n" + strings.Join(logs, "\n")
	if m := customErrorPattern.FindStringSubmatch(text); m != nil {
		if code, perr := strconv.ParseInt(m[1], 16, 32); perr == nil {
			c.apply(me, TransactionError{InstructionIndex: -1, Custom: int(code), HasCustom: true})
			return me
		}
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "insufficient funds") || strings.Contains(lower, "insufficient lamports") {
		me.Kind = KindInsufficientFunds
	}
	return me
}

func (c classifier) apply(me *MintError, txErr TransactionError) {
	if !txErr.HasCustom {
		me.Name = txErr.Name
		me.Kind = kindForName(txErr.Name)
		return
	}

	me.Code = txErr.Custom

	// System createAccount and token mintTo both use 1 for missing lamports/tokens
	if txErr.InstructionIndex >= 0 && txErr.InstructionIndex < c.mintIndex {
		if txErr.Custom == 1 {
			me.Kind = KindInsufficientFunds
		}
		return
	}

	if c.idl != nil {
		if e, ok := c.idl.ErrorByCode(txErr.Custom); ok {
			me.Name, me.Msg = e.Name, e.Msg
		}
	}
	if me.Name == "" {
		if e, ok := candymachine.LookupError(txErr.Custom); ok {
			me.Name, me.Msg = e.Name, e.Msg
		}
	}
	me.Kind = kindForName(me.Name)
}

func kindForName(name string) Kind {
	switch name {
	case "CandyMachineEmpty":
		return KindSoldOut
	case "CandyMachineNotLiveYet":
		return KindNotStarted
	case "NotEnoughSOL", "NotEnoughTokens",
		"InsufficientFundsForFee", "InsufficientFundsForRent", "AccountNotFound":
		return KindInsufficientFunds
	}
	return KindGeneric
}

// parseTransactionError reads the JSON shapes the runtime uses:
// "InsufficientFundsForFee", {"InsufficientFundsForRent": {...}} and
// {"InstructionError": [4, {"Custom": 311}]}
func parseTransactionError(v interface{}) (TransactionError, bool) {
	switch e := v.(type) {
	case nil:
		return TransactionError{}, false
	case string:
		return TransactionError{InstructionIndex: -1, Name: e}, true
	case map[string]interface{}:
		if ie, ok := e["InstructionError"].([]interface{}); ok && len(ie) == 2 {
			out := TransactionError{InstructionIndex: -1}
			if idx, ok := toInt(ie[0]); ok {
				out.InstructionIndex = idx
			}
			switch detail := ie[1].(type) {
			case string:
				out.Name = detail
			case map[string]interface{}:
				if custom, ok := toInt(detail["Custom"]); ok {
					out.Custom = custom
					out.HasCustom = true
				} else {
					for name := range detail {
						out.Name = name
					}
				}
			}
			return out, true
		}
		for name := range e {
			return TransactionError{InstructionIndex: -1, Name: name}, true
		}
	}
	return TransactionError{}, false
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func stringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
