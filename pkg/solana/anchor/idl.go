// Package anchor fetches and reads the interface definition an Anchor program
// publishes on chain.
package anchor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/klauspost/compress/zlib"

	sol "candy-drop/pkg/solana"
)

var ErrIdlNotFound = errors.New("program has no published idl")

// AccountInfoGetter is the slice of the RPC client used to read accounts
type AccountInfoGetter interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
}

type IDL struct {
	Version      string           `json:"version"`
	Name         string           `json:"name"`
	Instructions []IdlInstruction `json:"instructions"`
	Accounts     []IdlTypeDef     `json:"accounts,omitempty"`
	Errors       []IdlError       `json:"errors,omitempty"`
}

type IdlInstruction struct {
	Name     string           `json:"name"`
	Accounts []IdlAccountItem `json:"accounts"`
	Args     []IdlField       `json:"args"`
}

// IdlAccountItem is either a single account or a named group of accounts
type IdlAccountItem struct {
	Name     string           `json:"name"`
	IsMut    bool             `json:"isMut"`
	IsSigner bool             `json:"isSigner"`
	Accounts []IdlAccountItem `json:"accounts,omitempty"`
}

type IdlField struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type IdlTypeDef struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type IdlError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
	Msg  string `json:"msg,omitempty"`
}

func (idl *IDL) Instruction(name string) (*IdlInstruction, bool) {
	for i := range idl.Instructions {
		if idl.Instructions[i].Name == name {
			return &idl.Instructions[i], true
		}
	}
	return nil, false
}

func (idl *IDL) ErrorByCode(code int) (IdlError, bool) {
	for _, e := range idl.Errors {
		if e.Code == code {
			return e, true
		}
	}
	return IdlError{}, false
}

// FlatAccounts expands account groups in declaration order, which is the order
// the program expects them in the instruction
func (ix *IdlInstruction) FlatAccounts() []IdlAccountItem {
	var out []IdlAccountItem
	var walk func(items []IdlAccountItem)
	walk = func(items []IdlAccountItem) {
		for _, item := range items {
			if len(item.Accounts) > 0 {
				walk(item.Accounts)
				continue
			}
			out = append(out, item)
		}
	}
	walk(ix.Accounts)
	return out
}

// FetchIDL reads and inflates the IDL account of programID
func FetchIDL(ctx context.Context, node AccountInfoGetter, programID solana.PublicKey) (*IDL, error) {
	address, err := sol.FindIdlAddress(programID)
	if err != nil {
		return nil, err
	}

	result, err := node.GetAccountInfoWithOpts(ctx, address, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrIdlNotFound, programID)
		}
		return nil, fmt.Errorf("failed to fetch idl account %s: %w", address, err)
	}
	if result == nil || result.Value == nil || result.Value.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrIdlNotFound, programID)
	}

	return DecodeIdlAccount(result.Value.Data.GetBinary())
}

// DecodeIdlAccount parses discriminator, authority and the zlib-compressed IDL JSON
func DecodeIdlAccount(data []byte) (*IDL, error) {
	decoder := bin.NewBorshDecoder(data)

	disc, err := decoder.ReadNBytes(DiscriminatorLength)
	if err != nil {
		return nil, fmt.Errorf("unable to decode idl discriminator: %w", err)
	}
	want := AccountDiscriminator("IdlAccount")
	if !bytes.Equal(disc, want[:]) {
		return nil, fmt.Errorf("unexpected idl account discriminator %x", disc)
	}
	if _, err := decoder.ReadNBytes(solana.PublicKeyLength); err != nil {
		return nil, fmt.Errorf("unable to decode idl authority: %w", err)
	}
	length, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("unable to decode idl length: %w", err)
	}
	if int(length) > decoder.Remaining() {
		return nil, fmt.Errorf("idl length %d exceeds account data", length)
	}
	compressed, err := decoder.ReadNBytes(int(length))
	if err != nil {
		return nil, fmt.Errorf("unable to read idl payload: %w", err)
	}

	reader, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("unable to inflate idl: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("unable to inflate idl: %w", err)
	}

	var idl IDL
	if err := json.Unmarshal(raw, &idl); err != nil {
		return nil, fmt.Errorf("unable to parse idl json: %w", err)
	}
	return &idl, nil
}

// EncodeIdlAccount builds IDL account data the way `anchor idl init` writes it
func EncodeIdlAccount(authority solana.PublicKey, idl *IDL) ([]byte, error) {
	raw, err := json.Marshal(idl)
	if err != nil {
		return nil, err
	}

	compressed := new(bytes.Buffer)
	writer := zlib.NewWriter(compressed)
	if _, err := writer.Write(raw); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	buf := new(bytes.Buffer)
	encoder := bin.NewBorshEncoder(buf)
	disc := AccountDiscriminator("IdlAccount")
	if err := encoder.WriteBytes(disc[:], false); err != nil {
		return nil, err
	}
	if err := encoder.WriteBytes(authority.Bytes(), false); err != nil {
		return nil, err
	}
	if err := encoder.WriteUint32(uint32(compressed.Len()), bin.LE); err != nil {
		return nil, err
	}
	if err := encoder.WriteBytes(compressed.Bytes(), false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Resolver caches IDLs per program for the life of the process
type Resolver struct {
	node  AccountInfoGetter
	mu    sync.Mutex
	cache map[solana.PublicKey]*IDL
}

func NewResolver(node AccountInfoGetter) *Resolver {
	return &Resolver{
		node:  node,
		cache: make(map[solana.PublicKey]*IDL),
	}
}

func (r *Resolver) Resolve(ctx context.Context, programID solana.PublicKey) (*IDL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idl, ok := r.cache[programID]; ok {
		return idl, nil
	}
	idl, err := FetchIDL(ctx, r.node, programID)
	if err != nil {
		return nil, err
	}
	r.cache[programID] = idl
	return idl, nil
}
