package candymachine

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/text"
	"github.com/gagliardetto/solana-go/text/format"
	"github.com/gagliardetto/treeout"

	sol "candy-drop/pkg/solana"
	"candy-drop/pkg/solana/anchor"
)

var ProgramID solana.PublicKey = sol.CandyMachineProgramID

const ProgramName = "CandyMachine"

// SetProgramID points the package at another deployment and registers the
// decoder so transaction dumps show decoded instructions
func SetProgramID(pubkey solana.PublicKey) {
	ProgramID = pubkey
	solana.RegisterInstructionDecoder(ProgramID, registryDecodeInstruction)
}

func init() {
	solana.RegisterInstructionDecoder(ProgramID, registryDecodeInstruction)
}

// instructionNames lists the program's instructions by their Anchor name
var instructionNames = []string{
	"initializeConfig",
	"addConfigLines",
	"initializeCandyMachine",
	"updateCandyMachine",
	"updateAuthority",
	"withdrawFunds",
	MintNftName,
}

// InstructionName returns the name behind an 8-byte discriminator
func InstructionName(data []byte) (string, bool) {
	if len(data) < anchor.DiscriminatorLength {
		return "", false
	}
	for _, name := range instructionNames {
		disc := anchor.InstructionDiscriminator(name)
		if bytes.Equal(data[:anchor.DiscriminatorLength], disc[:]) {
			return name, true
		}
	}
	return "", false
}

// Impl is a decoded candy machine instruction body
type Impl interface {
	text.EncodableToTree
	solana.AccountsGettable
}

// Instruction wraps a decoded candy machine instruction. Impl is *MintNft for
// mint_nft and *Opaque for the instructions only named, not decoded.
type Instruction struct {
	Impl Impl
}

// Opaque is a recognised instruction whose arguments are not decoded
type Opaque struct {
	Name     string
	Args     []byte
	accounts solana.AccountMetaSlice
}

func (o *Opaque) GetAccounts() []*solana.AccountMeta {
	return o.accounts
}

func (o *Opaque) EncodeToTree(parent treeout.Branches) {
	parent.Child(format.Program(ProgramName, ProgramID)).
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction(o.Name)).
				ParentFunc(func(instructionBranch treeout.Branches) {
					instructionBranch.Child(fmt.Sprintf("Args (%d bytes)", len(o.Args))).
						ParentFunc(func(argsBranch treeout.Branches) {
							if len(o.Args) > 0 {
								argsBranch.Child(strings.TrimSpace(spew.Sdump(o.Args)))
							}
						})
					instructionBranch.Child("Accounts").ParentFunc(func(accountsBranch treeout.Branches) {
						for i, account := range o.accounts {
							accountsBranch.Child(format.Meta(fmt.Sprintf("[%d]", i), account))
						}
					})
				})
		})
}

func (inst *Instruction) EncodeToTree(parent treeout.Branches) {
	inst.Impl.EncodeToTree(parent)
}

func (inst *Instruction) ProgramID() solana.PublicKey {
	return ProgramID
}

func (inst *Instruction) Accounts() (out []*solana.AccountMeta) {
	return inst.Impl.GetAccounts()
}

func (inst *Instruction) TextEncode(encoder *text.Encoder, option *text.Option) error {
	return encoder.Encode(inst.Impl, option)
}

func registryDecodeInstruction(accounts []*solana.AccountMeta, data []byte) (interface{}, error) {
	return DecodeInstruction(accounts, data)
}

// DecodeInstruction decodes mint_nft and names the other candy machine
// instructions
func DecodeInstruction(accounts []*solana.AccountMeta, data []byte) (*Instruction, error) {
	name, ok := InstructionName(data)
	if !ok {
		return nil, fmt.Errorf("unknown candy machine instruction: %x", data[:min(len(data), anchor.DiscriminatorLength)])
	}
	if name != MintNftName {
		return &Instruction{Impl: &Opaque{
			Name:     name,
			Args:     data[anchor.DiscriminatorLength:],
			accounts: accounts,
		}}, nil
	}

	impl := new(MintNft)
	if err := bin.NewBorshDecoder(data).Decode(impl); err != nil {
		return nil, fmt.Errorf("unable to decode instruction: %w", err)
	}
	if err := impl.SetAccounts(accounts); err != nil {
		return nil, fmt.Errorf("unable to set accounts for instruction: %w", err)
	}
	return &Instruction{Impl: impl}, nil
}
