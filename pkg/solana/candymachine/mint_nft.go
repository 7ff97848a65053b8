package candymachine

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/text/format"
	"github.com/gagliardetto/treeout"

	sol "candy-drop/pkg/solana"
	"candy-drop/pkg/solana/anchor"
)

const MintNftName = "mintNft"

var mintNftDiscriminator = anchor.InstructionDiscriminator(MintNftName)

// DefaultMintNftAccounts is the account list of mint_nft in program v1. It is
// used when the program's IDL cannot be read.
var DefaultMintNftAccounts = []anchor.IdlAccountItem{
	{Name: "config"},
	{Name: "candyMachine", IsMut: true},
	{Name: "payer", IsMut: true, IsSigner: true},
	{Name: "wallet", IsMut: true},
	{Name: "metadata", IsMut: true},
	{Name: "mint", IsMut: true},
	{Name: "mintAuthority", IsSigner: true},
	{Name: "updateAuthority", IsSigner: true},
	{Name: "masterEdition", IsMut: true},
	{Name: "tokenMetadataProgram"},
	{Name: "tokenProgram"},
	{Name: "systemProgram"},
	{Name: "rent"},
	{Name: "clock"},
}

// MintNftAccounts names every account the instruction may reference
type MintNftAccounts struct {
	Config        solana.PublicKey
	CandyMachine  solana.PublicKey
	Payer         solana.PublicKey
	Treasury      solana.PublicKey
	Mint          solana.PublicKey
	Metadata      solana.PublicKey
	MasterEdition solana.PublicKey
}

func (a MintNftAccounts) byName() map[string]solana.PublicKey {
	return map[string]solana.PublicKey{
		"config":               a.Config,
		"candyMachine":         a.CandyMachine,
		"payer":                a.Payer,
		"wallet":               a.Treasury,
		"mint":                 a.Mint,
		"metadata":             a.Metadata,
		"masterEdition":        a.MasterEdition,
		"mintAuthority":        a.Payer,
		"updateAuthority":      a.Payer,
		"tokenMetadataProgram": sol.MetadataProgramID,
		"tokenProgram":         solana.TokenProgramID,
		"systemProgram":        solana.SystemProgramID,
		"rent":                 solana.SysVarRentPubkey,
		"clock":                solana.SysVarClockPubkey,
	}
}

// MintNft carries no arguments; the data is only the discriminator
type MintNft struct {
	names    []string
	accounts solana.AccountMetaSlice
}

func (inst *MintNft) ProgramID() solana.PublicKey {
	return ProgramID
}

func (inst *MintNft) Accounts() []*solana.AccountMeta {
	return inst.accounts
}

func (inst *MintNft) GetAccounts() []*solana.AccountMeta {
	return inst.accounts
}

func (inst *MintNft) SetAccounts(accounts []*solana.AccountMeta) error {
	inst.accounts = accounts
	inst.names = make([]string, len(accounts))
	for i := range accounts {
		if i < len(DefaultMintNftAccounts) {
			inst.names[i] = DefaultMintNftAccounts[i].Name
		}
	}
	return nil
}

func (inst *MintNft) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := bin.NewBorshEncoder(buf).Encode(inst); err != nil {
		return nil, fmt.Errorf("unable to encode instruction: %w", err)
	}
	return buf.Bytes(), nil
}

func (inst *MintNft) MarshalWithEncoder(encoder *bin.Encoder) error {
	return encoder.WriteBytes(mintNftDiscriminator[:], false)
}

func (inst *MintNft) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	disc, err := decoder.ReadNBytes(anchor.DiscriminatorLength)
	if err != nil {
		return fmt.Errorf("unable to decode instruction discriminator: %w", err)
	}
	if !bytes.Equal(disc, mintNftDiscriminator[:]) {
		return fmt.Errorf("not a mint_nft instruction: %x", disc)
	}
	return nil
}

func (inst *MintNft) EncodeToTree(parent treeout.Branches) {
	parent.Child(format.Program(ProgramName, ProgramID)).
		ParentFunc(func(programBranch treeout.Branches) {
			programBranch.Child(format.Instruction("MintNft")).
				ParentFunc(func(instructionBranch treeout.Branches) {
					instructionBranch.Child("Accounts").ParentFunc(func(accountsBranch treeout.Branches) {
						for i, meta := range inst.accounts {
							accountsBranch.Child(format.Meta(inst.names[i], meta))
						}
					})
				})
		})
}

// NewMintNftInstruction orders accounts as the given IDL account list declares
// them. Pass DefaultMintNftAccounts when no IDL is available.
func NewMintNftInstruction(layout []anchor.IdlAccountItem, accounts MintNftAccounts) (*MintNft, error) {
	known := accounts.byName()

	inst := &MintNft{
		names:    make([]string, 0, len(layout)),
		accounts: make(solana.AccountMetaSlice, 0, len(layout)),
	}
	for _, item := range layout {
		key, ok := known[item.Name]
		if !ok {
			return nil, fmt.Errorf("mint_nft account %q is not supported", item.Name)
		}
		if key.IsZero() {
			return nil, fmt.Errorf("mint_nft account %q is not set", item.Name)
		}
		meta := solana.Meta(key)
		if item.IsMut {
			meta = meta.WRITE()
		}
		if item.IsSigner {
			meta = meta.SIGNER()
		}
		inst.names = append(inst.names, item.Name)
		inst.accounts = append(inst.accounts, meta)
	}
	return inst, nil
}

// MintNftLayout returns the account list for mint_nft from idl, falling back
// to the v1 layout
func MintNftLayout(idl *anchor.IDL) []anchor.IdlAccountItem {
	if idl == nil {
		return DefaultMintNftAccounts
	}
	ix, ok := idl.Instruction(MintNftName)
	if !ok {
		return DefaultMintNftAccounts
	}
	return ix.FlatAccounts()
}
