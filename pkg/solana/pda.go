package solana

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Well-known program addresses used by the candy drop
var (
	MetadataProgramID     = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
	CandyMachineProgramID = solana.MustPublicKeyFromBase58("cndy3Z4yapfJBmL3ShUp5exZKqR3z33thTzeNMm2gRZ")
)

const (
	metadataSeed = "metadata"
	editionSeed  = "edition"
	idlSeed      = "anchor:idl"
)

// FindMetadataPDA calculates the program-derived address of the metadata account
// for a token mint
func FindMetadataPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(metadataSeed),
		MetadataProgramID.Bytes(),
		mint.Bytes(),
	}

	addr, _, err := solana.FindProgramAddress(seeds, MetadataProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find metadata address: %w", err)
	}

	return addr, nil
}

// FindMasterEditionPDA calculates the program-derived address of the master edition
// account for a token mint
func FindMasterEditionPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		[]byte(metadataSeed),
		MetadataProgramID.Bytes(),
		mint.Bytes(),
		[]byte(editionSeed),
	}

	addr, _, err := solana.FindProgramAddress(seeds, MetadataProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find master edition address: %w", err)
	}

	return addr, nil
}

// FindAssociatedTokenAccount calculates the associated token account holding
// the balance of mint for wallet
func FindAssociatedTokenAccount(wallet solana.PublicKey, mint solana.PublicKey) (solana.PublicKey, error) {
	seeds := [][]byte{
		wallet.Bytes(),
		solana.TokenProgramID.Bytes(),
		mint.Bytes(),
	}

	addr, _, err := solana.FindProgramAddress(seeds, solana.SPLAssociatedTokenAccountProgramID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find associated token address: %w", err)
	}

	return addr, nil
}

// FindIdlAddress returns the account where an Anchor program publishes its IDL.
// The base is the program's PDA with no seeds; the IDL account is created from it
// with the "anchor:idl" seed.
func FindIdlAddress(programID solana.PublicKey) (solana.PublicKey, error) {
	base, _, err := solana.FindProgramAddress([][]byte{}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to find idl base address: %w", err)
	}

	addr, err := solana.CreateWithSeed(base, idlSeed, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to create idl address: %w", err)
	}

	return addr, nil
}
