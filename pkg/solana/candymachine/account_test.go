package candymachine

import (
	"crypto/sha256"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMachine() *CandyMachine {
	goLive := int64(1_635_000_000)
	return &CandyMachine{
		Authority: solana.NewWallet().PublicKey(),
		Wallet:    solana.NewWallet().PublicKey(),
		Config:    solana.NewWallet().PublicKey(),
		Data: CandyMachineData{
			UUID:           "ABC123",
			Price:          500_000_000,
			ItemsAvailable: 100,
			GoLiveDate:     &goLive,
		},
		ItemsRedeemed: 42,
		Bump:          254,
	}
}

func TestAccountDiscriminator(t *testing.T) {
	sum := sha256.Sum256([]byte("account:CandyMachine"))
	data, err := Encode(sampleMachine())
	require.NoError(t, err)
	assert.Equal(t, sum[:8], data[:8])
}

func TestDecodeCandyMachine(t *testing.T) {
	want := sampleMachine()
	data, err := Encode(want)
	require.NoError(t, err)

	// accounts are allocated larger than the struct
	data = append(data, make([]byte, 64)...)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeOptionalFields(t *testing.T) {
	tokenMint := solana.NewWallet().PublicKey()
	want := sampleMachine()
	want.TokenMint = &tokenMint
	want.Data.GoLiveDate = nil

	data, err := Encode(want)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	require.NotNil(t, got.TokenMint)
	assert.Equal(t, tokenMint, *got.TokenMint)
	assert.Nil(t, got.Data.GoLiveDate)
	assert.Equal(t, uint64(42), got.ItemsRedeemed)
}

func TestDecodeRejectsForeignAccount(t *testing.T) {
	data, err := Encode(sampleMachine())
	require.NoError(t, err)
	data[0] ^= 0x01

	_, err = Decode(data)
	assert.ErrorContains(t, err, "not a CandyMachine")
}

func TestDecodeTruncated(t *testing.T) {
	data, err := Encode(sampleMachine())
	require.NoError(t, err)

	_, err = Decode(data[:100])
	assert.Error(t, err)
}

func TestLookupError(t *testing.T) {
	e, ok := LookupError(ErrCodeCandyMachineEmpty)
	require.True(t, ok)
	assert.Equal(t, "CandyMachineEmpty", e.Name)

	e, ok = LookupError(ErrCodeNotEnoughSOL)
	require.True(t, ok)
	assert.Equal(t, "NotEnoughSOL", e.Name)

	_, ok = LookupError(9000)
	assert.False(t, ok)
}
