// Package candymachine reads candy machine accounts and builds mint_nft
// instructions for the v1 candy machine program.
package candymachine

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"candy-drop/pkg/solana/anchor"
)

const AccountName = "CandyMachine"

var accountDiscriminator = anchor.AccountDiscriminator(AccountName)

type CandyMachineData struct {
	UUID           string
	Price          uint64
	ItemsAvailable uint64
	// GoLiveDate is unix seconds, nil when the authority never set one
	GoLiveDate *int64
}

type CandyMachine struct {
	Authority     solana.PublicKey
	Wallet        solana.PublicKey
	TokenMint     *solana.PublicKey
	Config        solana.PublicKey
	Data          CandyMachineData
	ItemsRedeemed uint64
	Bump          uint8
}

// field is one entry of the account schema. Encoding and decoding walk the
// same list so the two directions cannot drift apart.
type field struct {
	name   string
	encode func(*bin.Encoder, *CandyMachine) error
	decode func(*bin.Decoder, *CandyMachine) error
}

var schema = []field{
	{
		name:   "authority",
		encode: func(e *bin.Encoder, cm *CandyMachine) error { return e.WriteBytes(cm.Authority.Bytes(), false) },
		decode: func(d *bin.Decoder, cm *CandyMachine) (err error) { cm.Authority, err = readPublicKey(d); return },
	},
	{
		name:   "wallet",
		encode: func(e *bin.Encoder, cm *CandyMachine) error { return e.WriteBytes(cm.Wallet.Bytes(), false) },
		decode: func(d *bin.Decoder, cm *CandyMachine) (err error) { cm.Wallet, err = readPublicKey(d); return },
	},
	{
		name: "token_mint",
		encode: func(e *bin.Encoder, cm *CandyMachine) error {
			if err := e.WriteBool(cm.TokenMint != nil); err != nil || cm.TokenMint == nil {
				return err
			}
			return e.WriteBytes(cm.TokenMint.Bytes(), false)
		},
		decode: func(d *bin.Decoder, cm *CandyMachine) error {
			present, err := d.ReadBool()
			if err != nil || !present {
				return err
			}
			key, err := readPublicKey(d)
			if err != nil {
				return err
			}
			cm.TokenMint = &key
			return nil
		},
	},
	{
		name:   "config",
		encode: func(e *bin.Encoder, cm *CandyMachine) error { return e.WriteBytes(cm.Config.Bytes(), false) },
		decode: func(d *bin.Decoder, cm *CandyMachine) (err error) { cm.Config, err = readPublicKey(d); return },
	},
	{
		name: "data.uuid",
		encode: func(e *bin.Encoder, cm *CandyMachine) error {
			if err := e.WriteUint32(uint32(len(cm.Data.UUID)), bin.LE); err != nil {
				return err
			}
			return e.WriteBytes([]byte(cm.Data.UUID), false)
		},
		decode: func(d *bin.Decoder, cm *CandyMachine) error {
			length, err := d.ReadUint32(bin.LE)
			if err != nil {
				return err
			}
			if int(length) > d.Remaining() {
				return fmt.Errorf("string length %d exceeds remaining %d bytes", length, d.Remaining())
			}
			raw, err := d.ReadNBytes(int(length))
			if err != nil {
				return err
			}
			cm.Data.UUID = string(raw)
			return nil
		},
	},
	{
		name:   "data.price",
		encode: func(e *bin.Encoder, cm *CandyMachine) error { return e.WriteUint64(cm.Data.Price, bin.LE) },
		decode: func(d *bin.Decoder, cm *CandyMachine) (err error) { cm.Data.Price, err = d.ReadUint64(bin.LE); return },
	},
	{
		name:   "data.items_available",
		encode: func(e *bin.Encoder, cm *CandyMachine) error { return e.WriteUint64(cm.Data.ItemsAvailable, bin.LE) },
		decode: func(d *bin.Decoder, cm *CandyMachine) (err error) {
			cm.Data.ItemsAvailable, err = d.ReadUint64(bin.LE)
			return
		},
	},
	{
		name: "data.go_live_date",
		encode: func(e *bin.Encoder, cm *CandyMachine) error {
			if err := e.WriteBool(cm.Data.GoLiveDate != nil); err != nil || cm.Data.GoLiveDate == nil {
				return err
			}
			return e.WriteInt64(*cm.Data.GoLiveDate, bin.LE)
		},
		decode: func(d *bin.Decoder, cm *CandyMachine) error {
			present, err := d.ReadBool()
			if err != nil || !present {
				return err
			}
			ts, err := d.ReadInt64(bin.LE)
			if err != nil {
				return err
			}
			cm.Data.GoLiveDate = &ts
			return nil
		},
	},
	{
		name:   "items_redeemed",
		encode: func(e *bin.Encoder, cm *CandyMachine) error { return e.WriteUint64(cm.ItemsRedeemed, bin.LE) },
		decode: func(d *bin.Decoder, cm *CandyMachine) (err error) {
			cm.ItemsRedeemed, err = d.ReadUint64(bin.LE)
			return
		},
	},
	{
		name:   "bump",
		encode: func(e *bin.Encoder, cm *CandyMachine) error { return e.WriteUint8(cm.Bump) },
		decode: func(d *bin.Decoder, cm *CandyMachine) (err error) { cm.Bump, err = d.ReadUint8(); return },
	},
}

func (cm *CandyMachine) MarshalWithEncoder(encoder *bin.Encoder) error {
	if err := encoder.WriteBytes(accountDiscriminator[:], false); err != nil {
		return fmt.Errorf("unable to encode discriminator: %w", err)
	}
	for _, f := range schema {
		if err := f.encode(encoder, cm); err != nil {
			return fmt.Errorf("unable to encode %s: %w", f.name, err)
		}
	}
	return nil
}

func (cm *CandyMachine) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	disc, err := decoder.ReadNBytes(anchor.DiscriminatorLength)
	if err != nil {
		return fmt.Errorf("unable to decode discriminator: %w", err)
	}
	if !bytes.Equal(disc, accountDiscriminator[:]) {
		return fmt.Errorf("account is not a %s: discriminator %x", AccountName, disc)
	}
	for _, f := range schema {
		if err := f.decode(decoder, cm); err != nil {
			return fmt.Errorf("unable to decode %s: %w", f.name, err)
		}
	}
	return nil
}

// Decode parses raw candy machine account data
func Decode(data []byte) (*CandyMachine, error) {
	cm := new(CandyMachine)
	if err := cm.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, err
	}
	return cm, nil
}

func Encode(cm *CandyMachine) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := cm.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readPublicKey(decoder *bin.Decoder) (solana.PublicKey, error) {
	raw, err := decoder.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}
