package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// KeyMetadataV1 tags metadata accounts in the token metadata program
const KeyMetadataV1 uint8 = 4

var ErrNotMetadata = errors.New("account is not a metadata account")

type Creator struct {
	Address  solana.PublicKey
	Verified bool
	Share    uint8
}

// Metadata is the decoded form of a token metadata account
type Metadata struct {
	Key                  uint8
	UpdateAuthority      solana.PublicKey
	Mint                 solana.PublicKey
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
	PrimarySaleHappened  bool
	IsMutable            bool
}

// Decode parses raw metadata account data
func Decode(data []byte) (*Metadata, error) {
	m := new(Metadata)
	if err := m.UnmarshalWithDecoder(bin.NewBorshDecoder(data)); err != nil {
		return nil, err
	}
	return m, nil
}

// Encode serializes the record with every string padded to its layout width
func Encode(m *Metadata) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := m.MarshalWithEncoder(bin.NewBorshEncoder(buf)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CreatorFilter selects metadata accounts whose first creator is creator
func CreatorFilter(creator solana.PublicKey) rpc.RPCFilter {
	return rpc.RPCFilter{
		Memcmp: &rpc.RPCFilterMemcmp{
			Offset: uint64(FirstCreatorOffset),
			Bytes:  solana.Base58(creator.Bytes()),
		},
	}
}

func (m *Metadata) MarshalWithEncoder(encoder *bin.Encoder) error {
	if len(m.Creators) > MaxCreatorLimit {
		return fmt.Errorf("too many creators: %d", len(m.Creators))
	}
	if err := encoder.WriteUint8(m.Key); err != nil {
		return err
	}
	if err := encoder.WriteBytes(m.UpdateAuthority.Bytes(), false); err != nil {
		return err
	}
	if err := encoder.WriteBytes(m.Mint.Bytes(), false); err != nil {
		return err
	}
	if err := writePadded(encoder, "name", m.Name, MaxNameLength); err != nil {
		return err
	}
	if err := writePadded(encoder, "symbol", m.Symbol, MaxSymbolLength); err != nil {
		return err
	}
	if err := writePadded(encoder, "uri", m.URI, MaxURILength); err != nil {
		return err
	}
	if err := encoder.WriteUint16(m.SellerFeeBasisPoints, bin.LE); err != nil {
		return err
	}

	if err := encoder.WriteBool(len(m.Creators) > 0); err != nil {
		return err
	}
	if len(m.Creators) > 0 {
		if err := encoder.WriteUint32(uint32(len(m.Creators)), bin.LE); err != nil {
			return err
		}
		for _, creator := range m.Creators {
			if err := encoder.WriteBytes(creator.Address.Bytes(), false); err != nil {
				return err
			}
			if err := encoder.WriteBool(creator.Verified); err != nil {
				return err
			}
			if err := encoder.WriteUint8(creator.Share); err != nil {
				return err
			}
		}
	}

	if err := encoder.WriteBool(m.PrimarySaleHappened); err != nil {
		return err
	}
	return encoder.WriteBool(m.IsMutable)
}

func (m *Metadata) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if m.Key, err = decoder.ReadUint8(); err != nil {
		return fmt.Errorf("unable to decode key: %w", err)
	}
	if m.Key != KeyMetadataV1 {
		return fmt.Errorf("%w: key %d", ErrNotMetadata, m.Key)
	}
	if m.UpdateAuthority, err = readPublicKey(decoder); err != nil {
		return fmt.Errorf("unable to decode update authority: %w", err)
	}
	if m.Mint, err = readPublicKey(decoder); err != nil {
		return fmt.Errorf("unable to decode mint: %w", err)
	}
	if m.Name, err = readPadded(decoder); err != nil {
		return fmt.Errorf("unable to decode name: %w", err)
	}
	if m.Symbol, err = readPadded(decoder); err != nil {
		return fmt.Errorf("unable to decode symbol: %w", err)
	}
	if m.URI, err = readPadded(decoder); err != nil {
		return fmt.Errorf("unable to decode uri: %w", err)
	}
	if m.SellerFeeBasisPoints, err = decoder.ReadUint16(bin.LE); err != nil {
		return fmt.Errorf("unable to decode seller fee: %w", err)
	}

	hasCreators, err := decoder.ReadBool()
	if err != nil {
		return fmt.Errorf("unable to decode creators option: %w", err)
	}
	if hasCreators {
		count, err := decoder.ReadUint32(bin.LE)
		if err != nil {
			return fmt.Errorf("unable to decode creators length: %w", err)
		}
		if count > MaxCreatorLimit {
			return fmt.Errorf("creators length %d exceeds %d", count, MaxCreatorLimit)
		}
		m.Creators = make([]Creator, count)
		for i := range m.Creators {
			if m.Creators[i].Address, err = readPublicKey(decoder); err != nil {
				return fmt.Errorf("unable to decode creator %d: %w", i, err)
			}
			if m.Creators[i].Verified, err = decoder.ReadBool(); err != nil {
				return fmt.Errorf("unable to decode creator %d: %w", i, err)
			}
			if m.Creators[i].Share, err = decoder.ReadUint8(); err != nil {
				return fmt.Errorf("unable to decode creator %d: %w", i, err)
			}
		}
	}

	// Trailing flags are absent on some early accounts
	if decoder.Remaining() < 2 {
		return nil
	}
	if m.PrimarySaleHappened, err = decoder.ReadBool(); err != nil {
		return fmt.Errorf("unable to decode primary sale flag: %w", err)
	}
	if m.IsMutable, err = decoder.ReadBool(); err != nil {
		return fmt.Errorf("unable to decode mutable flag: %w", err)
	}
	return nil
}

func writePadded(encoder *bin.Encoder, field, value string, width int) error {
	if len(value) > width {
		return fmt.Errorf("%s is %d bytes, max %d", field, len(value), width)
	}
	padded := make([]byte, width)
	copy(padded, value)
	if err := encoder.WriteUint32(uint32(width), bin.LE); err != nil {
		return err
	}
	return encoder.WriteBytes(padded, false)
}

func readPadded(decoder *bin.Decoder) (string, error) {
	length, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return "", err
	}
	if int(length) > decoder.Remaining() {
		return "", fmt.Errorf("string length %d exceeds remaining %d bytes", length, decoder.Remaining())
	}
	raw, err := decoder.ReadNBytes(int(length))
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(raw), "\x00"), nil
}

func readPublicKey(decoder *bin.Decoder) (solana.PublicKey, error) {
	raw, err := decoder.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}
