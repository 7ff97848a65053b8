// Package metadata holds the fixed-width layout of token metadata accounts and
// the codec both the scanner and tests use to read and write them.
package metadata

import "fmt"

const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxURILength    = 200
	MaxCreatorLimit = 5

	// address + verified + share
	CreatorLength = 32 + 1 + 1

	// borsh length prefix of strings and vectors
	lengthPrefix = 4
)

// Field is one fixed-width slot in the metadata account
type Field struct {
	Name string
	Size int
}

// Layout lists the metadata account fields in on-chain order. Strings are
// padded to their maximum width by the candy machine, which is what makes the
// offsets stable enough to filter on.
var Layout = []Field{
	{Name: "key", Size: 1},
	{Name: "update_authority", Size: 32},
	{Name: "mint", Size: 32},
	{Name: "name", Size: lengthPrefix + MaxNameLength},
	{Name: "symbol", Size: lengthPrefix + MaxSymbolLength},
	{Name: "uri", Size: lengthPrefix + MaxURILength},
	{Name: "seller_fee_basis_points", Size: 2},
	{Name: "creators_present", Size: 1},
	{Name: "creators_len", Size: lengthPrefix},
	{Name: "creators", Size: MaxCreatorLimit * CreatorLength},
	{Name: "primary_sale_happened", Size: 1},
	{Name: "is_mutable", Size: 1},
}

// Offset returns the byte offset of the named field
func Offset(name string) (int, error) {
	offset := 0
	for _, field := range Layout {
		if field.Name == name {
			return offset, nil
		}
		offset += field.Size
	}
	return 0, fmt.Errorf("unknown metadata field %q", name)
}

// CreatorOffset returns the offset of the creator at index i
func CreatorOffset(i int) int {
	return mustOffset("creators") + i*CreatorLength
}

// FirstCreatorOffset is where the candy machine's own address sits in every
// metadata account it minted
var FirstCreatorOffset = CreatorOffset(0)

func mustOffset(name string) int {
	offset, err := Offset(name)
	if err != nil {
		panic(err)
	}
	return offset
}
