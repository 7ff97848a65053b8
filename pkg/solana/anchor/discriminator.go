package anchor

import (
	"crypto/sha256"
	"strings"
	"unicode"
)

// DiscriminatorLength is the prefix Anchor puts in front of instruction data
// and account data
const DiscriminatorLength = 8

// InstructionDiscriminator returns the sighash of an instruction. IDL names are
// camelCase, the hashed name is snake_case.
func InstructionDiscriminator(name string) [DiscriminatorLength]byte {
	return hashPrefix("global:" + SnakeCase(name))
}

// AccountDiscriminator returns the tag of an account type such as "CandyMachine"
func AccountDiscriminator(name string) [DiscriminatorLength]byte {
	return hashPrefix("account:" + name)
}

func hashPrefix(preimage string) [DiscriminatorLength]byte {
	sum := sha256.Sum256([]byte(preimage))
	var out [DiscriminatorLength]byte
	copy(out[:], sum[:DiscriminatorLength])
	return out
}

func SnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
