package block

import (
	"fmt"

	"github.com/thepower/tpgo/pkg/core/transaction"
	"github.com/thepower/tpgo/pkg/txerr"
)

// SignaturePolicy defines how signatures made by the same validator key are
// counted towards the quorum.
type SignaturePolicy uint8

const (
	// CountDistinct counts each validator key once no matter how many valid
	// signatures it made.
	CountDistinct SignaturePolicy = iota
	// CountEach counts every valid signature instance.
	CountEach
)

// ParseSignaturePolicy converts configuration string into SignaturePolicy,
// empty string means CountDistinct.
func ParseSignaturePolicy(s string) (SignaturePolicy, error) {
	switch s {
	case "", "distinct":
		return CountDistinct, nil
	case "each":
		return CountEach, nil
	default:
		return 0, fmt.Errorf("%w: unknown signature count policy %q", txerr.ErrConfiguration, s)
	}
}

// ValidatorSet is a set of validator public keys (compressed form).
type ValidatorSet map[string]struct{}

// NewValidatorSet creates a set from the list of keys.
func NewValidatorSet(keys ...[]byte) ValidatorSet {
	vs := make(ValidatorSet, len(keys))
	for _, k := range keys {
		vs[string(k)] = struct{}{}
	}
	return vs
}

// Contains checks whether the key is a member of the set.
func (vs ValidatorSet) Contains(key []byte) bool {
	_, ok := vs[string(key)]
	return ok
}

// CountValidSignatures returns the number of block signatures made by
// validator set members that verify against the header hash.
func (b *Block) CountValidSignatures(vs ValidatorSet, policy SignaturePolicy) int {
	var (
		h     = b.Header.Hash()
		n     int
		known = make(map[string]struct{})
	)
	for _, s := range b.Sign {
		pub, err := transaction.SignerKey(s)
		if err != nil || !vs.Contains(pub) {
			continue
		}
		if policy == CountDistinct {
			if _, ok := known[string(pub)]; ok {
				continue
			}
		}
		if !transaction.VerifySingle(h[:], s) {
			continue
		}
		known[string(pub)] = struct{}{}
		n++
	}
	return n
}

// Verify checks that the block has at least minSig valid validator
// signatures and returns the number of counted signatures.
func (b *Block) Verify(vs ValidatorSet, minSig int, policy SignaturePolicy) (int, error) {
	if minSig <= 0 {
		return 0, fmt.Errorf("%w: invalid minsig %d", txerr.ErrConfiguration, minSig)
	}
	n := b.CountValidSignatures(vs, policy)
	if n < minSig {
		return n, fmt.Errorf("%w: %d valid signatures of %d required", txerr.ErrBlockInvalid, n, minSig)
	}
	return n, nil
}
