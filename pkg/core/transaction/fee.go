package transaction

import (
	"github.com/thepower/tpgo/pkg/txerr"
)

// MaxFeeRounds limits the number of fee recomputations, fee amount encoding
// width can in theory flip between two sizes forever.
const MaxFeeRounds = 16

// FeeSettings are network fee parameters for a single fee currency: base Fee,
// BaseEx size threshold (in bytes) and KB surcharge per kilobyte above it.
type FeeSettings struct {
	FeeCur string `json:"feeCur" yaml:"FeeCur"`
	Fee    uint64 `json:"fee" yaml:"Fee"`
	BaseEx uint64 `json:"baseEx" yaml:"BaseEx"`
	KB     uint64 `json:"kb" yaml:"KB"`
}

// Complete returns true if all fee parameters are set. Incomplete settings
// disable fee computation.
func (f FeeSettings) Complete() bool {
	return f.FeeCur != "" && f.Fee != 0 && f.BaseEx != 0 && f.KB != 0
}

// amount returns the fee for a body of the given encoded size.
func (f FeeSettings) amount(size int) uint64 {
	if uint64(size) <= f.BaseEx {
		return f.Fee
	}
	return f.Fee + (uint64(size)-f.BaseEx)*f.KB/1024
}

// ComputeFee sets the SRCFEE purpose entry of the body so that it pays for the
// body's own encoded size. The body is left untouched if fee settings are
// incomplete. An existing SRCFEE entry is replaced, so the result doesn't
// change when ComputeFee is applied again.
func ComputeFee(b *Body, fs FeeSettings) error {
	if !fs.Complete() {
		return nil
	}
	idx := -1
	ps := b.Purposes[:0:0]
	for _, p := range b.Purposes {
		if p.Purpose == PurposeSrcFee {
			if idx >= 0 {
				continue // At most one SRCFEE entry.
			}
			idx = len(ps)
		}
		ps = append(ps, p)
	}
	if b.Purposes != nil {
		b.Purposes = ps
	}
	if idx < 0 {
		b.Purposes = append(b.Purposes, PurposeEntry{Purpose: PurposeSrcFee})
		idx = len(b.Purposes) - 1
	}
	b.Purposes[idx].Token = fs.FeeCur
	b.Purposes[idx].Amount = fs.Fee

	for i := 0; i < MaxFeeRounds; i++ {
		raw, err := b.Bytes()
		if err != nil {
			return err
		}
		size := len(raw)
		b.Purposes[idx].Amount = fs.amount(size)
		raw, err = b.Bytes()
		if err != nil {
			return err
		}
		if len(raw) == size {
			return nil
		}
	}
	return txerr.ErrFeeNotConverged
}
