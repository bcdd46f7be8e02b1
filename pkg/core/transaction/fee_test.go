package transaction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeFeeIncompleteSettings(t *testing.T) {
	for _, fs := range []FeeSettings{
		{},
		{Fee: 10, BaseEx: 200, KB: 5},
		{FeeCur: "X", BaseEx: 200, KB: 5},
		{FeeCur: "X", Fee: 10, KB: 5},
		{FeeCur: "X", Fee: 10, BaseEx: 200},
	} {
		b := testTransferBody()
		require.NoError(t, ComputeFee(b, fs))
		require.Equal(t, testTransferBody(), b)
	}
}

func TestComputeFeeSmallBody(t *testing.T) {
	b := testTransferBody()
	fs := FeeSettings{FeeCur: "X", Fee: 10, BaseEx: 200, KB: 5}
	require.NoError(t, ComputeFee(b, fs))

	p, ok := b.SourceFee()
	require.True(t, ok)
	require.Equal(t, PurposeEntry{Purpose: PurposeSrcFee, Token: "X", Amount: 10}, p)
	require.Len(t, b.Purposes, 2)
}

func TestComputeFeeLargeBody(t *testing.T) {
	b := testTransferBody()
	b.Ext["msg"] = strings.Repeat("a", 3000)
	fs := FeeSettings{FeeCur: "SK", Fee: 1000, BaseEx: 64, KB: 100000}
	require.NoError(t, ComputeFee(b, fs))

	raw, err := b.Bytes()
	require.NoError(t, err)
	p, ok := b.SourceFee()
	require.True(t, ok)
	require.Equal(t, fs.Fee+(uint64(len(raw))-fs.BaseEx)*fs.KB/1024, p.Amount)
}

func TestComputeFeeIdempotent(t *testing.T) {
	for _, size := range []int{0, 100, 190, 300, 5000, 70000} {
		b := testTransferBody()
		b.Ext["msg"] = strings.Repeat("m", size)
		fs := FeeSettings{FeeCur: "X", Fee: 10, BaseEx: 200, KB: 5000}
		require.NoError(t, ComputeFee(b, fs))
		first, err := b.Bytes()
		require.NoError(t, err)

		require.NoError(t, ComputeFee(b, fs))
		second, err := b.Bytes()
		require.NoError(t, err)
		require.Equal(t, first, second, "size %d", size)

		n := 0
		for _, p := range b.Purposes {
			if p.Purpose == PurposeSrcFee {
				n++
			}
		}
		require.Equal(t, 1, n)
	}
}

func TestComputeFeeSingleSrcFee(t *testing.T) {
	b := testTransferBody()
	b.Purposes = append(b.Purposes,
		PurposeEntry{Purpose: PurposeSrcFee, Token: "Y", Amount: 1},
		PurposeEntry{Purpose: PurposeDstFee, Token: "Y", Amount: 2},
		PurposeEntry{Purpose: PurposeSrcFee, Token: "Y", Amount: 3},
	)
	require.NoError(t, ComputeFee(b, FeeSettings{FeeCur: "X", Fee: 10, BaseEx: 200, KB: 5}))
	require.Equal(t, []PurposeEntry{
		{Purpose: PurposeTransfer, Token: "X", Amount: 100},
		{Purpose: PurposeSrcFee, Token: "X", Amount: 10},
		{Purpose: PurposeDstFee, Token: "Y", Amount: 2},
	}, b.Purposes)
}

func TestComputeFeeTransferScenario(t *testing.T) {
	b := testTransferBody()
	fs := FeeSettings{FeeCur: "X", Fee: 10, BaseEx: 200, KB: 5}
	require.NoError(t, ComputeFee(b, fs))
	before := b.Copy()
	require.NoError(t, ComputeFee(b, fs))
	require.Equal(t, before, b)
}
