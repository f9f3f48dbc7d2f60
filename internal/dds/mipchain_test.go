package dds

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelSize(t *testing.T) {
	require.Equal(t, uint64(32), levelSize(6, 6, 8))
	require.Equal(t, uint64(8), levelSize(1, 1, 8))
	require.Equal(t, uint64(16), levelSize(0, 0, 16))
	require.Equal(t, uint64(16*16*16), levelSize(64, 64, 16))
}

func TestPlanMipChain64(t *testing.T) {
	plan := PlanMipChain(64, 64, 7, 8)
	require.Len(t, plan, 7)

	wantDims := []uint32{64, 32, 16, 8, 4, 2, 1}
	wantSizes := []uint64{2048, 512, 128, 32, 8, 8, 8}
	var offset uint64
	for i, lvl := range plan {
		require.Equal(t, i, lvl.Level)
		require.Equal(t, wantDims[i], lvl.Width)
		require.Equal(t, wantDims[i], lvl.Height)
		require.Equal(t, wantSizes[i], lvl.Size, "level %d", i)
		require.Equal(t, offset, lvl.Offset, "level %d", i)
		require.False(t, lvl.Degenerate)
		offset += lvl.Size
	}
	require.Equal(t, uint64(2744), plan.TotalSize())

	pref, ok := plan.Preferred()
	require.True(t, ok)
	require.Equal(t, 5, pref.Level)
	require.Equal(t, uint32(2), pref.Width)
	require.Equal(t, uint32(2), pref.Height)
	require.Equal(t, uint64(2728), pref.Offset)
}

func TestPlanMipChainDegenerate(t *testing.T) {
	plan := PlanMipChain(8, 2, 4, 8)
	require.Len(t, plan, 4)

	require.Equal(t, []uint64{16, 8, 8, 8}, []uint64{plan[0].Size, plan[1].Size, plan[2].Size, plan[3].Size})
	require.Equal(t, []uint64{0, 16, 24, 32}, []uint64{plan[0].Offset, plan[1].Offset, plan[2].Offset, plan[3].Offset})
	require.Equal(t, uint32(2), plan[2].Width)
	require.Equal(t, uint32(0), plan[2].Height)

	degenerate := plan.Degenerate()
	require.Len(t, degenerate, 2)
	require.Equal(t, 2, degenerate[0].Level)
	require.Equal(t, 3, degenerate[1].Level)
	require.Equal(t, uint64(40), plan.TotalSize())
}

func TestPlanMipChainSingle(t *testing.T) {
	for _, count := range []uint32{0, 1} {
		plan := PlanMipChain(16, 8, count, 16)
		require.Len(t, plan, 1)
		require.Equal(t, uint64(4*2*16), plan[0].Size)
		_, ok := plan.Preferred()
		require.False(t, ok)
	}
}

func TestMipLevelOdd(t *testing.T) {
	require.False(t, MipLevel{Width: 8, Height: 4}.Odd())
	require.True(t, MipLevel{Width: 6, Height: 4}.Odd())
	require.True(t, MipLevel{Width: 2, Height: 2}.Odd())
}

func TestPlanMipChainCapsCount(t *testing.T) {
	plan := PlanMipChain(16, 16, 0xFFFFFFFF, 8)
	require.Len(t, plan, MaxMipLevels)
	require.True(t, plan[MaxMipLevels-1].Degenerate)
	require.NoError(t, checkMipCount(MaxMipLevels))
	require.ErrorIs(t, checkMipCount(MaxMipLevels+1), ErrMalformedHeader)
}
