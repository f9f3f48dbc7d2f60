package dds

import "fmt"

// MipLevel is one entry of a mip chain as laid out in the file.
type MipLevel struct {
	Level  int
	Width  uint32
	Height uint32
	Size   uint64
	Offset uint64
	// Degenerate is set when a halving reached zero in either dimension.
	// Such levels still occupy one block row in the file.
	Degenerate bool
}

// Odd reports whether the level does not fill whole 4x4 blocks.
func (m MipLevel) Odd() bool {
	return m.Width%4 != 0 || m.Height%4 != 0
}

// MipPlan is the ordered chain, base level first.
type MipPlan []MipLevel

// levelSize is the byte size of a w x h level. Zero extents cover one block.
func levelSize(w, h, blockSize uint32) uint64 {
	bw := max(1, (uint64(w)+3)/4)
	bh := max(1, (uint64(h)+3)/4)
	return bw * bh * uint64(blockSize)
}

// MaxMipLevels is the longest chain a 32-bit extent can halve through.
const MaxMipLevels = 32

// checkMipCount rejects counts no 32-bit extent can produce.
func checkMipCount(mipCount uint32) error {
	if mipCount > MaxMipLevels {
		return fmt.Errorf("%w: mipMapCount %d exceeds %d", ErrMalformedHeader, mipCount, MaxMipLevels)
	}
	return nil
}

// PlanMipChain lays out mipCount levels starting at width x height.
// A mipCount of zero plans a single level; counts above MaxMipLevels are
// cut to MaxMipLevels.
func PlanMipChain(width, height, mipCount, blockSize uint32) MipPlan {
	mipCount = min(max(1, mipCount), MaxMipLevels)
	plan := make(MipPlan, 0, mipCount)
	var offset uint64
	w, h := width, height
	for i := range int(mipCount) {
		size := levelSize(w, h, blockSize)
		plan = append(plan, MipLevel{
			Level:      i,
			Width:      w,
			Height:     h,
			Size:       size,
			Offset:     offset,
			Degenerate: w == 0 || h == 0,
		})
		offset += size
		w /= 2
		h /= 2
	}
	return plan
}

// TotalSize is the number of payload bytes the chain occupies.
func (p MipPlan) TotalSize() uint64 {
	if len(p) == 0 {
		return 0
	}
	last := p[len(p)-1]
	return last.Offset + last.Size
}

// Preferred returns the second-to-last level, which is the one uploaded
// when the chain has at least two levels.
func (p MipPlan) Preferred() (MipLevel, bool) {
	if len(p) < 2 {
		return MipLevel{}, false
	}
	return p[len(p)-2], true
}

// Degenerate returns the levels with a zero extent.
func (p MipPlan) Degenerate() []MipLevel {
	var out []MipLevel
	for _, l := range p {
		if l.Degenerate {
			out = append(out, l)
		}
	}
	return out
}
