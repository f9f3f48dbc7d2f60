package dds

import (
	"fmt"

	vk "github.com/goki/vulkan"
)

// Format is a resolved GPU pixel format.
type Format struct {
	Name      string
	VkFormat  vk.Format
	BlockSize uint32
}

var (
	FormatBC1 = Format{Name: "BC1", VkFormat: vk.FormatBc1RgbaUnormBlock, BlockSize: 8}
	FormatBC3 = Format{Name: "BC3", VkFormat: vk.FormatBc3UnormBlock, BlockSize: 16}
	FormatBC5 = Format{Name: "BC5", VkFormat: vk.FormatBc5UnormBlock, BlockSize: 16}
)

// ResolveFormat maps a FourCC tag to a GPU format by its last character.
// The tag must start with 'D'; DX10 and everything else is refused.
func ResolveFormat(fourCC [4]byte) (Format, error) {
	if fourCC[0] != 'D' {
		return Format{}, fmt.Errorf("%w: fourCC %q", ErrUnsupportedFormat, fourCC[:])
	}
	switch fourCC[3] {
	case '1':
		return FormatBC1, nil
	case '3':
		return FormatBC3, nil
	case '5':
		return FormatBC5, nil
	default:
		return Format{}, fmt.Errorf("%w: fourCC %q", ErrUnsupportedFormat, fourCC[:])
	}
}
