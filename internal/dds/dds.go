// Package dds loads block-compressed DirectDraw Surface textures onto the GPU.
//
// Only the 128-byte legacy header and the DXT1/DXT3/DXT5 FourCC tags are
// understood. Pixel data is never decoded on the load path: the compressed
// blocks are copied to a device image as-is.
//
// See also:
// https://learn.microsoft.com/en-us/windows/win32/direct3ddds/dds-header
package dds

const (
	ddsMagic = "DDS "

	// HeaderSize covers the magic plus the 124-byte DDS_HEADER.
	HeaderSize    = 128
	ddsHeaderSize = 124
	ddsPfSize     = 32
	pfOffset      = 76 // pixel format, from the start of the file

	// DDSD flags
	DDSD_CAPS        = 0x1
	DDSD_HEIGHT      = 0x2
	DDSD_WIDTH       = 0x4
	DDSD_PITCH       = 0x8
	DDSD_PIXELFORMAT = 0x1000
	DDSD_MIPMAPCOUNT = 0x20000
	DDSD_LINEARSIZE  = 0x80000
	DDSD_DEPTH       = 0x800000

	// Pixel format flags
	DDPF_ALPHAPIXELS = 0x1
	DDPF_ALPHA       = 0x2
	DDPF_FOURCC      = 0x4
	DDPF_RGB         = 0x40
	DDPF_YUV         = 0x200
	DDPF_LUMINANCE   = 0x20000

	// Caps
	DDSCAPS_COMPLEX = 0x8
	DDSCAPS_TEXTURE = 0x1000
	DDSCAPS_MIPMAP  = 0x400000

	// Caps2
	DDSCAPS2_CUBEMAP = 0x200
	DDSCAPS2_VOLUME  = 0x200000
)
