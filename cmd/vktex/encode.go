package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/dblezek/tga"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
	"golang.org/x/image/bmp"

	"github.com/erinpentecost/vktex/internal/dds"
)

type encodeCmd struct {
	codec   string
	mipmaps bool
	pot     bool
}

func (c *encodeCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "encode",
		Usage: "[flags] <in.bmp|in.tga> <out.dds>",
		Desc:  "Compress an image into a DXT1, DXT3 or DXT5 DDS file.",
	}
}

func (c *encodeCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.StringVarP(&c.codec, "codec", "c", "dxt5", "dxt1, dxt3 or dxt5")
	fl.BoolVarP(&c.mipmaps, "mipmaps", "m", true, "write a full mip chain")
	fl.BoolVar(&c.pot, "pot", false, "scale up to power-of-two sides before encoding")
}

func (c *encodeCmd) Run(fl *pflag.FlagSet) {
	if fl.NArg() != 2 {
		fl.Usage()
		os.Exit(2)
	}
	if err := c.run(fl.Arg(0), fl.Arg(1)); err != nil {
		fail(err)
	}
}

func (c *encodeCmd) run(in, out string) error {
	codec, err := dds.ParseCodec(c.codec)
	if err != nil {
		return err
	}
	img, err := readImage(in)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %q: %w", out, err)
	}
	if err := dds.Encode(f, img, codec, dds.EncodeOptions{Mipmaps: c.mipmaps, PowerOfTwo: c.pot}); err != nil {
		f.Close()
		return fmt.Errorf("encode %q: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %q: %w", out, err)
	}
	fmt.Printf("Wrote %s texture to %q.\n", codec, out)
	return nil
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	var img image.Image
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".bmp":
		img, err = bmp.Decode(f)
	case ".tga":
		img, err = tga.Decode(f)
	default:
		return nil, fmt.Errorf("read %q: unsupported image type %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	return img, nil
}
