package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"gopkg.in/yaml.v3"
)

func writeBMP(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 100, A: 255})
		}
	}
	path := filepath.Join(dir, "in.bmp")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, bmp.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func encoded(t *testing.T, dir, name, codec string) string {
	t.Helper()
	out := filepath.Join(dir, name)
	c := &encodeCmd{codec: codec, mipmaps: true}
	require.NoError(t, c.run(writeBMP(t, dir, 32, 32), out))
	return out
}

// inspect runs the inspect command with args and returns its report output.
func inspect(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := &inspectCmd{out: &out, log: io.Discard}
	fl := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	c.RegisterFlags(fl)
	require.NoError(t, fl.Parse(args))
	err := c.run(context.Background(), fl)
	return out.String(), err
}

func TestEncodeThenInspect(t *testing.T) {
	dir := t.TempDir()
	path := encoded(t, dir, "tex.dds", "dxt1")
	dumpDir := filepath.Join(dir, "dump")

	out, err := inspect(t, "--config", filepath.Join(dir, "none.yaml"), "--report", "json", "--dump", dumpDir, path)
	require.Error(t, err, "an explicit config path must exist")
	require.Empty(t, out)

	out, err = inspect(t, "--report", "json", "--dump", dumpDir, path)
	require.NoError(t, err)

	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	require.Len(t, r.Files, 1)
	f := r.Files[0]
	require.Empty(t, f.Error)
	require.Equal(t, "DXT1", f.FourCC)
	require.Equal(t, uint32(32), f.Width)
	require.Equal(t, uint32(6), f.MipMapCount)
	require.Len(t, f.Levels, 6)
	require.Equal(t, 4, f.Selected.Level)
	require.False(t, f.Selected.Fallback)
	require.Equal(t, uint32(2), f.Uploaded.Width)
	require.Equal(t, "shader-read-only", f.Uploaded.Layout)
	require.Equal(t, filepath.Join(dumpDir, "tex.bmp"), f.Dump)

	raw, err := os.ReadFile(f.Dump)
	require.NoError(t, err)
	img, err := bmp.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
}

func TestInspectWideSingleLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wide.dds")
	c := &encodeCmd{codec: "dxt1"}
	require.NoError(t, c.run(writeBMP(t, dir, 16, 4), path))

	out, err := inspect(t, "--report", "json", path)
	require.NoError(t, err)

	var r report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	f := r.Files[0]
	require.Empty(t, f.Error)
	require.True(t, f.Selected.Fallback)
	require.Equal(t, uint64(32), f.Selected.Required)
	require.Equal(t, uint32(16), f.Uploaded.Width)
	require.Equal(t, uint32(4), f.Uploaded.Height)
}

func TestInspectConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := encoded(t, dir, "tex.dds", "dxt5")
	cfg := filepath.Join(dir, "vktex.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("threads: 1\nlayout: general\nreport: json\n"), 0666))

	// report comes from the flag, layout from the file
	out, err := inspect(t, "--config", cfg, "--report", "yaml", path)
	require.NoError(t, err)

	var r report
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	require.Len(t, r.Files, 1)
	require.Equal(t, "general", r.Files[0].Uploaded.Layout)
	require.Equal(t, "BC5", r.Files[0].Format)

	require.NoError(t, os.WriteFile(cfg, []byte("colour: red\n"), 0666))
	_, err = inspect(t, "--config", cfg, path)
	require.ErrorContains(t, err, "parse config")
}

func TestInspectReportsFailures(t *testing.T) {
	dir := t.TempDir()
	good := encoded(t, dir, "good.dds", "dxt3")
	bad := filepath.Join(dir, "bad.dds")
	require.NoError(t, os.WriteFile(bad, []byte("not a texture"), 0666))

	out, err := inspect(t, good, bad, filepath.Join(dir, "missing.dds"))
	require.EqualError(t, err, "2 of 3 files failed")

	var r report
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	require.Len(t, r.Files, 3)
	require.Empty(t, r.Files[0].Error)
	require.Contains(t, r.Files[1].Error, "malformed header")
	require.Contains(t, r.Files[2].Error, "file not found")
}

func TestInspectRejectsFlags(t *testing.T) {
	path := encoded(t, t.TempDir(), "tex.dds", "dxt1")

	_, err := inspect(t, "--layout", "sideways", path)
	require.ErrorContains(t, err, "unknown layout")
	_, err = inspect(t, "--report", "xml", path)
	require.ErrorContains(t, err, "unknown report format")
	_, err = inspect(t, "--backend", "metal", path)
	require.ErrorContains(t, err, "unknown backend")
}

func TestEncodeErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeBMP(t, dir, 8, 8)

	c := &encodeCmd{codec: "bc7"}
	require.Error(t, c.run(in, filepath.Join(dir, "out.dds")))

	c = &encodeCmd{codec: "dxt1"}
	require.ErrorContains(t, c.run(filepath.Join(dir, "in.png"), filepath.Join(dir, "out.dds")), "open")

	png := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(png, []byte("x"), 0666))
	require.ErrorContains(t, c.run(png, filepath.Join(dir, "out.dds")), "unsupported image type")
}

func TestLoadConfigMissing(t *testing.T) {
	c, err := loadConfig(filepath.Join(t.TempDir(), "vktex.yaml"), false)
	require.NoError(t, err)
	require.Equal(t, config{}, c)
}
