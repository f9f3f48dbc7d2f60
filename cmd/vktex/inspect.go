package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/spf13/pflag"
	"go.coder.com/cli"
	"golang.org/x/image/bmp"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/erinpentecost/vktex/internal/dds"
	"github.com/erinpentecost/vktex/internal/gpu"
	"github.com/erinpentecost/vktex/internal/hostgpu"
	"github.com/erinpentecost/vktex/internal/texture"
	"github.com/erinpentecost/vktex/internal/vkgpu"
)

type inspectCmd struct {
	configPath string
	threads    int
	layout     string
	dump       string
	report     string
	backend    string
	exact      bool

	out io.Writer
	log io.Writer
}

func (c *inspectCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "inspect",
		Usage: "[flags] <file.dds>...",
		Desc:  "Upload each texture and report the header, mip plan and the level that was copied.",
	}
}

func (c *inspectCmd) RegisterFlags(fl *pflag.FlagSet) {
	fl.StringVar(&c.configPath, "config", "vktex.yaml", "YAML file with default flag values")
	fl.IntVarP(&c.threads, "threads", "t", 4, "files to load at once")
	fl.StringVar(&c.layout, "layout", gpu.LayoutName(dds.DefaultOutputLayout), "image layout after upload")
	fl.StringVar(&c.dump, "dump", "", "directory to write the uploaded level to as BMP")
	fl.StringVar(&c.report, "report", "yaml", "report format: yaml or json")
	fl.StringVar(&c.backend, "backend", "host", "upload target: host or vulkan")
	fl.BoolVar(&c.exact, "exact-fallback", false, "size base-level fallbacks from width and height")
}

func (c *inspectCmd) Run(fl *pflag.FlagSet) {
	if fl.NArg() == 0 {
		fl.Usage()
		os.Exit(2)
	}
	if err := c.run(context.Background(), fl); err != nil {
		fail(err)
	}
}

type backend struct {
	newFactory func() gpu.Factory
	pool       gpu.CommandBufferPool
	host       bool
	close      func()
}

func openBackend(name string) (*backend, error) {
	switch name {
	case "host":
		return &backend{
			newFactory: func() gpu.Factory { return hostgpu.NewFactory() },
			pool:       &hostgpu.Pool{},
			host:       true,
			close:      func() {},
		}, nil
	case "vulkan":
		dev, err := vkgpu.Open("vktex")
		if err != nil {
			return nil, fmt.Errorf("open vulkan device: %w", err)
		}
		pool, err := vkgpu.NewCommandPool(dev)
		if err != nil {
			dev.Close()
			return nil, err
		}
		return &backend{
			newFactory: func() gpu.Factory { return vkgpu.NewFactory(dev) },
			pool:       pool,
			close: func() {
				pool.Destroy()
				dev.Close()
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

func (c *inspectCmd) run(ctx context.Context, fl *pflag.FlagSet) error {
	cfg, err := loadConfig(c.configPath, fl.Changed("config"))
	if err != nil {
		return err
	}
	cfg.apply(fl, c)

	if c.out == nil {
		c.out = os.Stdout
	}
	if c.log == nil {
		c.log = os.Stderr
	}
	layout, ok := gpu.ParseLayout(c.layout)
	if !ok {
		return fmt.Errorf("unknown layout %q", c.layout)
	}
	if c.report != "yaml" && c.report != "json" {
		return fmt.Errorf("unknown report format %q", c.report)
	}
	if c.dump != "" {
		if err := os.MkdirAll(c.dump, 0777); err != nil {
			return fmt.Errorf("create dump dir: %w", err)
		}
	}

	b, err := openBackend(c.backend)
	if err != nil {
		return err
	}
	defer b.close()
	if c.dump != "" && !b.host {
		return fmt.Errorf("--dump needs the host backend")
	}

	var logMux sync.Mutex
	ddsLoader := &dds.Loader{
		ExactFallback: c.exact,
		Logf: func(format string, args ...any) {
			logMux.Lock()
			defer logMux.Unlock()
			fmt.Fprintf(c.log, format, args...)
		},
	}
	loader := texture.NewLoader(ddsLoader)
	loader.Layout = layout

	paths := fl.Args()
	entries := make([]fileReport, len(paths))
	var resMux sync.Mutex
	var resources []gpu.Resource
	defer func() {
		for _, res := range resources {
			res.Destroy()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, c.threads))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry := fileReport{Path: path}
			res, err := c.inspectFile(ddsLoader, loader, b, path, &entry)
			if err != nil {
				entry.Error = err.Error()
			}
			if res != nil {
				resMux.Lock()
				resources = append(resources, res)
				resMux.Unlock()
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := writeReport(c.out, c.report, entries); err != nil {
		return err
	}
	failed := 0
	for _, e := range entries {
		if e.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(entries))
	}
	return nil
}

func (c *inspectCmd) inspectFile(ddsLoader *dds.Loader, loader *texture.Loader, b *backend, path string, entry *fileReport) (gpu.Resource, error) {
	if strings.EqualFold(filepath.Ext(path), ".dds") {
		info, err := ddsLoader.ReadInfo(path)
		if err != nil {
			return nil, err
		}
		entry.describe(info)
	}

	res, err := loader.Load(path, b.newFactory(), b.pool)
	if err != nil {
		return nil, err
	}
	entry.Uploaded = &uploadReport{
		Width:  res.Width(),
		Height: res.Height(),
		Layout: gpu.LayoutName(loader.Layout),
	}

	if c.dump != "" {
		name, err := dumpLevel(c.dump, path, res, entry.FourCC)
		if err != nil {
			return res, err
		}
		entry.Dump = name
	}
	return res, nil
}

// dumpLevel decodes the bytes a host texture received and writes them as BMP.
func dumpLevel(dir, path string, res gpu.Resource, fourCC string) (string, error) {
	tex, ok := res.(*hostgpu.Texture)
	if !ok {
		return "", fmt.Errorf("dump %q: not a host texture", path)
	}
	img, err := dds.DecodeLevel(tex.Data, fourCC, res.Width(), res.Height())
	if err != nil {
		return "", fmt.Errorf("dump %q: %w", path, err)
	}
	name := filepath.Join(dir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".bmp")
	f, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", name, err)
	}
	if err := bmp.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encode %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %q: %w", name, err)
	}
	return name, nil
}

type report struct {
	Files []fileReport `yaml:"files" json:"files"`
}

type fileReport struct {
	Path        string        `yaml:"path" json:"path"`
	Width       uint32        `yaml:"width,omitempty" json:"width,omitempty"`
	Height      uint32        `yaml:"height,omitempty" json:"height,omitempty"`
	MipMapCount uint32        `yaml:"mipMapCount,omitempty" json:"mipMapCount,omitempty"`
	FourCC      string        `yaml:"fourCC,omitempty" json:"fourCC,omitempty"`
	Format      string        `yaml:"format,omitempty" json:"format,omitempty"`
	VkFormat    vk.Format     `yaml:"vkFormat,omitempty" json:"vkFormat,omitempty"`
	Payload     uint64        `yaml:"payloadBytes,omitempty" json:"payloadBytes,omitempty"`
	Levels      []levelReport `yaml:"levels,omitempty" json:"levels,omitempty"`
	Selected    *selection    `yaml:"selected,omitempty" json:"selected,omitempty"`
	Uploaded    *uploadReport `yaml:"uploaded,omitempty" json:"uploaded,omitempty"`
	Dump        string        `yaml:"dump,omitempty" json:"dump,omitempty"`
	Error       string        `yaml:"error,omitempty" json:"error,omitempty"`
}

type levelReport struct {
	Level      int    `yaml:"level" json:"level"`
	Width      uint32 `yaml:"width" json:"width"`
	Height     uint32 `yaml:"height" json:"height"`
	Offset     uint64 `yaml:"offset" json:"offset"`
	Size       uint64 `yaml:"size" json:"size"`
	Degenerate bool   `yaml:"degenerate,omitempty" json:"degenerate,omitempty"`
}

type selection struct {
	Level    int    `yaml:"level" json:"level"`
	Offset   uint64 `yaml:"offset" json:"offset"`
	Size     uint64 `yaml:"size" json:"size"`
	Fallback bool   `yaml:"fallback" json:"fallback"`
	Required uint64 `yaml:"requiredBytes" json:"requiredBytes"`
}

type uploadReport struct {
	Width  uint32 `yaml:"width" json:"width"`
	Height uint32 `yaml:"height" json:"height"`
	Layout string `yaml:"layout" json:"layout"`
}

func (e *fileReport) describe(info *dds.Info) {
	e.Width = info.Header.Width
	e.Height = info.Header.Height
	e.MipMapCount = info.Header.MipMapCount
	e.FourCC = info.Header.FourCC()
	e.Format = info.Format.Name
	e.VkFormat = info.Format.VkFormat
	e.Payload = info.Plan.TotalSize()
	for _, lvl := range info.Plan {
		e.Levels = append(e.Levels, levelReport{
			Level:      lvl.Level,
			Width:      lvl.Width,
			Height:     lvl.Height,
			Offset:     lvl.Offset,
			Size:       lvl.Size,
			Degenerate: lvl.Degenerate,
		})
	}
	s := info.Selection
	e.Selected = &selection{
		Level:    s.Level,
		Offset:   s.Offset,
		Size:     s.Size,
		Fallback: s.Fallback,
		Required: s.Required,
	}
}

func writeReport(w io.Writer, format string, files []fileReport) error {
	r := report{Files: files}
	if format == "json" {
		raw, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report json: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("marshal report yaml: %w", err)
	}
	return enc.Close()
}
