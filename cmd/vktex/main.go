package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.coder.com/cli"
)

type rootCmd struct{}

func (r *rootCmd) Run(fl *pflag.FlagSet) {
	fl.Usage()
	os.Exit(2)
}

func (r *rootCmd) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:  "vktex",
		Usage: "[subcommand]",
		Desc:  "Load block-compressed DDS textures the way the renderer does, or write new ones.",
	}
}

func (r *rootCmd) Subcommands() []cli.Command {
	return []cli.Command{
		&inspectCmd{},
		&encodeCmd{},
	}
}

// fail reports err and exits.
func fail(err error) {
	fmt.Printf("FAILED: %v\n", err)
	os.Exit(33)
}

func main() {
	cli.RunRoot(&rootCmd{})
}
