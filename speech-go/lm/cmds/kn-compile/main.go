package main

import (
	"fmt"
	"io"
	"os"

	arg "github.com/alexflint/go-arg"
	"github.com/kiteco/speechlm/speech-go/lm/compiler"
	"github.com/kiteco/speechlm/speech-go/lm/config"
	"github.com/kiteco/speechlm/speech-golib/lmlog"
)

type args struct {
	Input   string `arg:"positional,required" help:"n-gram counts, one \"w1 ... wk count\" record per line"`
	Output  string `arg:"positional,required" help:"path of the ARPA model to write"`
	Config  string `arg:"--config" help:"YAML configuration file"`
	Order   int    `arg:"--order" help:"maximum n-gram order, overrides the configuration"`
	Verbose bool   `arg:"--verbose" help:"log debug messages"`
}

func (args) Description() string {
	return "kn-compile builds a Kneser-Ney smoothed ARPA language model from n-gram counts.\n" +
		"Paths may be local or s3://bucket/key and may end in .gz or .sz."
}

func run(argv []string, stdout, stderr io.Writer) int {
	var a args
	p, err := arg.NewParser(arg.Config{Program: "kn-compile"}, &a)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	switch err := p.Parse(argv); {
	case err == arg.ErrHelp:
		p.WriteHelp(stdout)
		return 0
	case err != nil:
		fmt.Fprintf(stdout, "error: %v\n", err)
		p.WriteUsage(stdout)
		return 1
	}

	logger := lmlog.NewWithWriters(a.Verbose, stdout, stderr)
	defer logger.Sync()

	cfg, err := config.Load(a.Config)
	if err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	if a.Order > 0 {
		cfg.MaxOrder = a.Order
	}

	if _, err := compiler.CompileFiles(cfg, a.Input, a.Output, logger); err != nil {
		fmt.Fprintln(stdout, err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
