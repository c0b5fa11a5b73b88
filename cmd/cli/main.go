// Command intake is the interactive intake desk client.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/and161185/intakedesk/internal/app"
	"github.com/and161185/intakedesk/internal/autocache"
	"github.com/and161185/intakedesk/internal/client"
	"github.com/and161185/intakedesk/internal/prefs"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type options struct {
	addr      string
	caPath    string
	insecure  bool
	plaintext bool
	policy    autocache.Policy
	quiet     bool
	clipFile  string
	version   bool
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	fs := pflag.NewFlagSet("intake", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	var policy string
	fs.StringVar(&o.addr, "addr", "localhost:8443", "server address")
	fs.StringVar(&o.caPath, "cacert", "", "CA certificate (PEM)")
	fs.BoolVar(&o.insecure, "insecure", false, "skip certificate verification (dev)")
	fs.BoolVar(&o.plaintext, "plaintext", false, "connect without TLS (dev)")
	fs.StringVar(&policy, "autocache", "review", `auto-cache policy: "review" or "direct"`)
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "disable client logging")
	fs.StringVar(&o.clipFile, "clipboard", "", "file receiving copied outputs (default: print them)")
	fs.BoolVar(&o.version, "version", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage:\n  intake [flags]\n\nFlags:\n%s", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	p, err := autocache.ParsePolicy(policy)
	if err != nil {
		return options{}, err
	}
	o.policy = p
	return o, nil
}

func newLogger(quiet bool) (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// main wires the client session to a line-oriented shell on stdin/stdout.
func main() {
	o, err := parseOptions(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if o.version {
		fmt.Printf("intake %s (%s)\n", version, buildDate)
		return
	}

	logger, err := newLogger(o.quiet)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	dir := client.ConfigDir()
	cli, err := client.Dial(o.addr, client.Options{CACert: o.caPath, Insecure: o.insecure, Plaintext: o.plaintext}, client.NewSessionFile(dir))
	if err != nil {
		logger.Error("dial failed", zap.String("addr", o.addr), zap.Error(err))
		os.Exit(1)
	}
	defer func() { _ = cli.Close() }()

	term := newConsole(os.Stdin, os.Stdout, os.Stderr)
	a := app.New(app.Deps{
		Store:     cli,
		Auth:      cli,
		Notifier:  term,
		Confirmer: term,
		Clipboard: newClipboard(o.clipFile, os.Stdout),
		Prefs:     prefs.New(dir),
		Logger:    logger,
		Policy:    o.policy,
	})
	defer a.Close()

	sh := newShell(a, cli, term)
	a.Start()
	sh.run()
}
