package main

import (
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/superisaac/crochet"
	crochetregistry "github.com/superisaac/crochet/registry"
	crochetreporter "github.com/superisaac/crochet/reporter"
)

// app carries the state shared by the commands of one invocation
type app struct {
	out    io.Writer
	errOut io.Writer

	cfgFile string
	verbose bool
	noColor bool

	cfg      *crochet.Config
	reporter *crochetreporter.Reporter
	exitCode int
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	a := &app{out: out, errOut: errOut}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	if err := root.Execute(); err != nil {
		return crochetreporter.ExitFailed
	}
	return a.exitCode
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "crochet",
		Short:        "Accessibility audit automation utilities",
		Version:      crochet.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./crochet.toml when present)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		a.protocolInfoCommand(),
		a.schemaValidateCommand(),
		a.schemaListCommand(),
		a.schemaShowCommand(),
		a.schemaCheckCommand(),
		a.versionCommand(),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := crochet.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.SetupLogger(a.verbose); err != nil {
		return err
	}
	log.SetOutput(a.errOut)
	a.cfg = cfg
	a.reporter = crochetreporter.NewReporter(a.out, a.errOut, cfg.ColorEnabled() && !a.noColor)
	return nil
}

// registry picks the schema directory when one is configured, the
// embedded schemas otherwise.
func (a *app) registry(schemaDir string) crochetregistry.Registry {
	if schemaDir == "" {
		schemaDir = a.cfg.SchemaDir
	}
	if schemaDir != "" {
		log.Debugf("schemas from directory %s", schemaDir)
		return crochetregistry.NewDirRegistry(schemaDir)
	}
	return crochetregistry.NewEmbeddedRegistry()
}

func (a *app) fail(prefix string, err error) {
	a.exitCode = a.reporter.Failure(prefix, err)
}
