package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/superisaac/crochet"
	crochetprotocol "github.com/superisaac/crochet/protocol"
	crochetregistry "github.com/superisaac/crochet/registry"
	crochetreport "github.com/superisaac/crochet/report"
)

// schemaAuto asks schema-validate to infer the schema from the report
const schemaAuto = "auto"

func (a *app) protocolInfoCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "protocol-info",
		Short: "Print metadata about the accessibility audit protocol",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if path == "" {
				path = a.cfg.Protocol
			}
			protocol, err := crochetprotocol.Load(path)
			if err != nil {
				a.fail("Failed to load protocol", err)
				return
			}
			log.WithFields(log.Fields{
				"protocol": path,
				"tools":    len(protocol.Tools()),
				"severity": strings.Join(protocol.SeverityLevels(), ","),
			}).Debug("protocol loaded")

			repr, err := crochet.EncodePretty(crochetprotocol.Summarize(protocol))
			if err != nil {
				a.fail("Failed to load protocol", err)
				return
			}
			a.reporter.Println(repr)
		},
	}
	cmd.Flags().StringVarP(&path, "path", "p", "", fmt.Sprintf("path to protocol YAML (default %s)", crochet.DefaultProtocol))
	return cmd
}

func (a *app) schemaValidateCommand() *cobra.Command {
	var schemaKey, schemaDir, format string
	cmd := &cobra.Command{
		Use:   "schema-validate <report>",
		Short: "Validate an accessibility report against a Crochet schema",
		Long: `Validate an accessibility report against a Crochet schema.

The report is a JSON file, "-" reads standard input. Every violation is
printed with its location inside the report. The schema key "auto"
guesses the schema from the report's top level keys.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if schemaKey == "" {
				schemaKey = a.cfg.Schema
			}
			a.validateReport(args[0], schemaKey, schemaDir, format)
		},
	}
	cmd.Flags().StringVarP(&schemaKey, "schema", "s", "", fmt.Sprintf("schema key, or %q (default %s)", schemaAuto, crochet.DefaultSchema))
	cmd.Flags().StringVar(&schemaDir, "schema-dir", "", "directory of <key>.schema.json files used instead of the built-in schemas")
	cmd.Flags().StringVar(&format, "format", "text", "output format, text or json")
	return cmd
}

func (a *app) validateReport(locator string, schemaKey string, schemaDir string, format string) {
	if format != "text" && format != "json" {
		a.fail("Validation failed", errors.Errorf("unknown output format %s", format))
		return
	}
	catalog := crochetregistry.NewCatalog(a.registry(schemaDir))
	available := catalog.Keys()

	if schemaKey != schemaAuto && !containsKey(available, schemaKey) {
		a.fail("Validation failed", &crochetregistry.UnknownSchemaKeyError{Key: schemaKey, Available: available})
		return
	}

	doc, err := crochetreport.LoadDocument(locator)
	if err != nil {
		a.fail("Validation failed", err)
		return
	}

	if schemaKey == schemaAuto {
		guessed, ok := doc.GuessSchemaKey()
		if !ok || !containsKey(available, guessed) {
			a.fail("Validation failed", errors.Errorf("cannot guess the schema of %s, use --schema", locator))
			return
		}
		schemaKey = guessed
	}

	logger := log.WithFields(log.Fields{
		"runid":  crochet.NewUuid(),
		"report": locator,
		"schema": schemaKey,
	})
	logger.Debug("validating")

	result, err := catalog.Validate(schemaKey, doc.Value)
	if err != nil {
		a.fail("Validation failed", err)
		return
	}
	logger.WithField("violations", len(result.Errors)).Debug("validated")

	if format == "json" {
		a.exitCode = a.reporter.ReportJSON(doc.Identifier(), result)
	} else {
		a.exitCode = a.reporter.Report(doc.Identifier(), result)
	}
}

func (a *app) schemaListCommand() *cobra.Command {
	var schemaDir string
	cmd := &cobra.Command{
		Use:   "schema-list",
		Short: "List available schemas",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, key := range a.registry(schemaDir).Keys() {
				a.reporter.Println(key)
			}
		},
	}
	cmd.Flags().StringVar(&schemaDir, "schema-dir", "", "directory of <key>.schema.json files")
	return cmd
}

func (a *app) schemaShowCommand() *cobra.Command {
	var schemaDir string
	cmd := &cobra.Command{
		Use:   "schema-show <key>",
		Short: "Print the schema document of a key",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			data, err := a.registry(schemaDir).Get(args[0])
			if err != nil {
				a.fail("Failed to load schema", err)
				return
			}
			a.reporter.Println(strings.TrimRight(string(data), "\n"))
		},
	}
	cmd.Flags().StringVar(&schemaDir, "schema-dir", "", "directory of <key>.schema.json files")
	return cmd
}

// schemaCheckCommand validates the bundled sample of every schema, a
// missing sample is skipped.
func (a *app) schemaCheckCommand() *cobra.Command {
	var schemaDir, examplesDir string
	cmd := &cobra.Command{
		Use:   "schema-check",
		Short: "Validate the sample report of every schema",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			catalog := crochetregistry.NewCatalog(a.registry(schemaDir))
			failed := false
			checked := 0
			for _, key := range catalog.Keys() {
				samplePath := filepath.Join(examplesDir, key+".sample.json")
				if _, err := os.Stat(samplePath); os.IsNotExist(err) {
					log.Debugf("no sample for schema %s", key)
					continue
				}
				checked++
				a.reporter.Println(fmt.Sprintf("%s (%s):", key, samplePath))
				doc, err := crochetreport.LoadDocument(samplePath)
				if err != nil {
					a.fail("Validation failed", err)
					failed = true
					continue
				}
				result, err := catalog.Validate(key, doc.Value)
				if err != nil {
					a.fail("Validation failed", err)
					failed = true
					continue
				}
				if a.reporter.Report(doc.Identifier(), result) != 0 {
					failed = true
				}
			}
			if failed {
				a.fail("Schema validation failed", errors.Errorf("%d samples checked", checked))
				return
			}
			a.reporter.Println(fmt.Sprintf("All schemas validated successfully (%d samples).", checked))
		},
	}
	cmd.Flags().StringVar(&schemaDir, "schema-dir", "", "directory of <key>.schema.json files")
	cmd.Flags().StringVar(&examplesDir, "examples", "examples/reports", "directory of <key>.sample.json reports")
	return cmd
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the crochet version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			a.reporter.Println("crochet " + crochet.Version)
		},
	}
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
