// Package crochetreport loads audit reports into value trees for
// validation.
package crochetreport

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bitly/go-simplejson"
	"github.com/pkg/errors"
	crochetschema "github.com/superisaac/crochet/schema"
)

// StdinLocator makes LoadDocument read standard input
const StdinLocator = "-"

type NotFoundError struct {
	Locator string
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("report not found: %s", err.Locator)
}

// Document is a parsed report. Value keeps the key order of the source
// so violations come out in document order.
type Document struct {
	Locator string
	Value   any

	parsed *simplejson.Json
}

func LoadDocument(locator string) (*Document, error) {
	if locator == StdinLocator {
		return ReadDocument("<stdin>", os.Stdin)
	}
	f, err := os.Open(locator)
	if os.IsNotExist(err) {
		return nil, &NotFoundError{Locator: locator}
	} else if err != nil {
		return nil, errors.Wrapf(err, "open report %s", locator)
	}
	defer f.Close()
	return ReadDocument(locator, f)
}

func ReadDocument(locator string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read report %s", locator)
	}
	doc, err := ParseBytes(data)
	if err != nil {
		var parseErr *crochetschema.DocumentParseError
		if errors.As(err, &parseErr) {
			parseErr.Locator = locator
		}
		return nil, err
	}
	doc.Locator = locator
	return doc, nil
}

func ParseBytes(data []byte) (*Document, error) {
	value, err := crochetschema.DecodeOrdered(data)
	if err != nil {
		return nil, &crochetschema.DocumentParseError{Cause: errors.Wrap(err, "decode report")}
	}
	parsed, err := simplejson.NewJson(data)
	if err != nil {
		return nil, &crochetschema.DocumentParseError{Cause: errors.Wrap(err, "simplejson.NewJson")}
	}
	return &Document{Value: value, parsed: parsed}, nil
}

// Identifier names the report for humans, falling back to its locator.
func (doc *Document) Identifier() string {
	meta := doc.parsed.Get("meta")
	if project, err := meta.Get("project").String(); err == nil && project != "" {
		if date, err := meta.Get("auditDate").String(); err == nil {
			return fmt.Sprintf("%s (%s)", project, date)
		}
		return project
	}
	if date, err := doc.parsed.Get("validationDate").String(); err == nil {
		return fmt.Sprintf("contrast validation (%s)", date)
	}
	return doc.Locator
}

// GuessSchemaKey infers the schema of a report from its top level keys.
func (doc *Document) GuessSchemaKey() (string, bool) {
	if _, err := doc.parsed.Map(); err != nil {
		return "", false
	}
	if _, ok := doc.parsed.CheckGet("findings"); ok {
		return "accessibility-gaps", true
	}
	if _, ok := doc.parsed.CheckGet("meta"); ok {
		return "accessibility-gaps", true
	}
	if _, ok := doc.parsed.CheckGet("colors"); ok {
		return "contrast-validation", true
	}
	if ref, err := doc.parsed.Get("$schema").String(); err == nil {
		for _, key := range []string{"accessibility-gaps", "contrast-validation"} {
			if strings.Contains(ref, key) {
				return key, true
			}
		}
	}
	return "", false
}
