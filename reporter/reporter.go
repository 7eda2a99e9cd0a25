// Package crochetreporter prints validation outcomes and turns them
// into process exit codes.
package crochetreporter

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
	"github.com/superisaac/crochet"
	crochetschema "github.com/superisaac/crochet/schema"
)

const (
	ExitOK     = 0
	ExitFailed = 1
)

type Reporter struct {
	Out   io.Writer
	Err   io.Writer
	Color bool

	okStyle   lipgloss.Style
	failStyle lipgloss.Style
	pathStyle lipgloss.Style
}

func NewReporter(out io.Writer, errOut io.Writer, color bool) *Reporter {
	r := &Reporter{Out: out, Err: errOut, Color: color}
	if color {
		okRenderer := lipgloss.NewRenderer(out)
		errRenderer := lipgloss.NewRenderer(errOut)
		r.okStyle = okRenderer.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
		r.failStyle = errRenderer.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
		r.pathStyle = errRenderer.NewStyle().Foreground(lipgloss.Color("11"))
	}
	return r
}

func (r *Reporter) render(style lipgloss.Style, s string) string {
	if !r.Color {
		return s
	}
	return style.Render(s)
}

// Println writes a plain line to Out
func (r *Reporter) Println(line string) {
	fmt.Fprintln(r.Out, line)
}

// Report prints the outcome of validating the report named id and
// returns the exit code.
func (r *Reporter) Report(id string, result *crochetschema.ValidationResult) int {
	log.WithFields(log.Fields{
		"report":     id,
		"valid":      result.Valid,
		"violations": len(result.Errors),
	}).Debug("report validated")

	if result.Valid {
		fmt.Fprintln(r.Out, r.render(r.okStyle, "Report is valid ✅"))
		return ExitOK
	}
	fmt.Fprintln(r.Err, r.render(r.failStyle, "Report failed validation:"))
	for _, v := range result.Errors {
		path := v.InstancePath()
		if path == "" {
			path = "<root>"
		}
		fmt.Fprintf(r.Err, " - %s %s\n", r.render(r.pathStyle, path), v.Message)
	}
	return ExitFailed
}

type violationView struct {
	InstancePath string         `json:"instancePath"`
	SchemaPath   string         `json:"schemaPath"`
	Keyword      string         `json:"keyword"`
	Message      string         `json:"message"`
	Params       map[string]any `json:"params,omitempty"`
}

type resultView struct {
	Report string          `json:"report"`
	Valid  bool            `json:"valid"`
	Errors []violationView `json:"errors"`
}

// ReportJSON prints the outcome as an indented JSON document on Out.
func (r *Reporter) ReportJSON(id string, result *crochetschema.ValidationResult) int {
	view := resultView{
		Report: id,
		Valid:  result.Valid,
		Errors: make([]violationView, 0, len(result.Errors)),
	}
	for _, v := range result.Errors {
		view.Errors = append(view.Errors, violationView{
			InstancePath: v.InstancePath(),
			SchemaPath:   v.SchemaPath,
			Keyword:      v.Keyword,
			Message:      v.Message,
			Params:       v.Params,
		})
	}
	repr, err := crochet.EncodePretty(view)
	if err != nil {
		return r.Failure("Validation failed", err)
	}
	fmt.Fprintln(r.Out, repr)
	if result.Valid {
		return ExitOK
	}
	return ExitFailed
}

// Failure prints "<prefix>: <err>" on Err and returns the failure code.
func (r *Reporter) Failure(prefix string, err error) int {
	fmt.Fprintf(r.Err, "%s: %s\n", r.render(r.failStyle, prefix), err)
	return ExitFailed
}
