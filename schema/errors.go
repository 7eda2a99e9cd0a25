package crochetschema

import (
	"fmt"
)

// SchemaCompileError reports a malformed schema fragment
type SchemaCompileError struct {
	Info     string
	Location string
}

func (err SchemaCompileError) Error() string {
	return fmt.Sprintf("SchemaCompileError %s, paths: %s", err.Info, err.Location)
}

func NewCompileError(info string, loc location) *SchemaCompileError {
	return &SchemaCompileError{Info: info, Location: loc.String()}
}

// UnresolvedReferenceError reports a $ref whose target cannot be found
type UnresolvedReferenceError struct {
	Ref      string
	Location string
}

func (err UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("UnresolvedReferenceError %s, paths: %s", err.Ref, err.Location)
}

// DocumentParseError reports a document which is not well-formed data.
// It never appears as a Violation.
type DocumentParseError struct {
	Locator string
	Cause   error
}

func (err DocumentParseError) Error() string {
	if err.Locator == "" {
		return fmt.Sprintf("DocumentParseError %s", err.Cause)
	}
	return fmt.Sprintf("DocumentParseError %s: %s", err.Locator, err.Cause)
}

func (err DocumentParseError) Unwrap() error {
	return err.Cause
}
