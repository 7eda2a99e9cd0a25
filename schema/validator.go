package crochetschema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// InstancePath renders Path as a JSON pointer, "" being the root.
func (v Violation) InstancePath() string {
	var sb strings.Builder
	for _, step := range v.Path {
		sb.WriteString("/")
		sb.WriteString(escapePointerToken(step))
	}
	return sb.String()
}

func (v Violation) Error() string {
	path := v.InstancePath()
	if path == "" {
		path = "<root>"
	}
	return fmt.Sprintf("%s %s", path, v.Message)
}

func (result ValidationResult) Error() string {
	msgs := make([]string, 0, len(result.Errors))
	for _, v := range result.Errors {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate evaluates data against schema and reports every violation.
func Validate(schema *Schema, data any) *ValidationResult {
	validator := newSchemaValidator(schema)
	validator.scanNode(schema.root, data)
	return &ValidationResult{
		Valid:  len(validator.errors) == 0,
		Errors: validator.errors,
	}
}

// ValidateBytes parses JSON data and validates it. A parse failure is a
// *DocumentParseError, never a Violation.
func ValidateBytes(schema *Schema, data []byte) (*ValidationResult, error) {
	v, err := DecodeOrdered(data)
	if err != nil {
		return nil, &DocumentParseError{Cause: errors.Wrap(err, "decode document")}
	}
	return Validate(schema, v), nil
}

func (schema *Schema) Validate(data any) *ValidationResult {
	return Validate(schema, data)
}

func newSchemaValidator(schema *Schema) *SchemaValidator {
	return &SchemaValidator{
		schema:    schema,
		following: make(map[refVisit]bool),
	}
}

// branch returns a validator positioned at the same path which collects
// its violations separately, used to try composition alternatives.
func (validator *SchemaValidator) branch() *SchemaValidator {
	paths := make([]string, len(validator.paths))
	copy(paths, validator.paths)
	return &SchemaValidator{
		schema:    validator.schema,
		paths:     paths,
		following: validator.following,
	}
}

func (validator *SchemaValidator) merge(other *SchemaValidator) {
	validator.errors = append(validator.errors, other.errors...)
}

func (validator *SchemaValidator) pushPath(path string) {
	validator.paths = append(validator.paths, path)
}

func (validator *SchemaValidator) popPath(path string) {
	if len(validator.paths) < 1 || validator.paths[len(validator.paths)-1] != path {
		panic(fmt.Sprintf("pop path %s is different from stack top", path))
	}
	validator.paths = validator.paths[:len(validator.paths)-1]
}

func (validator *SchemaValidator) report(node *Node, keyword string, message string, params map[string]any) {
	var newPaths []string
	newPaths = append(newPaths, validator.paths...)
	validator.errors = append(validator.errors, Violation{
		Path:       newPaths,
		SchemaPath: node.location + "/" + keyword,
		Keyword:    keyword,
		Message:    message,
		Params:     params,
	})
}

// scanNode validates data at the current path
func (validator *SchemaValidator) scanNode(ref NodeRef, data any) {
	validator.schema.nodes[ref].Scan(validator, data)
}

// scanStep validates data found one step below the current path
func (validator *SchemaValidator) scanStep(ref NodeRef, step string, data any) {
	validator.pushPath(step)
	validator.scanNode(ref, data)
	validator.popPath(step)
}

// followRef validates data against a $ref target unless the same target
// is already being applied to the same depth, which only happens for
// loops that never descend into the document.
func (validator *SchemaValidator) followRef(ref NodeRef, data any) {
	visit := refVisit{ref: ref, depth: len(validator.paths)}
	if validator.following[visit] {
		return
	}
	validator.following[visit] = true
	validator.scanNode(ref, data)
	delete(validator.following, visit)
}
