// Package crochetschema compiles JSON-Schema style documents and
// validates data against them, reporting every violation.
package crochetschema

import (
	"regexp"
)

// NodeRef is a handle to a compiled node inside a Schema's arena.
type NodeRef int

const noRef NodeRef = -1

// Schema is a compiled schema. It is immutable and safe for concurrent
// use by any number of validations.
type Schema struct {
	nodes []*Node
	root  NodeRef
}

// Schema builder, turns raw schema documents into a compiled Schema
type SchemaBuilder struct {
	named map[string]any
}

// Mapping is a string keyed object which remembers the order its keys
// were declared in.
type Mapping struct {
	keys   []string
	values map[string]any
}

type SchemaMixin struct {
	title       string
	description string
}

type Property struct {
	Name string
	Ref  NodeRef
}

type patternProperty struct {
	pattern *regexp.Regexp
	Ref     NodeRef
}

// Node is one compiled schema fragment. Absent keywords have zero
// values (nil pointers, empty slices or noRef handles).
type Node struct {
	SchemaMixin

	location string
	reject   bool

	types    []string
	enum     []any
	constant any
	hasConst bool

	// object keywords
	required          []string
	properties        []Property
	propIndex         map[string]NodeRef
	patternProperties []patternProperty
	additional        NodeRef
	noAdditional      bool
	minProperties     *int
	maxProperties     *int

	// array keywords
	items             NodeRef
	tupleItems        []NodeRef
	additionalItems   NodeRef
	noAdditionalItems bool
	minItems          *int
	maxItems          *int
	uniqueItems       bool

	// numeric keywords
	minimum          *float64
	maximum          *float64
	exclusiveMinimum *float64
	exclusiveMaximum *float64
	multipleOf       *float64

	// string keywords
	minLength   *int
	maxLength   *int
	pattern     *regexp.Regexp
	format      string
	formatCheck FormatFunc

	// composition
	allOf []NodeRef
	anyOf []NodeRef
	oneOf []NodeRef
	not   NodeRef
	ref   NodeRef
}

// Violation is one broken constraint found at one place in a document.
type Violation struct {
	// Path holds the property names and array indices leading from
	// the document root to the offending value.
	Path       []string       `json:"-"`
	SchemaPath string         `json:"schemaPath"`
	Keyword    string         `json:"keyword"`
	Message    string         `json:"message"`
	Params     map[string]any `json:"params,omitempty"`
}

type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Errors []Violation `json:"errors"`
}

// Schema validator, holds the scratch state of a single validation
type SchemaValidator struct {
	schema *Schema
	paths  []string
	errors []Violation

	// refs being followed at a given instance depth, shared by
	// branches so that a $ref loop which consumes no data stops.
	following map[refVisit]bool
}

type refVisit struct {
	ref   NodeRef
	depth int
}
