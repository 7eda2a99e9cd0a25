package crochetschema

import (
	"fmt"
	"regexp"
	"strings"
)

// Builder
func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{named: make(map[string]any)}
}

// AddNamedSchema makes doc reachable from $ref values such as "name" or
// "name#/definitions/Foo".
func (builder *SchemaBuilder) AddNamedSchema(name string, doc any) error {
	normalized, err := normalizeDocument(doc, location{doc: name})
	if err != nil {
		return err
	}
	builder.named[name] = normalized
	return nil
}

func (builder *SchemaBuilder) AddNamedSchemaBytes(name string, data []byte) error {
	doc, err := DecodeOrdered(data)
	if err != nil {
		return NewCompileError(fmt.Sprintf("schema is not valid JSON: %s", err), location{doc: name})
	}
	return builder.AddNamedSchema(name, doc)
}

func (builder *SchemaBuilder) BuildBytes(data []byte) (*Schema, error) {
	doc, err := DecodeOrdered(data)
	if err != nil {
		return nil, NewCompileError(fmt.Sprintf("schema is not valid JSON: %s", err), location{})
	}
	return builder.Build(doc)
}

func (builder *SchemaBuilder) BuildYamlBytes(data []byte) (*Schema, error) {
	doc, err := DecodeOrderedYaml(data)
	if err != nil {
		return nil, NewCompileError(fmt.Sprintf("schema is not valid YAML: %s", err), location{})
	}
	return builder.Build(doc)
}

// BuildNamed compiles a document previously added with AddNamedSchema.
func (builder *SchemaBuilder) BuildNamed(name string) (*Schema, error) {
	doc, ok := builder.named[name]
	if !ok {
		return nil, &UnresolvedReferenceError{Ref: name, Location: "#"}
	}
	c := builder.newCompilation(nil)
	root, err := c.compile(doc, location{doc: name})
	if err != nil {
		return nil, err
	}
	return &Schema{nodes: c.nodes, root: root}, nil
}

func (builder *SchemaBuilder) Build(data any) (*Schema, error) {
	doc, err := normalizeDocument(data, location{})
	if err != nil {
		return nil, err
	}
	c := builder.newCompilation(doc)
	root, err := c.compile(doc, location{})
	if err != nil {
		return nil, err
	}
	return &Schema{nodes: c.nodes, root: root}, nil
}

// compilation is the state of one Build call. Every distinct schema
// location is compiled once into the arena.
type compilation struct {
	builder    *SchemaBuilder
	rootDoc    any
	nodes      []*Node
	byLocation map[string]NodeRef
}

func (builder *SchemaBuilder) newCompilation(rootDoc any) *compilation {
	return &compilation{
		builder:    builder,
		rootDoc:    rootDoc,
		byLocation: make(map[string]NodeRef),
	}
}

func (c *compilation) compile(raw any, loc location) (NodeRef, error) {
	key := loc.String()
	if ref, ok := c.byLocation[key]; ok {
		return ref, nil
	}
	// reserve the slot first so that recursive refs find it
	ref := NodeRef(len(c.nodes))
	c.nodes = append(c.nodes, nil)
	c.byLocation[key] = ref

	node, err := c.buildNode(raw, loc)
	if err != nil {
		return noRef, err
	}
	c.nodes[ref] = node
	return ref, nil
}

func (c *compilation) compileList(list []any, loc location) ([]NodeRef, error) {
	refs := make([]NodeRef, 0, len(list))
	for i, item := range list {
		ref, err := c.compile(item, loc.child(fmt.Sprint(i)))
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// document finds a named document, tolerating file name style keys.
func (c *compilation) document(name string) (any, string, bool) {
	if name == "" {
		return c.rootDoc, "", c.rootDoc != nil
	}
	candidates := []string{name}
	trimmed := strings.TrimPrefix(name, "./")
	for _, suffix := range []string{".schema.json", ".json", ".yaml", ".yml"} {
		if strings.HasSuffix(trimmed, suffix) {
			candidates = append(candidates, strings.TrimSuffix(trimmed, suffix))
			break
		}
	}
	candidates = append(candidates, trimmed)
	for _, candidate := range candidates {
		if doc, ok := c.builder.named[candidate]; ok {
			return doc, candidate, true
		}
	}
	return nil, "", false
}

func (c *compilation) resolveRef(ref string, loc location) (NodeRef, error) {
	docName, fragment := ref, ""
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		docName, fragment = ref[:i], ref[i+1:]
	} else if ref == "" {
		return noRef, &UnresolvedReferenceError{Ref: ref, Location: loc.String()}
	}
	if docName == "" {
		docName = loc.doc
	}
	doc, canonical, ok := c.document(docName)
	if !ok {
		return noRef, &UnresolvedReferenceError{Ref: ref, Location: loc.String()}
	}
	tokens, ok := parsePointer(fragment)
	if !ok {
		return noRef, &UnresolvedReferenceError{Ref: ref, Location: loc.String()}
	}
	target, ok := walkPointer(doc, tokens)
	if !ok {
		return noRef, &UnresolvedReferenceError{Ref: ref, Location: loc.String()}
	}
	return c.compile(target, location{doc: canonical, pointer: tokens})
}

func newNode(loc location) *Node {
	return &Node{
		location:        loc.String(),
		additional:      noRef,
		items:           noRef,
		additionalItems: noRef,
		not:             noRef,
		ref:             noRef,
	}
}

func (c *compilation) buildNode(raw any, loc location) (*Node, error) {
	node := newNode(loc)
	switch v := raw.(type) {
	case bool:
		node.reject = !v
		return node, nil
	case string:
		// a bare type name is shorthand for {"type": name}
		if stringInList(v, knownTypes...) {
			node.types = []string{v}
			return node, nil
		}
		return nil, NewCompileError("unknown type", loc)
	case *Mapping:
		if err := c.buildNodeMap(node, v, loc); err != nil {
			return nil, err
		}
		return node, nil
	default:
		return nil, NewCompileError("data is not an object", loc)
	}
}

func (c *compilation) buildNodeMap(node *Node, m *Mapping, loc location) error {
	steps := []func(*Node, *Mapping, location) error{
		c.buildMixin,
		c.buildType,
		c.buildEnum,
		c.buildObject,
		c.buildArray,
		c.buildNumber,
		c.buildString,
		c.buildComposition,
		c.buildDefinitions,
	}
	for _, step := range steps {
		if err := step(node, m, loc); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) buildMixin(node *Node, m *Mapping, loc location) error {
	title, _, err := convertAttrString(m, "title", loc)
	if err != nil {
		return err
	}
	desc, _, err := convertAttrString(m, "description", loc)
	if err != nil {
		return err
	}
	node.SetTitle(title)
	node.SetDescription(desc)
	return nil
}

func (c *compilation) buildType(node *Node, m *Mapping, loc location) error {
	v, ok := m.Get("type")
	if !ok {
		return nil
	}
	var types []string
	switch t := v.(type) {
	case string:
		types = []string{t}
	case []any:
		for i, item := range t {
			s, isString := item.(string)
			if !isString {
				return NewCompileError("type must be string", loc.child("type", fmt.Sprint(i)))
			}
			types = append(types, s)
		}
		if len(types) == 0 {
			return NewCompileError("type must not be empty", loc.child("type"))
		}
	default:
		return NewCompileError("type must be string or a list of strings", loc.child("type"))
	}
	for _, t := range types {
		if !stringInList(t, knownTypes...) {
			return NewCompileError("unknown type", loc.child("type"))
		}
	}
	node.types = types
	return nil
}

func (c *compilation) buildEnum(node *Node, m *Mapping, loc location) error {
	enum, ok, err := convertAttrList(m, "enum", loc)
	if err != nil {
		return err
	}
	if ok {
		if len(enum) == 0 {
			return NewCompileError("enum must not be empty", loc.child("enum"))
		}
		node.enum = enum
	}
	if v, ok := m.Get("const"); ok {
		node.constant = v
		node.hasConst = true
	}
	return nil
}

func (c *compilation) buildObject(node *Node, m *Mapping, loc location) error {
	required, _, err := convertAttrListOfString(m, "required", loc)
	if err != nil {
		return err
	}
	node.required = required

	props, ok, err := convertAttrMap(m, "properties", loc)
	if err != nil {
		return err
	}
	if ok {
		node.propIndex = make(map[string]NodeRef, props.Len())
		for _, propName := range props.Keys() {
			propNode, _ := props.Get(propName)
			child, err := c.compile(propNode, loc.child("properties", propName))
			if err != nil {
				return err
			}
			node.properties = append(node.properties, Property{Name: propName, Ref: child})
			node.propIndex[propName] = child
		}
	}

	patterns, ok, err := convertAttrMap(m, "patternProperties", loc)
	if err != nil {
		return err
	}
	if ok {
		for _, expr := range patterns.Keys() {
			re, err := regexp.Compile(expr)
			if err != nil {
				return NewCompileError(fmt.Sprintf("invalid pattern %q", expr), loc.child("patternProperties", expr))
			}
			patNode, _ := patterns.Get(expr)
			child, err := c.compile(patNode, loc.child("patternProperties", expr))
			if err != nil {
				return err
			}
			node.patternProperties = append(node.patternProperties, patternProperty{pattern: re, Ref: child})
		}
	}

	if additional, ok := m.Get("additionalProperties"); ok {
		if allowed, isBool := additional.(bool); isBool {
			node.noAdditional = !allowed
		} else {
			child, err := c.compile(additional, loc.child("additionalProperties"))
			if err != nil {
				return err
			}
			node.additional = child
		}
	}

	if node.minProperties, err = convertAttrInt(m, "minProperties", loc); err != nil {
		return err
	}
	if node.maxProperties, err = convertAttrInt(m, "maxProperties", loc); err != nil {
		return err
	}
	return nil
}

func (c *compilation) buildArray(node *Node, m *Mapping, loc location) error {
	if items, ok := m.Get("items"); ok {
		if tuple, isList := items.([]any); isList {
			refs, err := c.compileList(tuple, loc.child("items"))
			if err != nil {
				return err
			}
			node.tupleItems = refs
		} else {
			child, err := c.compile(items, loc.child("items"))
			if err != nil {
				return err
			}
			node.items = child
		}
	}

	if additional, ok := m.Get("additionalItems"); ok {
		if allowed, isBool := additional.(bool); isBool {
			node.noAdditionalItems = !allowed
		} else {
			child, err := c.compile(additional, loc.child("additionalItems"))
			if err != nil {
				return err
			}
			node.additionalItems = child
		}
	}

	var err error
	if node.minItems, err = convertAttrInt(m, "minItems", loc); err != nil {
		return err
	}
	if node.maxItems, err = convertAttrInt(m, "maxItems", loc); err != nil {
		return err
	}
	if node.uniqueItems, _, err = convertAttrBool(m, "uniqueItems", loc); err != nil {
		return err
	}
	return nil
}

func (c *compilation) buildNumber(node *Node, m *Mapping, loc location) error {
	var err error
	if node.minimum, err = convertAttrFloat(m, "minimum", loc); err != nil {
		return err
	}
	if node.maximum, err = convertAttrFloat(m, "maximum", loc); err != nil {
		return err
	}

	// exclusive bounds come either as numbers, or as booleans turning
	// minimum/maximum exclusive
	if v, ok := m.Get("exclusiveMinimum"); ok {
		if flag, isBool := v.(bool); isBool {
			if flag && node.minimum != nil {
				node.exclusiveMinimum, node.minimum = node.minimum, nil
			}
		} else if node.exclusiveMinimum, err = convertAttrFloat(m, "exclusiveMinimum", loc); err != nil {
			return err
		}
	}
	if v, ok := m.Get("exclusiveMaximum"); ok {
		if flag, isBool := v.(bool); isBool {
			if flag && node.maximum != nil {
				node.exclusiveMaximum, node.maximum = node.maximum, nil
			}
		} else if node.exclusiveMaximum, err = convertAttrFloat(m, "exclusiveMaximum", loc); err != nil {
			return err
		}
	}

	if node.multipleOf, err = convertAttrFloat(m, "multipleOf", loc); err != nil {
		return err
	}
	if node.multipleOf != nil && *node.multipleOf <= 0 {
		return NewCompileError("multipleOf must be greater than 0", loc.child("multipleOf"))
	}
	return nil
}

func (c *compilation) buildString(node *Node, m *Mapping, loc location) error {
	var err error
	if node.minLength, err = convertAttrInt(m, "minLength", loc); err != nil {
		return err
	}
	if node.maxLength, err = convertAttrInt(m, "maxLength", loc); err != nil {
		return err
	}

	expr, ok, err := convertAttrString(m, "pattern", loc)
	if err != nil {
		return err
	}
	if ok {
		re, err := regexp.Compile(expr)
		if err != nil {
			return NewCompileError(fmt.Sprintf("invalid pattern %q", expr), loc.child("pattern"))
		}
		node.pattern = re
	}

	format, ok, err := convertAttrString(m, "format", loc)
	if err != nil {
		return err
	}
	if ok {
		node.format = format
		// unknown formats always pass
		node.formatCheck, _ = LookupFormat(format)
	}
	return nil
}

func (c *compilation) buildComposition(node *Node, m *Mapping, loc location) error {
	for _, keyword := range []string{"allOf", "anyOf", "oneOf"} {
		choices, ok, err := convertAttrList(m, keyword, loc)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if len(choices) == 0 {
			return NewCompileError(fmt.Sprintf("no valid %s attribute", keyword), loc.child(keyword))
		}
		refs, err := c.compileList(choices, loc.child(keyword))
		if err != nil {
			return err
		}
		switch keyword {
		case "allOf":
			node.allOf = refs
		case "anyOf":
			node.anyOf = refs
		case "oneOf":
			node.oneOf = refs
		}
	}

	if notNode, ok := m.Get("not"); ok {
		child, err := c.compile(notNode, loc.child("not"))
		if err != nil {
			return err
		}
		node.not = child
	}

	ref, ok, err := convertAttrString(m, "$ref", loc)
	if err != nil {
		return err
	}
	if ok {
		target, err := c.resolveRef(ref, loc)
		if err != nil {
			return err
		}
		node.ref = target
	}
	return nil
}

// definitions are compiled eagerly so that malformed ones are rejected
// even when nothing refers to them.
func (c *compilation) buildDefinitions(node *Node, m *Mapping, loc location) error {
	for _, keyword := range []string{"definitions", "$defs"} {
		defs, ok, err := convertAttrMap(m, keyword, loc)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for _, name := range defs.Keys() {
			def, _ := defs.Get(name)
			if _, err := c.compile(def, loc.child(keyword, name)); err != nil {
				return err
			}
		}
	}
	return nil
}
