package crochetschema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SchemaMixin
func (self *SchemaMixin) SetTitle(title string) {
	self.title = title
}

func (self SchemaMixin) Title() string {
	return self.title
}

func (self *SchemaMixin) SetDescription(desc string) {
	self.description = desc
}

func (self SchemaMixin) Description() string {
	return self.description
}

// Schema
func (schema *Schema) Root() *Node {
	return schema.nodes[schema.root]
}

func (schema *Schema) Node(ref NodeRef) *Node {
	if ref < 0 || int(ref) >= len(schema.nodes) {
		return nil
	}
	return schema.nodes[ref]
}

// Len returns the number of compiled nodes in the arena.
func (schema *Schema) Len() int {
	return len(schema.nodes)
}

// Node
func (node *Node) Location() string {
	return node.location
}

// Type returns the declared type names joined by ",", or "any".
func (node *Node) Type() string {
	if len(node.types) == 0 {
		return "any"
	}
	return strings.Join(node.types, ",")
}

func (node *Node) Properties() []Property {
	return node.properties
}

func (node *Node) Required() []string {
	return node.required
}

// Scan checks data in schema tree order: type, enum/const, the keywords
// of the data's kind, then composition.
func (node *Node) Scan(validator *SchemaValidator, data any) {
	if node.reject {
		validator.report(node, "false schema", "boolean schema is false", nil)
		return
	}

	kind := kindOf(data)
	typeOK := node.scanType(validator, data, kind)
	node.scanEnum(validator, data)

	// type specific keywords are skipped once the type failed
	if typeOK {
		switch kind {
		case kindObject:
			node.scanObject(validator, data)
		case kindArray:
			node.scanArray(validator, data.([]any))
		case kindNumber:
			node.scanNumber(validator, data)
		case kindString:
			node.scanString(validator, data.(string))
		}
	}

	node.scanComposition(validator, data)
}

// type
func (node *Node) matchesType(data any, kind string) bool {
	for _, t := range node.types {
		if t == kind {
			return true
		}
		if t == kindInteger && kind == kindNumber && isIntegral(data) {
			return true
		}
	}
	return false
}

func (node *Node) scanType(validator *SchemaValidator, data any, kind string) bool {
	if len(node.types) == 0 || node.matchesType(data, kind) {
		return true
	}
	expected := strings.Join(node.types, ",")
	validator.report(node, "type", "must be "+expected, map[string]any{
		"type": expected,
		"got":  kind,
	})
	return false
}

// enum and const
func (node *Node) scanEnum(validator *SchemaValidator, data any) {
	if node.enum != nil {
		found := false
		for _, allowed := range node.enum {
			if valueEqual(allowed, data) {
				found = true
				break
			}
		}
		if !found {
			validator.report(node, "enum", "must be equal to one of the allowed values", map[string]any{
				"allowedValues": node.enum,
			})
		}
	}

	if node.hasConst && !valueEqual(node.constant, data) {
		validator.report(node, "const", "must be equal to constant", map[string]any{
			"allowedValue": node.constant,
		})
	}
}

// object
func (node *Node) isDeclared(prop string) bool {
	if _, ok := node.propIndex[prop]; ok {
		return true
	}
	for _, pp := range node.patternProperties {
		if pp.pattern.MatchString(prop) {
			return true
		}
	}
	return false
}

func (node *Node) scanObject(validator *SchemaValidator, data any) {
	obj, _ := objectView(data)

	for _, prop := range node.required {
		if !obj.Has(prop) {
			validator.report(node, "required", fmt.Sprintf("must have required property '%s'", prop), map[string]any{
				"missingProperty": prop,
			})
		}
	}

	for _, prop := range node.properties {
		if v, found := obj.Get(prop.Name); found {
			validator.scanStep(prop.Ref, prop.Name, v)
		}
	}

	for _, key := range obj.Keys() {
		v, _ := obj.Get(key)
		for _, pp := range node.patternProperties {
			if pp.pattern.MatchString(key) {
				validator.scanStep(pp.Ref, key, v)
			}
		}
		if node.isDeclared(key) {
			continue
		}
		if node.noAdditional {
			validator.report(node, "additionalProperties", "must NOT have additional properties", map[string]any{
				"additionalProperty": key,
			})
		} else if node.additional != noRef {
			validator.scanStep(node.additional, key, v)
		}
	}

	if node.minProperties != nil && obj.Len() < *node.minProperties {
		validator.report(node, "minProperties", fmt.Sprintf("must NOT have fewer than %d properties", *node.minProperties), map[string]any{
			"limit": *node.minProperties,
		})
	}
	if node.maxProperties != nil && obj.Len() > *node.maxProperties {
		validator.report(node, "maxProperties", fmt.Sprintf("must NOT have more than %d properties", *node.maxProperties), map[string]any{
			"limit": *node.maxProperties,
		})
	}
}

// array
func (node *Node) scanArray(validator *SchemaValidator, items []any) {
	if node.minItems != nil && len(items) < *node.minItems {
		validator.report(node, "minItems", fmt.Sprintf("must NOT have fewer than %d items", *node.minItems), map[string]any{
			"limit": *node.minItems,
		})
	}
	if node.maxItems != nil && len(items) > *node.maxItems {
		validator.report(node, "maxItems", fmt.Sprintf("must NOT have more than %d items", *node.maxItems), map[string]any{
			"limit": *node.maxItems,
		})
	}

	if node.uniqueItems {
	outer:
		for j := 1; j < len(items); j++ {
			for i := 0; i < j; i++ {
				if valueEqual(items[i], items[j]) {
					validator.report(node, "uniqueItems", fmt.Sprintf("must NOT have duplicate items (items ## %d and %d are identical)", j, i), map[string]any{
						"i": i,
						"j": j,
					})
					break outer
				}
			}
		}
	}

	if node.items != noRef {
		for i, item := range items {
			validator.scanStep(node.items, strconv.Itoa(i), item)
		}
		return
	}

	for i, ref := range node.tupleItems {
		if i >= len(items) {
			break
		}
		validator.scanStep(ref, strconv.Itoa(i), items[i])
	}
	if node.tupleItems != nil && len(items) > len(node.tupleItems) {
		if node.noAdditionalItems {
			validator.report(node, "additionalItems", fmt.Sprintf("must NOT have more than %d items", len(node.tupleItems)), map[string]any{
				"limit": len(node.tupleItems),
			})
		} else if node.additionalItems != noRef {
			for i := len(node.tupleItems); i < len(items); i++ {
				validator.scanStep(node.additionalItems, strconv.Itoa(i), items[i])
			}
		}
	}
}

// number
func (node *Node) checkBound(validator *SchemaValidator, keyword string, limit *float64, comparison string, ok bool) {
	if ok {
		return
	}
	validator.report(node, keyword, fmt.Sprintf("must be %s %s", comparison, formatNumber(*limit)), map[string]any{
		"comparison": comparison,
		"limit":      *limit,
	})
}

func (node *Node) scanNumber(validator *SchemaValidator, data any) {
	// bounds compare at full precision, 1e400 is above any float64 limit
	cmp := func(limit *float64) int {
		c, _ := compareNumbers(data, *limit)
		return c
	}
	if node.minimum != nil {
		node.checkBound(validator, "minimum", node.minimum, ">=", cmp(node.minimum) >= 0)
	}
	if node.maximum != nil {
		node.checkBound(validator, "maximum", node.maximum, "<=", cmp(node.maximum) <= 0)
	}
	if node.exclusiveMinimum != nil {
		node.checkBound(validator, "exclusiveMinimum", node.exclusiveMinimum, ">", cmp(node.exclusiveMinimum) > 0)
	}
	if node.exclusiveMaximum != nil {
		node.checkBound(validator, "exclusiveMaximum", node.exclusiveMaximum, "<", cmp(node.exclusiveMaximum) < 0)
	}
	if node.multipleOf != nil {
		if !isMultipleOf(data, *node.multipleOf) {
			validator.report(node, "multipleOf", "must be multiple of "+formatNumber(*node.multipleOf), map[string]any{
				"multipleOf": *node.multipleOf,
			})
		}
	}
}

// string
func (node *Node) scanString(validator *SchemaValidator, str string) {
	length := utf8.RuneCountInString(str)
	if node.minLength != nil && length < *node.minLength {
		validator.report(node, "minLength", fmt.Sprintf("must NOT have fewer than %d characters", *node.minLength), map[string]any{
			"limit": *node.minLength,
		})
	}
	if node.maxLength != nil && length > *node.maxLength {
		validator.report(node, "maxLength", fmt.Sprintf("must NOT have more than %d characters", *node.maxLength), map[string]any{
			"limit": *node.maxLength,
		})
	}
	if node.pattern != nil && !node.pattern.MatchString(str) {
		validator.report(node, "pattern", fmt.Sprintf("must match pattern \"%s\"", node.pattern.String()), map[string]any{
			"pattern": node.pattern.String(),
		})
	}
	if node.formatCheck != nil && !node.formatCheck(str) {
		validator.report(node, "format", fmt.Sprintf("must match format \"%s\"", node.format), map[string]any{
			"format": node.format,
		})
	}
}

// composition
func (node *Node) scanComposition(validator *SchemaValidator, data any) {
	if node.ref != noRef {
		validator.followRef(node.ref, data)
	}

	for _, ref := range node.allOf {
		validator.scanNode(ref, data)
	}

	if node.anyOf != nil {
		node.scanAnyOf(validator, data)
	}
	if node.oneOf != nil {
		node.scanOneOf(validator, data)
	}

	if node.not != noRef {
		br := validator.branch()
		br.scanNode(node.not, data)
		if len(br.errors) == 0 {
			validator.report(node, "not", "must NOT be valid", nil)
		}
	}
}

// scanAnyOf passes as soon as one choice passes. Otherwise it reports
// the choice with the fewest violations, the first declared one on a
// tie, followed by an anyOf violation.
func (node *Node) scanAnyOf(validator *SchemaValidator, data any) {
	var closest *SchemaValidator
	for _, ref := range node.anyOf {
		br := validator.branch()
		br.scanNode(ref, data)
		if len(br.errors) == 0 {
			return
		}
		if closest == nil || len(br.errors) < len(closest.errors) {
			closest = br
		}
	}
	validator.merge(closest)
	validator.report(node, "anyOf", "must match a schema in anyOf", nil)
}

func (node *Node) scanOneOf(validator *SchemaValidator, data any) {
	var passing []int
	branches := make([]*SchemaValidator, 0, len(node.oneOf))
	for i, ref := range node.oneOf {
		br := validator.branch()
		br.scanNode(ref, data)
		if len(br.errors) == 0 {
			passing = append(passing, i)
		}
		branches = append(branches, br)
	}

	switch {
	case len(passing) == 1:
		return
	case len(passing) > 1:
		validator.report(node, "oneOf", fmt.Sprintf("must match exactly one schema in oneOf, but matches %d", len(passing)), map[string]any{
			"passingSchemas": passing,
		})
	default:
		for _, br := range branches {
			validator.merge(br)
		}
		validator.report(node, "oneOf", "must match exactly one schema in oneOf", map[string]any{
			"passingSchemas": nil,
		})
	}
}
